package kitchen

import (
	"context"
	"time"

	"kitchen-display/internal/logger"
)

// DefaultPollInterval is policy, not contract; anything in the 8-15 second
// range keeps a degraded terminal usable without hammering the backend.
const DefaultPollInterval = 10 * time.Second

// Poller requests a full snapshot on a fixed interval, but only while the
// push channel is not open. While push is healthy the poller contributes
// zero requests.
type Poller struct {
	interval     time.Duration
	sync         *Syncer
	connectivity func() Connectivity
	lg           *logger.Logger
}

func NewPoller(interval time.Duration, sync *Syncer, connectivity func() Connectivity, lg *logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval, sync: sync, connectivity: connectivity, lg: lg}
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.connectivity() == Open {
				continue
			}
			p.lg.Debug("poll_tick", map[string]any{"connectivity": p.connectivity().String()})
			p.sync.Request("poll_fallback")
		}
	}
}
