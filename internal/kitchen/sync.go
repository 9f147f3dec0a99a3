package kitchen

import (
	"context"
	"fmt"

	"kitchen-display/internal/domain"
	"kitchen-display/internal/logger"
)

// SnapshotFetcher fetches the authoritative list of active kitchen orders.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context) ([]domain.Order, error)
}

// Syncer is the single path to a resync: fetch a fresh snapshot and replace
// the store wholesale. Every recovery case funnels here — mutation failures,
// events referencing unknown orders, poll ticks, reconnects.
type Syncer struct {
	fetch    SnapshotFetcher
	store    *Store
	lg       *logger.Logger
	requests chan string
}

func NewSyncer(fetch SnapshotFetcher, store *Store, lg *logger.Logger) *Syncer {
	return &Syncer{
		fetch: fetch,
		store: store,
		lg:    lg,
		// Buffered by one so requests coalesce: a burst of failures during
		// one degraded window produces one fetch.
		requests: make(chan string, 1),
	}
}

// Request asks for a resync without blocking. Requests arriving while one is
// already queued are dropped; the queued resync covers them.
func (s *Syncer) Request(reason string) {
	select {
	case s.requests <- reason:
	default:
	}
}

// ResyncNow fetches and replaces synchronously. Used to seed the store at
// startup; Run uses it for queued requests.
func (s *Syncer) ResyncNow(ctx context.Context) error {
	orders, err := s.fetch.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	s.store.ReplaceSnapshot(orders)
	return nil
}

// Run services queued resync requests until the context ends. Fetch failures
// are logged and dropped; the next poll tick or failure will queue another.
func (s *Syncer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reason := <-s.requests:
			if err := s.ResyncNow(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.lg.Error("resync_failed", err, map[string]any{"reason": reason})
				continue
			}
			s.lg.Info("resync_completed", map[string]any{"reason": reason, "orders": s.store.Len()})
		}
	}
}
