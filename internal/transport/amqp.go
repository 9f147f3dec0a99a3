// Package transport carries the push channel. Two implementations exist:
// an AMQP consumer bound to the backend's notifications fanout, and a
// WebSocket client for backends that expose a socket endpoint instead.
// Reconnection and backoff live here, beneath the event-handling layer,
// which only observes connectivity transitions.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"kitchen-display/internal/kitchen"
	"kitchen-display/internal/logger"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	frameBuffer    = 64
)

type AMQPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
	UseTLS   bool
	// Exchange is the backend's fanout carrying status-change events.
	Exchange string
	// Terminal names the per-terminal queue; the queue itself is exclusive
	// and auto-deleted, so a restarted terminal starts clean and resyncs.
	Terminal string
}

// AMQP consumes the backend's notification fanout through a private queue
// per terminal.
type AMQP struct {
	cfg    AMQPConfig
	lg     *logger.Logger
	frames chan []byte
	states chan kitchen.Connectivity
}

func NewAMQP(cfg AMQPConfig, lg *logger.Logger) *AMQP {
	if cfg.VHost == "" {
		cfg.VHost = "/"
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "notifications_fanout"
	}
	return &AMQP{
		cfg:    cfg,
		lg:     lg,
		frames: make(chan []byte, frameBuffer),
		states: make(chan kitchen.Connectivity, 4),
	}
}

func (t *AMQP) Frames() <-chan []byte               { return t.frames }
func (t *AMQP) States() <-chan kitchen.Connectivity { return t.states }

// Run dials, consumes, and redials with doubling backoff until the context
// ends. Both output channels close on return.
func (t *AMQP) Run(ctx context.Context) error {
	defer close(t.frames)
	defer close(t.states)

	backoff := initialBackoff
	for {
		if !t.setState(ctx, kitchen.Connecting) {
			return ctx.Err()
		}
		conn, deliveries, err := t.dial()
		if err != nil {
			t.lg.Error("amqp_dial_failed", err, map[string]any{"host": t.cfg.Host})
			if !t.setState(ctx, kitchen.Degraded) {
				return ctx.Err()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = initialBackoff
		if !t.setState(ctx, kitchen.Open) {
			_ = conn.Close()
			return ctx.Err()
		}

		if err := t.consume(ctx, deliveries); err != nil {
			_ = conn.Close()
			return err
		}
		_ = conn.Close()
		if !t.setState(ctx, kitchen.Degraded) {
			return ctx.Err()
		}
	}
}

func (t *AMQP) dial() (*amqp.Connection, <-chan amqp.Delivery, error) {
	scheme := "amqp"
	if t.cfg.UseTLS {
		scheme = "amqps"
	}
	url := fmt.Sprintf("%s://%s:%s@%s:%d/%s",
		scheme, t.cfg.User, t.cfg.Password, t.cfg.Host, t.cfg.Port, t.cfg.VHost)

	var (
		conn *amqp.Connection
		err  error
	)
	if t.cfg.UseTLS {
		conn, err = amqp.DialTLS(url, &tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		conn, err = amqp.Dial(url)
	}
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	// Idempotent: the backend owns the exchange, declaring again is a no-op.
	if err := ch.ExchangeDeclare(t.cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare %s: %w", t.cfg.Exchange, err)
	}
	queue := fmt.Sprintf("kds.%s", t.cfg.Terminal)
	if _, err := ch.QueueDeclare(queue, false, true, true, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, "", t.cfg.Exchange, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue bind %s: %w", queue, err)
	}
	// Auto-ack: a dropped frame is recovered by resync, and the fanout is
	// not durable per terminal anyway.
	deliveries, err := ch.Consume(queue, t.cfg.Terminal, true, true, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, deliveries, nil
}

func (t *AMQP) consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				t.lg.Info("amqp_channel_closed", map[string]any{"terminal": t.cfg.Terminal})
				return nil
			}
			select {
			case t.frames <- d.Body:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (t *AMQP) setState(ctx context.Context, st kitchen.Connectivity) bool {
	select {
	case t.states <- st:
		return true
	case <-ctx.Done():
		return false
	}
}
