package kitchen

import (
	"context"
	"errors"
	"sync/atomic"

	"kitchen-display/internal/domain"
	"kitchen-display/internal/logger"
)

// Connectivity is the observable state of the push channel. The channel's
// own reconnection and backoff live inside the transport; this layer only
// reacts to transitions.
type Connectivity int32

const (
	Connecting Connectivity = iota
	Open
	Degraded
)

func (c Connectivity) String() string {
	switch c {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Degraded:
		return "degraded"
	}
	return "unknown"
}

// PushTransport delivers raw push frames and connectivity transitions. Both
// channels close when the transport shuts down.
type PushTransport interface {
	Frames() <-chan []byte
	States() <-chan Connectivity
}

// Consumer drains the push transport, decodes frames into typed events, and
// applies them to the store. Anything it cannot apply safely turns into a
// resync request; nothing a frame contains can terminate the consumer.
type Consumer struct {
	transport PushTransport
	store     *Store
	sync      *Syncer
	notices   *NoticeBoard
	lg        *logger.Logger
	state     atomic.Int32
}

func NewConsumer(transport PushTransport, store *Store, sync *Syncer, notices *NoticeBoard, lg *logger.Logger) *Consumer {
	c := &Consumer{transport: transport, store: store, sync: sync, notices: notices, lg: lg}
	c.state.Store(int32(Connecting))
	return c
}

// Connectivity reports the current channel state. Safe from any goroutine.
func (c *Consumer) Connectivity() Connectivity {
	return Connectivity(c.state.Load())
}

// Run processes frames and state transitions until the context ends or the
// transport closes its channels.
func (c *Consumer) Run(ctx context.Context) error {
	frames := c.transport.Frames()
	states := c.transport.States()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case st, ok := <-states:
			if !ok {
				return nil
			}
			prev := Connectivity(c.state.Swap(int32(st)))
			c.lg.Info("push_connectivity", map[string]any{"from": prev.String(), "to": st.String()})
			if st == Open && prev != Open {
				// Anything missed during the gap is unknowable from events
				// alone; a snapshot closes it.
				c.sync.Request("push_reconnected")
			}

		case raw, ok := <-frames:
			if !ok {
				return nil
			}
			c.handleFrame(raw)
		}
	}
}

func (c *Consumer) handleFrame(raw []byte) {
	ev, err := domain.DecodeEvent(raw)
	if err != nil {
		var unknown domain.ErrUnknownEvent
		if errors.As(err, &unknown) {
			c.lg.Debug("push_event_ignored", map[string]any{"type": unknown.Type})
			return
		}
		c.lg.Error("push_event_malformed", err, nil)
		return
	}

	switch e := ev.(type) {
	case domain.ConnectionEvent:
		c.lg.Debug("push_hello", nil)

	case domain.KitchenNotificationEvent:
		c.notices.Post(NoticeKitchen, e.Message)

	case domain.RestaurantNotificationEvent:
		c.notices.Post(NoticeRestaurant, e.Message)

	case domain.OrderItemStatusChangedEvent:
		if c.store.ApplyEvent(e) == NeedResync {
			c.lg.Info("push_event_needs_resync", map[string]any{"type": domain.EventOrderItemStatusChanged, "order_id": e.OrderID})
			c.sync.Request("unknown_order_item_event")
		}

	case domain.OrderStatusChangedEvent:
		if c.store.ApplyEvent(e) == NeedResync {
			c.lg.Info("push_event_needs_resync", map[string]any{"type": domain.EventOrderStatusChanged, "order_id": e.OrderID})
			c.sync.Request("order_status_event")
		}

	case domain.OrderCreatedEvent:
		c.store.ApplyEvent(e)
		c.sync.Request("order_created")
	}
}
