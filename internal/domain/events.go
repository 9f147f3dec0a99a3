package domain

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire shape of every push channel message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	EventConnection             = "connection"
	EventOrderCreated           = "order_created"
	EventOrderStatusChanged     = "order_status_changed"
	EventOrderItemStatusChanged = "order_item_status_changed"
	EventKitchenNotification    = "kitchen_notification"
	EventRestaurantNotification = "restaurant_notification"
)

// Event is the closed set of decoded push events. Unknown envelope types do
// not decode to an Event; callers get ErrUnknownEvent and must treat it as a
// no-op.
type Event interface {
	eventType() string
}

type ConnectionEvent struct{}

type OrderCreatedEvent struct {
	OrderID string `json:"orderId"`
}

type OrderStatusChangedEvent struct {
	OrderID   string      `json:"orderId"`
	OldStatus OrderStatus `json:"oldStatus"`
	NewStatus OrderStatus `json:"newStatus"`
}

type OrderItemStatusChangedEvent struct {
	OrderID   string     `json:"orderId"`
	ItemID    string     `json:"itemId"`
	OldStatus ItemStatus `json:"oldStatus"`
	NewStatus ItemStatus `json:"newStatus"`
}

type KitchenNotificationEvent struct {
	Message string `json:"message"`
}

type RestaurantNotificationEvent struct {
	Message string `json:"message"`
}

func (ConnectionEvent) eventType() string             { return EventConnection }
func (OrderCreatedEvent) eventType() string           { return EventOrderCreated }
func (OrderStatusChangedEvent) eventType() string     { return EventOrderStatusChanged }
func (OrderItemStatusChangedEvent) eventType() string { return EventOrderItemStatusChanged }
func (KitchenNotificationEvent) eventType() string    { return EventKitchenNotification }
func (RestaurantNotificationEvent) eventType() string { return EventRestaurantNotification }

// ErrUnknownEvent marks envelope types outside the recognized set.
type ErrUnknownEvent struct{ Type string }

func (e ErrUnknownEvent) Error() string { return fmt.Sprintf("unknown event type %q", e.Type) }

// DecodeEvent parses a raw push frame into a typed event.
func DecodeEvent(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case EventConnection:
		return ConnectionEvent{}, nil
	case EventOrderCreated:
		var ev OrderCreatedEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ev, nil
	case EventOrderStatusChanged:
		var ev OrderStatusChangedEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ev, nil
	case EventOrderItemStatusChanged:
		var ev OrderItemStatusChangedEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ev, nil
	case EventKitchenNotification:
		var ev KitchenNotificationEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ev, nil
	case EventRestaurantNotification:
		var ev RestaurantNotificationEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ev, nil
	default:
		return nil, ErrUnknownEvent{Type: env.Type}
	}
}
