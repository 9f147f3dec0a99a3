package domain

import "time"

type OrderStatus string

const (
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderServed    OrderStatus = "SERVED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type ItemStatus string

const (
	ItemConfirmed ItemStatus = "CONFIRMED"
	ItemPreparing ItemStatus = "PREPARING"
	ItemReady     ItemStatus = "READY"
	ItemServed    ItemStatus = "SERVED"
)

// KitchenRelevant reports whether an order in this status still belongs on a
// kitchen display. Orders outside this set (served, cancelled) must drop out
// of the view.
func KitchenRelevant(s OrderStatus) bool {
	switch s {
	case OrderConfirmed, OrderPreparing, OrderReady:
		return true
	}
	return false
}

func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemConfirmed, ItemPreparing, ItemReady, ItemServed:
		return true
	}
	return false
}

// Variation is a selected option on an order item (size, extras) with its
// price impact.
type Variation struct {
	Name          string  `json:"name"`
	PriceModifier float64 `json:"price_modifier"`
}

// MenuItemRef is the slice of menu item data the kitchen needs: what to cook,
// how long it usually takes, and which station category it belongs to.
type MenuItemRef struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PrepTimeMinutes int    `json:"prep_time_minutes"`
	CategoryID      string `json:"category_id"`
}

type OrderItem struct {
	ID                  string      `json:"id"`
	Quantity            int         `json:"quantity"`
	SpecialInstructions string      `json:"special_instructions,omitempty"`
	Status              ItemStatus  `json:"status"`
	MenuItem            MenuItemRef `json:"menu_item"`
	Variations          []Variation `json:"variations,omitempty"`
}

type Order struct {
	ID                  string      `json:"id"`
	Number              string      `json:"order_number"`
	DailySequence       *int        `json:"daily_sequence,omitempty"`
	Status              OrderStatus `json:"status"`
	CreatedAt           time.Time   `json:"created_at"`
	ConfirmedAt         *time.Time  `json:"confirmed_at,omitempty"`
	EstimatedReadyAt    *time.Time  `json:"estimated_ready_at,omitempty"`
	SpecialInstructions string      `json:"special_instructions,omitempty"`
	TableID             string      `json:"table_id"`
	SessionID           *string     `json:"session_id,omitempty"`
	Items               []OrderItem `json:"items"`
}

// Item returns a pointer into o.Items for the given item id, or nil.
func (o *Order) Item(id string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

// Clone deep-copies the order so readers never alias canonical store state.
func (o Order) Clone() Order {
	out := o
	out.Items = make([]OrderItem, len(o.Items))
	copy(out.Items, o.Items)
	for i := range out.Items {
		if v := out.Items[i].Variations; v != nil {
			out.Items[i].Variations = append([]Variation(nil), v...)
		}
	}
	if o.DailySequence != nil {
		seq := *o.DailySequence
		out.DailySequence = &seq
	}
	if o.ConfirmedAt != nil {
		t := *o.ConfirmedAt
		out.ConfirmedAt = &t
	}
	if o.EstimatedReadyAt != nil {
		t := *o.EstimatedReadyAt
		out.EstimatedReadyAt = &t
	}
	if o.SessionID != nil {
		s := *o.SessionID
		out.SessionID = &s
	}
	return out
}

func CloneOrders(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i := range orders {
		out[i] = orders[i].Clone()
	}
	return out
}
