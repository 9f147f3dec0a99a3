package kitchen

import (
	"fmt"

	"kitchen-display/internal/domain"
)

// validNext is the item status transition table. Forward only, plus the one
// permitted undo (READY back to PREPARING). There is no undo to CONFIRMED.
var validNext = map[domain.ItemStatus]map[domain.ItemStatus]bool{
	domain.ItemConfirmed: {domain.ItemPreparing: true},
	domain.ItemPreparing: {domain.ItemReady: true},
	domain.ItemReady:     {domain.ItemPreparing: true},
	domain.ItemServed:    {},
}

func CanTransition(from, to domain.ItemStatus) bool {
	return validNext[from][to]
}

// ErrInvalidTransition is returned when a user action asks for a transition
// the machine does not allow.
type ErrInvalidTransition struct {
	From, To domain.ItemStatus
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid item transition %s -> %s", e.From, e.To)
}

// DeriveStationStatus computes the status a terminal displays for an order,
// from the items that terminal is responsible for. It is pure: the same item
// set always derives the same status, independent of history.
//
//   - READY when every item is READY or SERVED
//   - else PREPARING when any item has left CONFIRMED
//   - else CONFIRMED
//
// Called with an empty set it returns CONFIRMED, but StationFilter never
// produces an order with zero retained items.
func DeriveStationStatus(items []domain.OrderItem) domain.OrderStatus {
	allReady := len(items) > 0
	anyStarted := false
	for _, it := range items {
		switch it.Status {
		case domain.ItemReady, domain.ItemServed:
			anyStarted = true
		case domain.ItemPreparing:
			anyStarted = true
			allReady = false
		default:
			allReady = false
		}
	}
	switch {
	case allReady:
		return domain.OrderReady
	case anyStarted:
		return domain.OrderPreparing
	default:
		return domain.OrderConfirmed
	}
}
