package kitchen

import "kitchen-display/internal/domain"

// Selection is a terminal's set of category ids. An empty selection means
// the terminal is unconfigured and passes everything through: showing all
// orders is the safe default, never showing none.
type Selection map[string]struct{}

func NewSelection(categoryIDs []string) Selection {
	sel := make(Selection, len(categoryIDs))
	for _, id := range categoryIDs {
		sel[id] = struct{}{}
	}
	return sel
}

func (s Selection) Allows(categoryID string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[categoryID]
	return ok
}

func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// StationOrder is an order as one terminal sees it: only the items the
// terminal's categories retain, plus the status derived from that subset.
// The derived status is never stored anywhere; it is recomputed per read.
type StationOrder struct {
	domain.Order
	Derived domain.OrderStatus `json:"derived_status"`
}

// FilterOrders produces the terminal's view of the given orders. Orders left
// with zero items after category filtering are dropped entirely. Two
// terminals with different selections may legitimately disagree about the
// same order.
func FilterOrders(orders []domain.Order, sel Selection) []StationOrder {
	out := make([]StationOrder, 0, len(orders))
	for _, o := range orders {
		kept := make([]domain.OrderItem, 0, len(o.Items))
		for _, it := range o.Items {
			if sel.Allows(it.MenuItem.CategoryID) {
				kept = append(kept, it)
			}
		}
		if len(kept) == 0 {
			continue
		}
		o.Items = kept
		out = append(out, StationOrder{Order: o, Derived: DeriveStationStatus(kept)})
	}
	return out
}

// Columns is the three-column kitchen layout keyed by derived status.
type Columns struct {
	New        []StationOrder `json:"new"`
	InProgress []StationOrder `json:"in_progress"`
	Ready      []StationOrder `json:"ready"`
}

func GroupColumns(orders []StationOrder) Columns {
	var c Columns
	for _, o := range orders {
		switch o.Derived {
		case domain.OrderReady:
			c.Ready = append(c.Ready, o)
		case domain.OrderPreparing:
			c.InProgress = append(c.InProgress, o)
		default:
			c.New = append(c.New, o)
		}
	}
	return c
}
