package kitchen

import (
	"testing"

	"kitchen-display/internal/domain"
)

func TestFilterOrdersEmptySelectionPassesThrough(t *testing.T) {
	t.Parallel()
	orders := []domain.Order{
		testOrder("1", domain.OrderConfirmed, domain.ItemConfirmed),
		testOrder("2", domain.OrderPreparing, domain.ItemPreparing, domain.ItemReady),
	}
	got := FilterOrders(orders, Selection{})
	if len(got) != 2 {
		t.Fatalf("filtered %d orders, want 2 (empty selection shows everything)", len(got))
	}
	if len(got[1].Items) != 2 {
		t.Errorf("order 2 kept %d items, want 2", len(got[1].Items))
	}
}

func TestFilterOrdersDropsOrdersWithNoMatchingItems(t *testing.T) {
	t.Parallel()
	orders := []domain.Order{
		testOrder("1", domain.OrderConfirmed, domain.ItemConfirmed),                      // item A in catA
		testOrder("2", domain.OrderConfirmed, domain.ItemConfirmed, domain.ItemPreparing), // items in catA, catB
	}
	got := FilterOrders(orders, NewSelection([]string{"catB"}))
	if len(got) != 1 {
		t.Fatalf("filtered %d orders, want 1", len(got))
	}
	if got[0].ID != "2" {
		t.Fatalf("kept order %s, want 2", got[0].ID)
	}
	if len(got[0].Items) != 1 || got[0].Items[0].MenuItem.CategoryID != "catB" {
		t.Errorf("kept items %+v, want only the catB item", got[0].Items)
	}
}

// An order appears in a terminal's list iff at least one item matches its
// selected categories, or the selection is empty.
func TestFilterMembershipInvariant(t *testing.T) {
	t.Parallel()
	orders := []domain.Order{
		testOrder("1", domain.OrderConfirmed, domain.ItemConfirmed),
		testOrder("2", domain.OrderConfirmed, domain.ItemConfirmed, domain.ItemConfirmed),
	}
	selections := []Selection{
		{},
		NewSelection([]string{"catA"}),
		NewSelection([]string{"catB"}),
		NewSelection([]string{"catA", "catB"}),
		NewSelection([]string{"nonexistent"}),
	}
	for _, sel := range selections {
		got := FilterOrders(orders, sel)
		present := make(map[string]bool, len(got))
		for _, o := range got {
			present[o.ID] = true
		}
		for _, o := range orders {
			matches := len(sel) == 0
			for _, it := range o.Items {
				if sel.Allows(it.MenuItem.CategoryID) {
					matches = true
				}
			}
			if present[o.ID] != matches {
				t.Errorf("selection %v: order %s present=%v, want %v", sel.IDs(), o.ID, present[o.ID], matches)
			}
		}
	}
}

// Two terminals with different selections derive independently: the station
// holding only the ready item shows READY while the full view still shows
// PREPARING.
func TestPerTerminalDerivation(t *testing.T) {
	t.Parallel()
	o := testOrder("1", domain.OrderPreparing, domain.ItemReady, domain.ItemPreparing) // A ready (catA), B preparing (catB)
	orders := []domain.Order{o}

	stationA := FilterOrders(orders, NewSelection([]string{"catA"}))
	if len(stationA) != 1 || stationA[0].Derived != domain.OrderReady {
		t.Errorf("station A derived %v, want READY", stationA)
	}
	both := FilterOrders(orders, NewSelection([]string{"catA", "catB"}))
	if len(both) != 1 || both[0].Derived != domain.OrderPreparing {
		t.Errorf("combined station derived %v, want PREPARING", both)
	}
}

func TestGroupColumns(t *testing.T) {
	t.Parallel()
	list := []StationOrder{
		{Order: testOrder("1", domain.OrderConfirmed), Derived: domain.OrderConfirmed},
		{Order: testOrder("2", domain.OrderPreparing), Derived: domain.OrderPreparing},
		{Order: testOrder("3", domain.OrderReady), Derived: domain.OrderReady},
		{Order: testOrder("4", domain.OrderConfirmed), Derived: domain.OrderConfirmed},
	}
	c := GroupColumns(list)
	if len(c.New) != 2 || len(c.InProgress) != 1 || len(c.Ready) != 1 {
		t.Fatalf("columns new=%d in_progress=%d ready=%d, want 2/1/1", len(c.New), len(c.InProgress), len(c.Ready))
	}
	if c.New[0].ID != "1" || c.New[1].ID != "4" {
		t.Error("new column lost input ordering")
	}
}
