package domain

import (
	"testing"
	"time"
)

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()
	seq := 7
	session := "s1"
	confirmed := time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC)
	orig := Order{
		ID:            "o1",
		Number:        "ORD-042",
		DailySequence: &seq,
		Status:        OrderConfirmed,
		ConfirmedAt:   &confirmed,
		SessionID:     &session,
		Items: []OrderItem{{
			ID:         "i1",
			Quantity:   2,
			Status:     ItemConfirmed,
			MenuItem:   MenuItemRef{ID: "m1", Name: "ramen", CategoryID: "hot"},
			Variations: []Variation{{Name: "extra egg", PriceModifier: 1.5}},
		}},
	}

	c := orig.Clone()
	c.Items[0].Status = ItemReady
	c.Items[0].Variations[0].Name = "changed"
	*c.DailySequence = 99
	*c.SessionID = "other"

	if orig.Items[0].Status != ItemConfirmed {
		t.Error("item status shared between clone and original")
	}
	if orig.Items[0].Variations[0].Name != "extra egg" {
		t.Error("variations shared between clone and original")
	}
	if *orig.DailySequence != 7 {
		t.Error("daily sequence pointer shared")
	}
	if *orig.SessionID != "s1" {
		t.Error("session pointer shared")
	}
}

func TestKitchenRelevant(t *testing.T) {
	t.Parallel()
	for s, want := range map[OrderStatus]bool{
		OrderConfirmed: true,
		OrderPreparing: true,
		OrderReady:     true,
		OrderServed:    false,
		OrderCancelled: false,
		"BOGUS":        false,
	} {
		if got := KitchenRelevant(s); got != want {
			t.Errorf("KitchenRelevant(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestOrderItemLookup(t *testing.T) {
	t.Parallel()
	o := Order{Items: []OrderItem{{ID: "a"}, {ID: "b"}}}
	if it := o.Item("b"); it == nil || it.ID != "b" {
		t.Errorf("Item(b) = %+v", it)
	}
	if it := o.Item("zzz"); it != nil {
		t.Errorf("Item(zzz) = %+v, want nil", it)
	}
}
