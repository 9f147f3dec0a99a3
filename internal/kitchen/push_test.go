package kitchen

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"kitchen-display/internal/domain"
)

type fakeTransport struct {
	frames chan []byte
	states chan Connectivity
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		frames: make(chan []byte, 16),
		states: make(chan Connectivity, 16),
	}
}

func (f *fakeTransport) Frames() <-chan []byte       { return f.frames }
func (f *fakeTransport) States() <-chan Connectivity { return f.states }

func (f *fakeTransport) push(t *testing.T, typ string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal event data: %v", err)
	}
	env, err := json.Marshal(domain.Envelope{Type: typ, Data: raw})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	f.frames <- env
}

type consumerHarness struct {
	transport *fakeTransport
	store     *Store
	fetch     *fakeFetcher
	notices   *NoticeBoard
	consumer  *Consumer
	cancel    context.CancelFunc
}

func startConsumer(t *testing.T, seed ...domain.Order) *consumerHarness {
	t.Helper()
	h := &consumerHarness{
		transport: newFakeTransport(),
		store:     NewStore(),
		fetch:     &fakeFetcher{},
		notices:   NewNoticeBoard(10),
	}
	h.store.ReplaceSnapshot(seed)
	h.fetch.orders = seed
	syncer := NewSyncer(h.fetch, h.store, testLogger())
	h.consumer = NewConsumer(h.transport, h.store, syncer, h.notices, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)
	go func() { _ = syncer.Run(ctx) }()
	go func() { _ = h.consumer.Run(ctx) }()
	return h
}

func TestConsumerAppliesItemStatusEvent(t *testing.T) {
	t.Parallel()
	h := startConsumer(t, testOrder("1", domain.OrderPreparing, domain.ItemConfirmed))

	h.transport.push(t, domain.EventOrderItemStatusChanged, domain.OrderItemStatusChangedEvent{
		OrderID: "1", ItemID: "A",
		OldStatus: domain.ItemConfirmed, NewStatus: domain.ItemPreparing,
	})
	waitFor(t, "item patched", func() bool {
		o, ok := h.store.Order("1")
		return ok && o.Items[0].Status == domain.ItemPreparing
	})
	if got := h.fetch.callCount(); got != 0 {
		t.Errorf("snapshot calls = %d, want 0 for an in-place patch", got)
	}
}

func TestConsumerResyncsOnUnknownOrder(t *testing.T) {
	t.Parallel()
	h := startConsumer(t, testOrder("1", domain.OrderPreparing, domain.ItemConfirmed))

	h.transport.push(t, domain.EventOrderItemStatusChanged, domain.OrderItemStatusChangedEvent{
		OrderID: "ghost", ItemID: "A", NewStatus: domain.ItemPreparing,
	})
	waitFor(t, "resync after unknown order", func() bool { return h.fetch.callCount() >= 1 })
}

func TestConsumerResyncsOnOrderCreated(t *testing.T) {
	t.Parallel()
	h := startConsumer(t, testOrder("1", domain.OrderPreparing, domain.ItemConfirmed))

	h.transport.push(t, domain.EventOrderCreated, domain.OrderCreatedEvent{OrderID: "2"})
	waitFor(t, "resync after order_created", func() bool { return h.fetch.callCount() >= 1 })
}

func TestConsumerResyncsWhenOrderLeavesKitchenScope(t *testing.T) {
	t.Parallel()
	h := startConsumer(t, testOrder("1", domain.OrderReady, domain.ItemReady))

	h.transport.push(t, domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{
		OrderID: "1", OldStatus: domain.OrderReady, NewStatus: domain.OrderServed,
	})
	waitFor(t, "resync for out-of-scope status", func() bool { return h.fetch.callCount() >= 1 })
}

func TestConsumerIgnoresUnknownEventKinds(t *testing.T) {
	t.Parallel()
	h := startConsumer(t, testOrder("1", domain.OrderPreparing, domain.ItemConfirmed))

	h.transport.push(t, "table_reassigned", map[string]string{"whatever": "x"})
	// A recognized event afterwards proves the consumer survived.
	h.transport.push(t, domain.EventOrderItemStatusChanged, domain.OrderItemStatusChangedEvent{
		OrderID: "1", ItemID: "A", NewStatus: domain.ItemPreparing,
	})
	waitFor(t, "consumer alive after unknown kind", func() bool {
		o, _ := h.store.Order("1")
		return o.Items[0].Status == domain.ItemPreparing
	})
	if got := h.fetch.callCount(); got != 0 {
		t.Errorf("snapshot calls = %d, want 0 (unknown kinds are a no-op)", got)
	}
}

func TestConsumerDropsMalformedFrames(t *testing.T) {
	t.Parallel()
	h := startConsumer(t, testOrder("1", domain.OrderPreparing, domain.ItemConfirmed))

	h.transport.frames <- []byte("{not json")
	h.transport.frames <- []byte(`{"type":"order_item_status_changed","data":"not an object"}`)
	h.transport.push(t, domain.EventOrderItemStatusChanged, domain.OrderItemStatusChangedEvent{
		OrderID: "1", ItemID: "A", NewStatus: domain.ItemPreparing,
	})
	waitFor(t, "consumer alive after malformed frames", func() bool {
		o, _ := h.store.Order("1")
		return o.Items[0].Status == domain.ItemPreparing
	})
}

func TestConsumerPostsNotifications(t *testing.T) {
	t.Parallel()
	h := startConsumer(t)

	h.transport.push(t, domain.EventKitchenNotification, domain.KitchenNotificationEvent{Message: "86 the salmon"})
	h.transport.push(t, domain.EventRestaurantNotification, domain.RestaurantNotificationEvent{Message: "closing early"})
	waitFor(t, "notices posted", func() bool { return len(h.notices.Recent()) == 2 })

	got := h.notices.Recent()
	if got[0].Kind != NoticeKitchen || got[0].Message != "86 the salmon" {
		t.Errorf("first notice = %+v", got[0])
	}
	if got[1].Kind != NoticeRestaurant {
		t.Errorf("second notice = %+v", got[1])
	}
}

func TestConsumerConnectivityAndReconnectResync(t *testing.T) {
	t.Parallel()
	h := startConsumer(t)

	if got := h.consumer.Connectivity(); got != Connecting {
		t.Fatalf("initial connectivity = %s, want connecting", got)
	}
	h.transport.states <- Open
	waitFor(t, "open", func() bool { return h.consumer.Connectivity() == Open })
	// First transition into Open closes the gap with a snapshot.
	waitFor(t, "resync on connect", func() bool { return h.fetch.callCount() >= 1 })

	h.transport.states <- Degraded
	waitFor(t, "degraded", func() bool { return h.consumer.Connectivity() == Degraded })

	before := h.fetch.callCount()
	h.transport.states <- Open
	waitFor(t, "resync on reconnect", func() bool { return h.fetch.callCount() > before })
}

func TestConsumerStopsWhenTransportCloses(t *testing.T) {
	t.Parallel()
	transport := newFakeTransport()
	store := NewStore()
	syncer := NewSyncer(&fakeFetcher{}, store, testLogger())
	consumer := NewConsumer(transport, store, syncer, NewNoticeBoard(10), testLogger())

	done := make(chan error, 1)
	go func() { done <- consumer.Run(context.Background()) }()
	close(transport.frames)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v, want nil on transport close", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after transport close")
	}
}
