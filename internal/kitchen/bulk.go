package kitchen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kitchen-display/internal/domain"
	"kitchen-display/internal/logger"
)

// StatusPatcher is the backend mutation surface this core consumes. Both
// calls are success/failure only; response bodies are never applied locally.
type StatusPatcher interface {
	PatchItemStatus(ctx context.Context, orderID, itemID string, status domain.ItemStatus) error
	PatchOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}

// patchDeadline bounds the background fan-out so a hung request degrades
// into the ordinary failure path.
const patchDeadline = 15 * time.Second

// BulkTransitioner turns one user action into an immediate optimistic patch
// plus one concurrent PATCH per targeted item. No atomicity across the set:
// partial failure is accepted and corrected by resync, not by a
// transactional endpoint.
type BulkTransitioner struct {
	store   *Store
	api     StatusPatcher
	sync    *Syncer
	notices *NoticeBoard
	lg      *logger.Logger

	// wg tracks background fan-outs so shutdown can drain them.
	wg sync.WaitGroup
}

func NewBulkTransitioner(store *Store, api StatusPatcher, sync *Syncer, notices *NoticeBoard, lg *logger.Logger) *BulkTransitioner {
	return &BulkTransitioner{store: store, api: api, sync: sync, notices: notices, lg: lg}
}

// Transition applies the optimistic patch and returns immediately; network
// confirmation happens in the background. The returned mutation stays
// AppliedLocally until push events confirm it or a resync supersedes it.
//
// If target is PREPARING, the order-level side effect (advance a CONFIRMED
// order to PREPARING) fires as well, independently of the item calls.
func (b *BulkTransitioner) Transition(orderID string, itemIDs []string, target domain.ItemStatus) (*Mutation, error) {
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("no items targeted")
	}
	// Read the order status before the item patch so the side-effect check
	// sees the pre-action value.
	order, ok := b.store.Order(orderID)
	if !ok {
		return nil, ErrOrderNotFound
	}

	m, err := b.store.ApplyOptimistic(orderID, itemIDs, target)
	if err != nil {
		return nil, err
	}

	if target == domain.ItemPreparing && order.Status == domain.OrderConfirmed {
		b.wg.Add(1)
		go b.advanceOrder(orderID)
	}

	b.wg.Add(1)
	go b.fanOut(orderID, itemIDs, target)
	return m, nil
}

// Wait blocks until all background fan-outs complete. Called on shutdown.
func (b *BulkTransitioner) Wait() { b.wg.Wait() }

func (b *BulkTransitioner) fanOut(orderID string, itemIDs []string, target domain.ItemStatus) {
	defer b.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), patchDeadline)
	defer cancel()

	errs := make([]error, len(itemIDs))
	var wg sync.WaitGroup
	for i, itemID := range itemIDs {
		wg.Add(1)
		go func(i int, itemID string) {
			defer wg.Done()
			errs[i] = b.api.PatchItemStatus(ctx, orderID, itemID, target)
		}(i, itemID)
	}
	wg.Wait()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			b.lg.Error("bulk_item_failed", err, map[string]any{"order_id": orderID, "item_id": itemIDs[i], "target": target})
		}
	}
	if failed == 0 {
		// Nothing to apply from the responses: the push event or the next
		// resync is the only confirmation path.
		b.lg.Debug("bulk_sent", map[string]any{"order_id": orderID, "items": len(itemIDs), "target": target})
		return
	}
	// Partial failure collapses to total failure: one notice, one resync.
	b.notices.Post(NoticeError, fmt.Sprintf("Could not update %d of %d items; refreshing", failed, len(itemIDs)))
	b.sync.Request("bulk_patch_failed")
}

// advanceOrder is the fire-and-forget order-level side effect. Failure is
// logged and never surfaced; it is deliberately decoupled from the item
// calls that triggered it.
func (b *BulkTransitioner) advanceOrder(orderID string) {
	defer b.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), patchDeadline)
	defer cancel()
	if err := b.api.PatchOrderStatus(ctx, orderID, domain.OrderPreparing); err != nil {
		b.lg.Error("order_advance_failed", err, map[string]any{"order_id": orderID})
	}
}
