package kitchen

import (
	"errors"
	"sync"

	"kitchen-display/internal/domain"
)

// ErrOrderNotFound is returned when a targeted order is not in the store.
// For push events this is a normal race, not a failure: the caller resyncs.
var ErrOrderNotFound = errors.New("order not found in local store")

// ApplyResult tells the push consumer what an event application concluded.
type ApplyResult int

const (
	// Applied means the store state was (possibly idempotently) updated.
	Applied ApplyResult = iota
	// NeedResync means the event could not be applied safely against local
	// state and a full snapshot replace is required.
	NeedResync
)

// MutationState is the explicit lifecycle of one optimistic patch.
type MutationState int

const (
	// AppliedLocally: patched in the store, awaiting authoritative truth.
	AppliedLocally MutationState = iota
	// Confirmed: push events landed every targeted item on its target status.
	Confirmed
	// Superseded: a snapshot replace overwrote whatever this patch did.
	Superseded
)

func (s MutationState) String() string {
	switch s {
	case AppliedLocally:
		return "applied_locally"
	case Confirmed:
		return "confirmed"
	case Superseded:
		return "superseded"
	}
	return "unknown"
}

// Mutation tracks one optimistic bulk patch until the push channel confirms
// it or a resync supersedes it.
type Mutation struct {
	ID      uint64
	OrderID string
	Target  domain.ItemStatus

	// pending holds the item ids whose confirmation is still outstanding.
	pending map[string]bool
	state   MutationState
}

// Store is the single owner of canonical in-memory order state. All reads
// copy; all writes go through exactly three operations: ApplyEvent,
// ReplaceSnapshot, ApplyOptimistic.
type Store struct {
	mu     sync.RWMutex
	orders []domain.Order
	index  map[string]int

	nextMutation uint64
	open         map[uint64]*Mutation
	// finished retains terminal mutation states for inspection; pruned so
	// only recent ids stay resolvable.
	finished map[uint64]MutationState
}

func NewStore() *Store {
	return &Store{
		index:    make(map[string]int),
		open:     make(map[uint64]*Mutation),
		finished: make(map[uint64]MutationState),
	}
}

// ReplaceSnapshot swaps the entire store contents for a freshly fetched
// authoritative snapshot. Orders whose status is no longer kitchen-relevant
// are dropped regardless of what the snapshot contains. Every open optimistic
// mutation is marked Superseded: the snapshot is newer truth than anything
// provisional.
func (s *Store) ReplaceSnapshot(orders []domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = s.orders[:0]
	s.index = make(map[string]int, len(orders))
	for _, o := range orders {
		if !domain.KitchenRelevant(o.Status) {
			continue
		}
		s.index[o.ID] = len(s.orders)
		s.orders = append(s.orders, o.Clone())
	}
	for id, m := range s.open {
		m.state = Superseded
		s.finished[id] = Superseded
		delete(s.open, id)
	}
	s.pruneFinishedLocked()
}

// ApplyEvent applies a targeted patch from the push channel. All patches are
// idempotent value sets, so duplicate or reordered delivery is harmless.
func (s *Store) ApplyEvent(ev domain.Event) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case domain.OrderItemStatusChangedEvent:
		i, ok := s.index[e.OrderID]
		if !ok {
			// Cannot patch what was never fetched.
			return NeedResync
		}
		item := s.orders[i].Item(e.ItemID)
		if item == nil {
			return NeedResync
		}
		item.Status = e.NewStatus
		s.confirmLocked(e.OrderID, e.ItemID, e.NewStatus)
		return Applied

	case domain.OrderStatusChangedEvent:
		i, ok := s.index[e.OrderID]
		if !ok {
			return NeedResync
		}
		if !domain.KitchenRelevant(e.NewStatus) {
			// Removal-by-diff is unsafe; let the snapshot drop it.
			return NeedResync
		}
		s.orders[i].Status = e.NewStatus
		return Applied

	case domain.OrderCreatedEvent:
		// A new entity cannot be synthesized from a partial event.
		return NeedResync
	}
	return Applied
}

// ApplyOptimistic provisionally sets the targeted items to the target status
// before the network round trip, and registers a Mutation tracking its
// confirmation. Items already at the target status are set idempotently and
// not awaited. Returns ErrOrderNotFound for unknown orders and
// ErrInvalidTransition if any targeted item cannot legally move to target.
func (s *Store) ApplyOptimistic(orderID string, itemIDs []string, target domain.ItemStatus) (*Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order := &s.orders[i]

	// Validate the whole set before touching anything.
	for _, id := range itemIDs {
		item := order.Item(id)
		if item == nil {
			return nil, ErrOrderNotFound
		}
		if item.Status != target && !CanTransition(item.Status, target) {
			return nil, ErrInvalidTransition{From: item.Status, To: target}
		}
	}

	s.nextMutation++
	m := &Mutation{
		ID:      s.nextMutation,
		OrderID: orderID,
		Target:  target,
		pending: make(map[string]bool, len(itemIDs)),
		state:   AppliedLocally,
	}
	for _, id := range itemIDs {
		item := order.Item(id)
		if item.Status != target {
			item.Status = target
			m.pending[id] = true
		}
	}
	if len(m.pending) == 0 {
		// Nothing actually changed; the action was a no-op replay.
		m.state = Confirmed
		s.finished[m.ID] = Confirmed
		return m, nil
	}
	s.open[m.ID] = m
	return m, nil
}

// pruneFinishedLocked keeps the finished-mutation table bounded. Callers only
// ever inspect recent mutations.
func (s *Store) pruneFinishedLocked() {
	if len(s.finished) <= 128 {
		return
	}
	for id := range s.finished {
		if id+128 < s.nextMutation {
			delete(s.finished, id)
		}
	}
}

// confirmLocked marks matching pending optimistic writes as confirmed when an
// authoritative event sets the same item to the same value.
func (s *Store) confirmLocked(orderID, itemID string, status domain.ItemStatus) {
	for id, m := range s.open {
		if m.OrderID != orderID || m.Target != status {
			continue
		}
		delete(m.pending, itemID)
		if len(m.pending) == 0 {
			m.state = Confirmed
			s.finished[id] = Confirmed
			delete(s.open, id)
		}
	}
	s.pruneFinishedLocked()
}

// MutationState reports the lifecycle state of a mutation by id.
func (s *Store) MutationState(id uint64) MutationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.open[id]; ok {
		return m.state
	}
	if st, ok := s.finished[id]; ok {
		return st
	}
	return Superseded
}

// Orders returns a deep copy of the current order list in snapshot order.
func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneOrders(s.orders)
}

// Order returns a deep copy of one order.
func (s *Store) Order(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Order{}, false
	}
	return s.orders[i].Clone(), true
}

// Len reports the number of orders currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
