// Package scheduler runs the periodic reconciliation loop: pull the full
// order table, escalate stale pending orders, and publish a consistent
// in-memory snapshot for the API layer to serve.
package scheduler

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pedidotrack.io/tracker/internal/domain"
	"pedidotrack.io/tracker/internal/engine"
	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
	"pedidotrack.io/tracker/internal/pkg/logger"
	"pedidotrack.io/tracker/internal/pkg/worker"
	"pedidotrack.io/tracker/internal/store"
)

// lockStripes bounds the Mutate lock pool; ids hash onto a fixed stripe set
// so the pool never grows with the sheet.
const lockStripes = 64

// Scheduler polls the tabular store and keeps a reconciled order snapshot.
type Scheduler struct {
	store      store.Store
	engine     *engine.Engine
	dispatcher *domain.EventDispatcher
	loc        *time.Location
	interval   time.Duration

	mu          sync.RWMutex
	orders      []*domain.Order
	byID        map[string]*domain.Order
	lastRefresh time.Time
	lastErr     error

	// flaggedMods tracks order ids already announced as modification-pending,
	// keyed to the note text so an edited note re-announces.
	flaggedMods map[string]string

	// writeLocks serializes Mutate calls per order id.
	writeLocks [lockStripes]sync.Mutex

	pool     *worker.Pool
	inFlight atomic.Bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Scheduler polling at the given interval. dispatcher may be nil
// when no event consumers exist.
func New(st store.Store, eng *engine.Engine, dispatcher *domain.EventDispatcher, loc *time.Location, interval time.Duration) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		store:       st,
		engine:      eng,
		dispatcher:  dispatcher,
		loc:         loc,
		interval:    interval,
		byID:        make(map[string]*domain.Order),
		flaggedMods: make(map[string]string),
		stopCh:      make(chan struct{}),
	}
}

// WithPool runs reconciliation cycles on the given worker pool instead of the
// ticker goroutine. Overlapping cycles are skipped rather than queued.
func (s *Scheduler) WithPool(pool *worker.Pool) *Scheduler {
	s.pool = pool
	return s
}

// Start begins the reconciliation loop. An initial refresh runs immediately so
// the snapshot is populated before the first tick.
// nolint:naked-goroutine // reconciliation ticker loop; doesn't fit worker pool pattern.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if err := s.RefreshOnce(ctx); err != nil {
			logger.Warn("initial reconciliation failed, serving empty snapshot until next cycle",
				zap.Error(err),
			)
		}

		for {
			select {
			case <-ticker.C:
				s.tick(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) tick(ctx context.Context) {
	cycle := func(ctx context.Context) {
		if err := s.RefreshOnce(ctx); err != nil {
			logger.Warn("reconciliation cycle failed, keeping previous snapshot",
				zap.Error(err),
			)
		}
	}

	if s.pool == nil {
		cycle(ctx)
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		logger.Debug("reconciliation cycle still running, skipping tick")
		return
	}
	err := s.pool.Submit(ctx, func(ctx context.Context) {
		defer s.inFlight.Store(false)
		cycle(ctx)
	})
	if err != nil {
		s.inFlight.Store(false)
		logger.Warn("failed to submit reconciliation cycle", zap.Error(err))
	}
}

// Stop halts the reconciliation loop.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// RefreshOnce performs one reconciliation cycle: fetch the table, parse it,
// run the escalation sweep, and swap in the new snapshot.
//
// When the sweep batch fails, the persisted state of the swept rows is
// uncertain. Any cached store layer is invalidated and the table re-fetched
// so the published snapshot reflects what the backend actually holds.
func (s *Scheduler) RefreshOnce(ctx context.Context) error {
	orders, err := s.fetchOrders(ctx)
	if err != nil {
		s.recordFailure(err)
		return err
	}

	if s.engine != nil {
		if _, sweepErr := s.engine.Sweep(ctx, orders); sweepErr != nil {
			if apperrors.HasCode(sweepErr, apperrors.CodePartialBatchUncertain) {
				if inv, ok := s.store.(store.Invalidator); ok {
					inv.Invalidate()
				}
				orders, err = s.fetchOrders(ctx)
				if err != nil {
					s.recordFailure(err)
					return err
				}
			}
			// Non-uncertain sweep failures keep the pre-sweep snapshot; the
			// sweep retries next cycle.
		}
	}

	s.publish(orders)
	s.announceModifications(ctx, orders)
	return nil
}

// announceModifications dispatches a modification-pending event once per
// unconfirmed note. Confirmed or emptied notes drop out of the flagged set so
// a later edit announces again.
func (s *Scheduler) announceModifications(ctx context.Context, orders []*domain.Order) {
	if s.dispatcher == nil {
		return
	}

	s.mu.Lock()
	previous := s.flaggedMods
	current := make(map[string]string, len(previous))
	for _, o := range orders {
		if o.RequiresAttention() {
			current[o.ID] = o.FulfillmentNote
		}
	}
	s.flaggedMods = current
	s.mu.Unlock()

	for _, o := range orders {
		note, flagged := current[o.ID]
		if !flagged || previous[o.ID] == note {
			continue
		}

		payload, err := domain.ModificationPayload{
			OrderID:  o.ID,
			Customer: o.Customer,
			Note:     o.FulfillmentNote,
		}.ToJSON()
		if err != nil {
			continue
		}
		_ = s.dispatcher.Dispatch(ctx, &domain.DomainEvent{
			EventID:   uuid.NewString(),
			EventType: domain.EventModificationPending,
			OrderID:   o.ID,
			Payload:   payload,
			CreatedAt: time.Now(),
		})
	}
}

func (s *Scheduler) fetchOrders(ctx context.Context) ([]*domain.Order, error) {
	rows, header, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ParseRows(rows, header, s.loc), nil
}

func (s *Scheduler) publish(orders []*domain.Order) {
	byID := make(map[string]*domain.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}

	s.mu.Lock()
	s.orders = orders
	s.byID = byID
	s.lastRefresh = time.Now()
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Scheduler) recordFailure(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// ActiveOrders returns the active orders sorted by display priority.
// Returned orders are clones; mutating them does not affect the snapshot.
func (s *Scheduler) ActiveOrders() []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := engine.ActiveByPriority(s.orders)
	out := make([]*domain.Order, len(active))
	for i, o := range active {
		out[i] = o.Clone()
	}
	return out
}

// History returns completed orders, newest completion first. Cleared orders
// are hidden unless includeCleared is set.
func (s *Scheduler) History(includeCleared bool) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Order
	for _, o := range s.orders {
		if o.Status != domain.StatusCompleted {
			continue
		}
		if o.Cleared && !includeCleared {
			continue
		}
		out = append(out, o.Clone())
	}
	sortByCompletedDesc(out)
	return out
}

// Get returns a clone of the snapshot order with the given id.
func (s *Scheduler) Get(id string) (*domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Mutate applies fn to a clone of the snapshot order and republishes the
// clone when fn succeeds. Snapshot entries are never mutated in place, so
// readers cloning concurrently can only observe the order before or after
// the change, never mid-mutation. Mutations to the same order serialize on
// a striped lock, so conflicting transitions resolve one at a time.
func (s *Scheduler) Mutate(id string, fn func(o *domain.Order) error) (*domain.Order, error) {
	stripe := s.writeLock(id)
	stripe.Lock()
	defer stripe.Unlock()

	s.mu.RLock()
	cur, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrOrderNotFoundf(id)
	}

	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if prev, ok := s.byID[id]; ok {
		for i, o := range s.orders {
			if o == prev {
				s.orders[i] = next
				break
			}
		}
		s.byID[id] = next
	}
	s.mu.Unlock()
	return next.Clone(), nil
}

func (s *Scheduler) writeLock(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.writeLocks[h.Sum32()%lockStripes]
}

// Status reports the last refresh time and the last cycle error, if any.
func (s *Scheduler) Status() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh, s.lastErr
}

func sortByCompletedDesc(orders []*domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].CompletedAt, orders[j].CompletedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
