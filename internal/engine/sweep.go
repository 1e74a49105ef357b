package engine

import (
	"context"

	"go.uber.org/zap"

	"pedidotrack.io/tracker/internal/domain"
	"pedidotrack.io/tracker/internal/pkg/logger"
	"pedidotrack.io/tracker/internal/store"
)

// SweepActor is recorded on escalation events in place of an operator name.
const SweepActor = "sweep"

// Sweep is the escalation pass: every Pending order whose registration is
// older than the escalation threshold is staged for promotion to Delayed, and
// all staged writes go to the backend as one batch.
//
// The in-memory orders are mutated only when the batch reports success. On
// failure nothing changes locally and the sweep simply runs again on the next
// cycle; the batch may or may not have applied upstream, which the caller
// handles by re-fetching before trusting its cache.
//
// Orders with an absent registration timestamp are never escalated.
func (e *Engine) Sweep(ctx context.Context, orders []*domain.Order) (int, error) {
	now := e.now().In(e.loc)

	var stale []*domain.Order
	var writes []store.CellWrite
	for _, o := range orders {
		if o.Status != domain.StatusPending || o.RegisteredAt == nil {
			continue
		}
		if now.Sub(o.RegisteredAt.In(e.loc)) > e.escalationAfter {
			stale = append(stale, o)
			writes = append(writes, store.CellWrite{
				Row:    o.SourceRow,
				Column: domain.ColStatus,
				Value:  string(domain.StatusDelayed),
			})
		}
	}

	if len(writes) == 0 {
		return 0, nil
	}

	if err := e.store.WriteBatch(ctx, writes); err != nil {
		logger.Warn("escalation batch failed, local state unchanged",
			zap.Int("staged", len(writes)),
			zap.Error(err),
		)
		return 0, err
	}

	for _, o := range stale {
		from := o.Status
		o.Status = domain.StatusDelayed
		e.dispatchStatusChange(ctx, domain.EventOrderDelayed, o, from, SweepActor)
	}

	logger.Info("escalation sweep promoted stale orders",
		zap.Int("count", len(stale)),
	)
	return len(stale), nil
}
