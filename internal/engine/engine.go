// Package engine implements the order lifecycle state machine.
//
// Every operation follows the same write-then-mutate discipline: the backend
// write is issued first, and the in-memory order is only touched after the
// store reports success. A write the engine cannot confirm is never reflected
// locally, so displayed status always matches confirmed persisted state.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pedidotrack.io/tracker/internal/domain"
	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
	"pedidotrack.io/tracker/internal/store"
)

// Engine drives order status transitions against the tabular store.
type Engine struct {
	store      store.Store
	dispatcher *domain.EventDispatcher

	// loc is the fixed civil time zone all staleness math uses.
	loc             *time.Location
	escalationAfter time.Duration
	now             func() time.Time
}

// New creates an Engine. dispatcher may be nil when no event consumers exist.
func New(st store.Store, dispatcher *domain.EventDispatcher, loc *time.Location, escalationAfter time.Duration) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if escalationAfter <= 0 {
		escalationAfter = time.Hour
	}
	return &Engine{
		store:           st,
		dispatcher:      dispatcher,
		loc:             loc,
		escalationAfter: escalationAfter,
		now:             time.Now,
	}
}

// WithClock overrides the time source (tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// MarkProcessing transitions Pending or Delayed to InProgress and stamps
// processed_at on the first entry into InProgress.
func (e *Engine) MarkProcessing(ctx context.Context, o *domain.Order, actor string) error {
	if !o.Status.CanTransitionTo(domain.StatusInProgress) {
		return apperrors.ErrInvalidTransitionf(string(o.Status), string(domain.StatusInProgress))
	}

	now := e.now().In(e.loc)
	writes := []store.CellWrite{
		{Row: o.SourceRow, Column: domain.ColStatus, Value: string(domain.StatusInProgress)},
		{Row: o.SourceRow, Column: domain.ColProcessedAt, Value: domain.FormatTimestamp(&now)},
	}
	if err := e.store.WriteBatch(ctx, writes); err != nil {
		return err
	}

	from := o.Status
	o.Status = domain.StatusInProgress
	o.ProcessedAt = &now
	e.dispatchStatusChange(ctx, domain.EventOrderProcessing, o, from, actor)
	return nil
}

// MarkCompleted transitions any active state to the terminal Completed state
// and stamps completed_at exactly once.
func (e *Engine) MarkCompleted(ctx context.Context, o *domain.Order, actor string) error {
	if !o.Status.CanTransitionTo(domain.StatusCompleted) {
		return apperrors.ErrInvalidTransitionf(string(o.Status), string(domain.StatusCompleted))
	}

	now := e.now().In(e.loc)
	writes := []store.CellWrite{
		{Row: o.SourceRow, Column: domain.ColStatus, Value: string(domain.StatusCompleted)},
		{Row: o.SourceRow, Column: domain.ColCompletedAt, Value: domain.FormatTimestamp(&now)},
	}
	if err := e.store.WriteBatch(ctx, writes); err != nil {
		return err
	}

	from := o.Status
	o.Status = domain.StatusCompleted
	o.CompletedAt = &now
	e.dispatchStatusChange(ctx, domain.EventOrderCompleted, o, from, actor)
	return nil
}

// MarkCleared hides a completed order from the default history view.
// Idempotent: clearing a cleared order issues no write.
func (e *Engine) MarkCleared(ctx context.Context, o *domain.Order, actor string) error {
	if o.Status != domain.StatusCompleted {
		return apperrors.Conflict(apperrors.CodeInvalidTransition, "only completed orders can be cleared").
			WithParams(map[string]interface{}{"status": string(o.Status)})
	}
	if o.Cleared {
		return nil
	}

	if err := e.store.WriteCell(ctx, o.SourceRow, domain.ColCleared, "TRUE"); err != nil {
		return err
	}

	o.Cleared = true
	e.dispatchStatusChange(ctx, domain.EventOrderCleared, o, o.Status, actor)
	return nil
}

// ConfirmModification acknowledges an unconfirmed fulfillment modification by
// appending the legacy marker to the stored note. Idempotent: an already
// confirmed note issues no write.
func (e *Engine) ConfirmModification(ctx context.Context, o *domain.Order, actor string) error {
	if o.FulfillmentNote == "" || o.ModificationConfirmed {
		return nil
	}

	confirmed := domain.ConfirmNote(o.FulfillmentNote)
	if err := e.store.WriteCell(ctx, o.SourceRow, domain.ColFulfillmentNote, confirmed); err != nil {
		return err
	}

	o.ModificationConfirmed = true
	e.dispatchModification(ctx, domain.EventModificationConfirmed, o)
	return nil
}

// AppendAttachment records an uploaded object key on the order's attachment
// refs, preserving existing entries.
func (e *Engine) AppendAttachment(ctx context.Context, o *domain.Order, key string) error {
	refs := append(append([]string(nil), o.Attachments...), key)
	if err := e.store.WriteCell(ctx, o.SourceRow, domain.ColAttachments, domain.JoinRefs(refs)); err != nil {
		return err
	}

	o.Attachments = refs
	return nil
}

// SetDeliveryDate updates the delivery date. Mutable until completion.
func (e *Engine) SetDeliveryDate(ctx context.Context, o *domain.Order, date *time.Time) error {
	if o.Status == domain.StatusCompleted {
		return apperrors.Conflict(apperrors.CodeOrderCompleted, "delivery date is frozen after completion")
	}

	if err := e.store.WriteCell(ctx, o.SourceRow, domain.ColDeliveryDate, domain.FormatDate(date)); err != nil {
		return err
	}

	o.DeliveryDate = date
	return nil
}

func (e *Engine) dispatchStatusChange(ctx context.Context, eventType domain.EventType, o *domain.Order, from domain.Status, actor string) {
	if e.dispatcher == nil {
		return
	}
	payload, err := domain.StatusChangePayload{
		OrderID:  o.ID,
		Customer: o.Customer,
		From:     from,
		To:       o.Status,
		Actor:    actor,
	}.ToJSON()
	if err != nil {
		return
	}
	// Best-effort: the dispatcher logs handler failures itself.
	_ = e.dispatcher.Dispatch(ctx, &domain.DomainEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		OrderID:   o.ID,
		Payload:   payload,
		CreatedAt: e.now(),
	})
}

func (e *Engine) dispatchModification(ctx context.Context, eventType domain.EventType, o *domain.Order) {
	if e.dispatcher == nil {
		return
	}
	payload, err := domain.ModificationPayload{
		OrderID:  o.ID,
		Customer: o.Customer,
		Note:     o.FulfillmentNote,
	}.ToJSON()
	if err != nil {
		return
	}
	_ = e.dispatcher.Dispatch(ctx, &domain.DomainEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		OrderID:   o.ID,
		Payload:   payload,
		CreatedAt: e.now(),
	})
}
