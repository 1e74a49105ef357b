// Package service exposes the operator-facing order operations. It joins the
// reconciled snapshot, the lifecycle engine, and the attachment locator, and
// serializes writes per order so two operators cannot interleave transitions
// on the same row.
package service

import (
	"context"
	"time"

	"pedidotrack.io/tracker/internal/blob"
	"pedidotrack.io/tracker/internal/domain"
	"pedidotrack.io/tracker/internal/engine"
	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
	"pedidotrack.io/tracker/internal/scheduler"
)

// OrderService handles operator actions against orders.
type OrderService struct {
	sched  *scheduler.Scheduler
	engine *engine.Engine
}

// NewOrderService creates an OrderService.
func NewOrderService(sched *scheduler.Scheduler, eng *engine.Engine) *OrderService {
	return &OrderService{
		sched:  sched,
		engine: eng,
	}
}

// withOrder applies fn to the order through the scheduler's clone-and-publish
// write path, returning a clone of the order afterwards.
func (s *OrderService) withOrder(id string, fn func(o *domain.Order) error) (*domain.Order, error) {
	return s.sched.Mutate(id, fn)
}

// List returns the active orders in display priority order.
func (s *OrderService) List() []*domain.Order {
	return s.sched.ActiveOrders()
}

// History returns completed orders, optionally including cleared ones.
func (s *OrderService) History(includeCleared bool) []*domain.Order {
	return s.sched.History(includeCleared)
}

// Get returns a single order by id.
func (s *OrderService) Get(id string) (*domain.Order, error) {
	o, ok := s.sched.Get(id)
	if !ok {
		return nil, apperrors.ErrOrderNotFoundf(id)
	}
	return o, nil
}

// Process marks an order as being worked on.
func (s *OrderService) Process(ctx context.Context, id, actor string) (*domain.Order, error) {
	return s.withOrder(id, func(o *domain.Order) error {
		return s.engine.MarkProcessing(ctx, o, actor)
	})
}

// Complete marks an order as fulfilled.
func (s *OrderService) Complete(ctx context.Context, id, actor string) (*domain.Order, error) {
	return s.withOrder(id, func(o *domain.Order) error {
		return s.engine.MarkCompleted(ctx, o, actor)
	})
}

// Clear hides a completed order from the default history view.
func (s *OrderService) Clear(ctx context.Context, id, actor string) (*domain.Order, error) {
	return s.withOrder(id, func(o *domain.Order) error {
		return s.engine.MarkCleared(ctx, o, actor)
	})
}

// ConfirmModification acknowledges an unconfirmed fulfillment modification.
func (s *OrderService) ConfirmModification(ctx context.Context, id, actor string) (*domain.Order, error) {
	return s.withOrder(id, func(o *domain.Order) error {
		return s.engine.ConfirmModification(ctx, o, actor)
	})
}

// SetDeliveryDate updates the delivery date. Rejected once completed.
func (s *OrderService) SetDeliveryDate(ctx context.Context, id string, date *time.Time) (*domain.Order, error) {
	return s.withOrder(id, func(o *domain.Order) error {
		return s.engine.SetDeliveryDate(ctx, o, date)
	})
}

// AttachmentView is the attachment listing for one order.
type AttachmentView struct {
	Prefix   string            `json:"prefix,omitempty"`
	Resolved bool              `json:"resolved"`
	Files    []blob.Attachment `json:"files"`
}
