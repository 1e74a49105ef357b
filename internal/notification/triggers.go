package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"pedidotrack.io/tracker/internal/domain"
	"pedidotrack.io/tracker/internal/pkg/logger"
)

// Triggers converts domain events into inbox notifications. Three trigger
// points exist:
//  1. ORDER_DELAYED — an escalation sweep promoted a stale pending order
//  2. ORDER_COMPLETED — an order reached the terminal state
//  3. ORDER_MODIFICATION_PENDING — a fulfillment note awaits confirmation
type Triggers struct {
	sender Sender
}

// NewTriggers creates the notification trigger service.
func NewTriggers(sender Sender) *Triggers {
	return &Triggers{sender: sender}
}

// RegisterOn subscribes the triggers to the event dispatcher.
func (t *Triggers) RegisterOn(d *domain.EventDispatcher) {
	d.Register(domain.EventOrderDelayed, t.onOrderDelayed)
	d.Register(domain.EventOrderCompleted, t.onOrderCompleted)
	d.Register(domain.EventModificationPending, t.onModificationPending)
}

func (t *Triggers) onOrderDelayed(ctx context.Context, ev *domain.DomainEvent) error {
	var p domain.StatusChangePayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return fmt.Errorf("decode status change payload: %w", err)
	}

	return t.send(ctx, Params{
		Type:         TypeOrderDelayed,
		Title:        fmt.Sprintf("Order %s is delayed", p.OrderID),
		Message:      fmt.Sprintf("Order %s for %s has been pending for over the escalation window", p.OrderID, p.Customer),
		ResourceType: "order",
		ResourceID:   p.OrderID,
	})
}

func (t *Triggers) onOrderCompleted(ctx context.Context, ev *domain.DomainEvent) error {
	var p domain.StatusChangePayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return fmt.Errorf("decode status change payload: %w", err)
	}

	return t.send(ctx, Params{
		Type:         TypeOrderCompleted,
		Title:        fmt.Sprintf("Order %s completed", p.OrderID),
		Message:      fmt.Sprintf("Order %s for %s was completed by %s", p.OrderID, p.Customer, p.Actor),
		ResourceType: "order",
		ResourceID:   p.OrderID,
	})
}

func (t *Triggers) onModificationPending(ctx context.Context, ev *domain.DomainEvent) error {
	var p domain.ModificationPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return fmt.Errorf("decode modification payload: %w", err)
	}

	return t.send(ctx, Params{
		Type:         TypeModificationPending,
		Title:        fmt.Sprintf("Order %s has an unconfirmed modification", p.OrderID),
		Message:      fmt.Sprintf("Fulfillment note for %s needs confirmation: %s", p.Customer, p.Note),
		ResourceType: "order",
		ResourceID:   p.OrderID,
	})
}

func (t *Triggers) send(ctx context.Context, params Params) error {
	if err := t.sender.Send(ctx, params); err != nil {
		// Notification write must not be dropped silently.
		logger.Error("failed to send notification",
			zap.String("type", params.Type),
			zap.String("resource_id", params.ResourceID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
