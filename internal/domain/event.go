package domain

import (
	"encoding/json"
	"time"
)

// EventType defines the type of domain event.
type EventType string

const (
	// Lifecycle transitions.
	EventOrderDelayed    EventType = "ORDER_DELAYED"
	EventOrderProcessing EventType = "ORDER_PROCESSING"
	EventOrderCompleted  EventType = "ORDER_COMPLETED"
	EventOrderCleared    EventType = "ORDER_CLEARED"

	// Modification-confirmation sub-flow.
	EventModificationPending   EventType = "ORDER_MODIFICATION_PENDING"
	EventModificationConfirmed EventType = "ORDER_MODIFICATION_CONFIRMED"
)

// DomainEvent represents an immutable domain event.
type DomainEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	OrderID   string    `json:"order_id"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusChangePayload is the payload for lifecycle transition events.
type StatusChangePayload struct {
	OrderID  string `json:"order_id"`
	Customer string `json:"customer"`
	From     Status `json:"from"`
	To       Status `json:"to"`
	Actor    string `json:"actor"` // operator name, or "sweep" for escalations
}

// ToJSON converts payload to JSON bytes.
func (p StatusChangePayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// ModificationPayload is the payload for modification sub-flow events.
type ModificationPayload struct {
	OrderID  string `json:"order_id"`
	Customer string `json:"customer"`
	Note     string `json:"note"`
}

// ToJSON converts payload to JSON bytes.
func (p ModificationPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}
