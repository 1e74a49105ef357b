// Package domain provides domain models for the pedido tracker.
//
// The store adapter returns raw rows; everything downstream works on the typed
// Order defined here (Anti-Corruption Layer over the tabular store).
package domain

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDelayed    Status = "DELAYED"
	StatusCompleted  Status = "COMPLETED" // terminal
)

// statusRank orders states for the monotonicity invariant: no transition may
// reduce rank. Delayed sits between Pending and InProgress so the
// Pending→Delayed→InProgress path stays monotonic.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusDelayed:    1,
	StatusInProgress: 2,
	StatusCompleted:  3,
}

// validTransitions is the full transition table. The escalation sweep owns
// Pending→Delayed; every other edge is operator-driven.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusDelayed, StatusInProgress, StatusCompleted},
	StatusDelayed:    {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
}

// ParseStatus parses a stored status value, case-insensitively.
// Unknown or empty values degrade to StatusPending (malformed rows never abort
// a fetch) and ok reports whether the raw value was recognized.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusInProgress, StatusDelayed, StatusCompleted:
		return s, true
	case "":
		return StatusPending, true
	}
	return StatusPending, false
}

// CanTransitionTo reports whether the transition s → target is defined.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Rank returns the monotonic rank of the status.
func (s Status) Rank() int {
	return statusRank[s]
}

// ShipmentType classifies how an order leaves the warehouse.
type ShipmentType string

const (
	ShipmentLocal    ShipmentType = "LOCAL"
	ShipmentLongHaul ShipmentType = "LONG_HAUL"
	ShipmentReturn   ShipmentType = "RETURN"
	ShipmentWarranty ShipmentType = "WARRANTY"
)

// ParseShipmentType parses a stored shipment type. Unknown values degrade to
// the empty type.
func ParseShipmentType(raw string) (ShipmentType, bool) {
	st := ShipmentType(strings.ToUpper(strings.TrimSpace(raw)))
	switch st {
	case ShipmentLocal, ShipmentLongHaul, ShipmentReturn, ShipmentWarranty:
		return st, true
	case "":
		return "", true
	}
	return "", false
}

// Shift is the sub-queue classification for Local orders.
// Only meaningful when ShipmentType is Local.
type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
	ShiftSaltillo  Shift = "SALTILLO"
	ShiftWarehouse Shift = "WAREHOUSE"
	ShiftNone      Shift = ""
)

// ParseShift parses a stored shift value. Unknown values degrade to ShiftNone.
func ParseShift(raw string) (Shift, bool) {
	s := Shift(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftSaltillo, ShiftWarehouse:
		return s, true
	case ShiftNone:
		return ShiftNone, true
	}
	return ShiftNone, false
}

// ConfirmedMarker is the legacy trailing marker on fulfillment_note meaning
// "modification acknowledged". Kept as a serialization detail for backward
// compatibility with rows written by older tooling; the model itself carries
// an explicit ModificationConfirmed flag.
const ConfirmedMarker = " [CONFIRMED]"

// NoteConfirmed reports whether the note carries the trailing confirmation marker.
func NoteConfirmed(note string) bool {
	return strings.HasSuffix(strings.TrimRight(note, " "), strings.TrimSpace(ConfirmedMarker))
}

// ConfirmNote appends the confirmation marker. Idempotent: a note already
// carrying the marker is returned unchanged.
func ConfirmNote(note string) string {
	if NoteConfirmed(note) {
		return note
	}
	return note + ConfirmedMarker
}

// Order is one row of the tabular store, typed.
type Order struct {
	ID            string       `json:"id"`
	InvoiceFolio  string       `json:"invoice_folio,omitempty"`
	RegisteredAt  *time.Time   `json:"registered_at,omitempty"`
	Registrant    string       `json:"registrant"`
	Customer      string       `json:"customer"`
	ShipmentType  ShipmentType `json:"shipment_type"`
	DeliveryDate  *time.Time   `json:"delivery_date,omitempty"`
	Shift         Shift        `json:"shift,omitempty"`
	Status        Status       `json:"status"`
	PaymentStatus string       `json:"payment_status,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	ProcessedAt   *time.Time   `json:"processed_at,omitempty"`

	// FulfillmentNote is free text appended by out-of-band actors. The
	// trailing ConfirmedMarker (when present) is kept out of this field and
	// reflected in ModificationConfirmed instead.
	FulfillmentNote       string `json:"fulfillment_note,omitempty"`
	ModificationConfirmed bool   `json:"modification_confirmed"`

	// Attachment references are object-store keys (bare keys; full URLs are
	// reduced to keys at parse time). Three independent lists.
	Attachments      []string `json:"attachments,omitempty"`
	FulfillmentFiles []string `json:"fulfillment_files,omitempty"`
	ShippingLabels   []string `json:"shipping_labels,omitempty"`

	// Cleared hides a completed order from the default history view.
	// Orthogonal metadata on Completed, not a separate state.
	Cleared bool `json:"cleared"`

	// SourceRow is the 1-based row position in the backing sheet.
	// Required for every write-back.
	SourceRow int `json:"source_row"`
}

// IsActive reports whether the order is still in flight (non-terminal).
func (o *Order) IsActive() bool {
	return o.Status != StatusCompleted
}

// RequiresAttention reports whether the order carries an unconfirmed
// fulfillment modification. Such orders sort first and display independent of
// their shift/date bucket.
func (o *Order) RequiresAttention() bool {
	return o.FulfillmentNote != "" && !o.ModificationConfirmed
}

// SerializedNote returns the note as written back to the tabular store,
// re-attaching the legacy confirmation marker when the modification is
// acknowledged.
func (o *Order) SerializedNote() string {
	if o.ModificationConfirmed && o.FulfillmentNote != "" {
		return ConfirmNote(o.FulfillmentNote)
	}
	return o.FulfillmentNote
}

// Clone returns a deep copy of the order. The scheduler hands clones to the
// presentation layer so view code can never mutate the cached snapshot.
func (o *Order) Clone() *Order {
	c := *o
	c.RegisteredAt = cloneTime(o.RegisteredAt)
	c.DeliveryDate = cloneTime(o.DeliveryDate)
	c.CompletedAt = cloneTime(o.CompletedAt)
	c.ProcessedAt = cloneTime(o.ProcessedAt)
	c.Attachments = append([]string(nil), o.Attachments...)
	c.FulfillmentFiles = append([]string(nil), o.FulfillmentFiles...)
	c.ShippingLabels = append([]string(nil), o.ShippingLabels...)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
