// Package notification implements the operator notification inbox.
//
// V1 notifications are synchronous in-memory inbox entries written on the
// dispatch path of domain events. External push channels (email, webhook)
// are a later concern and would hang off the same Sender interface.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pedidotrack.io/tracker/internal/pkg/logger"
)

// Notification type constants.
const (
	TypeOrderDelayed        = "ORDER_DELAYED"
	TypeOrderCompleted      = "ORDER_COMPLETED"
	TypeModificationPending = "ORDER_MODIFICATION_PENDING"
)

// Notification is one inbox entry.
type Notification struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

// Params holds the required fields for creating a notification.
type Params struct {
	Type         string
	Title        string
	Message      string
	ResourceType string // e.g. "order"
	ResourceID   string
}

// Sender defines the interface for delivering notifications.
type Sender interface {
	// Send records a notification. Failures must be observable to callers.
	Send(ctx context.Context, params Params) error
}

// InboxSender keeps the most recent notifications in a bounded in-memory
// inbox, newest first. When the inbox is full the oldest entry is dropped.
type InboxSender struct {
	mu      sync.Mutex
	entries []*Notification
	cap     int
}

// NewInboxSender creates an inbox holding at most capacity entries.
func NewInboxSender(capacity int) *InboxSender {
	if capacity <= 0 {
		capacity = 200
	}
	return &InboxSender{cap: capacity}
}

// Send stores a notification in the inbox.
func (s *InboxSender) Send(_ context.Context, params Params) error {
	if err := validateParams(params); err != nil {
		return fmt.Errorf("notification params invalid: %w", err)
	}

	n := &Notification{
		ID:           uuid.NewString(),
		Type:         params.Type,
		Title:        params.Title,
		Message:      params.Message,
		ResourceType: params.ResourceType,
		ResourceID:   params.ResourceID,
		CreatedAt:    time.Now(),
	}

	s.mu.Lock()
	s.entries = append([]*Notification{n}, s.entries...)
	if len(s.entries) > s.cap {
		s.entries = s.entries[:s.cap]
	}
	s.mu.Unlock()

	logger.Debug("notification sent",
		zap.String("type", params.Type),
		zap.String("title", params.Title),
	)
	return nil
}

// List returns inbox entries, newest first, capped at limit (0 means all).
func (s *InboxSender) List(limit int) []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*Notification, n)
	for i := 0; i < n; i++ {
		cp := *s.entries[i]
		out[i] = &cp
	}
	return out
}

// MarkRead flags an entry as read. Returns false if the id is unknown.
func (s *InboxSender) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.entries {
		if n.ID == id {
			n.Read = true
			return true
		}
	}
	return false
}

var _ Sender = (*InboxSender)(nil)

func validateParams(p Params) error {
	if p.Type == "" {
		return fmt.Errorf("type is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}
