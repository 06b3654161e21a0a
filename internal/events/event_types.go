package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketTransitioned EventType = "ticket_transitioned"
	EventTicketReminder     EventType = "ticket_reminder"
)

// Actor encapsulates actor metadata for an event. UserID is nil for
// sweeper-driven events.
type Actor struct {
	UserID *int64      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
	System bool        `json:"system,omitempty"`
}

// Event represents a domain event emitted after a committed state change.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number int64             `json:"number"`
	Type   domain.TicketType `json:"type"`
	Title  string            `json:"title"`
}

// TicketTransitionedPayload payload. Notifications carries the recipients
// decided inside the transition transaction so delivery handlers do not
// re-derive them.
type TicketTransitionedPayload struct {
	OldStatus     domain.TicketStatus `json:"old_status"`
	NewStatus     domain.TicketStatus `json:"new_status"`
	Reason        *string             `json:"reason,omitempty"`
	Escalated     bool                `json:"escalated,omitempty"`
	Notifications []NotificationRef   `json:"notifications,omitempty"`
}

// NotificationRef identifies one notification created by a transition.
type NotificationRef struct {
	UserID  int64                   `json:"user_id"`
	Type    domain.NotificationType `json:"type"`
	Message string                  `json:"message"`
}

// TicketReminderPayload payload.
type TicketReminderPayload struct {
	Status     domain.TicketStatus `json:"status"`
	Recipients []int64             `json:"recipients"`
}
