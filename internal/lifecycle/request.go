package lifecycle

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Actor identifies who requests a transition. System is true for
// sweeper-driven transitions; those bypass the role oracle and are recorded
// with the system sentinel in history.
type Actor struct {
	ID     int64
	Role   domain.Role
	System bool
}

// SystemActor is the non-human actor used by the scheduled sweeper.
var SystemActor = Actor{System: true}

// AssignPayload carries assignment parameters. Priority is mandatory on
// first assignment because tickets are created without one.
type AssignPayload struct {
	TechnicianID int64
	Priority     domain.TicketPriority
	Reason       *string
}

// DelegatePayload carries delegation parameters.
type DelegatePayload struct {
	DelegateID int64
	Reason     *string
}

// ResolvePayload carries the resolution summary.
type ResolvePayload struct {
	Summary string
}

// ValidatePayload carries the creator's verdict on a resolved ticket.
// RejectionReason is mandatory when Validated is false.
type ValidatePayload struct {
	Validated       bool
	RejectionReason *string
}

// Request bundles one transition attempt. Exactly one payload field matching
// the action must be set; Now is injected so the engine stays pure.
type Request struct {
	Action   authz.Action
	Actor    Actor
	Now      time.Time
	Assign   *AssignPayload
	Delegate *DelegatePayload
	Resolve  *ResolvePayload
	Validate *ValidatePayload
}

// NotificationDraft is a notification decided by the engine; the store
// persists it inside the transition transaction and delivery happens
// after commit.
type NotificationDraft struct {
	UserID  int64
	Type    domain.NotificationType
	Message string
}

// Decision is the effect of an accepted transition: the field mutations the
// store must apply atomically with the history entry, plus the notifications
// to enqueue. Timestamp flags are only set for timestamps not yet stamped,
// keeping them set-once.
type Decision struct {
	NewStatus         domain.TicketStatus
	TechnicianID      *int64
	SecretaryID       *int64
	Priority          *domain.TicketPriority
	ResolutionSummary *string
	ClearTechnician   bool
	SetAssignedAt     bool
	SetResolvedAt     bool
	SetClosedAt       bool
	IncrementReopen   bool
	Escalated         bool
	History           domain.TicketHistory
	Notifications     []NotificationDraft
}
