package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusCreated            TicketStatus = "CREATED"
	TicketStatusAssignedTechnician TicketStatus = "ASSIGNED_TECHNICIAN"
	TicketStatusInProgress         TicketStatus = "IN_PROGRESS"
	TicketStatusResolved           TicketStatus = "RESOLVED"
	TicketStatusValidated          TicketStatus = "VALIDATED"
	TicketStatusRejected           TicketStatus = "REJECTED"
	TicketStatusClosed             TicketStatus = "CLOSED"
	TicketStatusDelegated          TicketStatus = "DELEGATED"
)

// Terminal reports whether the status accepts no further human transitions.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusValidated || s == TicketStatusClosed
}

// Open reports whether the ticket still awaits work. RESOLVED is not open:
// it awaits creator validation and is handled by the auto-close scan.
func (s TicketStatus) Open() bool {
	switch s {
	case TicketStatusCreated, TicketStatusAssignedTechnician, TicketStatusInProgress,
		TicketStatusDelegated, TicketStatusRejected:
		return true
	}
	return false
}

// TicketType differentiates hardware from software requests.
type TicketType string

const (
	TicketTypeMaterial    TicketType = "MATERIAL"
	TicketTypeApplication TicketType = "APPLICATION"
)

// TicketPriority enumerates urgency levels. A ticket carries no priority
// until an assignment-capable actor sets one at assignment.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Ticket is the aggregate for support requests. Status and its dependent
// timestamp fields are mutated only through the lifecycle engine; each
// terminal timestamp is set exactly once and never reset. Version is the
// optimistic token guarding concurrent transitions on the same row.
type Ticket struct {
	ID                int64
	Number            int64
	Title             string
	Description       string
	Type              TicketType
	Category          *string
	Status            TicketStatus
	Priority          *TicketPriority
	CreatorID         int64
	TechnicianID      *int64
	SecretaryID       *int64
	ResolutionSummary *string
	ReopenCount       int
	Version           int64
	CreatedAt         time.Time
	AssignedAt        *time.Time
	ResolvedAt        *time.Time
	ClosedAt          *time.Time
	LastReminderAt    *time.Time
}
