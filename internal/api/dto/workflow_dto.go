package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// AssignRequest payload. Priority is mandatory because tickets carry none
// until first assignment.
type AssignRequest struct {
	TechnicianID int64                 `json:"technician_id"`
	Priority     domain.TicketPriority `json:"priority"`
	Reason       *string               `json:"reason"`
}

// DelegateRequest payload.
type DelegateRequest struct {
	DelegateID int64   `json:"delegate_id"`
	Reason     *string `json:"reason"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	Summary string `json:"summary"`
}

// ValidateRequest payload. RejectionReason is required when validated is
// false.
type ValidateRequest struct {
	Validated       bool    `json:"validated"`
	RejectionReason *string `json:"rejection_reason"`
}
