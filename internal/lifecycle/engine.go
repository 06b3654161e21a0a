package lifecycle

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Engine is the pure transition decision logic: it maps (current ticket,
// requested action, actor, payload) to a Decision or a rejection. It performs
// no I/O; the caller applies the decision to the store inside one
// transaction.
type Engine struct {
	oracle     authz.Oracle
	maxReopens int
}

// NewEngine builds an engine. maxReopens bounds reassignment after rejection:
// exceeding it surfaces as an escalation notification, never as a blocked
// transition.
func NewEngine(oracle authz.Oracle, maxReopens int) *Engine {
	if maxReopens <= 0 {
		maxReopens = 3
	}
	return &Engine{oracle: oracle, maxReopens: maxReopens}
}

// Decide evaluates one transition attempt against the ticket snapshot.
// Checks run in a fixed order: capability, payload shape, state, identity.
// A rejection leaves no trace; the engine never silently no-ops.
func (e *Engine) Decide(t *domain.Ticket, req Request) (*Decision, error) {
	if !req.Actor.System {
		if req.Action == authz.ActionClose {
			// close is reserved for the sweeper; validate(true) is the
			// human path to closure.
			return nil, fmt.Errorf("%w: close is system-only", ErrForbidden)
		}
		if !e.oracle.Allows(req.Actor.Role, req.Action) {
			return nil, fmt.Errorf("%w: role %s cannot %s", ErrForbidden, req.Actor.Role, req.Action)
		}
	}

	if err := validatePayload(req); err != nil {
		return nil, err
	}

	if t.Status.Terminal() && !(req.Action == authz.ActionClose && t.Status == domain.TicketStatusValidated) {
		return nil, fmt.Errorf("%w: ticket already %s", ErrInvalidTransition, strings.ToLower(string(t.Status)))
	}

	switch req.Action {
	case authz.ActionAssign:
		return e.decideAssign(t, req)
	case authz.ActionDelegate:
		return e.decideDelegate(t, req)
	case authz.ActionStart:
		return e.decideStart(t, req)
	case authz.ActionResolve:
		return e.decideResolve(t, req)
	case authz.ActionValidate:
		return e.decideValidate(t, req)
	case authz.ActionClose:
		return e.decideClose(t, req)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidPayload, req.Action)
	}
}

func validatePayload(req Request) error {
	switch req.Action {
	case authz.ActionAssign:
		if req.Assign == nil {
			return fmt.Errorf("%w: assign payload required", ErrInvalidPayload)
		}
		if req.Assign.TechnicianID <= 0 {
			return fmt.Errorf("%w: technician_id required", ErrInvalidPayload)
		}
		if req.Assign.Priority == "" {
			return fmt.Errorf("%w: priority required at assignment", ErrInvalidPayload)
		}
	case authz.ActionDelegate:
		if req.Delegate == nil || req.Delegate.DelegateID <= 0 {
			return fmt.Errorf("%w: delegate_id required", ErrInvalidPayload)
		}
	case authz.ActionResolve:
		if req.Resolve == nil || strings.TrimSpace(req.Resolve.Summary) == "" {
			return fmt.Errorf("%w: resolution summary required", ErrInvalidPayload)
		}
	case authz.ActionValidate:
		if req.Validate == nil {
			return fmt.Errorf("%w: validation payload required", ErrInvalidPayload)
		}
		if !req.Validate.Validated {
			if req.Validate.RejectionReason == nil || strings.TrimSpace(*req.Validate.RejectionReason) == "" {
				return fmt.Errorf("%w: rejection reason required", ErrInvalidPayload)
			}
		}
	}
	return nil
}

func (e *Engine) decideAssign(t *domain.Ticket, req Request) (*Decision, error) {
	switch t.Status {
	case domain.TicketStatusCreated, domain.TicketStatusDelegated, domain.TicketStatusRejected:
	default:
		return nil, fmt.Errorf("%w: cannot assign from %s", ErrInvalidTransition, t.Status)
	}

	reopen := t.Status == domain.TicketStatusRejected
	technicianID := req.Assign.TechnicianID
	priority := req.Assign.Priority
	assignerID := req.Actor.ID

	d := &Decision{
		NewStatus:       domain.TicketStatusAssignedTechnician,
		TechnicianID:    &technicianID,
		SecretaryID:     &assignerID,
		Priority:        &priority,
		SetAssignedAt:   t.AssignedAt == nil,
		IncrementReopen: reopen,
		History:         e.historyEntry(t, domain.TicketStatusAssignedTechnician, req, req.Assign.Reason),
	}

	notifType := domain.NotificationTicketAssigned
	message := fmt.Sprintf("Ticket #%d has been assigned to you", t.Number)
	if reopen {
		notifType = domain.NotificationTicketReassigned
		message = fmt.Sprintf("Ticket #%d was rejected by its creator and reassigned to you", t.Number)
	}
	d.Notifications = append(d.Notifications, NotificationDraft{
		UserID:  technicianID,
		Type:    notifType,
		Message: message,
	})

	if reopen && t.ReopenCount+1 > e.maxReopens {
		d.Escalated = true
		d.Notifications = append(d.Notifications, NotificationDraft{
			UserID:  assignerID,
			Type:    domain.NotificationReopenEscalation,
			Message: fmt.Sprintf("Ticket #%d has been reopened %d times and exceeds the reopen limit (%d)", t.Number, t.ReopenCount+1, e.maxReopens),
		})
	}
	return d, nil
}

func (e *Engine) decideDelegate(t *domain.Ticket, req Request) (*Decision, error) {
	switch t.Status {
	case domain.TicketStatusCreated, domain.TicketStatusAssignedTechnician:
	default:
		return nil, fmt.Errorf("%w: cannot delegate from %s", ErrInvalidTransition, t.Status)
	}

	delegateID := req.Delegate.DelegateID
	return &Decision{
		NewStatus: domain.TicketStatusDelegated,
		// A delegated ticket is back in the assignment queue; any prior
		// technician assignment no longer holds.
		ClearTechnician: t.TechnicianID != nil,
		SecretaryID:     &delegateID,
		History:         e.historyEntry(t, domain.TicketStatusDelegated, req, req.Delegate.Reason),
		Notifications: []NotificationDraft{{
			UserID:  delegateID,
			Type:    domain.NotificationTicketDelegated,
			Message: fmt.Sprintf("Ticket #%d has been delegated to you", t.Number),
		}},
	}, nil
}

func (e *Engine) decideStart(t *domain.Ticket, req Request) (*Decision, error) {
	if t.Status != domain.TicketStatusAssignedTechnician {
		return nil, fmt.Errorf("%w: cannot start work from %s", ErrInvalidTransition, t.Status)
	}
	if t.TechnicianID == nil || *t.TechnicianID != req.Actor.ID {
		return nil, fmt.Errorf("%w: only the assigned technician may start work", ErrForbidden)
	}

	return &Decision{
		NewStatus: domain.TicketStatusInProgress,
		History:   e.historyEntry(t, domain.TicketStatusInProgress, req, nil),
		Notifications: []NotificationDraft{{
			UserID:  t.CreatorID,
			Type:    domain.NotificationTicketInProgress,
			Message: fmt.Sprintf("Work has started on your ticket #%d", t.Number),
		}},
	}, nil
}

func (e *Engine) decideResolve(t *domain.Ticket, req Request) (*Decision, error) {
	if t.Status != domain.TicketStatusInProgress {
		return nil, fmt.Errorf("%w: cannot resolve from %s", ErrInvalidTransition, t.Status)
	}
	if t.TechnicianID == nil || *t.TechnicianID != req.Actor.ID {
		return nil, fmt.Errorf("%w: only the assigned technician may resolve", ErrForbidden)
	}

	summary := strings.TrimSpace(req.Resolve.Summary)
	return &Decision{
		NewStatus:         domain.TicketStatusResolved,
		ResolutionSummary: &summary,
		SetResolvedAt:     t.ResolvedAt == nil,
		History:           e.historyEntry(t, domain.TicketStatusResolved, req, &summary),
		Notifications: []NotificationDraft{{
			UserID:  t.CreatorID,
			Type:    domain.NotificationTicketResolved,
			Message: fmt.Sprintf("Your ticket #%d has been resolved, please validate the resolution", t.Number),
		}},
	}, nil
}

func (e *Engine) decideValidate(t *domain.Ticket, req Request) (*Decision, error) {
	if t.Status != domain.TicketStatusResolved {
		return nil, fmt.Errorf("%w: cannot validate from %s", ErrInvalidTransition, t.Status)
	}
	if t.CreatorID != req.Actor.ID {
		return nil, fmt.Errorf("%w: only the ticket creator may validate", ErrForbidden)
	}

	if req.Validate.Validated {
		d := &Decision{
			NewStatus:   domain.TicketStatusValidated,
			SetClosedAt: t.ClosedAt == nil,
			History:     e.historyEntry(t, domain.TicketStatusValidated, req, nil),
		}
		if t.TechnicianID != nil {
			d.Notifications = append(d.Notifications, NotificationDraft{
				UserID:  *t.TechnicianID,
				Type:    domain.NotificationTicketValidated,
				Message: fmt.Sprintf("The creator validated your resolution of ticket #%d", t.Number),
			})
		}
		return d, nil
	}

	reason := strings.TrimSpace(*req.Validate.RejectionReason)
	d := &Decision{
		NewStatus: domain.TicketStatusRejected,
		History:   e.historyEntry(t, domain.TicketStatusRejected, req, &reason),
	}
	if t.TechnicianID != nil {
		d.Notifications = append(d.Notifications, NotificationDraft{
			UserID:  *t.TechnicianID,
			Type:    domain.NotificationTicketRejected,
			Message: fmt.Sprintf("The creator rejected the resolution of ticket #%d: %s", t.Number, reason),
		})
	}
	if t.SecretaryID != nil && (t.TechnicianID == nil || *t.SecretaryID != *t.TechnicianID) {
		d.Notifications = append(d.Notifications, NotificationDraft{
			UserID:  *t.SecretaryID,
			Type:    domain.NotificationTicketRejected,
			Message: fmt.Sprintf("Ticket #%d was rejected by its creator and needs reassignment", t.Number),
		})
	}
	return d, nil
}

// decideClose covers the two system moves: auto-close of a RESOLVED ticket
// past its validation grace period, and folding VALIDATED into CLOSED.
// Grace-period eligibility is decided by the sweeper's scan, not here.
func (e *Engine) decideClose(t *domain.Ticket, req Request) (*Decision, error) {
	switch t.Status {
	case domain.TicketStatusResolved:
		d := &Decision{
			NewStatus:   domain.TicketStatusClosed,
			SetClosedAt: t.ClosedAt == nil,
			History:     e.historyEntry(t, domain.TicketStatusClosed, req, strPtr("auto-closed after validation grace period")),
		}
		d.Notifications = append(d.Notifications, NotificationDraft{
			UserID:  t.CreatorID,
			Type:    domain.NotificationTicketAutoClosed,
			Message: fmt.Sprintf("Your ticket #%d was closed automatically after the validation period expired", t.Number),
		})
		if t.TechnicianID != nil {
			d.Notifications = append(d.Notifications, NotificationDraft{
				UserID:  *t.TechnicianID,
				Type:    domain.NotificationTicketAutoClosed,
				Message: fmt.Sprintf("Ticket #%d was closed automatically after the validation period expired", t.Number),
			})
		}
		return d, nil
	case domain.TicketStatusValidated:
		return &Decision{
			NewStatus:   domain.TicketStatusClosed,
			SetClosedAt: t.ClosedAt == nil,
			History:     e.historyEntry(t, domain.TicketStatusClosed, req, nil),
		}, nil
	default:
		return nil, fmt.Errorf("%w: cannot close from %s", ErrInvalidTransition, t.Status)
	}
}

func (e *Engine) historyEntry(t *domain.Ticket, next domain.TicketStatus, req Request, reason *string) domain.TicketHistory {
	old := t.Status
	entry := domain.TicketHistory{
		TicketID:  t.ID,
		OldStatus: &old,
		NewStatus: next,
		Reason:    reason,
		ChangedAt: req.Now,
	}
	if !req.Actor.System {
		actorID := req.Actor.ID
		entry.ActorUserID = &actorID
	}
	return entry
}

func strPtr(s string) *string {
	return &s
}
