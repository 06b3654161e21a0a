package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var (
	creator    = Actor{ID: 1, Role: domain.RoleUser}
	secretary  = Actor{ID: 2, Role: domain.RoleSecretary}
	technician = Actor{ID: 3, Role: domain.RoleTechnician}
	adjoint    = Actor{ID: 4, Role: domain.RoleAdjointDSI}
	now        = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
)

func newEngine() *Engine {
	return NewEngine(authz.DefaultPolicy(), 3)
}

func ticketInStatus(status domain.TicketStatus) *domain.Ticket {
	t := &domain.Ticket{
		ID:        10,
		Number:    42,
		Title:     "printer jam",
		Type:      domain.TicketTypeMaterial,
		Status:    status,
		CreatorID: creator.ID,
		CreatedAt: now.Add(-48 * time.Hour),
	}
	switch status {
	case domain.TicketStatusAssignedTechnician, domain.TicketStatusInProgress,
		domain.TicketStatusResolved, domain.TicketStatusValidated, domain.TicketStatusClosed:
		techID := technician.ID
		secID := secretary.ID
		prio := domain.TicketPriorityHigh
		assignedAt := now.Add(-24 * time.Hour)
		t.TechnicianID = &techID
		t.SecretaryID = &secID
		t.Priority = &prio
		t.AssignedAt = &assignedAt
	}
	if status == domain.TicketStatusResolved || status == domain.TicketStatusValidated || status == domain.TicketStatusClosed {
		resolvedAt := now.Add(-12 * time.Hour)
		summary := "replaced cable"
		t.ResolvedAt = &resolvedAt
		t.ResolutionSummary = &summary
	}
	if status == domain.TicketStatusValidated || status == domain.TicketStatusClosed {
		closedAt := now.Add(-time.Hour)
		t.ClosedAt = &closedAt
	}
	return t
}

func assignRequest(actor Actor) Request {
	return Request{
		Action: authz.ActionAssign,
		Actor:  actor,
		Now:    now,
		Assign: &AssignPayload{TechnicianID: technician.ID, Priority: domain.TicketPriorityHigh},
	}
}

func TestAssignFromCreated(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusCreated)
	d, err := newEngine().Decide(ticket, assignRequest(secretary))
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusAssignedTechnician, d.NewStatus)
	require.NotNil(t, d.TechnicianID)
	assert.Equal(t, technician.ID, *d.TechnicianID)
	require.NotNil(t, d.Priority)
	assert.Equal(t, domain.TicketPriorityHigh, *d.Priority)
	assert.True(t, d.SetAssignedAt)
	assert.False(t, d.IncrementReopen)

	require.NotNil(t, d.History.OldStatus)
	assert.Equal(t, domain.TicketStatusCreated, *d.History.OldStatus)
	assert.Equal(t, domain.TicketStatusAssignedTechnician, d.History.NewStatus)
	require.NotNil(t, d.History.ActorUserID)
	assert.Equal(t, secretary.ID, *d.History.ActorUserID)

	require.Len(t, d.Notifications, 1)
	assert.Equal(t, technician.ID, d.Notifications[0].UserID)
	assert.Equal(t, domain.NotificationTicketAssigned, d.Notifications[0].Type)
}

func TestAssignForbiddenRoles(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusCreated)
	for _, actor := range []Actor{creator, technician} {
		_, err := newEngine().Decide(ticket, assignRequest(actor))
		assert.ErrorIs(t, err, ErrForbidden, "role %s must not assign", actor.Role)
	}
}

func TestAssignRequiresPriority(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusCreated)
	req := assignRequest(secretary)
	req.Assign.Priority = ""
	_, err := newEngine().Decide(ticket, req)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDelegate(t *testing.T) {
	for _, status := range []domain.TicketStatus{domain.TicketStatusCreated, domain.TicketStatusAssignedTechnician} {
		ticket := ticketInStatus(status)
		d, err := newEngine().Decide(ticket, Request{
			Action:   authz.ActionDelegate,
			Actor:    adjoint,
			Now:      now,
			Delegate: &DelegatePayload{DelegateID: secretary.ID},
		})
		require.NoError(t, err, "delegate from %s", status)
		assert.Equal(t, domain.TicketStatusDelegated, d.NewStatus)
		require.NotNil(t, d.SecretaryID)
		assert.Equal(t, secretary.ID, *d.SecretaryID)
		assert.Equal(t, ticket.TechnicianID != nil, d.ClearTechnician,
			"a prior assignment must be cleared on delegation")
		require.Len(t, d.Notifications, 1)
		assert.Equal(t, domain.NotificationTicketDelegated, d.Notifications[0].Type)
	}
}

// Delegating an assigned ticket puts it back in the assignment queue: the
// technician link is dropped, so nothing downstream (listings, reminders)
// still targets the pre-delegation technician.
func TestDelegateDropsAssignedTechnician(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusAssignedTechnician)
	require.NotNil(t, ticket.TechnicianID)

	d, err := newEngine().Decide(ticket, Request{
		Action:   authz.ActionDelegate,
		Actor:    adjoint,
		Now:      now,
		Delegate: &DelegatePayload{DelegateID: secretary.ID},
	})
	require.NoError(t, err)
	assert.True(t, d.ClearTechnician)
	assert.Nil(t, d.TechnicianID)

	for _, n := range d.Notifications {
		assert.NotEqual(t, technician.ID, n.UserID,
			"the former technician is not a delegation recipient")
	}
}

func TestDelegateNeedsAdjointCapability(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusCreated)
	_, err := newEngine().Decide(ticket, Request{
		Action:   authz.ActionDelegate,
		Actor:    secretary,
		Now:      now,
		Delegate: &DelegatePayload{DelegateID: adjoint.ID},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStartWorkOnlyAssignedTechnician(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusAssignedTechnician)

	otherTech := Actor{ID: 99, Role: domain.RoleTechnician}
	_, err := newEngine().Decide(ticket, Request{Action: authz.ActionStart, Actor: otherTech, Now: now})
	assert.ErrorIs(t, err, ErrForbidden)

	d, err := newEngine().Decide(ticket, Request{Action: authz.ActionStart, Actor: technician, Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, d.NewStatus)
	require.Len(t, d.Notifications, 1)
	assert.Equal(t, creator.ID, d.Notifications[0].UserID)
}

func TestResolveSetsSummaryAndTimestamp(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusInProgress)
	d, err := newEngine().Decide(ticket, Request{
		Action:  authz.ActionResolve,
		Actor:   technician,
		Now:     now,
		Resolve: &ResolvePayload{Summary: "replaced cable"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, d.NewStatus)
	require.NotNil(t, d.ResolutionSummary)
	assert.Equal(t, "replaced cable", *d.ResolutionSummary)
	assert.True(t, d.SetResolvedAt)
}

func TestResolveRequiresSummary(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusInProgress)
	_, err := newEngine().Decide(ticket, Request{
		Action:  authz.ActionResolve,
		Actor:   technician,
		Now:     now,
		Resolve: &ResolvePayload{Summary: "   "},
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestValidateTrue(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusResolved)
	d, err := newEngine().Decide(ticket, Request{
		Action:   authz.ActionValidate,
		Actor:    creator,
		Now:      now,
		Validate: &ValidatePayload{Validated: true},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusValidated, d.NewStatus)
	assert.True(t, d.SetClosedAt)
	require.Len(t, d.Notifications, 1)
	assert.Equal(t, technician.ID, d.Notifications[0].UserID)
	assert.Equal(t, domain.NotificationTicketValidated, d.Notifications[0].Type)
}

func TestValidateFalseNeedsReason(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusResolved)
	_, err := newEngine().Decide(ticket, Request{
		Action:   authz.ActionValidate,
		Actor:    creator,
		Now:      now,
		Validate: &ValidatePayload{Validated: false},
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	reason := "broken screen"
	d, err := newEngine().Decide(ticket, Request{
		Action:   authz.ActionValidate,
		Actor:    creator,
		Now:      now,
		Validate: &ValidatePayload{Validated: false, RejectionReason: &reason},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusRejected, d.NewStatus)

	recipients := map[int64]bool{}
	for _, n := range d.Notifications {
		assert.Equal(t, domain.NotificationTicketRejected, n.Type)
		recipients[n.UserID] = true
	}
	assert.True(t, recipients[technician.ID], "technician notified")
	assert.True(t, recipients[secretary.ID], "assigner notified")
}

func TestValidateCreatorOnly(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusResolved)
	_, err := newEngine().Decide(ticket, Request{
		Action:   authz.ActionValidate,
		Actor:    technician,
		Now:      now,
		Validate: &ValidatePayload{Validated: true},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReassignAfterRejectionIncrementsReopen(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusRejected)
	techID := technician.ID
	ticket.TechnicianID = &techID
	assignedAt := now.Add(-24 * time.Hour)
	ticket.AssignedAt = &assignedAt

	d, err := newEngine().Decide(ticket, assignRequest(secretary))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssignedTechnician, d.NewStatus)
	assert.True(t, d.IncrementReopen)
	assert.False(t, d.SetAssignedAt, "assigned_at is set once, never reset")
	assert.False(t, d.Escalated)
	require.Len(t, d.Notifications, 1)
	assert.Equal(t, domain.NotificationTicketReassigned, d.Notifications[0].Type)
}

func TestReopenLimitEscalatesWithoutBlocking(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusRejected)
	ticket.ReopenCount = 3

	d, err := newEngine().Decide(ticket, assignRequest(secretary))
	require.NoError(t, err, "exceeding the reopen limit must not block the transition")
	assert.True(t, d.Escalated)
	require.Len(t, d.Notifications, 2)
	assert.Equal(t, domain.NotificationReopenEscalation, d.Notifications[1].Type)
	assert.Equal(t, secretary.ID, d.Notifications[1].UserID)
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	engine := newEngine()
	for _, status := range []domain.TicketStatus{domain.TicketStatusValidated, domain.TicketStatusClosed} {
		ticket := ticketInStatus(status)
		requests := []Request{
			assignRequest(secretary),
			{Action: authz.ActionDelegate, Actor: adjoint, Now: now, Delegate: &DelegatePayload{DelegateID: secretary.ID}},
			{Action: authz.ActionStart, Actor: technician, Now: now},
			{Action: authz.ActionResolve, Actor: technician, Now: now, Resolve: &ResolvePayload{Summary: "x"}},
			{Action: authz.ActionValidate, Actor: creator, Now: now, Validate: &ValidatePayload{Validated: true}},
		}
		for _, req := range requests {
			_, err := engine.Decide(ticket, req)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", req.Action, status)
		}
	}
}

func TestSystemAutoClose(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusResolved)
	d, err := newEngine().Decide(ticket, Request{Action: authz.ActionClose, Actor: SystemActor, Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, d.NewStatus)
	assert.True(t, d.SetClosedAt)
	assert.Nil(t, d.History.ActorUserID, "system transitions carry the system sentinel")

	recipients := map[int64]bool{}
	for _, n := range d.Notifications {
		assert.Equal(t, domain.NotificationTicketAutoClosed, n.Type)
		recipients[n.UserID] = true
	}
	assert.True(t, recipients[creator.ID])
	assert.True(t, recipients[technician.ID])
}

func TestCloseIsSystemOnly(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusResolved)
	_, err := newEngine().Decide(ticket, Request{Action: authz.ActionClose, Actor: secretary, Now: now})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSystemFoldsValidatedIntoClosed(t *testing.T) {
	ticket := ticketInStatus(domain.TicketStatusValidated)
	d, err := newEngine().Decide(ticket, Request{Action: authz.ActionClose, Actor: SystemActor, Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, d.NewStatus)
	assert.False(t, d.SetClosedAt, "closed_at was stamped at validation")
	assert.Empty(t, d.Notifications)
}

// Every decision the engine can emit must follow an edge of the transition
// table; no (from, to) pair outside it is reachable.
func TestNoUnreachableStatusPairs(t *testing.T) {
	edges := map[domain.TicketStatus][]domain.TicketStatus{
		domain.TicketStatusCreated:            {domain.TicketStatusAssignedTechnician, domain.TicketStatusDelegated},
		domain.TicketStatusAssignedTechnician: {domain.TicketStatusInProgress, domain.TicketStatusDelegated},
		domain.TicketStatusDelegated:          {domain.TicketStatusAssignedTechnician},
		domain.TicketStatusInProgress:         {domain.TicketStatusResolved},
		domain.TicketStatusResolved:           {domain.TicketStatusValidated, domain.TicketStatusRejected, domain.TicketStatusClosed},
		domain.TicketStatusRejected:           {domain.TicketStatusAssignedTechnician},
		domain.TicketStatusValidated:          {domain.TicketStatusClosed},
		domain.TicketStatusClosed:             {},
	}
	allStatuses := []domain.TicketStatus{
		domain.TicketStatusCreated, domain.TicketStatusAssignedTechnician, domain.TicketStatusInProgress,
		domain.TicketStatusResolved, domain.TicketStatusValidated, domain.TicketStatusRejected,
		domain.TicketStatusClosed, domain.TicketStatusDelegated,
	}
	reason := "not good enough"
	actors := []Actor{creator, secretary, technician, adjoint, SystemActor}
	engine := newEngine()

	for _, status := range allStatuses {
		for _, actor := range actors {
			requests := []Request{
				{Action: authz.ActionAssign, Actor: actor, Now: now, Assign: &AssignPayload{TechnicianID: technician.ID, Priority: domain.TicketPriorityLow}},
				{Action: authz.ActionDelegate, Actor: actor, Now: now, Delegate: &DelegatePayload{DelegateID: secretary.ID}},
				{Action: authz.ActionStart, Actor: actor, Now: now},
				{Action: authz.ActionResolve, Actor: actor, Now: now, Resolve: &ResolvePayload{Summary: "done"}},
				{Action: authz.ActionValidate, Actor: actor, Now: now, Validate: &ValidatePayload{Validated: true}},
				{Action: authz.ActionValidate, Actor: actor, Now: now, Validate: &ValidatePayload{Validated: false, RejectionReason: &reason}},
				{Action: authz.ActionClose, Actor: actor, Now: now},
			}
			for _, req := range requests {
				d, err := engine.Decide(ticketInStatus(status), req)
				if err != nil {
					continue
				}
				assert.Contains(t, edges[status], d.NewStatus,
					"%s by %v from %s produced unreachable edge to %s", req.Action, actor, status, d.NewStatus)
			}
		}
	}
}

// End-to-end: created -> assigned -> in progress -> resolved -> validated,
// then nothing further is accepted.
func TestHappyPathDecisions(t *testing.T) {
	engine := newEngine()
	ticket := ticketInStatus(domain.TicketStatusCreated)

	apply := func(d *Decision) {
		ticket.Status = d.NewStatus
		if d.ClearTechnician {
			ticket.TechnicianID = nil
		} else if d.TechnicianID != nil {
			ticket.TechnicianID = d.TechnicianID
		}
		if d.SecretaryID != nil {
			ticket.SecretaryID = d.SecretaryID
		}
		if d.Priority != nil {
			ticket.Priority = d.Priority
		}
		if d.ResolutionSummary != nil {
			ticket.ResolutionSummary = d.ResolutionSummary
		}
		stamp := now
		if d.SetAssignedAt {
			ticket.AssignedAt = &stamp
		}
		if d.SetResolvedAt {
			ticket.ResolvedAt = &stamp
		}
		if d.SetClosedAt {
			ticket.ClosedAt = &stamp
		}
	}

	d, err := engine.Decide(ticket, assignRequest(secretary))
	require.NoError(t, err)
	apply(d)
	require.NotNil(t, ticket.AssignedAt)

	d, err = engine.Decide(ticket, Request{Action: authz.ActionStart, Actor: technician, Now: now})
	require.NoError(t, err)
	apply(d)

	d, err = engine.Decide(ticket, Request{Action: authz.ActionResolve, Actor: technician, Now: now, Resolve: &ResolvePayload{Summary: "replaced cable"}})
	require.NoError(t, err)
	apply(d)
	require.NotNil(t, ticket.ResolvedAt)

	d, err = engine.Decide(ticket, Request{Action: authz.ActionValidate, Actor: creator, Now: now, Validate: &ValidatePayload{Validated: true}})
	require.NoError(t, err)
	apply(d)
	require.NotNil(t, ticket.ClosedAt)
	assert.Equal(t, domain.TicketStatusValidated, ticket.Status)

	_, err = engine.Decide(ticket, Request{Action: authz.ActionStart, Actor: technician, Now: now})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
