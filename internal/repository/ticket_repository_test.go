package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
)

func TestApplyDecisionLocallyMirrorsFields(t *testing.T) {
	techID := int64(7)
	prio := domain.TicketPriorityHigh
	changedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{ID: 1, Status: domain.TicketStatusCreated, Version: 3}

	applyDecisionLocally(ticket, &lifecycle.Decision{
		NewStatus:     domain.TicketStatusAssignedTechnician,
		TechnicianID:  &techID,
		Priority:      &prio,
		SetAssignedAt: true,
		History:       domain.TicketHistory{ChangedAt: changedAt},
	})

	assert.Equal(t, domain.TicketStatusAssignedTechnician, ticket.Status)
	require.NotNil(t, ticket.TechnicianID)
	assert.Equal(t, techID, *ticket.TechnicianID)
	require.NotNil(t, ticket.AssignedAt)
	assert.Equal(t, changedAt, *ticket.AssignedAt)
	assert.Equal(t, int64(4), ticket.Version)
}

// A delegation decision clears the technician link; COALESCE-style "keep
// when absent" must not resurrect the previous assignment.
func TestApplyDecisionLocallyClearsTechnician(t *testing.T) {
	techID := int64(7)
	delegateID := int64(20)
	ticket := &domain.Ticket{
		ID:           1,
		Status:       domain.TicketStatusAssignedTechnician,
		TechnicianID: &techID,
		Version:      2,
	}

	applyDecisionLocally(ticket, &lifecycle.Decision{
		NewStatus:       domain.TicketStatusDelegated,
		ClearTechnician: true,
		SecretaryID:     &delegateID,
		History:         domain.TicketHistory{ChangedAt: time.Now()},
	})

	assert.Equal(t, domain.TicketStatusDelegated, ticket.Status)
	assert.Nil(t, ticket.TechnicianID)
	require.NotNil(t, ticket.SecretaryID)
	assert.Equal(t, delegateID, *ticket.SecretaryID)
}
