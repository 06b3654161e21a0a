package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

type sweepTicketRepo struct {
	tickets map[int64]*domain.Ticket
	// reminders records drafts written per ticket
	reminders map[int64][]lifecycle.NotificationDraft
}

func newSweepTicketRepo() *sweepTicketRepo {
	return &sweepTicketRepo{
		tickets:   map[int64]*domain.Ticket{},
		reminders: map[int64][]lifecycle.NotificationDraft{},
	}
}

func (f *sweepTicketRepo) Create(context.Context, *domain.Ticket) error { return nil }

func (f *sweepTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	return f.tickets[id], nil
}

func (f *sweepTicketRepo) LoadForTransition(ctx context.Context, id int64) (*domain.Ticket, error) {
	return f.GetByID(ctx, id)
}

func (f *sweepTicketRepo) ApplyTransition(context.Context, *domain.Ticket, *lifecycle.Decision) error {
	return nil
}

func (f *sweepTicketRepo) ListByCreator(context.Context, int64, int, int) ([]domain.Ticket, error) {
	return nil, nil
}

func (f *sweepTicketRepo) ListByTechnician(context.Context, int64, int, int) ([]domain.Ticket, error) {
	return nil, nil
}

func (f *sweepTicketRepo) ListAll(context.Context, int, int) ([]domain.Ticket, error) {
	return nil, nil
}

func (f *sweepTicketRepo) ListAutoCloseEligible(_ context.Context, resolvedBefore time.Time, _ int) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range f.tickets {
		if t.Status == domain.TicketStatusResolved && t.ResolvedAt != nil && !t.ResolvedAt.After(resolvedBefore) {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (f *sweepTicketRepo) ListValidatedUnclosed(context.Context, int) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range f.tickets {
		if t.Status == domain.TicketStatusValidated {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (f *sweepTicketRepo) ListReminderEligible(_ context.Context, staleBefore, windowStart time.Time, _ int) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range f.tickets {
		if !t.Status.Open() {
			continue
		}
		ref := t.CreatedAt
		if t.AssignedAt != nil {
			ref = *t.AssignedAt
		}
		if ref.After(staleBefore) {
			continue
		}
		if t.LastReminderAt != nil && !t.LastReminderAt.Before(windowStart) {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (f *sweepTicketRepo) RecordReminder(_ context.Context, ticketID int64, windowStart time.Time, drafts []lifecycle.NotificationDraft, now time.Time) (bool, error) {
	t := f.tickets[ticketID]
	if t.LastReminderAt != nil && !t.LastReminderAt.Before(windowStart) {
		return false, nil
	}
	stamp := now
	t.LastReminderAt = &stamp
	f.reminders[ticketID] = append(f.reminders[ticketID], drafts...)
	return true, nil
}

type sweepUserRepo struct {
	pool []domain.User
	// rolesAsked captures the roster requested by the pool lookup
	rolesAsked []domain.Role
}

func (f *sweepUserRepo) Create(context.Context, *domain.User) error { return nil }
func (f *sweepUserRepo) Update(context.Context, *domain.User) error { return nil }
func (f *sweepUserRepo) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (f *sweepUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (f *sweepUserRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (f *sweepUserRepo) ListByRole(_ context.Context, roles []domain.Role) ([]domain.User, error) {
	f.rolesAsked = roles
	return f.pool, nil
}

type fakeCloser struct {
	closed []int64
	failID int64
}

func (f *fakeCloser) AutoClose(_ context.Context, ticketID int64) (*domain.Ticket, error) {
	if ticketID == f.failID {
		return nil, errors.New("boom")
	}
	f.closed = append(f.closed, ticketID)
	return &domain.Ticket{ID: ticketID, Status: domain.TicketStatusClosed}, nil
}

type denyLease struct{ acquired bool }

func (l *denyLease) Acquire(context.Context, time.Duration) (bool, error) { return l.acquired, nil }
func (l *denyLease) Release(context.Context)                              {}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func testWorkflow() config.WorkflowConfig {
	return config.WorkflowConfig{
		MaxReopens:      3,
		ReminderAfter:   24 * time.Hour,
		ValidationGrace: 72 * time.Hour,
		SweepCron:       "0 * * * *",
		SweepBatchLimit: 100,
		SweepRunTimeout: time.Minute,
	}
}

func newTestSweeper(tickets *sweepTicketRepo, users *sweepUserRepo, closer *fakeCloser, dispatcher *recordingDispatcher, now time.Time) *Sweeper {
	return New(Dependencies{
		Workflow:   testWorkflow(),
		TicketRepo: tickets,
		UserRepo:   users,
		Closer:     closer,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
		Now:        func() time.Time { return now },
	})
}

func TestReminderScanIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tickets := newSweepTicketRepo()
	techID := int64(7)
	staleAt := now.Add(-48 * time.Hour)
	tickets.tickets[1] = &domain.Ticket{
		ID: 1, Number: 1001, Status: domain.TicketStatusAssignedTechnician,
		TechnicianID: &techID, CreatedAt: staleAt, AssignedAt: &staleAt,
	}
	dispatcher := &recordingDispatcher{}
	sweep := newTestSweeper(tickets, &sweepUserRepo{}, &fakeCloser{}, dispatcher, now)

	require.NoError(t, sweep.RunOnce(context.Background()))
	require.Len(t, tickets.reminders[1], 1)
	assert.Equal(t, techID, tickets.reminders[1][0].UserID)
	assert.Equal(t, domain.NotificationTicketReminder, tickets.reminders[1][0].Type)
	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventTicketReminder, dispatcher.published[0].Type)
	assert.True(t, dispatcher.published[0].Actor.System)

	// a second pass in the same window finds nothing to do
	require.NoError(t, sweep.RunOnce(context.Background()))
	assert.Len(t, tickets.reminders[1], 1)
	assert.Len(t, dispatcher.published, 1)
}

func TestReminderFallsBackToAssignmentPool(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tickets := newSweepTicketRepo()
	staleAt := now.Add(-30 * time.Hour)
	tickets.tickets[1] = &domain.Ticket{
		ID: 1, Number: 1001, Status: domain.TicketStatusCreated, CreatedAt: staleAt,
	}
	users := &sweepUserRepo{pool: []domain.User{
		{ID: 20, Role: domain.RoleSecretary},
		{ID: 21, Role: domain.RoleDSI},
	}}
	sweep := newTestSweeper(tickets, users, &fakeCloser{}, &recordingDispatcher{}, now)

	require.NoError(t, sweep.RunOnce(context.Background()))
	require.Len(t, tickets.reminders[1], 2)
	assert.Equal(t, int64(20), tickets.reminders[1][0].UserID)
	assert.Equal(t, int64(21), tickets.reminders[1][1].UserID)
	assert.Contains(t, users.rolesAsked, domain.RoleAdmin,
		"every assignment-capable role belongs in the reminder pool")
	assert.Contains(t, users.rolesAsked, domain.RoleSecretary)
	assert.Contains(t, users.rolesAsked, domain.RoleAdjointDSI)
	assert.Contains(t, users.rolesAsked, domain.RoleDSI)
}

// A delegated ticket sits back in the assignment queue with no technician,
// so a stale one reminds the assignment pool, never a previous assignee.
func TestDelegatedTicketRemindsAssignmentPool(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tickets := newSweepTicketRepo()
	staleAt := now.Add(-48 * time.Hour)
	secID := int64(20)
	tickets.tickets[1] = &domain.Ticket{
		ID: 1, Number: 1001, Status: domain.TicketStatusDelegated,
		SecretaryID: &secID, CreatedAt: staleAt, AssignedAt: &staleAt,
	}
	users := &sweepUserRepo{pool: []domain.User{
		{ID: 20, Role: domain.RoleSecretary},
		{ID: 22, Role: domain.RoleAdmin},
	}}
	sweep := newTestSweeper(tickets, users, &fakeCloser{}, &recordingDispatcher{}, now)

	require.NoError(t, sweep.RunOnce(context.Background()))
	require.Len(t, tickets.reminders[1], 2)
	recipients := map[int64]bool{}
	for _, draft := range tickets.reminders[1] {
		recipients[draft.UserID] = true
	}
	assert.True(t, recipients[20])
	assert.True(t, recipients[22], "admins are part of the assignment pool")
	assert.False(t, recipients[7], "no reminder for a technician the ticket no longer has")
}

func TestFreshTicketsAreNotReminded(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tickets := newSweepTicketRepo()
	recent := now.Add(-time.Hour)
	tickets.tickets[1] = &domain.Ticket{
		ID: 1, Number: 1001, Status: domain.TicketStatusCreated, CreatedAt: recent,
	}
	sweep := newTestSweeper(tickets, &sweepUserRepo{}, &fakeCloser{}, &recordingDispatcher{}, now)

	require.NoError(t, sweep.RunOnce(context.Background()))
	assert.Empty(t, tickets.reminders)
}

func TestAutoCloseScanIsolatesFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tickets := newSweepTicketRepo()
	expired := now.Add(-80 * time.Hour)
	fresh := now.Add(-time.Hour)
	tickets.tickets[1] = &domain.Ticket{ID: 1, Status: domain.TicketStatusResolved, ResolvedAt: &expired}
	tickets.tickets[2] = &domain.Ticket{ID: 2, Status: domain.TicketStatusResolved, ResolvedAt: &expired}
	tickets.tickets[3] = &domain.Ticket{ID: 3, Status: domain.TicketStatusResolved, ResolvedAt: &fresh}
	closer := &fakeCloser{failID: 1}
	sweep := newTestSweeper(tickets, &sweepUserRepo{}, closer, &recordingDispatcher{}, now)

	require.NoError(t, sweep.RunOnce(context.Background()))
	assert.Equal(t, []int64{2}, closer.closed)
}

func TestValidatedTicketsFoldIntoClosed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tickets := newSweepTicketRepo()
	closedAt := now.Add(-time.Hour)
	tickets.tickets[1] = &domain.Ticket{ID: 1, Status: domain.TicketStatusValidated, ClosedAt: &closedAt}
	closer := &fakeCloser{}
	sweep := newTestSweeper(tickets, &sweepUserRepo{}, closer, &recordingDispatcher{}, now)

	require.NoError(t, sweep.RunOnce(context.Background()))
	assert.Equal(t, []int64{1}, closer.closed)
}

func TestHeldLeaseSkipsRun(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tickets := newSweepTicketRepo()
	staleAt := now.Add(-48 * time.Hour)
	tickets.tickets[1] = &domain.Ticket{
		ID: 1, Status: domain.TicketStatusCreated, CreatedAt: staleAt,
	}
	sweep := New(Dependencies{
		Workflow:   testWorkflow(),
		TicketRepo: tickets,
		UserRepo:   &sweepUserRepo{pool: []domain.User{{ID: 20}}},
		Closer:     &fakeCloser{},
		Dispatcher: &recordingDispatcher{},
		Lease:      &denyLease{acquired: false},
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
		Now:        func() time.Time { return now },
	})

	require.NoError(t, sweep.RunOnce(context.Background()))
	assert.Empty(t, tickets.reminders)
}
