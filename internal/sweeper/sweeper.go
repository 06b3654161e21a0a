package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const leaseKey = "helpdesk:sweeper:lease"

// TicketCloser is the slice of the ticket service the sweeper drives.
type TicketCloser interface {
	AutoClose(ctx context.Context, ticketID int64) (*domain.Ticket, error)
}

// Lease guards a sweep run so only one replica executes it per window.
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context)
}

// RedisLease implements Lease with SETNX.
type RedisLease struct {
	client *redis.Client
	token  string
}

// NewRedisLease builds a lease on the shared Redis instance.
func NewRedisLease(client *redis.Client) *RedisLease {
	return &RedisLease{client: client, token: uuid.NewString()}
}

// Acquire takes the lease when free. The TTL bounds the hold so a crashed
// holder cannot block sweeps forever.
func (l *RedisLease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, leaseKey, l.token, ttl).Result()
}

// Release frees the lease if this instance still holds it.
func (l *RedisLease) Release(ctx context.Context) {
	current, err := l.client.Get(ctx, leaseKey).Result()
	if err != nil || current != l.token {
		return
	}
	l.client.Del(ctx, leaseKey)
}

// noopLease always grants; used when Redis is not configured.
type noopLease struct{}

func (noopLease) Acquire(context.Context, time.Duration) (bool, error) { return true, nil }
func (noopLease) Release(context.Context)                              {}

// Sweeper runs the scheduled maintenance scans: reminders for stale open
// tickets, auto-closure of resolved tickets past the validation grace and
// the fold of validated tickets into closed. Scans are idempotent, so a
// rerun within the same window is harmless.
type Sweeper struct {
	cfg        config.WorkflowConfig
	tickets    repository.TicketRepository
	users      repository.UserRepository
	closer     TicketCloser
	dispatcher events.Dispatcher
	lease      Lease
	logger     *zap.Logger
	metrics    *observability.Metrics
	cron       *cron.Cron
	now        func() time.Time
}

// Dependencies bundles sweeper collaborators.
type Dependencies struct {
	Workflow   config.WorkflowConfig
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Closer     TicketCloser
	Dispatcher events.Dispatcher
	Lease      Lease
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// New constructs the sweeper.
func New(deps Dependencies) *Sweeper {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	lease := deps.Lease
	if lease == nil {
		lease = noopLease{}
	}
	return &Sweeper{
		cfg:        deps.Workflow,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		closer:     deps.Closer,
		dispatcher: deps.Dispatcher,
		lease:      lease,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// Start schedules the sweep on the configured cron expression. Overlapping
// runs are skipped, not queued.
func (s *Sweeper) Start() error {
	if s.cron != nil {
		return errors.New("sweeper already started")
	}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DiscardLogger),
	))
	_, err := c.AddFunc(s.cfg.SweepCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SweepRunTimeout)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("sweep run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.SweepCron, err)
	}
	s.cron = c
	c.Start()
	s.logger.Info("sweeper started", zap.String("schedule", s.cfg.SweepCron))
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("sweeper stopped")
}

// RunOnce executes one sweep: acquire the cross-replica lease, then run the
// reminder and closure scans. Scan errors are logged per ticket; a failure
// on one ticket never blocks the rest.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	acquired, err := s.lease.Acquire(ctx, s.cfg.SweepRunTimeout)
	if err != nil {
		return fmt.Errorf("acquire sweep lease: %w", err)
	}
	if !acquired {
		s.logger.Debug("sweep lease held elsewhere, skipping")
		return nil
	}
	defer s.lease.Release(ctx)

	now := s.now()
	s.reminderScan(ctx, now)
	s.autoCloseScan(ctx, now)
	s.validatedFoldScan(ctx)
	return nil
}

// reminderScan notifies owners of open tickets that have sat unattended for
// the reminder interval. The notified party is the assigned technician, or
// the assignment pool when nobody is assigned yet.
func (s *Sweeper) reminderScan(ctx context.Context, now time.Time) {
	staleBefore := now.Add(-s.cfg.ReminderAfter)
	windowStart := now.Add(-s.cfg.ReminderAfter)

	tickets, err := s.tickets.ListReminderEligible(ctx, staleBefore, windowStart, s.cfg.SweepBatchLimit)
	if err != nil {
		s.logger.Error("reminder scan query failed", zap.Error(err))
		return
	}

	var pool []domain.User
	processed := 0
	for _, ticket := range tickets {
		var recipients []int64
		if ticket.TechnicianID != nil {
			recipients = []int64{*ticket.TechnicianID}
		} else {
			if pool == nil {
				pool, err = s.users.ListByRole(ctx, auth.AssignmentRoles())
				if err != nil {
					s.logger.Error("reminder pool lookup failed", zap.Error(err))
					return
				}
			}
			for _, u := range pool {
				recipients = append(recipients, u.ID)
			}
		}
		if len(recipients) == 0 {
			continue
		}

		drafts := make([]lifecycle.NotificationDraft, 0, len(recipients))
		message := fmt.Sprintf("ticket #%d has been waiting in %s", ticket.Number, ticket.Status)
		for _, userID := range recipients {
			drafts = append(drafts, lifecycle.NotificationDraft{
				UserID:  userID,
				Type:    domain.NotificationTicketReminder,
				Message: message,
			})
		}

		recorded, err := s.tickets.RecordReminder(ctx, ticket.ID, windowStart, drafts, now)
		if err != nil {
			s.logger.Error("reminder write failed",
				zap.Int64("ticket_id", ticket.ID),
				zap.Error(err))
			continue
		}
		if !recorded {
			continue
		}
		processed++
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketReminder,
			TicketID: ticket.ID,
			Payload: events.TicketReminderPayload{
				Status:     ticket.Status,
				Recipients: recipients,
			},
		}, now)
	}
	s.metrics.RecordSweep("reminders", processed)
	if processed > 0 {
		s.logger.Info("reminder scan done", zap.Int("reminded", processed))
	}
}

// autoCloseScan closes resolved tickets whose validation grace has expired.
func (s *Sweeper) autoCloseScan(ctx context.Context, now time.Time) {
	resolvedBefore := now.Add(-s.cfg.ValidationGrace)
	tickets, err := s.tickets.ListAutoCloseEligible(ctx, resolvedBefore, s.cfg.SweepBatchLimit)
	if err != nil {
		s.logger.Error("auto-close scan query failed", zap.Error(err))
		return
	}
	s.metrics.RecordSweep("auto_close", s.closeAll(ctx, tickets, "auto-close"))
}

// validatedFoldScan moves validated tickets to their terminal closed state.
func (s *Sweeper) validatedFoldScan(ctx context.Context) {
	tickets, err := s.tickets.ListValidatedUnclosed(ctx, s.cfg.SweepBatchLimit)
	if err != nil {
		s.logger.Error("validated fold scan query failed", zap.Error(err))
		return
	}
	s.metrics.RecordSweep("validated_fold", s.closeAll(ctx, tickets, "validated fold"))
}

func (s *Sweeper) closeAll(ctx context.Context, tickets []domain.Ticket, scan string) int {
	processed := 0
	for _, ticket := range tickets {
		if _, err := s.closer.AutoClose(ctx, ticket.ID); err != nil {
			// A lost version race means a human transition beat the
			// sweeper; the next run re-evaluates the ticket.
			if errors.Is(err, lifecycle.ErrConflict) {
				s.logger.Debug("ticket changed underneath sweep",
					zap.Int64("ticket_id", ticket.ID),
					zap.String("scan", scan))
				continue
			}
			s.logger.Error("sweep close failed",
				zap.Int64("ticket_id", ticket.ID),
				zap.String("scan", scan),
				zap.Error(err))
			continue
		}
		processed++
	}
	if processed > 0 {
		s.logger.Info("closure scan done",
			zap.String("scan", scan),
			zap.Int("closed", processed))
	}
	return processed
}

func (s *Sweeper) publishEvent(ctx context.Context, event events.Event, now time.Time) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = now
	event.Actor = events.Actor{System: true}
	_ = s.dispatcher.Publish(ctx, event)
}
