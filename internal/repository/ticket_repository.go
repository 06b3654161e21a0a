package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
)

const ticketColumns = `id, number, title, description, type, category, status, priority,
               creator_id, technician_id, secretary_id, resolution_summary, reopen_count,
               version, created_at, assigned_at, resolved_at, closed_at, last_reminder_at`

// TicketRepository encapsulates ticket persistence. It is the single writer
// of status and the dependent timestamp fields: ApplyTransition commits the
// status mutation, the history row and the notification rows in one
// transaction, guarded by the optimistic version token.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	LoadForTransition(ctx context.Context, id int64) (*domain.Ticket, error)
	ApplyTransition(ctx context.Context, ticket *domain.Ticket, decision *lifecycle.Decision) error
	ListByCreator(ctx context.Context, creatorID int64, limit, offset int) ([]domain.Ticket, error)
	ListByTechnician(ctx context.Context, technicianID int64, limit, offset int) ([]domain.Ticket, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Ticket, error)
	ListAutoCloseEligible(ctx context.Context, resolvedBefore time.Time, limit int) ([]domain.Ticket, error)
	ListValidatedUnclosed(ctx context.Context, limit int) ([]domain.Ticket, error)
	ListReminderEligible(ctx context.Context, staleBefore, windowStart time.Time, limit int) ([]domain.Ticket, error)
	RecordReminder(ctx context.Context, ticketID int64, windowStart time.Time, drafts []lifecycle.NotificationDraft, now time.Time) (bool, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, title, description, type, category, status, creator_id)
        VALUES (nextval('ticket_number_seq'),$1,$2,$3,$4,$5,$6)
        RETURNING id, number, version, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Type,
		ticket.Category,
		ticket.Status,
		ticket.CreatorID,
	).Scan(&ticket.ID, &ticket.Number, &ticket.Version, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// LoadForTransition returns the ticket snapshot whose Version field is the
// token ApplyTransition later checks.
func (r *ticketRepository) LoadForTransition(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

// ApplyTransition applies an engine decision under one transaction. The
// version check serializes competing transitions on the same row: the loser
// gets lifecycle.ErrConflict and nothing is written. Timestamps already
// stamped are never touched.
func (r *ticketRepository) ApplyTransition(ctx context.Context, ticket *domain.Ticket, decision *lifecycle.Decision) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", lifecycle.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE tickets SET
            status=$1,
            technician_id=CASE WHEN $13 THEN NULL ELSE COALESCE($2, technician_id) END,
            secretary_id=COALESCE($3, secretary_id),
            priority=COALESCE($4, priority),
            resolution_summary=COALESCE($5, resolution_summary),
            assigned_at=CASE WHEN $6 THEN $7 ELSE assigned_at END,
            resolved_at=CASE WHEN $8 THEN $7 ELSE resolved_at END,
            closed_at=CASE WHEN $9 THEN $7 ELSE closed_at END,
            reopen_count=reopen_count + CASE WHEN $10 THEN 1 ELSE 0 END,
            version=version+1
        WHERE id=$11 AND version=$12`
	cmd, err := tx.Exec(ctx, update,
		decision.NewStatus,
		decision.TechnicianID,
		decision.SecretaryID,
		decision.Priority,
		decision.ResolutionSummary,
		decision.SetAssignedAt,
		decision.History.ChangedAt,
		decision.SetResolvedAt,
		decision.SetClosedAt,
		decision.IncrementReopen,
		ticket.ID,
		ticket.Version,
		decision.ClearTechnician,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", lifecycle.ErrStorageUnavailable, err)
	}
	if cmd.RowsAffected() == 0 {
		return lifecycle.ErrConflict
	}

	const insertHistory = `
        INSERT INTO ticket_history (ticket_id, old_status, new_status, actor_user_id, reason, changed_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	entry := decision.History
	if err := tx.QueryRow(ctx, insertHistory,
		entry.TicketID,
		entry.OldStatus,
		entry.NewStatus,
		entry.ActorUserID,
		entry.Reason,
		entry.ChangedAt,
	).Scan(&decision.History.ID); err != nil {
		return fmt.Errorf("%w: %v", lifecycle.ErrStorageUnavailable, err)
	}

	const insertNotification = `
        INSERT INTO notifications (user_id, type, ticket_id, message, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	for _, draft := range decision.Notifications {
		if _, err := tx.Exec(ctx, insertNotification,
			draft.UserID,
			draft.Type,
			ticket.ID,
			draft.Message,
			entry.ChangedAt,
		); err != nil {
			return fmt.Errorf("%w: %v", lifecycle.ErrStorageUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", lifecycle.ErrStorageUnavailable, err)
	}

	applyDecisionLocally(ticket, decision)
	return nil
}

// applyDecisionLocally mirrors the committed row back onto the snapshot so
// callers can return the updated ticket without a reload.
func applyDecisionLocally(ticket *domain.Ticket, decision *lifecycle.Decision) {
	ticket.Status = decision.NewStatus
	if decision.ClearTechnician {
		ticket.TechnicianID = nil
	} else if decision.TechnicianID != nil {
		ticket.TechnicianID = decision.TechnicianID
	}
	if decision.SecretaryID != nil {
		ticket.SecretaryID = decision.SecretaryID
	}
	if decision.Priority != nil {
		ticket.Priority = decision.Priority
	}
	if decision.ResolutionSummary != nil {
		ticket.ResolutionSummary = decision.ResolutionSummary
	}
	stamp := decision.History.ChangedAt
	if decision.SetAssignedAt {
		ticket.AssignedAt = &stamp
	}
	if decision.SetResolvedAt {
		ticket.ResolvedAt = &stamp
	}
	if decision.SetClosedAt {
		ticket.ClosedAt = &stamp
	}
	if decision.IncrementReopen {
		ticket.ReopenCount++
	}
	ticket.Version++
}

func (r *ticketRepository) ListByCreator(ctx context.Context, creatorID int64, limit, offset int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE creator_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.fetchList(ctx, query, creatorID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *ticketRepository) ListByTechnician(ctx context.Context, technicianID int64, limit, offset int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE technician_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.fetchList(ctx, query, technicianID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *ticketRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.fetchList(ctx, query, normalizeLimit(limit), normalizeOffset(offset))
}

// ListAutoCloseEligible returns RESOLVED tickets whose resolution is older
// than the validation grace period.
func (r *ticketRepository) ListAutoCloseEligible(ctx context.Context, resolvedBefore time.Time, limit int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
             WHERE status=$1 AND resolved_at IS NOT NULL AND resolved_at <= $2
             ORDER BY resolved_at ASC LIMIT $3`
	return r.fetchList(ctx, query, domain.TicketStatusResolved, resolvedBefore, normalizeLimit(limit))
}

// ListValidatedUnclosed returns VALIDATED tickets awaiting the fold into
// CLOSED.
func (r *ticketRepository) ListValidatedUnclosed(ctx context.Context, limit int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
             WHERE status=$1 ORDER BY closed_at ASC LIMIT $2`
	return r.fetchList(ctx, query, domain.TicketStatusValidated, normalizeLimit(limit))
}

// ListReminderEligible returns open tickets stale since staleBefore that have
// not been reminded within the current window. Eligibility derives purely
// from ticket timestamps, so a second pass in the same window finds nothing.
func (r *ticketRepository) ListReminderEligible(ctx context.Context, staleBefore, windowStart time.Time, limit int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
             WHERE status = ANY($1)
               AND COALESCE(assigned_at, created_at) <= $2
               AND (last_reminder_at IS NULL OR last_reminder_at < $3)
             ORDER BY COALESCE(assigned_at, created_at) ASC LIMIT $4`
	openStatuses := []domain.TicketStatus{
		domain.TicketStatusCreated,
		domain.TicketStatusAssignedTechnician,
		domain.TicketStatusInProgress,
		domain.TicketStatusDelegated,
		domain.TicketStatusRejected,
	}
	return r.fetchList(ctx, query, openStatuses, staleBefore, windowStart, normalizeLimit(limit))
}

// RecordReminder stamps last_reminder_at and writes the reminder
// notifications in one transaction. The window guard in the UPDATE makes the
// operation idempotent: a concurrent or repeated sweep affects zero rows and
// writes nothing. Reminders are not transitions, so the version token is
// left alone.
func (r *ticketRepository) RecordReminder(ctx context.Context, ticketID int64, windowStart time.Time, drafts []lifecycle.NotificationDraft, now time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", lifecycle.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE tickets SET last_reminder_at=$1
        WHERE id=$2 AND (last_reminder_at IS NULL OR last_reminder_at < $3)`
	cmd, err := tx.Exec(ctx, update, now, ticketID, windowStart)
	if err != nil {
		return false, fmt.Errorf("%w: %v", lifecycle.ErrStorageUnavailable, err)
	}
	if cmd.RowsAffected() == 0 {
		return false, nil
	}

	const insertNotification = `
        INSERT INTO notifications (user_id, type, ticket_id, message, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	for _, draft := range drafts {
		if _, err := tx.Exec(ctx, insertNotification,
			draft.UserID,
			draft.Type,
			ticketID,
			draft.Message,
			now,
		); err != nil {
			return false, fmt.Errorf("%w: %v", lifecycle.ErrStorageUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", lifecycle.ErrStorageUnavailable, err)
	}
	return true, nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) fetchList(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.Number,
		&t.Title,
		&t.Description,
		&t.Type,
		&t.Category,
		&t.Status,
		&t.Priority,
		&t.CreatorID,
		&t.TechnicianID,
		&t.SecretaryID,
		&t.ResolutionSummary,
		&t.ReopenCount,
		&t.Version,
		&t.CreatedAt,
		&t.AssignedAt,
		&t.ResolvedAt,
		&t.ClosedAt,
		&t.LastReminderAt,
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
