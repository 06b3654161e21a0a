package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketHistoryRepository reads the append-only audit trail. Writes happen
// exclusively inside TicketRepository.ApplyTransition so the audit row can
// never be separated from its status change.
type TicketHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
	CreateInitial(ctx context.Context, ticketID int64, status domain.TicketStatus, actorUserID int64) error
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

// CreateInitial writes the creation entry, the only history row with a nil
// old_status.
func (r *ticketHistoryRepository) CreateInitial(ctx context.Context, ticketID int64, status domain.TicketStatus, actorUserID int64) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, old_status, new_status, actor_user_id, changed_at)
        VALUES ($1, NULL, $2, $3, NOW())`
	_, err := r.pool.Exec(ctx, query, ticketID, status, actorUserID)
	return err
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, old_status, new_status, actor_user_id, reason, changed_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY changed_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var entry domain.TicketHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.ActorUserID,
			&entry.Reason,
			&entry.ChangedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
