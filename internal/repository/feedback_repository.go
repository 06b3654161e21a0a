package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// FeedbackRepository stores post-closure satisfaction feedback, one row per
// ticket.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.TicketFeedback) error
	GetByTicket(ctx context.Context, ticketID int64) (*domain.TicketFeedback, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository constructs repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.TicketFeedback) error {
	const query = `
        INSERT INTO ticket_feedback (ticket_id, user_id, score, comment)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		feedback.TicketID,
		feedback.UserID,
		feedback.Score,
		feedback.Comment,
	).Scan(&feedback.ID, &feedback.CreatedAt)
}

func (r *feedbackRepository) GetByTicket(ctx context.Context, ticketID int64) (*domain.TicketFeedback, error) {
	const query = `
        SELECT id, ticket_id, user_id, score, comment, created_at
        FROM ticket_feedback WHERE ticket_id=$1`
	var feedback domain.TicketFeedback
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&feedback.ID,
		&feedback.TicketID,
		&feedback.UserID,
		&feedback.Score,
		&feedback.Comment,
		&feedback.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &feedback, nil
}
