package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ReferenceRepository reads the configurable value sets behind the ticket
// enums. Only stable codes reach the lifecycle engine.
type ReferenceRepository interface {
	ListTicketTypes(ctx context.Context) ([]domain.TicketTypeConfig, error)
	ListCategories(ctx context.Context) ([]domain.TicketCategoryConfig, error)
	ListPriorities(ctx context.Context) ([]domain.PriorityConfig, error)
}

type referenceRepository struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository constructs repository.
func NewReferenceRepository(pool *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{pool: pool}
}

func (r *referenceRepository) ListTicketTypes(ctx context.Context) ([]domain.TicketTypeConfig, error) {
	const query = `SELECT id, code, label, is_active FROM ticket_types WHERE is_active=TRUE ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketTypeConfig
	for rows.Next() {
		var t domain.TicketTypeConfig
		if err := rows.Scan(&t.ID, &t.Code, &t.Label, &t.IsActive); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *referenceRepository) ListCategories(ctx context.Context) ([]domain.TicketCategoryConfig, error) {
	const query = `
        SELECT c.id, c.name, t.code, c.is_active
        FROM ticket_categories c JOIN ticket_types t ON t.id = c.ticket_type_id
        WHERE c.is_active=TRUE ORDER BY c.id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketCategoryConfig
	for rows.Next() {
		var c domain.TicketCategoryConfig
		if err := rows.Scan(&c.ID, &c.Name, &c.TypeCode, &c.IsActive); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *referenceRepository) ListPriorities(ctx context.Context) ([]domain.PriorityConfig, error) {
	const query = `SELECT id, code, label, display_order, is_active FROM priorities WHERE is_active=TRUE ORDER BY display_order, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PriorityConfig
	for rows.Next() {
		var p domain.PriorityConfig
		if err := rows.Scan(&p.ID, &p.Code, &p.Label, &p.DisplayOrder, &p.IsActive); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
