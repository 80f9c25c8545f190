package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// HistoryRepository is the append-only change log per ticket.
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.ChangeHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ChangeHistory, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository instantiates repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Create(ctx context.Context, entry *domain.ChangeHistory) error {
	const query = `
        INSERT INTO change_history (ticket_id, change_date, new_status, details, changed_by_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.ChangeDate,
		entry.NewStatus,
		entry.Details,
		entry.ChangedByID,
	).Scan(&entry.ID)
}

func (r *historyRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ChangeHistory, error) {
	const query = `
        SELECT id, ticket_id, change_date, new_status, details, changed_by_id
        FROM change_history WHERE ticket_id=$1 ORDER BY change_date ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChangeHistory
	for rows.Next() {
		var entry domain.ChangeHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ChangeDate,
			&entry.NewStatus,
			&entry.Details,
			&entry.ChangedByID,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
