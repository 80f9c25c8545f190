package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventLogRepository is the global audit trail.
type EventLogRepository interface {
	Create(ctx context.Context, entry *domain.EventLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.EventLog, error)
}

type eventLogRepository struct {
	pool *pgxpool.Pool
}

// NewEventLogRepository instantiates repository.
func NewEventLogRepository(pool *pgxpool.Pool) EventLogRepository {
	return &eventLogRepository{pool: pool}
}

func (r *eventLogRepository) Create(ctx context.Context, entry *domain.EventLog) error {
	const query = `
        INSERT INTO event_logs (action, user_id, details)
        VALUES ($1,$2,$3)
        RETURNING id, timestamp`
	return r.pool.QueryRow(ctx, query, entry.Action, entry.UserID, entry.Details).
		Scan(&entry.ID, &entry.Timestamp)
}

func (r *eventLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.EventLog, error) {
	const query = `
        SELECT id, action, user_id, details, timestamp
        FROM event_logs ORDER BY timestamp DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EventLog
	for rows.Next() {
		var entry domain.EventLog
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.UserID, &entry.Details, &entry.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
