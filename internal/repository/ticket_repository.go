package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter narrows ticket listings. Zero values mean no constraint.
type TicketFilter struct {
	ProjectIDs []string
	Status     domain.TicketStatus
	Priority   domain.TicketPriority
	TypeID     string
	CreatorID  string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListUnresolved(ctx context.Context) ([]domain.Ticket, error)
	DeleteByProject(ctx context.Context, projectID string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `
        id, title, description, status, priority, creator_id, project_id, type_id,
        resolution, resolved_by_id, resolved_at,
        reopen_reason, reopened_by_id, reopened_at,
        satisfaction, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, creator_id, project_id, type_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CreatorID,
		ticket.ProjectID,
		ticket.TypeID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET
            title=$1, description=$2, status=$3, priority=$4,
            resolution=$5, resolved_by_id=$6, resolved_at=$7,
            reopen_reason=$8, reopened_by_id=$9, reopened_at=$10,
            satisfaction=$11, updated_at=NOW()
        WHERE id=$12`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Resolution,
		ticket.ResolvedByID,
		ticket.ResolvedAt,
		ticket.ReopenReason,
		ticket.ReopenedByID,
		ticket.ReopenedAt,
		ticket.Satisfaction,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	var conditions []string
	var args []any
	idx := 1

	if len(filter.ProjectIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("project_id = ANY($%d)", idx))
		args = append(args, filter.ProjectIDs)
		idx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", idx))
		args = append(args, filter.Priority)
		idx++
	}
	if filter.TypeID != "" {
		conditions = append(conditions, fmt.Sprintf("type_id = $%d", idx))
		args = append(args, filter.TypeID)
		idx++
	}
	if filter.CreatorID != "" {
		conditions = append(conditions, fmt.Sprintf("creator_id = $%d", idx))
		args = append(args, filter.CreatorID)
		idx++
	}

	query := `SELECT` + ticketColumns + ` FROM tickets`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListUnresolved(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT` + ticketColumns + ` FROM tickets WHERE status <> $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE project_id=$1`, projectID)
	return err
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.CreatorID,
		&t.ProjectID,
		&t.TypeID,
		&t.Resolution,
		&t.ResolvedByID,
		&t.ResolvedAt,
		&t.ReopenReason,
		&t.ReopenedByID,
		&t.ReopenedAt,
		&t.Satisfaction,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
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
