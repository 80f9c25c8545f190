package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SlaPolicyRepository stores response and resolution budgets per ticket
// type and priority.
type SlaPolicyRepository interface {
	Create(ctx context.Context, policy *domain.SlaPolicy) error
	Update(ctx context.Context, policy *domain.SlaPolicy) error
	Delete(ctx context.Context, id string) error
	GetByTypeAndPriority(ctx context.Context, typeID string, priority domain.TicketPriority) (*domain.SlaPolicy, error)
	List(ctx context.Context) ([]domain.SlaPolicy, error)
}

type slaPolicyRepository struct {
	pool *pgxpool.Pool
}

// NewSlaPolicyRepository instantiates repository.
func NewSlaPolicyRepository(pool *pgxpool.Pool) SlaPolicyRepository {
	return &slaPolicyRepository{pool: pool}
}

func (r *slaPolicyRepository) Create(ctx context.Context, policy *domain.SlaPolicy) error {
	const query = `
        INSERT INTO sla_policies (ticket_type_id, priority, response_time, resolution_time)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		policy.TicketTypeID,
		policy.Priority,
		policy.ResponseTime,
		policy.ResolutionTime,
	).Scan(&policy.ID)
}

func (r *slaPolicyRepository) Update(ctx context.Context, policy *domain.SlaPolicy) error {
	const query = `
        UPDATE sla_policies SET ticket_type_id=$1, priority=$2, response_time=$3, resolution_time=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		policy.TicketTypeID,
		policy.Priority,
		policy.ResponseTime,
		policy.ResolutionTime,
		policy.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slaPolicyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sla_policies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slaPolicyRepository) GetByTypeAndPriority(ctx context.Context, typeID string, priority domain.TicketPriority) (*domain.SlaPolicy, error) {
	const query = `
        SELECT id, ticket_type_id, priority, response_time, resolution_time
        FROM sla_policies WHERE ticket_type_id=$1 AND priority=$2`
	var policy domain.SlaPolicy
	err := r.pool.QueryRow(ctx, query, typeID, priority).Scan(
		&policy.ID,
		&policy.TicketTypeID,
		&policy.Priority,
		&policy.ResponseTime,
		&policy.ResolutionTime,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *slaPolicyRepository) List(ctx context.Context) ([]domain.SlaPolicy, error) {
	const query = `
        SELECT id, ticket_type_id, priority, response_time, resolution_time
        FROM sla_policies ORDER BY ticket_type_id, priority`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SlaPolicy
	for rows.Next() {
		var policy domain.SlaPolicy
		if err := rows.Scan(
			&policy.ID,
			&policy.TicketTypeID,
			&policy.Priority,
			&policy.ResponseTime,
			&policy.ResolutionTime,
		); err != nil {
			return nil, err
		}
		result = append(result, policy)
	}
	return result, rows.Err()
}

// SlaBreachRepository records detected breaches. The (ticket, kind) pair
// is unique so an evaluator rescan never records the same breach twice.
type SlaBreachRepository interface {
	Create(ctx context.Context, breach *domain.SlaBreach) error
	Exists(ctx context.Context, ticketID string, kind domain.BreachKind) (bool, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.SlaBreach, error)
	Count(ctx context.Context) (int, error)
}

type slaBreachRepository struct {
	pool *pgxpool.Pool
}

// NewSlaBreachRepository instantiates repository.
func NewSlaBreachRepository(pool *pgxpool.Pool) SlaBreachRepository {
	return &slaBreachRepository{pool: pool}
}

func (r *slaBreachRepository) Create(ctx context.Context, breach *domain.SlaBreach) error {
	const query = `
        INSERT INTO sla_breaches (ticket_id, kind, elapsed_min, budget_min, recorded_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		breach.TicketID,
		breach.Kind,
		breach.ElapsedMin,
		breach.BudgetMin,
		breach.RecordedAt,
	).Scan(&breach.ID)
}

func (r *slaBreachRepository) Exists(ctx context.Context, ticketID string, kind domain.BreachKind) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM sla_breaches WHERE ticket_id=$1 AND kind=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ticketID, kind).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *slaBreachRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.SlaBreach, error) {
	const query = `
        SELECT id, ticket_id, kind, elapsed_min, budget_min, recorded_at
        FROM sla_breaches WHERE ticket_id=$1 ORDER BY recorded_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SlaBreach
	for rows.Next() {
		var breach domain.SlaBreach
		if err := rows.Scan(
			&breach.ID,
			&breach.TicketID,
			&breach.Kind,
			&breach.ElapsedMin,
			&breach.BudgetMin,
			&breach.RecordedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, breach)
	}
	return result, rows.Err()
}

func (r *slaBreachRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sla_breaches`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
