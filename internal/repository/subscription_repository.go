package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SubscriptionRepository stores ticket and project subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	Delete(ctx context.Context, id string) error
	FindByUserAndTicket(ctx context.Context, userID, ticketID string) (*domain.Subscription, error)
	FindByUserAndProject(ctx context.Context, userID, projectID string) (*domain.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error)
	SubscriberIDsForTicket(ctx context.Context, ticketID string) ([]string, error)
	SubscriberIDsForProject(ctx context.Context, projectID string) ([]string, error)
	DeleteByProject(ctx context.Context, projectID string) error
}

type subscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository instantiates repository.
func NewSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepository{pool: pool}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	const query = `
        INSERT INTO subscriptions (user_id, project_id, ticket_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, sub.UserID, sub.ProjectID, sub.TicketID).
		Scan(&sub.ID, &sub.CreatedAt)
}

func (r *subscriptionRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *subscriptionRepository) FindByUserAndTicket(ctx context.Context, userID, ticketID string) (*domain.Subscription, error) {
	const query = `
        SELECT id, user_id, project_id, ticket_id, created_at
        FROM subscriptions WHERE user_id=$1 AND ticket_id=$2`
	return r.fetchSingle(ctx, query, userID, ticketID)
}

func (r *subscriptionRepository) FindByUserAndProject(ctx context.Context, userID, projectID string) (*domain.Subscription, error) {
	const query = `
        SELECT id, user_id, project_id, ticket_id, created_at
        FROM subscriptions WHERE user_id=$1 AND project_id=$2`
	return r.fetchSingle(ctx, query, userID, projectID)
}

func (r *subscriptionRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.ProjectID,
		&sub.TicketID,
		&sub.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	const query = `
        SELECT id, user_id, project_id, ticket_id, created_at
        FROM subscriptions WHERE user_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.ProjectID, &sub.TicketID, &sub.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func (r *subscriptionRepository) SubscriberIDsForTicket(ctx context.Context, ticketID string) ([]string, error) {
	return r.subscriberIDs(ctx, `SELECT user_id FROM subscriptions WHERE ticket_id=$1`, ticketID)
}

func (r *subscriptionRepository) SubscriberIDsForProject(ctx context.Context, projectID string) ([]string, error) {
	return r.subscriberIDs(ctx, `SELECT user_id FROM subscriptions WHERE project_id=$1`, projectID)
}

func (r *subscriptionRepository) subscriberIDs(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *subscriptionRepository) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE project_id=$1`, projectID)
	return err
}
