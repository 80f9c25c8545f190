package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SuggestionRepository stores improvement suggestions and their workflow state.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *domain.Suggestion) error
	Update(ctx context.Context, suggestion *domain.Suggestion) error
	GetByID(ctx context.Context, id string) (*domain.Suggestion, error)
	List(ctx context.Context) ([]domain.Suggestion, error)
}

type suggestionRepository struct {
	pool *pgxpool.Pool
}

// NewSuggestionRepository instantiates repository.
func NewSuggestionRepository(pool *pgxpool.Pool) SuggestionRepository {
	return &suggestionRepository{pool: pool}
}

func (r *suggestionRepository) Create(ctx context.Context, suggestion *domain.Suggestion) error {
	const query = `
        INSERT INTO suggestions (content, status, author_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		suggestion.Content,
		suggestion.Status,
		suggestion.AuthorID,
	).Scan(&suggestion.ID, &suggestion.CreatedAt, &suggestion.UpdatedAt)
}

func (r *suggestionRepository) Update(ctx context.Context, suggestion *domain.Suggestion) error {
	const query = `
        UPDATE suggestions SET content=$1, status=$2, developer_id=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		suggestion.Content,
		suggestion.Status,
		suggestion.DeveloperID,
		suggestion.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *suggestionRepository) GetByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	const query = `
        SELECT id, content, status, author_id, developer_id, created_at, updated_at
        FROM suggestions WHERE id=$1`
	var suggestion domain.Suggestion
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&suggestion.ID,
		&suggestion.Content,
		&suggestion.Status,
		&suggestion.AuthorID,
		&suggestion.DeveloperID,
		&suggestion.CreatedAt,
		&suggestion.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &suggestion, nil
}

func (r *suggestionRepository) List(ctx context.Context) ([]domain.Suggestion, error) {
	const query = `
        SELECT id, content, status, author_id, developer_id, created_at, updated_at
        FROM suggestions ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Suggestion
	for rows.Next() {
		var suggestion domain.Suggestion
		if err := rows.Scan(
			&suggestion.ID,
			&suggestion.Content,
			&suggestion.Status,
			&suggestion.AuthorID,
			&suggestion.DeveloperID,
			&suggestion.CreatedAt,
			&suggestion.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, suggestion)
	}
	return result, rows.Err()
}
