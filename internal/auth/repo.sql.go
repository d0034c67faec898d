package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads issued API tokens.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID loads one token row.
func (r *Repository) FindByID(ctx context.Context, id int64) (Token, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, secret_hash, planner_id, initials, is_active, created_at, last_used_at
FROM api_tokens WHERE id = $1`, id)
	var t Token
	if err := row.Scan(&t.ID, &t.SecretHash, &t.PlannerID, &t.Initials, &t.IsActive, &t.CreatedAt, &t.LastUsedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Token{}, ErrInvalidToken
		}
		return Token{}, err
	}
	return t, nil
}

// TouchLastUsed stamps the token's last use. Best effort only.
func (r *Repository) TouchLastUsed(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}
