package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/shared"
)

// Repository persists staff accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new staff account.
func (r *Repository) Insert(ctx context.Context, s Staff) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO staff (id, username, name, role, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.Username, s.Name, s.Role, s.PasswordHash, s.CreatedAt)
	return err
}

// GetByUsername fetches one staff account.
func (r *Repository) GetByUsername(ctx context.Context, username string) (Staff, error) {
	var s Staff
	err := r.pool.QueryRow(ctx, `SELECT id, username, name, role, password_hash, created_at
		FROM staff WHERE username = $1`, username).
		Scan(&s.ID, &s.Username, &s.Name, &s.Role, &s.PasswordHash, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, fmt.Errorf("auth: staff %s: %w", username, shared.ErrNotFound)
	}
	return s, err
}
