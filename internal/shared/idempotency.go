package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict reports a request key that already went through a
// commit.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

const pgUniqueViolation = "23505"

// IdempotencyStore records request keys in the idempotency_keys table. A key
// is claimed before its commit runs and released when the commit fails, so a
// retry with the same key either conflicts or starts clean. Stale keys age
// out through Cleanup on the worker schedule.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// CheckAndInsert claims key on behalf of module. Claiming a key twice
// returns ErrIdempotencyConflict.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("shared: idempotency store not initialised")
	}
	if key == "" || module == "" {
		return errors.New("shared: idempotency key and module required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, NOW())`,
		key, module)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrIdempotencyConflict
	}
	return err
}

// Delete releases a claimed key so the caller may retry after a failed
// commit.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil || key == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key)
	return err
}

// Cleanup drops keys older than the retention window.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`,
		time.Now().Add(-olderThan))
	return err
}
