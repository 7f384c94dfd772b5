package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/shared"
)

// Repository persists stock transactions in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertTransaction(ctx context.Context, t StockTransaction) error
	GetProductStockForUpdate(ctx context.Context, productID string) (name string, stock int, err error)
	SetProductStock(ctx context.Context, productID string, stock int) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// List returns ledger rows matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]StockTransaction, error) {
	query := `SELECT id, type, product_id, product_name, quantity, occurred_at, reference, notes
		FROM stock_transactions WHERE 1=1`
	args := []any{}
	n := 0
	if filter.ProductID != "" {
		n++
		query += fmt.Sprintf(" AND product_id = $%d", n)
		args = append(args, filter.ProductID)
	}
	if filter.Type != "" {
		n++
		query += fmt.Sprintf(" AND type = $%d", n)
		args = append(args, string(filter.Type))
	}
	if !filter.From.IsZero() {
		n++
		query += fmt.Sprintf(" AND occurred_at >= $%d", n)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		n++
		query += fmt.Sprintf(" AND occurred_at <= $%d", n)
		args = append(args, filter.To)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	n++
	query += fmt.Sprintf(" ORDER BY occurred_at DESC, id DESC LIMIT $%d", n)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockTransaction
	for rows.Next() {
		var t StockTransaction
		if err := rows.Scan(&t.ID, &t.Type, &t.ProductID, &t.ProductName, &t.Quantity, &t.OccurredAt, &t.Reference, &t.Notes); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumDeltas returns the signed quantity sum for one product.
func (r *Repository) SumDeltas(ctx context.Context, productID string) (int, error) {
	var sum int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM stock_transactions WHERE product_id = $1`, productID).Scan(&sum)
	return sum, err
}

// ProductStockLevels returns current and initial stock for one product.
func (r *Repository) ProductStockLevels(ctx context.Context, productID string) (current, initial int, err error) {
	err = r.pool.QueryRow(ctx, `SELECT stock_quantity, initial_stock FROM products WHERE id = $1`, productID).Scan(&current, &initial)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, fmt.Errorf("ledger: product %s: %w", productID, shared.ErrNotFound)
	}
	return current, initial, err
}

func (r *txRepository) InsertTransaction(ctx context.Context, t StockTransaction) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_transactions (id, type, product_id, product_name, quantity, occurred_at, reference, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, string(t.Type), t.ProductID, t.ProductName, t.Quantity, t.OccurredAt, t.Reference, t.Notes)
	return err
}

func (r *txRepository) GetProductStockForUpdate(ctx context.Context, productID string) (string, int, error) {
	var name string
	var stock int
	err := r.tx.QueryRow(ctx, `SELECT name, stock_quantity FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, fmt.Errorf("ledger: product %s: %w", productID, shared.ErrNotFound)
	}
	return name, stock, err
}

func (r *txRepository) SetProductStock(ctx context.Context, productID string, stock int) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET stock_quantity = $2 WHERE id = $1`, productID, stock)
	return err
}
