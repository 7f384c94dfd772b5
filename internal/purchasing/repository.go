package purchasing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/shared"
)

// Repository persists purchase entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service. Recording a
// purchase touches three tables (purchase entries, products, the stock
// ledger); keeping them behind one tx wrapper makes the commit atomic.
type TxRepository interface {
	InsertPurchase(ctx context.Context, entry PurchaseEntry) error
	GetProductForUpdate(ctx context.Context, id string) (name string, stock int, err error)
	SetProductStock(ctx context.Context, id string, stock int) error
	InsertLedgerEntry(ctx context.Context, t ledger.StockTransaction) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("purchasing repository not initialised")
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

// Get fetches one purchase entry with its items.
func (r *Repository) Get(ctx context.Context, id string) (PurchaseEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, supplier_id, supplier_name, invoice_no, date, total_amount FROM purchase_entries WHERE id = $1`, id)
	var e PurchaseEntry
	err := row.Scan(&e.ID, &e.SupplierID, &e.SupplierName, &e.InvoiceNo, &e.Date, &e.TotalAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseEntry{}, fmt.Errorf("purchasing: entry %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return PurchaseEntry{}, err
	}
	items, err := r.items(ctx, id)
	if err != nil {
		return PurchaseEntry{}, err
	}
	e.Items = items
	return e, nil
}

// List returns purchase entries newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]PurchaseEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, supplier_id, supplier_name, invoice_no, date, total_amount
		FROM purchase_entries ORDER BY date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PurchaseEntry
	for rows.Next() {
		var e PurchaseEntry
		if err := rows.Scan(&e.ID, &e.SupplierID, &e.SupplierName, &e.InvoiceNo, &e.Date, &e.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.items(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *Repository) items(ctx context.Context, entryID string) ([]PurchaseItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, product_name, quantity, purchase_price, batch_no, expiry_date
		FROM purchase_items WHERE entry_id = $1 ORDER BY line_no`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PurchaseItem
	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.PurchasePrice, &it.BatchNo, &it.ExpiryDate); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *txRepository) InsertPurchase(ctx context.Context, entry PurchaseEntry) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO purchase_entries (id, supplier_id, supplier_name, invoice_no, date, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		entry.ID, entry.SupplierID, entry.SupplierName, entry.InvoiceNo, entry.Date, entry.TotalAmount)
	if err != nil {
		return err
	}
	for i, it := range entry.Items {
		_, err := r.tx.Exec(ctx, `INSERT INTO purchase_items (entry_id, line_no, product_id, product_name, quantity, purchase_price, batch_no, expiry_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			entry.ID, i+1, it.ProductID, it.ProductName, it.Quantity, it.PurchasePrice, it.BatchNo, it.ExpiryDate)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id string) (string, int, error) {
	var name string
	var stock int
	err := r.tx.QueryRow(ctx, `SELECT name, stock_quantity FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, fmt.Errorf("purchasing: product %s: %w", id, shared.ErrNotFound)
	}
	return name, stock, err
}

func (r *txRepository) SetProductStock(ctx context.Context, id string, stock int) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET stock_quantity = $2 WHERE id = $1`, id, stock)
	return err
}

func (r *txRepository) InsertLedgerEntry(ctx context.Context, t ledger.StockTransaction) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_transactions (id, type, product_id, product_name, quantity, occurred_at, reference, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, string(t.Type), t.ProductID, t.ProductName, t.Quantity, t.OccurredAt, t.Reference, t.Notes)
	return err
}
