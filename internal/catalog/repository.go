package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/shared"
)

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	GetProductForUpdate(ctx context.Context, id string) (Product, error)
	CountBillReferences(ctx context.Context, productID string) (int, error)
	DeleteProduct(ctx context.Context, id string) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("catalog repository not initialised")
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

const productColumns = `id, name, brand, category, barcode, hsn_code, batch_no, expiry_date,
	mrp, purchase_price, selling_price, stock_quantity, min_stock_level, added_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.Barcode, &p.HSNCode, &p.BatchNo,
		&p.ExpiryDate, &p.MRP, &p.PurchasePrice, &p.SellingPrice, &p.StockQuantity, &p.MinStockLevel, &p.AddedAt)
	return p, err
}

// Get fetches one product.
func (r *Repository) Get(ctx context.Context, id string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
	}
	return p, err
}

// List returns the whole catalog ordered by name.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListLowStock returns products at or below their minimum stock level.
func (r *Repository) ListLowStock(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE stock_quantity <= min_stock_level ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListExpiring returns products whose expiry date falls inside [now, until].
func (r *Repository) ListExpiring(ctx context.Context, now, until time.Time) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products
		WHERE expiry_date IS NOT NULL AND expiry_date >= $1 AND expiry_date <= $2
		ORDER BY expiry_date`, now, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *txRepository) InsertProduct(ctx context.Context, p Product) error {
	// initial_stock freezes the opening quantity so ledger reconciliation
	// has a fixed point of reference.
	_, err := r.tx.Exec(ctx, `INSERT INTO products
		(id, name, brand, category, barcode, hsn_code, batch_no, expiry_date, mrp, purchase_price, selling_price, stock_quantity, initial_stock, min_stock_level, added_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12,$13,$14)`,
		p.ID, p.Name, p.Brand, p.Category, p.Barcode, p.HSNCode, p.BatchNo, p.ExpiryDate,
		p.MRP, p.PurchasePrice, p.SellingPrice, p.StockQuantity, p.MinStockLevel, p.AddedAt)
	return err
}

func (r *txRepository) UpdateProduct(ctx context.Context, p Product) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET
		name=$2, brand=$3, category=$4, barcode=$5, hsn_code=$6, batch_no=$7, expiry_date=$8,
		mrp=$9, purchase_price=$10, selling_price=$11, stock_quantity=$12, min_stock_level=$13
		WHERE id=$1`,
		p.ID, p.Name, p.Brand, p.Category, p.Barcode, p.HSNCode, p.BatchNo, p.ExpiryDate,
		p.MRP, p.PurchasePrice, p.SellingPrice, p.StockQuantity, p.MinStockLevel)
	return err
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id string) (Product, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
	}
	return p, err
}

func (r *txRepository) CountBillReferences(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(1) FROM bill_items WHERE product_id = $1`, productID).Scan(&n)
	return n, err
}

func (r *txRepository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
