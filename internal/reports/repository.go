package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/billing"
)

// Repository reads aggregate figures straight from SQL. Reports never
// mutate, so there is no tx wrapper here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SalesOn aggregates the bills of one day.
func (r *Repository) SalesOn(ctx context.Context, day time.Time) (DailySummary, error) {
	var s DailySummary
	s.Date = day
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*),
			COALESCE(SUM(subtotal), 0), COALESCE(SUM(discount_amount), 0),
			COALESCE(SUM(gst_amount), 0), COALESCE(SUM(return_amount), 0), COALESCE(SUM(total), 0)
		FROM bills
		WHERE date::date = $1::date AND bill_no NOT LIKE $2 AND bill_no NOT LIKE $3`,
		day, billing.SupplierReturnPrefix+"%", billing.CustomerReturnPrefix+"%").
		Scan(&s.BillCount, &s.GrossSales, &s.Discounts, &s.GST, &s.Returns, &s.NetSales)
	return s, err
}

// TopProductsOn lists the day's best sellers by quantity.
func (r *Repository) TopProductsOn(ctx context.Context, day time.Time, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `SELECT i.product_id, i.product_name, SUM(i.quantity), SUM(i.line_total)
		FROM bill_items i
		JOIN bills b ON b.id = i.bill_id
		WHERE i.kind = 'sale' AND b.date::date = $1::date
			AND b.bill_no NOT LIKE $2 AND b.bill_no NOT LIKE $3
		GROUP BY i.product_id, i.product_name
		ORDER BY SUM(i.quantity) DESC LIMIT $4`,
		day, billing.SupplierReturnPrefix+"%", billing.CustomerReturnPrefix+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductSales
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &p.Amount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StockLines joins every product with its ledger delta.
func (r *Repository) StockLines(ctx context.Context) ([]StockLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, p.stock_quantity, p.initial_stock,
			COALESCE(SUM(t.quantity), 0)
		FROM products p
		LEFT JOIN stock_transactions t ON t.product_id = p.id
		GROUP BY p.id, p.name, p.stock_quantity, p.initial_stock
		ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockLine
	for rows.Next() {
		var l StockLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.CurrentStock, &l.InitialStock, &l.LedgerDelta); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
