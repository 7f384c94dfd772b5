package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/shared"
)

const lineKindSale = "sale"
const lineKindReturn = "return"

// Repository persists bills in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository spans every table a bill commit touches. Products, the stock
// ledger and the customer's running total move in the same transaction as
// the bill row itself.
type TxRepository interface {
	InsertBill(ctx context.Context, bill Bill) error
	GetBillForUpdate(ctx context.Context, id string) (Bill, error)
	UpdateBill(ctx context.Context, bill Bill) error
	CountBillsOn(ctx context.Context, day time.Time) (int, error)
	GetProductForUpdate(ctx context.Context, id string) (ProductState, error)
	SetProductStock(ctx context.Context, id string, stock int) error
	InsertLedgerEntry(ctx context.Context, t ledger.StockTransaction) error
	GetCustomerForUpdate(ctx context.Context, id string) (name, phone string, total float64, err error)
	SetCustomerTotal(ctx context.Context, id string, total float64) error
}

// ProductState is the locked catalog row a commit reads before mutating
// stock.
type ProductState struct {
	Name     string
	BatchNo  string
	Price    float64
	MRP      float64
	Stock    int
	MinStock int
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("billing repository not initialised")
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

const billColumns = `id, bill_no, customer_id, customer_name, customer_phone, date,
	subtotal, discount_pct, discount_amount, gst_pct, gst_amount, return_amount, total,
	paid_amount, change_amount, payment_mode, staff_id, staff_name`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.BillNo, &b.CustomerID, &b.CustomerName, &b.CustomerPhone, &b.Date,
		&b.Subtotal, &b.DiscountPct, &b.DiscountAmount, &b.GSTPct, &b.GSTAmount, &b.ReturnAmount, &b.Total,
		&b.PaidAmount, &b.ChangeAmount, &b.PaymentMode, &b.StaffID, &b.StaffName)
	return b, err
}

// Get fetches one bill with its lines.
func (r *Repository) Get(ctx context.Context, id string) (Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, fmt.Errorf("billing: bill %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Bill{}, err
	}
	return r.withLines(ctx, b)
}

// GetByNumber fetches one bill by its bill number.
func (r *Repository) GetByNumber(ctx context.Context, no string) (Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE bill_no = $1`, no))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, fmt.Errorf("billing: bill %s: %w", no, shared.ErrNotFound)
	}
	if err != nil {
		return Bill{}, err
	}
	return r.withLines(ctx, b)
}

// ListRecent returns the newest real sales. Synthetic return bills are
// excluded at the SQL level.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Bill, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+billColumns+` FROM bills
		WHERE bill_no NOT LIKE $1 AND bill_no NOT LIKE $2
		ORDER BY date DESC, bill_no DESC LIMIT $3`,
		SupplierReturnPrefix+"%", CustomerReturnPrefix+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		b, err := r.withLines(ctx, out[i])
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (r *Repository) withLines(ctx context.Context, b Bill) (Bill, error) {
	items, returns, err := loadLines(ctx, r.pool, b.ID)
	if err != nil {
		return Bill{}, err
	}
	b.Items, b.Returns = items, returns
	return b, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadLines(ctx context.Context, q querier, billID string) ([]BillItem, []ReturnLine, error) {
	rows, err := q.Query(ctx, `SELECT kind, product_id, product_name, batch_no, quantity, price, mrp, discount_pct, line_total
		FROM bill_items WHERE bill_id = $1 ORDER BY line_no`, billID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []BillItem
	var returns []ReturnLine
	for rows.Next() {
		var kind string
		var it BillItem
		if err := rows.Scan(&kind, &it.ProductID, &it.ProductName, &it.BatchNo, &it.Quantity, &it.Price, &it.MRP, &it.DiscountPct, &it.LineTotal); err != nil {
			return nil, nil, err
		}
		if kind == lineKindReturn {
			returns = append(returns, ReturnLine{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				Price:       it.Price,
				LineTotal:   it.LineTotal,
			})
			continue
		}
		items = append(items, it)
	}
	return items, returns, rows.Err()
}

func (r *txRepository) InsertBill(ctx context.Context, bill Bill) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO bills (`+billColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		bill.ID, bill.BillNo, bill.CustomerID, bill.CustomerName, bill.CustomerPhone, bill.Date,
		bill.Subtotal, bill.DiscountPct, bill.DiscountAmount, bill.GSTPct, bill.GSTAmount,
		bill.ReturnAmount, bill.Total, bill.PaidAmount, bill.ChangeAmount, string(bill.PaymentMode),
		bill.StaffID, bill.StaffName)
	if err != nil {
		return err
	}
	return r.insertLines(ctx, bill)
}

func (r *txRepository) GetBillForUpdate(ctx context.Context, id string) (Bill, error) {
	b, err := scanBill(r.tx.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, fmt.Errorf("billing: bill %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Bill{}, err
	}
	items, returns, err := loadLines(ctx, r.tx, b.ID)
	if err != nil {
		return Bill{}, err
	}
	b.Items, b.Returns = items, returns
	return b, nil
}

// UpdateBill rewrites the totals row and all lines of an existing bill.
func (r *txRepository) UpdateBill(ctx context.Context, bill Bill) error {
	_, err := r.tx.Exec(ctx, `UPDATE bills SET subtotal = $2, discount_amount = $3, gst_amount = $4,
		return_amount = $5, total = $6 WHERE id = $1`,
		bill.ID, bill.Subtotal, bill.DiscountAmount, bill.GSTAmount, bill.ReturnAmount, bill.Total)
	if err != nil {
		return err
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, bill.ID); err != nil {
		return err
	}
	return r.insertLines(ctx, bill)
}

func (r *txRepository) insertLines(ctx context.Context, bill Bill) error {
	line := 0
	insert := func(kind, productID, productName, batchNo string, qty int, price, mrp, discountPct, lineTotal float64) error {
		line++
		_, err := r.tx.Exec(ctx, `INSERT INTO bill_items (bill_id, line_no, kind, product_id, product_name, batch_no, quantity, price, mrp, discount_pct, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			bill.ID, line, kind, productID, productName, batchNo, qty, price, mrp, discountPct, lineTotal)
		return err
	}
	for _, it := range bill.Items {
		if err := insert(lineKindSale, it.ProductID, it.ProductName, it.BatchNo, it.Quantity, it.Price, it.MRP, it.DiscountPct, it.LineTotal); err != nil {
			return err
		}
	}
	for _, rl := range bill.Returns {
		if err := insert(lineKindReturn, rl.ProductID, rl.ProductName, "", rl.Quantity, rl.Price, 0, 0, rl.LineTotal); err != nil {
			return err
		}
	}
	return nil
}

// CountBillsOn counts real sales committed on the given day. Synthetic
// return bills carry their own numbering and are excluded.
func (r *txRepository) CountBillsOn(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM bills
		WHERE date::date = $1::date AND bill_no NOT LIKE $2 AND bill_no NOT LIKE $3`,
		day, SupplierReturnPrefix+"%", CustomerReturnPrefix+"%").Scan(&count)
	return count, err
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id string) (ProductState, error) {
	var p ProductState
	err := r.tx.QueryRow(ctx, `SELECT name, batch_no, selling_price, mrp, stock_quantity, min_stock_level FROM products WHERE id = $1 FOR UPDATE`, id).
		Scan(&p.Name, &p.BatchNo, &p.Price, &p.MRP, &p.Stock, &p.MinStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductState{}, fmt.Errorf("billing: product %s: %w", id, shared.ErrNotFound)
	}
	return p, err
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

func (r *txRepository) GetCustomerForUpdate(ctx context.Context, id string) (string, string, float64, error) {
	var name, phone string
	var total float64
	err := r.tx.QueryRow(ctx, `SELECT name, phone, total_purchases FROM customers WHERE id = $1 FOR UPDATE`, id).
		Scan(&name, &phone, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", 0, fmt.Errorf("billing: customer %s: %w", id, shared.ErrNotFound)
	}
	return name, phone, total, err
}

func (r *txRepository) SetCustomerTotal(ctx context.Context, id string, total float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE customers SET total_purchases = $2 WHERE id = $1`, id, total)
	return err
}
