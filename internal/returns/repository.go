package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/billing"
	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/purchasing"
	"github.com/medishop/medishop/internal/shared"
)

// Repository backs the return processor. Returns touch purchase entries,
// products, the stock ledger and the bills table (for the synthetic return
// record), so everything lives behind one tx wrapper.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetPurchaseEntry(ctx context.Context, id string) (purchasing.PurchaseEntry, error)
	ReturnedQuantity(ctx context.Context, reference, productID string) (int, error)
	GetProductForUpdate(ctx context.Context, id string) (name string, sellingPrice float64, stock int, err error)
	SetProductStock(ctx context.Context, id string, stock int) error
	InsertLedgerEntry(ctx context.Context, t ledger.StockTransaction) error
	InsertBill(ctx context.Context, bill billing.Bill) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("returns repository not initialised")
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

func (r *txRepository) GetPurchaseEntry(ctx context.Context, id string) (purchasing.PurchaseEntry, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, supplier_id, supplier_name, invoice_no, date, total_amount
		FROM purchase_entries WHERE id = $1`, id)
	var e purchasing.PurchaseEntry
	err := row.Scan(&e.ID, &e.SupplierID, &e.SupplierName, &e.InvoiceNo, &e.Date, &e.TotalAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return purchasing.PurchaseEntry{}, fmt.Errorf("returns: purchase %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return purchasing.PurchaseEntry{}, err
	}

	rows, err := r.tx.Query(ctx, `SELECT product_id, product_name, quantity, purchase_price, batch_no, expiry_date
		FROM purchase_items WHERE entry_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return purchasing.PurchaseEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it purchasing.PurchaseItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.PurchasePrice, &it.BatchNo, &it.ExpiryDate); err != nil {
			return purchasing.PurchaseEntry{}, err
		}
		e.Items = append(e.Items, it)
	}
	return e, rows.Err()
}

// ReturnedQuantity sums units already returned under reference for one
// product. Supplier return ledger rows are negative, so the sum is negated.
func (r *txRepository) ReturnedQuantity(ctx context.Context, reference, productID string) (int, error) {
	var sum int
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(-SUM(quantity), 0) FROM stock_transactions
		WHERE reference = $1 AND product_id = $2`, reference, productID).Scan(&sum)
	return sum, err
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id string) (string, float64, int, error) {
	var name string
	var price float64
	var stock int
	err := r.tx.QueryRow(ctx, `SELECT name, selling_price, stock_quantity FROM products WHERE id = $1 FOR UPDATE`, id).
		Scan(&name, &price, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, 0, fmt.Errorf("returns: product %s: %w", id, shared.ErrNotFound)
	}
	return name, price, stock, err
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

func (r *txRepository) InsertBill(ctx context.Context, bill billing.Bill) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO bills (id, bill_no, customer_id, customer_name, customer_phone, date,
		subtotal, discount_pct, discount_amount, gst_pct, gst_amount, return_amount, total, payment_mode)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		bill.ID, bill.BillNo, bill.CustomerID, bill.CustomerName, bill.CustomerPhone, bill.Date,
		bill.Subtotal, bill.DiscountPct, bill.DiscountAmount, bill.GSTPct, bill.GSTAmount,
		bill.ReturnAmount, bill.Total, string(bill.PaymentMode))
	if err != nil {
		return err
	}
	for i, rl := range bill.Returns {
		_, err := r.tx.Exec(ctx, `INSERT INTO bill_items (bill_id, line_no, kind, product_id, product_name, quantity, price, discount_pct, line_total)
			VALUES ($1,$2,'return',$3,$4,$5,$6,0,$7)`,
			bill.ID, i+1, rl.ProductID, rl.ProductName, rl.Quantity, rl.Price, rl.LineTotal)
		if err != nil {
			return err
		}
	}
	return nil
}
