package snapshot

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/billing"
	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/purchasing"
)

// Repository moves whole stores in and out of PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Export reads every collection.
func (r *Repository) Export(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	var err error
	if s.Products, err = r.exportProducts(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Customers, err = r.exportCustomers(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Suppliers, err = r.exportSuppliers(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Bills, err = r.exportBills(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Purchases, err = r.exportPurchases(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Transactions, err = r.exportTransactions(ctx); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Import replaces every collection with the snapshot content in one
// transaction.
func (r *Repository) Import(ctx context.Context, s Snapshot) error {
	if r == nil {
		return errors.New("snapshot repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	if err := importAll(ctx, tx, s); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func importAll(ctx context.Context, tx pgx.Tx, s Snapshot) error {
	_, err := tx.Exec(ctx, `TRUNCATE bill_items, bills, purchase_items, purchase_entries,
		stock_transactions, products, customers, suppliers`)
	if err != nil {
		return err
	}
	for _, p := range s.Products {
		_, err := tx.Exec(ctx, `INSERT INTO products (id, name, brand, category, barcode, hsn_code, batch_no,
			expiry_date, mrp, purchase_price, selling_price, stock_quantity, initial_stock, min_stock_level, added_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			p.ID, p.Name, p.Brand, p.Category, p.Barcode, p.HSNCode, p.BatchNo,
			p.ExpiryDate, p.MRP, p.PurchasePrice, p.SellingPrice, p.StockQuantity, p.InitialStock, p.MinStockLevel, p.AddedAt)
		if err != nil {
			return err
		}
	}
	for _, c := range s.Customers {
		_, err := tx.Exec(ctx, `INSERT INTO customers (id, name, phone, email, address, registered_at, total_purchases)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			c.ID, c.Name, c.Phone, c.Email, c.Address, c.RegisteredAt, c.TotalPurchases)
		if err != nil {
			return err
		}
	}
	for _, sup := range s.Suppliers {
		_, err := tx.Exec(ctx, `INSERT INTO suppliers (id, name, phone, email, address, registered_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			sup.ID, sup.Name, sup.Phone, sup.Email, sup.Address, sup.RegisteredAt)
		if err != nil {
			return err
		}
	}
	for _, b := range s.Bills {
		_, err := tx.Exec(ctx, `INSERT INTO bills (id, bill_no, customer_id, customer_name, customer_phone, date,
			subtotal, discount_pct, discount_amount, gst_pct, gst_amount, return_amount, total,
			paid_amount, change_amount, payment_mode, staff_id, staff_name)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
			b.ID, b.BillNo, b.CustomerID, b.CustomerName, b.CustomerPhone, b.Date,
			b.Subtotal, b.DiscountPct, b.DiscountAmount, b.GSTPct, b.GSTAmount, b.ReturnAmount, b.Total,
			b.PaidAmount, b.ChangeAmount, string(b.PaymentMode), b.StaffID, b.StaffName)
		if err != nil {
			return err
		}
		line := 0
		for _, it := range b.Items {
			line++
			_, err := tx.Exec(ctx, `INSERT INTO bill_items (bill_id, line_no, kind, product_id, product_name, batch_no, quantity, price, mrp, discount_pct, line_total)
				VALUES ($1,$2,'sale',$3,$4,$5,$6,$7,$8,$9,$10)`,
				b.ID, line, it.ProductID, it.ProductName, it.BatchNo, it.Quantity, it.Price, it.MRP, it.DiscountPct, it.LineTotal)
			if err != nil {
				return err
			}
		}
		for _, rl := range b.Returns {
			line++
			_, err := tx.Exec(ctx, `INSERT INTO bill_items (bill_id, line_no, kind, product_id, product_name, batch_no, quantity, price, mrp, discount_pct, line_total)
				VALUES ($1,$2,'return',$3,$4,'',$5,$6,0,0,$7)`,
				b.ID, line, rl.ProductID, rl.ProductName, rl.Quantity, rl.Price, rl.LineTotal)
			if err != nil {
				return err
			}
		}
	}
	for _, e := range s.Purchases {
		_, err := tx.Exec(ctx, `INSERT INTO purchase_entries (id, supplier_id, supplier_name, invoice_no, date, total_amount)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			e.ID, e.SupplierID, e.SupplierName, e.InvoiceNo, e.Date, e.TotalAmount)
		if err != nil {
			return err
		}
		for i, it := range e.Items {
			_, err := tx.Exec(ctx, `INSERT INTO purchase_items (entry_id, line_no, product_id, product_name, quantity, purchase_price, batch_no, expiry_date)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				e.ID, i+1, it.ProductID, it.ProductName, it.Quantity, it.PurchasePrice, it.BatchNo, it.ExpiryDate)
			if err != nil {
				return err
			}
		}
	}
	for _, t := range s.Transactions {
		_, err := tx.Exec(ctx, `INSERT INTO stock_transactions (id, type, product_id, product_name, quantity, occurred_at, reference, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			t.ID, string(t.Type), t.ProductID, t.ProductName, t.Quantity, t.OccurredAt, t.Reference, t.Notes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) exportProducts(ctx context.Context) ([]ProductRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, brand, category, barcode, hsn_code, batch_no,
		expiry_date, mrp, purchase_price, selling_price, stock_quantity, initial_stock, min_stock_level, added_at
		FROM products ORDER BY added_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductRecord
	for rows.Next() {
		var p ProductRecord
		err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.Barcode, &p.HSNCode, &p.BatchNo,
			&p.ExpiryDate, &p.MRP, &p.PurchasePrice, &p.SellingPrice, &p.StockQuantity, &p.InitialStock, &p.MinStockLevel, &p.AddedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) exportCustomers(ctx context.Context) ([]party.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, email, address, registered_at, total_purchases
		FROM customers ORDER BY registered_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []party.Customer
	for rows.Next() {
		var c party.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.RegisteredAt, &c.TotalPurchases); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) exportSuppliers(ctx context.Context) ([]party.Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, email, address, registered_at
		FROM suppliers ORDER BY registered_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []party.Supplier
	for rows.Next() {
		var s party.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address, &s.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) exportBills(ctx context.Context) ([]billing.Bill, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, bill_no, customer_id, customer_name, customer_phone, date,
		subtotal, discount_pct, discount_amount, gst_pct, gst_amount, return_amount, total,
		paid_amount, change_amount, payment_mode, staff_id, staff_name
		FROM bills ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []billing.Bill
	for rows.Next() {
		var b billing.Bill
		err := rows.Scan(&b.ID, &b.BillNo, &b.CustomerID, &b.CustomerName, &b.CustomerPhone, &b.Date,
			&b.Subtotal, &b.DiscountPct, &b.DiscountAmount, &b.GSTPct, &b.GSTAmount, &b.ReturnAmount, &b.Total,
			&b.PaidAmount, &b.ChangeAmount, &b.PaymentMode, &b.StaffID, &b.StaffName)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadBillLines(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) loadBillLines(ctx context.Context, b *billing.Bill) error {
	rows, err := r.pool.Query(ctx, `SELECT kind, product_id, product_name, batch_no, quantity, price, mrp, discount_pct, line_total
		FROM bill_items WHERE bill_id = $1 ORDER BY line_no`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var it billing.BillItem
		if err := rows.Scan(&kind, &it.ProductID, &it.ProductName, &it.BatchNo, &it.Quantity, &it.Price, &it.MRP, &it.DiscountPct, &it.LineTotal); err != nil {
			return err
		}
		if kind == "return" {
			b.Returns = append(b.Returns, billing.ReturnLine{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				Price:       it.Price,
				LineTotal:   it.LineTotal,
			})
			continue
		}
		b.Items = append(b.Items, it)
	}
	return rows.Err()
}

func (r *Repository) exportPurchases(ctx context.Context) ([]purchasing.PurchaseEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, supplier_id, supplier_name, invoice_no, date, total_amount
		FROM purchase_entries ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []purchasing.PurchaseEntry
	for rows.Next() {
		var e purchasing.PurchaseEntry
		if err := rows.Scan(&e.ID, &e.SupplierID, &e.SupplierName, &e.InvoiceNo, &e.Date, &e.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		itemRows, err := r.pool.Query(ctx, `SELECT product_id, product_name, quantity, purchase_price, batch_no, expiry_date
			FROM purchase_items WHERE entry_id = $1 ORDER BY line_no`, out[i].ID)
		if err != nil {
			return nil, err
		}
		for itemRows.Next() {
			var it purchasing.PurchaseItem
			if err := itemRows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.PurchasePrice, &it.BatchNo, &it.ExpiryDate); err != nil {
				itemRows.Close()
				return nil, err
			}
			out[i].Items = append(out[i].Items, it)
		}
		if err := itemRows.Err(); err != nil {
			itemRows.Close()
			return nil, err
		}
		itemRows.Close()
	}
	return out, nil
}

func (r *Repository) exportTransactions(ctx context.Context) ([]ledger.StockTransaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, type, product_id, product_name, quantity, occurred_at, reference, notes
		FROM stock_transactions ORDER BY occurred_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.StockTransaction
	for rows.Next() {
		var t ledger.StockTransaction
		if err := rows.Scan(&t.ID, &t.Type, &t.ProductID, &t.ProductName, &t.Quantity, &t.OccurredAt, &t.Reference, &t.Notes); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
