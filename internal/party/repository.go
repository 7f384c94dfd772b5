package party

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/shared"
)

// Repository persists customers and suppliers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertCustomer(ctx context.Context, c Customer) error
	UpdateCustomer(ctx context.Context, c Customer) error
	GetCustomerForUpdate(ctx context.Context, id string) (Customer, error)
	InsertSupplier(ctx context.Context, s Supplier) error
	UpdateSupplier(ctx context.Context, s Supplier) error
	GetSupplierForUpdate(ctx context.Context, id string) (Supplier, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("party repository not initialised")
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

// GetCustomer fetches one customer.
func (r *Repository) GetCustomer(ctx context.Context, id string) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, phone, email, address, registered_at, total_purchases FROM customers WHERE id = $1`, id)
	return scanCustomer(row, id)
}

// ListCustomers returns all customers ordered by name.
func (r *Repository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, email, address, registered_at, total_purchases FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetSupplier fetches one supplier.
func (r *Repository) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, phone, email, address, registered_at FROM suppliers WHERE id = $1`, id)
	return scanSupplier(row, id)
}

// ListSuppliers returns all suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, email, address, registered_at FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanCustomer(row pgx.Row, id string) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.RegisteredAt, &c.TotalPurchases)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, fmt.Errorf("party: customer %s: %w", id, shared.ErrNotFound)
	}
	return c, err
}

func scanSupplier(row pgx.Row, id string) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address, &s.RegisteredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, fmt.Errorf("party: supplier %s: %w", id, shared.ErrNotFound)
	}
	return s, err
}

func (r *txRepository) InsertCustomer(ctx context.Context, c Customer) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO customers (id, name, phone, email, address, registered_at, total_purchases)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.RegisteredAt, c.TotalPurchases)
	return err
}

func (r *txRepository) UpdateCustomer(ctx context.Context, c Customer) error {
	_, err := r.tx.Exec(ctx, `UPDATE customers SET name=$2, phone=$3, email=$4, address=$5, total_purchases=$6 WHERE id=$1`,
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.TotalPurchases)
	return err
}

func (r *txRepository) GetCustomerForUpdate(ctx context.Context, id string) (Customer, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, name, phone, email, address, registered_at, total_purchases FROM customers WHERE id = $1 FOR UPDATE`, id)
	return scanCustomer(row, id)
}

func (r *txRepository) InsertSupplier(ctx context.Context, s Supplier) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO suppliers (id, name, phone, email, address, registered_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.Name, s.Phone, s.Email, s.Address, s.RegisteredAt)
	return err
}

func (r *txRepository) UpdateSupplier(ctx context.Context, s Supplier) error {
	_, err := r.tx.Exec(ctx, `UPDATE suppliers SET name=$2, phone=$3, email=$4, address=$5 WHERE id=$1`,
		s.ID, s.Name, s.Phone, s.Email, s.Address)
	return err
}

func (r *txRepository) GetSupplierForUpdate(ctx context.Context, id string) (Supplier, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, name, phone, email, address, registered_at FROM suppliers WHERE id = $1 FOR UPDATE`, id)
	return scanSupplier(row, id)
}
