package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (PurchaseEntry, error)
	List(ctx context.Context, limit int) ([]PurchaseEntry, error)
}

// SupplierDirectory resolves supplier ids. Satisfied by party.Service.
type SupplierDirectory interface {
	GetSupplier(ctx context.Context, id string) (party.Supplier, error)
}

// Service records supplier invoices and keeps stock in step with them.
type Service struct {
	repo      RepositoryPort
	suppliers SupplierDirectory
	now       func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, suppliers SupplierDirectory) *Service {
	return &Service{repo: repo, suppliers: suppliers, now: time.Now}
}

// Record validates the invoice, then in one transaction inserts the entry,
// raises each product's stock and appends a purchase ledger row per line
// referencing the invoice number. Any failure leaves every store untouched.
func (s *Service) Record(ctx context.Context, input RecordInput) (PurchaseEntry, error) {
	v := &shared.ValidationError{}
	if strings.TrimSpace(input.SupplierID) == "" {
		v.Add("supplier_id", "required")
	}
	if strings.TrimSpace(input.InvoiceNo) == "" {
		v.Add("invoice_no", "required")
	}
	if len(input.Items) == 0 {
		v.Add("items", "at least one line required")
	}
	for i, it := range input.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			v.Add(fmt.Sprintf("items[%d].product_id", i), "required")
		}
		if it.Quantity <= 0 {
			v.Add(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if it.PurchasePrice <= 0 {
			v.Add(fmt.Sprintf("items[%d].purchase_price", i), "must be positive")
		}
	}
	if err := v.ErrOrNil(); err != nil {
		return PurchaseEntry{}, err
	}

	supplier, err := s.suppliers.GetSupplier(ctx, input.SupplierID)
	if err != nil {
		return PurchaseEntry{}, fmt.Errorf("purchasing: resolve supplier: %w", err)
	}

	date := input.Date
	if date.IsZero() {
		date = s.now().UTC()
	}

	entry := PurchaseEntry{
		ID:           uuid.NewString(),
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		InvoiceNo:    strings.TrimSpace(input.InvoiceNo),
		Date:         date,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, line := range input.Items {
			name, stock, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := tx.SetProductStock(ctx, line.ProductID, stock+line.Quantity); err != nil {
				return err
			}
			entry.Items = append(entry.Items, PurchaseItem{
				ProductID:     line.ProductID,
				ProductName:   name,
				Quantity:      line.Quantity,
				PurchasePrice: line.PurchasePrice,
				BatchNo:       line.BatchNo,
				ExpiryDate:    line.ExpiryDate,
			})
			entry.TotalAmount += float64(line.Quantity) * line.PurchasePrice

			err = tx.InsertLedgerEntry(ctx, ledger.StockTransaction{
				ID:          uuid.NewString(),
				Type:        ledger.TypePurchase,
				ProductID:   line.ProductID,
				ProductName: name,
				Quantity:    line.Quantity,
				OccurredAt:  s.now().UTC(),
				Reference:   entry.InvoiceNo,
				Notes:       "Purchased from " + supplier.Name,
			})
			if err != nil {
				return err
			}
		}
		return tx.InsertPurchase(ctx, entry)
	})
	if err != nil {
		return PurchaseEntry{}, fmt.Errorf("purchasing: record: %w", err)
	}
	return entry, nil
}

// Get returns one purchase entry.
func (s *Service) Get(ctx context.Context, id string) (PurchaseEntry, error) {
	return s.repo.Get(ctx, id)
}

// List returns recent purchase entries.
func (s *Service) List(ctx context.Context, limit int) ([]PurchaseEntry, error) {
	return s.repo.List(ctx, limit)
}
