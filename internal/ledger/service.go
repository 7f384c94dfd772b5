package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medishop/medishop/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter Filter) ([]StockTransaction, error)
	SumDeltas(ctx context.Context, productID string) (int, error)
	ProductStockLevels(ctx context.Context, productID string) (current, initial int, err error)
}

// Service exposes the append-only stock ledger.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Append assigns identity and inserts the row. Nothing else: no validation,
// no deduplication. Billing and purchasing call this inside their own
// transactions through their tx repositories; this path serves standalone
// callers.
func (s *Service) Append(ctx context.Context, t StockTransaction) (StockTransaction, error) {
	t.ID = uuid.NewString()
	if t.OccurredAt.IsZero() {
		t.OccurredAt = s.now().UTC()
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertTransaction(ctx, t)
	})
	if err != nil {
		return StockTransaction{}, fmt.Errorf("ledger: append: %w", err)
	}
	return t, nil
}

// AdjustmentInput describes a manual stock correction.
type AdjustmentInput struct {
	ProductID string
	Delta     int
	Reason    string
}

// PostAdjustment applies a manual +/- correction: product stock and the
// matching ledger row move in one transaction.
func (s *Service) PostAdjustment(ctx context.Context, input AdjustmentInput) (StockTransaction, error) {
	v := &shared.ValidationError{}
	if input.ProductID == "" {
		v.Add("product_id", "required")
	}
	if input.Delta == 0 {
		v.Add("delta", "must be non-zero")
	}
	if strings.TrimSpace(input.Reason) == "" {
		v.Add("reason", "required")
	}
	if err := v.ErrOrNil(); err != nil {
		return StockTransaction{}, err
	}

	entry := StockTransaction{
		ID:         uuid.NewString(),
		Type:       TypeAdjustment,
		ProductID:  input.ProductID,
		Quantity:   input.Delta,
		OccurredAt: s.now().UTC(),
		Reference:  "ADJUSTMENT",
		Notes:      input.Reason,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		name, stock, err := tx.GetProductStockForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		next := stock + input.Delta
		if next < 0 {
			return fmt.Errorf("ledger: adjustment would leave %q at %d: %w", name, next, shared.ErrStockIntegrity)
		}
		if err := tx.SetProductStock(ctx, input.ProductID, next); err != nil {
			return err
		}
		entry.ProductName = name
		return tx.InsertTransaction(ctx, entry)
	})
	if err != nil {
		return StockTransaction{}, err
	}
	return entry, nil
}

// List returns ledger rows matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]StockTransaction, error) {
	return s.repo.List(ctx, filter)
}

// Reconcile verifies the ledger against the catalog for one product:
// sum of deltas must equal currentStock - initialStock.
func (s *Service) Reconcile(ctx context.Context, productID string) (Reconciliation, error) {
	if productID == "" {
		return Reconciliation{}, shared.NewValidationError("product_id", "required")
	}
	current, initial, err := s.repo.ProductStockLevels(ctx, productID)
	if err != nil {
		return Reconciliation{}, err
	}
	delta, err := s.repo.SumDeltas(ctx, productID)
	if err != nil {
		return Reconciliation{}, err
	}
	return Reconciliation{
		ProductID:    productID,
		LedgerDelta:  delta,
		CurrentStock: current,
		InitialStock: initial,
		Consistent:   delta == current-initial,
	}, nil
}
