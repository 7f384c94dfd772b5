package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medishop/medishop/internal/shared"
)

type productState struct {
	name    string
	stock   int
	initial int
}

type memoryRepo struct {
	products     map[string]*productState
	transactions []StockTransaction
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[string]*productState)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) List(ctx context.Context, filter Filter) ([]StockTransaction, error) {
	var out []StockTransaction
	for _, t := range r.transactions {
		if filter.ProductID != "" && t.ProductID != filter.ProductID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *memoryRepo) SumDeltas(ctx context.Context, productID string) (int, error) {
	sum := 0
	for _, t := range r.transactions {
		if t.ProductID == productID {
			sum += t.Quantity
		}
	}
	return sum, nil
}

func (r *memoryRepo) ProductStockLevels(ctx context.Context, productID string) (int, int, error) {
	p, ok := r.products[productID]
	if !ok {
		return 0, 0, shared.ErrNotFound
	}
	return p.stock, p.initial, nil
}

func (tx *memoryTx) InsertTransaction(ctx context.Context, t StockTransaction) error {
	tx.repo.transactions = append(tx.repo.transactions, t)
	return nil
}

func (tx *memoryTx) GetProductStockForUpdate(ctx context.Context, productID string) (string, int, error) {
	p, ok := tx.repo.products[productID]
	if !ok {
		return "", 0, shared.ErrNotFound
	}
	return p.name, p.stock, nil
}

func (tx *memoryTx) SetProductStock(ctx context.Context, productID string, stock int) error {
	tx.repo.products[productID].stock = stock
	return nil
}

func TestAppendAssignsIdentityOnly(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	entry, err := svc.Append(context.Background(), StockTransaction{
		Type:      TypeSale,
		ProductID: "p1",
		Quantity:  -3,
		Reference: "MS2603010001",
	})
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.OccurredAt.IsZero())
	require.Len(t, repo.transactions, 1)
	require.Equal(t, -3, repo.transactions[0].Quantity)
}

func TestPostAdjustment(t *testing.T) {
	repo := newMemoryRepo()
	repo.products["p1"] = &productState{name: "Rice 5kg", stock: 10, initial: 10}
	svc := NewService(repo)
	ctx := context.Background()

	entry, err := svc.PostAdjustment(ctx, AdjustmentInput{ProductID: "p1", Delta: -4, Reason: "damaged stock"})
	require.NoError(t, err)
	require.Equal(t, TypeAdjustment, entry.Type)
	require.Equal(t, "Rice 5kg", entry.ProductName)
	require.Equal(t, 6, repo.products["p1"].stock)

	_, err = svc.PostAdjustment(ctx, AdjustmentInput{ProductID: "p1", Delta: -7, Reason: "oops"})
	require.ErrorIs(t, err, shared.ErrStockIntegrity)
	require.Equal(t, 6, repo.products["p1"].stock)

	_, err = svc.PostAdjustment(ctx, AdjustmentInput{ProductID: "p1", Delta: 0, Reason: "noop"})
	require.True(t, shared.IsValidation(err))
}

func TestReconcile(t *testing.T) {
	repo := newMemoryRepo()
	repo.products["p1"] = &productState{name: "Rice 5kg", stock: 12, initial: 10}
	svc := NewService(repo)
	ctx := context.Background()

	// Deltas add up to +2: purchase +5, sale -3.
	_, err := svc.Append(ctx, StockTransaction{Type: TypePurchase, ProductID: "p1", Quantity: 5, Reference: "INV-1"})
	require.NoError(t, err)
	_, err = svc.Append(ctx, StockTransaction{Type: TypeSale, ProductID: "p1", Quantity: -3, Reference: "MS2603010001"})
	require.NoError(t, err)

	result, err := svc.Reconcile(ctx, "p1")
	require.NoError(t, err)
	require.True(t, result.Consistent)
	require.Equal(t, 2, result.LedgerDelta)

	// A stray delta breaks the invariant.
	_, err = svc.Append(ctx, StockTransaction{Type: TypeAdjustment, ProductID: "p1", Quantity: 1, Reference: "ADJUSTMENT"})
	require.NoError(t, err)
	result, err = svc.Reconcile(ctx, "p1")
	require.NoError(t, err)
	require.False(t, result.Consistent)
}
