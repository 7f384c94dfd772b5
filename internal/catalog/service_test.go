package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medishop/medishop/internal/shared"
)

type memoryRepo struct {
	products map[string]Product
	billRefs map[string]int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[string]Product), billRefs: make(map[string]int)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return Product{}, shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListExpiring(ctx context.Context, now, until time.Time) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		if p.ExpiryDate == nil {
			continue
		}
		if !p.ExpiryDate.Before(now) && !p.ExpiryDate.After(until) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (tx *memoryTx) InsertProduct(ctx context.Context, p Product) error {
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryTx) UpdateProduct(ctx context.Context, p Product) error {
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, id string) (Product, error) {
	if p, ok := tx.repo.products[id]; ok {
		return p, nil
	}
	return Product{}, shared.ErrNotFound
}

func (tx *memoryTx) CountBillReferences(ctx context.Context, productID string) (int, error) {
	return tx.repo.billRefs[productID], nil
}

func (tx *memoryTx) DeleteProduct(ctx context.Context, id string) error {
	delete(tx.repo.products, id)
	return nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "", SellingPrice: 0, StockQuantity: -1})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))

	p, err := svc.Create(ctx, CreateInput{Name: "Rice 5kg", SellingPrice: 220, PurchasePrice: 180, StockQuantity: 150, MinStockLevel: 50})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, 150, p.StockQuantity)
}

func TestLowStockBoundary(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Name: "Rice 5kg", SellingPrice: 220, StockQuantity: 150, MinStockLevel: 50})
	require.NoError(t, err)

	low, err := svc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Empty(t, low)

	// A sale of 101 units drops stock to 49, below the 50 threshold.
	stored := repo.products[p.ID]
	stored.StockQuantity -= 101
	repo.products[p.ID] = stored

	low, err = svc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, 49, low[0].StockQuantity)

	// Idempotent read: same result without mutation in between.
	again, err := svc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Equal(t, low, again)
}

func TestListExpiringWindow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	soon := now.AddDate(0, 0, 10)
	far := now.AddDate(0, 0, 90)
	past := now.AddDate(0, 0, -1)

	for _, tc := range []struct {
		name   string
		expiry *time.Time
	}{
		{"Expiring Soon", &soon},
		{"Expiring Later", &far},
		{"Already Expired", &past},
		{"No Expiry", nil},
	} {
		_, err := svc.Create(ctx, CreateInput{Name: tc.name, SellingPrice: 10, ExpiryDate: tc.expiry})
		require.NoError(t, err)
	}

	expiring, err := svc.ListExpiring(ctx, 30)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	require.Equal(t, "Expiring Soon", expiring[0].Name)

	_, err = svc.ListExpiring(ctx, 0)
	require.True(t, shared.IsValidation(err))
}

func TestDeleteGuardsBillReferences(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Name: "Cooking Oil 1L", SellingPrice: 78})
	require.NoError(t, err)

	repo.billRefs[p.ID] = 2
	err = svc.Delete(ctx, p.ID)
	require.ErrorIs(t, err, ErrProductReferenced)
	require.Contains(t, repo.products, p.ID)

	repo.billRefs[p.ID] = 0
	require.NoError(t, svc.Delete(ctx, p.ID))
	require.NotContains(t, repo.products, p.ID)
}

func TestUpdatePartialMerge(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Name: "Paracetamol", SellingPrice: 30, MinStockLevel: 20, StockQuantity: 100})
	require.NoError(t, err)

	newPrice := 35.0
	updated, err := svc.Update(ctx, p.ID, UpdateInput{SellingPrice: &newPrice})
	require.NoError(t, err)
	require.Equal(t, 35.0, updated.SellingPrice)
	require.Equal(t, "Paracetamol", updated.Name)
	require.Equal(t, 100, updated.StockQuantity)

	empty := " "
	_, err = svc.Update(ctx, p.ID, UpdateInput{Name: &empty})
	require.True(t, shared.IsValidation(err))
}
