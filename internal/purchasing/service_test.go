package purchasing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/shared"
)

type productState struct {
	name  string
	stock int
}

type memoryRepo struct {
	products     map[string]*productState
	entries      []PurchaseEntry
	transactions []ledger.StockTransaction
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[string]*productState)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	// Snapshot and restore on error so a failed callback leaves nothing behind.
	stocks := make(map[string]productState, len(r.products))
	for id, p := range r.products {
		stocks[id] = *p
	}
	entries := len(r.entries)
	transactions := len(r.transactions)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		for id, p := range stocks {
			copied := p
			r.products[id] = &copied
		}
		r.entries = r.entries[:entries]
		r.transactions = r.transactions[:transactions]
		return err
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (PurchaseEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return PurchaseEntry{}, shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, limit int) ([]PurchaseEntry, error) {
	return r.entries, nil
}

func (tx *memoryTx) InsertPurchase(ctx context.Context, entry PurchaseEntry) error {
	tx.repo.entries = append(tx.repo.entries, entry)
	return nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, id string) (string, int, error) {
	p, ok := tx.repo.products[id]
	if !ok {
		return "", 0, shared.ErrNotFound
	}
	return p.name, p.stock, nil
}

func (tx *memoryTx) SetProductStock(ctx context.Context, id string, stock int) error {
	tx.repo.products[id].stock = stock
	return nil
}

func (tx *memoryTx) InsertLedgerEntry(ctx context.Context, t ledger.StockTransaction) error {
	tx.repo.transactions = append(tx.repo.transactions, t)
	return nil
}

type memorySuppliers struct {
	suppliers map[string]party.Supplier
}

func (d *memorySuppliers) GetSupplier(ctx context.Context, id string) (party.Supplier, error) {
	s, ok := d.suppliers[id]
	if !ok {
		return party.Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func newFixture() (*memoryRepo, *Service) {
	repo := newMemoryRepo()
	repo.products["p1"] = &productState{name: "Rice 5kg", stock: 20}
	repo.products["p2"] = &productState{name: "Cooking Oil 1L", stock: 5}
	suppliers := &memorySuppliers{suppliers: map[string]party.Supplier{
		"s1": {ID: "s1", Name: "Agro Traders"},
	}}
	return repo, NewService(repo, suppliers)
}

func TestRecordPurchase(t *testing.T) {
	repo, svc := newFixture()

	entry, err := svc.Record(context.Background(), RecordInput{
		SupplierID: "s1",
		InvoiceNo:  "INV-42",
		Items: []RecordItemInput{
			{ProductID: "p1", Quantity: 10, PurchasePrice: 150},
			{ProductID: "p2", Quantity: 4, PurchasePrice: 90},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Agro Traders", entry.SupplierName)
	require.InDelta(t, 10*150+4*90.0, entry.TotalAmount, 1e-9)

	require.Equal(t, 30, repo.products["p1"].stock)
	require.Equal(t, 9, repo.products["p2"].stock)

	require.Len(t, repo.transactions, 2)
	for _, tr := range repo.transactions {
		require.Equal(t, ledger.TypePurchase, tr.Type)
		require.Equal(t, "INV-42", tr.Reference)
		require.Greater(t, tr.Quantity, 0)
	}
	require.Len(t, repo.entries, 1)
	require.Equal(t, "Rice 5kg", repo.entries[0].Items[0].ProductName)
}

func TestRecordPurchaseZeroQuantityLine(t *testing.T) {
	repo, svc := newFixture()

	_, err := svc.Record(context.Background(), RecordInput{
		SupplierID: "s1",
		InvoiceNo:  "INV-43",
		Items: []RecordItemInput{
			{ProductID: "p1", Quantity: 5, PurchasePrice: 150},
			{ProductID: "p2", Quantity: 0, PurchasePrice: 90},
		},
	})
	require.True(t, shared.IsValidation(err))

	// Nothing moved: validation fails before the transaction starts.
	require.Equal(t, 20, repo.products["p1"].stock)
	require.Empty(t, repo.transactions)
	require.Empty(t, repo.entries)
}

func TestRecordPurchaseUnknownProductRollsBack(t *testing.T) {
	repo, svc := newFixture()

	_, err := svc.Record(context.Background(), RecordInput{
		SupplierID: "s1",
		InvoiceNo:  "INV-44",
		Items: []RecordItemInput{
			{ProductID: "p1", Quantity: 5, PurchasePrice: 150},
			{ProductID: "ghost", Quantity: 2, PurchasePrice: 10},
		},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)

	// First line's stock bump is rolled back with the rest.
	require.Equal(t, 20, repo.products["p1"].stock)
	require.Empty(t, repo.transactions)
	require.Empty(t, repo.entries)
}

func TestRecordPurchaseValidation(t *testing.T) {
	_, svc := newFixture()

	_, err := svc.Record(context.Background(), RecordInput{})
	require.True(t, shared.IsValidation(err))

	var v *shared.ValidationError
	require.ErrorAs(t, err, &v)
	require.Len(t, v.Fields, 3)
}
