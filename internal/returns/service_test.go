package returns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medishop/medishop/internal/billing"
	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/purchasing"
	"github.com/medishop/medishop/internal/shared"
)

type productState struct {
	name  string
	price float64
	stock int
}

type memoryRepo struct {
	products     map[string]*productState
	purchases    map[string]purchasing.PurchaseEntry
	bills        []billing.Bill
	transactions []ledger.StockTransaction
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:  make(map[string]*productState),
		purchases: make(map[string]purchasing.PurchaseEntry),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	stocks := make(map[string]productState, len(r.products))
	for id, p := range r.products {
		stocks[id] = *p
	}
	bills := len(r.bills)
	transactions := len(r.transactions)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		for id, p := range stocks {
			copied := p
			r.products[id] = &copied
		}
		r.bills = r.bills[:bills]
		r.transactions = r.transactions[:transactions]
		return err
	}
	return nil
}

func (tx *memoryTx) GetPurchaseEntry(ctx context.Context, id string) (purchasing.PurchaseEntry, error) {
	e, ok := tx.repo.purchases[id]
	if !ok {
		return purchasing.PurchaseEntry{}, shared.ErrNotFound
	}
	return e, nil
}

func (tx *memoryTx) ReturnedQuantity(ctx context.Context, reference, productID string) (int, error) {
	sum := 0
	for _, t := range tx.repo.transactions {
		if t.Reference == reference && t.ProductID == productID {
			sum -= t.Quantity
		}
	}
	return sum, nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, id string) (string, float64, int, error) {
	p, ok := tx.repo.products[id]
	if !ok {
		return "", 0, 0, shared.ErrNotFound
	}
	return p.name, p.price, p.stock, nil
}

func (tx *memoryTx) SetProductStock(ctx context.Context, id string, stock int) error {
	tx.repo.products[id].stock = stock
	return nil
}

func (tx *memoryTx) InsertLedgerEntry(ctx context.Context, t ledger.StockTransaction) error {
	tx.repo.transactions = append(tx.repo.transactions, t)
	return nil
}

func (tx *memoryTx) InsertBill(ctx context.Context, bill billing.Bill) error {
	tx.repo.bills = append(tx.repo.bills, bill)
	return nil
}

type memoryCustomers struct {
	customers map[string]party.Customer
}

func (d *memoryCustomers) GetCustomer(ctx context.Context, id string) (party.Customer, error) {
	c, ok := d.customers[id]
	if !ok {
		return party.Customer{}, shared.ErrNotFound
	}
	return c, nil
}

func newFixture() (*memoryRepo, *Service) {
	repo := newMemoryRepo()
	repo.products["p1"] = &productState{name: "Rice 5kg", price: 250, stock: 20}
	repo.products["p2"] = &productState{name: "Cooking Oil 1L", price: 180, stock: 8}
	repo.purchases["pe1"] = purchasing.PurchaseEntry{
		ID:           "pe1",
		SupplierID:   "s1",
		SupplierName: "Agro Traders",
		InvoiceNo:    "INV-42",
		Items: []purchasing.PurchaseItem{
			{ProductID: "p1", ProductName: "Rice 5kg", Quantity: 10, PurchasePrice: 150},
			{ProductID: "p2", ProductName: "Cooking Oil 1L", Quantity: 4, PurchasePrice: 90},
		},
	}
	customers := &memoryCustomers{customers: map[string]party.Customer{
		"c1": {ID: "c1", Name: "Asha", Phone: "9000000001"},
	}}
	return repo, NewService(repo, customers, nil)
}

func TestReturnToSupplier(t *testing.T) {
	repo, svc := newFixture()

	bill, err := svc.ReturnToSupplier(context.Background(), SupplierReturnInput{
		PurchaseID: "pe1",
		Quantities: map[string]int{"p1": 3, "p2": 1},
	})
	require.NoError(t, err)
	require.True(t, billing.IsSynthetic(bill.BillNo))
	require.Equal(t, "Agro Traders", bill.CustomerName)
	// Refund at purchase price.
	require.InDelta(t, 3*150+1*90.0, bill.Total, 1e-9)

	require.Equal(t, 17, repo.products["p1"].stock)
	require.Equal(t, 7, repo.products["p2"].stock)
	require.Len(t, repo.transactions, 2)
	for _, tr := range repo.transactions {
		require.Equal(t, ledger.TypeReturn, tr.Type)
		require.Equal(t, "RET-INV-42", tr.Reference)
		require.Less(t, tr.Quantity, 0)
	}
}

func TestReturnToSupplierCapsAtPurchased(t *testing.T) {
	repo, svc := newFixture()
	ctx := context.Background()

	_, err := svc.ReturnToSupplier(ctx, SupplierReturnInput{
		PurchaseID: "pe1",
		Quantities: map[string]int{"p1": 11},
	})
	require.True(t, shared.IsValidation(err))
	require.Equal(t, 20, repo.products["p1"].stock)

	// Earlier returns count against the cap.
	_, err = svc.ReturnToSupplier(ctx, SupplierReturnInput{
		PurchaseID: "pe1",
		Quantities: map[string]int{"p1": 8},
	})
	require.NoError(t, err)
	_, err = svc.ReturnToSupplier(ctx, SupplierReturnInput{
		PurchaseID: "pe1",
		Quantities: map[string]int{"p1": 3},
	})
	require.True(t, shared.IsValidation(err))
	require.Equal(t, 12, repo.products["p1"].stock)
}

func TestReturnToSupplierUnknownProduct(t *testing.T) {
	repo, svc := newFixture()

	_, err := svc.ReturnToSupplier(context.Background(), SupplierReturnInput{
		PurchaseID: "pe1",
		Quantities: map[string]int{"ghost": 1},
	})
	require.True(t, shared.IsValidation(err))
	require.Empty(t, repo.bills)
	require.Empty(t, repo.transactions)
}

func TestReturnToSupplierStockGuard(t *testing.T) {
	repo, svc := newFixture()
	// Most of the delivered oil has been sold already.
	repo.products["p2"].stock = 2

	_, err := svc.ReturnToSupplier(context.Background(), SupplierReturnInput{
		PurchaseID: "pe1",
		Quantities: map[string]int{"p2": 4},
	})
	require.ErrorIs(t, err, shared.ErrStockIntegrity)
	require.Equal(t, 2, repo.products["p2"].stock)
	require.Empty(t, repo.bills)
}

func TestReturnFromCustomer(t *testing.T) {
	repo, svc := newFixture()

	bill, err := svc.ReturnFromCustomer(context.Background(), CustomerReturnInput{
		CustomerID: "c1",
		Lines:      []CustomerReturnLine{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)
	require.True(t, billing.IsSynthetic(bill.BillNo))
	require.Equal(t, "Asha", bill.CustomerName)
	// Refund at selling price.
	require.InDelta(t, 500.0, bill.Total, 1e-9)

	require.Equal(t, 22, repo.products["p1"].stock)
	require.Len(t, repo.transactions, 1)
	require.Equal(t, "CUST-RET", repo.transactions[0].Reference)
	require.Equal(t, 2, repo.transactions[0].Quantity)
}

func TestReturnFromCustomerWalkIn(t *testing.T) {
	_, svc := newFixture()

	bill, err := svc.ReturnFromCustomer(context.Background(), CustomerReturnInput{
		Lines: []CustomerReturnLine{{ProductID: "p2", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, party.WalkInCustomerID, bill.CustomerID)
	require.Equal(t, "Walk-in Customer", bill.CustomerName)
}
