package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/shared"
)

type productState struct {
	name     string
	price    float64
	stock    int
	minStock int
}

type customerState struct {
	name  string
	phone string
	total float64
}

type memoryRepo struct {
	products     map[string]*productState
	customers    map[string]*customerState
	bills        map[string]*Bill
	transactions []ledger.StockTransaction
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:  make(map[string]*productState),
		customers: make(map[string]*customerState),
		bills:     make(map[string]*Bill),
	}
}

func (r *memoryRepo) snapshot() *memoryRepo {
	c := newMemoryRepo()
	for id, p := range r.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, cu := range r.customers {
		cc := *cu
		c.customers[id] = &cc
	}
	for id, b := range r.bills {
		cb := *b
		c.bills[id] = &cb
	}
	c.transactions = append([]ledger.StockTransaction(nil), r.transactions...)
	return c
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	before := r.snapshot()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.products = before.products
		r.customers = before.customers
		r.bills = before.bills
		r.transactions = before.transactions
		return err
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return Bill{}, shared.ErrNotFound
	}
	return *b, nil
}

func (r *memoryRepo) GetByNumber(ctx context.Context, no string) (Bill, error) {
	for _, b := range r.bills {
		if b.BillNo == no {
			return *b, nil
		}
	}
	return Bill{}, shared.ErrNotFound
}

func (r *memoryRepo) ListRecent(ctx context.Context, limit int) ([]Bill, error) {
	var out []Bill
	for _, b := range r.bills {
		if IsSynthetic(b.BillNo) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (tx *memoryTx) InsertBill(ctx context.Context, bill Bill) error {
	tx.repo.bills[bill.ID] = &bill
	return nil
}

func (tx *memoryTx) GetBillForUpdate(ctx context.Context, id string) (Bill, error) {
	b, ok := tx.repo.bills[id]
	if !ok {
		return Bill{}, shared.ErrNotFound
	}
	return *b, nil
}

func (tx *memoryTx) UpdateBill(ctx context.Context, bill Bill) error {
	tx.repo.bills[bill.ID] = &bill
	return nil
}

func (tx *memoryTx) CountBillsOn(ctx context.Context, day time.Time) (int, error) {
	count := 0
	for _, b := range tx.repo.bills {
		if IsSynthetic(b.BillNo) {
			continue
		}
		if b.Date.Format("2006-01-02") == day.Format("2006-01-02") {
			count++
		}
	}
	return count, nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, id string) (ProductState, error) {
	p, ok := tx.repo.products[id]
	if !ok {
		return ProductState{}, shared.ErrNotFound
	}
	return ProductState{Name: p.name, Price: p.price, MRP: p.price, Stock: p.stock, MinStock: p.minStock}, nil
}

func (tx *memoryTx) SetProductStock(ctx context.Context, id string, stock int) error {
	tx.repo.products[id].stock = stock
	return nil
}

func (tx *memoryTx) InsertLedgerEntry(ctx context.Context, t ledger.StockTransaction) error {
	tx.repo.transactions = append(tx.repo.transactions, t)
	return nil
}

func (tx *memoryTx) GetCustomerForUpdate(ctx context.Context, id string) (string, string, float64, error) {
	c, ok := tx.repo.customers[id]
	if !ok {
		return "", "", 0, shared.ErrNotFound
	}
	return c.name, c.phone, c.total, nil
}

func (tx *memoryTx) SetCustomerTotal(ctx context.Context, id string, total float64) error {
	tx.repo.customers[id].total = total
	return nil
}

func newFixture(policies Policies) (*memoryRepo, *Service) {
	repo := newMemoryRepo()
	repo.products["p1"] = &productState{name: "Rice 5kg", price: 250, stock: 20, minStock: 5}
	repo.products["p2"] = &productState{name: "Cooking Oil 1L", price: 180, stock: 8, minStock: 3}
	repo.customers["c1"] = &customerState{name: "Asha", phone: "9000000001"}
	svc := NewService(repo, nil, nil, policies)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return repo, svc
}

func TestCreateBill(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())

	bill, err := svc.Create(context.Background(), CreateInput{
		CustomerID:  "c1",
		Items:       []CreateItemInput{{ProductID: "p1", Quantity: 4}},
		DiscountPct: 10,
		GSTPct:      18,
		PaymentMode: PaymentCash,
	}, "")
	require.NoError(t, err)
	require.Equal(t, "MS2603010001", bill.BillNo)
	require.InDelta(t, 1000.0, bill.Subtotal, 1e-9)
	require.InDelta(t, 1062.0, bill.Total, 1e-9)
	require.Equal(t, "Asha", bill.CustomerName)

	require.Equal(t, 16, repo.products["p1"].stock)
	require.Len(t, repo.transactions, 1)
	require.Equal(t, ledger.TypeSale, repo.transactions[0].Type)
	require.Equal(t, -4, repo.transactions[0].Quantity)
	require.Equal(t, "MS2603010001", repo.transactions[0].Reference)
	require.InDelta(t, 1062.0, repo.customers["c1"].total, 1e-9)
}

func TestCreateBillEmptyCart(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())

	_, err := svc.Create(context.Background(), CreateInput{CustomerID: "c1"}, "")
	require.True(t, shared.IsValidation(err))
	require.Equal(t, 20, repo.products["p1"].stock)
	require.Empty(t, repo.transactions)
	require.Empty(t, repo.bills)
	require.InDelta(t, 0.0, repo.customers["c1"].total, 1e-9)
}

func TestCreateBillInsufficientStock(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())

	_, err := svc.Create(context.Background(), CreateInput{
		Items: []CreateItemInput{
			{ProductID: "p1", Quantity: 3},
			{ProductID: "p2", Quantity: 9},
		},
	}, "")
	require.ErrorIs(t, err, shared.ErrStockIntegrity)

	// The first line's decrement rolls back with everything else.
	require.Equal(t, 20, repo.products["p1"].stock)
	require.Equal(t, 8, repo.products["p2"].stock)
	require.Empty(t, repo.transactions)
	require.Empty(t, repo.bills)
}

func TestCreateBillWalkIn(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())

	bill, err := svc.Create(context.Background(), CreateInput{
		Items: []CreateItemInput{{ProductID: "p2", Quantity: 1}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, party.WalkInCustomerID, bill.CustomerID)
	require.Equal(t, "Walk-in Customer", bill.CustomerName)
	require.InDelta(t, 0.0, repo.customers["c1"].total, 1e-9)
}

func TestCreateBillSequencesWithinDay(t *testing.T) {
	_, svc := newFixture(DefaultPolicies())
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{Items: []CreateItemInput{{ProductID: "p1", Quantity: 1}}}, "")
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInput{Items: []CreateItemInput{{ProductID: "p1", Quantity: 1}}}, "")
	require.NoError(t, err)
	require.Equal(t, "MS2603010001", first.BillNo)
	require.Equal(t, "MS2603010002", second.BillNo)
}

func TestCreateBillBundledReturn(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())

	bill, err := svc.Create(context.Background(), CreateInput{
		Items:   []CreateItemInput{{ProductID: "p1", Quantity: 2}},
		Returns: []CreateReturnInput{{ProductID: "p2", Quantity: 1}},
	}, "")
	require.NoError(t, err)
	require.InDelta(t, 500.0, bill.Subtotal, 1e-9)
	require.InDelta(t, 180.0, bill.ReturnAmount, 1e-9)
	require.InDelta(t, 320.0, bill.Total, 1e-9)

	require.Equal(t, 9, repo.products["p2"].stock)
	require.Len(t, repo.transactions, 2)
	require.Equal(t, "RETURN-"+bill.BillNo, repo.transactions[1].Reference)
	require.Equal(t, 1, repo.transactions[1].Quantity)
}

func TestCreateBillWalletPayment(t *testing.T) {
	_, svc := newFixture(DefaultPolicies())

	bill, err := svc.Create(context.Background(), CreateInput{
		Items:       []CreateItemInput{{ProductID: "p1", Quantity: 1}},
		PaymentMode: PaymentWallet,
	}, "")
	require.NoError(t, err)
	require.Equal(t, PaymentWallet, bill.PaymentMode)
}

func TestCreateBillPaidAndChange(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())

	bill, err := svc.Create(context.Background(), CreateInput{
		CustomerID:  "c1",
		Items:       []CreateItemInput{{ProductID: "p1", Quantity: 4}},
		DiscountPct: 10,
		GSTPct:      18,
		PaidAmount:  1100,
		StaffID:     "s1",
		StaffName:   "Ravi",
	}, "")
	require.NoError(t, err)
	require.InDelta(t, 1062.0, bill.Total, 1e-9)
	require.InDelta(t, 1100.0, bill.PaidAmount, 1e-9)
	require.InDelta(t, 38.0, bill.ChangeAmount, 1e-9)
	require.Equal(t, "s1", bill.StaffID)
	require.Equal(t, "Ravi", bill.StaffName)
	require.Equal(t, "s1", repo.bills[bill.ID].StaffID)

	// When no tender is given the bill is recorded as paid in full.
	exact, err := svc.Create(context.Background(), CreateInput{
		Items: []CreateItemInput{{ProductID: "p2", Quantity: 1}},
	}, "")
	require.NoError(t, err)
	require.InDelta(t, exact.Total, exact.PaidAmount, 1e-9)
	require.InDelta(t, 0.0, exact.ChangeAmount, 1e-9)
}

func TestCreateBillCreditsTotalAfterBundledReturn(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())

	bill, err := svc.Create(context.Background(), CreateInput{
		CustomerID: "c1",
		Items:      []CreateItemInput{{ProductID: "p1", Quantity: 4}},
		Returns:    []CreateReturnInput{{ProductID: "p2", Quantity: 1}},
	}, "")
	require.NoError(t, err)
	require.InDelta(t, 820.0, bill.Total, 1e-9)
	// The running total takes the bill total, not the pre-return figure.
	require.InDelta(t, 820.0, repo.customers["c1"].total, 1e-9)
}

func TestAddReturn(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())
	ctx := context.Background()

	bill, err := svc.Create(ctx, CreateInput{
		CustomerID:  "c1",
		Items:       []CreateItemInput{{ProductID: "p1", Quantity: 4}},
		DiscountPct: 10,
		GSTPct:      18,
	}, "")
	require.NoError(t, err)

	updated, err := svc.AddReturn(ctx, bill.ID, ReturnInput{
		Lines: []CreateReturnInput{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	require.InDelta(t, 250.0, updated.ReturnAmount, 1e-9)
	// Subtotal policy: total collapses to subtotal minus returns.
	require.InDelta(t, 750.0, updated.Total, 1e-9)

	require.Equal(t, 17, repo.products["p1"].stock)
	last := repo.transactions[len(repo.transactions)-1]
	require.Equal(t, ledger.TypeReturn, last.Type)
	require.Equal(t, "RETURN-"+bill.BillNo, last.Reference)
}

func TestAddReturnPreserveTaxes(t *testing.T) {
	_, svc := newFixture(Policies{ReturnTotal: ReturnTotalPreserveTaxes, CustomerTotal: CustomerTotalGross})
	ctx := context.Background()

	bill, err := svc.Create(ctx, CreateInput{
		Items:       []CreateItemInput{{ProductID: "p1", Quantity: 4}},
		DiscountPct: 10,
		GSTPct:      18,
	}, "")
	require.NoError(t, err)

	updated, err := svc.AddReturn(ctx, bill.ID, ReturnInput{
		Lines: []CreateReturnInput{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	require.InDelta(t, 1062.0-250.0, updated.Total, 1e-9)
}

func TestAddReturnExceedsSold(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())
	ctx := context.Background()

	bill, err := svc.Create(ctx, CreateInput{
		Items: []CreateItemInput{{ProductID: "p1", Quantity: 2}},
	}, "")
	require.NoError(t, err)

	_, err = svc.AddReturn(ctx, bill.ID, ReturnInput{
		Lines: []CreateReturnInput{{ProductID: "p1", Quantity: 3}},
	})
	require.True(t, shared.IsValidation(err))
	require.Equal(t, 18, repo.products["p1"].stock)

	// A second return may only claim what is still outstanding.
	_, err = svc.AddReturn(ctx, bill.ID, ReturnInput{
		Lines: []CreateReturnInput{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = svc.AddReturn(ctx, bill.ID, ReturnInput{
		Lines: []CreateReturnInput{{ProductID: "p1", Quantity: 1}},
	})
	require.True(t, shared.IsValidation(err))
}

func TestAddReturnNetCustomerPolicy(t *testing.T) {
	repo, svc := newFixture(Policies{ReturnTotal: ReturnTotalSubtotal, CustomerTotal: CustomerTotalNet})
	ctx := context.Background()

	bill, err := svc.Create(ctx, CreateInput{
		CustomerID: "c1",
		Items:      []CreateItemInput{{ProductID: "p1", Quantity: 4}},
	}, "")
	require.NoError(t, err)
	require.InDelta(t, 1000.0, repo.customers["c1"].total, 1e-9)

	_, err = svc.AddReturn(ctx, bill.ID, ReturnInput{
		Lines: []CreateReturnInput{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	require.InDelta(t, 750.0, repo.customers["c1"].total, 1e-9)
}

type fakeIdem struct {
	keys    map[string]bool
	deleted []string
}

func (f *fakeIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeIdem) Delete(ctx context.Context, key string) error {
	delete(f.keys, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func TestCreateBillIdempotency(t *testing.T) {
	repo, svc := newFixture(DefaultPolicies())
	idem := &fakeIdem{keys: make(map[string]bool)}
	svc.idem = idem
	ctx := context.Background()

	input := CreateInput{Items: []CreateItemInput{{ProductID: "p1", Quantity: 1}}}
	_, err := svc.Create(ctx, input, "key-1")
	require.NoError(t, err)
	_, err = svc.Create(ctx, input, "key-1")
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Equal(t, 19, repo.products["p1"].stock)

	// A failed commit releases its key for retry.
	_, err = svc.Create(ctx, CreateInput{Items: []CreateItemInput{{ProductID: "p1", Quantity: 99}}}, "key-2")
	require.ErrorIs(t, err, shared.ErrStockIntegrity)
	require.Contains(t, idem.deleted, "key-2")
}
