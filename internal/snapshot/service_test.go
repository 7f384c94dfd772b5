package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medishop/medishop/internal/billing"
	"github.com/medishop/medishop/internal/catalog"
	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/party"
)

type memoryRepo struct {
	stored Snapshot
}

func (r *memoryRepo) Export(ctx context.Context) (Snapshot, error) {
	return r.stored, nil
}

func (r *memoryRepo) Import(ctx context.Context, s Snapshot) error {
	r.stored = s
	return nil
}

func TestSnapshotRoundTrip(t *testing.T) {
	added := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	source := &memoryRepo{stored: Snapshot{
		Products: []ProductRecord{{
			Product: catalog.Product{
				ID: "p1", Name: "Rice 5kg", SellingPrice: 250, MRP: 260,
				StockQuantity: 12, MinStockLevel: 5, AddedAt: added,
			},
			InitialStock: 10,
		}},
		Customers: []party.Customer{{ID: "c1", Name: "Asha", Phone: "9000000001", RegisteredAt: added}},
		Bills: []billing.Bill{{
			ID: "b1", BillNo: "MS2602010001", CustomerID: "c1", CustomerName: "Asha", Date: added,
			Items:    []billing.BillItem{{ProductID: "p1", ProductName: "Rice 5kg", Quantity: 2, Price: 250, LineTotal: 500}},
			Subtotal: 500, Total: 500, PaymentMode: billing.PaymentCash,
		}},
		Transactions: []ledger.StockTransaction{{
			ID: "t1", Type: ledger.TypeSale, ProductID: "p1", Quantity: -2,
			OccurredAt: added, Reference: "MS2602010001",
		}},
	}}

	data, err := NewService(source).ExportJSON(context.Background())
	require.NoError(t, err)

	target := &memoryRepo{}
	require.NoError(t, NewService(target).ImportJSON(context.Background(), data))

	require.Equal(t, source.stored.Products, target.stored.Products)
	require.Equal(t, source.stored.Customers, target.stored.Customers)
	require.Equal(t, source.stored.Bills, target.stored.Bills)
	require.Equal(t, source.stored.Transactions, target.stored.Transactions)
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	svc := NewService(&memoryRepo{})
	err := svc.ImportJSON(context.Background(), []byte(`{"version": 99}`))
	require.Error(t, err)
}

func TestImportRejectsGarbage(t *testing.T) {
	svc := NewService(&memoryRepo{})
	err := svc.ImportJSON(context.Background(), []byte(`not json`))
	require.Error(t, err)
}
