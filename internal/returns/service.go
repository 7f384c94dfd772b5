package returns

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medishop/medishop/internal/billing"
	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/notify"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// CustomerDirectory resolves customer ids. Satisfied by party.Service.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id string) (party.Customer, error)
}

// Customer return ledger rows share one reference; supplier returns
// reference the invoice they reverse.
const customerReturnReference = "CUST-RET"

// Service processes returns outside the regular billing flow. Both kinds
// leave a synthetic bill behind so the money trail survives, numbered with a
// prefix that keeps them out of the sales views.
type Service struct {
	repo      RepositoryPort
	customers CustomerDirectory
	sink      notify.Sink
	now       func() time.Time
}

// NewService builds Service. sink may be nil.
func NewService(repo RepositoryPort, customers CustomerDirectory, sink notify.Sink) *Service {
	if sink == nil {
		sink = notify.NopSink{}
	}
	return &Service{repo: repo, customers: customers, sink: sink, now: time.Now}
}

// ReturnToSupplier sends goods from a recorded purchase back to the
// supplier. Each line may return a different quantity, capped at what the
// invoice delivered minus what earlier returns already sent back. Stock
// drops, negative return rows reference RET-<invoice no>, and a synthetic
// PURCHASE- bill records the refund value at purchase price.
func (s *Service) ReturnToSupplier(ctx context.Context, input SupplierReturnInput) (billing.Bill, error) {
	v := &shared.ValidationError{}
	if strings.TrimSpace(input.PurchaseID) == "" {
		v.Add("purchase_id", "required")
	}
	if len(input.Quantities) == 0 {
		v.Add("quantities", "at least one product required")
	}
	for productID, qty := range input.Quantities {
		if qty <= 0 {
			v.Add("quantities."+productID, "must be positive")
		}
	}
	if err := v.ErrOrNil(); err != nil {
		return billing.Bill{}, err
	}

	// Map iteration order is random; process lines deterministically.
	productIDs := make([]string, 0, len(input.Quantities))
	for id := range input.Quantities {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	var bill billing.Bill
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetPurchaseEntry(ctx, input.PurchaseID)
		if err != nil {
			return err
		}
		reference := "RET-" + entry.InvoiceNo

		purchased := make(map[string]int, len(entry.Items))
		prices := make(map[string]float64, len(entry.Items))
		for _, it := range entry.Items {
			purchased[it.ProductID] += it.Quantity
			prices[it.ProductID] = it.PurchasePrice
		}

		lv := &shared.ValidationError{}
		for _, productID := range productIDs {
			qty := input.Quantities[productID]
			bought, ok := purchased[productID]
			if !ok {
				lv.Add("quantities."+productID, "not on this purchase")
				continue
			}
			already, err := tx.ReturnedQuantity(ctx, reference, productID)
			if err != nil {
				return err
			}
			if already+qty > bought {
				lv.Add("quantities."+productID, "exceeds quantity purchased")
			}
		}
		if err := lv.ErrOrNil(); err != nil {
			return err
		}

		now := s.now().UTC()
		var refund float64
		var lines []billing.ReturnLine
		for _, productID := range productIDs {
			qty := input.Quantities[productID]
			name, _, stock, err := tx.GetProductForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			if stock < qty {
				return fmt.Errorf("product %s has %d in stock, %d to return: %w", name, stock, qty, shared.ErrStockIntegrity)
			}
			if err := tx.SetProductStock(ctx, productID, stock-qty); err != nil {
				return err
			}
			err = tx.InsertLedgerEntry(ctx, ledger.StockTransaction{
				ID:          uuid.NewString(),
				Type:        ledger.TypeReturn,
				ProductID:   productID,
				ProductName: name,
				Quantity:    -qty,
				OccurredAt:  now,
				Reference:   reference,
				Notes:       "Returned to " + entry.SupplierName,
			})
			if err != nil {
				return err
			}
			price := prices[productID]
			lines = append(lines, billing.ReturnLine{
				ProductID:   productID,
				ProductName: name,
				Quantity:    qty,
				Price:       price,
				LineTotal:   price * float64(qty),
			})
			refund += price * float64(qty)
		}

		bill = billing.Bill{
			ID:            uuid.NewString(),
			BillNo:        billing.SyntheticBillNumber(billing.SupplierReturnPrefix, now),
			CustomerID:    entry.SupplierID,
			CustomerName:  entry.SupplierName,
			CustomerPhone: "N/A",
			Date:          now,
			Returns:       lines,
			ReturnAmount:  refund,
			Total:         refund,
			PaymentMode:   billing.PaymentCash,
		}
		return tx.InsertBill(ctx, bill)
	})
	if err != nil {
		return billing.Bill{}, fmt.Errorf("returns: to supplier: %w", err)
	}
	s.sink.Notify(ctx, notify.KindSuccess, "Supplier return recorded",
		fmt.Sprintf("Return %s recorded for %.2f", bill.BillNo, bill.Total))
	return bill, nil
}

// ReturnFromCustomer takes goods back outside any bill. Stock rises,
// positive return rows carry the shared CUST-RET reference, and a synthetic
// CUSTOMER- bill records the refund value at selling price.
func (s *Service) ReturnFromCustomer(ctx context.Context, input CustomerReturnInput) (billing.Bill, error) {
	v := &shared.ValidationError{}
	if len(input.Lines) == 0 {
		v.Add("lines", "at least one line required")
	}
	for i, line := range input.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			v.Add(fmt.Sprintf("lines[%d].product_id", i), "required")
		}
		if line.Quantity <= 0 {
			v.Add(fmt.Sprintf("lines[%d].quantity", i), "must be positive")
		}
	}
	if err := v.ErrOrNil(); err != nil {
		return billing.Bill{}, err
	}

	customer := party.WalkIn()
	if id := strings.TrimSpace(input.CustomerID); id != "" && id != party.WalkInCustomerID {
		resolved, err := s.customers.GetCustomer(ctx, id)
		if err != nil {
			return billing.Bill{}, fmt.Errorf("returns: resolve customer: %w", err)
		}
		customer = resolved
	}

	var bill billing.Bill
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		now := s.now().UTC()
		var refund float64
		var lines []billing.ReturnLine
		for _, line := range input.Lines {
			name, price, stock, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := tx.SetProductStock(ctx, line.ProductID, stock+line.Quantity); err != nil {
				return err
			}
			err = tx.InsertLedgerEntry(ctx, ledger.StockTransaction{
				ID:          uuid.NewString(),
				Type:        ledger.TypeReturn,
				ProductID:   line.ProductID,
				ProductName: name,
				Quantity:    line.Quantity,
				OccurredAt:  now,
				Reference:   customerReturnReference,
				Notes:       "Returned by " + customer.Name,
			})
			if err != nil {
				return err
			}
			lines = append(lines, billing.ReturnLine{
				ProductID:   line.ProductID,
				ProductName: name,
				Quantity:    line.Quantity,
				Price:       price,
				LineTotal:   price * float64(line.Quantity),
			})
			refund += price * float64(line.Quantity)
		}

		bill = billing.Bill{
			ID:            uuid.NewString(),
			BillNo:        billing.SyntheticBillNumber(billing.CustomerReturnPrefix, now),
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			CustomerPhone: customer.Phone,
			Date:          now,
			Returns:       lines,
			ReturnAmount:  refund,
			Total:         refund,
			PaymentMode:   billing.PaymentCash,
		}
		return tx.InsertBill(ctx, bill)
	})
	if err != nil {
		return billing.Bill{}, fmt.Errorf("returns: from customer: %w", err)
	}
	s.sink.Notify(ctx, notify.KindSuccess, "Customer return recorded",
		fmt.Sprintf("Return %s recorded for %.2f", bill.BillNo, bill.Total))
	return bill, nil
}
