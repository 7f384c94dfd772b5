package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/notify"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (Bill, error)
	GetByNumber(ctx context.Context, no string) (Bill, error)
	ListRecent(ctx context.Context, limit int) ([]Bill, error)
}

// IdempotencyPort guards duplicate bill commits.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

const idempotencyModule = "billing"

// MetricsRecorder counts committed bills and ledger rows. Satisfied by
// observability.Metrics.
type MetricsRecorder interface {
	BillCommitted()
	StockMutation(transactionType string)
}

type nopMetrics struct{}

func (nopMetrics) BillCommitted()       {}
func (nopMetrics) StockMutation(string) {}

// Policies carries the configurable money rules.
type Policies struct {
	ReturnTotal   ReturnTotalPolicy
	CustomerTotal CustomerTotalPolicy
}

// DefaultPolicies returns the stock behaviour: retroactive returns collapse
// the total to subtotal minus returns, and customers are credited the gross
// figure.
func DefaultPolicies() Policies {
	return Policies{ReturnTotal: ReturnTotalSubtotal, CustomerTotal: CustomerTotalGross}
}

// Service commits bills and keeps catalog stock, the ledger and customer
// totals in step with them.
type Service struct {
	repo     RepositoryPort
	idem     IdempotencyPort
	sink     notify.Sink
	metrics  MetricsRecorder
	policies Policies
	now      func() time.Time
}

// NewService builds Service. idem may be nil when idempotency keys are not
// used; sink may be nil.
func NewService(repo RepositoryPort, idem IdempotencyPort, sink notify.Sink, policies Policies) *Service {
	if sink == nil {
		sink = notify.NopSink{}
	}
	if !policies.ReturnTotal.Valid() {
		policies.ReturnTotal = ReturnTotalSubtotal
	}
	if !policies.CustomerTotal.Valid() {
		policies.CustomerTotal = CustomerTotalGross
	}
	return &Service{repo: repo, idem: idem, sink: sink, metrics: nopMetrics{}, policies: policies, now: time.Now}
}

// WithMetrics attaches a metrics recorder.
func (s *Service) WithMetrics(m MetricsRecorder) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Create commits a bill. Everything the commit implies, stock decrements,
// ledger rows, the customer's running total and the bill row itself, happens
// in one transaction; any failure leaves every store untouched.
func (s *Service) Create(ctx context.Context, input CreateInput, idempotencyKey string) (Bill, error) {
	v := &shared.ValidationError{}
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
		if it.DiscountPct < 0 || it.DiscountPct > 100 {
			v.Add(fmt.Sprintf("items[%d].discount_pct", i), "must be between 0 and 100")
		}
	}
	for i, rl := range input.Returns {
		if strings.TrimSpace(rl.ProductID) == "" {
			v.Add(fmt.Sprintf("returns[%d].product_id", i), "required")
		}
		if rl.Quantity <= 0 {
			v.Add(fmt.Sprintf("returns[%d].quantity", i), "must be positive")
		}
	}
	if input.DiscountPct < 0 || input.DiscountPct > 100 {
		v.Add("discount_pct", "must be between 0 and 100")
	}
	if input.GSTPct < 0 {
		v.Add("gst_pct", "must not be negative")
	}
	if input.PaidAmount < 0 {
		v.Add("paid_amount", "must not be negative")
	}
	if input.PaymentMode == "" {
		input.PaymentMode = PaymentCash
	}
	if !input.PaymentMode.Valid() {
		v.Add("payment_mode", "must be cash, card, upi or wallet")
	}
	if err := v.ErrOrNil(); err != nil {
		return Bill{}, err
	}

	if idempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			return Bill{}, err
		}
	}

	var bill Bill
	var lowStock []string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		now := s.now().UTC()
		bill = Bill{
			ID:          uuid.NewString(),
			Date:        now,
			DiscountPct: input.DiscountPct,
			GSTPct:      input.GSTPct,
			PaymentMode: input.PaymentMode,
			StaffID:     input.StaffID,
			StaffName:   input.StaffName,
		}

		customerID := strings.TrimSpace(input.CustomerID)
		if customerID == "" || customerID == party.WalkInCustomerID {
			walkIn := party.WalkIn()
			bill.CustomerID = walkIn.ID
			bill.CustomerName = walkIn.Name
			bill.CustomerPhone = walkIn.Phone
		} else {
			name, phone, _, err := tx.GetCustomerForUpdate(ctx, customerID)
			if err != nil {
				return err
			}
			bill.CustomerID = customerID
			bill.CustomerName = name
			bill.CustomerPhone = phone
		}

		for _, line := range input.Items {
			product, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < line.Quantity {
				return fmt.Errorf("product %s has %d in stock, %d requested: %w", product.Name, product.Stock, line.Quantity, shared.ErrStockIntegrity)
			}
			remaining := product.Stock - line.Quantity
			if err := tx.SetProductStock(ctx, line.ProductID, remaining); err != nil {
				return err
			}
			if remaining <= product.MinStock {
				lowStock = append(lowStock, product.Name)
			}
			bill.Items = append(bill.Items, BillItem{
				ProductID:   line.ProductID,
				ProductName: product.Name,
				BatchNo:     product.BatchNo,
				Quantity:    line.Quantity,
				Price:       product.Price,
				MRP:         product.MRP,
				DiscountPct: line.DiscountPct,
				LineTotal:   LineTotal(product.Price, line.Quantity, line.DiscountPct),
			})
		}

		for _, line := range input.Returns {
			product, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := tx.SetProductStock(ctx, line.ProductID, product.Stock+line.Quantity); err != nil {
				return err
			}
			bill.Returns = append(bill.Returns, ReturnLine{
				ProductID:   line.ProductID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       product.Price,
				LineTotal:   product.Price * float64(line.Quantity),
			})
		}

		totals := ComputeTotals(bill.Items, bill.Returns, bill.DiscountPct, bill.GSTPct)
		bill.Subtotal = totals.Subtotal
		bill.DiscountAmount = totals.DiscountAmount
		bill.GSTAmount = totals.GSTAmount
		bill.ReturnAmount = totals.ReturnAmount
		bill.Total = totals.Total

		bill.PaidAmount = input.PaidAmount
		if bill.PaidAmount == 0 {
			bill.PaidAmount = bill.Total
		}
		if bill.PaidAmount > bill.Total {
			bill.ChangeAmount = bill.PaidAmount - bill.Total
		}

		seq, err := tx.CountBillsOn(ctx, now)
		if err != nil {
			return err
		}
		bill.BillNo = BillNumber(now, seq+1)

		for _, it := range bill.Items {
			err := tx.InsertLedgerEntry(ctx, ledger.StockTransaction{
				ID:          uuid.NewString(),
				Type:        ledger.TypeSale,
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    -it.Quantity,
				OccurredAt:  now,
				Reference:   bill.BillNo,
				Notes:       "Sold to " + bill.CustomerName,
			})
			if err != nil {
				return err
			}
		}
		for _, rl := range bill.Returns {
			err := tx.InsertLedgerEntry(ctx, ledger.StockTransaction{
				ID:          uuid.NewString(),
				Type:        ledger.TypeReturn,
				ProductID:   rl.ProductID,
				ProductName: rl.ProductName,
				Quantity:    rl.Quantity,
				OccurredAt:  now,
				Reference:   "RETURN-" + bill.BillNo,
				Notes:       "Returned by " + bill.CustomerName,
			})
			if err != nil {
				return err
			}
		}

		if err := tx.InsertBill(ctx, bill); err != nil {
			return err
		}

		if bill.CustomerID != party.WalkInCustomerID {
			_, _, total, err := tx.GetCustomerForUpdate(ctx, bill.CustomerID)
			if err != nil {
				return err
			}
			return tx.SetCustomerTotal(ctx, bill.CustomerID, total+bill.Total)
		}
		return nil
	})
	if err != nil {
		if idempotencyKey != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, idempotencyKey)
		}
		return Bill{}, fmt.Errorf("billing: create: %w", err)
	}

	s.metrics.BillCommitted()
	for range bill.Items {
		s.metrics.StockMutation(string(ledger.TypeSale))
	}
	for range bill.Returns {
		s.metrics.StockMutation(string(ledger.TypeReturn))
	}
	s.sink.Notify(ctx, notify.KindSuccess, "Bill generated",
		fmt.Sprintf("Bill %s committed for %.2f", bill.BillNo, bill.Total))
	for _, name := range lowStock {
		s.sink.Notify(ctx, notify.KindWarning, "Low stock", name+" is at or below its minimum level")
	}
	return bill, nil
}

// AddReturn records a retroactive return against an existing bill. Stock
// comes back, return ledger rows reference the bill, and the stored total is
// recomputed under the configured policy.
func (s *Service) AddReturn(ctx context.Context, billID string, input ReturnInput) (Bill, error) {
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
		return Bill{}, err
	}

	var bill Bill
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		bill, err = tx.GetBillForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if IsSynthetic(bill.BillNo) {
			return shared.NewValidationError("bill", "returns cannot target a return record")
		}

		sold := make(map[string]*BillItem, len(bill.Items))
		for i := range bill.Items {
			sold[bill.Items[i].ProductID] = &bill.Items[i]
		}
		returned := make(map[string]int, len(bill.Returns))
		for _, rl := range bill.Returns {
			returned[rl.ProductID] += rl.Quantity
		}

		now := s.now().UTC()
		var refund float64
		lv := &shared.ValidationError{}
		for i, line := range input.Lines {
			item, ok := sold[line.ProductID]
			if !ok {
				lv.Add(fmt.Sprintf("lines[%d].product_id", i), "not on this bill")
				continue
			}
			if returned[line.ProductID]+line.Quantity > item.Quantity {
				lv.Add(fmt.Sprintf("lines[%d].quantity", i), "exceeds quantity sold")
				continue
			}
			returned[line.ProductID] += line.Quantity
		}
		if err := lv.ErrOrNil(); err != nil {
			return err
		}

		for _, line := range input.Lines {
			item := sold[line.ProductID]
			lineRefund := item.Price * float64(line.Quantity)
			refund += lineRefund
			bill.Returns = append(bill.Returns, ReturnLine{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    line.Quantity,
				Price:       item.Price,
				LineTotal:   lineRefund,
			})

			product, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := tx.SetProductStock(ctx, line.ProductID, product.Stock+line.Quantity); err != nil {
				return err
			}
			err = tx.InsertLedgerEntry(ctx, ledger.StockTransaction{
				ID:          uuid.NewString(),
				Type:        ledger.TypeReturn,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    line.Quantity,
				OccurredAt:  now,
				Reference:   "RETURN-" + bill.BillNo,
				Notes:       "Returned by " + bill.CustomerName,
			})
			if err != nil {
				return err
			}
		}

		totals := ComputeTotals(bill.Items, bill.Returns, bill.DiscountPct, bill.GSTPct)
		bill.ReturnAmount = totals.ReturnAmount
		bill.Total = RecomputeTotal(s.policies.ReturnTotal, totals)
		if err := tx.UpdateBill(ctx, bill); err != nil {
			return err
		}

		if s.policies.CustomerTotal == CustomerTotalNet && bill.CustomerID != party.WalkInCustomerID {
			_, _, total, err := tx.GetCustomerForUpdate(ctx, bill.CustomerID)
			if err != nil {
				return err
			}
			return tx.SetCustomerTotal(ctx, bill.CustomerID, total-refund)
		}
		return nil
	})
	if err != nil {
		return Bill{}, fmt.Errorf("billing: add return: %w", err)
	}
	for range input.Lines {
		s.metrics.StockMutation(string(ledger.TypeReturn))
	}
	s.sink.Notify(ctx, notify.KindSuccess, "Return recorded",
		fmt.Sprintf("Return recorded against bill %s", bill.BillNo))
	return bill, nil
}

// Get returns one bill by id.
func (s *Service) Get(ctx context.Context, id string) (Bill, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns one bill by bill number.
func (s *Service) GetByNumber(ctx context.Context, no string) (Bill, error) {
	return s.repo.GetByNumber(ctx, no)
}

// ListRecent returns the newest real sales, excluding synthetic return
// bills.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Bill, error) {
	return s.repo.ListRecent(ctx, limit)
}
