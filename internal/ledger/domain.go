package ledger

import "time"

// TransactionType enumerates stock-affecting events.
type TransactionType string

const (
	// TypePurchase records goods received from a supplier.
	TypePurchase TransactionType = "purchase"
	// TypeSale records goods sold on a bill.
	TypeSale TransactionType = "sale"
	// TypeReturn records goods moving back (to stock or to a supplier).
	TypeReturn TransactionType = "return"
	// TypeAdjustment records a manual correction.
	TypeAdjustment TransactionType = "adjustment"
)

// StockTransaction is one append-only ledger row. Quantity is a signed delta:
// sales and supplier returns are negative, purchases and customer returns are
// positive. Rows are never updated or deleted after insert.
type StockTransaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes,omitempty"`
}

// Filter narrows ledger reads.
type Filter struct {
	ProductID string
	Type      TransactionType
	From      time.Time
	To        time.Time
	Limit     int
}

// Reconciliation is the derived read-side check over one product: the sum of
// ledger deltas must equal currentStock - initialStock.
type Reconciliation struct {
	ProductID    string `json:"product_id"`
	LedgerDelta  int    `json:"ledger_delta"`
	CurrentStock int    `json:"current_stock"`
	InitialStock int    `json:"initial_stock"`
	Consistent   bool   `json:"consistent"`
}
