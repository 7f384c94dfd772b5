package billing

import "time"

// PaymentMode enumerates how a bill was settled.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "cash"
	PaymentCard   PaymentMode = "card"
	PaymentUPI    PaymentMode = "upi"
	PaymentWallet PaymentMode = "wallet"
)

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentWallet:
		return true
	}
	return false
}

// Bill is a committed point-of-sale transaction. Sold and returned lines are
// kept in separate collections, both with strictly positive quantities.
type Bill struct {
	ID             string       `json:"id"`
	BillNo         string       `json:"bill_no"`
	CustomerID     string       `json:"customer_id"`
	CustomerName   string       `json:"customer_name"`
	CustomerPhone  string       `json:"customer_phone"`
	Date           time.Time    `json:"date"`
	Items          []BillItem   `json:"items"`
	Returns        []ReturnLine `json:"returns,omitempty"`
	Subtotal       float64      `json:"subtotal"`
	DiscountPct    float64      `json:"discount_pct"`
	DiscountAmount float64      `json:"discount_amount"`
	GSTPct         float64      `json:"gst_pct"`
	GSTAmount      float64      `json:"gst_amount"`
	ReturnAmount   float64      `json:"return_amount"`
	Total          float64      `json:"total"`
	PaidAmount     float64      `json:"paid_amount"`
	ChangeAmount   float64      `json:"change_amount"`
	PaymentMode    PaymentMode  `json:"payment_mode"`
	StaffID        string       `json:"staff_id,omitempty"`
	StaffName      string       `json:"staff_name,omitempty"`
}

// BillItem is one sold line. Quantity is always positive; LineTotal already
// carries the per-line discount.
type BillItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	BatchNo     string  `json:"batch_no,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	MRP         float64 `json:"mrp"`
	DiscountPct float64 `json:"discount_pct"`
	LineTotal   float64 `json:"line_total"`
}

// ReturnLine is one returned line. Quantity is always positive; LineTotal is
// the refund value for the line.
type ReturnLine struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	LineTotal   float64 `json:"line_total"`
}

// CreateInput describes a bill to commit.
type CreateInput struct {
	CustomerID  string
	Items       []CreateItemInput
	Returns     []CreateReturnInput
	DiscountPct float64
	GSTPct      float64
	PaidAmount  float64
	PaymentMode PaymentMode
	StaffID     string
	StaffName   string
}

// CreateItemInput is one requested sale line. Price is read from the catalog
// at commit time, not from the caller.
type CreateItemInput struct {
	ProductID   string
	Quantity    int
	DiscountPct float64
}

// CreateReturnInput is one return bundled into a new bill.
type CreateReturnInput struct {
	ProductID string
	Quantity  int
}

// ReturnInput describes a retroactive return against an existing bill.
type ReturnInput struct {
	Lines []CreateReturnInput
}
