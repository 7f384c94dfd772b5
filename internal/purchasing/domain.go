package purchasing

import "time"

// PurchaseEntry is a supplier invoice. Immutable after creation; recording it
// is the sole trigger for catalog stock increase and purchase ledger rows.
type PurchaseEntry struct {
	ID           string         `json:"id"`
	SupplierID   string         `json:"supplier_id"`
	SupplierName string         `json:"supplier_name"`
	InvoiceNo    string         `json:"invoice_no"`
	Date         time.Time      `json:"date"`
	Items        []PurchaseItem `json:"items"`
	TotalAmount  float64        `json:"total_amount"`
}

// PurchaseItem is one received line, value-embedded in its entry.
type PurchaseItem struct {
	ProductID     string     `json:"product_id"`
	ProductName   string     `json:"product_name"`
	Quantity      int        `json:"quantity"`
	PurchasePrice float64    `json:"purchase_price"`
	BatchNo       string     `json:"batch_no"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
}

// RecordInput describes a purchase to record.
type RecordInput struct {
	SupplierID string
	InvoiceNo  string
	Date       time.Time
	Items      []RecordItemInput
}

// RecordItemInput is one requested line.
type RecordItemInput struct {
	ProductID     string
	Quantity      int
	PurchasePrice float64
	BatchNo       string
	ExpiryDate    *time.Time
}
