package catalog

import (
	"errors"
	"time"
)

// Product is a sellable catalog item with stock and pricing. Stock is never
// mutated directly by callers; sales, purchases and returns adjust it inside
// their own transactions.
type Product struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Brand         string     `json:"brand"`
	Category      string     `json:"category"`
	Barcode       string     `json:"barcode,omitempty"`
	HSNCode       string     `json:"hsn_code,omitempty"`
	BatchNo       string     `json:"batch_no"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	MRP           float64    `json:"mrp"`
	PurchasePrice float64    `json:"purchase_price"`
	SellingPrice  float64    `json:"selling_price"`
	StockQuantity int        `json:"stock_quantity"`
	MinStockLevel int        `json:"min_stock_level"`
	AddedAt       time.Time  `json:"added_at"`
}

// LowStock reports whether the product is at or below its reorder threshold.
func (p Product) LowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// CreateInput describes a new catalog item.
type CreateInput struct {
	Name          string
	Brand         string
	Category      string
	Barcode       string
	HSNCode       string
	BatchNo       string
	ExpiryDate    *time.Time
	MRP           float64
	PurchasePrice float64
	SellingPrice  float64
	StockQuantity int
	MinStockLevel int
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name          *string
	Brand         *string
	Category      *string
	Barcode       *string
	HSNCode       *string
	BatchNo       *string
	ExpiryDate    *time.Time
	MRP           *float64
	PurchasePrice *float64
	SellingPrice  *float64
	MinStockLevel *int
}

// ErrProductReferenced is returned when deleting a product that appears on a
// bill; billed products stay resolvable for returns and audits.
var ErrProductReferenced = errors.New("catalog: product is referenced by bills")
