package reports

import "time"

// DailySummary aggregates one day of real sales. Synthetic return bills are
// excluded from every figure.
type DailySummary struct {
	Date           time.Time `json:"date"`
	BillCount      int       `json:"bill_count"`
	GrossSales     float64   `json:"gross_sales"`
	Discounts      float64   `json:"discounts"`
	GST            float64   `json:"gst"`
	Returns        float64   `json:"returns"`
	NetSales       float64   `json:"net_sales"`
	NetSalesPretty string    `json:"net_sales_pretty"`
}

// ProductSales is one product's sold volume for a day.
type ProductSales struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Amount      float64 `json:"amount"`
}

// StockLine is one product's position in the stock report. Consistent is
// false when the ledger deltas no longer explain the stored quantity.
type StockLine struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
	InitialStock int    `json:"initial_stock"`
	LedgerDelta  int    `json:"ledger_delta"`
	Consistent   bool   `json:"consistent"`
}
