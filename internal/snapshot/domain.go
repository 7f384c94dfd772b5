package snapshot

import (
	"time"

	"github.com/medishop/medishop/internal/billing"
	"github.com/medishop/medishop/internal/catalog"
	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/purchasing"
)

// Version is bumped whenever the snapshot shape changes incompatibly.
const Version = 1

// ProductRecord extends the catalog product with its initial stock, which
// the reconciliation invariant needs to survive a round trip.
type ProductRecord struct {
	catalog.Product
	InitialStock int `json:"initial_stock"`
}

// Snapshot is a full copy of every store, keyed per collection. Import
// replaces the database content with it wholesale.
type Snapshot struct {
	Version      int                        `json:"version"`
	ExportedAt   time.Time                  `json:"exported_at"`
	Products     []ProductRecord            `json:"products"`
	Customers    []party.Customer           `json:"customers"`
	Suppliers    []party.Supplier           `json:"suppliers"`
	Bills        []billing.Bill             `json:"bills"`
	Purchases    []purchasing.PurchaseEntry `json:"purchases"`
	Transactions []ledger.StockTransaction  `json:"stock_transactions"`
}
