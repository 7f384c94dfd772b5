package returns

// SupplierReturnInput sends goods from a purchase entry back to its
// supplier. Quantities maps product id to units returned, per line, so a
// partial return can differ across products on the same invoice.
type SupplierReturnInput struct {
	PurchaseID string
	Quantities map[string]int
	Reason     string
}

// CustomerReturnInput takes goods back from a customer outside any bill.
type CustomerReturnInput struct {
	CustomerID string
	Lines      []CustomerReturnLine
	Reason     string
}

// CustomerReturnLine is one returned product.
type CustomerReturnLine struct {
	ProductID string
	Quantity  int
}
