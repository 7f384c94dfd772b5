package billing

// Totals is the money breakdown of a bill, derived entirely from its lines
// and the two bill-level percentages.
type Totals struct {
	Subtotal       float64
	DiscountAmount float64
	GSTAmount      float64
	ReturnAmount   float64
	Total          float64
}

// LineTotal computes a sold line's value after its per-line discount.
func LineTotal(price float64, quantity int, discountPct float64) float64 {
	return price * float64(quantity) * (1 - discountPct/100)
}

// ComputeTotals derives the bill breakdown. The bill-level discount applies
// to the subtotal, GST applies after the discount, and returns come off the
// very end without reducing the taxed base.
func ComputeTotals(items []BillItem, returns []ReturnLine, discountPct, gstPct float64) Totals {
	var t Totals
	for _, it := range items {
		t.Subtotal += it.LineTotal
	}
	t.DiscountAmount = t.Subtotal * discountPct / 100
	afterDiscount := t.Subtotal - t.DiscountAmount
	t.GSTAmount = afterDiscount * gstPct / 100
	for _, rl := range returns {
		t.ReturnAmount += rl.LineTotal
	}
	t.Total = afterDiscount + t.GSTAmount - t.ReturnAmount
	return t
}

// ReturnTotalPolicy selects how a retroactive return recomputes the bill
// total.
type ReturnTotalPolicy string

const (
	// ReturnTotalSubtotal collapses the total to subtotal minus returns,
	// dropping the bill discount and GST from the stored total.
	ReturnTotalSubtotal ReturnTotalPolicy = "subtotal"
	// ReturnTotalPreserveTaxes keeps the discount and GST in the total and
	// subtracts returns from the full figure.
	ReturnTotalPreserveTaxes ReturnTotalPolicy = "preserve_taxes"
)

// Valid reports whether p is a known policy.
func (p ReturnTotalPolicy) Valid() bool {
	return p == ReturnTotalSubtotal || p == ReturnTotalPreserveTaxes
}

// RecomputeTotal applies p to a bill whose returns changed after commit.
func RecomputeTotal(p ReturnTotalPolicy, t Totals) float64 {
	if p == ReturnTotalPreserveTaxes {
		return t.Subtotal - t.DiscountAmount + t.GSTAmount - t.ReturnAmount
	}
	return t.Subtotal - t.ReturnAmount
}

// CustomerTotalPolicy selects whether a retroactive return decrements the
// customer's running purchase total. A commit always credits the bill total.
type CustomerTotalPolicy string

const (
	// CustomerTotalGross leaves the running total untouched by later
	// returns; it records purchases ever made.
	CustomerTotalGross CustomerTotalPolicy = "gross"
	// CustomerTotalNet subtracts the refund, keeping the total at net
	// spend.
	CustomerTotalNet CustomerTotalPolicy = "net"
)

// Valid reports whether p is a known policy.
func (p CustomerTotalPolicy) Valid() bool {
	return p == CustomerTotalGross || p == CustomerTotalNet
}
