package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	items := []BillItem{
		{ProductID: "p1", Quantity: 4, Price: 250, LineTotal: LineTotal(250, 4, 0)},
	}

	totals := ComputeTotals(items, nil, 10, 18)
	require.InDelta(t, 1000.0, totals.Subtotal, 1e-9)
	require.InDelta(t, 100.0, totals.DiscountAmount, 1e-9)
	require.InDelta(t, 162.0, totals.GSTAmount, 1e-9)
	require.InDelta(t, 1062.0, totals.Total, 1e-9)
}

func TestComputeTotalsWithReturns(t *testing.T) {
	items := []BillItem{
		{ProductID: "p1", Quantity: 2, Price: 100, LineTotal: LineTotal(100, 2, 0)},
	}
	returns := []ReturnLine{
		{ProductID: "p2", Quantity: 1, Price: 50, LineTotal: 50},
	}

	totals := ComputeTotals(items, returns, 0, 0)
	require.InDelta(t, 200.0, totals.Subtotal, 1e-9)
	require.InDelta(t, 50.0, totals.ReturnAmount, 1e-9)
	require.InDelta(t, 150.0, totals.Total, 1e-9)
}

func TestLineTotalDiscount(t *testing.T) {
	require.InDelta(t, 90.0, LineTotal(100, 1, 10), 1e-9)
	require.InDelta(t, 100.0, LineTotal(50, 2, 0), 1e-9)
}

func TestRecomputeTotalPolicies(t *testing.T) {
	totals := Totals{Subtotal: 1000, DiscountAmount: 100, GSTAmount: 162, ReturnAmount: 200}

	require.InDelta(t, 800.0, RecomputeTotal(ReturnTotalSubtotal, totals), 1e-9)
	require.InDelta(t, 862.0, RecomputeTotal(ReturnTotalPreserveTaxes, totals), 1e-9)
}

func TestCustomerTotalPolicyValid(t *testing.T) {
	require.True(t, CustomerTotalGross.Valid())
	require.True(t, CustomerTotalNet.Valid())
	require.False(t, CustomerTotalPolicy("lifetime").Valid())
}
