package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBillNumber(t *testing.T) {
	day := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	require.Equal(t, "MS2603010001", BillNumber(day, 1))
	require.Equal(t, "MS2603010042", BillNumber(day, 42))
}

func TestSyntheticBillNumber(t *testing.T) {
	at := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	first := SyntheticBillNumber(SupplierReturnPrefix, at)
	second := SyntheticBillNumber(SupplierReturnPrefix, at)

	require.True(t, IsSynthetic(first))
	require.Contains(t, first, "PURCHASE-20260301143000-")
	// Same-second returns still get distinct bill numbers.
	require.NotEqual(t, first, second)
}

func TestIsSynthetic(t *testing.T) {
	require.True(t, IsSynthetic("PURCHASE-20260301143000"))
	require.True(t, IsSynthetic("CUSTOMER-20260301143000"))
	require.False(t, IsSynthetic("MS2603010001"))
}
