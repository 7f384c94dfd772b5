package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Synthetic bill number prefixes. Supplier and customer returns recorded
// outside a sale are stored as bills carrying these prefixes so they stay
// out of the regular sales views.
const (
	SupplierReturnPrefix = "PURCHASE-"
	CustomerReturnPrefix = "CUSTOMER-"
)

// BillNumber formats the nth bill of the given day. Numbers restart at 0001
// each day and embed the date, so they sort and group naturally.
func BillNumber(day time.Time, seq int) string {
	return fmt.Sprintf("MS%s%04d", day.Format("060102"), seq)
}

// SyntheticBillNumber builds the audit number for a return recorded as a
// bill. The timestamp keeps numbers grouped by day; the random tail keeps
// two returns in the same second from colliding on the unique bill number.
func SyntheticBillNumber(prefix string, at time.Time) string {
	return prefix + at.Format("20060102150405") + "-" + uuid.NewString()[:8]
}

// IsSynthetic reports whether no belongs to a return recorded as a bill
// rather than to a real sale.
func IsSynthetic(no string) bool {
	return strings.HasPrefix(no, SupplierReturnPrefix) || strings.HasPrefix(no, CustomerReturnPrefix)
}
