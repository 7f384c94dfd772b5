package party

import "time"

// WalkInCustomerID is the sentinel id for anonymous sales. The walk-in
// customer is never persisted; billing treats it as "no customer on record".
const WalkInCustomerID = "walk-in"

// Customer is a registered buyer with a running purchase total.
type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Address        string    `json:"address,omitempty"`
	RegisteredAt   time.Time `json:"registered_at"`
	TotalPurchases float64   `json:"total_purchases"`
}

// WalkIn returns the non-persisted sentinel customer.
func WalkIn() Customer {
	return Customer{ID: WalkInCustomerID, Name: "Walk-in Customer", Phone: "N/A"}
}

// Supplier is a goods source referenced by purchase entries.
type Supplier struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	Address      string    `json:"address,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// CustomerInput describes a new customer.
type CustomerInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// CustomerUpdate carries a partial update; nil fields stay untouched.
// TotalPurchases is absent on purpose: only billing moves it.
type CustomerUpdate struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
}

// SupplierInput describes a new supplier.
type SupplierInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// SupplierUpdate carries a partial supplier update.
type SupplierUpdate struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
}
