package auth

import "time"

// Staff is a counter operator. The password hash never leaves the package
// through JSON.
type Staff struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Roles. Admin unlocks the snapshot endpoints.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// RegisterInput describes a new staff account.
type RegisterInput struct {
	Username string
	Name     string
	Role     string
	Password string
}
