package core

import "time"

// Tenant is an isolated business account. Every entity in the system is
// scoped by a tenant id; no data crosses tenants.
type Tenant struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleAdmin   = "admin"
	RoleSeller  = "seller"
	RoleCashier = "cashier"
)
