package core

import "time"

// User is an operator account scoped to a tenant.
type User struct {
	ID           int       `json:"id"`
	TenantID     int       `json:"tenant_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
