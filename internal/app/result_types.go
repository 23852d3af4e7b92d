package app

import (
	"pos-platform/internal/core"

	"github.com/shopspring/decimal"
)

// UserSession is returned by AuthenticateUser and carried in the JWT claims.
type UserSession struct {
	UserID   int    `json:"user_id"`
	TenantID int    `json:"tenant_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ProductResult is returned by single-product operations. Availability is the
// live sellable quantity, derived for composites.
type ProductResult struct {
	Product      *core.Product    `json:"product"`
	Availability *decimal.Decimal `json:"availability,omitempty"`
}

// ProductListResult is returned by ListProducts and GetLowStock.
type ProductListResult struct {
	Products []core.Product `json:"products"`
}

// OrderResult is returned by order lifecycle operations.
type OrderResult struct {
	Order *core.Order `json:"order"`
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.Order `json:"orders"`
}

// AssistantResult is returned by AskAssistant.
type AssistantResult struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Insights []string `json:"insights,omitempty"`
}
