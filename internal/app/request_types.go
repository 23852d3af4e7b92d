package app

import (
	"pos-platform/internal/core"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the input for opening a new order.
type CreateOrderRequest struct {
	TenantID int
	SellerID int
	Notes    string
	Items    []core.OrderItemInput
}

// PayOrderRequest is the input for settling an in_cashier order.
type PayOrderRequest struct {
	TenantID       int
	CashierID      int
	OrderID        int
	Tenders        []core.Tender
	AmountReceived *decimal.Decimal
	Change         *decimal.Decimal
}

// AdjustStockRequest is the input for a manual inventory movement.
type AdjustStockRequest struct {
	TenantID     int
	UserID       int
	ProductID    int
	MovementType core.MovementType
	Quantity     decimal.Decimal
	Reason       string
}

// CashMovementRequest is the input for a manual drawer movement.
type CashMovementRequest struct {
	TenantID     int
	UserID       int
	MovementType string
	Amount       decimal.Decimal
	Reason       string
}
