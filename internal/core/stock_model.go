package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies an inventory ledger row.
type MovementType string

const (
	MovementSale          MovementType = "sale"
	MovementAdjustmentIn  MovementType = "adjustment_in"
	MovementAdjustmentOut MovementType = "adjustment_out"
	MovementWaste         MovementType = "waste"
	MovementReturn        MovementType = "return"
)

// InventoryMovement is an append-only stock ledger row. Every stock change of
// a non-composite product produces exactly one row recording the before/after
// values; rows are never modified once written.
type InventoryMovement struct {
	ID            int             `json:"id"`
	TenantID      int             `json:"tenant_id"`
	ProductID     int             `json:"product_id"`
	ProductName   string          `json:"product_name"` // joined from products
	UserID        int             `json:"user_id"`
	MovementType  MovementType    `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	Reason        string          `json:"reason"`
	CreatedAt     time.Time       `json:"created_at"`
}
