package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashSession is one cashier drawer period. At most one session per tenant is
// open at a time; the closing fields stay nil until the session closes.
type CashSession struct {
	ID             int              `json:"id"`
	TenantID       int              `json:"tenant_id"`
	OpenedBy       int              `json:"opened_by"`
	OpeningAmount  decimal.Decimal  `json:"opening_amount"`
	Status         string           `json:"status"`
	OpenedAt       time.Time        `json:"opened_at"`
	ClosingAmount  *decimal.Decimal `json:"closing_amount,omitempty"`
	ExpectedAmount *decimal.Decimal `json:"expected_amount,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
	ClosedBy       *int             `json:"closed_by,omitempty"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
}

// CashMovement is a manual deposit or withdrawal inside a session.
type CashMovement struct {
	ID           int             `json:"id"`
	SessionID    int             `json:"session_id"`
	UserID       int             `json:"user_id"`
	MovementType string          `json:"movement_type"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	CreatedAt    time.Time       `json:"created_at"`
}

const (
	CashMovementDeposit    = "deposit"
	CashMovementWithdrawal = "withdrawal"
)

const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// CashSessionSummary is the live reconciliation view of an open session.
type CashSessionSummary struct {
	Session     CashSession     `json:"session"`
	CashSales   decimal.Decimal `json:"cash_sales"`
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	Expected    decimal.Decimal `json:"expected"`
}
