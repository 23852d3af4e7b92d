package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state.
// Status progresses through the state machine:
//
//	draft → pending → in_cashier → paid
//	in_cashier → pending (cashier releases the order back to the queue)
//	draft/pending/in_cashier → cancelled
//
// paid and cancelled are terminal.
type OrderStatus string

const (
	StatusDraft     OrderStatus = "draft"
	StatusPending   OrderStatus = "pending"
	StatusInCashier OrderStatus = "in_cashier"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
)

// Payment method tags stored on the order header. An order settled with more
// than one tender is tagged "mixed" and keeps the full breakdown in
// PaymentDetails.
const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"
	MethodMixed    = "mixed"
)

// Order is a customer order header. Total always equals Subtotal at creation
// (no tax/discount layer). PaymentDetails holds the raw JSON snapshot written
// at payment time; consumers parse it tolerantly, see ParsePaymentDetails.
type Order struct {
	ID             int             `json:"id"`
	PublicID       uuid.UUID       `json:"public_id"`
	TenantID       int             `json:"tenant_id"`
	OrderNumber    int64           `json:"order_number"`
	SellerID       int             `json:"seller_id"`
	CashierID      *int            `json:"cashier_id,omitempty"`
	Status         OrderStatus     `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  *string         `json:"payment_method,omitempty"`
	PaymentDetails []byte          `json:"payment_details,omitempty"`
	CashSessionID  *int            `json:"cash_session_id,omitempty"`
	Notes          string          `json:"notes"`
	CancelReason   *string         `json:"cancel_reason,omitempty"`
	Items          []OrderItem     `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ShortID is the first segment of the order's public id, used in
// human-readable references such as inventory movement reasons.
func (o *Order) ShortID() string {
	return o.PublicID.String()[:8]
}

// OrderItem is one line on an order. UnitPrice is snapshotted from the
// product at order-creation time and never re-read.
type OrderItem struct {
	ID          int             `json:"id"`
	OrderID     int             `json:"order_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"` // joined from products
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Note        string          `json:"note"`
}

// OrderItemInput is used when creating an order. Prices are resolved
// server-side from the live product row; client-submitted prices are ignored.
type OrderItemInput struct {
	ProductID int    `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note"`
}

// Tender is one payment instrument amount within a (possibly split) payment.
type Tender struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentDetails is the structured snapshot of a completed payment stored on
// the order row. AmountReceived and Change are meaningful for cash tenders only.
type PaymentDetails struct {
	Tenders        []Tender         `json:"tenders"`
	AmountReceived *decimal.Decimal `json:"amount_received,omitempty"`
	Change         *decimal.Decimal `json:"change,omitempty"`
}
