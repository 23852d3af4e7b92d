package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySales is one calendar day's aggregate over paid orders.
type DailySales struct {
	Day        time.Time       `json:"day"`
	OrderCount int             `json:"order_count"`
	Total      decimal.Decimal `json:"total"`
}

// MethodBreakdown reports how much revenue each payment method carried over a
// period. Mixed orders are split into their per-method tender amounts.
type MethodBreakdown struct {
	Method string          `json:"method"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}

// TopProduct ranks a product by units sold over a period.
type TopProduct struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Units     int             `json:"units"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// HourlySales buckets paid orders by hour of day (0-23).
type HourlySales struct {
	Hour       int             `json:"hour"`
	OrderCount int             `json:"order_count"`
	Total      decimal.Decimal `json:"total"`
}

// Dashboard is the headline KPI view for a period, with percentage change
// against the preceding period of equal length.
type Dashboard struct {
	From            time.Time         `json:"from"`
	To              time.Time         `json:"to"`
	TotalSales      decimal.Decimal   `json:"total_sales"`
	OrderCount      int               `json:"order_count"`
	AverageTicket   decimal.Decimal   `json:"average_ticket"`
	SalesChangePct  *decimal.Decimal  `json:"sales_change_pct,omitempty"`
	OrdersChangePct *decimal.Decimal  `json:"orders_change_pct,omitempty"`
	TopProducts     []TopProduct      `json:"top_products"`
	Breakdown       []MethodBreakdown `json:"breakdown"`
}
