package app

import (
	"context"
	"time"

	"pos-platform/internal/core"

	"github.com/shopspring/decimal"
)

// ApplicationService is the single interface all adapters call. It decouples
// presentation from business logic. Implementations must contain no HTTP
// concerns and no display logic of any kind.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns a user profile by ID within the caller's tenant.
	GetUser(ctx context.Context, tenantID, userID int) (*core.User, error)

	// ListProducts returns the tenant catalog, optionally active products only.
	ListProducts(ctx context.Context, tenantID int, activeOnly bool) (*ProductListResult, error)

	// GetProduct returns one product together with its live availability.
	GetProduct(ctx context.Context, tenantID, productID int) (*ProductResult, error)

	// CreateProduct adds a product to the catalog.
	CreateProduct(ctx context.Context, tenantID int, in core.ProductInput) (*ProductResult, error)

	// UpdateProduct replaces a product's catalog fields. Stock is not among
	// them; use AdjustStock so the change lands in the ledger.
	UpdateProduct(ctx context.Context, tenantID, productID int, in core.ProductInput) (*ProductResult, error)

	// DeactivateProduct soft-deletes a product.
	DeactivateProduct(ctx context.Context, tenantID, productID int) error

	// SetIngredients replaces a composite product's recipe.
	SetIngredients(ctx context.Context, tenantID, productID int, ingredients []core.IngredientInput) error

	// GetIngredients returns a composite product's recipe.
	GetIngredients(ctx context.Context, tenantID, productID int) ([]core.ProductIngredient, error)

	// CreateOrder opens a new pending order priced from the live catalog.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// GetOrder returns one order with its items.
	GetOrder(ctx context.Context, tenantID, orderID int) (*OrderResult, error)

	// ListOrders returns the tenant's orders, optionally filtered by status.
	ListOrders(ctx context.Context, tenantID int, status string, limit int) (*OrderListResult, error)

	// SendToCashier moves a pending order to the cashier queue.
	SendToCashier(ctx context.Context, tenantID, cashierID, orderID int) (*OrderResult, error)

	// ReleaseOrder returns an order from the cashier queue to pending.
	ReleaseOrder(ctx context.Context, tenantID, orderID int) (*OrderResult, error)

	// CancelOrder cancels an order. The reason is mandatory and must carry at
	// least five characters.
	CancelOrder(ctx context.Context, tenantID, orderID int, reason string) (*OrderResult, error)

	// PayOrder settles an in_cashier order atomically: status, payment rows
	// and the stock cascade commit or roll back together.
	PayOrder(ctx context.Context, req PayOrderRequest) (*OrderResult, error)

	// GetAvailability returns the sellable quantity of a product.
	GetAvailability(ctx context.Context, tenantID, productID int) (decimal.Decimal, error)

	// AdjustStock applies a manual inventory movement.
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*core.InventoryMovement, error)

	// GetKardex returns a product's movement history, newest first.
	GetKardex(ctx context.Context, tenantID, productID, limit int) ([]core.InventoryMovement, error)

	// GetLowStock returns products at or below their minimum stock.
	GetLowStock(ctx context.Context, tenantID int) (*ProductListResult, error)

	// OpenCash opens the tenant's drawer session.
	OpenCash(ctx context.Context, tenantID, userID int, openingAmount decimal.Decimal) (*core.CashSession, error)

	// CloseCash closes the open session and reconciles the counted amount.
	CloseCash(ctx context.Context, tenantID, userID int, closingAmount decimal.Decimal) (*core.CashSession, error)

	// GetCashStatus returns the open session with its live expected amount.
	GetCashStatus(ctx context.Context, tenantID int) (*core.CashSessionSummary, error)

	// AddCashMovement records a manual deposit or withdrawal.
	AddCashMovement(ctx context.Context, req CashMovementRequest) (*core.CashMovement, error)

	// ListCashMovements lists the open session's movements.
	ListCashMovements(ctx context.Context, tenantID int) ([]core.CashMovement, error)

	// GetDashboard returns the KPI view for a period.
	GetDashboard(ctx context.Context, tenantID int, from, to time.Time) (*core.Dashboard, error)

	// GetDailySales returns per-day sales aggregates.
	GetDailySales(ctx context.Context, tenantID int, from, to time.Time) ([]core.DailySales, error)

	// GetHourlySales returns per-hour sales aggregates.
	GetHourlySales(ctx context.Context, tenantID int, from, to time.Time) ([]core.HourlySales, error)

	// ExportDailySales renders the daily sales report as an XLSX workbook.
	ExportDailySales(ctx context.Context, tenantID int, from, to time.Time) ([]byte, error)

	// AskAssistant answers a natural-language question about the tenant's
	// sales, grounded in the current report data.
	AskAssistant(ctx context.Context, tenantID int, question string) (*AssistantResult, error)
}
