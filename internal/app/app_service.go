package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pos-platform/internal/ai"
	"pos-platform/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

type appService struct {
	users    core.UserService
	products core.ProductService
	orders   core.OrderService
	payments core.PaymentService
	stock    core.StockService
	cash     core.CashService
	reports  core.ReportingService
	agent    *ai.Agent
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil when no API key is configured; AskAssistant then fails
// with a clear error instead of panicking.
func NewAppService(
	users core.UserService,
	products core.ProductService,
	orders core.OrderService,
	payments core.PaymentService,
	stock core.StockService,
	cash core.CashService,
	reports core.ReportingService,
	agent *ai.Agent,
) ApplicationService {
	return &appService{
		users:    users,
		products: products,
		orders:   orders,
		payments: payments,
		stock:    stock,
		cash:     cash,
		reports:  reports,
		agent:    agent,
	}
}

// ── Identity ──────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		// do not leak whether the username exists
		return nil, fmt.Errorf("invalid credentials")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return &UserSession{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

func (s *appService) GetUser(ctx context.Context, tenantID, userID int) (*core.User, error) {
	return s.users.GetByID(ctx, tenantID, userID)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (s *appService) ListProducts(ctx context.Context, tenantID int, activeOnly bool) (*ProductListResult, error) {
	products, err := s.products.GetProducts(ctx, tenantID, activeOnly)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) GetProduct(ctx context.Context, tenantID, productID int) (*ProductResult, error) {
	product, err := s.products.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	avail, err := s.stock.Availability(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: product, Availability: &avail}, nil
}

func (s *appService) CreateProduct(ctx context.Context, tenantID int, in core.ProductInput) (*ProductResult, error) {
	product, err := s.products.CreateProduct(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: product}, nil
}

func (s *appService) UpdateProduct(ctx context.Context, tenantID, productID int, in core.ProductInput) (*ProductResult, error) {
	product, err := s.products.UpdateProduct(ctx, tenantID, productID, in)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: product}, nil
}

func (s *appService) DeactivateProduct(ctx context.Context, tenantID, productID int) error {
	return s.products.DeactivateProduct(ctx, tenantID, productID)
}

func (s *appService) SetIngredients(ctx context.Context, tenantID, productID int, ingredients []core.IngredientInput) error {
	return s.products.SetIngredients(ctx, tenantID, productID, ingredients)
}

func (s *appService) GetIngredients(ctx context.Context, tenantID, productID int) ([]core.ProductIngredient, error) {
	return s.products.GetIngredients(ctx, tenantID, productID)
}

// ── Orders ────────────────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	order, err := s.orders.CreateOrder(ctx, req.TenantID, req.SellerID, req.Items, req.Notes)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) GetOrder(ctx context.Context, tenantID, orderID int) (*OrderResult, error) {
	order, err := s.orders.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ListOrders(ctx context.Context, tenantID int, status string, limit int) (*OrderListResult, error) {
	orders, err := s.orders.GetOrders(ctx, tenantID, core.OrderStatus(status), limit)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) SendToCashier(ctx context.Context, tenantID, cashierID, orderID int) (*OrderResult, error) {
	order, err := s.orders.SendToCashier(ctx, tenantID, cashierID, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ReleaseOrder(ctx context.Context, tenantID, orderID int) (*OrderResult, error) {
	order, err := s.orders.ReleaseOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) CancelOrder(ctx context.Context, tenantID, orderID int, reason string) (*OrderResult, error) {
	if len(strings.TrimSpace(reason)) < 5 {
		return nil, fmt.Errorf("cancellation reason must be at least 5 characters")
	}
	order, err := s.orders.CancelOrder(ctx, tenantID, orderID, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) PayOrder(ctx context.Context, req PayOrderRequest) (*OrderResult, error) {
	order, err := s.payments.ProcessPayment(ctx, req.TenantID, req.CashierID, req.OrderID,
		req.Tenders, req.AmountReceived, req.Change)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

// ── Stock ─────────────────────────────────────────────────────────────────────

func (s *appService) GetAvailability(ctx context.Context, tenantID, productID int) (decimal.Decimal, error) {
	return s.stock.Availability(ctx, tenantID, productID)
}

func (s *appService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*core.InventoryMovement, error) {
	if len(strings.TrimSpace(req.Reason)) < 5 {
		return nil, fmt.Errorf("adjustment reason must be at least 5 characters")
	}
	return s.stock.Adjust(ctx, req.TenantID, req.UserID, req.ProductID,
		req.MovementType, req.Quantity, strings.TrimSpace(req.Reason))
}

func (s *appService) GetKardex(ctx context.Context, tenantID, productID, limit int) ([]core.InventoryMovement, error) {
	return s.stock.Kardex(ctx, tenantID, productID, limit)
}

func (s *appService) GetLowStock(ctx context.Context, tenantID int) (*ProductListResult, error) {
	products, err := s.stock.LowStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

// ── Cash ──────────────────────────────────────────────────────────────────────

func (s *appService) OpenCash(ctx context.Context, tenantID, userID int, openingAmount decimal.Decimal) (*core.CashSession, error) {
	return s.cash.OpenSession(ctx, tenantID, userID, openingAmount)
}

func (s *appService) CloseCash(ctx context.Context, tenantID, userID int, closingAmount decimal.Decimal) (*core.CashSession, error) {
	return s.cash.CloseSession(ctx, tenantID, userID, closingAmount)
}

func (s *appService) GetCashStatus(ctx context.Context, tenantID int) (*core.CashSessionSummary, error) {
	return s.cash.GetCurrentSession(ctx, tenantID)
}

func (s *appService) AddCashMovement(ctx context.Context, req CashMovementRequest) (*core.CashMovement, error) {
	return s.cash.AddMovement(ctx, req.TenantID, req.UserID, req.MovementType, req.Amount, req.Reason)
}

func (s *appService) ListCashMovements(ctx context.Context, tenantID int) ([]core.CashMovement, error) {
	return s.cash.GetSessionMovements(ctx, tenantID)
}

// ── Reporting ─────────────────────────────────────────────────────────────────

func (s *appService) GetDashboard(ctx context.Context, tenantID int, from, to time.Time) (*core.Dashboard, error) {
	return s.reports.GetDashboard(ctx, tenantID, from, to)
}

func (s *appService) GetDailySales(ctx context.Context, tenantID int, from, to time.Time) ([]core.DailySales, error) {
	return s.reports.GetDailySales(ctx, tenantID, from, to)
}

func (s *appService) GetHourlySales(ctx context.Context, tenantID int, from, to time.Time) ([]core.HourlySales, error) {
	return s.reports.GetHourlySales(ctx, tenantID, from, to)
}

// ExportDailySales renders the daily sales and method breakdown of a period
// into an XLSX workbook.
func (s *appService) ExportDailySales(ctx context.Context, tenantID int, from, to time.Time) ([]byte, error) {
	days, err := s.reports.GetDailySales(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.reports.GetPaymentMethodBreakdown(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Daily Sales"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &[]any{"Date", "Orders", "Total"})
	row := 2
	grand := decimal.Zero
	for _, day := range days {
		cell := fmt.Sprintf("A%d", row)
		total, _ := day.Total.Float64()
		f.SetSheetRow(sheet, cell, &[]any{day.Day.Format("2006-01-02"), day.OrderCount, total})
		grand = grand.Add(day.Total)
		row++
	}
	grandTotal, _ := grand.Float64()
	f.SetSheetRow(sheet, fmt.Sprintf("A%d", row+1), &[]any{"Total", "", grandTotal})

	const methods = "Payment Methods"
	if _, err := f.NewSheet(methods); err != nil {
		return nil, fmt.Errorf("failed to add methods sheet: %w", err)
	}
	f.SetSheetRow(methods, "A1", &[]any{"Method", "Orders", "Total"})
	for i, b := range breakdown {
		total, _ := b.Total.Float64()
		f.SetSheetRow(methods, fmt.Sprintf("A%d", i+2), &[]any{b.Method, b.Count, total})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ── Assistant ─────────────────────────────────────────────────────────────────

func (s *appService) AskAssistant(ctx context.Context, tenantID int, question string) (*AssistantResult, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("sales assistant is not configured: missing OPENAI_API_KEY")
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	reportContext, err := s.buildReportContext(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to gather report data: %w", err)
	}

	insight, err := s.agent.AnswerQuestion(ctx, question, reportContext)
	if err != nil {
		return nil, err
	}
	return &AssistantResult{
		Question: question,
		Answer:   insight.Answer,
		Insights: insight.Highlights,
	}, nil
}

// buildReportContext renders the last 30 days of sales data as plain text for
// the assistant prompt.
func (s *appService) buildReportContext(ctx context.Context, tenantID int) (string, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	dash, err := s.reports.GetDashboard(ctx, tenantID, from, to)
	if err != nil {
		return "", err
	}
	days, err := s.reports.GetDailySales(ctx, tenantID, from, to)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s to %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total sales: %s across %d orders (average ticket %s)\n",
		dash.TotalSales.StringFixed(2), dash.OrderCount, dash.AverageTicket.StringFixed(2))
	if dash.SalesChangePct != nil {
		fmt.Fprintf(&b, "Sales change vs previous period: %s%%\n", dash.SalesChangePct.StringFixed(1))
	}

	b.WriteString("Payment methods:\n")
	for _, m := range dash.Breakdown {
		fmt.Fprintf(&b, "- %s: %s over %d orders\n", m.Method, m.Total.StringFixed(2), m.Count)
	}
	b.WriteString("Top products:\n")
	for _, p := range dash.TopProducts {
		fmt.Fprintf(&b, "- %s: %d units, revenue %s\n", p.Name, p.Units, p.Revenue.StringFixed(2))
	}
	b.WriteString("Daily sales:\n")
	for _, day := range days {
		fmt.Fprintf(&b, "- %s: %d orders, %s\n", day.Day.Format("2006-01-02"), day.OrderCount, day.Total.StringFixed(2))
	}
	return b.String(), nil
}
