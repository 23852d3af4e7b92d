package core_test

import (
	"context"
	"testing"
	"time"

	"pos-platform/internal/core"
)

func reportingWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestReportingService_DailySalesCountsOnlyPaid(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	orders := core.NewOrderService(pool)
	stock := core.NewStockService(pool)
	payments := core.NewPaymentService(pool, stock, orders)
	reports := core.NewReportingService(pool)

	// one paid order of 50, one pending order that must not count
	createPaidOrder(t, ctx, orders, payments, core.MethodCash,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 2}})
	if _, err := orders.CreateOrder(ctx, 1, 2, []core.OrderItemInput{{ProductID: 2, Quantity: 3}}, ""); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	from, to := reportingWindow()
	days, err := reports.GetDailySales(ctx, 1, from, to)
	if err != nil {
		t.Fatalf("GetDailySales failed: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("Expected 1 day bucket, got %d", len(days))
	}
	if days[0].OrderCount != 1 {
		t.Errorf("Expected 1 paid order, got %d", days[0].OrderCount)
	}
	if !days[0].Total.Equal(d("50")) {
		t.Errorf("Expected total 50, got %s", days[0].Total)
	}
}

func TestReportingService_MethodBreakdownSplitsMixed(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	orders := core.NewOrderService(pool)
	stock := core.NewStockService(pool)
	payments := core.NewPaymentService(pool, stock, orders)
	reports := core.NewReportingService(pool)

	// cash 25, card 50, mixed 45 = 20 cash + 25 card
	createPaidOrder(t, ctx, orders, payments, core.MethodCash,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 1}})
	createPaidOrder(t, ctx, orders, payments, core.MethodCard,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 2}})

	order, err := orders.CreateOrder(ctx, 1, 2, []core.OrderItemInput{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	}, "")
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if _, err := orders.SendToCashier(ctx, 1, 3, order.ID); err != nil {
		t.Fatalf("SendToCashier failed: %v", err)
	}
	if _, err := payments.ProcessPayment(ctx, 1, 3, order.ID, []core.Tender{
		{Method: core.MethodCash, Amount: d("20")},
		{Method: core.MethodCard, Amount: d("25")},
	}, nil, nil); err != nil {
		t.Fatalf("ProcessPayment failed: %v", err)
	}

	from, to := reportingWindow()
	breakdown, err := reports.GetPaymentMethodBreakdown(ctx, 1, from, to)
	if err != nil {
		t.Fatalf("GetPaymentMethodBreakdown failed: %v", err)
	}

	totals := map[string]string{}
	for _, b := range breakdown {
		totals[b.Method] = b.Total.StringFixed(2)
	}
	if totals[core.MethodCash] != "45.00" {
		t.Errorf("Expected cash 45.00 (25 + 20 mixed portion), got %s", totals[core.MethodCash])
	}
	if totals[core.MethodCard] != "75.00" {
		t.Errorf("Expected card 75.00 (50 + 25 mixed portion), got %s", totals[core.MethodCard])
	}
}

func TestReportingService_TopProducts(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	orders := core.NewOrderService(pool)
	stock := core.NewStockService(pool)
	payments := core.NewPaymentService(pool, stock, orders)
	reports := core.NewReportingService(pool)

	// 5 coffee, 2 sandwiches across two paid orders
	createPaidOrder(t, ctx, orders, payments, core.MethodCash,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 2}})
	createPaidOrder(t, ctx, orders, payments, core.MethodCard,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 2}})

	from, to := reportingWindow()
	top, err := reports.GetTopProducts(ctx, 1, from, to, 5)
	if err != nil {
		t.Fatalf("GetTopProducts failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(top))
	}
	if top[0].ProductID != 1 || top[0].Units != 5 {
		t.Errorf("Expected coffee first with 5 units, got %+v", top[0])
	}
	if !top[0].Revenue.Equal(d("125")) {
		t.Errorf("Expected coffee revenue 125, got %s", top[0].Revenue)
	}
}

func TestReportingService_Dashboard(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	orders := core.NewOrderService(pool)
	stock := core.NewStockService(pool)
	payments := core.NewPaymentService(pool, stock, orders)
	reports := core.NewReportingService(pool)

	createPaidOrder(t, ctx, orders, payments, core.MethodCash,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 2}}) // 50
	createPaidOrder(t, ctx, orders, payments, core.MethodCard,
		[]core.OrderItemInput{{ProductID: 2, Quantity: 1}}) // 20

	from, to := reportingWindow()
	dash, err := reports.GetDashboard(ctx, 1, from, to)
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}

	if dash.OrderCount != 2 {
		t.Errorf("Expected 2 orders, got %d", dash.OrderCount)
	}
	if !dash.TotalSales.Equal(d("70")) {
		t.Errorf("Expected sales 70, got %s", dash.TotalSales)
	}
	if !dash.AverageTicket.Equal(d("35")) {
		t.Errorf("Expected average ticket 35, got %s", dash.AverageTicket)
	}
	// empty preceding period: change is undefined, not zero
	if dash.SalesChangePct != nil {
		t.Errorf("Expected nil sales change with empty previous period, got %s", dash.SalesChangePct)
	}
	if len(dash.TopProducts) != 2 {
		t.Errorf("Expected 2 top products, got %d", len(dash.TopProducts))
	}
}

func TestReportingService_HourlySales(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	orders := core.NewOrderService(pool)
	stock := core.NewStockService(pool)
	payments := core.NewPaymentService(pool, stock, orders)
	reports := core.NewReportingService(pool)

	createPaidOrder(t, ctx, orders, payments, core.MethodCash,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 1}})

	from, to := reportingWindow()
	hours, err := reports.GetHourlySales(ctx, 1, from, to)
	if err != nil {
		t.Fatalf("GetHourlySales failed: %v", err)
	}
	// the window spans at most two hour buckets; the sale lands in one
	total := 0
	for _, h := range hours {
		total += h.OrderCount
		if h.Hour < 0 || h.Hour > 23 {
			t.Errorf("Hour bucket out of range: %d", h.Hour)
		}
	}
	if total != 1 {
		t.Errorf("Expected 1 order across hour buckets, got %d", total)
	}
}

func TestReportingService_TenantIsolation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	seedSecondTenant(t, pool)
	ctx := context.Background()

	orders := core.NewOrderService(pool)
	stock := core.NewStockService(pool)
	payments := core.NewPaymentService(pool, stock, orders)
	reports := core.NewReportingService(pool)

	createPaidOrder(t, ctx, orders, payments, core.MethodCash,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 1}})

	from, to := reportingWindow()
	dash, err := reports.GetDashboard(ctx, 2, from, to)
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}
	if dash.OrderCount != 0 || !dash.TotalSales.IsZero() {
		t.Errorf("Expected empty dashboard for tenant 2, got %+v", dash)
	}
}
