package core_test

import (
	"context"
	"errors"
	"testing"

	"pos-platform/internal/core"
)

func TestCashService_OpenCloseRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	orders := core.NewOrderService(pool)
	stock := core.NewStockService(pool)
	payments := core.NewPaymentService(pool, stock, orders)
	cash := core.NewCashService(pool)

	// open with 500, one cash sale of 100, deposit 0, withdrawal 50
	session, err := cash.OpenSession(ctx, 1, 3, d("500"))
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	if session.Status != core.SessionOpen {
		t.Errorf("Expected open, got %s", session.Status)
	}

	// 4 × Coffee @ 25 = 100, cash
	createPaidOrder(t, ctx, orders, payments, core.MethodCash,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 4}})

	if _, err := cash.AddMovement(ctx, 1, 3, core.CashMovementWithdrawal, d("50"), "change run"); err != nil {
		t.Fatalf("AddMovement failed: %v", err)
	}

	// expected = 500 + 100 - 50 = 550
	summary, err := cash.GetCurrentSession(ctx, 1)
	if err != nil {
		t.Fatalf("GetCurrentSession failed: %v", err)
	}
	if !summary.CashSales.Equal(d("100")) {
		t.Errorf("Expected cash sales 100, got %s", summary.CashSales)
	}
	if !summary.Expected.Equal(d("550")) {
		t.Errorf("Expected drawer 550, got %s", summary.Expected)
	}

	// close with exactly the expected amount: difference 0
	closed, err := cash.CloseSession(ctx, 1, 3, d("550"))
	if err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if closed.Status != core.SessionClosed {
		t.Errorf("Expected closed, got %s", closed.Status)
	}
	if closed.ExpectedAmount == nil || !closed.ExpectedAmount.Equal(d("550")) {
		t.Errorf("Expected expected_amount 550, got %v", closed.ExpectedAmount)
	}
	if closed.Difference == nil || !closed.Difference.IsZero() {
		t.Errorf("Expected zero difference, got %v", closed.Difference)
	}
}

func TestCashService_ShortageAndOverage(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	cash := core.NewCashService(pool)

	if _, err := cash.OpenSession(ctx, 1, 3, d("200")); err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}

	// no sales, no movements: expected 200; counting 190 is a 10 shortage
	closed, err := cash.CloseSession(ctx, 1, 3, d("190"))
	if err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if closed.Difference == nil || !closed.Difference.Equal(d("-10")) {
		t.Errorf("Expected difference -10, got %v", closed.Difference)
	}
}

func TestCashService_SingleOpenSessionPerTenant(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	seedSecondTenant(t, pool)
	ctx := context.Background()
	cash := core.NewCashService(pool)

	if _, err := cash.OpenSession(ctx, 1, 3, d("100")); err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}

	// second open for the same tenant fails
	if _, err := cash.OpenSession(ctx, 1, 3, d("100")); !errors.Is(err, core.ErrCashAlreadyOpen) {
		t.Errorf("Expected ErrCashAlreadyOpen, got %v", err)
	}

	// another tenant opens independently
	if _, err := cash.OpenSession(ctx, 2, 3, d("100")); err != nil {
		t.Errorf("Second tenant OpenSession failed: %v", err)
	}
}

func TestCashService_ConcurrentOpenSingleWinner(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	cash := core.NewCashService(pool)

	// both racers must resolve to one open session and one ErrCashAlreadyOpen,
	// whether the loser trips the pre-check or the partial unique index
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := cash.OpenSession(ctx, 1, 3, d("100"))
			errs <- err
		}()
	}

	var failures []error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) != 1 {
		t.Fatalf("Expected exactly one open to fail, got %d: %v", len(failures), failures)
	}
	if !errors.Is(failures[0], core.ErrCashAlreadyOpen) {
		t.Errorf("Expected ErrCashAlreadyOpen, got %v", failures[0])
	}

	var open int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM cash_sessions WHERE tenant_id = 1 AND status = 'open'").Scan(&open); err != nil {
		t.Fatalf("Failed to count open sessions: %v", err)
	}
	if open != 1 {
		t.Errorf("Expected a single open session, got %d", open)
	}
}

func TestCashService_NoOpenSession(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	cash := core.NewCashService(pool)

	if _, err := cash.GetCurrentSession(ctx, 1); !errors.Is(err, core.ErrNoCashOpen) {
		t.Errorf("Expected ErrNoCashOpen, got %v", err)
	}
	if _, err := cash.CloseSession(ctx, 1, 3, d("100")); !errors.Is(err, core.ErrNoCashOpen) {
		t.Errorf("Expected ErrNoCashOpen on close, got %v", err)
	}
	if _, err := cash.AddMovement(ctx, 1, 3, core.CashMovementDeposit, d("10"), "float top-up"); !errors.Is(err, core.ErrNoCashOpen) {
		t.Errorf("Expected ErrNoCashOpen on movement, got %v", err)
	}

	// movement listing is empty, not an error
	movements, err := cash.GetSessionMovements(ctx, 1)
	if err != nil {
		t.Fatalf("GetSessionMovements failed: %v", err)
	}
	if len(movements) != 0 {
		t.Errorf("Expected empty movements, got %d", len(movements))
	}
}

func TestCashService_MovementValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	cash := core.NewCashService(pool)

	if _, err := cash.OpenSession(ctx, 1, 3, d("100")); err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}

	if _, err := cash.AddMovement(ctx, 1, 3, core.CashMovementDeposit, d("0"), "valid reason"); err == nil {
		t.Error("Expected error for zero amount")
	}
	if _, err := cash.AddMovement(ctx, 1, 3, core.CashMovementDeposit, d("10"), "why"); err == nil {
		t.Error("Expected error for short reason")
	}
	if _, err := cash.AddMovement(ctx, 1, 3, "transfer", d("10"), "valid reason"); err == nil {
		t.Error("Expected error for unknown movement type")
	}

	m, err := cash.AddMovement(ctx, 1, 3, core.CashMovementDeposit, d("25.50"), "float top-up")
	if err != nil {
		t.Fatalf("AddMovement failed: %v", err)
	}
	if m.MovementType != core.CashMovementDeposit {
		t.Errorf("Expected deposit, got %s", m.MovementType)
	}

	movements, err := cash.GetSessionMovements(ctx, 1)
	if err != nil {
		t.Fatalf("GetSessionMovements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Errorf("Expected 1 movement, got %d", len(movements))
	}
}

func TestCashService_MixedOrderContributesCashPortionOnly(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	orders := core.NewOrderService(pool)
	stock := core.NewStockService(pool)
	payments := core.NewPaymentService(pool, stock, orders)
	cash := core.NewCashService(pool)

	if _, err := cash.OpenSession(ctx, 1, 3, d("0")); err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}

	// 45 total paid as 20 cash + 25 card
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

	// card-only sale contributes nothing
	createPaidOrder(t, ctx, orders, payments, core.MethodCard,
		[]core.OrderItemInput{{ProductID: 1, Quantity: 2}})

	summary, err := cash.GetCurrentSession(ctx, 1)
	if err != nil {
		t.Fatalf("GetCurrentSession failed: %v", err)
	}
	if !summary.CashSales.Equal(d("20")) {
		t.Errorf("Expected cash sales 20 (cash portion only), got %s", summary.CashSales)
	}
	if !summary.Expected.Equal(d("20")) {
		t.Errorf("Expected drawer 20, got %s", summary.Expected)
	}
}

func TestCashService_ReopenAfterClose(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	cash := core.NewCashService(pool)

	if _, err := cash.OpenSession(ctx, 1, 3, d("100")); err != nil {
		t.Fatalf("First OpenSession failed: %v", err)
	}
	if _, err := cash.CloseSession(ctx, 1, 3, d("100")); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}

	second, err := cash.OpenSession(ctx, 1, 3, d("300"))
	if err != nil {
		t.Fatalf("Second OpenSession failed: %v", err)
	}
	if !second.OpeningAmount.Equal(d("300")) {
		t.Errorf("Expected opening 300, got %s", second.OpeningAmount)
	}
}
