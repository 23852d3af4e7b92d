package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentService settles in_cashier orders. The status flip, payment rows and
// stock decrement cascade commit in one transaction: a payment either fully
// lands or leaves no trace.
type PaymentService interface {
	ProcessPayment(ctx context.Context, tenantID, cashierID, orderID int, tenders []Tender, amountReceived, change *decimal.Decimal) (*Order, error)
}

type paymentService struct {
	pool   *pgxpool.Pool
	stock  StockService
	orders OrderService
}

// NewPaymentService constructs a PaymentService backed by PostgreSQL.
func NewPaymentService(pool *pgxpool.Pool, stock StockService, orders OrderService) PaymentService {
	return &paymentService{pool: pool, stock: stock, orders: orders}
}

func (s *paymentService) ProcessPayment(ctx context.Context, tenantID, cashierID, orderID int, tenders []Tender, amountReceived, change *decimal.Decimal) (*Order, error) {
	// Attach the tenant's open cash session when one exists. The lookup runs
	// outside the payment transaction so a failure here cannot poison it; the
	// order simply lands without a session link.
	var sessionID *int
	var sid int
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM cash_sessions WHERE tenant_id = $1 AND status = 'open'",
		tenantID,
	).Scan(&sid)
	switch {
	case err == nil:
		sessionID = &sid
	case errors.Is(err, pgx.ErrNoRows):
	default:
		log.Printf("payment: open session lookup failed for tenant %d: %v", tenantID, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin payment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	var publicID string
	var total decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT status, public_id, total FROM orders WHERE id = $1 AND tenant_id = $2 FOR UPDATE",
		orderID, tenantID,
	).Scan(&status, &publicID, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}

	if err := ValidateTransition(OrderStatus(status), StatusPaid); err != nil {
		return nil, err
	}
	if err := ValidateTenders(tenders, total); err != nil {
		return nil, err
	}

	method := PaymentMethodFor(tenders)
	details, err := json.Marshal(PaymentDetails{
		Tenders:        tenders,
		AmountReceived: amountReceived,
		Change:         change,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment details: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, payment_method = $2, payment_details = $3,
		    cashier_id = $4, cash_session_id = $5, updated_at = NOW()
		WHERE id = $6
	`, StatusPaid, method, details, cashierID, sessionID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %d paid: %w", orderID, err)
	}

	for _, t := range tenders {
		if _, err := tx.Exec(ctx,
			"INSERT INTO order_payments (order_id, tenant_id, method, amount) VALUES ($1, $2, $3, $4)",
			orderID, tenantID, t.Method, t.Amount,
		); err != nil {
			return nil, fmt.Errorf("failed to record %s tender: %w", t.Method, err)
		}
	}

	rows, err := tx.Query(ctx,
		"SELECT product_id, quantity FROM order_items WHERE order_id = $1 ORDER BY id",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load items of order %d: %w", orderID, err)
	}
	type soldItem struct {
		productID int
		quantity  int
	}
	var sold []soldItem
	for rows.Next() {
		var it soldItem
		if err := rows.Scan(&it.productID, &it.quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		sold = append(sold, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("sale order #%s", publicID[:8])
	for _, it := range sold {
		qty := decimal.NewFromInt(int64(it.quantity))
		if err := s.stock.DecrementForSaleTx(ctx, tx, tenantID, cashierID, it.productID, qty, reason); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	return s.orders.GetOrder(ctx, tenantID, orderID)
}
