package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderService manages order creation and the status transitions that happen
// before payment. Payment itself lives in PaymentService.
type OrderService interface {
	CreateOrder(ctx context.Context, tenantID, sellerID int, items []OrderItemInput, notes string) (*Order, error)
	GetOrder(ctx context.Context, tenantID, orderID int) (*Order, error)
	GetOrders(ctx context.Context, tenantID int, status OrderStatus, limit int) ([]Order, error)

	// SendToCashier moves a pending order to in_cashier and stamps the cashier.
	SendToCashier(ctx context.Context, tenantID, cashierID, orderID int) (*Order, error)
	// ReleaseOrder returns an in_cashier order to pending and clears the cashier.
	ReleaseOrder(ctx context.Context, tenantID, orderID int) (*Order, error)
	CancelOrder(ctx context.Context, tenantID, orderID int, reason string) (*Order, error)
}

type orderService struct {
	pool *pgxpool.Pool
}

// NewOrderService constructs an OrderService backed by PostgreSQL.
func NewOrderService(pool *pgxpool.Pool) OrderService {
	return &orderService{pool: pool}
}

const orderColumns = `id, public_id, tenant_id, order_number, seller_id, cashier_id, status,
	subtotal, total, payment_method, payment_details, cash_session_id,
	notes, cancel_reason, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.PublicID, &o.TenantID, &o.OrderNumber, &o.SellerID,
		&o.CashierID, &status, &o.Subtotal, &o.Total, &o.PaymentMethod,
		&o.PaymentDetails, &o.CashSessionID, &o.Notes, &o.CancelReason,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = OrderStatus(status)
	return &o, nil
}

func (s *orderService) CreateOrder(ctx context.Context, tenantID, sellerID int, items []OrderItemInput, notes string) (*Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order must have at least one item")
	}
	for i, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("item %d: quantity must be >= 1, got %d", i+1, it.Quantity)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// prices come from the live catalog rows, never from the request
	type pricedItem struct {
		in       OrderItemInput
		name     string
		price    decimal.Decimal
		subtotal decimal.Decimal
	}
	priced := make([]pricedItem, 0, len(items))
	subtotal := decimal.Zero
	for _, it := range items {
		var name string
		var price decimal.Decimal
		var active bool
		err := tx.QueryRow(ctx,
			"SELECT name, price, is_active FROM products WHERE id = $1 AND tenant_id = $2",
			it.ProductID, tenantID,
		).Scan(&name, &price, &active)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
			}
			return nil, fmt.Errorf("failed to fetch product %d: %w", it.ProductID, err)
		}
		if !active {
			return nil, fmt.Errorf("product %q is inactive and cannot be sold", name)
		}
		line := price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		priced = append(priced, pricedItem{in: it, name: name, price: price, subtotal: line})
		subtotal = subtotal.Add(line)
	}

	// per-tenant sequential order number
	var orderNumber int64
	err = tx.QueryRow(ctx,
		"UPDATE tenants SET order_seq = order_seq + 1 WHERE id = $1 RETURNING order_seq",
		tenantID,
	).Scan(&orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: tenant %d", ErrNotFound, tenantID)
		}
		return nil, fmt.Errorf("failed to advance order sequence: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (tenant_id, order_number, seller_id, status, subtotal, total, notes)
		VALUES ($1, $2, $3, $4, $5, $5, $6)
		RETURNING `+orderColumns,
		tenantID, orderNumber, sellerID, StatusPending, subtotal, notes,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, p := range priced {
		var item OrderItem
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal, note)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, order.ID, p.in.ProductID, p.in.Quantity, p.price, p.subtotal, p.in.Note).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
		item.OrderID = order.ID
		item.ProductID = p.in.ProductID
		item.ProductName = p.name
		item.Quantity = p.in.Quantity
		item.UnitPrice = p.price
		item.Subtotal = p.subtotal
		item.Note = p.in.Note
		order.Items = append(order.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, tenantID, orderID int) (*Order, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 AND tenant_id = $2",
		orderID, tenantID,
	)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrders(ctx context.Context, tenantID int, status OrderStatus, limit int) ([]Order, error) {
	q := "SELECT " + orderColumns + " FROM orders WHERE tenant_id = $1"
	args := []any{tenantID}
	if status != "" {
		q += " AND status = $2"
		args = append(args, string(status))
	}
	q += " ORDER BY created_at DESC"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *orderService) loadItems(ctx context.Context, order *Order) error {
	rows, err := s.pool.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price, oi.subtotal, oi.note
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query items of order %d: %w", order.ID, err)
	}
	defer rows.Close()

	order.Items = order.Items[:0]
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.Note); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, it)
	}
	return rows.Err()
}

// ── Status transitions ────────────────────────────────────────────────────────

// lockOrderStatus fetches the current status under FOR UPDATE so concurrent
// transitions of the same order serialize.
func lockOrderStatus(ctx context.Context, tx pgx.Tx, tenantID, orderID int) (OrderStatus, error) {
	var status string
	err := tx.QueryRow(ctx,
		"SELECT status FROM orders WHERE id = $1 AND tenant_id = $2 FOR UPDATE",
		orderID, tenantID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return "", fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	return OrderStatus(status), nil
}

func (s *orderService) SendToCashier(ctx context.Context, tenantID, cashierID, orderID int) (*Order, error) {
	return s.transition(ctx, tenantID, orderID, StatusInCashier, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			"UPDATE orders SET status = $1, cashier_id = $2, updated_at = NOW() WHERE id = $3",
			StatusInCashier, cashierID, orderID)
		return err
	})
}

func (s *orderService) ReleaseOrder(ctx context.Context, tenantID, orderID int) (*Order, error) {
	return s.transition(ctx, tenantID, orderID, StatusPending, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			"UPDATE orders SET status = $1, cashier_id = NULL, updated_at = NOW() WHERE id = $2",
			StatusPending, orderID)
		return err
	})
}

func (s *orderService) CancelOrder(ctx context.Context, tenantID, orderID int, reason string) (*Order, error) {
	return s.transition(ctx, tenantID, orderID, StatusCancelled, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			"UPDATE orders SET status = $1, cancel_reason = $2, updated_at = NOW() WHERE id = $3",
			StatusCancelled, reason, orderID)
		return err
	})
}

func (s *orderService) transition(ctx context.Context, tenantID, orderID int, to OrderStatus, apply func(context.Context, pgx.Tx) error) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transition transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockOrderStatus(ctx, tx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(current, to); err != nil {
		return nil, err
	}
	if err := apply(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", orderID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	return s.GetOrder(ctx, tenantID, orderID)
}
