package core_test

import (
	"context"
	"os"
	"testing"

	"pos-platform/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB: one tenant, three users, two plain products
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE inventory_movements, order_payments, order_items, orders,
			cash_movements, cash_sessions, product_ingredients, products, users, tenants
			RESTART IDENTITY CASCADE;

		INSERT INTO tenants (id, code, name) VALUES (1, 'demo', 'Demo Store');
		SELECT setval(pg_get_serial_sequence('tenants', 'id'), 1);

		INSERT INTO users (id, tenant_id, username, password_hash, role) VALUES
		(1, 1, 'admin',   '$2a$10$test', 'admin'),
		(2, 1, 'seller',  '$2a$10$test', 'seller'),
		(3, 1, 'cashier', '$2a$10$test', 'cashier');
		SELECT setval(pg_get_serial_sequence('users', 'id'), 3);

		INSERT INTO products (id, tenant_id, name, price, stock) VALUES
		(1, 1, 'Coffee',   25.00, 100),
		(2, 1, 'Sandwich', 20.00, 50);
		SELECT setval(pg_get_serial_sequence('products', 'id'), 2);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// seedSecondTenant adds a second tenant with its own seller and product.
func seedSecondTenant(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO tenants (id, code, name) VALUES (2, 'other', 'Other Store');
		SELECT setval(pg_get_serial_sequence('tenants', 'id'), 2);

		INSERT INTO users (tenant_id, username, password_hash, role)
		VALUES (2, 'seller2', '$2a$10$test', 'seller');

		INSERT INTO products (tenant_id, name, price, stock)
		VALUES (2, 'Tea', 15.00, 30);
	`)
	if err != nil {
		t.Fatalf("Failed to seed second tenant: %v", err)
	}
}

// createPaidOrder walks an order through the full lifecycle with a single
// tender and returns it in paid status.
func createPaidOrder(t *testing.T, ctx context.Context, orders core.OrderService, payments core.PaymentService, method string, items []core.OrderItemInput) *core.Order {
	t.Helper()

	order, err := orders.CreateOrder(ctx, 1, 2, items, "")
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if _, err := orders.SendToCashier(ctx, 1, 3, order.ID); err != nil {
		t.Fatalf("SendToCashier failed: %v", err)
	}
	paid, err := payments.ProcessPayment(ctx, 1, 3, order.ID,
		[]core.Tender{{Method: method, Amount: order.Total}}, nil, nil)
	if err != nil {
		t.Fatalf("ProcessPayment failed: %v", err)
	}
	return paid
}

func productStock(t *testing.T, ctx context.Context, pool *pgxpool.Pool, productID int) decimal.Decimal {
	t.Helper()
	var stock decimal.Decimal
	if err := pool.QueryRow(ctx, "SELECT stock FROM products WHERE id = $1", productID).Scan(&stock); err != nil {
		t.Fatalf("Failed to read stock of product %d: %v", productID, err)
	}
	return stock
}
