package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService is the stock ledger: it tracks per-product quantity, records
// every change as an InventoryMovement, and resolves composite products
// through their ingredient graph.
type StockService interface {
	// Availability returns how many units of a product can be sold right now:
	// stored stock for plain products, the recursive ingredient minimum for
	// composites.
	Availability(ctx context.Context, tenantID, productID int) (decimal.Decimal, error)

	// DecrementForSaleTx decrements stock for a sold product within the
	// caller's transaction. Composite products cascade recursively to their
	// leaf ingredients; if any leaf lacks stock the error aborts the caller's
	// transaction so no partial decrement survives.
	DecrementForSaleTx(ctx context.Context, tx pgx.Tx, tenantID, userID, productID int,
		qty decimal.Decimal, reason string) error

	// Adjust applies a manual stock movement (adjustment_in, adjustment_out,
	// waste, return) to a non-composite product and returns the written
	// ledger row. Outbound types reject quantities above current stock.
	Adjust(ctx context.Context, tenantID, userID, productID int,
		movementType MovementType, qty decimal.Decimal, reason string) (*InventoryMovement, error)

	// Kardex returns the chronological movement history for one product,
	// newest first, capped at limit (0 means no cap).
	Kardex(ctx context.Context, tenantID, productID, limit int) ([]InventoryMovement, error)

	// LowStock returns active non-composite products at or below their
	// min_stock threshold.
	LowStock(ctx context.Context, tenantID int) ([]Product, error)
}

type stockService struct {
	pool *pgxpool.Pool
}

// NewStockService constructs a StockService backed by PostgreSQL.
func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

// ── Availability ──────────────────────────────────────────────────────────────

// loadGraph snapshots the tenant's products and ingredient edges into memory.
// Catalogs are small (hundreds of rows), so loading the whole tenant graph is
// cheaper than chasing the recursion with per-node queries.
func (s *stockService) loadGraph(ctx context.Context, tenantID int) (*StockGraph, error) {
	g := NewStockGraph()

	rows, err := s.pool.Query(ctx,
		"SELECT id, stock, is_composite FROM products WHERE tenant_id = $1", tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products for stock graph: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var stock decimal.Decimal
		var composite bool
		if err := rows.Scan(&id, &stock, &composite); err != nil {
			return nil, fmt.Errorf("failed to scan stock graph product: %w", err)
		}
		g.AddProduct(id, stock, composite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stock graph product iteration: %w", err)
	}

	edgeRows, err := s.pool.Query(ctx, `
		SELECT pi.product_id, pi.ingredient_id, pi.quantity
		FROM product_ingredients pi
		JOIN products p ON p.id = pi.product_id
		WHERE p.tenant_id = $1
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredient edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var productID int
		var edge IngredientEdge
		if err := edgeRows.Scan(&productID, &edge.IngredientID, &edge.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient edge: %w", err)
		}
		g.AddEdge(productID, edge)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("ingredient edge iteration: %w", err)
	}

	return g, nil
}

func (s *stockService) Availability(ctx context.Context, tenantID, productID int) (decimal.Decimal, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND tenant_id = $2)",
		productID, tenantID,
	).Scan(&exists)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to check product %d: %w", productID, err)
	}
	if !exists {
		return decimal.Zero, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}

	g, err := s.loadGraph(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}
	return g.Availability(productID), nil
}

// ── Sale-time decrement ───────────────────────────────────────────────────────

func (s *stockService) DecrementForSaleTx(ctx context.Context, tx pgx.Tx, tenantID, userID, productID int,
	qty decimal.Decimal, reason string) error {
	if qty.IsNegative() || qty.IsZero() {
		return fmt.Errorf("decrement quantity must be positive, got %s", qty)
	}
	return s.decrementTx(ctx, tx, tenantID, userID, productID, qty, reason, make(map[int]bool))
}

// decrementTx resolves a composite decrement into its leaf cascade. Leaf rows
// are locked FOR UPDATE so concurrent sales serialize on the same product.
func (s *stockService) decrementTx(ctx context.Context, tx pgx.Tx, tenantID, userID, productID int,
	qty decimal.Decimal, reason string, onPath map[int]bool) error {

	if onPath[productID] {
		return fmt.Errorf("%w: product %d revisited during stock cascade", ErrCircularIngredient, productID)
	}

	var name string
	var isComposite bool
	err := tx.QueryRow(ctx,
		"SELECT name, is_composite FROM products WHERE id = $1 AND tenant_id = $2",
		productID, tenantID,
	).Scan(&name, &isComposite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}

	if !isComposite {
		return s.decrementLeafTx(ctx, tx, tenantID, userID, productID, name, qty, reason)
	}

	rows, err := tx.Query(ctx,
		"SELECT ingredient_id, quantity FROM product_ingredients WHERE product_id = $1 ORDER BY id",
		productID)
	if err != nil {
		return fmt.Errorf("failed to query ingredients of product %d: %w", productID, err)
	}
	var edges []IngredientEdge
	for rows.Next() {
		var e IngredientEdge
		if err := rows.Scan(&e.IngredientID, &e.Quantity); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan ingredient edge: %w", err)
		}
		edges = append(edges, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ingredient edge iteration: %w", err)
	}
	if len(edges) == 0 {
		return fmt.Errorf("%w: composite product %q has no ingredients", ErrInsufficientStock, name)
	}

	onPath[productID] = true
	defer delete(onPath, productID)

	for _, e := range edges {
		if err := s.decrementTx(ctx, tx, tenantID, userID, e.IngredientID,
			qty.Mul(e.Quantity), reason, onPath); err != nil {
			return err
		}
	}
	return nil
}

// decrementLeafTx performs the actual stock write for a non-composite product
// and appends the movement row with previous/new snapshots.
func (s *stockService) decrementLeafTx(ctx context.Context, tx pgx.Tx, tenantID, userID, productID int,
	name string, qty decimal.Decimal, reason string) error {

	var current decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT stock FROM products WHERE id = $1 AND tenant_id = $2 FOR UPDATE",
		productID, tenantID,
	).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to lock product %d: %w", productID, err)
	}

	if current.LessThan(qty) {
		return fmt.Errorf("%w: %q has %s, need %s",
			ErrInsufficientStock, name, current.String(), qty.String())
	}

	newStock := current.Sub(qty)
	if _, err := tx.Exec(ctx,
		"UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2",
		newStock, productID,
	); err != nil {
		return fmt.Errorf("failed to update stock of product %d: %w", productID, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory_movements (tenant_id, product_id, user_id, movement_type, quantity, previous_stock, new_stock, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, tenantID, productID, userID, MovementSale, qty, current, newStock, reason); err != nil {
		return fmt.Errorf("failed to insert sale movement for product %d: %w", productID, err)
	}
	return nil
}

// ── Manual adjustments ────────────────────────────────────────────────────────

func (s *stockService) Adjust(ctx context.Context, tenantID, userID, productID int,
	movementType MovementType, qty decimal.Decimal, reason string) (*InventoryMovement, error) {

	switch movementType {
	case MovementAdjustmentIn, MovementAdjustmentOut, MovementWaste, MovementReturn:
	default:
		return nil, fmt.Errorf("movement type %q is not a manual adjustment", movementType)
	}
	if qty.IsNegative() || qty.IsZero() {
		return nil, fmt.Errorf("adjustment quantity must be positive, got %s", qty)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin adjustment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var name string
	var isComposite bool
	var current decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT name, is_composite, stock FROM products WHERE id = $1 AND tenant_id = $2 FOR UPDATE",
		productID, tenantID,
	).Scan(&name, &isComposite, &current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}
	if isComposite {
		return nil, fmt.Errorf("cannot adjust stock of composite product %q: availability is derived from ingredients", name)
	}

	var newStock decimal.Decimal
	switch movementType {
	case MovementAdjustmentIn, MovementReturn:
		newStock = current.Add(qty)
	default: // adjustment_out, waste
		if current.LessThan(qty) {
			return nil, fmt.Errorf("%w: %q has %s, cannot remove %s",
				ErrInsufficientStock, name, current.String(), qty.String())
		}
		newStock = current.Sub(qty)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2",
		newStock, productID,
	); err != nil {
		return nil, fmt.Errorf("failed to update stock of product %d: %w", productID, err)
	}

	m := &InventoryMovement{
		TenantID:      tenantID,
		ProductID:     productID,
		ProductName:   name,
		UserID:        userID,
		MovementType:  movementType,
		Quantity:      qty,
		PreviousStock: current,
		NewStock:      newStock,
		Reason:        reason,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO inventory_movements (tenant_id, product_id, user_id, movement_type, quantity, previous_stock, new_stock, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, tenantID, productID, userID, movementType, qty, current, newStock, reason).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert adjustment movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit adjustment: %w", err)
	}
	return m, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *stockService) Kardex(ctx context.Context, tenantID, productID, limit int) ([]InventoryMovement, error) {
	q := `
		SELECT im.id, im.tenant_id, im.product_id, p.name, im.user_id,
		       im.movement_type, im.quantity, im.previous_stock, im.new_stock,
		       im.reason, im.created_at
		FROM inventory_movements im
		JOIN products p ON p.id = im.product_id
		WHERE im.tenant_id = $1 AND im.product_id = $2
		ORDER BY im.created_at DESC, im.id DESC`
	args := []any{tenantID, productID}
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query kardex: %w", err)
	}
	defer rows.Close()

	var movements []InventoryMovement
	for rows.Next() {
		var m InventoryMovement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.ProductName, &m.UserID,
			&m.MovementType, &m.Quantity, &m.PreviousStock, &m.NewStock,
			&m.Reason, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (s *stockService) LowStock(ctx context.Context, tenantID int) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, COALESCE(code, ''), price, cost, stock, min_stock, unit,
		       is_active, is_favorite, is_composite, created_at, updated_at
		FROM products
		WHERE tenant_id = $1
		  AND is_active = true
		  AND is_composite = false
		  AND min_stock IS NOT NULL
		  AND stock <= min_stock
		ORDER BY stock ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Code, &p.Price, &p.Cost,
			&p.Stock, &p.MinStock, &p.Unit, &p.IsActive, &p.IsFavorite, &p.IsComposite,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
