package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductService manages the tenant catalog: product CRUD and the ingredient
// edges of composite products.
type ProductService interface {
	CreateProduct(ctx context.Context, tenantID int, in ProductInput) (*Product, error)
	// UpdateProduct replaces a product's catalog fields. The stored stock is
	// never written here: every stock change goes through the inventory
	// ledger (StockService) so each one leaves a movement row.
	UpdateProduct(ctx context.Context, tenantID, productID int, in ProductInput) (*Product, error)
	// DeactivateProduct flags a product inactive. Products are never removed
	// physically: movement and order rows keep referencing them.
	DeactivateProduct(ctx context.Context, tenantID, productID int) error
	GetProduct(ctx context.Context, tenantID, productID int) (*Product, error)
	GetProducts(ctx context.Context, tenantID int, activeOnly bool) ([]Product, error)

	// SetIngredients replaces a composite product's recipe after validating
	// the new edge set introduces no direct or transitive cycle.
	SetIngredients(ctx context.Context, tenantID, productID int, ingredients []IngredientInput) error
	GetIngredients(ctx context.Context, tenantID, productID int) ([]ProductIngredient, error)
}

type productService struct {
	pool *pgxpool.Pool
}

// NewProductService constructs a ProductService backed by PostgreSQL.
func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

const productColumns = `id, tenant_id, name, COALESCE(code, ''), price, cost, stock, min_stock, unit,
	is_active, is_favorite, is_composite, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Code, &p.Price, &p.Cost,
		&p.Stock, &p.MinStock, &p.Unit, &p.IsActive, &p.IsFavorite, &p.IsComposite,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func validateProductInput(in *ProductInput) error {
	if in.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("product price cannot be negative, got %s", in.Price)
	}
	if in.Stock.IsNegative() {
		return fmt.Errorf("product stock cannot be negative, got %s", in.Stock)
	}
	if in.Unit == "" {
		in.Unit = "unit"
	}
	// composites never store stock of their own
	if in.IsComposite {
		in.Stock = decimal.Zero
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, tenantID int, in ProductInput) (*Product, error) {
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (tenant_id, name, code, price, cost, stock, min_stock, unit, is_favorite, is_composite)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+productColumns,
		tenantID, in.Name, in.Code, in.Price, in.Cost, in.Stock, in.MinStock,
		in.Unit, in.IsFavorite, in.IsComposite,
	)
	p, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (s *productService) UpdateProduct(ctx context.Context, tenantID, productID int, in ProductInput) (*Product, error) {
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var stock decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT stock FROM products WHERE id = $1 AND tenant_id = $2 FOR UPDATE",
		productID, tenantID,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}

	// Becoming composite must not silently wipe stored stock; the caller
	// adjusts it out through the ledger first.
	if in.IsComposite && !stock.IsZero() {
		return nil, fmt.Errorf("product %d still has stock %s: adjust it to zero before marking the product composite",
			productID, stock)
	}

	row := tx.QueryRow(ctx, `
		UPDATE products
		SET name = $1, code = NULLIF($2, ''), price = $3, cost = $4,
		    min_stock = $5, unit = $6, is_favorite = $7, is_composite = $8, updated_at = NOW()
		WHERE id = $9 AND tenant_id = $10
		RETURNING `+productColumns,
		in.Name, in.Code, in.Price, in.Cost, in.MinStock,
		in.Unit, in.IsFavorite, in.IsComposite, productID, tenantID,
	)
	p, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", productID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return p, nil
}

func (s *productService) DeactivateProduct(ctx context.Context, tenantID, productID int) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE products SET is_active = false, updated_at = NOW() WHERE id = $1 AND tenant_id = $2",
		productID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	return nil
}

func (s *productService) GetProduct(ctx context.Context, tenantID, productID int) (*Product, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1 AND tenant_id = $2",
		productID, tenantID,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	return p, nil
}

func (s *productService) GetProducts(ctx context.Context, tenantID int, activeOnly bool) ([]Product, error) {
	q := "SELECT " + productColumns + " FROM products WHERE tenant_id = $1"
	if activeOnly {
		q += " AND is_active = true"
	}
	q += " ORDER BY name"

	rows, err := s.pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// ── Ingredient edges ──────────────────────────────────────────────────────────

func (s *productService) SetIngredients(ctx context.Context, tenantID, productID int, ingredients []IngredientInput) error {
	if len(ingredients) == 0 {
		return fmt.Errorf("ingredient list cannot be empty")
	}
	for i, in := range ingredients {
		if in.Quantity.IsNegative() || in.Quantity.IsZero() {
			return fmt.Errorf("ingredient %d: quantity must be > 0, got %s", i+1, in.Quantity)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin ingredient transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var isComposite bool
	err = tx.QueryRow(ctx,
		"SELECT is_composite FROM products WHERE id = $1 AND tenant_id = $2 FOR UPDATE",
		productID, tenantID,
	).Scan(&isComposite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	if !isComposite {
		return fmt.Errorf("product %d is not composite: ingredients can only be assigned to composite products", productID)
	}

	// every proposed ingredient must exist and belong to the tenant
	for _, in := range ingredients {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND tenant_id = $2)",
			in.IngredientID, tenantID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check ingredient %d: %w", in.IngredientID, err)
		}
		if !exists {
			return fmt.Errorf("%w: ingredient product %d", ErrNotFound, in.IngredientID)
		}
	}

	existing, err := s.loadEdgesTx(ctx, tx, tenantID, productID)
	if err != nil {
		return err
	}
	if HasCircularReference(productID, ingredients, existing) {
		return fmt.Errorf("%w: product %d cannot be an ingredient of itself", ErrCircularIngredient, productID)
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM product_ingredients WHERE product_id = $1", productID,
	); err != nil {
		return fmt.Errorf("failed to clear ingredients of product %d: %w", productID, err)
	}
	for _, in := range ingredients {
		if _, err := tx.Exec(ctx,
			"INSERT INTO product_ingredients (product_id, ingredient_id, quantity) VALUES ($1, $2, $3)",
			productID, in.IngredientID, in.Quantity,
		); err != nil {
			return fmt.Errorf("failed to insert ingredient %d: %w", in.IngredientID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ingredient replacement: %w", err)
	}
	return nil
}

// loadEdgesTx loads the tenant's ingredient edges excluding the product's own
// current recipe, which the proposed list is about to replace.
func (s *productService) loadEdgesTx(ctx context.Context, tx pgx.Tx, tenantID, productID int) (map[int][]IngredientEdge, error) {
	rows, err := tx.Query(ctx, `
		SELECT pi.product_id, pi.ingredient_id, pi.quantity
		FROM product_ingredients pi
		JOIN products p ON p.id = pi.product_id
		WHERE p.tenant_id = $1 AND pi.product_id <> $2
	`, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredient edges: %w", err)
	}
	defer rows.Close()

	edges := make(map[int][]IngredientEdge)
	for rows.Next() {
		var owner int
		var e IngredientEdge
		if err := rows.Scan(&owner, &e.IngredientID, &e.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient edge: %w", err)
		}
		edges[owner] = append(edges[owner], e)
	}
	return edges, rows.Err()
}

func (s *productService) GetIngredients(ctx context.Context, tenantID, productID int) ([]ProductIngredient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pi.id, pi.product_id, pi.ingredient_id, ing.name, ing.is_composite, pi.quantity
		FROM product_ingredients pi
		JOIN products p   ON p.id = pi.product_id
		JOIN products ing ON ing.id = pi.ingredient_id
		WHERE pi.product_id = $1 AND p.tenant_id = $2
		ORDER BY pi.id
	`, productID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []ProductIngredient
	for rows.Next() {
		var pi ProductIngredient
		if err := rows.Scan(&pi.ID, &pi.ProductID, &pi.IngredientID,
			&pi.IngredientName, &pi.IngredientIsComposite, &pi.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, pi)
	}
	return ingredients, rows.Err()
}
