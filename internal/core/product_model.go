package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item in the tenant catalog.
// Stock is authoritative only when IsComposite is false; composite products
// derive availability from their ingredient graph and keep stock at zero.
type Product struct {
	ID          int              `json:"id"`
	TenantID    int              `json:"tenant_id"`
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	Price       decimal.Decimal  `json:"price"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	Stock       decimal.Decimal  `json:"stock"`
	MinStock    *decimal.Decimal `json:"min_stock,omitempty"`
	Unit        string           `json:"unit"`
	IsActive    bool             `json:"is_active"`
	IsFavorite  bool             `json:"is_favorite"`
	IsComposite bool             `json:"is_composite"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ProductIngredient is an edge from a composite product to one component.
// Quantity is how much of the ingredient one unit of the composite consumes.
type ProductIngredient struct {
	ID                    int             `json:"id"`
	ProductID             int             `json:"product_id"`
	IngredientID          int             `json:"ingredient_id"`
	IngredientName        string          `json:"ingredient_name"` // joined from products
	IngredientIsComposite bool            `json:"ingredient_is_composite"`
	Quantity              decimal.Decimal `json:"quantity"`
}

// ProductInput carries the writable product fields. Stock applies at creation
// only; later stock changes go through the inventory ledger and updates
// ignore the field.
type ProductInput struct {
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	Price       decimal.Decimal  `json:"price"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	Stock       decimal.Decimal  `json:"stock"`
	MinStock    *decimal.Decimal `json:"min_stock,omitempty"`
	Unit        string           `json:"unit"`
	IsFavorite  bool             `json:"is_favorite"`
	IsComposite bool             `json:"is_composite"`
}

// IngredientInput is one proposed edge when replacing a composite's recipe.
type IngredientInput struct {
	IngredientID int             `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}
