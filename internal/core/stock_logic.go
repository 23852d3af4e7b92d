package core

import "github.com/shopspring/decimal"

// IngredientEdge is one edge of an in-memory ingredient graph snapshot:
// a composite consumes Quantity units of IngredientID per unit produced.
type IngredientEdge struct {
	IngredientID int
	Quantity     decimal.Decimal
}

// StockGraph is a point-in-time snapshot of a tenant's products and
// ingredient edges, loaded once per availability computation so the recursive
// math runs without further round trips to the store.
type StockGraph struct {
	stock     map[int]decimal.Decimal
	composite map[int]bool
	edges     map[int][]IngredientEdge
}

// NewStockGraph returns an empty snapshot.
func NewStockGraph() *StockGraph {
	return &StockGraph{
		stock:     make(map[int]decimal.Decimal),
		composite: make(map[int]bool),
		edges:     make(map[int][]IngredientEdge),
	}
}

// AddProduct records a product's stored stock and composite flag.
func (g *StockGraph) AddProduct(id int, stock decimal.Decimal, isComposite bool) {
	g.stock[id] = stock
	g.composite[id] = isComposite
}

// AddEdge records one ingredient edge.
func (g *StockGraph) AddEdge(productID int, edge IngredientEdge) {
	g.edges[productID] = append(g.edges[productID], edge)
}

// Availability computes how many units of a product can be sold right now.
// Non-composite products report their stored stock. A composite's
// availability is the minimum over its ingredients of
// floor(ingredient_available / quantity_per_unit), applied recursively when
// an ingredient is itself composite. Write-time cycle validation guarantees
// the graph is acyclic, but a visited set guards the recursion anyway so a
// corrupted graph terminates instead of recursing forever.
func (g *StockGraph) Availability(productID int) decimal.Decimal {
	return g.availability(productID, make(map[int]bool))
}

func (g *StockGraph) availability(productID int, onPath map[int]bool) decimal.Decimal {
	if !g.composite[productID] {
		return g.stock[productID]
	}
	if onPath[productID] {
		return decimal.Zero
	}
	edges := g.edges[productID]
	if len(edges) == 0 {
		// composite with no recipe yields nothing
		return decimal.Zero
	}

	onPath[productID] = true
	defer delete(onPath, productID)

	var min decimal.Decimal
	for i, e := range edges {
		avail := g.availability(e.IngredientID, onPath)
		units := avail.Div(e.Quantity).Floor()
		if i == 0 || units.LessThan(min) {
			min = units
		}
	}
	return min
}

// HasCircularReference reports whether assigning the proposed ingredient list
// to productID would make the product an ingredient of itself, directly or
// transitively. existing holds the current edges of every other product; the
// proposed list replaces productID's own edges for the check. The walk is a
// depth-first traversal from the product through composite ingredients.
func HasCircularReference(productID int, proposed []IngredientInput, existing map[int][]IngredientEdge) bool {
	stack := make([]int, 0, len(proposed))
	for _, in := range proposed {
		if in.IngredientID == productID {
			return true
		}
		stack = append(stack, in.IngredientID)
	}

	visited := make(map[int]bool)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, e := range existing[id] {
			if e.IngredientID == productID {
				return true
			}
			stack = append(stack, e.IngredientID)
		}
	}
	return false
}
