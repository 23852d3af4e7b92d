package web

import (
	"net/http"

	"pos-platform/internal/app"
	"pos-platform/internal/core"

	"github.com/shopspring/decimal"
)

// listProducts handles GET /api/products?active=true.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	activeOnly := r.URL.Query().Get("active") == "true"

	result, err := h.svc.ListProducts(r.Context(), claims.TenantID, activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getProduct handles GET /api/products/{id}.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.GetProduct(r.Context(), claims.TenantID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createProduct handles POST /api/products.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var in core.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.svc.CreateProduct(r.Context(), claims.TenantID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

// updateProduct handles PUT /api/products/{id}.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var in core.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.svc.UpdateProduct(r.Context(), claims.TenantID, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// deactivateProduct handles DELETE /api/products/{id}.
func (h *Handler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeactivateProduct(r.Context(), claims.TenantID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getAvailability handles GET /api/products/{id}/availability.
func (h *Handler) getAvailability(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	avail, err := h.svc.GetAvailability(r.Context(), claims.TenantID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]decimal.Decimal{"availability": avail})
}

// getIngredients handles GET /api/products/{id}/ingredients.
func (h *Handler) getIngredients(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	ingredients, err := h.svc.GetIngredients(r.Context(), claims.TenantID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"ingredients": ingredients})
}

// setIngredients handles PUT /api/products/{id}/ingredients.
func (h *Handler) setIngredients(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		Ingredients []core.IngredientInput `json:"ingredients"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.SetIngredients(r.Context(), claims.TenantID, id, req.Ingredients); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getKardex handles GET /api/products/{id}/kardex?limit=50.
func (h *Handler) getKardex(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			limit = n
		}
	}

	movements, err := h.svc.GetKardex(r.Context(), claims.TenantID, id, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"movements": movements})
}

// adjustStock handles POST /api/products/{id}/adjust.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		MovementType string          `json:"movement_type"`
		Quantity     decimal.Decimal `json:"quantity"`
		Reason       string          `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	movement, err := h.svc.AdjustStock(r.Context(), app.AdjustStockRequest{
		TenantID:     claims.TenantID,
		UserID:       claims.UserID,
		ProductID:    id,
		MovementType: core.MovementType(req.MovementType),
		Quantity:     req.Quantity,
		Reason:       req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, movement)
}

// getLowStock handles GET /api/stock/low.
func (h *Handler) getLowStock(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.GetLowStock(r.Context(), claims.TenantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
