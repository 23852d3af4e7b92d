package web

import (
	"net/http"

	"pos-platform/internal/app"
	"pos-platform/internal/core"

	"github.com/shopspring/decimal"
)

// createOrder handles POST /api/orders.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var req struct {
		Items []core.OrderItemInput `json:"items"`
		Notes string                `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), app.CreateOrderRequest{
		TenantID: claims.TenantID,
		SellerID: claims.UserID,
		Items:    req.Items,
		Notes:    req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

// listOrders handles GET /api/orders?status=pending&limit=50.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	status := r.URL.Query().Get("status")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			limit = n
		}
	}

	result, err := h.svc.ListOrders(r.Context(), claims.TenantID, status, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.GetOrder(r.Context(), claims.TenantID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// sendToCashier handles POST /api/orders/{id}/send-to-cashier.
func (h *Handler) sendToCashier(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.SendToCashier(r.Context(), claims.TenantID, claims.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// releaseOrder handles POST /api/orders/{id}/release.
func (h *Handler) releaseOrder(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.ReleaseOrder(r.Context(), claims.TenantID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// cancelOrder handles POST /api/orders/{id}/cancel.
func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CancelOrder(r.Context(), claims.TenantID, id, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// payOrder handles POST /api/orders/{id}/pay.
func (h *Handler) payOrder(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid order id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		Tenders        []core.Tender    `json:"tenders"`
		AmountReceived *decimal.Decimal `json:"amount_received,omitempty"`
		Change         *decimal.Decimal `json:"change,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.PayOrder(r.Context(), app.PayOrderRequest{
		TenantID:       claims.TenantID,
		CashierID:      claims.UserID,
		OrderID:        id,
		Tenders:        req.Tenders,
		AmountReceived: req.AmountReceived,
		Change:         req.Change,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
