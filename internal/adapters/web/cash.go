package web

import (
	"net/http"

	"pos-platform/internal/app"

	"github.com/shopspring/decimal"
)

// openCash handles POST /api/cash/open.
func (h *Handler) openCash(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var req struct {
		OpeningAmount decimal.Decimal `json:"opening_amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.svc.OpenCash(r.Context(), claims.TenantID, claims.UserID, req.OpeningAmount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, session)
}

// closeCash handles POST /api/cash/close.
func (h *Handler) closeCash(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var req struct {
		ClosingAmount decimal.Decimal `json:"closing_amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.svc.CloseCash(r.Context(), claims.TenantID, claims.UserID, req.ClosingAmount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, session)
}

// cashStatus handles GET /api/cash/status.
func (h *Handler) cashStatus(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	summary, err := h.svc.GetCashStatus(r.Context(), claims.TenantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// addCashMovement handles POST /api/cash/movements.
func (h *Handler) addCashMovement(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var req struct {
		MovementType string          `json:"movement_type"`
		Amount       decimal.Decimal `json:"amount"`
		Reason       string          `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	movement, err := h.svc.AddCashMovement(r.Context(), app.CashMovementRequest{
		TenantID:     claims.TenantID,
		UserID:       claims.UserID,
		MovementType: req.MovementType,
		Amount:       req.Amount,
		Reason:       req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, movement)
}

// listCashMovements handles GET /api/cash/movements.
func (h *Handler) listCashMovements(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	movements, err := h.svc.ListCashMovements(r.Context(), claims.TenantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"movements": movements})
}
