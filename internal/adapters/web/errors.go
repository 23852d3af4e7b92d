package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"pos-platform/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError translates a service-layer error into an HTTP response.
// Sentinel errors map to their REST status; anything else is treated as a
// request problem and reported verbatim, since the services wrap store
// failures with context that is safe to show.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrCashAlreadyOpen):
		writeError(w, r, err.Error(), "CASH_ALREADY_OPEN", http.StatusConflict)
	case errors.Is(err, core.ErrNoCashOpen):
		writeError(w, r, err.Error(), "NO_CASH_OPEN", http.StatusConflict)
	case errors.Is(err, core.ErrInsufficientStock):
		writeError(w, r, err.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.Is(err, core.ErrAmountMismatch):
		writeError(w, r, err.Error(), "AMOUNT_MISMATCH", http.StatusBadRequest)
	case errors.Is(err, core.ErrCircularIngredient):
		writeError(w, r, err.Error(), "CIRCULAR_INGREDIENT", http.StatusBadRequest)
	default:
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	}
}
