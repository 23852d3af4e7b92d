package web

import (
	"fmt"
	"net/http"
	"time"
)

// dashboard handles GET /api/reports/dashboard?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, "invalid date range: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	dash, err := h.svc.GetDashboard(r.Context(), claims.TenantID, from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, dash)
}

// dailySales handles GET /api/reports/daily.
func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, "invalid date range: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	days, err := h.svc.GetDailySales(r.Context(), claims.TenantID, from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"days": days})
}

// hourlySales handles GET /api/reports/hourly.
func (h *Handler) hourlySales(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, "invalid date range: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	hours, err := h.svc.GetHourlySales(r.Context(), claims.TenantID, from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"hours": hours})
}

// exportDailySales handles GET /api/reports/daily/export — streams an XLSX
// workbook.
func (h *Handler) exportDailySales(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, "invalid date range: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	book, err := h.svc.ExportDailySales(r.Context(), claims.TenantID, from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("daily-sales-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(book)
}

// askAssistant handles POST /api/ai/ask.
func (h *Handler) askAssistant(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var req struct {
		Question string `json:"question"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.AskAssistant(r.Context(), claims.TenantID, req.Question)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
