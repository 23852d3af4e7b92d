package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-platform/internal/app"
	"pos-platform/internal/core"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)

	// ── Protected API routes ─────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Catalog — reads for everyone, writes for admins
		r.Get("/api/products", h.listProducts)
		r.Get("/api/products/{id}", h.getProduct)
		r.Get("/api/products/{id}/availability", h.getAvailability)
		r.Get("/api/products/{id}/ingredients", h.getIngredients)
		r.Get("/api/products/{id}/kardex", h.getKardex)
		r.Get("/api/stock/low", h.getLowStock)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleAdmin))
			r.Post("/api/products", h.createProduct)
			r.Put("/api/products/{id}", h.updateProduct)
			r.Delete("/api/products/{id}", h.deactivateProduct)
			r.Put("/api/products/{id}/ingredients", h.setIngredients)
			r.Post("/api/products/{id}/adjust", h.adjustStock)
		})

		// Orders
		r.Post("/api/orders", h.createOrder)
		r.Get("/api/orders", h.listOrders)
		r.Get("/api/orders/{id}", h.getOrder)
		r.Post("/api/orders/{id}/send-to-cashier", h.sendToCashier)
		r.Post("/api/orders/{id}/cancel", h.cancelOrder)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleCashier, core.RoleAdmin))
			r.Post("/api/orders/{id}/release", h.releaseOrder)
			r.Post("/api/orders/{id}/pay", h.payOrder)
		})

		// Cash drawer — cashiers and admins
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleCashier, core.RoleAdmin))
			r.Post("/api/cash/open", h.openCash)
			r.Post("/api/cash/close", h.closeCash)
			r.Get("/api/cash/status", h.cashStatus)
			r.Post("/api/cash/movements", h.addCashMovement)
			r.Get("/api/cash/movements", h.listCashMovements)
		})

		// Reports and assistant — admins only
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleAdmin))
			r.Get("/api/reports/dashboard", h.dashboard)
			r.Get("/api/reports/daily", h.dailySales)
			r.Get("/api/reports/hourly", h.hourlySales)
			r.Get("/api/reports/daily/export", h.exportDailySales)
			r.Post("/api/ai/ask", h.askAssistant)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts the {id} URL parameter as an int.
func idParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// parsePositiveInt parses a query parameter that must be a positive integer.
func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

// dateRange reads optional from/to query parameters (YYYY-MM-DD); the default
// window is today. The to bound is exclusive and advanced one day so that a
// from=to=2026-03-01 request covers the whole day.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, now.Location())
		if err != nil {
			return from, to, err
		}
		from = parsed
		to = from.AddDate(0, 0, 1)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, now.Location())
		if err != nil {
			return from, to, err
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
