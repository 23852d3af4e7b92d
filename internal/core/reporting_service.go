package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReportingService aggregates paid orders for dashboards and exports. Method
// breakdowns are computed in Go from the stored payment details so mixed
// orders split into their real per-method amounts instead of counting their
// full total under "mixed".
type ReportingService interface {
	GetDailySales(ctx context.Context, tenantID int, from, to time.Time) ([]DailySales, error)
	GetPaymentMethodBreakdown(ctx context.Context, tenantID int, from, to time.Time) ([]MethodBreakdown, error)
	GetTopProducts(ctx context.Context, tenantID int, from, to time.Time, limit int) ([]TopProduct, error)
	GetHourlySales(ctx context.Context, tenantID int, from, to time.Time) ([]HourlySales, error)
	GetDashboard(ctx context.Context, tenantID int, from, to time.Time) (*Dashboard, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by PostgreSQL.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) GetDailySales(ctx context.Context, tenantID int, from, to time.Time) ([]DailySales, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DATE_TRUNC('day', created_at) AS day, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE tenant_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4
		GROUP BY day
		ORDER BY day
	`, tenantID, StatusPaid, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	defer rows.Close()

	var days []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.OrderCount, &d.Total); err != nil {
			return nil, fmt.Errorf("failed to scan daily sales: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *reportingService) GetPaymentMethodBreakdown(ctx context.Context, tenantID int, from, to time.Time) ([]MethodBreakdown, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payment_method, total, payment_details
		FROM orders
		WHERE tenant_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4
	`, tenantID, StatusPaid, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query paid orders: %w", err)
	}
	defer rows.Close()

	totals := map[string]decimal.Decimal{}
	counts := map[string]int{}
	for rows.Next() {
		var method *string
		var total decimal.Decimal
		var details []byte
		if err := rows.Scan(&method, &total, &details); err != nil {
			return nil, fmt.Errorf("failed to scan paid order: %w", err)
		}
		if method == nil {
			continue
		}
		switch *method {
		case MethodMixed:
			pd, err := ParsePaymentDetails(details)
			if err != nil {
				// malformed legacy blob: keep the revenue visible under mixed
				totals[MethodMixed] = totals[MethodMixed].Add(total)
				counts[MethodMixed]++
				continue
			}
			for _, t := range pd.Tenders {
				totals[t.Method] = totals[t.Method].Add(t.Amount)
			}
			counts[MethodMixed]++
		default:
			totals[*method] = totals[*method].Add(total)
			counts[*method]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	breakdown := make([]MethodBreakdown, 0, len(totals))
	for method, total := range totals {
		breakdown = append(breakdown, MethodBreakdown{Method: method, Total: total, Count: counts[method]})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Total.GreaterThan(breakdown[j].Total)
	})
	return breakdown, nil
}

func (s *reportingService) GetTopProducts(ctx context.Context, tenantID int, from, to time.Time, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT oi.product_id, p.name, SUM(oi.quantity)::INT, COALESCE(SUM(oi.subtotal), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.tenant_id = $1 AND o.status = $2 AND o.created_at >= $3 AND o.created_at < $4
		GROUP BY oi.product_id, p.name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT $5
	`, tenantID, StatusPaid, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	var top []TopProduct
	for rows.Next() {
		var t TopProduct
		if err := rows.Scan(&t.ProductID, &t.Name, &t.Units, &t.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		top = append(top, t)
	}
	return top, rows.Err()
}

func (s *reportingService) GetHourlySales(ctx context.Context, tenantID int, from, to time.Time) ([]HourlySales, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT EXTRACT(HOUR FROM created_at)::INT AS hour, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE tenant_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4
		GROUP BY hour
		ORDER BY hour
	`, tenantID, StatusPaid, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly sales: %w", err)
	}
	defer rows.Close()

	var hours []HourlySales
	for rows.Next() {
		var h HourlySales
		if err := rows.Scan(&h.Hour, &h.OrderCount, &h.Total); err != nil {
			return nil, fmt.Errorf("failed to scan hourly sales: %w", err)
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

func (s *reportingService) periodTotals(ctx context.Context, tenantID int, from, to time.Time) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE tenant_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4
	`, tenantID, StatusPaid, from, to).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to sum period totals: %w", err)
	}
	return total, count, nil
}

// pctChange returns (current-previous)/previous*100, or nil when the previous
// value is zero and no meaningful change exists.
func pctChange(current, previous decimal.Decimal) *decimal.Decimal {
	if previous.IsZero() {
		return nil
	}
	pct := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1)
	return &pct
}

func (s *reportingService) GetDashboard(ctx context.Context, tenantID int, from, to time.Time) (*Dashboard, error) {
	total, count, err := s.periodTotals(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	// preceding period of equal length
	span := to.Sub(from)
	prevTotal, prevCount, err := s.periodTotals(ctx, tenantID, from.Add(-span), from)
	if err != nil {
		return nil, err
	}

	top, err := s.GetTopProducts(ctx, tenantID, from, to, 5)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.GetPaymentMethodBreakdown(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	avg := decimal.Zero
	if count > 0 {
		avg = total.Div(decimal.NewFromInt(int64(count))).Round(2)
	}

	return &Dashboard{
		From:            from,
		To:              to,
		TotalSales:      total,
		OrderCount:      count,
		AverageTicket:   avg,
		SalesChangePct:  pctChange(total, prevTotal),
		OrdersChangePct: pctChange(decimal.NewFromInt(int64(count)), decimal.NewFromInt(int64(prevCount))),
		TopProducts:     top,
		Breakdown:       breakdown,
	}, nil
}
