package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CashService manages drawer sessions and their reconciliation. The expected
// drawer amount is always derived from stored rows at read time:
//
//	expected = opening + cash sales + deposits - withdrawals
//
// where cash sales count only the cash portion of orders linked to the
// session. Nothing caches a running balance.
type CashService interface {
	OpenSession(ctx context.Context, tenantID, userID int, openingAmount decimal.Decimal) (*CashSession, error)
	CloseSession(ctx context.Context, tenantID, userID int, closingAmount decimal.Decimal) (*CashSession, error)
	// GetCurrentSession returns the open session with its live expected
	// amount, or ErrNoCashOpen.
	GetCurrentSession(ctx context.Context, tenantID int) (*CashSessionSummary, error)
	AddMovement(ctx context.Context, tenantID, userID int, movementType string, amount decimal.Decimal, reason string) (*CashMovement, error)
	// GetSessionMovements lists the open session's movements, newest first.
	// An empty list when no session is open, not an error.
	GetSessionMovements(ctx context.Context, tenantID int) ([]CashMovement, error)
}

type cashService struct {
	pool *pgxpool.Pool
}

// NewCashService constructs a CashService backed by PostgreSQL.
func NewCashService(pool *pgxpool.Pool) CashService {
	return &cashService{pool: pool}
}

const sessionColumns = `id, tenant_id, opened_by, opening_amount, status, opened_at,
	closing_amount, expected_amount, difference, closed_by, closed_at`

func scanSession(row pgx.Row) (*CashSession, error) {
	var cs CashSession
	err := row.Scan(&cs.ID, &cs.TenantID, &cs.OpenedBy, &cs.OpeningAmount, &cs.Status,
		&cs.OpenedAt, &cs.ClosingAmount, &cs.ExpectedAmount, &cs.Difference,
		&cs.ClosedBy, &cs.ClosedAt)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func (s *cashService) OpenSession(ctx context.Context, tenantID, userID int, openingAmount decimal.Decimal) (*CashSession, error) {
	if openingAmount.IsNegative() {
		return nil, fmt.Errorf("opening amount cannot be negative, got %s", openingAmount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin open-session transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing int
	err = tx.QueryRow(ctx,
		"SELECT id FROM cash_sessions WHERE tenant_id = $1 AND status = 'open' FOR UPDATE",
		tenantID,
	).Scan(&existing)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: session %d is still open", ErrCashAlreadyOpen, existing)
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("failed to check open session: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO cash_sessions (tenant_id, opened_by, opening_amount, status)
		VALUES ($1, $2, $3, 'open')
		RETURNING `+sessionColumns,
		tenantID, userID, openingAmount,
	)
	cs, err := scanSession(row)
	if err != nil {
		// Two concurrent opens both pass the FOR UPDATE check on an empty
		// result; the partial unique index catches the loser here.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: another session was opened concurrently", ErrCashAlreadyOpen)
		}
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit open session: %w", err)
	}
	return cs, nil
}

// expectedAmountTx computes the live expected drawer amount of a session from
// its linked paid orders and manual movements.
func (s *cashService) expectedAmountTx(ctx context.Context, tx pgx.Tx, sessionID int, opening decimal.Decimal) (cashSales, deposits, withdrawals, expected decimal.Decimal, err error) {
	rows, err := tx.Query(ctx, `
		SELECT payment_method, total, payment_details
		FROM orders
		WHERE cash_session_id = $1 AND status = $2
	`, sessionID, StatusPaid)
	if err != nil {
		err = fmt.Errorf("failed to query session orders: %w", err)
		return
	}
	defer rows.Close()

	cashSales = decimal.Zero
	for rows.Next() {
		var method *string
		var total decimal.Decimal
		var details []byte
		if scanErr := rows.Scan(&method, &total, &details); scanErr != nil {
			err = fmt.Errorf("failed to scan session order: %w", scanErr)
			return
		}
		if method == nil {
			continue
		}
		cashSales = cashSales.Add(CashPortion(*method, total, details))
	}
	if err = rows.Err(); err != nil {
		return
	}

	err = tx.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE movement_type = 'deposit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE movement_type = 'withdrawal'), 0)
		FROM cash_movements
		WHERE session_id = $1
	`, sessionID).Scan(&deposits, &withdrawals)
	if err != nil {
		err = fmt.Errorf("failed to sum session movements: %w", err)
		return
	}

	expected = opening.Add(cashSales).Add(deposits).Sub(withdrawals)
	return
}

func (s *cashService) CloseSession(ctx context.Context, tenantID, userID int, closingAmount decimal.Decimal) (*CashSession, error) {
	if closingAmount.IsNegative() {
		return nil, fmt.Errorf("closing amount cannot be negative, got %s", closingAmount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin close-session transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var sessionID int
	var opening decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT id, opening_amount FROM cash_sessions WHERE tenant_id = $1 AND status = 'open' FOR UPDATE",
		tenantID,
	).Scan(&sessionID, &opening)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: nothing to close", ErrNoCashOpen)
		}
		return nil, fmt.Errorf("failed to lock open session: %w", err)
	}

	_, _, _, expected, err := s.expectedAmountTx(ctx, tx, sessionID, opening)
	if err != nil {
		return nil, err
	}
	difference := closingAmount.Sub(expected)

	row := tx.QueryRow(ctx, `
		UPDATE cash_sessions
		SET status = 'closed', closing_amount = $1, expected_amount = $2,
		    difference = $3, closed_by = $4, closed_at = NOW()
		WHERE id = $5
		RETURNING `+sessionColumns,
		closingAmount, expected, difference, userID, sessionID,
	)
	cs, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("failed to close session %d: %w", sessionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit close session: %w", err)
	}
	return cs, nil
}

func (s *cashService) GetCurrentSession(ctx context.Context, tenantID int) (*CashSessionSummary, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin session read: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM cash_sessions WHERE tenant_id = $1 AND status = 'open'",
		tenantID,
	)
	cs, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCashOpen
		}
		return nil, fmt.Errorf("failed to fetch open session: %w", err)
	}

	cashSales, deposits, withdrawals, expected, err := s.expectedAmountTx(ctx, tx, cs.ID, cs.OpeningAmount)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit session read: %w", err)
	}

	return &CashSessionSummary{
		Session:     *cs,
		CashSales:   cashSales,
		Deposits:    deposits,
		Withdrawals: withdrawals,
		Expected:    expected,
	}, nil
}

func (s *cashService) AddMovement(ctx context.Context, tenantID, userID int, movementType string, amount decimal.Decimal, reason string) (*CashMovement, error) {
	switch movementType {
	case CashMovementDeposit, CashMovementWithdrawal:
	default:
		return nil, fmt.Errorf("unknown cash movement type %q", movementType)
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("movement amount must be > 0, got %s", amount)
	}
	if len(reason) < 5 {
		return nil, fmt.Errorf("movement reason must be at least 5 characters")
	}

	var sessionID int
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM cash_sessions WHERE tenant_id = $1 AND status = 'open'",
		tenantID,
	).Scan(&sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: open a session before recording movements", ErrNoCashOpen)
		}
		return nil, fmt.Errorf("failed to find open session: %w", err)
	}

	var m CashMovement
	err = s.pool.QueryRow(ctx, `
		INSERT INTO cash_movements (session_id, user_id, movement_type, amount, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, user_id, movement_type, amount, reason, created_at
	`, sessionID, userID, movementType, amount, reason).Scan(
		&m.ID, &m.SessionID, &m.UserID, &m.MovementType, &m.Amount, &m.Reason, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert cash movement: %w", err)
	}
	return &m, nil
}

func (s *cashService) GetSessionMovements(ctx context.Context, tenantID int) ([]CashMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cm.id, cm.session_id, cm.user_id, cm.movement_type, cm.amount, cm.reason, cm.created_at
		FROM cash_movements cm
		JOIN cash_sessions cs ON cs.id = cm.session_id
		WHERE cs.tenant_id = $1 AND cs.status = 'open'
		ORDER BY cm.created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session movements: %w", err)
	}
	defer rows.Close()

	movements := []CashMovement{}
	for rows.Next() {
		var m CashMovement
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.MovementType,
			&m.Amount, &m.Reason, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cash movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
