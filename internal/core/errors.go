package core

import "errors"

// Sentinel errors returned by the core services. Callers match with errors.Is;
// the web adapter maps each to an HTTP status.
var (
	// ErrInvalidTransition reports an order status change outside the
	// transition table.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrAmountMismatch reports tendered payments that do not sum to the
	// order total within tolerance.
	ErrAmountMismatch = errors.New("payment amount mismatch")

	// ErrInsufficientStock reports a stock decrement below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCircularIngredient reports an ingredient assignment that would make
	// a product an ingredient of itself.
	ErrCircularIngredient = errors.New("circular ingredient reference")

	// ErrCashAlreadyOpen reports an attempt to open a second session while
	// one is already open for the tenant.
	ErrCashAlreadyOpen = errors.New("cash already open")

	// ErrNoCashOpen reports a session operation with no open session.
	ErrNoCashOpen = errors.New("no cash open")

	// ErrNotFound reports a missing row within the caller's tenant.
	ErrNotFound = errors.New("not found")
)
