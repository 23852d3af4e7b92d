package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// orderTransitions is the legal status transition table. Statuses not listed
// as a source (paid, cancelled) are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusDraft:     {StatusPending, StatusCancelled},
	StatusPending:   {StatusInCashier, StatusCancelled},
	StatusInCashier: {StatusPaid, StatusPending, StatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an error naming both statuses when the requested
// transition is not in the table.
func ValidateTransition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// paymentTolerance is the absolute currency rounding tolerance applied when
// comparing the tendered sum against the order total.
var paymentTolerance = decimal.RequireFromString("0.01")

// ValidateTenders checks that the tendered payments are well formed and sum to
// the order total within tolerance. On mismatch the error reports both sums.
func ValidateTenders(tenders []Tender, total decimal.Decimal) error {
	if len(tenders) == 0 {
		return fmt.Errorf("%w: no tenders provided", ErrAmountMismatch)
	}

	sum := decimal.Zero
	for i, t := range tenders {
		switch t.Method {
		case MethodCash, MethodCard, MethodTransfer:
		default:
			return fmt.Errorf("tender %d: unknown payment method %q", i+1, t.Method)
		}
		if t.Amount.IsNegative() || t.Amount.IsZero() {
			return fmt.Errorf("tender %d: amount must be > 0, got %s", i+1, t.Amount)
		}
		sum = sum.Add(t.Amount)
	}

	if sum.Sub(total).Abs().GreaterThan(paymentTolerance) {
		return fmt.Errorf("%w: tendered %s does not match order total %s",
			ErrAmountMismatch, sum.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

// PaymentMethodFor derives the order-level payment method tag: the single
// tender's method when exactly one was used, otherwise "mixed".
func PaymentMethodFor(tenders []Tender) string {
	if len(tenders) == 1 {
		return tenders[0].Method
	}
	return MethodMixed
}

// ParsePaymentDetails decodes the payment-details snapshot from an order row.
// The blob may be a JSON object, or a JSON string wrapping the object (legacy
// rows were double-encoded), so both forms are accepted.
func ParsePaymentDetails(raw []byte) (*PaymentDetails, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty payment details")
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, fmt.Errorf("unwrap payment details string: %w", err)
		}
		trimmed = inner
	}

	var pd PaymentDetails
	if err := json.Unmarshal([]byte(trimmed), &pd); err != nil {
		return nil, fmt.Errorf("decode payment details: %w", err)
	}
	return &pd, nil
}

// CashPortion returns how much of a paid order was settled in cash: the full
// total for cash orders, the sum of cash tenders for mixed orders (extracted
// from the stored payment details), and zero for card/transfer orders.
// Unparseable details on a mixed order contribute zero rather than failing
// the caller; reconciliation must tolerate malformed legacy blobs.
func CashPortion(method string, total decimal.Decimal, rawDetails []byte) decimal.Decimal {
	switch method {
	case MethodCash:
		return total
	case MethodMixed:
		pd, err := ParsePaymentDetails(rawDetails)
		if err != nil {
			return decimal.Zero
		}
		cash := decimal.Zero
		for _, t := range pd.Tenders {
			if t.Method == MethodCash {
				cash = cash.Add(t.Amount)
			}
		}
		return cash
	default:
		return decimal.Zero
	}
}
