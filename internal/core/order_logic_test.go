package core_test

import (
	"errors"
	"testing"

	"pos-platform/internal/core"

	"github.com/shopspring/decimal"
)

func TestCanTransition_FullTable(t *testing.T) {
	statuses := []core.OrderStatus{
		core.StatusDraft, core.StatusPending, core.StatusInCashier,
		core.StatusPaid, core.StatusCancelled,
	}
	allowed := map[[2]core.OrderStatus]bool{
		{core.StatusDraft, core.StatusPending}:       true,
		{core.StatusDraft, core.StatusCancelled}:     true,
		{core.StatusPending, core.StatusInCashier}:   true,
		{core.StatusPending, core.StatusCancelled}:   true,
		{core.StatusInCashier, core.StatusPaid}:      true,
		{core.StatusInCashier, core.StatusPending}:   true,
		{core.StatusInCashier, core.StatusCancelled}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]core.OrderStatus{from, to}]
			if got := core.CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestValidateTransition_TerminalStates(t *testing.T) {
	for _, from := range []core.OrderStatus{core.StatusPaid, core.StatusCancelled} {
		for _, to := range []core.OrderStatus{core.StatusPending, core.StatusInCashier, core.StatusPaid, core.StatusCancelled} {
			err := core.ValidateTransition(from, to)
			if !errors.Is(err, core.ErrInvalidTransition) {
				t.Errorf("ValidateTransition(%s, %s): expected ErrInvalidTransition, got %v", from, to, err)
			}
		}
	}
}

func TestValidateTenders(t *testing.T) {
	tests := []struct {
		name    string
		tenders []core.Tender
		total   string
		wantErr error
	}{
		{
			name:    "exact cash payment",
			tenders: []core.Tender{{Method: core.MethodCash, Amount: d("45.00")}},
			total:   "45.00",
		},
		{
			name: "mixed cash and card matching total",
			tenders: []core.Tender{
				{Method: core.MethodCash, Amount: d("20.00")},
				{Method: core.MethodCard, Amount: d("25.00")},
			},
			total: "45.00",
		},
		{
			name: "mixed tenders short by one",
			tenders: []core.Tender{
				{Method: core.MethodCash, Amount: d("20.00")},
				{Method: core.MethodCard, Amount: d("24.00")},
			},
			total:   "45.00",
			wantErr: core.ErrAmountMismatch,
		},
		{
			name:    "within rounding tolerance under",
			tenders: []core.Tender{{Method: core.MethodCard, Amount: d("44.99")}},
			total:   "45.00",
		},
		{
			name:    "within rounding tolerance over",
			tenders: []core.Tender{{Method: core.MethodCard, Amount: d("45.01")}},
			total:   "45.00",
		},
		{
			name:    "just outside tolerance",
			tenders: []core.Tender{{Method: core.MethodCard, Amount: d("45.02")}},
			total:   "45.00",
			wantErr: core.ErrAmountMismatch,
		},
		{
			name:    "no tenders",
			tenders: nil,
			total:   "45.00",
			wantErr: core.ErrAmountMismatch,
		},
		{
			name:    "zero amount tender",
			tenders: []core.Tender{{Method: core.MethodCash, Amount: decimal.Zero}},
			total:   "0.00",
			wantErr: errors.New("any"),
		},
		{
			name:    "unknown method",
			tenders: []core.Tender{{Method: "crypto", Amount: d("45.00")}},
			total:   "45.00",
			wantErr: errors.New("any"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateTenders(tt.tenders, d(tt.total))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.Is(tt.wantErr, core.ErrAmountMismatch) && !errors.Is(err, core.ErrAmountMismatch) {
				t.Errorf("expected ErrAmountMismatch, got %v", err)
			}
		})
	}
}

func TestPaymentMethodFor(t *testing.T) {
	single := []core.Tender{{Method: core.MethodCard, Amount: d("10.00")}}
	if got := core.PaymentMethodFor(single); got != core.MethodCard {
		t.Errorf("single tender: got %q, want card", got)
	}

	multi := []core.Tender{
		{Method: core.MethodCash, Amount: d("5.00")},
		{Method: core.MethodCard, Amount: d("5.00")},
	}
	if got := core.PaymentMethodFor(multi); got != core.MethodMixed {
		t.Errorf("two tenders: got %q, want mixed", got)
	}

	// two tenders of the same method still tag the order mixed
	sameMethod := []core.Tender{
		{Method: core.MethodCash, Amount: d("5.00")},
		{Method: core.MethodCash, Amount: d("5.00")},
	}
	if got := core.PaymentMethodFor(sameMethod); got != core.MethodMixed {
		t.Errorf("two cash tenders: got %q, want mixed", got)
	}
}

func TestParsePaymentDetails(t *testing.T) {
	object := `{"tenders":[{"method":"cash","amount":"20.00"},{"method":"card","amount":"25.00"}]}`

	pd, err := core.ParsePaymentDetails([]byte(object))
	if err != nil {
		t.Fatalf("object form failed: %v", err)
	}
	if len(pd.Tenders) != 2 {
		t.Fatalf("expected 2 tenders, got %d", len(pd.Tenders))
	}

	// string-wrapped double-encoded form
	wrapped := `"{\"tenders\":[{\"method\":\"cash\",\"amount\":\"20.00\"},{\"method\":\"card\",\"amount\":\"25.00\"}]}"`
	pd, err = core.ParsePaymentDetails([]byte(wrapped))
	if err != nil {
		t.Fatalf("string-wrapped form failed: %v", err)
	}
	if len(pd.Tenders) != 2 {
		t.Fatalf("expected 2 tenders from wrapped form, got %d", len(pd.Tenders))
	}
	if !pd.Tenders[0].Amount.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("expected first tender 20.00, got %s", pd.Tenders[0].Amount)
	}

	if _, err := core.ParsePaymentDetails(nil); err == nil {
		t.Error("expected error on empty details")
	}
	if _, err := core.ParsePaymentDetails([]byte("not json")); err == nil {
		t.Error("expected error on garbage details")
	}
}

func TestCashPortion(t *testing.T) {
	total := d("45.00")
	mixedDetails := []byte(`{"tenders":[{"method":"cash","amount":"20.00"},{"method":"card","amount":"25.00"}]}`)

	if got := core.CashPortion(core.MethodCash, total, nil); !got.Equal(total) {
		t.Errorf("cash order: got %s, want full total", got)
	}
	if got := core.CashPortion(core.MethodCard, total, nil); !got.IsZero() {
		t.Errorf("card order: got %s, want 0", got)
	}
	if got := core.CashPortion(core.MethodTransfer, total, nil); !got.IsZero() {
		t.Errorf("transfer order: got %s, want 0", got)
	}
	if got := core.CashPortion(core.MethodMixed, total, mixedDetails); !got.Equal(d("20.00")) {
		t.Errorf("mixed order: got %s, want 20.00", got)
	}
	// unparseable details contribute zero, never an error
	if got := core.CashPortion(core.MethodMixed, total, []byte("garbage")); !got.IsZero() {
		t.Errorf("mixed order with bad details: got %s, want 0", got)
	}
}
