package payment

import (
	"errors"
	"testing"

	"ride-share/internal/apperr"
)

func TestPaymentStateMachine(t *testing.T) {
	p, err := NewPayment("b-1", 12.5, "pi_123")
	if err != nil {
		t.Fatalf("NewPayment: %v", err)
	}
	if p.Status != StatusPending || p.Ref() != "pi_123" {
		t.Fatalf("payment = %+v", p)
	}

	if err := p.MarkRefunded(); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("refund from pending: %v", err)
	}
	if err := p.MarkCaptured(); err != nil {
		t.Fatalf("MarkCaptured: %v", err)
	}
	if err := p.MarkFailed(); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("fail from captured: %v", err)
	}
	if err := p.RequirePending(); apperr.Message(err) != "payment is captured, expected pending" {
		t.Fatalf("RequirePending message = %q", apperr.Message(err))
	}
	if err := p.MarkRefunded(); err != nil {
		t.Fatalf("MarkRefunded: %v", err)
	}
	if p.Status.CanTransitionTo(StatusCaptured) {
		t.Fatalf("refunded must be terminal")
	}
}

func TestAmountCents(t *testing.T) {
	cases := map[float64]int64{12.5: 1250, 0.29: 29, 19.999: 2000, 1: 100}
	for in, want := range cases {
		if got := AmountCents(in); got != want {
			t.Errorf("AmountCents(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestNewPaymentRejectsNonPositiveAmount(t *testing.T) {
	if _, err := NewPayment("b-1", 0, "pi"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v", err)
	}
}
