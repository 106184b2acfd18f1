package booking

import (
	"errors"
	"testing"

	"ride-share/internal/apperr"
)

func TestBookingLifecycle(t *testing.T) {
	b, err := NewBooking("trip-1", "rider-1", 2)
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	if b.Status != StatusPending {
		t.Fatalf("status = %s", b.Status)
	}
	if err := b.Complete(); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("complete from pending: %v", err)
	}
	if err := b.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	err = b.Confirm()
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("second confirm: %v", err)
	}
	if got := apperr.Message(err); got != "booking is confirmed, expected pending" {
		t.Fatalf("message = %q", got)
	}

	if err := b.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := b.Cancel(); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("cancel after completion: %v", err)
	}
}

func TestNewBookingSeatLimits(t *testing.T) {
	for _, seats := range []int{0, 9, -1} {
		if _, err := NewBooking("trip-1", "rider-1", seats); !errors.Is(err, ErrSeatsOutOfRange) {
			t.Errorf("seats=%d: err = %v", seats, err)
		}
	}
}

func TestRequireRider(t *testing.T) {
	b, _ := NewBooking("trip-1", "rider-1", 1)
	if err := b.RequireRider("rider-2"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if err := b.RequireRider("rider-1"); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestQuotePriceCeiling(t *testing.T) {
	if _, err := NewQuote("b-1", 0); !errors.Is(err, ErrInvalidMaxPrice) {
		t.Fatalf("zero max price: %v", err)
	}

	q, err := NewQuote("b-1", 24.50)
	if err != nil {
		t.Fatalf("NewQuote: %v", err)
	}
	if err := q.SetFinalPrice(30); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("above ceiling: %v", err)
	}
	if q.FinalPrice != nil {
		t.Fatalf("final price must stay unset after a rejected write")
	}
	if err := q.SetFinalPrice(-1); !errors.Is(err, ErrNegativeFinal) {
		t.Fatalf("negative: %v", err)
	}
	if err := q.SetFinalPrice(24.50); err != nil {
		t.Fatalf("at ceiling: %v", err)
	}
	if *q.FinalPrice != 24.50 || q.MaxPrice != 24.50 {
		t.Fatalf("quote = %+v", q)
	}
}

func TestQuoteRoundsCeilingToCents(t *testing.T) {
	q, err := NewQuote("b-1", 24.567)
	if err != nil {
		t.Fatalf("NewQuote: %v", err)
	}
	if q.MaxPrice != 24.57 {
		t.Fatalf("max price = %v, want 24.57", q.MaxPrice)
	}
	if err := q.SetFinalPrice(24.57); err != nil {
		t.Fatalf("charging the quoted amount: %v", err)
	}
	if _, err := NewQuote("b-1", 0.004); !errors.Is(err, ErrInvalidMaxPrice) {
		t.Fatalf("sub-cent ceiling: %v", err)
	}
}
