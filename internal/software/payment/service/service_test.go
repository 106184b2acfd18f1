package service

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/payment"
	"ride-share/internal/general/logger"
	"ride-share/internal/memstore"
	"ride-share/internal/ports"
)

func newManager(t *testing.T) (ports.PaymentManager, *memstore.Store, *memstore.Processor) {
	t.Helper()
	store := memstore.New()
	proc := memstore.NewProcessor()
	mgr := NewPaymentManager(logger.NewWithWriter("test", io.Discard), store, store.Payments(), proc)
	return mgr, store, proc
}

func TestCreateIntentIsUniquePerBooking(t *testing.T) {
	mgr, store, proc := newManager(t)
	ctx := context.Background()

	p, err := mgr.CreateIntent(ctx, "b-1", 12.5)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if p.Status != payment.StatusPending || p.Ref() == "" {
		t.Fatalf("unexpected payment: %+v", p)
	}

	_, err = mgr.CreateIntent(ctx, "b-1", 12.5)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("second CreateIntent err = %v, want InvalidState", err)
	}
	if store.PaymentCount() != 1 {
		t.Fatalf("payments = %d, want 1", store.PaymentCount())
	}
	if got := proc.CallLog(); !slices.Equal(got, []string{"create:booking-b-1"}) {
		t.Fatalf("processor calls = %v", got)
	}
}

func TestCreateIntentProcessorFailureIsUpstream(t *testing.T) {
	mgr, store, proc := newManager(t)
	proc.FailWith = errors.New("stripe down")

	_, err := mgr.CreateIntent(context.Background(), "b-1", 10)
	if apperr.KindOf(err) != apperr.KindUpstream {
		t.Fatalf("kind = %s, want upstream", apperr.KindOf(err))
	}
	if store.PaymentCount() != 0 {
		t.Fatalf("payment row should not exist")
	}
}

func TestCapture(t *testing.T) {
	cases := []struct {
		name     string
		state    ports.IntentState
		wantKind apperr.Kind
		wantCall bool
	}{
		{name: "awaiting capture", state: ports.IntentAwaitingCapture, wantCall: true},
		{name: "already succeeded", state: ports.IntentSucceeded},
		{name: "needs client confirmation", state: ports.IntentOther, wantKind: apperr.KindInvalidState},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mgr, _, proc := newManager(t)
			ctx := context.Background()
			p, err := mgr.CreateIntent(ctx, "b-1", 20)
			if err != nil {
				t.Fatal(err)
			}
			proc.SetState(p.Ref(), c.state)

			got, err := mgr.Capture(ctx, p.ID)
			if c.wantKind != "" {
				if apperr.KindOf(err) != c.wantKind {
					t.Fatalf("err = %v, want kind %s", err, c.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Capture: %v", err)
			}
			if got.Status != payment.StatusCaptured {
				t.Fatalf("status = %s", got.Status)
			}
			if called := slices.Contains(proc.CallLog(), "capture:"+p.Ref()); called != c.wantCall {
				t.Fatalf("capture called = %v, want %v", called, c.wantCall)
			}
		})
	}
}

func TestCaptureIsIdempotent(t *testing.T) {
	mgr, _, proc := newManager(t)
	ctx := context.Background()
	p, _ := mgr.CreateIntent(ctx, "b-1", 20)

	if _, err := mgr.Capture(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	calls := len(proc.CallLog())

	again, err := mgr.Capture(ctx, p.ID)
	if err != nil {
		t.Fatalf("second Capture: %v", err)
	}
	if again.Status != payment.StatusCaptured {
		t.Fatalf("status = %s", again.Status)
	}
	if len(proc.CallLog()) != calls {
		t.Fatalf("second capture reached the processor: %v", proc.CallLog())
	}
}

func TestRefundAndCancelStartingStates(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()

	pending, _ := mgr.CreateIntent(ctx, "b-pending", 10)
	if _, err := mgr.Refund(ctx, pending.ID); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("refund of pending: err = %v", err)
	}
	failed, err := mgr.Cancel(ctx, pending.ID)
	if err != nil || failed.Status != payment.StatusFailed {
		t.Fatalf("cancel of pending: %v %+v", err, failed)
	}
	if _, err := mgr.Cancel(ctx, pending.ID); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("cancel of failed: err = %v", err)
	}

	captured, _ := mgr.CreateIntent(ctx, "b-captured", 10)
	if _, err := mgr.Capture(ctx, captured.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Cancel(ctx, captured.ID); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("cancel of captured: err = %v", err)
	}
	refunded, err := mgr.Refund(ctx, captured.ID)
	if err != nil || refunded.Status != payment.StatusRefunded {
		t.Fatalf("refund of captured: %v %+v", err, refunded)
	}
}

func TestTransitionUnknownPayment(t *testing.T) {
	mgr, _, _ := newManager(t)
	if _, err := mgr.Capture(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}
