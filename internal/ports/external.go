package ports

import (
	"context"

	"ride-share/internal/domain/geo"
	"ride-share/internal/domain/notification"
)

// QuoteRequest is sent to the cost estimator.
type QuoteRequest struct {
	Origin      string
	Destination string
	NumRiders   int
	TripID      string
}

// QuoteSource returns a price ceiling for a prospective booking.
type QuoteSource interface {
	Estimate(ctx context.Context, req QuoteRequest) (float64, error)
}

// IntentState is the processor-side state of a payment intent.
type IntentState string

const (
	IntentAwaitingCapture IntentState = "awaiting_capture"
	IntentSucceeded       IntentState = "succeeded"
	IntentOther           IntentState = "other"
)

// IntentRequest describes a manual-capture intent.
type IntentRequest struct {
	AmountCents    int64
	IdempotencyKey string
	Metadata       map[string]string
}

// PaymentProcessor is the external payment capability.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (string, error)
	IntentStatus(ctx context.Context, ref string) (IntentState, error)
	Capture(ctx context.Context, ref string) error
	Refund(ctx context.Context, ref string) error
	CancelIntent(ctx context.Context, ref string) error
}

// Geocoder resolves free-text addresses into points.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (geo.Point, error)
}

// Notifier sends best-effort notifications. It never blocks and never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, kind notification.Kind, payload notification.Payload)
}
