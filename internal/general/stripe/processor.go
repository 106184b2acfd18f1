package stripe

import (
	"context"
	"fmt"
	"strings"

	"ride-share/internal/ports"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Processor implements ports.PaymentProcessor on Stripe PaymentIntents with manual capture.
type Processor struct {
	api      *client.API
	currency string
}

// NewProcessor builds a processor for the given secret key. backends may be
// nil, in which case Stripe's default backends are used.
func NewProcessor(secretKey, currency string, backends *stripego.Backends) *Processor {
	api := &client.API{}
	api.Init(secretKey, backends)
	if currency = strings.ToLower(strings.TrimSpace(currency)); currency == "" {
		currency = string(stripego.CurrencyUSD)
	}
	return &Processor{api: api, currency: currency}
}

var _ ports.PaymentProcessor = (*Processor)(nil)

// CreateIntent creates a manual-capture intent. The idempotency key makes a
// retried call return the same intent instead of a duplicate.
func (p *Processor) CreateIntent(ctx context.Context, req ports.IntentRequest) (string, error) {
	params := &stripego.PaymentIntentParams{
		Amount:        stripego.Int64(req.AmountCents),
		Currency:      stripego.String(p.currency),
		CaptureMethod: stripego.String(string(stripego.PaymentIntentCaptureMethodManual)),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create intent: %w", err)
	}
	return pi.ID, nil
}

// IntentStatus folds Stripe's intent statuses into the three states the
// payment lifecycle distinguishes.
func (p *Processor) IntentStatus(ctx context.Context, ref string) (ports.IntentState, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(ref, params)
	if err != nil {
		return "", fmt.Errorf("stripe get intent: %w", err)
	}
	switch pi.Status {
	case stripego.PaymentIntentStatusRequiresCapture:
		return ports.IntentAwaitingCapture, nil
	case stripego.PaymentIntentStatusSucceeded:
		return ports.IntentSucceeded, nil
	default:
		return ports.IntentOther, nil
	}
}

func (p *Processor) Capture(ctx context.Context, ref string) error {
	params := &stripego.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.SetIdempotencyKey("capture-" + ref)

	if _, err := p.api.PaymentIntents.Capture(ref, params); err != nil {
		return fmt.Errorf("stripe capture: %w", err)
	}
	return nil
}

func (p *Processor) Refund(ctx context.Context, ref string) error {
	params := &stripego.RefundParams{PaymentIntent: stripego.String(ref)}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + ref)

	if _, err := p.api.Refunds.New(params); err != nil {
		return fmt.Errorf("stripe refund: %w", err)
	}
	return nil
}

func (p *Processor) CancelIntent(ctx context.Context, ref string) error {
	params := &stripego.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := p.api.PaymentIntents.Cancel(ref, params); err != nil {
		return fmt.Errorf("stripe cancel intent: %w", err)
	}
	return nil
}
