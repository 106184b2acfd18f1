package service

import (
	"context"
	"fmt"
	"strings"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/payment"
	"ride-share/internal/general/logger"
	"ride-share/internal/ports"
)

// paymentManager keeps local payment rows in step with the external processor.
type paymentManager struct {
	logger    *logger.Logger
	uow       ports.UnitOfWork
	payments  ports.PaymentRepository
	processor ports.PaymentProcessor
}

// NewPaymentManager creates a PaymentManager over the given repository and processor.
func NewPaymentManager(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	payments ports.PaymentRepository,
	processor ports.PaymentProcessor,
) ports.PaymentManager {
	return &paymentManager{
		logger:    logger,
		uow:       uow,
		payments:  payments,
		processor: processor,
	}
}

// IntentKey is the processor idempotency key for a booking's intent.
func IntentKey(bookingID string) string { return "booking-" + bookingID }

// CreateIntent opens a manual-capture intent for amount and records it as pending.
// When called inside an open transaction it joins it.
func (m *paymentManager) CreateIntent(ctx context.Context, bookingID string, amount float64) (*payment.Payment, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, payment.ErrBookingIDRequired
	}
	if amount <= 0 {
		return nil, payment.ErrInvalidAmount
	}

	var out *payment.Payment
	err := m.uow.WithinTx(ctx, func(txCtx context.Context) error {
		existing, err := m.payments.GetByBooking(txCtx, bookingID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.InvalidState("payment already exists for booking %s (status %s)", bookingID, existing.Status)
		}

		ref, err := m.processor.CreateIntent(txCtx, ports.IntentRequest{
			AmountCents:    payment.AmountCents(amount),
			IdempotencyKey: IntentKey(bookingID),
			Metadata:       map[string]string{"booking_id": bookingID},
		})
		if err != nil {
			return apperr.Upstream(err, "payment processor failed to create intent")
		}

		p, err := payment.NewPayment(bookingID, amount, ref)
		if err != nil {
			return err
		}
		if err := m.payments.Create(txCtx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "payment_intent_created", fmt.Sprintf("Payment intent created for booking %s", bookingID), map[string]any{
		"payment_id": out.ID,
		"amount":     out.Amount,
	})
	return out, nil
}

// Capture is idempotent: an already captured payment is returned unchanged.
func (m *paymentManager) Capture(ctx context.Context, paymentID string) (*payment.Payment, error) {
	return m.transition(ctx, paymentID, "payment_captured", func(txCtx context.Context, p *payment.Payment) (bool, error) {
		if p.Status == payment.StatusCaptured {
			return false, nil
		}
		if err := p.RequirePending(); err != nil {
			return false, err
		}
		ref, err := requireRef(p)
		if err != nil {
			return false, err
		}

		state, err := m.processor.IntentStatus(txCtx, ref)
		if err != nil {
			return false, apperr.Upstream(err, "payment processor failed to report intent status")
		}
		switch state {
		case ports.IntentAwaitingCapture:
			if err := m.processor.Capture(txCtx, ref); err != nil {
				return false, apperr.Upstream(err, "payment processor failed to capture")
			}
		case ports.IntentSucceeded:
		default:
			return false, apperr.InvalidState("client must confirm the intent first")
		}
		return true, p.MarkCaptured()
	})
}

// Refund is only valid from captured.
func (m *paymentManager) Refund(ctx context.Context, paymentID string) (*payment.Payment, error) {
	return m.transition(ctx, paymentID, "payment_refunded", func(txCtx context.Context, p *payment.Payment) (bool, error) {
		if p.Status != payment.StatusCaptured {
			return false, apperr.InvalidState("payment is %s, expected captured", p.Status)
		}
		ref, err := requireRef(p)
		if err != nil {
			return false, err
		}
		if err := m.processor.Refund(txCtx, ref); err != nil {
			return false, apperr.Upstream(err, "payment processor failed to refund")
		}
		return true, p.MarkRefunded()
	})
}

// Cancel is only valid from pending and leaves the payment failed.
func (m *paymentManager) Cancel(ctx context.Context, paymentID string) (*payment.Payment, error) {
	return m.transition(ctx, paymentID, "payment_cancelled", func(txCtx context.Context, p *payment.Payment) (bool, error) {
		if err := p.RequirePending(); err != nil {
			return false, err
		}
		ref, err := requireRef(p)
		if err != nil {
			return false, err
		}
		if err := m.processor.CancelIntent(txCtx, ref); err != nil {
			return false, apperr.Upstream(err, "payment processor failed to cancel intent")
		}
		return true, p.MarkFailed()
	})
}

// transition locks the payment, lets step mutate it, and persists the new
// status when step reports a change.
func (m *paymentManager) transition(
	ctx context.Context,
	paymentID, action string,
	step func(txCtx context.Context, p *payment.Payment) (bool, error),
) (*payment.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, apperr.Validation("payment id is required")
	}

	var (
		out     *payment.Payment
		changed bool
	)
	err := m.uow.WithinTx(ctx, func(txCtx context.Context) error {
		p, err := m.payments.GetForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("payment %s not found", paymentID)
		}
		changed, err = step(txCtx, p)
		if err != nil {
			return err
		}
		if changed {
			if err := m.payments.UpdateStatus(txCtx, p); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		m.logger.Error(ctx, action+"_failed", "Payment transition failed", err, map[string]any{"payment_id": paymentID})
		return nil, err
	}

	if changed {
		m.logger.Info(ctx, action, fmt.Sprintf("Payment %s is now %s", out.ID, out.Status), map[string]any{
			"booking_id": out.BookingID,
		})
	}
	return out, nil
}

func requireRef(p *payment.Payment) (string, error) {
	ref := p.Ref()
	if ref == "" {
		return "", apperr.InvalidState("payment %s has no external reference", p.ID)
	}
	return ref, nil
}
