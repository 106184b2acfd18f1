package service

import (
	"context"
	"fmt"
	"strings"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/payment"
	"ride-share/internal/ports"
)

// CapturePayment captures the booking's payment on behalf of its rider and
// records the captured amount as the quote's final price.
func (service *bookingService) CapturePayment(ctx context.Context, paymentID, callerID string) (ports.PaymentView, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return ports.PaymentView{}, apperr.Validation("payment id is required")
	}

	var captured *payment.Payment
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		p, err := service.repos.Payments.GetByID(txCtx, paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("payment %s not found", paymentID)
		}
		b, err := service.loadBooking(txCtx, p.BookingID, false)
		if err != nil {
			return err
		}
		if err := b.RequireRider(callerID); err != nil {
			return err
		}

		if captured, err = service.payments.Capture(txCtx, p.ID); err != nil {
			return err
		}

		q, err := service.repos.Quotes.GetByBooking(txCtx, b.ID)
		if err != nil {
			return err
		}
		if q == nil || q.FinalPrice != nil {
			return nil
		}
		if err := q.SetFinalPrice(captured.Amount); err != nil {
			return err
		}
		return service.repos.Quotes.SetFinalPrice(txCtx, b.ID, *q.FinalPrice)
	})
	if err != nil {
		service.logger.Error(ctx, "payment_capture_failed", "Failed to capture payment", err, map[string]any{"payment_id": paymentID})
		return ports.PaymentView{}, err
	}

	ctx = service.logger.WithBookingID(ctx, captured.BookingID)
	service.logger.Info(ctx, "payment_capture", fmt.Sprintf("Payment %s is %s", captured.ID, captured.Status), map[string]any{
		"amount": captured.Amount,
	})
	return ports.NewPaymentView(captured), nil
}

// GetPaymentByBooking returns the booking's payment to the rider or the trip's driver.
func (service *bookingService) GetPaymentByBooking(ctx context.Context, bookingID, callerID string) (ports.PaymentView, error) {
	var view ports.PaymentView
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := service.loadBooking(txCtx, bookingID, false)
		if err != nil {
			return err
		}
		t, err := service.loadTrip(txCtx, b.TripID)
		if err != nil {
			return err
		}
		if callerID != b.RiderID && callerID != t.DriverID {
			return errNotParticipant
		}
		p, err := service.repos.Payments.GetByBooking(txCtx, b.ID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("no payment for booking %s", b.ID)
		}
		view = ports.NewPaymentView(p)
		return nil
	})
	if err != nil {
		return ports.PaymentView{}, err
	}
	return view, nil
}
