package service

import (
	"context"
	"fmt"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/notification"
	"ride-share/internal/domain/payment"
	"ride-share/internal/ports"
)

// CancelBooking settles the payment of a confirmed booking (refund if captured,
// intent cancellation if pending), cancels the booking and gives the seats back.
func (service *bookingService) CancelBooking(ctx context.Context, bookingID, callerID string) (ports.CancelBookingResult, error) {
	ctx = service.logger.WithBookingID(ctx, bookingID)

	var (
		b        *booking.Booking
		p        *payment.Payment
		driverID string
		refund   *float64
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		if b, err = service.loadBooking(txCtx, bookingID, true); err != nil {
			return err
		}
		if err := b.RequireRider(callerID); err != nil {
			return err
		}
		if b.Status.Terminal() {
			return apperr.InvalidState("booking is already %s", b.Status)
		}
		t, err := service.loadTrip(txCtx, b.TripID)
		if err != nil {
			return err
		}
		driverID = t.DriverID
		wasConfirmed := b.Status == booking.StatusConfirmed

		if p, err = service.repos.Payments.GetByBooking(txCtx, b.ID); err != nil {
			return err
		}
		if wasConfirmed && p != nil {
			switch p.Status {
			case payment.StatusCaptured:
				if p, err = service.payments.Refund(txCtx, p.ID); err != nil {
					return err
				}
				amount := p.Amount
				refund = &amount
			case payment.StatusPending:
				if p, err = service.payments.Cancel(txCtx, p.ID); err != nil {
					return err
				}
			}
		}

		if err := b.Cancel(); err != nil {
			return err
		}
		if err := service.repos.Bookings.UpdateStatus(txCtx, b); err != nil {
			return err
		}
		if wasConfirmed {
			if _, err := service.inventory.AdjustSeats(txCtx, b.TripID, b.SeatsBooked); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "booking_cancel_failed", "Failed to cancel booking", err, map[string]any{"caller_id": callerID})
		return ports.CancelBookingResult{}, err
	}

	details := map[string]any{"seats": b.SeatsBooked}
	if refund != nil {
		details["refund_amount"] = *refund
	}
	service.logger.Info(ctx, "booking_cancelled", fmt.Sprintf("Booking %s cancelled", b.ID), details)

	msg := "Booking cancelled."
	if refund != nil {
		msg = fmt.Sprintf("Booking cancelled. %.2f refunded.", *refund)
	}
	service.notifier.Notify(ctx, notification.KindBookingCancelled, notification.Payload{
		RecipientIDs: []string{b.RiderID, driverID},
		BookingID:    b.ID,
		TripID:       b.TripID,
		Seats:        b.SeatsBooked,
		RefundAmount: refund,
		Message:      msg,
	})

	view := ports.NewBookingView(b)
	if p != nil {
		pv := ports.NewPaymentView(p)
		view.Payment = &pv
	}
	return ports.CancelBookingResult{Booking: view, RefundAmount: refund}, nil
}
