package service

import (
	"context"
	"fmt"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/notification"
	"ride-share/internal/domain/payment"
	"ride-share/internal/domain/trip"
	"ride-share/internal/ports"
)

// ConfirmBooking opens (or reuses) the payment intent, confirms the booking and
// takes the seats in one transaction. A failed seat decrement rolls all of it back.
func (service *bookingService) ConfirmBooking(ctx context.Context, bookingID, callerID string) (ports.BookingView, error) {
	ctx = service.logger.WithBookingID(ctx, bookingID)

	var (
		b *booking.Booking
		t *trip.Trip
		q *booking.Quote
		p *payment.Payment
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		if b, err = service.loadBooking(txCtx, bookingID, true); err != nil {
			return err
		}
		if err := b.RequireRider(callerID); err != nil {
			return err
		}
		if err := b.RequirePending(); err != nil {
			return err
		}

		if q, err = service.repos.Quotes.GetByBooking(txCtx, b.ID); err != nil {
			return err
		}
		if q == nil {
			return apperr.InvalidState("booking %s has no quote", b.ID)
		}
		if t, err = service.loadTrip(txCtx, b.TripID); err != nil {
			return err
		}
		if err := t.RequireActive(); err != nil {
			return err
		}

		if p, err = service.repos.Payments.GetByBooking(txCtx, b.ID); err != nil {
			return err
		}
		if p == nil {
			if p, err = service.payments.CreateIntent(txCtx, b.ID, q.MaxPrice); err != nil {
				return err
			}
		} else if err := p.RequirePending(); err != nil {
			return err
		}

		if err := b.Confirm(); err != nil {
			return err
		}
		if err := service.repos.Bookings.UpdateStatus(txCtx, b); err != nil {
			return err
		}
		left, err := service.inventory.AdjustSeats(txCtx, b.TripID, -b.SeatsBooked)
		if err != nil {
			return err
		}
		t.SeatsAvailable = left
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "booking_confirm_failed", "Failed to confirm booking", err, map[string]any{"caller_id": callerID})
		return ports.BookingView{}, err
	}

	service.logger.Info(ctx, "booking_confirmed", fmt.Sprintf("Booking %s confirmed", b.ID), map[string]any{
		"seats":      b.SeatsBooked,
		"payment_id": p.ID,
		"seats_left": t.SeatsAvailable,
	})
	amount := p.Amount
	service.notifier.Notify(ctx, notification.KindBookingConfirmed, notification.Payload{
		RecipientIDs: []string{b.RiderID, t.DriverID},
		BookingID:    b.ID,
		TripID:       t.ID,
		Seats:        b.SeatsBooked,
		Amount:       &amount,
		Message:      "Booking confirmed.",
	})

	view := ports.NewBookingView(b)
	tv := ports.NewTripView(t, nil, nil)
	qv := ports.NewQuoteView(q)
	pv := ports.NewPaymentView(p)
	view.Trip, view.Quote, view.Payment = &tv, &qv, &pv
	return view, nil
}
