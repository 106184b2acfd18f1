package service

import (
	"context"
	"fmt"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/notification"
	"ride-share/internal/domain/trip"
	"ride-share/internal/ports"
)

// CreateBooking records a pending booking and prices it. The seat check is a
// snapshot; seats are only taken at confirm time. The quote call runs outside
// any transaction, and a failure there deletes the booking again.
func (service *bookingService) CreateBooking(ctx context.Context, in ports.CreateBookingInput) (ports.CreateBookingResult, error) {
	b, err := booking.NewBooking(in.TripID, in.RiderID, in.SeatsBooked)
	if err != nil {
		return ports.CreateBookingResult{}, err
	}
	ctx = service.logger.WithTripID(ctx, b.TripID)

	var t *trip.Trip
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		if t, err = service.loadTrip(txCtx, b.TripID); err != nil {
			return err
		}
		if err := t.RequireActive(); err != nil {
			return err
		}
		if t.SeatsAvailable < b.SeatsBooked {
			return apperr.InsufficientSeats("only %d seats available, %d requested", t.SeatsAvailable, b.SeatsBooked)
		}
		if t.DriverID == b.RiderID {
			return booking.ErrOwnTrip
		}
		return service.repos.Bookings.Create(txCtx, b)
	})
	if err != nil {
		service.logger.Error(ctx, "booking_create_failed", "Failed to create booking", err, map[string]any{
			"rider_id": b.RiderID,
			"seats":    b.SeatsBooked,
		})
		return ports.CreateBookingResult{}, err
	}
	ctx = service.logger.WithBookingID(ctx, b.ID)

	q, err := service.quote(ctx, t, b)
	if err != nil {
		service.logger.Error(ctx, "quote_failed", "Quote generation failed, removing booking", err, nil)
		service.compensate(ctx, b.ID)
		return ports.CreateBookingResult{}, apperr.Upstream(err, "Failed to generate quote. Booking cancelled.")
	}

	service.logger.Info(ctx, "booking_requested", fmt.Sprintf("Booking %s created for trip %s", b.ID, t.ID), map[string]any{
		"seats":     b.SeatsBooked,
		"max_price": q.MaxPrice,
	})
	amount := q.MaxPrice
	service.notifier.Notify(ctx, notification.KindBookingRequested, notification.Payload{
		RecipientIDs: []string{t.DriverID},
		BookingID:    b.ID,
		TripID:       t.ID,
		Seats:        b.SeatsBooked,
		Amount:       &amount,
		Message:      fmt.Sprintf("New booking request for %d seat(s).", b.SeatsBooked),
	})

	view := ports.NewBookingView(b)
	tv := ports.NewTripView(t, nil, nil)
	qv := ports.NewQuoteView(q)
	view.Trip = &tv
	view.Quote = &qv
	return ports.CreateBookingResult{Booking: view, Quote: qv}, nil
}

// quote asks the quote source for a ceiling and stores it.
func (service *bookingService) quote(ctx context.Context, t *trip.Trip, b *booking.Booking) (*booking.Quote, error) {
	maxPrice, err := service.quotes.Estimate(ctx, ports.QuoteRequest{
		Origin:      t.Origin,
		Destination: t.Destination,
		NumRiders:   b.SeatsBooked,
		TripID:      t.ID,
	})
	if err != nil {
		return nil, err
	}
	q, err := booking.NewQuote(b.ID, maxPrice)
	if err != nil {
		return nil, err
	}
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.repos.Quotes.Create(txCtx, q)
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// compensate deletes the orphaned booking even if the request was cancelled.
func (service *bookingService) compensate(ctx context.Context, bookingID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	err := service.uow.WithinTx(cctx, func(txCtx context.Context) error {
		return service.repos.Bookings.Delete(txCtx, bookingID)
	})
	if err != nil {
		service.logger.Error(cctx, "booking_compensation_failed", "Failed to delete booking after quote failure", err, nil)
		return
	}
	service.logger.Info(cctx, "booking_compensated", fmt.Sprintf("Booking %s deleted after quote failure", bookingID), nil)
}
