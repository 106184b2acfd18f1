package service

import (
	"context"
	"strings"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/ports"
)

// GetBooking returns a booking with its trip, quote and payment to the rider
// or the trip's driver.
func (service *bookingService) GetBooking(ctx context.Context, bookingID, callerID string) (ports.BookingView, error) {
	var view ports.BookingView
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := service.loadBooking(txCtx, bookingID, false)
		if err != nil {
			return err
		}
		v, driverID, err := service.compose(txCtx, b)
		if err != nil {
			return err
		}
		if callerID != b.RiderID && callerID != driverID {
			return errNotParticipant
		}
		view = v
		return nil
	})
	if err != nil {
		return ports.BookingView{}, err
	}
	return view, nil
}

// ListBookings returns the caller's bookings, newest first: as rider, or on
// trips the caller drives.
func (service *bookingService) ListBookings(ctx context.Context, callerID string, asDriver bool) ([]ports.BookingView, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, apperr.Validation("caller id is required")
	}

	var out []ports.BookingView
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var (
			bs  []*booking.Booking
			err error
		)
		if asDriver {
			bs, err = service.repos.Bookings.ListByDriver(txCtx, callerID, listLimit)
		} else {
			bs, err = service.repos.Bookings.ListByRider(txCtx, callerID, listLimit)
		}
		if err != nil {
			return err
		}
		out = make([]ports.BookingView, 0, len(bs))
		for _, b := range bs {
			v, _, err := service.compose(txCtx, b)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
