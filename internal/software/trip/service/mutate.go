package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/notification"
	"ride-share/internal/domain/trip"
	"ride-share/internal/ports"
)

var errNotDriver = apperr.Unauthorized("only the trip's driver can modify this trip")

// UpdateTrip applies a partial update on behalf of the trip's driver.
func (service *tripService) UpdateTrip(ctx context.Context, in ports.UpdateTripInput) (ports.TripView, error) {
	if err := in.Patch.Validate(); err != nil {
		return ports.TripView{}, err
	}
	ctx = service.logger.WithTripID(ctx, in.TripID)

	rec, err := service.mutate(ctx, in.TripID, in.DriverID, func(txCtx context.Context, t *trip.Trip) error {
		return t.Apply(in.Patch)
	})
	if err != nil {
		service.logger.Error(ctx, "trip_update_failed", "Failed to update trip", err, nil)
		return ports.TripView{}, err
	}

	service.logger.Info(ctx, "trip_updated", fmt.Sprintf("Trip %s updated", in.TripID), map[string]any{
		"seats_available": rec.Trip.SeatsAvailable,
		"capacity":        rec.Trip.Capacity,
	})
	return ports.NewTripView(rec.Trip, rec.Driver, nil), nil
}

// CancelTrip cancels an active trip. Bookings are left as they are; their
// riders are notified.
func (service *tripService) CancelTrip(ctx context.Context, tripID, driverID string) (ports.TripView, error) {
	ctx = service.logger.WithTripID(ctx, tripID)

	var riders []string
	rec, err := service.mutate(ctx, tripID, driverID, func(txCtx context.Context, t *trip.Trip) error {
		if err := t.Cancel(); err != nil {
			return err
		}
		bs, err := service.bookings.ListByTrip(txCtx, t.ID)
		if err != nil {
			return err
		}
		riders = riderIDs(bs, booking.StatusPending, booking.StatusConfirmed)
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "trip_cancel_failed", "Failed to cancel trip", err, nil)
		return ports.TripView{}, err
	}

	service.logger.Info(ctx, "trip_cancelled", fmt.Sprintf("Trip %s cancelled", tripID), map[string]any{
		"open_bookings": len(riders),
	})
	if len(riders) > 0 {
		service.notifier.Notify(ctx, notification.KindTripCancelled, notification.Payload{
			RecipientIDs: riders,
			TripID:       tripID,
			Message:      "Your trip was cancelled by the driver.",
		})
	}
	return ports.NewTripView(rec.Trip, rec.Driver, nil), nil
}

// CompleteTrip completes an active trip together with its confirmed bookings.
func (service *tripService) CompleteTrip(ctx context.Context, tripID, driverID string) (ports.CompleteTripResult, error) {
	ctx = service.logger.WithTripID(ctx, tripID)

	var completed []*booking.Booking
	rec, err := service.mutate(ctx, tripID, driverID, func(txCtx context.Context, t *trip.Trip) error {
		if err := t.Complete(); err != nil {
			return err
		}
		var err error
		completed, err = service.bookings.CompleteConfirmedForTrip(txCtx, t.ID)
		return err
	})
	if err != nil {
		service.logger.Error(ctx, "trip_complete_failed", "Failed to complete trip", err, nil)
		return ports.CompleteTripResult{}, err
	}

	service.logger.Info(ctx, "trip_completed", fmt.Sprintf("Trip %s completed", tripID), map[string]any{
		"completed_bookings": len(completed),
	})
	if riders := riderIDs(completed, booking.StatusCompleted); len(riders) > 0 {
		service.notifier.Notify(ctx, notification.KindTripCompleted, notification.Payload{
			RecipientIDs: riders,
			TripID:       tripID,
			Message:      "Your trip is complete. You can now rate your driver.",
		})
	}
	return ports.CompleteTripResult{
		Trip:              ports.NewTripView(rec.Trip, rec.Driver, nil),
		CompletedBookings: len(completed),
	}, nil
}

// AdjustSeats moves the seat counter by delta inside the caller's transaction,
// or a new one.
func (service *tripService) AdjustSeats(ctx context.Context, tripID string, delta int) (int, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return 0, apperr.Validation("trip id is required")
	}
	if delta == 0 {
		return 0, apperr.Validation("seat delta must not be zero")
	}

	var left int
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		left, err = service.trips.AdjustSeats(txCtx, tripID, delta)
		return err
	})
	if err != nil {
		return 0, err
	}

	service.logger.Debug(service.logger.WithTripID(ctx, tripID), "seats_adjusted", "Seat inventory adjusted", map[string]any{
		"delta":           delta,
		"seats_available": left,
	})
	return left, nil
}

// mutate locks the trip, checks ownership, runs fn and persists the result.
func (service *tripService) mutate(
	ctx context.Context,
	tripID, driverID string,
	fn func(txCtx context.Context, t *trip.Trip) error,
) (*ports.TripRecord, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return nil, apperr.Validation("trip id is required")
	}

	var rec *ports.TripRecord
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		t, err := service.trips.GetForUpdate(txCtx, tripID)
		if err != nil {
			return err
		}
		if t == nil {
			return apperr.NotFound("trip %s not found", tripID)
		}
		if !t.OwnedBy(driverID) {
			return errNotDriver
		}
		if err := fn(txCtx, t); err != nil {
			return err
		}
		if err := service.trips.Update(txCtx, t); err != nil {
			return err
		}
		rec, err = service.trips.GetRecord(txCtx, tripID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func riderIDs(bs []*booking.Booking, statuses ...booking.Status) []string {
	seen := make(map[string]struct{}, len(bs))
	var out []string
	for _, b := range bs {
		if !slices.Contains(statuses, b.Status) {
			continue
		}
		if _, ok := seen[b.RiderID]; ok {
			continue
		}
		seen[b.RiderID] = struct{}{}
		out = append(out, b.RiderID)
	}
	return out
}
