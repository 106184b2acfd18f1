package service

import (
	"context"
	"fmt"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/rating"
	"ride-share/internal/ports"
)

var errRatingExists = apperr.Validation("rating already exists")

// CreateRating records one participant's rating of the other and recomputes
// the ratee's average under the ratee's row lock.
func (service *bookingService) CreateRating(ctx context.Context, in ports.CreateRatingInput) (ports.RatingView, error) {
	if err := rating.ValidateScore(in.Score); err != nil {
		return ports.RatingView{}, err
	}
	ctx = service.logger.WithBookingID(ctx, in.BookingID)

	var (
		r   *rating.Rating
		avg float64
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := service.loadBooking(txCtx, in.BookingID, false)
		if err != nil {
			return err
		}
		if b.Status != booking.StatusCompleted {
			return apperr.InvalidState("can only rate completed bookings (booking is %s)", b.Status)
		}
		t, err := service.loadTrip(txCtx, b.TripID)
		if err != nil {
			return err
		}

		var rateeID string
		switch in.RaterID {
		case b.RiderID:
			rateeID = t.DriverID
		case t.DriverID:
			rateeID = b.RiderID
		default:
			return apperr.Unauthorized("only the rider or the driver of this booking can rate it")
		}

		exists, err := service.repos.Ratings.Exists(txCtx, b.ID, in.RaterID)
		if err != nil {
			return err
		}
		if exists {
			return errRatingExists
		}

		if r, err = rating.NewRating(b.ID, in.RaterID, rateeID, in.Score, in.Comment); err != nil {
			return err
		}
		if err := service.repos.Users.LockForUpdate(txCtx, rateeID); err != nil {
			return err
		}
		if err := service.repos.Ratings.Create(txCtx, r); err != nil {
			return err
		}
		if avg, err = service.repos.Ratings.AverageFor(txCtx, rateeID); err != nil {
			return err
		}
		return service.repos.Users.SetRating(txCtx, rateeID, avg)
	})
	if err != nil {
		service.logger.Error(ctx, "rating_create_failed", "Failed to create rating", err, map[string]any{"rater_id": in.RaterID})
		return ports.RatingView{}, err
	}

	service.logger.Info(ctx, "rating_created", fmt.Sprintf("Rating %s recorded", r.ID), map[string]any{
		"ratee_id":    r.RateeID,
		"score":       r.Score,
		"new_average": avg,
	})
	return ports.NewRatingView(r), nil
}
