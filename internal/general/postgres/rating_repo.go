package postgres

import (
	"context"
	"fmt"

	"ride-share/internal/domain/rating"
	"ride-share/internal/ports"

	"github.com/google/uuid"
)

// RatingRepo persists ratings using pgx and plain SQL.
type RatingRepo struct{}

func NewRatingRepo() ports.RatingRepository {
	return &RatingRepo{}
}

// Create inserts a rating; a duplicate (booking, rater) pair surfaces as a validation error.
func (repo *RatingRepo) Create(ctx context.Context, r *rating.Rating) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO ratings (id, booking_id, rater_id, ratee_id, score, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		r.ID, r.BookingID, r.RaterID, r.RateeID, r.Score, r.Comment,
	).Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rating: %w", mapPgError(err))
	}
	return nil
}

func (repo *RatingRepo) Exists(ctx context.Context, bookingID, raterID string) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM ratings WHERE booking_id = $1 AND rater_id = $2)`,
		bookingID, raterID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check rating: %w", mapPgError(err))
	}
	return exists, nil
}

// AverageFor is the mean score received by rateeID, 0 when unrated.
func (repo *RatingRepo) AverageFor(ctx context.Context, rateeID string) (float64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var avg float64
	err = tx.QueryRow(ctx, `SELECT COALESCE(AVG(score), 0)::float8 FROM ratings WHERE ratee_id = $1`, rateeID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average rating: %w", mapPgError(err))
	}
	return avg, nil
}
