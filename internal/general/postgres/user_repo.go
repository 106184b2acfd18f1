package postgres

import (
	"context"
	"errors"
	"fmt"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/user"
	"ride-share/internal/ports"

	"github.com/jackc/pgx/v5"
)

// UserRepo reads user summaries and maintains the stored average rating.
type UserRepo struct{}

// NewUserRepo constructs a new UserRepo.
func NewUserRepo() ports.UserRepository {
	return &UserRepo{}
}

// GetSummary returns the user's public projection or (nil, nil).
func (repo *UserRepo) GetSummary(ctx context.Context, id string) (*user.Summary, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var s user.Summary
	err = tx.QueryRow(ctx, `
		SELECT id, name, rating::float8, vehicle_info FROM users WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Rating, &s.VehicleInfo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", mapPgError(err))
	}
	return &s, nil
}

// LockForUpdate holds the user row lock for the rest of the transaction.
func (repo *UserRepo) LockForUpdate(ctx context.Context, id string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	var got string
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("user %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("lock user: %w", mapPgError(err))
	}
	return nil
}

func (repo *UserRepo) SetRating(ctx context.Context, id string, avg float64) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET rating = round($2::numeric, 2), updated_at = now() WHERE id = $1`, id, avg); err != nil {
		return fmt.Errorf("set rating: %w", mapPgError(err))
	}
	return nil
}
