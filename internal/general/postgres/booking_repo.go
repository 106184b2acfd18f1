package postgres

import (
	"context"
	"errors"
	"fmt"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookingRepo persists bookings using pgx and plain SQL.
type BookingRepo struct{}

// NewBookingRepo constructs a new BookingRepo.
func NewBookingRepo() ports.BookingRepository {
	return &BookingRepo{}
}

const bookingColumns = `b.id, b.trip_id, b.rider_id, b.seats_booked, b.status::text, b.created_at, b.updated_at`

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var b booking.Booking
	var status string
	if err := row.Scan(&b.ID, &b.TripID, &b.RiderID, &b.SeatsBooked, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = booking.Status(status)
	return &b, nil
}

func (repo *BookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (id, trip_id, rider_id, seats_booked, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		b.ID, b.TripID, b.RiderID, b.SeatsBooked, b.Status.String(),
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", mapPgError(err))
	}
	return nil
}

// GetByID returns the booking or (nil, nil).
func (repo *BookingRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	return repo.get(ctx, id, "")
}

// GetForUpdate locks the booking row for the rest of the transaction.
func (repo *BookingRepo) GetForUpdate(ctx context.Context, id string) (*booking.Booking, error) {
	return repo.get(ctx, id, "FOR UPDATE")
}

func (repo *BookingRepo) get(ctx context.Context, id, lock string) (*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1 `+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking: %w", mapPgError(err))
	}
	return b, nil
}

func (repo *BookingRepo) UpdateStatus(ctx context.Context, b *booking.Booking) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`,
		b.ID, b.Status.String(), b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update booking status: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("booking %s not found", b.ID)
	}
	return nil
}

// Delete removes a booking and, by cascade, its quote.
func (repo *BookingRepo) Delete(ctx context.Context, id string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete booking: %w", mapPgError(err))
	}
	return nil
}

func (repo *BookingRepo) ListByRider(ctx context.Context, riderID string, limit int) ([]*booking.Booking, error) {
	return repo.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings b
		WHERE b.rider_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2`, riderID, limit)
}

func (repo *BookingRepo) ListByDriver(ctx context.Context, driverID string, limit int) ([]*booking.Booking, error) {
	return repo.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE t.driver_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2`, driverID, limit)
}

func (repo *BookingRepo) ListByTrip(ctx context.Context, tripID string) ([]*booking.Booking, error) {
	return repo.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings b
		WHERE b.trip_id = $1
		ORDER BY b.created_at ASC`, tripID)
}

// CompleteConfirmedForTrip flips every confirmed booking of the trip to completed.
func (repo *BookingRepo) CompleteConfirmedForTrip(ctx context.Context, tripID string) ([]*booking.Booking, error) {
	return repo.list(ctx, `
		UPDATE bookings b
		SET status = 'completed', updated_at = now()
		WHERE b.trip_id = $1 AND b.status = 'confirmed'
		RETURNING `+bookingColumns, tripID)
}

func (repo *BookingRepo) list(ctx context.Context, query string, args ...any) ([]*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", mapPgError(err))
	}
	defer rows.Close()

	var out []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
