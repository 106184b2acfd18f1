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

// QuoteRepo persists quotes. The price ceiling is enforced by both the
// UPDATE predicate and the quotes_price_ceiling CHECK constraint.
type QuoteRepo struct{}

func NewQuoteRepo() ports.QuoteRepository {
	return &QuoteRepo{}
}

func (repo *QuoteRepo) Create(ctx context.Context, q *booking.Quote) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO quotes (id, booking_id, max_price, final_price)
		VALUES ($1, $2, $3, $4)`,
		q.ID, q.BookingID, q.MaxPrice, q.FinalPrice,
	); err != nil {
		return fmt.Errorf("insert quote: %w", mapPgError(err))
	}
	return nil
}

// GetByBooking returns the booking's quote or (nil, nil).
func (repo *QuoteRepo) GetByBooking(ctx context.Context, bookingID string) (*booking.Quote, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var q booking.Quote
	err = tx.QueryRow(ctx, `
		SELECT id, booking_id, max_price::float8, final_price::float8
		FROM quotes WHERE booking_id = $1`, bookingID,
	).Scan(&q.ID, &q.BookingID, &q.MaxPrice, &q.FinalPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quote: %w", mapPgError(err))
	}
	return &q, nil
}

func (repo *QuoteRepo) SetFinalPrice(ctx context.Context, bookingID string, price float64) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE quotes SET final_price = $2
		WHERE booking_id = $1 AND $2 >= 0 AND $2 <= max_price`, bookingID, price)
	if err != nil {
		return fmt.Errorf("set final price: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidState("final price %.2f rejected for booking %s: quote missing or above maximum", price, bookingID)
	}
	return nil
}
