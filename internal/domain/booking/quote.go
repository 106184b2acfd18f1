package booking

import (
	"math"
	"strings"

	"ride-share/internal/apperr"
)

// Quote is the price ceiling attached 1:1 to a booking.
type Quote struct {
	ID         string
	BookingID  string
	MaxPrice   float64
	FinalPrice *float64
}

var (
	ErrInvalidMaxPrice   = apperr.Validation("max price must be a positive amount")
	ErrNegativeFinal     = apperr.Validation("final price cannot be negative")
	ErrBookingIDRequired = apperr.Validation("booking id is required")
)

// NewQuote builds a quote for bookingID with the given ceiling rounded to
// cents, the precision max_price is stored and charged at.
func NewQuote(bookingID string, maxPrice float64) (*Quote, error) {
	if bookingID = strings.TrimSpace(bookingID); bookingID == "" {
		return nil, ErrBookingIDRequired
	}
	if math.IsNaN(maxPrice) || math.IsInf(maxPrice, 0) {
		return nil, ErrInvalidMaxPrice
	}
	if maxPrice = math.Round(maxPrice*100) / 100; maxPrice <= 0 {
		return nil, ErrInvalidMaxPrice
	}
	return &Quote{BookingID: bookingID, MaxPrice: maxPrice}, nil
}

// SetFinalPrice records the charged price. The ceiling never moves.
func (q *Quote) SetFinalPrice(price float64) error {
	if math.IsNaN(price) || price < 0 {
		return ErrNegativeFinal
	}
	if price > q.MaxPrice {
		return apperr.InvalidState("final price %.2f exceeds quoted maximum %.2f", price, q.MaxPrice)
	}
	q.FinalPrice = &price
	return nil
}
