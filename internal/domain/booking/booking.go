package booking

import (
	"strings"
	"time"

	"ride-share/internal/apperr"
)

const (
	MinSeats = 1
	MaxSeats = 8
)

// Booking is the domain entity corresponding to the `bookings` table.
type Booking struct {
	ID          string
	TripID      string
	RiderID     string
	SeatsBooked int
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	ErrTripRequired    = apperr.Validation("trip id is required")
	ErrRiderRequired   = apperr.Validation("rider id is required")
	ErrSeatsOutOfRange = apperr.Validation("seats_booked must be between 1 and 8")
	ErrOwnTrip         = apperr.Validation("drivers cannot book their own trips")
	ErrNotRider        = apperr.Unauthorized("only the rider can modify this booking")
)

// NewBooking creates a pending booking.
func NewBooking(tripID, riderID string, seats int) (*Booking, error) {
	if tripID = strings.TrimSpace(tripID); tripID == "" {
		return nil, ErrTripRequired
	}
	if riderID = strings.TrimSpace(riderID); riderID == "" {
		return nil, ErrRiderRequired
	}
	if seats < MinSeats || seats > MaxSeats {
		return nil, ErrSeatsOutOfRange
	}
	now := time.Now().UTC()
	return &Booking{
		TripID:      tripID,
		RiderID:     riderID,
		SeatsBooked: seats,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// RequireRider returns Unauthorized unless callerID booked this booking.
func (b *Booking) RequireRider(callerID string) error {
	if b.RiderID != callerID {
		return ErrNotRider
	}
	return nil
}

// RequirePending returns InvalidState naming the current status unless pending.
func (b *Booking) RequirePending() error {
	if b.Status != StatusPending {
		return apperr.InvalidState("booking is %s, expected pending", b.Status)
	}
	return nil
}

// Confirm moves pending -> confirmed.
func (b *Booking) Confirm() error {
	if err := b.RequirePending(); err != nil {
		return err
	}
	return b.setStatus(StatusConfirmed)
}

// Cancel moves pending|confirmed -> cancelled.
func (b *Booking) Cancel() error {
	if b.Status.Terminal() {
		return apperr.InvalidState("booking is already %s", b.Status)
	}
	return b.setStatus(StatusCancelled)
}

// Complete moves confirmed -> completed.
func (b *Booking) Complete() error {
	if b.Status != StatusConfirmed {
		return apperr.InvalidState("booking is %s, expected confirmed", b.Status)
	}
	return b.setStatus(StatusCompleted)
}

func (b *Booking) setStatus(next Status) error {
	if !b.Status.CanTransitionTo(next) {
		return apperr.InvalidState("booking is %s, cannot become %s", b.Status, next)
	}
	b.Status = next
	b.UpdatedAt = time.Now().UTC()
	return nil
}
