package trip

import (
	"strings"
	"time"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/geo"
)

const (
	MinSeats = 1
	MaxSeats = 8
)

// Trip is the domain entity corresponding to the `trips` table.
type Trip struct {
	ID               string
	DriverID         string
	Origin           string
	Destination      string
	OriginPoint      geo.Point
	DestinationPoint geo.Point
	DepartureTime    time.Time
	SeatsAvailable   int
	// Capacity is the ceiling for SeatsAvailable; seats held by confirmed
	// bookings are Capacity - SeatsAvailable.
	Capacity   int
	Recurrence *string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var (
	ErrDriverRequired      = apperr.Validation("driver id is required")
	ErrOriginRequired      = apperr.Validation("origin is required")
	ErrDestinationRequired = apperr.Validation("destination is required")
	ErrDepartureRequired   = apperr.Validation("departure time is required")
	ErrSeatsOutOfRange     = apperr.Validation("seats_available must be between 1 and 8")
	ErrEmptyPatch          = apperr.Validation("no fields to update")
)

// NewTrip builds an active trip whose capacity equals the initial seat count.
func NewTrip(driverID, origin, destination string, originPoint, destinationPoint geo.Point, departure time.Time, seats int, recurrence *string) (*Trip, error) {
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return nil, ErrDriverRequired
	}
	if origin = strings.TrimSpace(origin); origin == "" {
		return nil, ErrOriginRequired
	}
	if destination = strings.TrimSpace(destination); destination == "" {
		return nil, ErrDestinationRequired
	}
	if err := originPoint.Validate(); err != nil {
		return nil, err
	}
	if err := destinationPoint.Validate(); err != nil {
		return nil, err
	}
	if departure.IsZero() {
		return nil, ErrDepartureRequired
	}
	if seats < MinSeats || seats > MaxSeats {
		return nil, ErrSeatsOutOfRange
	}

	now := time.Now().UTC()
	return &Trip{
		DriverID:         driverID,
		Origin:           origin,
		Destination:      destination,
		OriginPoint:      originPoint,
		DestinationPoint: destinationPoint,
		DepartureTime:    departure.UTC(),
		SeatsAvailable:   seats,
		Capacity:         seats,
		Recurrence:       normalizeRecurrence(recurrence),
		Status:           StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// OwnedBy reports whether userID drives this trip.
func (trip *Trip) OwnedBy(userID string) bool {
	return trip.DriverID == userID
}

// RequireActive returns InvalidState naming the current status unless the trip is active.
func (trip *Trip) RequireActive() error {
	if trip.Status != StatusActive {
		return apperr.InvalidState("trip is %s, expected active", trip.Status)
	}
	return nil
}

// Cancel moves an active trip to cancelled.
func (trip *Trip) Cancel() error {
	return trip.setStatus(StatusCancelled)
}

// Complete moves an active trip to completed.
func (trip *Trip) Complete() error {
	return trip.setStatus(StatusCompleted)
}

func (trip *Trip) setStatus(next Status) error {
	if !trip.Status.CanTransitionTo(next) {
		return apperr.InvalidState("trip is %s, cannot become %s", trip.Status, next)
	}
	trip.Status = next
	trip.touch()
	return nil
}

// Patch is a partial update of driver-editable trip fields. Nil means unchanged.
type Patch struct {
	DepartureTime  *time.Time
	SeatsAvailable *int
	Recurrence     *string
}

// Empty reports whether no field is set.
func (p Patch) Empty() bool {
	return p.DepartureTime == nil && p.SeatsAvailable == nil && p.Recurrence == nil
}

// Validate checks field ranges on a non-empty patch.
func (p Patch) Validate() error {
	if p.Empty() {
		return ErrEmptyPatch
	}
	if p.DepartureTime != nil && p.DepartureTime.IsZero() {
		return ErrDepartureRequired
	}
	if p.SeatsAvailable != nil && (*p.SeatsAvailable < MinSeats || *p.SeatsAvailable > MaxSeats) {
		return ErrSeatsOutOfRange
	}
	return nil
}

// Apply mutates an active trip. A new seat count shifts capacity by the same
// delta so seats already held by confirmed bookings stay held.
func (trip *Trip) Apply(p Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := trip.RequireActive(); err != nil {
		return err
	}
	if p.DepartureTime != nil {
		trip.DepartureTime = p.DepartureTime.UTC()
	}
	if p.SeatsAvailable != nil {
		delta := *p.SeatsAvailable - trip.SeatsAvailable
		trip.SeatsAvailable = *p.SeatsAvailable
		trip.Capacity += delta
	}
	if p.Recurrence != nil {
		trip.Recurrence = normalizeRecurrence(p.Recurrence)
	}
	trip.touch()
	return nil
}

func normalizeRecurrence(r *string) *string {
	if r == nil {
		return nil
	}
	v := strings.TrimSpace(*r)
	if v == "" {
		return nil
	}
	return &v
}

func (trip *Trip) touch() {
	trip.UpdatedAt = time.Now().UTC()
}
