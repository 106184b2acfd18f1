package ports

import (
	"context"
	"time"

	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/geo"
	"ride-share/internal/domain/payment"
	"ride-share/internal/domain/rating"
	"ride-share/internal/domain/trip"
	"ride-share/internal/domain/user"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TripRecord is a trip joined with its driver summary. DistanceMeters is set by nearby search only.
type TripRecord struct {
	Trip           *trip.Trip
	Driver         *user.Summary
	DistanceMeters *float64
}

// NearbyQuery is a validated geospatial search.
type NearbyQuery struct {
	Center          geo.Point
	RadiusMeters    float64
	MinSeats        int
	DepartureAfter  *time.Time
	DepartureBefore *time.Time
	Limit           int
}

// TripFilter narrows listTrips. Empty fields are ignored.
type TripFilter struct {
	DriverID       string
	Status         trip.Status
	DepartureAfter *time.Time
	Limit          int
}

// TripRepository persists trips and owns the atomic seat counter.
// Getters return (nil, nil) when the row does not exist.
type TripRepository interface {
	Create(ctx context.Context, t *trip.Trip) error
	GetByID(ctx context.Context, id string) (*trip.Trip, error)
	GetForUpdate(ctx context.Context, id string) (*trip.Trip, error)
	GetRecord(ctx context.Context, id string) (*TripRecord, error)
	Update(ctx context.Context, t *trip.Trip) error
	// AdjustSeats applies delta in a single conditional update and returns the new count.
	AdjustSeats(ctx context.Context, id string, delta int) (int, error)
	SearchNearby(ctx context.Context, q NearbyQuery) ([]TripRecord, error)
	List(ctx context.Context, f TripFilter) ([]TripRecord, error)
}

// BookingRepository persists bookings.
type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
	GetForUpdate(ctx context.Context, id string) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, b *booking.Booking) error
	Delete(ctx context.Context, id string) error
	ListByRider(ctx context.Context, riderID string, limit int) ([]*booking.Booking, error)
	ListByDriver(ctx context.Context, driverID string, limit int) ([]*booking.Booking, error)
	ListByTrip(ctx context.Context, tripID string) ([]*booking.Booking, error)
	// CompleteConfirmedForTrip moves every confirmed booking of tripID to completed.
	CompleteConfirmedForTrip(ctx context.Context, tripID string) ([]*booking.Booking, error)
}

// QuoteRepository persists one quote per booking.
type QuoteRepository interface {
	Create(ctx context.Context, q *booking.Quote) error
	GetByBooking(ctx context.Context, bookingID string) (*booking.Quote, error)
	// SetFinalPrice writes finalPrice only while it does not exceed maxPrice.
	SetFinalPrice(ctx context.Context, bookingID string, price float64) error
}

// PaymentRepository persists at most one payment per booking.
type PaymentRepository interface {
	Create(ctx context.Context, p *payment.Payment) error
	GetByID(ctx context.Context, id string) (*payment.Payment, error)
	GetForUpdate(ctx context.Context, id string) (*payment.Payment, error)
	GetByBooking(ctx context.Context, bookingID string) (*payment.Payment, error)
	UpdateStatus(ctx context.Context, p *payment.Payment) error
}

// RatingRepository persists ratings, unique per (booking, rater).
type RatingRepository interface {
	Create(ctx context.Context, r *rating.Rating) error
	Exists(ctx context.Context, bookingID, raterID string) (bool, error)
	AverageFor(ctx context.Context, rateeID string) (float64, error)
}

// UserRepository reads user summaries and owns the per-user average rating.
type UserRepository interface {
	GetSummary(ctx context.Context, id string) (*user.Summary, error)
	// LockForUpdate takes the row lock that serializes rating recomputation.
	LockForUpdate(ctx context.Context, id string) error
	SetRating(ctx context.Context, id string, avg float64) error
}
