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

// ----- Views returned to HTTP callers -----

type TripView struct {
	ID               string        `json:"id"`
	DriverID         string        `json:"driver_id"`
	Origin           string        `json:"origin"`
	Destination      string        `json:"destination"`
	OriginPoint      geo.Point     `json:"origin_point"`
	DestinationPoint geo.Point     `json:"destination_point"`
	DepartureTime    time.Time     `json:"departure_time"`
	SeatsAvailable   int           `json:"seats_available"`
	Capacity         int           `json:"capacity"`
	Recurrence       *string       `json:"recurrence,omitempty"`
	Status           string        `json:"status"`
	Driver           *user.Summary `json:"driver,omitempty"`
	DistanceMeters   *float64      `json:"distance_meters,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type QuoteView struct {
	ID         string   `json:"id"`
	BookingID  string   `json:"booking_id"`
	MaxPrice   float64  `json:"max_price"`
	FinalPrice *float64 `json:"final_price"`
}

type PaymentView struct {
	ID          string  `json:"id"`
	BookingID   string  `json:"booking_id"`
	ExternalRef *string `json:"external_ref,omitempty"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
}

type BookingView struct {
	ID          string       `json:"id"`
	TripID      string       `json:"trip_id"`
	RiderID     string       `json:"rider_id"`
	SeatsBooked int          `json:"seats_booked"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Trip        *TripView    `json:"trip,omitempty"`
	Quote       *QuoteView   `json:"quote,omitempty"`
	Payment     *PaymentView `json:"payment,omitempty"`
}

type RatingView struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	RaterID   string    `json:"rater_id"`
	RateeID   string    `json:"ratee_id"`
	Score     int       `json:"score"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ----- Trip Service -----

// CreateTripInput carries either resolved points or address text to geocode.
type CreateTripInput struct {
	DriverID         string
	Origin           string
	Destination      string
	OriginPoint      *geo.Point
	DestinationPoint *geo.Point
	DepartureTime    time.Time
	SeatsAvailable   int
	Recurrence       *string
}

// SearchInput is the raw nearby query; zero radius means the configured default.
type SearchInput struct {
	Lat             float64
	Lng             float64
	RadiusMeters    float64
	MinSeats        int
	DepartureAfter  *time.Time
	DepartureBefore *time.Time
}

type UpdateTripInput struct {
	TripID   string
	DriverID string
	Patch    trip.Patch
}

type CompleteTripResult struct {
	Trip              TripView `json:"trip"`
	CompletedBookings int      `json:"completed_bookings"`
}

// TripService exposes the Trip Inventory Manager.
type TripService interface {
	CreateTrip(ctx context.Context, in CreateTripInput) (TripView, error)
	SearchNearby(ctx context.Context, in SearchInput) ([]TripView, error)
	GetTrip(ctx context.Context, tripID string) (TripView, error)
	ListTrips(ctx context.Context, f TripFilter) ([]TripView, error)
	UpdateTrip(ctx context.Context, in UpdateTripInput) (TripView, error)
	CancelTrip(ctx context.Context, tripID, driverID string) (TripView, error)
	CompleteTrip(ctx context.Context, tripID, driverID string) (CompleteTripResult, error)
	SeatInventory
}

// SeatInventory is the slice of the Trip Inventory Manager the orchestrator depends on.
type SeatInventory interface {
	AdjustSeats(ctx context.Context, tripID string, delta int) (int, error)
}

// ----- Payment Lifecycle Manager -----

// PaymentManager wraps the external processor with idempotent local state.
type PaymentManager interface {
	CreateIntent(ctx context.Context, bookingID string, amount float64) (*payment.Payment, error)
	Capture(ctx context.Context, paymentID string) (*payment.Payment, error)
	Refund(ctx context.Context, paymentID string) (*payment.Payment, error)
	Cancel(ctx context.Context, paymentID string) (*payment.Payment, error)
}

// ----- Booking Orchestrator & Rating Ledger -----

type CreateBookingInput struct {
	RiderID     string
	TripID      string
	SeatsBooked int
}

type CreateBookingResult struct {
	Booking BookingView `json:"booking"`
	Quote   QuoteView   `json:"quote"`
}

type CancelBookingResult struct {
	Booking      BookingView `json:"booking"`
	RefundAmount *float64    `json:"refund_amount,omitempty"`
}

type CreateRatingInput struct {
	BookingID string
	RaterID   string
	Score     int
	Comment   *string
}

// BookingService exposes the booking saga, its reads, and the rating ledger.
type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (CreateBookingResult, error)
	ConfirmBooking(ctx context.Context, bookingID, callerID string) (BookingView, error)
	CancelBooking(ctx context.Context, bookingID, callerID string) (CancelBookingResult, error)
	GetBooking(ctx context.Context, bookingID, callerID string) (BookingView, error)
	ListBookings(ctx context.Context, callerID string, asDriver bool) ([]BookingView, error)
	CapturePayment(ctx context.Context, paymentID, callerID string) (PaymentView, error)
	GetPaymentByBooking(ctx context.Context, bookingID, callerID string) (PaymentView, error)
	CreateRating(ctx context.Context, in CreateRatingInput) (RatingView, error)
}

// ----- View mappers -----

func NewTripView(t *trip.Trip, driver *user.Summary, distance *float64) TripView {
	return TripView{
		ID:               t.ID,
		DriverID:         t.DriverID,
		Origin:           t.Origin,
		Destination:      t.Destination,
		OriginPoint:      t.OriginPoint,
		DestinationPoint: t.DestinationPoint,
		DepartureTime:    t.DepartureTime,
		SeatsAvailable:   t.SeatsAvailable,
		Capacity:         t.Capacity,
		Recurrence:       t.Recurrence,
		Status:           t.Status.String(),
		Driver:           driver,
		DistanceMeters:   distance,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func NewBookingView(b *booking.Booking) BookingView {
	return BookingView{
		ID:          b.ID,
		TripID:      b.TripID,
		RiderID:     b.RiderID,
		SeatsBooked: b.SeatsBooked,
		Status:      b.Status.String(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func NewQuoteView(q *booking.Quote) QuoteView {
	return QuoteView{ID: q.ID, BookingID: q.BookingID, MaxPrice: q.MaxPrice, FinalPrice: q.FinalPrice}
}

func NewPaymentView(p *payment.Payment) PaymentView {
	return PaymentView{ID: p.ID, BookingID: p.BookingID, ExternalRef: p.ExternalRef, Amount: p.Amount, Status: p.Status.String()}
}

func NewRatingView(r *rating.Rating) RatingView {
	return RatingView{
		ID:        r.ID,
		BookingID: r.BookingID,
		RaterID:   r.RaterID,
		RateeID:   r.RateeID,
		Score:     r.Score,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
