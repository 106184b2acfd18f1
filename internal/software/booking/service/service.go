package service

import (
	"context"
	"time"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/trip"
	"ride-share/internal/general/logger"
	"ride-share/internal/ports"
)

const (
	listLimit           = 100
	compensationTimeout = 5 * time.Second
)

// Repositories groups the stores the orchestrator reads and writes.
type Repositories struct {
	Trips    ports.TripRepository
	Bookings ports.BookingRepository
	Quotes   ports.QuoteRepository
	Payments ports.PaymentRepository
	Ratings  ports.RatingRepository
	Users    ports.UserRepository
}

// bookingService is the Quote & Booking Orchestrator and the Rating Ledger.
type bookingService struct {
	logger    *logger.Logger
	uow       ports.UnitOfWork
	repos     Repositories
	inventory ports.SeatInventory
	quotes    ports.QuoteSource
	payments  ports.PaymentManager
	notifier  ports.Notifier
}

// NewBookingService creates a BookingService with the provided dependencies.
func NewBookingService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	repos Repositories,
	inventory ports.SeatInventory,
	quotes ports.QuoteSource,
	payments ports.PaymentManager,
	notifier ports.Notifier,
) ports.BookingService {
	return &bookingService{
		logger:    logger,
		uow:       uow,
		repos:     repos,
		inventory: inventory,
		quotes:    quotes,
		payments:  payments,
		notifier:  notifier,
	}
}

func (service *bookingService) loadBooking(ctx context.Context, bookingID string, forUpdate bool) (*booking.Booking, error) {
	var (
		b   *booking.Booking
		err error
	)
	if forUpdate {
		b, err = service.repos.Bookings.GetForUpdate(ctx, bookingID)
	} else {
		b, err = service.repos.Bookings.GetByID(ctx, bookingID)
	}
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("booking %s not found", bookingID)
	}
	return b, nil
}

func (service *bookingService) loadTrip(ctx context.Context, tripID string) (*trip.Trip, error) {
	t, err := service.repos.Trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("trip %s not found", tripID)
	}
	return t, nil
}

// compose builds a booking view with its trip, quote and payment and returns
// the trip's driver id.
func (service *bookingService) compose(ctx context.Context, b *booking.Booking) (ports.BookingView, string, error) {
	view := ports.NewBookingView(b)

	rec, err := service.repos.Trips.GetRecord(ctx, b.TripID)
	if err != nil {
		return view, "", err
	}
	driverID := ""
	if rec != nil {
		tv := ports.NewTripView(rec.Trip, rec.Driver, nil)
		view.Trip = &tv
		driverID = rec.Trip.DriverID
	}

	q, err := service.repos.Quotes.GetByBooking(ctx, b.ID)
	if err != nil {
		return view, "", err
	}
	if q != nil {
		qv := ports.NewQuoteView(q)
		view.Quote = &qv
	}

	p, err := service.repos.Payments.GetByBooking(ctx, b.ID)
	if err != nil {
		return view, "", err
	}
	if p != nil {
		pv := ports.NewPaymentView(p)
		view.Payment = &pv
	}
	return view, driverID, nil
}

var errNotParticipant = apperr.Unauthorized("only the rider or the trip's driver can view this booking")
