package service

import (
	"ride-share/internal/general/logger"
	"ride-share/internal/ports"
)

const (
	maxSearchResults = 50
	defaultListLimit = 100
	maxListLimit     = 100

	defaultSearchRadiusMeters = 5000
	maxSearchRadiusMeters     = 50000
)

// SearchSettings bounds the nearby search radius.
type SearchSettings struct {
	DefaultRadiusMeters float64
	MaxRadiusMeters     float64
}

// tripService is the Trip Inventory Manager.
type tripService struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	trips    ports.TripRepository
	bookings ports.BookingRepository
	geocoder ports.Geocoder
	notifier ports.Notifier
	search   SearchSettings
}

// NewTripService creates a TripService. geocoder may be nil, in which case
// trips must be created with resolved points.
func NewTripService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	trips ports.TripRepository,
	bookings ports.BookingRepository,
	geocoder ports.Geocoder,
	notifier ports.Notifier,
	search SearchSettings,
) ports.TripService {
	if search.DefaultRadiusMeters <= 0 {
		search.DefaultRadiusMeters = defaultSearchRadiusMeters
	}
	if search.MaxRadiusMeters <= 0 {
		search.MaxRadiusMeters = maxSearchRadiusMeters
	}
	if search.MaxRadiusMeters < search.DefaultRadiusMeters {
		search.MaxRadiusMeters = search.DefaultRadiusMeters
	}
	return &tripService{
		logger:   logger,
		uow:      uow,
		trips:    trips,
		bookings: bookings,
		geocoder: geocoder,
		notifier: notifier,
		search:   search,
	}
}
