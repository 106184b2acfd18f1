package service

import (
	"context"
	"strings"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/geo"
	"ride-share/internal/domain/trip"
	"ride-share/internal/ports"
)

// SearchNearby returns active trips whose origin lies within the radius,
// nearest first.
func (service *tripService) SearchNearby(ctx context.Context, in ports.SearchInput) ([]ports.TripView, error) {
	center, err := geo.NewPoint(in.Lat, in.Lng)
	if err != nil {
		return nil, err
	}

	radius := in.RadiusMeters
	if radius == 0 {
		radius = service.search.DefaultRadiusMeters
	}
	if !(radius >= 1 && radius <= service.search.MaxRadiusMeters) {
		return nil, apperr.Validation("radius_meters must be between 1 and %.0f", service.search.MaxRadiusMeters)
	}

	minSeats := in.MinSeats
	if minSeats == 0 {
		minSeats = trip.MinSeats
	}
	if minSeats < trip.MinSeats || minSeats > trip.MaxSeats {
		return nil, apperr.Validation("min_seats must be between %d and %d", trip.MinSeats, trip.MaxSeats)
	}
	if in.DepartureAfter != nil && in.DepartureBefore != nil && in.DepartureAfter.After(*in.DepartureBefore) {
		return nil, apperr.Validation("departure_after must not be later than departure_before")
	}

	q := ports.NearbyQuery{
		Center:          center,
		RadiusMeters:    radius,
		MinSeats:        minSeats,
		DepartureAfter:  in.DepartureAfter,
		DepartureBefore: in.DepartureBefore,
		Limit:           maxSearchResults,
	}

	var recs []ports.TripRecord
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		recs, err = service.trips.SearchNearby(txCtx, q)
		return err
	})
	if err != nil {
		service.logger.Error(ctx, "trip_search_failed", "Nearby search failed", err, map[string]any{"radius_m": radius})
		return nil, err
	}

	service.logger.Debug(ctx, "trip_search", "Nearby search completed", map[string]any{
		"radius_m": radius,
		"results":  len(recs),
	})
	return toViews(recs), nil
}

// GetTrip returns one trip with its driver summary.
func (service *tripService) GetTrip(ctx context.Context, tripID string) (ports.TripView, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return ports.TripView{}, apperr.Validation("trip id is required")
	}

	var rec *ports.TripRecord
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		rec, err = service.trips.GetRecord(txCtx, tripID)
		return err
	})
	if err != nil {
		return ports.TripView{}, err
	}
	if rec == nil {
		return ports.TripView{}, apperr.NotFound("trip %s not found", tripID)
	}
	return ports.NewTripView(rec.Trip, rec.Driver, nil), nil
}

// ListTrips returns trips ordered by departure time.
func (service *tripService) ListTrips(ctx context.Context, f ports.TripFilter) ([]ports.TripView, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, trip.ErrInvalidStatus
	}
	switch {
	case f.Limit < 0:
		return nil, apperr.Validation("limit must be positive")
	case f.Limit == 0:
		f.Limit = defaultListLimit
	case f.Limit > maxListLimit:
		f.Limit = maxListLimit
	}

	var recs []ports.TripRecord
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		recs, err = service.trips.List(txCtx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toViews(recs), nil
}

func toViews(recs []ports.TripRecord) []ports.TripView {
	out := make([]ports.TripView, 0, len(recs))
	for _, r := range recs {
		out = append(out, ports.NewTripView(r.Trip, r.Driver, r.DistanceMeters))
	}
	return out
}
