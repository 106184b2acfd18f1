package service

import (
	"context"
	"fmt"
	"strings"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/geo"
	"ride-share/internal/domain/trip"
	"ride-share/internal/ports"
)

// CreateTrip resolves any missing points, then stores an active trip.
func (service *tripService) CreateTrip(ctx context.Context, in ports.CreateTripInput) (ports.TripView, error) {
	origin, err := service.resolve(ctx, "origin", in.Origin, in.OriginPoint)
	if err != nil {
		return ports.TripView{}, err
	}
	destination, err := service.resolve(ctx, "destination", in.Destination, in.DestinationPoint)
	if err != nil {
		return ports.TripView{}, err
	}

	t, err := trip.NewTrip(in.DriverID, in.Origin, in.Destination, origin, destination, in.DepartureTime, in.SeatsAvailable, in.Recurrence)
	if err != nil {
		return ports.TripView{}, err
	}

	var rec *ports.TripRecord
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if err := service.trips.Create(txCtx, t); err != nil {
			return err
		}
		rec, err = service.trips.GetRecord(txCtx, t.ID)
		return err
	})
	if err != nil {
		service.logger.Error(ctx, "trip_create_failed", "Failed to create trip", err, map[string]any{"driver_id": in.DriverID})
		return ports.TripView{}, err
	}
	if rec == nil {
		rec = &ports.TripRecord{Trip: t}
	}

	ctx = service.logger.WithTripID(ctx, t.ID)
	service.logger.Info(ctx, "trip_created", fmt.Sprintf("Trip %s created", t.ID), map[string]any{
		"driver_id": t.DriverID,
		"seats":     t.SeatsAvailable,
		"departure": t.DepartureTime,
	})
	return ports.NewTripView(rec.Trip, rec.Driver, nil), nil
}

// resolve returns the supplied point or geocodes the address text.
func (service *tripService) resolve(ctx context.Context, field, address string, supplied *geo.Point) (geo.Point, error) {
	if supplied != nil {
		return *supplied, supplied.Validate()
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return geo.Point{}, apperr.Validation("%s is required", field)
	}
	if service.geocoder == nil {
		return geo.Point{}, apperr.Validation("%s coordinates are required", field)
	}

	p, err := service.geocoder.Resolve(ctx, address)
	if err != nil {
		service.logger.Error(ctx, "geocode_failed", "Failed to resolve address", err, map[string]any{"field": field})
		return geo.Point{}, apperr.Wrap(apperr.KindValidation, err, "could not resolve %s address", field)
	}
	if err := p.Validate(); err != nil {
		return geo.Point{}, apperr.Wrap(apperr.KindValidation, err, "could not resolve %s address", field)
	}
	return p, nil
}
