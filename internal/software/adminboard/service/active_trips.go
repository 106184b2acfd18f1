package service

import (
	"context"
	"strconv"

	"ride-share/internal/domain/trip"
	"ride-share/internal/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// GetActiveTrips returns a page of active trips with their booking counts.
// Unparseable or out-of-range paging values fall back to defaults.
func (service *adminService) GetActiveTrips(ctx context.Context, page, pageSize string) (ports.ActiveTripsPage, error) {
	pageInt, err := strconv.Atoi(page)
	if err != nil || pageInt < 1 {
		pageInt = 1
	}
	sizeInt, err := strconv.Atoi(pageSize)
	if err != nil || sizeInt < 1 {
		sizeInt = defaultPageSize
	}
	sizeInt = min(sizeInt, maxPageSize)

	res := ports.ActiveTripsPage{Page: pageInt, PageSize: sizeInt, Trips: []ports.ActiveTripRow{}}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		counts, err := service.metrics.CountTripsByStatus(txCtx)
		if err != nil {
			return err
		}
		res.TotalCount = counts[trip.StatusActive.String()]

		rows, err := service.metrics.ActiveTripRows(txCtx, (pageInt-1)*sizeInt, sizeInt)
		if err != nil {
			return err
		}
		res.Trips = append(res.Trips, rows...)
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "admin_active_trips_failed", "Failed to list active trips", err, nil)
		return ports.ActiveTripsPage{}, err
	}
	return res, nil
}
