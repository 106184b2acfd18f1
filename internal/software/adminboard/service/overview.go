package service

import (
	"context"
	"math"
	"time"

	"ride-share/internal/domain/trip"
	"ride-share/internal/ports"
)

// GetSystemOverview collects aggregate metrics about trips, bookings and revenue.
func (service *adminService) GetSystemOverview(ctx context.Context) (ports.SystemOverview, error) {
	var res ports.SystemOverview
	now := time.Now().UTC()
	res.Timestamp = now

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		trips, err := service.metrics.CountTripsByStatus(txCtx)
		if err != nil {
			return err
		}
		res.Trips = trips
		res.Metrics.ActiveTrips = trips[trip.StatusActive.String()]

		bookings, err := service.metrics.CountBookingsByStatus(txCtx)
		if err != nil {
			return err
		}
		res.Bookings = bookings

		if res.Metrics.BookingsToday, err = service.metrics.CountBookingsCreatedBetween(txCtx, startOfDay, endOfDay); err != nil {
			return err
		}
		if res.Metrics.RevenueToday, err = service.metrics.SumCapturedBetween(txCtx, startOfDay, endOfDay); err != nil {
			return err
		}

		capacity, available, err := service.metrics.ActiveSeatTotals(txCtx)
		if err != nil {
			return err
		}
		if capacity > 0 {
			res.Metrics.SeatFillRate = math.Round(float64(capacity-available)/float64(capacity)*1000) / 1000
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "admin_overview_failed", "Failed to collect system overview", err, nil)
		return ports.SystemOverview{}, err
	}
	return res, nil
}
