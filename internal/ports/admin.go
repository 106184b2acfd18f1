package ports

import (
	"context"
	"time"
)

// ActiveTripRow is one line of the admin active-trips listing.
type ActiveTripRow struct {
	TripID            string    `json:"trip_id"`
	DriverID          string    `json:"driver_id"`
	Origin            string    `json:"origin"`
	Destination       string    `json:"destination"`
	DepartureTime     time.Time `json:"departure_time"`
	SeatsAvailable    int       `json:"seats_available"`
	Capacity          int       `json:"capacity"`
	ConfirmedBookings int       `json:"confirmed_bookings"`
	PendingBookings   int       `json:"pending_bookings"`
}

// MetricsRepository answers the aggregate queries behind the admin dashboard.
type MetricsRepository interface {
	CountTripsByStatus(ctx context.Context) (map[string]int, error)
	CountBookingsByStatus(ctx context.Context) (map[string]int, error)
	// CountBookingsCreatedBetween counts bookings created in [start, end).
	CountBookingsCreatedBetween(ctx context.Context, start, end time.Time) (int, error)
	// SumCapturedBetween sums payments that reached captured in [start, end).
	SumCapturedBetween(ctx context.Context, start, end time.Time) (float64, error)
	// ActiveSeatTotals returns summed capacity and open seats over active trips.
	ActiveSeatTotals(ctx context.Context) (capacity, available int, err error)
	ActiveTripRows(ctx context.Context, offset, limit int) ([]ActiveTripRow, error)
}

type SystemOverview struct {
	Timestamp time.Time      `json:"timestamp"`
	Trips     map[string]int `json:"trips_by_status"`
	Bookings  map[string]int `json:"bookings_by_status"`
	Metrics   struct {
		ActiveTrips   int     `json:"active_trips"`
		BookingsToday int     `json:"bookings_today"`
		RevenueToday  float64 `json:"revenue_today"`
		SeatFillRate  float64 `json:"seat_fill_rate"`
	} `json:"metrics"`
}

type ActiveTripsPage struct {
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalCount int             `json:"total_count"`
	Trips      []ActiveTripRow `json:"trips"`
}

// AdminService exposes read-only operational metrics to administrators.
type AdminService interface {
	GetSystemOverview(ctx context.Context) (SystemOverview, error)
	GetActiveTrips(ctx context.Context, page, pageSize string) (ActiveTripsPage, error)
}
