package postgres

import (
	"context"
	"fmt"
	"time"

	"ride-share/internal/ports"
)

// MetricsRepo runs the admin dashboard aggregates.
type MetricsRepo struct{}

func NewMetricsRepo() ports.MetricsRepository {
	return &MetricsRepo{}
}

func (repo *MetricsRepo) countByStatus(ctx context.Context, table string) (map[string]int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT status::text, COUNT(*) FROM `+table+` GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count %s by status: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// CountTripsByStatus returns trip counts keyed by status.
func (repo *MetricsRepo) CountTripsByStatus(ctx context.Context) (map[string]int, error) {
	return repo.countByStatus(ctx, "trips")
}

// CountBookingsByStatus returns booking counts keyed by status.
func (repo *MetricsRepo) CountBookingsByStatus(ctx context.Context) (map[string]int, error) {
	return repo.countByStatus(ctx, "bookings")
}

// CountBookingsCreatedBetween returns the number of bookings created within [start, end).
func (repo *MetricsRepo) CountBookingsCreatedBetween(ctx context.Context, start, end time.Time) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM bookings
		WHERE created_at >= $1 AND created_at < $2
	`, start, end).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SumCapturedBetween sums captured payment amounts whose last transition falls within [start, end).
func (repo *MetricsRepo) SumCapturedBetween(ctx context.Context, start, end time.Time) (float64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var sum float64
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::float8
		FROM payments
		WHERE status = 'captured' AND updated_at >= $1 AND updated_at < $2
	`, start, end).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum, nil
}

func (repo *MetricsRepo) ActiveSeatTotals(ctx context.Context) (int, int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, 0, err
	}

	var capacity, available int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(capacity), 0), COALESCE(SUM(seats_available), 0)
		FROM trips
		WHERE status = 'active'
	`).Scan(&capacity, &available)
	if err != nil {
		return 0, 0, err
	}
	return capacity, available, nil
}

// ActiveTripRows pages active trips by departure time with their booking counts.
func (repo *MetricsRepo) ActiveTripRows(ctx context.Context, offset, limit int) ([]ports.ActiveTripRow, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT
			t.id, t.driver_id, t.origin, t.destination, t.departure_time,
			t.seats_available, t.capacity,
			COUNT(b.id) FILTER (WHERE b.status = 'confirmed'),
			COUNT(b.id) FILTER (WHERE b.status = 'pending')
		FROM trips t
		LEFT JOIN bookings b ON b.trip_id = t.id
		WHERE t.status = 'active'
		GROUP BY t.id
		ORDER BY t.departure_time ASC, t.id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("active trip rows: %w", err)
	}
	defer rows.Close()

	var out []ports.ActiveTripRow
	for rows.Next() {
		var r ports.ActiveTripRow
		if err := rows.Scan(
			&r.TripID, &r.DriverID, &r.Origin, &r.Destination, &r.DepartureTime,
			&r.SeatsAvailable, &r.Capacity, &r.ConfirmedBookings, &r.PendingBookings,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
