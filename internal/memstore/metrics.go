package memstore

import (
	"context"
	"sort"
	"time"

	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/payment"
	"ride-share/internal/domain/trip"
	"ride-share/internal/ports"
)

func (s *Store) Metrics() ports.MetricsRepository { return metricsRepo{s} }

type metricsRepo struct{ s *Store }

func (r metricsRepo) CountTripsByStatus(ctx context.Context) (map[string]int, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, t := range r.s.st.trips {
		out[t.Status.String()]++
	}
	return out, nil
}

func (r metricsRepo) CountBookingsByStatus(ctx context.Context) (map[string]int, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, b := range r.s.st.bookings {
		out[b.Status.String()]++
	}
	return out, nil
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func (r metricsRepo) CountBookingsCreatedBetween(ctx context.Context, start, end time.Time) (int, error) {
	if err := inTx(ctx); err != nil {
		return 0, err
	}
	n := 0
	for _, b := range r.s.st.bookings {
		if within(b.CreatedAt, start, end) {
			n++
		}
	}
	return n, nil
}

func (r metricsRepo) SumCapturedBetween(ctx context.Context, start, end time.Time) (float64, error) {
	if err := inTx(ctx); err != nil {
		return 0, err
	}
	var sum float64
	for _, p := range r.s.st.payments {
		if p.Status == payment.StatusCaptured && within(p.UpdatedAt, start, end) {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (r metricsRepo) ActiveSeatTotals(ctx context.Context) (int, int, error) {
	if err := inTx(ctx); err != nil {
		return 0, 0, err
	}
	var capacity, available int
	for _, t := range r.s.st.trips {
		if t.Status == trip.StatusActive {
			capacity += t.Capacity
			available += t.SeatsAvailable
		}
	}
	return capacity, available, nil
}

func (r metricsRepo) ActiveTripRows(ctx context.Context, offset, limit int) ([]ports.ActiveTripRow, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	var rows []ports.ActiveTripRow
	for _, t := range r.s.st.trips {
		if t.Status != trip.StatusActive {
			continue
		}
		row := ports.ActiveTripRow{
			TripID:         t.ID,
			DriverID:       t.DriverID,
			Origin:         t.Origin,
			Destination:    t.Destination,
			DepartureTime:  t.DepartureTime,
			SeatsAvailable: t.SeatsAvailable,
			Capacity:       t.Capacity,
		}
		for _, b := range r.s.st.bookings {
			if b.TripID != t.ID {
				continue
			}
			switch b.Status {
			case booking.StatusConfirmed:
				row.ConfirmedBookings++
			case booking.StatusPending:
				row.PendingBookings++
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].DepartureTime.Equal(rows[j].DepartureTime) {
			return rows[i].DepartureTime.Before(rows[j].DepartureTime)
		}
		return rows[i].TripID < rows[j].TripID
	})
	if offset >= len(rows) {
		return nil, nil
	}
	return rows[offset:min(offset+limit, len(rows))], nil
}
