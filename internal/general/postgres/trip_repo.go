package postgres

import (
	"context"
	"errors"
	"fmt"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/trip"
	"ride-share/internal/domain/user"
	"ride-share/internal/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TripRepo persists trips using pgx and PostGIS geography columns.
type TripRepo struct{}

// NewTripRepo constructs a new TripRepo.
func NewTripRepo() ports.TripRepository {
	return &TripRepo{}
}

const tripColumns = `
	t.id, t.driver_id, t.origin, t.destination,
	ST_Y(t.origin_point::geometry), ST_X(t.origin_point::geometry),
	ST_Y(t.destination_point::geometry), ST_X(t.destination_point::geometry),
	t.departure_time, t.seats_available, t.capacity, t.recurrence, t.status::text,
	t.created_at, t.updated_at`

const driverColumns = `u.id, u.name, u.rating::float8, u.vehicle_info`

func scanTrip(row pgx.Row, extra ...any) (*trip.Trip, error) {
	var t trip.Trip
	var status string
	dest := []any{
		&t.ID, &t.DriverID, &t.Origin, &t.Destination,
		&t.OriginPoint.Lat, &t.OriginPoint.Lng,
		&t.DestinationPoint.Lat, &t.DestinationPoint.Lng,
		&t.DepartureTime, &t.SeatsAvailable, &t.Capacity, &t.Recurrence, &status,
		&t.CreatedAt, &t.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.Status = trip.Status(status)
	return &t, nil
}

// Create inserts a trip, assigning its ID when empty.
func (repo *TripRepo) Create(ctx context.Context, t *trip.Trip) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO trips (
			id, driver_id, origin, destination, origin_point, destination_point,
			departure_time, seats_available, capacity, recurrence, status
		) VALUES (
			$1, $2, $3, $4,
			ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography,
			ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography,
			$9, $10, $11, $12, $13
		)
		RETURNING created_at, updated_at`,
		t.ID, t.DriverID, t.Origin, t.Destination,
		t.OriginPoint.Lng, t.OriginPoint.Lat,
		t.DestinationPoint.Lng, t.DestinationPoint.Lat,
		t.DepartureTime, t.SeatsAvailable, t.Capacity, t.Recurrence, t.Status.String(),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert trip: %w", mapPgError(err))
	}
	return nil
}

// GetByID returns the trip or (nil, nil).
func (repo *TripRepo) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	return repo.get(ctx, id, "")
}

// GetForUpdate returns the trip with a row lock held until the transaction ends.
func (repo *TripRepo) GetForUpdate(ctx context.Context, id string) (*trip.Trip, error) {
	return repo.get(ctx, id, "FOR UPDATE")
}

func (repo *TripRepo) get(ctx context.Context, id, lock string) (*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	t, err := scanTrip(tx.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips t WHERE t.id = $1 `+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get trip: %w", mapPgError(err))
	}
	return t, nil
}

// GetRecord returns the trip joined with its driver summary, or (nil, nil).
func (repo *TripRepo) GetRecord(ctx context.Context, id string) (*ports.TripRecord, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var d user.Summary
	t, err := scanTrip(tx.QueryRow(ctx, `
		SELECT `+tripColumns+`, `+driverColumns+`
		FROM trips t
		JOIN users u ON u.id = t.driver_id
		WHERE t.id = $1`, id),
		&d.ID, &d.Name, &d.Rating, &d.VehicleInfo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get trip record: %w", mapPgError(err))
	}
	return &ports.TripRecord{Trip: t, Driver: &d}, nil
}

// Update writes every mutable column of t.
func (repo *TripRepo) Update(ctx context.Context, t *trip.Trip) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE trips
		SET departure_time = $2, seats_available = $3, capacity = $4,
		    recurrence = $5, status = $6, updated_at = $7
		WHERE id = $1`,
		t.ID, t.DepartureTime, t.SeatsAvailable, t.Capacity, t.Recurrence, t.Status.String(), t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update trip: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("trip %s not found", t.ID)
	}
	return nil
}

// AdjustSeats moves seats_available by delta in one conditional UPDATE. The
// row is only touched when the result stays within [0, capacity], so two
// concurrent confirms can never drive the count negative.
func (repo *TripRepo) AdjustSeats(ctx context.Context, id string, delta int) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var seats int
	err = tx.QueryRow(ctx, `
		UPDATE trips
		SET seats_available = seats_available + $2, updated_at = now()
		WHERE id = $1
		  AND seats_available + $2 >= 0
		  AND seats_available + $2 <= capacity
		RETURNING seats_available`, id, delta).Scan(&seats)
	if err == nil {
		return seats, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjust seats: %w", mapPgError(err))
	}

	// explain why the guard rejected the update
	var available, capacity int
	err = tx.QueryRow(ctx, `SELECT seats_available, capacity FROM trips WHERE id = $1`, id).Scan(&available, &capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("trip %s not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("read seats: %w", err)
	}
	if delta < 0 {
		return 0, apperr.InsufficientSeats("only %d seats available, %d requested", available, -delta)
	}
	return 0, apperr.InvalidState("restoring %d seats would exceed capacity %d (available %d)", delta, capacity, available)
}

// SearchNearby returns active trips whose origin lies within the radius,
// nearest first, using geodesic distance on the geography type.
func (repo *TripRepo) SearchNearby(ctx context.Context, q ports.NearbyQuery) ([]ports.TripRecord, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+tripColumns+`, `+driverColumns+`,
		       ST_Distance(t.origin_point, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance_m
		FROM trips t
		JOIN users u ON u.id = t.driver_id
		WHERE t.status = 'active'
		  AND ST_DWithin(t.origin_point, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		  AND t.seats_available >= $4
		  AND ($5::timestamptz IS NULL OR t.departure_time >= $5)
		  AND ($6::timestamptz IS NULL OR t.departure_time <= $6)
		ORDER BY distance_m ASC, t.departure_time ASC
		LIMIT $7`,
		q.Center.Lat, q.Center.Lng, q.RadiusMeters, q.MinSeats, q.DepartureAfter, q.DepartureBefore, q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search trips: %w", err)
	}
	defer rows.Close()

	var out []ports.TripRecord
	for rows.Next() {
		var d user.Summary
		var dist float64
		t, err := scanTrip(rows, &d.ID, &d.Name, &d.Rating, &d.VehicleInfo, &dist)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		out = append(out, ports.TripRecord{Trip: t, Driver: &d, DistanceMeters: &dist})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// List returns trips matching f ordered by departure time.
func (repo *TripRepo) List(ctx context.Context, f ports.TripFilter) ([]ports.TripRecord, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+tripColumns+`, `+driverColumns+`
		FROM trips t
		JOIN users u ON u.id = t.driver_id
		WHERE ($1::uuid IS NULL OR t.driver_id = $1)
		  AND ($2::text IS NULL OR t.status::text = $2)
		  AND ($3::timestamptz IS NULL OR t.departure_time >= $3)
		ORDER BY t.departure_time ASC
		LIMIT $4`,
		nullIfEmpty(f.DriverID), nullIfEmpty(f.Status.String()), f.DepartureAfter, f.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", mapPgError(err))
	}
	defer rows.Close()

	var out []ports.TripRecord
	for rows.Next() {
		var d user.Summary
		t, err := scanTrip(rows, &d.ID, &d.Name, &d.Rating, &d.VehicleInfo)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		out = append(out, ports.TripRecord{Trip: t, Driver: &d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
