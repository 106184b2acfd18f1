package service

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/geo"
	"ride-share/internal/domain/notification"
	"ride-share/internal/domain/trip"
	"ride-share/internal/domain/user"
	"ride-share/internal/general/logger"
	"ride-share/internal/memstore"
	"ride-share/internal/ports"
)

type fixture struct {
	svc      ports.TripService
	store    *memstore.Store
	notifier *memstore.Recorder
}

var (
	almaty   = geo.Point{Lat: 43.2389, Lng: 76.8897}
	astana   = geo.Point{Lat: 51.1605, Lng: 71.4704}
	nearAlma = geo.Point{Lat: 43.2500, Lng: 76.9000}
)

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memstore.New()
	store.AddUser(user.Summary{ID: "driver-1", Name: "Dana", Rating: 4.5})
	store.AddUser(user.Summary{ID: "driver-2", Name: "Erlan"})
	store.AddUser(user.Summary{ID: "rider-1", Name: "Aru"})

	rec := &memstore.Recorder{}
	geocoder := memstore.Geocoder{"Almaty": almaty, "Astana": astana}
	svc := NewTripService(logger.NewWithWriter("test", io.Discard), store, store.Trips(), store.Bookings(),
		geocoder, rec, SearchSettings{DefaultRadiusMeters: 5000, MaxRadiusMeters: 50000})
	return fixture{svc: svc, store: store, notifier: rec}
}

func (f fixture) createTrip(t *testing.T, driverID string, from geo.Point, seats int) ports.TripView {
	t.Helper()
	to := astana
	v, err := f.svc.CreateTrip(context.Background(), ports.CreateTripInput{
		DriverID:         driverID,
		Origin:           "A",
		Destination:      "B",
		OriginPoint:      &from,
		DestinationPoint: &to,
		DepartureTime:    time.Now().Add(24 * time.Hour),
		SeatsAvailable:   seats,
	})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	return v
}

func (f fixture) addBooking(t *testing.T, tripID, riderID string, seats int, status booking.Status) {
	t.Helper()
	err := f.store.WithinTx(context.Background(), func(ctx context.Context) error {
		b, err := booking.NewBooking(tripID, riderID, seats)
		if err != nil {
			return err
		}
		b.Status = status
		return f.store.Bookings().Create(ctx, b)
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCreateTripWithPoints(t *testing.T) {
	f := newFixture(t)
	v := f.createTrip(t, "driver-1", almaty, 3)

	if v.Status != trip.StatusActive.String() || v.SeatsAvailable != 3 || v.Capacity != 3 {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Driver == nil || v.Driver.Name != "Dana" {
		t.Fatalf("driver summary missing: %+v", v.Driver)
	}
}

func TestCreateTripGeocodesAddresses(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.CreateTrip(context.Background(), ports.CreateTripInput{
		DriverID:       "driver-1",
		Origin:         "Almaty",
		Destination:    "Astana",
		DepartureTime:  time.Now().Add(time.Hour),
		SeatsAvailable: 2,
	})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if v.OriginPoint != almaty || v.DestinationPoint != astana {
		t.Fatalf("points not resolved: %+v %+v", v.OriginPoint, v.DestinationPoint)
	}

	_, err = f.svc.CreateTrip(context.Background(), ports.CreateTripInput{
		DriverID:       "driver-1",
		Origin:         "Atlantis",
		Destination:    "Astana",
		DepartureTime:  time.Now().Add(time.Hour),
		SeatsAvailable: 2,
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unresolvable address: err = %v, want Validation", err)
	}
}

func TestCreateTripRejectsSeatsOutOfRange(t *testing.T) {
	f := newFixture(t)
	from, to := almaty, astana
	for _, seats := range []int{0, 9} {
		_, err := f.svc.CreateTrip(context.Background(), ports.CreateTripInput{
			DriverID: "driver-1", Origin: "A", Destination: "B",
			OriginPoint: &from, DestinationPoint: &to,
			DepartureTime: time.Now(), SeatsAvailable: seats,
		})
		if !errors.Is(err, trip.ErrSeatsOutOfRange) {
			t.Errorf("seats=%d: err = %v", seats, err)
		}
	}
}

func TestSearchNearbyRanksByDistance(t *testing.T) {
	f := newFixture(t)
	far := f.createTrip(t, "driver-1", nearAlma, 2)
	near := f.createTrip(t, "driver-2", almaty, 2)
	f.createTrip(t, "driver-1", astana, 2)
	full := f.createTrip(t, "driver-2", almaty, 1)
	if _, err := f.svc.AdjustSeats(context.Background(), full.ID, -1); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.SearchNearby(context.Background(), ports.SearchInput{Lat: almaty.Lat, Lng: almaty.Lng})
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2: %+v", len(got), got)
	}
	if got[0].ID != near.ID || got[1].ID != far.ID {
		t.Fatalf("order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, near.ID, far.ID)
	}
	if got[0].DistanceMeters == nil || *got[0].DistanceMeters > *got[1].DistanceMeters {
		t.Fatalf("distances not ascending")
	}
}

func TestSearchNearbyValidation(t *testing.T) {
	f := newFixture(t)
	later := time.Now().Add(time.Hour)
	earlier := time.Now()

	cases := map[string]ports.SearchInput{
		"latitude":     {Lat: 91, Lng: 0},
		"radius":       {Lat: 0, Lng: 0, RadiusMeters: 60000},
		"nan radius":   {Lat: 0, Lng: 0, RadiusMeters: math.NaN()},
		"min seats":    {Lat: 0, Lng: 0, MinSeats: 9},
		"window order": {Lat: 0, Lng: 0, DepartureAfter: &later, DepartureBefore: &earlier},
	}
	for name, in := range cases {
		if _, err := f.svc.SearchNearby(context.Background(), in); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: err = %v, want Validation", name, err)
		}
	}
}

func TestSearchRadiusDefaults(t *testing.T) {
	store := memstore.New()
	svc := NewTripService(logger.NewWithWriter("test", io.Discard), store, store.Trips(), store.Bookings(),
		nil, &memstore.Recorder{}, SearchSettings{})
	ctx := context.Background()

	if _, err := svc.SearchNearby(ctx, ports.SearchInput{Lat: 43.2, Lng: 76.9, RadiusMeters: 10000}); err != nil {
		t.Fatalf("10 km search: %v", err)
	}
	if _, err := svc.SearchNearby(ctx, ports.SearchInput{Lat: 43.2, Lng: 76.9, RadiusMeters: 50000}); err != nil {
		t.Fatalf("50 km search: %v", err)
	}
	if _, err := svc.SearchNearby(ctx, ports.SearchInput{Lat: 43.2, Lng: 76.9, RadiusMeters: 50001}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("above max: err = %v, want Validation", err)
	}
}

func TestUpdateTrip(t *testing.T) {
	f := newFixture(t)
	v := f.createTrip(t, "driver-1", almaty, 4)
	ctx := context.Background()

	if _, err := f.svc.AdjustSeats(ctx, v.ID, -2); err != nil {
		t.Fatal(err)
	}

	seats := 5
	_, err := f.svc.UpdateTrip(ctx, ports.UpdateTripInput{TripID: v.ID, DriverID: "driver-2", Patch: trip.Patch{SeatsAvailable: &seats}})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("foreign driver: err = %v", err)
	}

	_, err = f.svc.UpdateTrip(ctx, ports.UpdateTripInput{TripID: v.ID, DriverID: "driver-1"})
	if !errors.Is(err, trip.ErrEmptyPatch) {
		t.Fatalf("empty patch: err = %v", err)
	}

	got, err := f.svc.UpdateTrip(ctx, ports.UpdateTripInput{TripID: v.ID, DriverID: "driver-1", Patch: trip.Patch{SeatsAvailable: &seats}})
	if err != nil {
		t.Fatalf("UpdateTrip: %v", err)
	}
	// two seats are held by confirmed bookings and stay held
	if got.SeatsAvailable != 5 || got.Capacity != 7 {
		t.Fatalf("seats=%d capacity=%d, want 5/7", got.SeatsAvailable, got.Capacity)
	}
}

func TestCancelTripNotifiesRidersWithoutCascading(t *testing.T) {
	f := newFixture(t)
	v := f.createTrip(t, "driver-1", almaty, 4)
	f.addBooking(t, v.ID, "rider-1", 1, booking.StatusConfirmed)
	f.addBooking(t, v.ID, "rider-1", 1, booking.StatusPending)
	f.addBooking(t, v.ID, "rider-2", 1, booking.StatusCancelled)

	got, err := f.svc.CancelTrip(context.Background(), v.ID, "driver-1")
	if err != nil {
		t.Fatalf("CancelTrip: %v", err)
	}
	if got.Status != trip.StatusCancelled.String() {
		t.Fatalf("status = %s", got.Status)
	}

	sent := f.notifier.Sent()
	if len(sent) != 1 || sent[0].Kind != notification.KindTripCancelled {
		t.Fatalf("notifications = %+v", sent)
	}
	if ids := sent[0].Payload.RecipientIDs; len(ids) != 1 || ids[0] != "rider-1" {
		t.Fatalf("recipients = %v", ids)
	}

	err = f.store.WithinTx(context.Background(), func(ctx context.Context) error {
		bs, err := f.store.Bookings().ListByTrip(ctx, v.ID)
		if err != nil {
			return err
		}
		for _, b := range bs {
			if b.Status == booking.StatusCancelled && b.RiderID == "rider-1" {
				t.Errorf("booking %s was cascaded to cancelled", b.ID)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.CancelTrip(context.Background(), v.ID, "driver-1"); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("second cancel: err = %v", err)
	}
}

func TestCompleteTripCompletesConfirmedBookings(t *testing.T) {
	f := newFixture(t)
	v := f.createTrip(t, "driver-1", almaty, 4)
	f.addBooking(t, v.ID, "rider-1", 2, booking.StatusConfirmed)
	f.addBooking(t, v.ID, "rider-2", 1, booking.StatusPending)

	if _, err := f.svc.CompleteTrip(context.Background(), v.ID, "driver-2"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("foreign driver: err = %v", err)
	}

	res, err := f.svc.CompleteTrip(context.Background(), v.ID, "driver-1")
	if err != nil {
		t.Fatalf("CompleteTrip: %v", err)
	}
	if res.CompletedBookings != 1 || res.Trip.Status != trip.StatusCompleted.String() {
		t.Fatalf("unexpected result: %+v", res)
	}
	sent := f.notifier.Sent()
	if len(sent) != 1 || sent[0].Kind != notification.KindTripCompleted {
		t.Fatalf("notifications = %+v", sent)
	}
}

func TestAdjustSeatsStaysWithinCapacity(t *testing.T) {
	f := newFixture(t)
	v := f.createTrip(t, "driver-1", almaty, 3)
	ctx := context.Background()

	if left, err := f.svc.AdjustSeats(ctx, v.ID, -3); err != nil || left != 0 {
		t.Fatalf("take all: left=%d err=%v", left, err)
	}
	if _, err := f.svc.AdjustSeats(ctx, v.ID, -1); !errors.Is(err, apperr.ErrInsufficientSeats) {
		t.Fatalf("below zero: err = %v", err)
	}
	if _, err := f.svc.AdjustSeats(ctx, v.ID, 4); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("above capacity: err = %v", err)
	}
	if _, err := f.svc.AdjustSeats(ctx, v.ID, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("zero delta: err = %v", err)
	}
	if _, err := f.svc.AdjustSeats(ctx, "missing", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing trip: err = %v", err)
	}
}

func TestGetAndListTrips(t *testing.T) {
	f := newFixture(t)
	v := f.createTrip(t, "driver-1", almaty, 3)
	f.createTrip(t, "driver-2", almaty, 3)

	got, err := f.svc.GetTrip(context.Background(), v.ID)
	if err != nil || got.ID != v.ID {
		t.Fatalf("GetTrip: %v %+v", err, got)
	}
	if _, err := f.svc.GetTrip(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing: err = %v", err)
	}

	list, err := f.svc.ListTrips(context.Background(), ports.TripFilter{DriverID: "driver-1"})
	if err != nil || len(list) != 1 {
		t.Fatalf("ListTrips: %v len=%d", err, len(list))
	}
	if _, err := f.svc.ListTrips(context.Background(), ports.TripFilter{Status: "flying"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad status: err = %v", err)
	}
}
