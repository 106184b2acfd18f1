// Package memstore is an in-memory implementation of the repository ports.
// Transactions are serialized by a single mutex and roll back by restoring a
// snapshot, which gives tests the same all-or-nothing outcome as Postgres.
package memstore

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/booking"
	"ride-share/internal/domain/geo"
	"ride-share/internal/domain/payment"
	"ride-share/internal/domain/rating"
	"ride-share/internal/domain/trip"
	"ride-share/internal/domain/user"
	"ride-share/internal/ports"

	"github.com/google/uuid"
)

type txKey struct{}

var errNoTx = errors.New("no transaction in context: call this repository within UnitOfWork.WithinTx")

type state struct {
	trips    map[string]trip.Trip
	bookings map[string]booking.Booking
	quotes   map[string]booking.Quote // by booking id
	payments map[string]payment.Payment
	ratings  map[string]rating.Rating
	users    map[string]user.Summary
}

func (s state) clone() state {
	return state{
		trips:    maps.Clone(s.trips),
		bookings: maps.Clone(s.bookings),
		quotes:   maps.Clone(s.quotes),
		payments: maps.Clone(s.payments),
		ratings:  maps.Clone(s.ratings),
		users:    maps.Clone(s.users),
	}
}

// Store holds every table. The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex
	st state
}

func New() *Store {
	return &Store{st: state{
		trips:    map[string]trip.Trip{},
		bookings: map[string]booking.Booking{},
		quotes:   map[string]booking.Quote{},
		payments: map[string]payment.Payment{},
		ratings:  map[string]rating.Rating{},
		users:    map[string]user.Summary{},
	}}
}

// WithinTx runs fn holding the store lock; on error the pre-tx snapshot is restored.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func inTx(ctx context.Context) error {
	if ctx.Value(txKey{}) == nil {
		return errNoTx
	}
	return nil
}

// AddUser seeds a user row.
func (s *Store) AddUser(u user.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[u.ID] = u
}

// User returns a user row for assertions.
func (s *Store) User(id string) (user.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	return u, ok
}

// Trip returns a trip row for assertions.
func (s *Store) Trip(id string) (trip.Trip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.trips[id]
	return t, ok
}

// Booking returns a booking row for assertions.
func (s *Store) Booking(id string) (booking.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.bookings[id]
	return b, ok
}

// PaymentCount is the number of payment rows.
func (s *Store) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.payments)
}

// Repository accessors
func (s *Store) Trips() ports.TripRepository       { return tripRepo{s} }
func (s *Store) Bookings() ports.BookingRepository { return bookingRepo{s} }
func (s *Store) Quotes() ports.QuoteRepository     { return quoteRepo{s} }
func (s *Store) Payments() ports.PaymentRepository { return paymentRepo{s} }
func (s *Store) Ratings() ports.RatingRepository   { return ratingRepo{s} }
func (s *Store) Users() ports.UserRepository       { return userRepo{s} }

// ----- trips -----

type tripRepo struct{ s *Store }

func (r tripRepo) Create(ctx context.Context, t *trip.Trip) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	if _, ok := r.s.st.users[t.DriverID]; !ok {
		return apperr.Validation("referenced record does not exist")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	r.s.st.trips[t.ID] = *t
	return nil
}

func (r tripRepo) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	t, ok := r.s.st.trips[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r tripRepo) GetForUpdate(ctx context.Context, id string) (*trip.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r tripRepo) record(t trip.Trip, dist *float64) ports.TripRecord {
	var driver *user.Summary
	if u, ok := r.s.st.users[t.DriverID]; ok {
		driver = &u
	}
	return ports.TripRecord{Trip: &t, Driver: driver, DistanceMeters: dist}
}

func (r tripRepo) GetRecord(ctx context.Context, id string) (*ports.TripRecord, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	t, ok := r.s.st.trips[id]
	if !ok {
		return nil, nil
	}
	rec := r.record(t, nil)
	return &rec, nil
}

func (r tripRepo) Update(ctx context.Context, t *trip.Trip) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	if _, ok := r.s.st.trips[t.ID]; !ok {
		return apperr.NotFound("trip %s not found", t.ID)
	}
	r.s.st.trips[t.ID] = *t
	return nil
}

func (r tripRepo) AdjustSeats(ctx context.Context, id string, delta int) (int, error) {
	if err := inTx(ctx); err != nil {
		return 0, err
	}
	t, ok := r.s.st.trips[id]
	if !ok {
		return 0, apperr.NotFound("trip %s not found", id)
	}
	next := t.SeatsAvailable + delta
	if next < 0 {
		return 0, apperr.InsufficientSeats("only %d seats available, %d requested", t.SeatsAvailable, -delta)
	}
	if next > t.Capacity {
		return 0, apperr.InvalidState("restoring %d seats would exceed capacity %d (available %d)", delta, t.Capacity, t.SeatsAvailable)
	}
	t.SeatsAvailable = next
	r.s.st.trips[id] = t
	return next, nil
}

func (r tripRepo) SearchNearby(ctx context.Context, q ports.NearbyQuery) ([]ports.TripRecord, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	var out []ports.TripRecord
	for _, t := range r.s.st.trips {
		if t.Status != trip.StatusActive || t.SeatsAvailable < q.MinSeats {
			continue
		}
		if q.DepartureAfter != nil && t.DepartureTime.Before(*q.DepartureAfter) {
			continue
		}
		if q.DepartureBefore != nil && t.DepartureTime.After(*q.DepartureBefore) {
			continue
		}
		d := geo.DistanceMeters(q.Center, t.OriginPoint)
		if d > q.RadiusMeters {
			continue
		}
		out = append(out, r.record(t, &d))
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].DistanceMeters < *out[j].DistanceMeters })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r tripRepo) List(ctx context.Context, f ports.TripFilter) ([]ports.TripRecord, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	var out []ports.TripRecord
	for _, t := range r.s.st.trips {
		if f.DriverID != "" && t.DriverID != f.DriverID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.DepartureAfter != nil && t.DepartureTime.Before(*f.DepartureAfter) {
			continue
		}
		out = append(out, r.record(t, nil))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trip.DepartureTime.Before(out[j].Trip.DepartureTime) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ----- bookings -----

type bookingRepo struct{ s *Store }

func (r bookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.s.st.bookings[b.ID] = *b
	return nil
}

func (r bookingRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	b, ok := r.s.st.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r bookingRepo) GetForUpdate(ctx context.Context, id string) (*booking.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r bookingRepo) UpdateStatus(ctx context.Context, b *booking.Booking) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	cur, ok := r.s.st.bookings[b.ID]
	if !ok {
		return apperr.NotFound("booking %s not found", b.ID)
	}
	cur.Status = b.Status
	cur.UpdatedAt = b.UpdatedAt
	r.s.st.bookings[b.ID] = cur
	return nil
}

func (r bookingRepo) Delete(ctx context.Context, id string) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	delete(r.s.st.bookings, id)
	delete(r.s.st.quotes, id)
	return nil
}

func (r bookingRepo) filter(keep func(booking.Booking) bool, newestFirst bool, limit int) []*booking.Booking {
	var out []*booking.Booking
	for _, b := range r.s.st.bookings {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r bookingRepo) ListByRider(ctx context.Context, riderID string, limit int) ([]*booking.Booking, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	return r.filter(func(b booking.Booking) bool { return b.RiderID == riderID }, true, limit), nil
}

func (r bookingRepo) ListByDriver(ctx context.Context, driverID string, limit int) ([]*booking.Booking, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	return r.filter(func(b booking.Booking) bool {
		t, ok := r.s.st.trips[b.TripID]
		return ok && t.DriverID == driverID
	}, true, limit), nil
}

func (r bookingRepo) ListByTrip(ctx context.Context, tripID string) ([]*booking.Booking, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	return r.filter(func(b booking.Booking) bool { return b.TripID == tripID }, false, 0), nil
}

func (r bookingRepo) CompleteConfirmedForTrip(ctx context.Context, tripID string) ([]*booking.Booking, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	var out []*booking.Booking
	for id, b := range r.s.st.bookings {
		if b.TripID != tripID || b.Status != booking.StatusConfirmed {
			continue
		}
		if err := b.Complete(); err != nil {
			return nil, err
		}
		r.s.st.bookings[id] = b
		b := b
		out = append(out, &b)
	}
	return out, nil
}

// ----- quotes -----

type quoteRepo struct{ s *Store }

func (r quoteRepo) Create(ctx context.Context, q *booking.Quote) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	if _, ok := r.s.st.quotes[q.BookingID]; ok {
		return apperr.InvalidState("quote already exists for booking")
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	r.s.st.quotes[q.BookingID] = *q
	return nil
}

func (r quoteRepo) GetByBooking(ctx context.Context, bookingID string) (*booking.Quote, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	q, ok := r.s.st.quotes[bookingID]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (r quoteRepo) SetFinalPrice(ctx context.Context, bookingID string, price float64) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	q, ok := r.s.st.quotes[bookingID]
	if !ok || price < 0 || price > q.MaxPrice {
		return apperr.InvalidState("final price %.2f rejected for booking %s: quote missing or above maximum", price, bookingID)
	}
	q.FinalPrice = &price
	r.s.st.quotes[bookingID] = q
	return nil
}

// ----- payments -----

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	for _, existing := range r.s.st.payments {
		if existing.BookingID == p.BookingID {
			return apperr.InvalidState("payment already exists for booking")
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.s.st.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	p, ok := r.s.st.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r paymentRepo) GetForUpdate(ctx context.Context, id string) (*payment.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r paymentRepo) GetByBooking(ctx context.Context, bookingID string) (*payment.Payment, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	for _, p := range r.s.st.payments {
		if p.BookingID == bookingID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r paymentRepo) UpdateStatus(ctx context.Context, p *payment.Payment) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	cur, ok := r.s.st.payments[p.ID]
	if !ok {
		return apperr.NotFound("payment %s not found", p.ID)
	}
	cur.Status = p.Status
	cur.UpdatedAt = p.UpdatedAt
	r.s.st.payments[p.ID] = cur
	return nil
}

// ----- ratings -----

type ratingRepo struct{ s *Store }

func (r ratingRepo) Create(ctx context.Context, rt *rating.Rating) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	for _, existing := range r.s.st.ratings {
		if existing.BookingID == rt.BookingID && existing.RaterID == rt.RaterID {
			return apperr.Validation("rating already exists")
		}
	}
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	r.s.st.ratings[rt.ID] = *rt
	return nil
}

func (r ratingRepo) Exists(ctx context.Context, bookingID, raterID string) (bool, error) {
	if err := inTx(ctx); err != nil {
		return false, err
	}
	for _, existing := range r.s.st.ratings {
		if existing.BookingID == bookingID && existing.RaterID == raterID {
			return true, nil
		}
	}
	return false, nil
}

func (r ratingRepo) AverageFor(ctx context.Context, rateeID string) (float64, error) {
	if err := inTx(ctx); err != nil {
		return 0, err
	}
	sum, n := 0, 0
	for _, existing := range r.s.st.ratings {
		if existing.RateeID == rateeID {
			sum += existing.Score
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

// ----- users -----

type userRepo struct{ s *Store }

func (r userRepo) GetSummary(ctx context.Context, id string) (*user.Summary, error) {
	if err := inTx(ctx); err != nil {
		return nil, err
	}
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) LockForUpdate(ctx context.Context, id string) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	if _, ok := r.s.st.users[id]; !ok {
		return apperr.NotFound("user %s not found", id)
	}
	return nil
}

func (r userRepo) SetRating(ctx context.Context, id string, avg float64) error {
	if err := inTx(ctx); err != nil {
		return err
	}
	u, ok := r.s.st.users[id]
	if !ok {
		return apperr.NotFound("user %s not found", id)
	}
	u.Rating = avg
	r.s.st.users[id] = u
	return nil
}
