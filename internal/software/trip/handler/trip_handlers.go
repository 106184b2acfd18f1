package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/geo"
	"ride-share/internal/domain/trip"
	"ride-share/internal/general/httpx"
	"ride-share/internal/ports"
)

// --- Request DTOs (HTTP boundary) ---

type createTripRequest struct {
	Origin           string     `json:"origin" validate:"required,max=255"`
	Destination      string     `json:"destination" validate:"required,max=255"`
	OriginPoint      *geo.Point `json:"origin_point"`
	DestinationPoint *geo.Point `json:"destination_point"`
	DepartureTime    time.Time  `json:"departure_time"`
	SeatsAvailable   int        `json:"seats_available" validate:"min=1,max=8"`
	Recurrence       *string    `json:"recurrence" validate:"omitempty,max=64"`
}

type updateTripRequest struct {
	DepartureTime  *time.Time `json:"departure_time"`
	SeatsAvailable *int       `json:"seats_available" validate:"omitempty,min=1,max=8"`
	Recurrence     *string    `json:"recurrence" validate:"omitempty,max=64"`
}

type searchQuery struct {
	RadiusMeters float64 `json:"radius_meters" validate:"gte=0"`
	MinSeats     int     `json:"min_seats" validate:"gte=0,max=8"`
}

// ----- Handler: POST /trips -----

func (handler *TripHTTPHandler) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	var req createTripRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		handler.resp.DecodeError(ctx, w, err)
		return
	}
	id, err := caller(r)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := handler.svc.CreateTrip(ctx, ports.CreateTripInput{
		DriverID:         id.UserID,
		Origin:           strings.TrimSpace(req.Origin),
		Destination:      strings.TrimSpace(req.Destination),
		OriginPoint:      req.OriginPoint,
		DestinationPoint: req.DestinationPoint,
		DepartureTime:    req.DepartureTime,
		SeatsAvailable:   req.SeatsAvailable,
		Recurrence:       req.Recurrence,
	})
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusCreated, res)
}

// ----- Handler: GET /trips/search -----

func (handler *TripHTTPHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	q := r.URL.Query()
	in, err := parseSearch(q)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := handler.svc.SearchNearby(ctx, in)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, map[string]any{"trips": res, "count": len(res)})
}

func parseSearch(q url.Values) (ports.SearchInput, error) {
	var (
		in  ports.SearchInput
		err error
	)
	if in.Lat, err = requiredFloat(q, "lat"); err != nil {
		return in, err
	}
	if in.Lng, err = requiredFloat(q, "lng"); err != nil {
		return in, err
	}
	if in.RadiusMeters, err = optionalFloat(q, "radius_meters"); err != nil {
		return in, err
	}
	if in.MinSeats, err = optionalInt(q, "min_seats"); err != nil {
		return in, err
	}
	if in.DepartureAfter, err = optionalTime(q, "departure_after"); err != nil {
		return in, err
	}
	if in.DepartureBefore, err = optionalTime(q, "departure_before"); err != nil {
		return in, err
	}
	if err := httpx.Validate(searchQuery{RadiusMeters: in.RadiusMeters, MinSeats: in.MinSeats}); err != nil {
		return in, err
	}
	return in, nil
}

// ----- Handler: GET /trips -----

func (handler *TripHTTPHandler) handleListTrips(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	q := r.URL.Query()
	var (
		f   ports.TripFilter
		err error
	)
	f.DriverID = strings.TrimSpace(q.Get("driver_id"))
	if s := strings.TrimSpace(q.Get("status")); s != "" {
		if f.Status, err = trip.ParseStatus(s); err != nil {
			handler.resp.Error(ctx, w, err)
			return
		}
	}
	if f.DepartureAfter, err = optionalTime(q, "departure_after"); err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	if f.Limit, err = optionalInt(q, "limit"); err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := handler.svc.ListTrips(ctx, f)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, map[string]any{"trips": res, "count": len(res)})
}

// ----- Handler: GET /trips/{trip_id} -----

func (handler *TripHTTPHandler) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	tripID, err := httpx.PathID(r, "trip_id")
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	res, err := handler.svc.GetTrip(handler.logger.WithTripID(ctx, tripID), tripID)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, res)
}

// ----- Handler: PUT /trips/{trip_id} -----

func (handler *TripHTTPHandler) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	tripID, err := httpx.PathID(r, "trip_id")
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	var req updateTripRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		handler.resp.DecodeError(ctx, w, err)
		return
	}
	id, err := caller(r)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := handler.svc.UpdateTrip(ctx, ports.UpdateTripInput{
		TripID:   tripID,
		DriverID: id.UserID,
		Patch: trip.Patch{
			DepartureTime:  req.DepartureTime,
			SeatsAvailable: req.SeatsAvailable,
			Recurrence:     req.Recurrence,
		},
	})
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, res)
}

// ----- Handler: DELETE /trips/{trip_id} -----

func (handler *TripHTTPHandler) handleCancelTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	tripID, err := httpx.PathID(r, "trip_id")
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	id, err := caller(r)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := handler.svc.CancelTrip(ctx, tripID, id.UserID)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, res)
}

// ----- Handler: PUT /trips/{trip_id}/complete -----

func (handler *TripHTTPHandler) handleCompleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	tripID, err := httpx.PathID(r, "trip_id")
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	id, err := caller(r)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := handler.svc.CompleteTrip(ctx, tripID, id.UserID)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, res)
}

// ----- query helpers -----

func requiredFloat(q url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, apperr.Validation("%s is required", key)
	}
	return parseFloat(key, raw)
}

func optionalFloat(q url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	return parseFloat(key, raw)
}

func parseFloat(key, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.Validation("%s must be a number", key)
	}
	return v, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", key)
	}
	return v, nil
}

func optionalTime(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Validation("%s must be an RFC 3339 timestamp", key)
	}
	return &v, nil
}
