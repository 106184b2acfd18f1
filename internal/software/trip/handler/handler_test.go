package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ride-share/internal/domain/user"
	"ride-share/internal/general/httpx"
	"ride-share/internal/general/jwt"
	"ride-share/internal/general/logger"
	"ride-share/internal/memstore"
	"ride-share/internal/ports"
	"ride-share/internal/software/trip/service"

	"github.com/google/uuid"
)

type harness struct {
	mux      *http.ServeMux
	auth     *jwt.Manager
	driver   string
	driver2  string
	riderTok string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	log := logger.NewWithWriter("test", io.Discard)
	store := memstore.New()
	h := harness{mux: http.NewServeMux(), auth: jwt.NewManager("test-secret", time.Hour), driver: uuid.NewString(), driver2: uuid.NewString()}
	store.AddUser(user.Summary{ID: h.driver, Name: "Dana"})
	store.AddUser(user.Summary{ID: h.driver2, Name: "Erlan"})

	svc := service.NewTripService(log, store, store.Trips(), store.Bookings(), nil, &memstore.Recorder{}, service.SearchSettings{})
	NewTripHTTPHandler(svc, log, h.auth, map[string]httpx.HealthCheck{}).RegisterRoutes(h.mux)

	h.riderTok = h.token(t, uuid.NewString(), user.RoleRider)
	return h
}

func (h harness) token(t *testing.T, id string, role user.Role) string {
	t.Helper()
	tok, _, err := h.auth.IssueUserToken(id, role)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (h harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func tripBody() map[string]any {
	return map[string]any{
		"origin":            "Almaty",
		"destination":       "Astana",
		"origin_point":      map[string]float64{"lat": 43.2389, "lng": 76.8897},
		"destination_point": map[string]float64{"lat": 51.1605, "lng": 71.4704},
		"departure_time":    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"seats_available":   3,
	}
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %s", rec.Body.String())
	}
	return body.Error.Kind
}

func (h harness) createTrip(t *testing.T) ports.TripView {
	t.Helper()
	rec := h.do(http.MethodPost, "/trips", h.token(t, h.driver, user.RoleDriver), tripBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /trips = %d: %s", rec.Code, rec.Body.String())
	}
	var v ports.TripView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCreateTripRoles(t *testing.T) {
	h := newHarness(t)
	v := h.createTrip(t)
	if v.DriverID != h.driver || v.SeatsAvailable != 3 || v.Status != "active" {
		t.Fatalf("unexpected trip: %+v", v)
	}

	if rec := h.do(http.MethodPost, "/trips", h.riderTok, tripBody()); rec.Code != http.StatusForbidden {
		t.Fatalf("rider create = %d", rec.Code)
	}
	if rec := h.do(http.MethodPost, "/trips", "", tripBody()); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d", rec.Code)
	}

	bad := tripBody()
	bad["seats_available"] = 9
	rec := h.do(http.MethodPost, "/trips", h.token(t, h.driver, user.RoleDriver), bad)
	if rec.Code != http.StatusBadRequest || errorKind(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("seats=9 = %d %s", rec.Code, rec.Body.String())
	}
}

func TestSearchEndpoint(t *testing.T) {
	h := newHarness(t)
	h.createTrip(t)

	rec := h.do(http.MethodGet, "/trips/search?lat=43.24&lng=76.89&radius_meters=10000&min_seats=2", h.riderTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Trips []ports.TripView `json:"trips"`
		Count int              `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || out.Trips[0].DistanceMeters == nil {
		t.Fatalf("search result = %+v", out)
	}

	for _, path := range []string{
		"/trips/search?lng=76.89",
		"/trips/search?lat=abc&lng=76.89",
		"/trips/search?lat=43&lng=76&departure_after=yesterday",
		"/trips/search?lat=43&lng=76&min_seats=12",
	} {
		if rec := h.do(http.MethodGet, path, h.riderTok, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d", path, rec.Code)
		}
	}
}

func TestTripLifecycleEndpoints(t *testing.T) {
	h := newHarness(t)
	v := h.createTrip(t)
	driverTok := h.token(t, h.driver, user.RoleDriver)
	otherTok := h.token(t, h.driver2, user.RoleDriver)

	if rec := h.do(http.MethodGet, "/trips/not-a-uuid", h.riderTok, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/trips/"+uuid.NewString(), h.riderTok, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id = %d", rec.Code)
	}

	rec := h.do(http.MethodPut, "/trips/"+v.ID, otherTok, map[string]any{"seats_available": 4})
	if rec.Code != http.StatusForbidden || errorKind(t, rec) != "UNAUTHORIZED" {
		t.Fatalf("foreign update = %d %s", rec.Code, rec.Body.String())
	}
	rec = h.do(http.MethodPut, "/trips/"+v.ID, driverTok, map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty update = %d", rec.Code)
	}
	rec = h.do(http.MethodPut, "/trips/"+v.ID, driverTok, map[string]any{"seats_available": 4})
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body.String())
	}

	rec = h.do(http.MethodDelete, "/trips/"+v.ID, driverTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel = %d %s", rec.Code, rec.Body.String())
	}
	rec = h.do(http.MethodPut, "/trips/"+v.ID+"/complete", driverTok, nil)
	if rec.Code != http.StatusConflict || errorKind(t, rec) != "INVALID_STATE" {
		t.Fatalf("complete cancelled trip = %d %s", rec.Code, rec.Body.String())
	}

	rec = h.do(http.MethodGet, "/trips?status=cancelled&driver_id="+h.driver, h.riderTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
}

func TestHealthIsPublic(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}
