package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ride-share/internal/apperr"
	"ride-share/internal/general/logger"
)

type sample struct {
	TripID string `json:"trip_id" validate:"required,uuid"`
	Seats  int    `json:"seats_booked" validate:"min=1,max=8"`
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %s", rec.Body.String())
	}
	return body.Error
}

func TestErrorMapsKinds(t *testing.T) {
	resp := Responder{Logger: logger.NewWithWriter("test", io.Discard)}
	cases := []struct {
		err    error
		status int
		kind   apperr.Kind
		msg    string
	}{
		{apperr.InsufficientSeats("only 1 seats available, 2 requested"), http.StatusConflict, apperr.KindInsufficientSeats, "only 1 seats available, 2 requested"},
		{apperr.Upstream(errors.New("dial"), "Failed to generate quote. Booking cancelled."), http.StatusBadGateway, apperr.KindUpstream, "Failed to generate quote. Booking cancelled."},
		{errors.New("pgx: conn closed"), http.StatusInternalServerError, apperr.KindInternal, "internal server error"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		resp.Error(context.Background(), rec, c.err)
		if rec.Code != c.status {
			t.Errorf("%v: status = %d, want %d", c.err, rec.Code, c.status)
		}
		if got := decodeBody(t, rec); got.Kind != c.kind || got.Message != c.msg {
			t.Errorf("%v: body = %+v", c.err, got)
		}
	}
}

func TestDecode(t *testing.T) {
	newReq := func(ct, body string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		if ct != "" {
			r.Header.Set("Content-Type", ct)
		}
		return r
	}

	var ok sample
	err := Decode(httptest.NewRecorder(), newReq("application/json", `{"trip_id":"6f1c2d8e-4b7a-4c1e-9f00-2a3b4c5d6e7f","seats_booked":2}`), &ok)
	if err != nil || ok.Seats != 2 {
		t.Fatalf("Decode: %v %+v", err, ok)
	}

	cases := map[string]struct {
		ct, body string
		wantKind apperr.Kind
		wantMsg  string
	}{
		"unknown field": {"application/json", `{"trip_id":"x","extra":1}`, apperr.KindValidation, "invalid JSON"},
		"bad uuid":      {"application/json", `{"trip_id":"x","seats_booked":1}`, apperr.KindValidation, "trip_id must be a UUID"},
		"seat range":    {"application/json", `{"trip_id":"6f1c2d8e-4b7a-4c1e-9f00-2a3b4c5d6e7f","seats_booked":9}`, apperr.KindValidation, "seats_booked must be at most 8"},
	}
	for name, c := range cases {
		var dst sample
		err := Decode(httptest.NewRecorder(), newReq(c.ct, c.body), &dst)
		if apperr.KindOf(err) != c.wantKind || !strings.Contains(apperr.Message(err), c.wantMsg) {
			t.Errorf("%s: err = %v", name, err)
		}
	}

	var dst sample
	if err := Decode(httptest.NewRecorder(), newReq("text/plain", `{}`), &dst); !errors.Is(err, errUnsupportedMedia) {
		t.Fatalf("content type: err = %v", err)
	}
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/trips/abc", nil)
	r.SetPathValue("trip_id", "abc")
	if _, err := PathID(r, "trip_id"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	r.SetPathValue("trip_id", "6F1C2D8E-4B7A-4C1E-9F00-2A3B4C5D6E7F")
	id, err := PathID(r, "trip_id")
	if err != nil || id != "6f1c2d8e-4b7a-4c1e-9f00-2a3b4c5d6e7f" {
		t.Fatalf("PathID = %q, %v", id, err)
	}
}

func TestHealthHandler(t *testing.T) {
	resp := Responder{Logger: logger.NewWithWriter("test", io.Discard)}

	rec := httptest.NewRecorder()
	resp.HealthHandler(map[string]HealthCheck{"db": func(context.Context) error { return nil }})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	resp.HealthHandler(map[string]HealthCheck{"db": func(context.Context) error { return errors.New("down") }})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"db":"down"`) {
		t.Fatalf("unhealthy: %d %s", rec.Code, rec.Body.String())
	}
}
