package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" || r.URL.Query().Get("address") != "1 Market St, San Francisco" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":37.7941,"lng":-122.3951}}}]}`))
	}))
	defer srv.Close()

	p, err := NewGoogle(srv.URL, "k").Resolve(context.Background(), " 1 Market St, San Francisco ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Lat != 37.7941 || p.Lng != -122.3951 {
		t.Fatalf("point = %+v", p)
	}
}

func TestResolveZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	if _, err := NewGoogle(srv.URL, "k").Resolve(context.Background(), "nowhere"); err == nil {
		t.Fatal("expected error for ZERO_RESULTS")
	}
	if _, err := NewGoogle(srv.URL, "").Resolve(context.Background(), "somewhere"); err == nil {
		t.Fatal("expected error without api key")
	}
}
