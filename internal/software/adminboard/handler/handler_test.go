package handler

import (
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
	"ride-share/internal/software/adminboard/service"

	"github.com/google/uuid"
)

func TestAdminRoutes(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	store := memstore.New()
	auth := jwt.NewManager("test-secret", time.Hour)
	mux := http.NewServeMux()
	NewAdminHTTPHandler(service.NewAdminService(log, store, store.Metrics()), log, auth, map[string]httpx.HealthCheck{}).RegisterRoutes(mux)

	token := func(role user.Role) string {
		tok, _, err := auth.IssueUserToken(uuid.NewString(), role)
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}
	get := func(path, tok string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/admin/overview", token(user.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("overview = %d: %s", rec.Code, rec.Body.String())
	}
	var overview ports.SystemOverview
	if err := json.Unmarshal(rec.Body.Bytes(), &overview); err != nil {
		t.Fatal(err)
	}
	if overview.Metrics.ActiveTrips != 0 || overview.Timestamp.IsZero() {
		t.Fatalf("overview = %+v", overview)
	}

	rec = get("/admin/trips/active?page=abc&page_size=5", token(user.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("active trips = %d", rec.Code)
	}
	var page ports.ActiveTripsPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Page != 1 || page.PageSize != 5 {
		t.Fatalf("page = %+v", page)
	}

	if rec := get("/admin/overview", token(user.RoleDriver)); rec.Code != http.StatusForbidden {
		t.Fatalf("driver overview = %d", rec.Code)
	}
	if rec := get("/admin/overview", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous overview = %d", rec.Code)
	}
	if rec := get("/admin/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}
