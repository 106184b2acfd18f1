package handler

import (
	"context"
	"net/http"
	"time"

	"ride-share/internal/domain/user"
	"ride-share/internal/general/httpx"
	"ride-share/internal/general/jwt"
	"ride-share/internal/general/logger"
	"ride-share/internal/ports"
)

// AdminHTTPHandler adapts HTTP requests to the AdminService.
type AdminHTTPHandler struct {
	svc    ports.AdminService
	auth   *jwt.Manager
	resp   httpx.Responder
	health map[string]httpx.HealthCheck
}

// NewAdminHTTPHandler wires an HTTP handler around the AdminService.
func NewAdminHTTPHandler(svc ports.AdminService, logger *logger.Logger, auth *jwt.Manager, health map[string]httpx.HealthCheck) *AdminHTTPHandler {
	return &AdminHTTPHandler{svc: svc, auth: auth, resp: httpx.Responder{Logger: logger}, health: health}
}

// RegisterRoutes mounts admin endpoints on the provided mux.
func (handler *AdminHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	adminOnly := jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)

	mux.HandleFunc("GET /admin/overview", adminOnly(handler.handleOverview))
	mux.HandleFunc("GET /admin/trips/active", adminOnly(handler.handleActiveTrips))
	mux.HandleFunc("GET /admin/health", handler.resp.HealthHandler(handler.health))
}

// ----- Handler: GET /admin/overview -----

func (handler *AdminHTTPHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(handler.resp.WithReqID(r.Context(), r), 5*time.Second)
	defer cancel()

	overview, err := handler.svc.GetSystemOverview(ctx)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, overview)
}

// ----- Handler: GET /admin/trips/active?page=X&page_size=Y -----

func (handler *AdminHTTPHandler) handleActiveTrips(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(handler.resp.WithReqID(r.Context(), r), 5*time.Second)
	defer cancel()

	query := r.URL.Query()
	page, err := handler.svc.GetActiveTrips(ctx, query.Get("page"), query.Get("page_size"))
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, page)
}
