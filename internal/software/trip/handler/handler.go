package handler

import (
	"context"
	"net/http"
	"time"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/user"
	"ride-share/internal/general/httpx"
	"ride-share/internal/general/jwt"
	"ride-share/internal/general/logger"
	"ride-share/internal/ports"
)

const requestTimeout = 5 * time.Second

// TripHTTPHandler adapts HTTP requests to the TripService.
type TripHTTPHandler struct {
	svc    ports.TripService
	logger *logger.Logger
	auth   *jwt.Manager
	resp   httpx.Responder
	health map[string]httpx.HealthCheck
}

// NewTripHTTPHandler wires an HTTP handler around the TripService.
func NewTripHTTPHandler(svc ports.TripService, logger *logger.Logger, auth *jwt.Manager, health map[string]httpx.HealthCheck) *TripHTTPHandler {
	return &TripHTTPHandler{
		svc:    svc,
		logger: logger,
		auth:   auth,
		resp:   httpx.Responder{Logger: logger},
		health: health,
	}
}

// RegisterRoutes mounts trip endpoints on the provided mux.
func (handler *TripHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	driverOnly := jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)
	anyone := jwt.AuthMiddlewareFunc(handler.auth)

	mux.HandleFunc("POST /trips", driverOnly(handler.handleCreateTrip))
	mux.HandleFunc("GET /trips/search", anyone(handler.handleSearch))
	mux.HandleFunc("GET /trips", anyone(handler.handleListTrips))
	mux.HandleFunc("GET /trips/{trip_id}", anyone(handler.handleGetTrip))
	mux.HandleFunc("PUT /trips/{trip_id}", driverOnly(handler.handleUpdateTrip))
	mux.HandleFunc("DELETE /trips/{trip_id}", driverOnly(handler.handleCancelTrip))
	mux.HandleFunc("PUT /trips/{trip_id}/complete", driverOnly(handler.handleCompleteTrip))

	mux.HandleFunc("GET /health", handler.resp.HealthHandler(handler.health))
}

// begin attaches a request id and bounds the service call.
func (handler *TripHTTPHandler) begin(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := handler.resp.WithReqID(r.Context(), r)
	return context.WithTimeout(ctx, requestTimeout)
}

// caller returns the authenticated identity injected by the middleware.
func caller(r *http.Request) (user.Identity, error) {
	claims := jwt.RequireClaims(r)
	if claims == nil {
		return user.Identity{}, apperr.Unauthorized("missing auth claims")
	}
	return claims.Identity(), nil
}
