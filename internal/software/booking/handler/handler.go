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

// BookingHTTPHandler adapts HTTP requests to the BookingService.
type BookingHTTPHandler struct {
	svc    ports.BookingService
	logger *logger.Logger
	auth   *jwt.Manager
	resp   httpx.Responder
	health map[string]httpx.HealthCheck
}

// NewBookingHTTPHandler wires an HTTP handler around the BookingService.
func NewBookingHTTPHandler(svc ports.BookingService, logger *logger.Logger, auth *jwt.Manager, health map[string]httpx.HealthCheck) *BookingHTTPHandler {
	return &BookingHTTPHandler{
		svc:    svc,
		logger: logger,
		auth:   auth,
		resp:   httpx.Responder{Logger: logger},
		health: health,
	}
}

// RegisterRoutes mounts booking, rating and payment endpoints on the provided mux.
func (handler *BookingHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	riderOnly := jwt.AuthMiddlewareFunc(handler.auth, user.RoleRider)
	participant := jwt.AuthMiddlewareFunc(handler.auth, user.RoleRider, user.RoleDriver)
	anyone := jwt.AuthMiddlewareFunc(handler.auth)

	mux.HandleFunc("POST /bookings", riderOnly(handler.handleCreateBooking))
	mux.HandleFunc("GET /bookings", anyone(handler.handleListBookings))
	mux.HandleFunc("GET /bookings/{booking_id}", anyone(handler.handleGetBooking))
	mux.HandleFunc("PUT /bookings/{booking_id}/confirm", riderOnly(handler.handleConfirmBooking))
	mux.HandleFunc("PUT /bookings/{booking_id}/cancel", riderOnly(handler.handleCancelBooking))
	mux.HandleFunc("POST /bookings/{booking_id}/rate", participant(handler.handleRate))

	mux.HandleFunc("POST /payments/{payment_id}/capture", riderOnly(handler.handleCapture))
	mux.HandleFunc("GET /payments/booking/{booking_id}", anyone(handler.handleGetPayment))

	mux.HandleFunc("GET /health", handler.resp.HealthHandler(handler.health))
}

// begin attaches a request id and bounds the service call.
func (handler *BookingHTTPHandler) begin(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := handler.resp.WithReqID(r.Context(), r)
	return context.WithTimeout(ctx, requestTimeout)
}

func caller(r *http.Request) (user.Identity, error) {
	claims := jwt.RequireClaims(r)
	if claims == nil {
		return user.Identity{}, apperr.Unauthorized("missing auth claims")
	}
	return claims.Identity(), nil
}
