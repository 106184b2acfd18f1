package handler

import (
	"net/http"
	"strings"

	"ride-share/internal/general/httpx"
	"ride-share/internal/ports"
)

// --- Request DTOs (HTTP boundary) ---

type createBookingRequest struct {
	TripID      string `json:"trip_id" validate:"required,uuid"`
	SeatsBooked int    `json:"seats_booked" validate:"min=1,max=8"`
}

type rateRequest struct {
	Score   int     `json:"score" validate:"min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

// ----- Handler: POST /bookings -----

func (handler *BookingHTTPHandler) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	var req createBookingRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		handler.resp.DecodeError(ctx, w, err)
		return
	}
	id, err := caller(r)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := handler.svc.CreateBooking(ctx, ports.CreateBookingInput{
		RiderID:     id.UserID,
		TripID:      strings.ToLower(req.TripID),
		SeatsBooked: req.SeatsBooked,
	})
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(handler.logger.WithBookingID(ctx, res.Booking.ID), w, http.StatusCreated, res)
}

// ----- Handler: GET /bookings -----

// Drivers see bookings on their trips; everyone else sees their own.
func (handler *BookingHTTPHandler) handleListBookings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	id, err := caller(r)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	res, err := handler.svc.ListBookings(ctx, id.UserID, id.Role.IsDriver())
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, map[string]any{"bookings": res, "count": len(res)})
}

// ----- Handler: GET /bookings/{booking_id} -----

func (handler *BookingHTTPHandler) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	handler.withBooking(w, r, func(w http.ResponseWriter, r *http.Request, bookingID, callerID string) (any, error) {
		return handler.svc.GetBooking(r.Context(), bookingID, callerID)
	})
}

// ----- Handler: PUT /bookings/{booking_id}/confirm -----

func (handler *BookingHTTPHandler) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	handler.withBooking(w, r, func(w http.ResponseWriter, r *http.Request, bookingID, callerID string) (any, error) {
		return handler.svc.ConfirmBooking(r.Context(), bookingID, callerID)
	})
}

// ----- Handler: PUT /bookings/{booking_id}/cancel -----

func (handler *BookingHTTPHandler) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	handler.withBooking(w, r, func(w http.ResponseWriter, r *http.Request, bookingID, callerID string) (any, error) {
		return handler.svc.CancelBooking(r.Context(), bookingID, callerID)
	})
}

// ----- Handler: GET /payments/booking/{booking_id} -----

func (handler *BookingHTTPHandler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	handler.withBooking(w, r, func(w http.ResponseWriter, r *http.Request, bookingID, callerID string) (any, error) {
		return handler.svc.GetPaymentByBooking(r.Context(), bookingID, callerID)
	})
}

// withBooking resolves the booking path id and the caller, runs fn with a
// bounded context and writes its result as 200.
func (handler *BookingHTTPHandler) withBooking(
	w http.ResponseWriter,
	r *http.Request,
	fn func(w http.ResponseWriter, r *http.Request, bookingID, callerID string) (any, error),
) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	bookingID, err := httpx.PathID(r, "booking_id")
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	ctx = handler.logger.WithBookingID(ctx, bookingID)
	id, err := caller(r)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := fn(w, r.WithContext(ctx), bookingID, id.UserID)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, res)
}

// ----- Handler: POST /bookings/{booking_id}/rate -----

func (handler *BookingHTTPHandler) handleRate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	bookingID, err := httpx.PathID(r, "booking_id")
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	var req rateRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		handler.resp.DecodeError(ctx, w, err)
		return
	}
	id, err := caller(r)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := handler.svc.CreateRating(ctx, ports.CreateRatingInput{
		BookingID: bookingID,
		RaterID:   id.UserID,
		Score:     req.Score,
		Comment:   req.Comment,
	})
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusCreated, res)
}

// ----- Handler: POST /payments/{payment_id}/capture -----

func (handler *BookingHTTPHandler) handleCapture(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.begin(r)
	defer cancel()

	paymentID, err := httpx.PathID(r, "payment_id")
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	id, err := caller(r)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}

	res, err := handler.svc.CapturePayment(ctx, paymentID, id.UserID)
	if err != nil {
		handler.resp.Error(ctx, w, err)
		return
	}
	handler.resp.JSON(ctx, w, http.StatusOK, res)
}
