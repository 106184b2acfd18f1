// Package httpx holds the JSON request/response plumbing shared by the HTTP services.
package httpx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ride-share/internal/apperr"
	"ride-share/internal/general/logger"
)

// Responder writes JSON bodies and maps errors to status codes.
type Responder struct {
	Logger *logger.Logger
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// JSON encodes data with the given status. A nil data writes {}.
func (resp Responder) JSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	buf := []byte("{}")
	if data != nil {
		var err error
		buf, err = json.Marshal(data)
		if err != nil {
			resp.Logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			status = http.StatusInternalServerError
			buf = []byte(`{"error":{"kind":"INTERNAL","message":"failed to encode response"}}`)
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// Error maps err through apperr and writes {"error":{"kind","message"}}.
func (resp Responder) Error(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if errors.Is(err, context.DeadlineExceeded) && kind == apperr.KindInternal {
		status = http.StatusGatewayTimeout
	}
	resp.fail(ctx, w, status, kind, apperr.Message(err), err)
}

// Fail writes an error body with an explicit status, for transport-level problems.
func (resp Responder) Fail(ctx context.Context, w http.ResponseWriter, status int, kind apperr.Kind, msg string, err error) {
	resp.fail(ctx, w, status, kind, msg, err)
}

func (resp Responder) fail(ctx context.Context, w http.ResponseWriter, status int, kind apperr.Kind, msg string, err error) {
	action := "request_failed"
	switch {
	case status >= 500:
		action = "http_internal_error"
	case status == http.StatusBadRequest:
		action = "validation_failed"
	case status == http.StatusUnsupportedMediaType:
		action = "unsupported_media_type"
	}
	if status >= 500 {
		resp.Logger.Error(ctx, action, msg, err, map[string]any{"status": status})
	} else {
		resp.Logger.Debug(ctx, action, msg, map[string]any{"status": status, "kind": kind})
	}
	resp.JSON(ctx, w, status, errorBody{Error: errorDetail{Kind: kind, Message: msg}})
}

// WithReqID extracts or generates a request ID and adds it to the context.
func (resp Responder) WithReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if reqID == "" {
		reqID = randID()
	}
	return resp.Logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
