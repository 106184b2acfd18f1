package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindInvalidState      Kind = "INVALID_STATE"
	KindInsufficientSeats Kind = "INSUFFICIENT_SEATS"
	KindUpstream          Kind = "UPSTREAM_FAILURE"
	KindNotFound          Kind = "NOT_FOUND"
	KindInternal          Kind = "INTERNAL"
)

// Error carries a Kind, a human-readable message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrInsufficientSeats = &Error{Kind: KindInsufficientSeats}
	ErrUpstream          = &Error{Kind: KindUpstream}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind when the target is a bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// New builds an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind that keeps err as its cause.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) error   { return New(KindValidation, format, args...) }
func Unauthorized(format string, args ...any) error { return New(KindUnauthorized, format, args...) }
func InvalidState(format string, args ...any) error { return New(KindInvalidState, format, args...) }
func NotFound(format string, args ...any) error     { return New(KindNotFound, format, args...) }

func InsufficientSeats(format string, args ...any) error {
	return New(KindInsufficientSeats, format, args...)
}

func Upstream(err error, format string, args ...any) error {
	return Wrap(KindUpstream, err, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-facing message. Internal errors never leak their cause.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal server error"
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Error()
}

// HTTPStatus maps a kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindInvalidState, KindInsufficientSeats:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
