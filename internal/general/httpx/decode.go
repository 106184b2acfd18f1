package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"ride-share/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const defaultMaxBody = 256 << 10 // 256 KiB

// ErrBodyTooLarge is returned by Decode when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads a single strict JSON object into dst and validates its tags.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return errUnsupportedMedia
	}
	r.Body = http.MaxBytesReader(w, r.Body, defaultMaxBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return ErrBodyTooLarge
		}
		return apperr.Wrap(apperr.KindValidation, err, "invalid JSON: %s", err.Error())
	}
	if dec.More() {
		return apperr.Validation("invalid JSON: unexpected data after object")
	}
	return Validate(dst)
}

var errUnsupportedMedia = errors.New("Content-Type must be application/json")

// Validate runs struct tag validation and reports the first failing fields.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindValidation, err, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "uuid":
		return field + " must be a UUID"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// PathID reads a UUID path parameter.
func PathID(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	if raw == "" {
		return "", apperr.Validation("%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.Validation("%s must be a UUID", name)
	}
	return id.String(), nil
}

// DecodeError writes the response for a Decode failure.
func (resp Responder) DecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUnsupportedMedia):
		resp.Fail(ctx, w, http.StatusUnsupportedMediaType, apperr.KindValidation, err.Error(), nil)
	case errors.Is(err, ErrBodyTooLarge):
		resp.Fail(ctx, w, http.StatusRequestEntityTooLarge, apperr.KindValidation, err.Error(), err)
	default:
		resp.Error(ctx, w, err)
	}
}
