package postgres

import (
	"errors"
	"testing"

	"ride-share/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapPgError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		kind apperr.Kind
		msg  string
	}{
		{"duplicate rating", &pgconn.PgError{Code: "23505", ConstraintName: "ratings_booking_rater_key"}, apperr.KindValidation, "rating already exists"},
		{"duplicate payment", &pgconn.PgError{Code: "23505", ConstraintName: "payments_booking_id_key"}, apperr.KindInvalidState, "payment already exists for booking"},
		{"price ceiling", &pgconn.PgError{Code: "23514", ConstraintName: "quotes_price_ceiling"}, apperr.KindInvalidState, "constraint quotes_price_ceiling violated"},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, apperr.KindValidation, "malformed identifier"},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperr.KindInvalidState, "concurrent update conflict, retry the request"},
	}
	for _, c := range cases {
		err := mapPgError(c.in)
		if apperr.KindOf(err) != c.kind {
			t.Errorf("%s: kind = %s, want %s", c.name, apperr.KindOf(err), c.kind)
		}
		if apperr.Message(err) != c.msg {
			t.Errorf("%s: message = %q", c.name, apperr.Message(err))
		}
	}

	plain := errors.New("conn reset")
	if mapPgError(plain) != plain {
		t.Errorf("non-pg errors must pass through")
	}
}
