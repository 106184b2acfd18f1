package postgres

import (
	"errors"

	"ride-share/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgForeignKey      = "23503"
	pgInvalidText     = "22P02"
	pgSerialization   = "40001"
	pgDeadlock        = "40P01"
	pgLockTimeout     = "55P03"
)

// constraint-specific messages for unique violations
var uniqueMessages = map[string]string{
	"ratings_booking_rater_key": "rating already exists",
	"payments_booking_id_key":   "payment already exists for booking",
	"quotes_booking_id_key":     "quote already exists for booking",
}

// mapPgError translates constraint violations into domain error kinds.
// Other errors pass through unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if msg, ok := uniqueMessages[pgErr.ConstraintName]; ok {
			if pgErr.ConstraintName == "ratings_booking_rater_key" {
				return apperr.Wrap(apperr.KindValidation, err, "%s", msg)
			}
			return apperr.Wrap(apperr.KindInvalidState, err, "%s", msg)
		}
		return apperr.Wrap(apperr.KindInvalidState, err, "duplicate record")
	case pgCheckViolation:
		return apperr.Wrap(apperr.KindInvalidState, err, "constraint %s violated", pgErr.ConstraintName)
	case pgForeignKey:
		return apperr.Wrap(apperr.KindValidation, err, "referenced record does not exist")
	case pgInvalidText:
		return apperr.Wrap(apperr.KindValidation, err, "malformed identifier")
	case pgSerialization, pgDeadlock, pgLockTimeout:
		return apperr.Wrap(apperr.KindInvalidState, err, "concurrent update conflict, retry the request")
	default:
		return err
	}
}
