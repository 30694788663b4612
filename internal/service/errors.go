package service

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidTime      = errors.New("invalid time format, expected HH:mm or h:mm AM/PM")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrMissingFields    = errors.New("missing required reservation fields")
	ErrMissingContact   = errors.New("customer requires a name and at least one of phone or email")
	ErrPartyTooLarge    = errors.New("party size exceeds maximum bay capacity")
	ErrDuplicateContact = errors.New("phone number already belongs to an active customer")
	ErrCodeCollision    = errors.New("customer code collision persisted after retries")
	ErrNoCapacity       = errors.New("no bay available for the requested time")
	ErrNotFound         = errors.New("reservation not found")
	ErrInvalidMessage   = errors.New("message id is required")
	ErrInvalidSource    = errors.New("unknown source type")
	ErrInvalidAction    = errors.New("unknown action")
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation
}

func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
