package middleware

import (
	"errors"
	"net/http"

	"github.com/chaiyot/bay-booking/internal/service"
	"github.com/labstack/echo/v4"
)

// ErrorHandler is the single place service sentinel errors become HTTP
// statuses, so handlers return them as-is.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrMissingContact),
		errors.Is(err, service.ErrInvalidTime),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidSource),
		errors.Is(err, service.ErrPartyTooLarge):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrNoCapacity),
		errors.Is(err, service.ErrDuplicateContact):
		code = http.StatusConflict
	case errors.Is(err, service.ErrCodeCollision):
		code = http.StatusServiceUnavailable
	}

	_ = c.JSON(code, map[string]string{"message": msg})
}
