package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/apperr"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.Validation:     http.StatusBadRequest,
	apperr.NotFound:       http.StatusNotFound,
	apperr.Forbidden:      http.StatusForbidden,
	apperr.InvalidState:   http.StatusBadRequest,
	apperr.Unauthorized:   http.StatusUnauthorized,
	apperr.RateLimited:    http.StatusTooManyRequests,
	apperr.Infrastructure: http.StatusInternalServerError,
}

// CustomErrorHandler maps application errors to JSON responses. Internal
// failures are logged and answered with a generic message.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := ErrorResponse{Error: "internal_error", Message: "Something went wrong. Please try again later."}

	var he *echo.HTTPError
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae) && ae.Kind != apperr.Other && ae.Kind != apperr.Infrastructure:
		code = kindStatus[ae.Kind]
		body = ErrorResponse{Error: ae.Kind.String(), Message: ae.Message, Field: ae.Field}
	case errors.As(err, &he):
		code = he.Code
		body.Error = http.StatusText(code)
		if msg, ok := he.Message.(string); ok && msg != "" {
			body.Message = msg
		} else if code < http.StatusInternalServerError {
			body.Message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, body)
	}
	if writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
