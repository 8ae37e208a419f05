package handlers

import (
	"errors"
	"net/http"

	"github.com/videotube/backend/internal/repositories"
)

// apiError carries an HTTP status alongside a caller-facing message. Wrapped
// causes stay out of the response body.
type apiError struct {
	status  int
	message string
	details []string
	cause   error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.cause }

func badRequest(message string, details ...string) error {
	return &apiError{status: http.StatusBadRequest, message: message, details: details}
}

func unauthorized(message string) error {
	return &apiError{status: http.StatusUnauthorized, message: message}
}

func forbidden(message string) error {
	return &apiError{status: http.StatusForbidden, message: message}
}

func notFound(message string) error {
	return &apiError{status: http.StatusNotFound, message: message}
}

func conflict(message string) error {
	return &apiError{status: http.StatusConflict, message: message}
}

func tooManyRequests() error {
	return &apiError{status: http.StatusTooManyRequests, message: "too many requests"}
}

func internal(message string, cause error) error {
	return &apiError{status: http.StatusInternalServerError, message: message, cause: cause}
}

// httpError resolves the status, message and detail list for err.
func httpError(err error) (int, string, []string) {
	var api *apiError
	if errors.As(err, &api) {
		return api.status, api.message, api.details
	}
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "resource not found", nil
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, "resource already exists", nil
	default:
		return http.StatusInternalServerError, "internal server error", nil
	}
}
