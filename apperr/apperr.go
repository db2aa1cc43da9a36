// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP handlers. Services return *Error values; handlers map them to the
// embedded status code and treat anything else as an internal error.
package apperr

import (
	"errors"
	"net/http"
)

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func AccessDenied(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func Internal(message string) *Error {
	if message == "" {
		message = "Internal error"
	}
	return &Error{Status: http.StatusInternalServerError, Message: message}
}

// StatusOf extracts the HTTP status carried by err, or 500 when err is not an
// *Error.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Status == status
}
