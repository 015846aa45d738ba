// Package errors defines the API error taxonomy. Every failure a
// handler can produce is one of these codes with a fixed HTTP status.
package errors

import (
	"fmt"
	"net/http"
)

// APIError pairs an error code with the HTTP status it maps to.
// Field names the offending input for validation failures.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails attaches extra context for the client.
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

func newAPIError(code ErrorCode, status int, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: status}
}

// NotFound reports a missing resource as 404.
func NotFound(resource string) *APIError {
	return newAPIError(ErrNotFound, http.StatusNotFound, resource+" not found")
}

// Unauthorized reports a missing or invalid credential as 401.
func Unauthorized(message string) *APIError {
	return newAPIError(ErrUnauthorized, http.StatusUnauthorized, message)
}

// Forbidden reports an ownership or permission failure as 403.
func Forbidden(message string) *APIError {
	return newAPIError(ErrForbidden, http.StatusForbidden, message)
}

// Conflict reports a uniqueness violation as 409.
func Conflict(resource string) *APIError {
	return newAPIError(ErrConflict, http.StatusConflict, resource+" already exists")
}

// ValidationError reports a bad input field as 400.
func ValidationError(field, message string) *APIError {
	err := newAPIError(ErrValidation, http.StatusBadRequest, message)
	err.Field = field
	return err
}

// BadRequest reports a malformed request as 400.
func BadRequest(message string) *APIError {
	return newAPIError(ErrBadRequest, http.StatusBadRequest, message)
}

// InternalError reports a server-side failure as 500.
func InternalError(message string) *APIError {
	return newAPIError(ErrInternalError, http.StatusInternalServerError, message)
}

// PayloadTooLarge reports an oversized request body as 413.
func PayloadTooLarge(message string) *APIError {
	return newAPIError(ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, message)
}

// RateLimited reports an exhausted rate limit as 429.
func RateLimited(message string) *APIError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return newAPIError(ErrRateLimited, http.StatusTooManyRequests, message)
}
