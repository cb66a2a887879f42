// Package apperr provides the error types surfaced to users of nsefolio.
// Command-boundary failures (validation, duplicates, unknown ids) and
// structural storage failures use AppError so handlers can map them to a
// status code without leaking internal details. Provider degradation is
// never an error value; see the datasource package.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so wrapped copies of a
// sentinel compare equal to it.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the sentinel's code/message/status and
// an internal cause.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, format string, args ...any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// StatusOf returns the HTTP status for err, 500 for non-AppErrors.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

var (
	ErrValidation       = &AppError{Code: "VALIDATION_ERROR", Message: "Invalid holding", StatusCode: http.StatusBadRequest}
	ErrDuplicateHolding = &AppError{Code: "DUPLICATE_HOLDING", Message: "Holding already exists", StatusCode: http.StatusConflict}
	ErrNotFound         = &AppError{Code: "NOT_FOUND", Message: "Holding not found", StatusCode: http.StatusNotFound}
	ErrStructural       = &AppError{Code: "STORE_UNAVAILABLE", Message: "Failed to read portfolio holdings", StatusCode: http.StatusServiceUnavailable}
	ErrInternal         = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)
