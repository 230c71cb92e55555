// Package errors defines the sentinel errors shared by the statistics engine
// and its services, plus an AppError wrapper that carries an HTTP status for
// the stats API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfiguration marks an invalid run configuration. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrData marks a single malformed document. The document is skipped.
	ErrData = errors.New("data error")
	// ErrCollectionAccess marks a collection root that cannot be read at all.
	ErrCollectionAccess = errors.New("collection access error")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInternal         = errors.New("internal error")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Configf builds a configuration error with a formatted message.
func Configf(format string, args ...any) *AppError {
	return Newf(ErrConfiguration, http.StatusBadRequest, format, args...)
}

// Dataf builds a per-document data error with a formatted message.
func Dataf(format string, args ...any) *AppError {
	return Newf(ErrData, http.StatusUnprocessableEntity, format, args...)
}

// IsFatal reports whether err must abort a run. Only configuration errors
// and total collection-access failures do; everything else is absorbed per
// document or per value.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrCollectionAccess)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, ErrData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrCollectionAccess):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
