package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by stores and services when a record is missing.
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrWordsDoNotFit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrMatchOver), errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrCellTaken), errors.Is(err, ErrColumnFull):
		return http.StatusConflict
	case errors.Is(err, ErrTooManyCompanions):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
