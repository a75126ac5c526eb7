package service

import "errors"

// Domain failures surfaced to the HTTP boundary. Wrapped with context via
// fmt.Errorf("…: %w", Err…) so handlers can match them with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)
