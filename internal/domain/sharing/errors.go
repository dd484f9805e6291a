package sharing

import "errors"

var (
	// ErrNotFound is returned when the shared profile or its applicant is
	// absent.
	ErrNotFound = errors.New("shared profile not found")

	// ErrUnauthorized is returned when the caller does not own the record.
	ErrUnauthorized = errors.New("caller does not own this shared profile")

	// ErrValidation is wrapped by input validation failures.
	ErrValidation = errors.New("validation failed")
)
