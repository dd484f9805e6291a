package identity

import "errors"

var (
	// ErrNotFound is returned when a referenced profile does not exist.
	ErrNotFound = errors.New("profile not found")

	// ErrConflict is returned when a profile with the same email or
	// business id already exists.
	ErrConflict = errors.New("profile already exists")

	// ErrUnknownRole is returned when no profile store is registered for
	// the requested role. Wraps ErrValidation so handlers map it to 400.
	ErrUnknownRole = errors.New("unknown role")

	// ErrValidation is wrapped by all input validation failures.
	ErrValidation = errors.New("validation failed")
)
