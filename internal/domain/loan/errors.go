package loan

import "errors"

var (
	// ErrNotFound is returned when a referenced loan, applicant or provider
	// is absent.
	ErrNotFound = errors.New("loan not found")

	// ErrUnauthorized is returned when the caller neither owns the loan nor
	// is its provider.
	ErrUnauthorized = errors.New("caller may not act on this loan")

	// ErrConflict is returned when a transition is attempted out of a
	// terminal state, or when a concurrent update won the version race.
	ErrConflict = errors.New("loan is not in a transitionable state")

	// ErrValidation is wrapped by input validation failures.
	ErrValidation = errors.New("validation failed")
)
