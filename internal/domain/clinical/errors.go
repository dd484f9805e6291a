package clinical

import "errors"

// ErrNotFound is returned when no bundle exists for the given key.
var ErrNotFound = errors.New("clinical bundle not found")
