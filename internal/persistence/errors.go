package persistence

import "errors"

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("persistence: not found")
