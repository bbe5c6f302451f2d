package runtime

import "errors"

var (
	// ErrNotFound is returned when a container does not exist.
	ErrNotFound = errors.New("container not found")
)
