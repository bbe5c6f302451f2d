package operations

import "errors"

var (
	// ErrNotFound is returned when no operation exists for an id. Callers must
	// treat it as a distinct result, never something to block on.
	ErrNotFound = errors.New("operation not found")

	// ErrTerminal is returned when mutating an operation that already reached
	// a final status. Status transitions are monotonic.
	ErrTerminal = errors.New("operation already terminal")
)
