package lifecycle

import "errors"

var (
	// ErrStartFailed is returned when the runtime could not create or start
	// the container. Fatal to that image's start.
	ErrStartFailed = errors.New("container start failed")

	// ErrStopFailed is returned when the runtime stop or remove step failed.
	ErrStopFailed = errors.New("container stop failed")

	// ErrNotRunning is returned when stopping an image whose container does
	// not exist. The single-image path reports it as a stop failure; group
	// stops classify it separately.
	ErrNotRunning = errors.New("container not running")
)
