package operations

import (
	"context"
	"errors"
	"time"

	"github.com/manzolo/docker-compose-playground-sub001/lib/retry"
)

// ErrPollTimeout is returned when a client exhausts its polling budget. It is
// client-local: the server-side operation keeps running and any later poll
// against the same id still returns the up-to-date record.
var ErrPollTimeout = errors.New("polling attempt budget exhausted")

// Getter fetches an operation snapshot by id; typically Tracker.Get or an
// HTTP client wrapper with the same shape.
type Getter func(ctx context.Context, id string) (*Operation, error)

// PollUntilDone polls get at a fixed interval until the operation reaches a
// terminal status, the context is cancelled, or maxAttempts is exhausted. On
// timeout it returns the last observed snapshot alongside ErrPollTimeout so
// callers can distinguish "client gave up" from "operation failed".
func PollUntilDone(ctx context.Context, get Getter, id string, interval time.Duration, maxAttempts int) (*Operation, error) {
	var last *Operation

	err := retry.Do(ctx, interval, maxAttempts, func(ctx context.Context) (bool, error) {
		op, err := get(ctx, id)
		if err != nil {
			return false, err
		}
		last = op
		return op.Terminal(), nil
	})

	if errors.Is(err, retry.ErrAttemptsExhausted) {
		return last, ErrPollTimeout
	}
	if err != nil {
		return last, err
	}
	return last, nil
}
