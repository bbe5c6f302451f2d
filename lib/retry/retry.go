package retry

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptsExhausted is returned when the predicate never succeeded within
// the attempt budget.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Predicate reports whether the awaited condition holds. A non-nil error
// aborts the loop immediately; done=false with a nil error schedules another
// attempt.
type Predicate func(ctx context.Context) (done bool, err error)

// Do polls predicate at a fixed interval up to maxAttempts times. The first
// attempt runs immediately. It returns nil once the predicate reports done,
// ctx.Err() when the context is cancelled, the predicate's error when it
// fails hard, and ErrAttemptsExhausted otherwise.
func Do(ctx context.Context, interval time.Duration, maxAttempts int, predicate Predicate) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		done, err := predicate(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt >= maxAttempts {
			return ErrAttemptsExhausted
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
