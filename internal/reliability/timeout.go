// Package reliability wraps remote operations with deadline and retry
// behavior. Operations are plain funcs taking a context; results flow back
// typed through the package-level generic helpers.
package reliability

import (
	"context"
	"time"

	"fitcoach/workout-app/internal/apperr"
)

// WithTimeout races op against the given deadline. It returns op's outcome if
// it completes first, a timeout taxonomy error if the deadline elapses first,
// and a distinct cancellation error if the parent context is canceled before
// either. The deadline timer is released on whichever outcome occurs first.
//
// A dispatched op is not forcibly terminated on expiry: it keeps the derived
// context and may still complete, but its result is discarded. The result
// channel is buffered so the abandoned goroutine can always send and exit.
func WithTimeout[T any](ctx context.Context, limit time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T

	opCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		v, err := op(opCtx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-opCtx.Done():
		// Caller-initiated abort and deadline expiry surface similarly but
		// must stay distinguishable.
		if ctx.Err() != nil {
			return zero, apperr.Canceled()
		}
		return zero, apperr.Timeout()
	}
}
