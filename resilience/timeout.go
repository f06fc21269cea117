package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is matched by errors.Is for any *TimeoutError.
var ErrTimeout = errors.New("operation timed out")

// DefaultTimeout is used when a non-positive timeout is configured.
const DefaultTimeout = 30 * time.Second

// TimeoutError reports that an operation exceeded its deadline.
type TimeoutError struct {
	// Timeout is the configured deadline that was exceeded.
	Timeout time.Duration
}

// Error returns the string representation of the error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %s", e.Timeout)
}

// Is reports whether target is the ErrTimeout sentinel.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// WithTimeout races fn against the given timeout and returns whichever
// settles first. If the timer fires first the call fails with *TimeoutError.
//
// The operation is not forcibly terminated: it receives a context carrying
// the deadline so cooperative operations can stop early, but an operation
// that ignores its context keeps running in the background. Its eventual
// result is discarded.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}

	// Buffered so the losing goroutine can always deliver and exit.
	done := make(chan outcome, 1)

	go func() {
		value, err := fn(opCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-opCtx.Done():
		if ctx.Err() != nil {
			// Parent cancellation wins over the local deadline.
			return zero, ctx.Err()
		}
		return zero, &TimeoutError{Timeout: timeout}
	}
}

// WithTimeoutFunc races an error-only operation against the given timeout.
func WithTimeoutFunc(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	_, err := WithTimeout(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
