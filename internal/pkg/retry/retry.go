package retry

import (
	"context"
	"time"
)

// Budget bounds a retried operation: a fixed number of attempts, a pause
// between them, and a per-attempt timeout. Zero values fall back to a single
// attempt with no timeout.
type Budget struct {
	Attempts int
	Delay    time.Duration
	Timeout  time.Duration
}

func DefaultBudget() Budget {
	return Budget{Attempts: 3, Delay: 200 * time.Millisecond, Timeout: 5 * time.Second}
}

// Do runs fn until it succeeds, the budget is exhausted, or transient reports
// the error as permanent. Permanent errors are returned immediately and never
// retried.
func Do(ctx context.Context, b Budget, transient func(error) bool, fn func(ctx context.Context) error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if b.Delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(b.Delay):
				}
			}
			// Checked separately: the select picks at random when the timer
			// and the cancellation fire together, and a zero delay skips the
			// select entirely.
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
		}

		err = attempt(ctx, b.Timeout, fn)
		if err == nil {
			return nil
		}
		if transient == nil || !transient(err) {
			return err
		}
	}
	return err
}

func attempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}
