// internal/retry/retry.go
//
// Retry-with-backoff around an arbitrary operation. The policy is
// deliberately small: N attempts, a base delay that either stays fixed or
// doubles per attempt, and the last error propagated to the caller
// unchanged. No jitter, no circuit breaking, no per-error handling.
package retry

import (
	"context"
	"time"
)

// Options configures a retry loop.
type Options struct {
	// MaxAttempts is the total number of invocations, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// BaseDelay is the wait after the first failed attempt.
	BaseDelay time.Duration
	// Exponential doubles the delay each attempt: BaseDelay * 2^(attempt-1).
	Exponential bool
	// OnRetry, when set, is called before each re-attempt with the attempt
	// number just failed and its error. Used for logging.
	OnRetry func(attempt int, err error)
}

// Do runs op up to MaxAttempts times, sleeping between attempts. The error
// from the final attempt is returned as-is. Context cancellation during a
// backoff sleep aborts the loop with the context's error.
func Do(ctx context.Context, opts Options, op func(context.Context) error) error {
	_, err := DoValue(ctx, opts, func(c context.Context) (struct{}, error) {
		return struct{}{}, op(c)
	})
	return err
}

// DoValue is the value-returning variant of Do.
func DoValue[T any](ctx context.Context, opts Options, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, Delay(opts, attempt-1)); err != nil {
				return zero, err
			}
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt < attempts && opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}
	}
	return zero, lastErr
}

// Delay returns the wait before attempt failedAttempts+1, i.e. after
// failedAttempts failures: BaseDelay * 2^(failedAttempts-1) in exponential
// mode, BaseDelay otherwise.
func Delay(opts Options, failedAttempts int) time.Duration {
	if failedAttempts < 1 || opts.BaseDelay <= 0 {
		return 0
	}
	if !opts.Exponential {
		return opts.BaseDelay
	}
	return opts.BaseDelay << (failedAttempts - 1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
