package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoInvokesExactlyMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 4}, func(context.Context) error {
		calls++
		return fmt.Errorf("attempt %d failed", calls)
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestDoSurfacesFinalErrorVerbatim(t *testing.T) {
	finalErr := errors.New("the last straw")
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 3}, func(context.Context) error {
		calls++
		if calls == 3 {
			return finalErr
		}
		return errors.New("earlier failure")
	})
	// The error from attempt N must come back unchanged, not wrapped.
	assert.Same(t, finalErr, err)
}

func TestDoSucceedsWithoutRetrying(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 5, BaseDelay: time.Hour}, func(context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoStopsRetryingOnSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 5, BaseDelay: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoValueReturnsValue(t *testing.T) {
	calls := 0
	v, err := DoValue(context.Background(), Options{MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(context.Context) (string, error) {
			calls++
			if calls < 2 {
				return "", errors.New("not yet")
			}
			return "document-count: 42", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "document-count: 42", v)
}

func TestDelayFixed(t *testing.T) {
	opts := Options{BaseDelay: 250 * time.Millisecond}
	for failed := 1; failed <= 5; failed++ {
		assert.Equal(t, 250*time.Millisecond, Delay(opts, failed))
	}
}

func TestDelayExponentialSchedule(t *testing.T) {
	opts := Options{BaseDelay: 100 * time.Millisecond, Exponential: true}

	// The wait before attempt k+1 equals base * 2^(k-1).
	assert.Equal(t, 100*time.Millisecond, Delay(opts, 1))
	assert.Equal(t, 200*time.Millisecond, Delay(opts, 2))
	assert.Equal(t, 400*time.Millisecond, Delay(opts, 3))
	assert.Equal(t, 800*time.Millisecond, Delay(opts, 4))
}

func TestDelayZeroCases(t *testing.T) {
	assert.Zero(t, Delay(Options{BaseDelay: time.Second}, 0))
	assert.Zero(t, Delay(Options{Exponential: true}, 3))
}

func TestDoRespectsContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Do(ctx, Options{MaxAttempts: 10, BaseDelay: 10 * time.Second}, func(context.Context) error {
		calls++
		return errors.New("always fails")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestOnRetryCallbackSeesIntermediateFailures(t *testing.T) {
	var seen []int
	err := Do(context.Background(), Options{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		OnRetry:     func(attempt int, err error) { seen = append(seen, attempt) },
	}, func(context.Context) error {
		return errors.New("nope")
	})

	require.Error(t, err)
	// Called after attempts 1 and 2, never after the final one.
	assert.Equal(t, []int{1, 2}, seen)
}

func TestZeroMaxAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{}, func(context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}
