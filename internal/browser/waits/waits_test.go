package waits

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntilTrueOnFirstPollReturnsImmediately(t *testing.T) {
	start := time.Now()
	ok := Until(context.Background(), 5*time.Second, 500*time.Millisecond, func(context.Context) bool {
		return true
	})
	elapsed := time.Since(start)

	assert.True(t, ok)
	// No poll-interval sleep may have happened.
	assert.Less(t, elapsed, 100*time.Millisecond)
}

func TestUntilTimeoutBounds(t *testing.T) {
	timeout := 200 * time.Millisecond
	interval := 50 * time.Millisecond

	start := time.Now()
	ok := Until(context.Background(), timeout, interval, func(context.Context) bool {
		return false
	})
	elapsed := time.Since(start)

	assert.False(t, ok)
	// Failure surfaces no earlier than the timeout and no later than the
	// timeout plus one poll interval (plus scheduling slack).
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+interval+100*time.Millisecond)
}

func TestUntilEventuallyTrue(t *testing.T) {
	var calls atomic.Int32
	ok := Until(context.Background(), 2*time.Second, 10*time.Millisecond, func(context.Context) bool {
		return calls.Add(1) >= 3
	})
	assert.True(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUntilContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ok := Until(ctx, 5*time.Second, 50*time.Millisecond, func(context.Context) bool {
		return false
	})
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestForSuccess(t *testing.T) {
	err := For(context.Background(), time.Second, 10*time.Millisecond, "thing", func(context.Context) (bool, error) {
		return true, nil
	})
	assert.NoError(t, err)
}

func TestForTimeoutWrapsLastCause(t *testing.T) {
	cause := errors.New("element detached")
	err := For(context.Background(), 100*time.Millisecond, 20*time.Millisecond, "detail pane", func(context.Context) (bool, error) {
		return false, cause
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "detail pane")
	assert.Contains(t, err.Error(), "timed out")
}

func TestForTimeoutWithoutCause(t *testing.T) {
	err := For(context.Background(), 50*time.Millisecond, 10*time.Millisecond, "banner", func(context.Context) (bool, error) {
		return false, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for banner")
}

func TestForAbortsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := For(ctx, 10*time.Second, 10*time.Millisecond, "never", func(context.Context) (bool, error) {
		return false, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, defaultPollInterval, cfg.PollInterval)
	assert.Equal(t, defaultIdleWindow, cfg.IdleWindow)

	custom := Config{Timeout: time.Second, PollInterval: time.Millisecond, IdleWindow: time.Minute}.withDefaults()
	assert.Equal(t, time.Second, custom.Timeout)
	assert.Equal(t, time.Millisecond, custom.PollInterval)
	assert.Equal(t, time.Minute, custom.IdleWindow)
}

func TestQuoteList(t *testing.T) {
	assert.Equal(t, `".a", "[data-x='1']"`, quoteList([]string{".a", "[data-x='1']"}))
}

func TestSpinnersGoneNoSelectors(t *testing.T) {
	// With nothing to check, the wait is a no-op even without a browser.
	assert.NoError(t, SpinnersGone(context.Background(), Config{}))
}
