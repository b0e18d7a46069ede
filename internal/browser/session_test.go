// internal/browser/session_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/veyraqa/lexprobe/internal/config"
)

func TestStabilizeWaitsUsesIdleWindow(t *testing.T) {
	// The post-load quiet period is a separate fixed sleep; the polling
	// config must come from the dedicated idle-window and poll-interval keys.
	net := config.NetworkConfig{
		PostLoadWait: 1500 * time.Millisecond,
		IdleWindow:   800 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
	}

	cfg := stabilizeWaits(net)
	assert.Equal(t, 800*time.Millisecond, cfg.IdleWindow)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
}

func TestDetachOutlivesCancellation(t *testing.T) {
	type key struct{}
	parent := context.WithValue(context.Background(), key{}, "target")
	ctx, cancel := context.WithCancel(parent)
	cancel()
	require.Error(t, ctx.Err())

	detached := Detach(ctx)
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, hasDeadline := detached.Deadline()
	assert.False(t, hasDeadline)
	assert.Equal(t, "target", detached.Value(key{}))
}

func TestShutdownReturnsPromptlyOnDeadBrowser(t *testing.T) {
	browserCtx, browserCancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:        zaptest.NewLogger(t),
		cfg:           &config.Config{},
		sessions:      make(map[string]*Session),
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   func() {},
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	assert.Less(t, time.Since(start), shutdownGracePeriod)
}
