// internal/browser/waits/waits.go
//
// Polling based wait-condition helpers. The boolean variants report success
// or failure; the error variants attach the last underlying cause. Composite
// waits (Stabilized) chain the individual polls sequentially.
package waits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Config bundles the knobs shared by the wait helpers.
type Config struct {
	// Timeout bounds the whole wait.
	Timeout time.Duration
	// PollInterval is the sampling period between predicate evaluations.
	PollInterval time.Duration
	// IdleWindow is how long the network must stay quiet to count as idle.
	IdleWindow time.Duration
}

const (
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 100 * time.Millisecond
	defaultIdleWindow   = 800 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.IdleWindow <= 0 {
		c.IdleWindow = defaultIdleWindow
	}
	return c
}

// Until polls the predicate until it returns true or the timeout elapses.
// A predicate that is already true on the first poll returns without
// sleeping. On timeout the result is false, no earlier than the timeout and
// no later than the timeout plus one poll interval.
func Until(ctx context.Context, timeout, interval time.Duration, predicate func(context.Context) bool) bool {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	for {
		if predicate(ctx) {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}

// For polls an error-returning predicate until success or timeout. On timeout
// it returns a descriptive error wrapping the last underlying cause.
func For(ctx context.Context, timeout, interval time.Duration, what string, predicate func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		ok, err := predicate(ctx)
		if ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		if !time.Now().Before(deadline) {
			if lastErr != nil {
				return fmt.Errorf("timed out after %s waiting for %s: %w", timeout, what, lastErr)
			}
			return fmt.Errorf("timed out after %s waiting for %s", timeout, what)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s aborted: %w", what, ctx.Err())
		case <-time.After(interval):
		}
	}
}

// PageLoaded waits until document.readyState is "complete".
func PageLoaded(ctx context.Context, cfg Config) error {
	cfg = cfg.withDefaults()
	return For(ctx, cfg.Timeout, cfg.PollInterval, "page load", func(c context.Context) (bool, error) {
		var state string
		if err := chromedp.Run(c, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
			return false, err
		}
		return state == "complete", nil
	})
}

// SpinnersGone waits until none of the given selectors matches a visible
// element. Loading overlays on the portal linger past document readiness, so
// this runs after PageLoaded in the composite wait.
func SpinnersGone(ctx context.Context, cfg Config, selectors ...string) error {
	if len(selectors) == 0 {
		return nil
	}
	cfg = cfg.withDefaults()

	script := fmt.Sprintf(`(() => {
		const sels = [%s];
		for (const sel of sels) {
			for (const el of document.querySelectorAll(sel)) {
				const style = window.getComputedStyle(el);
				if (style.display !== 'none' && style.visibility !== 'hidden' && el.offsetParent !== null) {
					return false;
				}
			}
		}
		return true;
	})()`, quoteList(selectors))

	return For(ctx, cfg.Timeout, cfg.PollInterval, "loading indicators to clear", func(c context.Context) (bool, error) {
		var clear bool
		if err := chromedp.Run(c, chromedp.Evaluate(script, &clear)); err != nil {
			return false, err
		}
		return clear, nil
	})
}

// NetworkIdle approximates network quiescence by sampling the page's
// performance resource entries at the poll interval until the count has not
// grown for the idle window.
func NetworkIdle(ctx context.Context, cfg Config) error {
	cfg = cfg.withDefaults()

	deadline := time.Now().Add(cfg.Timeout)
	lastCount := -1
	lastChange := time.Now()

	for {
		var count int
		err := chromedp.Run(ctx, chromedp.Evaluate(`performance.getEntriesByType('resource').length`, &count))
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("network idle wait aborted: %w", ctx.Err())
			}
			// Evaluation can fail transiently mid-navigation; treat as activity.
			lastChange = time.Now()
		} else if count != lastCount {
			lastCount = count
			lastChange = time.Now()
		} else if time.Since(lastChange) >= cfg.IdleWindow {
			return nil
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("timed out after %s waiting for network idle (last resource count %d)", cfg.Timeout, lastCount)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("network idle wait aborted: %w", ctx.Err())
		case <-time.After(cfg.PollInterval):
		}
	}
}

// DefaultSpinnerSelectors are the loading indicators the portal renders while
// fetching content.
var DefaultSpinnerSelectors = []string{
	".loading-spinner",
	".spinner",
	"[data-testid='loading']",
	".co_loading",
	".skeleton-loader",
}

// Stabilized chains the composite wait: document complete, spinners cleared,
// network idle. Each stage runs sequentially against the same deadline.
func Stabilized(ctx context.Context, cfg Config) error {
	cfg = cfg.withDefaults()

	stageCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := PageLoaded(stageCtx, cfg); err != nil {
		return err
	}
	if err := SpinnersGone(stageCtx, cfg, DefaultSpinnerSelectors...); err != nil {
		return err
	}
	return NetworkIdle(stageCtx, cfg)
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
