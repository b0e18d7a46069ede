// internal/pages/base.go
package pages

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// probeTimeout is the per-locator visibility probe. Each fallback gets a
// short window; only exhausting the whole list is a failure.
const probeTimeout = 2 * time.Second

// rescanPause spaces out WaitAny's full-list rescans.
const rescanPause = 50 * time.Millisecond

// Base carries the shared behavior of all page objects: fallback resolution,
// interaction helpers and the cookie-consent heuristics.
type Base struct {
	drv     Driver
	logger  *zap.Logger
	timeout time.Duration
}

// NewBase creates the shared page-object core. timeout bounds individual
// interactions, not whole scenarios.
func NewBase(drv Driver, logger *zap.Logger, timeout time.Duration) *Base {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Base{drv: drv, logger: logger, timeout: timeout}
}

// Driver exposes the underlying driver for page-specific needs.
func (b *Base) Driver() Driver { return b.drv }

// FirstVisible tries each locator in order and returns the first that matches
// a visible element. Not-found locators are skipped silently; only exhaustion
// of the whole list is an error.
func (b *Base) FirstVisible(ctx context.Context, locators []Locator) (Locator, error) {
	if len(locators) == 0 {
		return Locator{}, fmt.Errorf("no locators provided")
	}
	for _, loc := range locators {
		if b.isVisible(ctx, loc, probeTimeout) {
			return loc, nil
		}
		b.logger.Debug("Locator fallback: not visible, trying next.", zap.Stringer("locator", loc))
	}
	last := locators[len(locators)-1]
	return Locator{}, fmt.Errorf("element not found after trying %d locators (last: %s)", len(locators), last)
}

// WaitAny waits up to the base timeout for any of the locators to become
// visible, re-scanning the list until the deadline.
func (b *Base) WaitAny(ctx context.Context, locators []Locator) (Locator, error) {
	deadline := time.Now().Add(b.timeout)
	var lastErr error
	for {
		loc, err := b.FirstVisible(ctx, locators)
		if err == nil {
			return loc, nil
		}
		lastErr = err
		if !time.Now().Before(deadline) || ctx.Err() != nil {
			return Locator{}, lastErr
		}
		select {
		case <-ctx.Done():
			return Locator{}, lastErr
		case <-time.After(rescanPause):
		}
	}
}

// ClickAny clicks the first visible locator from the list.
func (b *Base) ClickAny(ctx context.Context, locators []Locator) error {
	loc, err := b.FirstVisible(ctx, locators)
	if err != nil {
		return err
	}
	if loc.By == ByXPath {
		return b.drv.ClickXPath(ctx, loc.Value)
	}
	return b.drv.Click(ctx, loc.Value)
}

// TypeAny types into the first visible CSS locator from the list, clearing
// any residual value first. XPath entries in the list are probed for
// visibility but typing targets CSS selectors.
func (b *Base) TypeAny(ctx context.Context, locators []Locator, text string) error {
	loc, err := b.FirstVisible(ctx, locators)
	if err != nil {
		return err
	}
	if loc.By != ByCSS {
		return fmt.Errorf("cannot type into %s locator %q", loc.By, loc.Value)
	}
	if err := b.drv.Clear(ctx, loc.Value); err != nil {
		b.logger.Debug("Could not clear field before typing.", zap.Stringer("locator", loc), zap.Error(err))
	}
	return b.drv.Type(ctx, loc.Value, text)
}

// TextOf returns the text of the first visible CSS locator.
func (b *Base) TextOf(ctx context.Context, locators []Locator) (string, error) {
	loc, err := b.FirstVisible(ctx, locators)
	if err != nil {
		return "", err
	}
	if loc.By != ByCSS {
		return "", fmt.Errorf("cannot extract text via %s locator %q", loc.By, loc.Value)
	}
	return b.drv.Text(ctx, loc.Value)
}

// AnyVisible reports whether any locator in the list currently matches a
// visible element.
func (b *Base) AnyVisible(ctx context.Context, locators []Locator) bool {
	_, err := b.FirstVisible(ctx, locators)
	return err == nil
}

func (b *Base) isVisible(ctx context.Context, loc Locator, timeout time.Duration) bool {
	if loc.By == ByXPath {
		return b.drv.VisibleXPath(ctx, loc.Value, timeout)
	}
	return b.drv.Visible(ctx, loc.Value, timeout)
}

// consentButtonLocators is the ordered list of accept buttons the portal's
// cookie banners have shipped under. Best effort; the banner is absent on
// most repeat visits.
var consentButtonLocators = []Locator{
	CSS("#onetrust-accept-btn-handler"),
	CSS("button#accept-recommended-btn-handler"),
	CSS("button[aria-label='Accept all cookies']"),
	CSS(".cookie-banner button.accept"),
	CSS("#cookie-consent-accept"),
	XPath("//button[contains(., 'Accept All')]"),
	XPath("//button[contains(., 'Accept Cookies')]"),
}

// DismissCookieConsent accepts the cookie banner if one is showing. Absence
// of a banner is not an error.
func (b *Base) DismissCookieConsent(ctx context.Context) bool {
	for _, loc := range consentButtonLocators {
		if !b.isVisible(ctx, loc, 1*time.Second) {
			continue
		}
		var err error
		if loc.By == ByXPath {
			err = b.drv.ClickXPath(ctx, loc.Value)
		} else {
			err = b.drv.Click(ctx, loc.Value)
		}
		if err != nil {
			b.logger.Debug("Consent button click failed; trying next.", zap.Stringer("locator", loc), zap.Error(err))
			continue
		}
		b.logger.Debug("Cookie consent dismissed.", zap.Stringer("locator", loc))
		return true
	}
	return false
}
