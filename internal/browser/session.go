// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veyraqa/lexprobe/internal/browser/stealth"
	"github.com/veyraqa/lexprobe/internal/browser/waits"
	"github.com/veyraqa/lexprobe/internal/config"
	"github.com/veyraqa/lexprobe/internal/humanoid"
)

// Session represents one browser tab under scenario control.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	typist  *humanoid.Typist
	console *consoleCapture

	onClose func()

	mu       sync.Mutex
	isClosed bool
}

// newSession wraps an already-created tab context.
func newSession(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()

	s := &Session{
		id:     sessionID,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With(zap.String("session_id", sessionID)),
		cfg:    cfg,
	}

	if cfg.Browser.Humanoid.Enabled {
		s.typist = humanoid.NewTypist(cfg.Browser.Humanoid, s.logger.Named("humanoid"), nil)
	}

	return s, nil
}

// initialize connects the tab, applies the stealth persona and extra headers,
// and starts console-log capture.
func (s *Session) initialize(ctx context.Context) error {
	// Materialize the tab and its CDP connection.
	if err := chromedp.Run(s.ctx); err != nil {
		return fmt.Errorf("failed to connect to browser target: %w", err)
	}

	s.console = newConsoleCapture(s.ctx, s.logger)
	if err := s.console.Start(); err != nil {
		return fmt.Errorf("failed to start console capture: %w", err)
	}

	var tasks chromedp.Tasks

	if s.cfg.Browser.Stealth {
		tasks = append(tasks, stealth.Apply(stealth.DefaultPersona, s.logger)...)
	}

	if len(s.cfg.Network.Headers) > 0 {
		headers := make(network.Headers, len(s.cfg.Network.Headers))
		for k, v := range s.cfg.Network.Headers {
			headers[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(headers))
	}

	if len(tasks) > 0 {
		runCtx, cancel := CombineContext(s.ctx, ctx)
		defer cancel()
		if err := chromedp.Run(runCtx, tasks); err != nil {
			return fmt.Errorf("failed to run session initialization tasks: %w", err)
		}
	}

	return nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Context returns the tab's lifecycle context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// runActions executes chromedp actions bounded by both the session lifetime
// and the caller's context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads the URL and waits for the page to stabilize.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))

	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	navTimeout := s.cfg.Browser.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 90 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		if opCtx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", opCtx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}

	if err := s.Stabilize(opCtx); err != nil {
		if opCtx.Err() != nil {
			return opCtx.Err()
		}
		s.logger.Warn("Page stabilization after navigation incomplete.", zap.Error(err))
	}
	return nil
}

// Stabilize sleeps through the fixed post-load quiet period, then waits for
// document readiness and network quiescence.
func (s *Session) Stabilize(ctx context.Context) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	if s.cfg.Network.PostLoadWait > 0 {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case <-time.After(s.cfg.Network.PostLoadWait):
		}
	}

	return waits.Stabilized(runCtx, stabilizeWaits(s.cfg.Network))
}

// stabilizeWaits derives the polling configuration for post-load
// stabilization. The quiet period is a separate fixed sleep and never widens
// the network-idle window.
func stabilizeWaits(net config.NetworkConfig) waits.Config {
	return waits.Config{
		Timeout:      30 * time.Second,
		PollInterval: net.PollInterval,
		IdleWindow:   net.IdleWindow,
	}
}

// Click scrolls the element into view, waits for visibility, and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Clicking element.", zap.String("selector", selector))

	tasks := chromedp.Tasks{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	}
	if s.typist != nil {
		tasks = append(tasks, s.typist.CognitivePause())
	}

	clickCtx, cancel := context.WithTimeout(ctx, s.cfg.Suite.StepTimeout)
	defer cancel()
	if err := s.runActions(clickCtx, tasks); err != nil {
		return fmt.Errorf("click failed for selector %q: %w", selector, err)
	}
	return nil
}

// ClickXPath is the XPath variant of Click.
func (s *Session) ClickXPath(ctx context.Context, expr string) error {
	s.logger.Debug("Clicking element.", zap.String("xpath", expr))

	tasks := chromedp.Tasks{
		chromedp.ScrollIntoView(expr, chromedp.BySearch),
		chromedp.WaitVisible(expr, chromedp.BySearch),
		chromedp.Click(expr, chromedp.BySearch),
	}

	clickCtx, cancel := context.WithTimeout(ctx, s.cfg.Suite.StepTimeout)
	defer cancel()
	if err := s.runActions(clickCtx, tasks); err != nil {
		return fmt.Errorf("click failed for xpath %q: %w", expr, err)
	}
	return nil
}

// Type enters text into the element matching the selector, with human-like
// cadence when the humanoid simulation is enabled.
func (s *Session) Type(ctx context.Context, selector, text string) error {
	s.logger.Debug("Typing into element.",
		zap.String("selector", selector), zap.Int("text_length", len(text)))

	var action chromedp.Action
	if s.typist != nil {
		action = s.typist.Type(selector, text)
	} else {
		action = chromedp.Tasks{
			chromedp.ScrollIntoView(selector, chromedp.ByQuery),
			chromedp.WaitVisible(selector, chromedp.ByQuery),
			chromedp.SendKeys(selector, text, chromedp.ByQuery),
		}
	}

	// Humanoid typing is slow; budget roughly for the text length.
	timeout := s.cfg.Suite.StepTimeout + time.Duration(len(text))*400*time.Millisecond
	if timeout > 3*time.Minute {
		timeout = 3 * time.Minute
	}
	typeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.runActions(typeCtx, action); err != nil {
		return fmt.Errorf("type failed for selector %q: %w", selector, err)
	}
	return nil
}

// Clear empties the value of an input element.
func (s *Session) Clear(ctx context.Context, selector string) error {
	return s.runActions(ctx, chromedp.Clear(selector, chromedp.ByQuery))
}

// Text returns the trimmed inner text of the first element matching selector.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var out string
	if err := s.runActions(ctx, chromedp.Text(selector, &out, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("text extraction failed for selector %q: %w", selector, err)
	}
	return out, nil
}

// Attribute returns the value of an attribute on the first matching element.
func (s *Session) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	var value string
	var ok bool
	err := s.runActions(ctx, chromedp.AttributeValue(selector, name, &value, &ok, chromedp.ByQuery))
	if err != nil {
		return "", false, fmt.Errorf("attribute read failed for selector %q: %w", selector, err)
	}
	return value, ok, nil
}

// ExecuteScript evaluates JavaScript in the page, optionally unmarshaling the
// result into res.
func (s *Session) ExecuteScript(ctx context.Context, script string, res interface{}) error {
	return s.runActions(ctx, chromedp.Evaluate(script, res))
}

// Screenshot captures a full-page PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.runActions(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return buf, nil
}

// PageSource returns the current document's outer HTML.
func (s *Session) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := s.runActions(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page source capture failed: %w", err)
	}
	return html, nil
}

// CurrentURL returns the tab's current location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := s.runActions(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("location read failed: %w", err)
	}
	return loc, nil
}

// Title returns the current document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.runActions(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("title read failed: %w", err)
	}
	return title, nil
}

// Cookies returns the cookies visible to the current tab.
func (s *Session) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(c)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("cookie read failed: %w", err)
	}
	return cookies, nil
}

// ConsoleLogs returns the console entries captured so far.
func (s *Session) ConsoleLogs() []ConsoleLog {
	if s.console == nil {
		return nil
	}
	return s.console.Entries()
}

// Visible reports whether the selector matches a visible element within the
// given timeout. It never returns an error; a timeout is simply "not visible".
func (s *Session) Visible(ctx context.Context, selector string, timeout time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := s.runActions(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	return err == nil
}

// VisibleXPath is the XPath variant of Visible.
func (s *Session) VisibleXPath(ctx context.Context, expr string, timeout time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := s.runActions(waitCtx, chromedp.WaitVisible(expr, chromedp.BySearch))
	return err == nil
}

// Close terminates the tab.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	if s.console != nil {
		s.console.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}
