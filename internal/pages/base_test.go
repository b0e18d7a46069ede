// internal/pages/base_test.go
package pages

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeDriver is an in-memory Driver. Visibility is keyed by the raw locator
// value; everything else records calls for assertions.
type fakeDriver struct {
	mu        sync.Mutex
	visible   map[string]bool
	texts     map[string]string
	url       string
	title     string
	source    string
	clicked   []string
	typed     map[string]string
	cleared   []string
	navigated []string

	clickErr map[string]error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		visible:  make(map[string]bool),
		texts:    make(map[string]string),
		typed:    make(map[string]string),
		clickErr: make(map[string]error),
	}
}

func (f *fakeDriver) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeDriver) CurrentURL(context.Context) (string, error) { return f.url, nil }
func (f *fakeDriver) Title(context.Context) (string, error)      { return f.title, nil }

func (f *fakeDriver) Click(_ context.Context, selector string) error {
	if err := f.clickErr[selector]; err != nil {
		return err
	}
	f.clicked = append(f.clicked, selector)
	return nil
}

func (f *fakeDriver) ClickXPath(ctx context.Context, expr string) error {
	return f.Click(ctx, expr)
}

func (f *fakeDriver) Type(_ context.Context, selector, text string) error {
	f.typed[selector] = text
	return nil
}

func (f *fakeDriver) Clear(_ context.Context, selector string) error {
	f.cleared = append(f.cleared, selector)
	return nil
}

func (f *fakeDriver) Text(_ context.Context, selector string) (string, error) {
	if text, ok := f.texts[selector]; ok {
		return text, nil
	}
	return "", errors.New("no text for selector")
}

func (f *fakeDriver) setVisible(selector string, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible[selector] = v
}

func (f *fakeDriver) Visible(_ context.Context, selector string, _ time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible[selector]
}

func (f *fakeDriver) VisibleXPath(ctx context.Context, expr string, timeout time.Duration) bool {
	return f.Visible(ctx, expr, timeout)
}

func (f *fakeDriver) ExecuteScript(context.Context, string, interface{}) error { return nil }

func (f *fakeDriver) PageSource(context.Context) (string, error) { return f.source, nil }

func newTestBase(t *testing.T, drv Driver) *Base {
	t.Helper()
	return NewBase(drv, zaptest.NewLogger(t), 500*time.Millisecond)
}

func TestFirstVisibleHonorsFallbackOrder(t *testing.T) {
	drv := newFakeDriver()
	drv.visible["#second"] = true
	drv.visible["#third"] = true

	base := newTestBase(t, drv)
	locators := []Locator{CSS("#first"), CSS("#second"), CSS("#third")}

	loc, err := base.FirstVisible(context.Background(), locators)
	require.NoError(t, err)
	assert.Equal(t, "#second", loc.Value, "the earliest visible locator should win")
}

func TestFirstVisibleExhaustionError(t *testing.T) {
	base := newTestBase(t, newFakeDriver())
	locators := []Locator{CSS("#a"), CSS("#b"), XPath("//div[@id='c']")}

	_, err := base.FirstVisible(context.Background(), locators)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after trying 3 locators")
	assert.Contains(t, err.Error(), "xpath=//div[@id='c']", "the error should name the last locator tried")
}

func TestWaitAnyReturnsOnceVisible(t *testing.T) {
	drv := newFakeDriver()
	base := newTestBase(t, drv)

	go func() {
		time.Sleep(100 * time.Millisecond)
		drv.setVisible("#late", true)
	}()

	loc, err := base.WaitAny(context.Background(), []Locator{CSS("#late")})
	require.NoError(t, err)
	assert.Equal(t, "#late", loc.Value)
}

func TestWaitAnyTimesOut(t *testing.T) {
	base := newTestBase(t, newFakeDriver())

	start := time.Now()
	_, err := base.WaitAny(context.Background(), []Locator{CSS("#never")})
	require.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 500*time.Millisecond)
}

func TestClickAnyUsesFirstVisibleLocator(t *testing.T) {
	drv := newFakeDriver()
	drv.visible["button.legacy"] = true

	base := newTestBase(t, drv)
	err := base.ClickAny(context.Background(), []Locator{CSS("button.modern"), CSS("button.legacy")})
	require.NoError(t, err)
	assert.Equal(t, []string{"button.legacy"}, drv.clicked)
}

func TestTypeAnyClearsBeforeTyping(t *testing.T) {
	drv := newFakeDriver()
	drv.visible["#field"] = true

	base := newTestBase(t, drv)
	err := base.TypeAny(context.Background(), []Locator{CSS("#field")}, "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"#field"}, drv.cleared)
	assert.Equal(t, "hello", drv.typed["#field"])
}

func TestDismissCookieConsent(t *testing.T) {
	t.Run("clicks the first visible accept button", func(t *testing.T) {
		drv := newFakeDriver()
		drv.visible["#onetrust-accept-btn-handler"] = true

		base := newTestBase(t, drv)
		assert.True(t, base.DismissCookieConsent(context.Background()))
		assert.Equal(t, []string{"#onetrust-accept-btn-handler"}, drv.clicked)
	})

	t.Run("no banner is not an error", func(t *testing.T) {
		drv := newFakeDriver()
		base := newTestBase(t, drv)
		assert.False(t, base.DismissCookieConsent(context.Background()))
		assert.Empty(t, drv.clicked)
	})

	t.Run("falls through when the click fails", func(t *testing.T) {
		drv := newFakeDriver()
		drv.visible["#onetrust-accept-btn-handler"] = true
		drv.visible["#cookie-consent-accept"] = true
		drv.clickErr["#onetrust-accept-btn-handler"] = errors.New("intercepted")

		base := newTestBase(t, drv)
		assert.True(t, base.DismissCookieConsent(context.Background()))
		assert.Equal(t, []string{"#cookie-consent-accept"}, drv.clicked)
	})
}
