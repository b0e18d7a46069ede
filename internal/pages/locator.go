// internal/pages/locator.go
package pages

import (
	"context"
	"fmt"
	"time"
)

// By names a locator strategy.
type By string

const (
	ByCSS   By = "css"
	ByXPath By = "xpath"
)

// Locator is one strategy for finding a UI element. Page objects hold ordered
// fallback lists of these; the portal's markup shifts between releases and a
// single selector rarely survives.
type Locator struct {
	By    By
	Value string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}

// CSS builds a CSS locator.
func CSS(value string) Locator { return Locator{By: ByCSS, Value: value} }

// XPath builds an XPath locator.
func XPath(value string) Locator { return Locator{By: ByXPath, Value: value} }

// Driver is the subset of the browser session the page objects need. The
// concrete implementation is *browser.Session; tests substitute fakes.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	ClickXPath(ctx context.Context, expr string) error
	Type(ctx context.Context, selector, text string) error
	Clear(ctx context.Context, selector string) error
	Text(ctx context.Context, selector string) (string, error)
	Visible(ctx context.Context, selector string, timeout time.Duration) bool
	VisibleXPath(ctx context.Context, expr string, timeout time.Duration) bool
	ExecuteScript(ctx context.Context, script string, res interface{}) error
	PageSource(ctx context.Context) (string, error)
}
