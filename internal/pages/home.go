// internal/pages/home.go
package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// HomePage validates the portal's landing screen after sign-in.
type HomePage struct {
	*Base
	baseURL string
	logger  *zap.Logger
}

var (
	searchBoxLocators = []Locator{
		CSS("#searchInputId"),
		CSS("input[name='query']"),
		CSS("input[type='search']"),
		CSS("[data-testid='global-search-input']"),
		CSS(".global-search input"),
	}

	primaryNavLocators = []Locator{
		CSS("nav.primary-nav"),
		CSS("#mainNavigation"),
		CSS("[data-testid='primary-navigation']"),
		CSS("header nav"),
	}

	homeHeadingLocators = []Locator{
		CSS("h1.page-title"),
		CSS("[data-testid='home-heading']"),
		CSS("main h1"),
	}
)

// NewHomePage creates the home page object.
func NewHomePage(base *Base, baseURL string, logger *zap.Logger) *HomePage {
	return &HomePage{Base: base, baseURL: baseURL, logger: logger.Named("home_page")}
}

// Open navigates to the portal root.
func (p *HomePage) Open(ctx context.Context) error {
	if err := p.Driver().Navigate(ctx, p.baseURL); err != nil {
		return fmt.Errorf("failed to open home page: %w", err)
	}
	p.DismissCookieConsent(ctx)
	return nil
}

// Validate checks the landing page's load-bearing elements: global search,
// primary navigation, and a heading.
func (p *HomePage) Validate(ctx context.Context) error {
	if _, err := p.WaitAny(ctx, searchBoxLocators); err != nil {
		return fmt.Errorf("global search box missing: %w", err)
	}
	if !p.AnyVisible(ctx, primaryNavLocators) {
		return fmt.Errorf("primary navigation missing")
	}
	if !p.AnyVisible(ctx, homeHeadingLocators) {
		p.logger.Warn("Home heading not found; continuing (non-critical).")
	}
	return nil
}

// Search types a query into the global search box and submits it.
func (p *HomePage) Search(ctx context.Context, query string) error {
	p.logger.Info("Searching.", zap.String("query", query))
	if err := p.TypeAny(ctx, searchBoxLocators, query); err != nil {
		return fmt.Errorf("could not enter search query: %w", err)
	}

	submit := []Locator{
		CSS("#searchButton"),
		CSS("button[type='submit'][aria-label*='earch']"),
		CSS("[data-testid='search-submit']"),
	}
	if err := p.ClickAny(ctx, submit); err != nil {
		return fmt.Errorf("could not submit search: %w", err)
	}
	return nil
}

// TitleContains verifies the document title mentions the given fragment.
func (p *HomePage) TitleContains(ctx context.Context, fragment string) error {
	title, err := p.Driver().Title(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(title), strings.ToLower(fragment)) {
		return fmt.Errorf("page title %q does not contain %q", title, fragment)
	}
	return nil
}
