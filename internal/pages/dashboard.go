// internal/pages/dashboard.go
package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DashboardPage validates the signed-in workspace: recent documents,
// practice-area navigation and user widgets.
type DashboardPage struct {
	*Base
	baseURL string
	logger  *zap.Logger
}

var (
	dashboardContainerLocators = []Locator{
		CSS("#dashboard"),
		CSS(".dashboard-container"),
		CSS("[data-testid='dashboard']"),
		CSS("main.workspace"),
	}

	recentDocumentsLocators = []Locator{
		CSS(".recent-documents"),
		CSS("#recentDocuments"),
		CSS("[data-testid='recent-documents']"),
		CSS(".history-widget"),
	}

	practiceAreaNavLocators = []Locator{
		CSS("nav.practice-areas"),
		CSS("#practiceAreaList"),
		CSS("[data-testid='practice-area-nav']"),
		CSS(".browse-practice-areas"),
	}

	favoritesWidgetLocators = []Locator{
		CSS(".favorites-widget"),
		CSS("#favorites"),
		CSS("[data-testid='favorites']"),
	}
)

// NewDashboardPage creates the dashboard page object.
func NewDashboardPage(base *Base, baseURL string, logger *zap.Logger) *DashboardPage {
	return &DashboardPage{Base: base, baseURL: baseURL, logger: logger.Named("dashboard_page")}
}

// Open navigates to the dashboard.
func (p *DashboardPage) Open(ctx context.Context) error {
	url := strings.TrimRight(p.baseURL, "/") + "/dashboard"
	if err := p.Driver().Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to open dashboard: %w", err)
	}
	p.DismissCookieConsent(ctx)
	return nil
}

// Validate checks the dashboard's core regions. Recent documents and
// favorites are populated per-account, so only the containers are asserted.
func (p *DashboardPage) Validate(ctx context.Context) error {
	if _, err := p.WaitAny(ctx, dashboardContainerLocators); err != nil {
		return fmt.Errorf("dashboard container missing: %w", err)
	}
	if !p.AnyVisible(ctx, practiceAreaNavLocators) {
		return fmt.Errorf("practice-area navigation missing")
	}
	if !p.AnyVisible(ctx, recentDocumentsLocators) {
		p.logger.Warn("Recent-documents widget not found (non-critical for new accounts).")
	}
	if !p.AnyVisible(ctx, favoritesWidgetLocators) {
		p.logger.Debug("Favorites widget not present.")
	}
	return nil
}

// PracticeAreaLinkCount counts the navigation links offered by the
// practice-area browser.
func (p *DashboardPage) PracticeAreaLinkCount(ctx context.Context) (int, error) {
	loc, err := p.FirstVisible(ctx, practiceAreaNavLocators)
	if err != nil {
		return 0, fmt.Errorf("practice-area navigation missing: %w", err)
	}
	var count int
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, loc.Value+" a")
	if err := p.Driver().ExecuteScript(ctx, script, &count); err != nil {
		return 0, fmt.Errorf("could not count practice-area links: %w", err)
	}
	return count, nil
}
