// internal/pages/practicearea.go
package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// PracticeAreaPage drives the practice-area browse flow and validates its
// content listing.
type PracticeAreaPage struct {
	*Base
	baseURL string
	logger  *zap.Logger
}

var (
	practiceAreaHeadingLocators = []Locator{
		CSS("h1.practice-area-title"),
		CSS("[data-testid='practice-area-heading']"),
		CSS("main h1"),
	}

	resultListLocators = []Locator{
		CSS(".search-results"),
		CSS("#resultList"),
		CSS("[data-testid='result-list']"),
		CSS(".document-list"),
		CSS("ol.results"),
	}
)

// NewPracticeAreaPage creates the practice-area page object.
func NewPracticeAreaPage(base *Base, baseURL string, logger *zap.Logger) *PracticeAreaPage {
	return &PracticeAreaPage{Base: base, baseURL: baseURL, logger: logger.Named("practice_area_page")}
}

// Open navigates directly to a named practice area. The slug is the
// lowercased, hyphenated area name.
func (p *PracticeAreaPage) Open(ctx context.Context, area string) error {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(area), " ", "-"))
	url := strings.TrimRight(p.baseURL, "/") + "/browse/practice-area/" + slug
	if err := p.Driver().Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to open practice area %q: %w", area, err)
	}
	p.DismissCookieConsent(ctx)
	return nil
}

// OpenFromNavigation clicks the practice-area link by its visible name.
func (p *PracticeAreaPage) OpenFromNavigation(ctx context.Context, area string) error {
	locators := []Locator{
		XPath(fmt.Sprintf("//nav//a[normalize-space()='%s']", area)),
		XPath(fmt.Sprintf("//a[contains(@class,'practice-area') and contains(., '%s')]", area)),
		CSS(fmt.Sprintf("a[data-practice-area='%s']", strings.ToLower(area))),
	}
	if err := p.ClickAny(ctx, locators); err != nil {
		return fmt.Errorf("could not open practice area %q from navigation: %w", area, err)
	}
	return nil
}

// ValidateHeading asserts the page heading names the expected area.
func (p *PracticeAreaPage) ValidateHeading(ctx context.Context, area string) error {
	heading, err := p.TextOf(ctx, practiceAreaHeadingLocators)
	if err != nil {
		return fmt.Errorf("practice-area heading missing: %w", err)
	}
	if !strings.Contains(strings.ToLower(heading), strings.ToLower(area)) {
		return fmt.Errorf("heading %q does not mention practice area %q", heading, area)
	}
	return nil
}

// DocumentLinkCount captures the page source and counts document links
// inside the result listing. Parsing the captured HTML keeps the count
// stable even when the listing is mid-animation.
func (p *PracticeAreaPage) DocumentLinkCount(ctx context.Context) (int, error) {
	if _, err := p.WaitAny(ctx, resultListLocators); err != nil {
		return 0, fmt.Errorf("result listing missing: %w", err)
	}

	source, err := p.Driver().PageSource(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not capture page source: %w", err)
	}
	return CountDocumentLinks(source)
}

// ValidateHasDocuments fails unless the listing offers at least min links.
func (p *PracticeAreaPage) ValidateHasDocuments(ctx context.Context, min int) error {
	count, err := p.DocumentLinkCount(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("Practice-area document links counted.", zap.Int("count", count))
	if count < min {
		return fmt.Errorf("expected at least %d document links, found %d", min, count)
	}
	return nil
}

// resultContainerClasses mark the elements whose descendant anchors count as
// document links.
var resultContainerClasses = []string{
	"search-results", "document-list", "results",
}

// CountDocumentLinks parses rendered HTML and counts anchors with an href
// inside a recognized result container (or with id "resultList").
func CountDocumentLinks(source string) (int, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return 0, fmt.Errorf("could not parse page source: %w", err)
	}

	count := 0
	var walk func(n *html.Node, inResults bool)
	walk = func(n *html.Node, inResults bool) {
		if n.Type == html.ElementNode {
			if !inResults && isResultContainer(n) {
				inResults = true
			}
			if inResults && n.Data == "a" && hasAttr(n, "href") {
				count++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inResults)
		}
	}
	walk(doc, false)
	return count, nil
}

func isResultContainer(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			if attr.Val == "resultList" {
				return true
			}
		case "class":
			for _, class := range strings.Fields(attr.Val) {
				for _, want := range resultContainerClasses {
					if class == want {
						return true
					}
				}
			}
		case "data-testid":
			if attr.Val == "result-list" {
				return true
			}
		}
	}
	return false
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
