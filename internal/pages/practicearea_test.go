// internal/pages/practicearea_test.go
package pages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newPracticeAreaFixture(t *testing.T) (*PracticeAreaPage, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver()
	base := newTestBase(t, drv)
	return NewPracticeAreaPage(base, "https://portal.example.com", zaptest.NewLogger(t)), drv
}

func TestPracticeAreaOpenSlugsTheName(t *testing.T) {
	page, drv := newPracticeAreaFixture(t)
	require.NoError(t, page.Open(context.Background(), "Intellectual Property"))
	assert.Equal(t,
		[]string{"https://portal.example.com/browse/practice-area/intellectual-property"},
		drv.navigated)
}

func TestValidateHeading(t *testing.T) {
	page, drv := newPracticeAreaFixture(t)
	drv.visible["main h1"] = true
	drv.texts["main h1"] = "Browse: Intellectual Property"

	require.NoError(t, page.ValidateHeading(context.Background(), "intellectual property"))

	err := page.ValidateHeading(context.Background(), "Tax Law")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not mention practice area")
}

func TestDocumentLinkCount(t *testing.T) {
	page, drv := newPracticeAreaFixture(t)
	drv.visible[".search-results"] = true
	drv.source = `<html><body>
		<nav><a href="/home">Home</a><a href="/dashboard">Dashboard</a></nav>
		<div class="search-results">
			<ol>
				<li><a href="/doc/1">Smith v. Jones</a></li>
				<li><a href="/doc/2">In re Acme Corp.</a></li>
				<li><a href="/doc/3">Doe v. Roe</a></li>
			</ol>
		</div>
		<footer><a href="/terms">Terms</a></footer>
	</body></html>`

	count, err := page.DocumentLinkCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count, "only anchors inside the result listing count")
}

func TestCountDocumentLinks(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{
			name:   "resultList id container",
			source: `<div id="resultList"><a href="/d/1">one</a><a href="/d/2">two</a></div>`,
			want:   2,
		},
		{
			name:   "data-testid container",
			source: `<section data-testid="result-list"><a href="/d/1">one</a></section>`,
			want:   1,
		},
		{
			name:   "anchors without href are skipped",
			source: `<div class="document-list"><a>placeholder</a><a href="/d/1">real</a></div>`,
			want:   1,
		},
		{
			name:   "no container means zero",
			source: `<div class="hero"><a href="/promo">promo</a></div>`,
			want:   0,
		},
		{
			name:   "empty document",
			source: ``,
			want:   0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			count, err := CountDocumentLinks(tc.source)
			require.NoError(t, err)
			assert.Equal(t, tc.want, count)
		})
	}
}
