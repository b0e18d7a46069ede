// internal/diagnostics/diagnostics_test.go
package diagnostics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/veyraqa/lexprobe/internal/browser"
)

type fakeSnapshotter struct {
	png       []byte
	pngErr    error
	source    string
	sourceErr error
	url       string
	urlErr    error
	console   []browser.ConsoleLog
}

func (f *fakeSnapshotter) Screenshot(context.Context) ([]byte, error) { return f.png, f.pngErr }
func (f *fakeSnapshotter) PageSource(context.Context) (string, error) {
	return f.source, f.sourceErr
}
func (f *fakeSnapshotter) CurrentURL(context.Context) (string, error) { return f.url, f.urlErr }
func (f *fakeSnapshotter) ConsoleLogs() []browser.ConsoleLog          { return f.console }

func newTestCollector(t *testing.T) (*Collector, string, string) {
	t.Helper()
	shots := filepath.Join(t.TempDir(), "screenshots")
	sources := filepath.Join(t.TempDir(), "sources")
	c := NewCollector(shots, sources, zaptest.NewLogger(t))
	c.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return c, shots, sources
}

func TestCaptureFailureFullCapture(t *testing.T) {
	c, shots, sources := newTestCollector(t)
	snap := &fakeSnapshotter{
		png:    []byte{0x89, 'P', 'N', 'G'},
		source: "<html><body>failure state</body></html>",
		url:    "https://portal.example.com/dashboard",
		console: []browser.ConsoleLog{
			{Timestamp: time.Unix(1700000000, 0), Type: "error", Text: "Uncaught TypeError"},
		},
	}

	capture := c.CaptureFailure(context.Background(), "Login Scenario", snap)
	require.NotNil(t, capture)
	assert.Empty(t, capture.Errors)
	assert.Equal(t, "https://portal.example.com/dashboard", capture.URL)
	require.Len(t, capture.Attachments, 3)

	byName := map[string]Attachment{}
	for _, a := range capture.Attachments {
		byName[a.Name] = a
	}

	shot := byName["screenshot"]
	assert.Equal(t, "image/png", shot.Type)
	assert.Equal(t, filepath.Join(shots, "Login_Scenario_20260314T092653.000.png"), shot.Path)
	data, err := os.ReadFile(shot.Path)
	require.NoError(t, err)
	assert.Equal(t, snap.png, data)

	src := byName["page_source"]
	assert.Equal(t, filepath.Join(sources, "Login_Scenario_20260314T092653.000.html"), src.Path)
	html, err := os.ReadFile(src.Path)
	require.NoError(t, err)
	assert.Equal(t, snap.source, string(html))

	console := byName["console_log"]
	logText, err := os.ReadFile(console.Path)
	require.NoError(t, err)
	assert.Contains(t, string(logText), "[error] Uncaught TypeError")
}

func TestCaptureFailurePartialCapture(t *testing.T) {
	c, _, _ := newTestCollector(t)
	snap := &fakeSnapshotter{
		pngErr: errors.New("tab crashed"),
		source: "<html></html>",
		urlErr: errors.New("no target"),
	}

	capture := c.CaptureFailure(context.Background(), "crashy", snap)
	require.NotNil(t, capture)

	// Page source still lands even though the screenshot and URL failed.
	require.Len(t, capture.Attachments, 1)
	assert.Equal(t, "page_source", capture.Attachments[0].Name)
	assert.Len(t, capture.Errors, 2)
	assert.Contains(t, capture.Errors[0], "no target")
	assert.Contains(t, capture.Errors[1], "tab crashed")
}

func TestCaptureFailureSkipsEmptyConsole(t *testing.T) {
	c, _, _ := newTestCollector(t)
	snap := &fakeSnapshotter{png: []byte{1}, source: "x"}

	capture := c.CaptureFailure(context.Background(), "quiet", snap)
	require.Len(t, capture.Attachments, 2)
	for _, a := range capture.Attachments {
		assert.NotEqual(t, "console_log", a.Name)
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Search_-_Practice_Area", sanitizeName("Search - Practice Area"))
	assert.Equal(t, "scenario", sanitizeName("   "))
	assert.Equal(t, "a_b_c", sanitizeName("a/b\\c"))
}
