// internal/diagnostics/diagnostics.go

// Package diagnostics captures post-mortem artifacts for failed scenarios:
// a full-page screenshot, the rendered page source, and the browser console
// log, written under the run's output directory with timestamped names.
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/veyraqa/lexprobe/internal/browser"
)

// Snapshotter is the slice of the browser session the collector reads from.
type Snapshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
	PageSource(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	ConsoleLogs() []browser.ConsoleLog
}

// Attachment points at one captured artifact file.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// Capture is the result of one failure capture. Partial captures are
// normal; a crashed tab yields no screenshot but may still give a URL.
type Capture struct {
	Scenario    string       `json:"scenario"`
	Timestamp   time.Time    `json:"timestamp"`
	URL         string       `json:"url,omitempty"`
	Attachments []Attachment `json:"attachments"`
	Errors      []string     `json:"errors,omitempty"`
}

// Collector writes failure artifacts to disk.
type Collector struct {
	screenshotDir string
	pageSourceDir string
	logger        *zap.Logger
	now           func() time.Time
}

// NewCollector creates a collector writing screenshots and page sources to
// the given directories, creating them on first use.
func NewCollector(screenshotDir, pageSourceDir string, logger *zap.Logger) *Collector {
	return &Collector{
		screenshotDir: screenshotDir,
		pageSourceDir: pageSourceDir,
		logger:        logger.Named("diagnostics"),
		now:           time.Now,
	}
}

// captureTimeout bounds each individual artifact grab. A wedged tab must
// not stall suite teardown.
const captureTimeout = 15 * time.Second

// CaptureFailure grabs every artifact it can from the session. Artifact
// failures are recorded in the capture, never returned: diagnostics must
// not mask the original test failure.
func (c *Collector) CaptureFailure(ctx context.Context, scenario string, snap Snapshotter) *Capture {
	ts := c.now().UTC()
	capture := &Capture{Scenario: scenario, Timestamp: ts}
	stem := fmt.Sprintf("%s_%s", sanitizeName(scenario), ts.Format("20060102T150405.000"))

	log := c.logger.With(zap.String("scenario", scenario))
	log.Info("Capturing failure diagnostics.")

	urlCtx, cancel := context.WithTimeout(ctx, captureTimeout)
	if url, err := snap.CurrentURL(urlCtx); err == nil {
		capture.URL = url
	} else {
		capture.Errors = append(capture.Errors, fmt.Sprintf("current url: %v", err))
	}
	cancel()

	c.captureScreenshot(ctx, snap, stem, capture, log)
	c.capturePageSource(ctx, snap, stem, capture, log)
	c.captureConsoleLog(snap, stem, capture, log)

	return capture
}

func (c *Collector) captureScreenshot(ctx context.Context, snap Snapshotter, stem string, capture *Capture, log *zap.Logger) {
	shotCtx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	png, err := snap.Screenshot(shotCtx)
	if err != nil {
		capture.Errors = append(capture.Errors, fmt.Sprintf("screenshot: %v", err))
		log.Warn("Screenshot capture failed.", zap.Error(err))
		return
	}

	path := filepath.Join(c.screenshotDir, stem+".png")
	if err := c.writeFile(path, png); err != nil {
		capture.Errors = append(capture.Errors, fmt.Sprintf("screenshot write: %v", err))
		log.Warn("Screenshot write failed.", zap.Error(err))
		return
	}
	capture.Attachments = append(capture.Attachments, Attachment{Name: "screenshot", Type: "image/png", Path: path})
	log.Debug("Screenshot saved.", zap.String("path", path))
}

func (c *Collector) capturePageSource(ctx context.Context, snap Snapshotter, stem string, capture *Capture, log *zap.Logger) {
	srcCtx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	source, err := snap.PageSource(srcCtx)
	if err != nil {
		capture.Errors = append(capture.Errors, fmt.Sprintf("page source: %v", err))
		log.Warn("Page source capture failed.", zap.Error(err))
		return
	}

	path := filepath.Join(c.pageSourceDir, stem+".html")
	if err := c.writeFile(path, []byte(source)); err != nil {
		capture.Errors = append(capture.Errors, fmt.Sprintf("page source write: %v", err))
		log.Warn("Page source write failed.", zap.Error(err))
		return
	}
	capture.Attachments = append(capture.Attachments, Attachment{Name: "page_source", Type: "text/html", Path: path})
	log.Debug("Page source saved.", zap.String("path", path))
}

func (c *Collector) captureConsoleLog(snap Snapshotter, stem string, capture *Capture, log *zap.Logger) {
	entries := snap.ConsoleLogs()
	if len(entries) == 0 {
		return
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s [%s] %s\n", e.Timestamp.UTC().Format(time.RFC3339Nano), e.Type, e.Text)
	}

	path := filepath.Join(c.pageSourceDir, stem+".console.log")
	if err := c.writeFile(path, []byte(sb.String())); err != nil {
		capture.Errors = append(capture.Errors, fmt.Sprintf("console log write: %v", err))
		log.Warn("Console log write failed.", zap.Error(err))
		return
	}
	capture.Attachments = append(capture.Attachments, Attachment{Name: "console_log", Type: "text/plain", Path: path})
	log.Debug("Console log saved.", zap.String("path", path), zap.Int("entries", len(entries)))
}

func (c *Collector) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// sanitizeName folds a scenario name into a filesystem-safe stem.
func sanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "scenario"
	}
	return sb.String()
}
