// internal/report/text.go
package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// TextReporter writes a terminal-friendly summary.
type TextReporter struct {
	writer io.WriteCloser
}

// NewTextReporter takes ownership of the writer.
func NewTextReporter(writer io.WriteCloser) *TextReporter {
	return &TextReporter{writer: writer}
}

func (r *TextReporter) Write(run *RunReport) error {
	run.Recompute()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Suite:    %s\n", run.SuiteName)
	fmt.Fprintf(&sb, "Run:      %s\n", run.RunID)
	fmt.Fprintf(&sb, "Target:   %s\n", run.BaseURL)
	fmt.Fprintf(&sb, "Started:  %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Duration: %s\n", run.Duration.Round(time.Millisecond))
	sb.WriteString(strings.Repeat("-", 64) + "\n")

	for _, s := range run.Scenarios {
		marker := "PASS"
		switch s.Status {
		case StatusFailed:
			marker = "FAIL"
		case StatusSkipped:
			marker = "SKIP"
		}
		fmt.Fprintf(&sb, "[%s] %-40s %8s", marker, s.Name, s.Duration.Round(time.Millisecond))
		if s.Attempts > 1 {
			fmt.Fprintf(&sb, "  (attempts: %d)", s.Attempts)
		}
		sb.WriteByte('\n')

		if s.Status == StatusFailed && s.Error != "" {
			fmt.Fprintf(&sb, "       %s\n", s.Error)
		}
		for _, a := range s.Attachments {
			fmt.Fprintf(&sb, "       %s: %s\n", a.Name, a.Path)
		}
	}

	sb.WriteString(strings.Repeat("-", 64) + "\n")
	fmt.Fprintf(&sb, "Total: %d  Passed: %d  Failed: %d  Skipped: %d\n",
		run.Totals.Total, run.Totals.Passed, run.Totals.Failed, run.Totals.Skipped)

	if _, err := io.WriteString(r.writer, sb.String()); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	return nil
}

func (r *TextReporter) Close() error {
	return r.writer.Close()
}
