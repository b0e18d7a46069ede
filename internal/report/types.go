// internal/report/types.go

// Package report renders a suite run into JSON, HTML, plain-text, or JUnit
// XML output.
package report

import (
	"time"

	"github.com/veyraqa/lexprobe/internal/diagnostics"
)

// Status is the terminal state of a scenario or step.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Step is one recorded action inside a scenario.
type Step struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// ConsoleEntry mirrors a captured browser console line.
type ConsoleEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
}

// ScenarioResult is the outcome of one scenario, including every retry.
type ScenarioResult struct {
	Name        string                   `json:"name"`
	Order       int                      `json:"order"`
	Tags        []string                 `json:"tags,omitempty"`
	Status      Status                   `json:"status"`
	Attempts    int                      `json:"attempts"`
	StartedAt   time.Time                `json:"startedAt"`
	FinishedAt  time.Time                `json:"finishedAt"`
	Duration    time.Duration            `json:"duration"`
	Error       string                   `json:"error,omitempty"`
	UserID      string                   `json:"userId,omitempty"`
	Steps       []Step                   `json:"steps,omitempty"`
	Attachments []diagnostics.Attachment `json:"attachments,omitempty"`
	ConsoleLogs []ConsoleEntry           `json:"consoleLogs,omitempty"`
}

// Totals aggregates scenario outcomes.
type Totals struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// RunReport is the full record of one suite run.
type RunReport struct {
	RunID      string           `json:"runId"`
	SuiteName  string           `json:"suiteName"`
	BaseURL    string           `json:"baseUrl"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Duration   time.Duration    `json:"duration"`
	Totals     Totals           `json:"totals"`
	Scenarios  []ScenarioResult `json:"scenarios"`
}

// Recompute refreshes Totals and Duration from the scenario list.
func (r *RunReport) Recompute() {
	r.Totals = Totals{}
	for _, s := range r.Scenarios {
		r.Totals.Total++
		switch s.Status {
		case StatusPassed:
			r.Totals.Passed++
		case StatusFailed:
			r.Totals.Failed++
		case StatusSkipped:
			r.Totals.Skipped++
		}
	}
	if !r.FinishedAt.IsZero() && !r.StartedAt.IsZero() {
		r.Duration = r.FinishedAt.Sub(r.StartedAt)
	}
}

// Failed reports whether any scenario failed.
func (r *RunReport) Failed() bool {
	for _, s := range r.Scenarios {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}
