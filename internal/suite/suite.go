// internal/suite/suite.go

// Package suite runs the end-to-end scenarios against the portal, one at a
// time in declared order, with per-scenario retries, pacing between
// scenarios, and failure diagnostics.
package suite

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veyraqa/lexprobe/internal/browser"
	"github.com/veyraqa/lexprobe/internal/config"
	"github.com/veyraqa/lexprobe/internal/diagnostics"
	"github.com/veyraqa/lexprobe/internal/pages"
	"github.com/veyraqa/lexprobe/internal/report"
	"github.com/veyraqa/lexprobe/internal/users"
)

// BrowserSession is the session surface scenarios drive. *browser.Session
// implements it; runner tests substitute fakes. It also satisfies
// diagnostics.Snapshotter so failure capture works on the same handle.
type BrowserSession interface {
	pages.Driver
	Screenshot(ctx context.Context) ([]byte, error)
	ConsoleLogs() []browser.ConsoleLog
	Close(ctx context.Context) error
}

// Env is everything a scenario gets to work with. Step results accumulate
// on it and land in the run report.
type Env struct {
	Session BrowserSession
	User    users.User
	Cfg     *config.Config
	Logger  *zap.Logger

	steps       []report.Step
	attachments []diagnostics.Attachment
}

// Attachments returns the artifacts captured for this attempt, if any.
func (e *Env) Attachments() []diagnostics.Attachment {
	return e.attachments
}

// Step runs one named action and records its outcome. The step's error is
// returned unchanged so scenarios can abort on it.
func (e *Env) Step(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)

	step := report.Step{
		Name:     name,
		Status:   report.StatusPassed,
		Duration: time.Since(start),
	}
	if err != nil {
		step.Status = report.StatusFailed
		step.Error = err.Error()
		e.Logger.Warn("Step failed.", zap.String("step", name), zap.Error(err))
	} else {
		e.Logger.Debug("Step passed.", zap.String("step", name), zap.Duration("took", step.Duration))
	}
	e.steps = append(e.steps, step)
	return err
}

// Steps returns the recorded steps in execution order.
func (e *Env) Steps() []report.Step {
	out := make([]report.Step, len(e.steps))
	copy(out, e.steps)
	return out
}

// Pages builds a page-object base over the scenario's session.
func (e *Env) Pages() *pages.Base {
	return pages.NewBase(e.Session, e.Logger, e.Cfg.Suite.StepTimeout)
}

// Scenario is one end-to-end flow.
type Scenario struct {
	Name  string
	Order int
	Tags  []string

	// NeedsUser checks a portal account out of the pool for the run.
	NeedsUser bool

	// Retries overrides the suite-level retry count when positive. A
	// negative value disables retries for this scenario.
	Retries int

	Run func(ctx context.Context, env *Env) error
}
