// internal/suite/runner.go
package suite

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/veyraqa/lexprobe/internal/browser"
	"github.com/veyraqa/lexprobe/internal/config"
	"github.com/veyraqa/lexprobe/internal/diagnostics"
	"github.com/veyraqa/lexprobe/internal/report"
	"github.com/veyraqa/lexprobe/internal/retry"
	"github.com/veyraqa/lexprobe/internal/users"
)

// SessionFactory opens a fresh browser tab for one scenario attempt.
type SessionFactory func(ctx context.Context) (BrowserSession, error)

// Capturer grabs failure artifacts. *diagnostics.Collector implements it.
type Capturer interface {
	CaptureFailure(ctx context.Context, scenario string, snap diagnostics.Snapshotter) *diagnostics.Capture
}

// Runner executes scenarios sequentially. Browser state is per-scenario:
// each attempt gets a fresh tab so retries never inherit a wedged page.
type Runner struct {
	cfg        *config.Config
	logger     *zap.Logger
	pool       *users.Pool
	collector  Capturer
	newSession SessionFactory
	scenarios  []Scenario
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewRunner wires a runner. pool may be nil when no scenario needs a user;
// collector may be nil to skip failure capture.
func NewRunner(cfg *config.Config, logger *zap.Logger, pool *users.Pool, collector Capturer, factory SessionFactory, scenarios []Scenario) *Runner {
	var limiter *rate.Limiter
	if cfg.Suite.Pacing > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Suite.Pacing), 1)
	}
	return &Runner{
		cfg:        cfg,
		logger:     logger.Named("runner"),
		pool:       pool,
		collector:  collector,
		newSession: factory,
		scenarios:  scenarios,
		limiter:    limiter,
		now:        time.Now,
	}
}

// Run executes every selected scenario in order and returns the run report.
// A scenario failure does not return an error; only infrastructure-level
// problems (context cancellation) do.
func (r *Runner) Run(ctx context.Context) (*report.RunReport, error) {
	selected := r.selectScenarios()
	run := &report.RunReport{
		RunID:     uuid.NewString(),
		SuiteName: "lexprobe-e2e",
		BaseURL:   r.cfg.Suite.BaseURL,
		StartedAt: r.now().UTC(),
	}

	r.logger.Info("Suite run starting.",
		zap.String("run_id", run.RunID),
		zap.String("base_url", run.BaseURL),
		zap.Int("scenarios", len(selected)))

	stopped := false
	for _, sc := range selected {
		if stopped || ctx.Err() != nil {
			run.Scenarios = append(run.Scenarios, report.ScenarioResult{
				Name:   sc.Name,
				Order:  sc.Order,
				Tags:   sc.Tags,
				Status: report.StatusSkipped,
			})
			continue
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return run, fmt.Errorf("pacing wait interrupted: %w", err)
			}
		}

		result := r.runScenario(ctx, sc)
		run.Scenarios = append(run.Scenarios, result)

		if result.Status == report.StatusFailed && r.cfg.Suite.StopOnFailure {
			r.logger.Warn("Stopping suite on first failure.", zap.String("scenario", sc.Name))
			stopped = true
		}
	}

	run.FinishedAt = r.now().UTC()
	run.Recompute()
	r.logger.Info("Suite run finished.",
		zap.String("run_id", run.RunID),
		zap.Int("passed", run.Totals.Passed),
		zap.Int("failed", run.Totals.Failed),
		zap.Int("skipped", run.Totals.Skipped),
		zap.Duration("took", run.Duration))

	if ctx.Err() != nil {
		return run, fmt.Errorf("suite run interrupted: %w", ctx.Err())
	}
	return run, nil
}

// selectScenarios applies the tag filter and sorts by declared order.
func (r *Runner) selectScenarios() []Scenario {
	wanted := make(map[string]struct{}, len(r.cfg.Suite.Tags))
	for _, t := range r.cfg.Suite.Tags {
		wanted[t] = struct{}{}
	}

	var out []Scenario
	for _, sc := range r.scenarios {
		if len(wanted) > 0 && !hasAnyTag(sc.Tags, wanted) {
			continue
		}
		out = append(out, sc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func hasAnyTag(tags []string, wanted map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := wanted[t]; ok {
			return true
		}
	}
	return false
}

func (r *Runner) runScenario(ctx context.Context, sc Scenario) report.ScenarioResult {
	log := r.logger.With(zap.String("scenario", sc.Name))
	result := report.ScenarioResult{
		Name:      sc.Name,
		Order:     sc.Order,
		Tags:      sc.Tags,
		StartedAt: r.now().UTC(),
	}

	var user users.User
	if sc.NeedsUser {
		if r.pool == nil {
			result.Status = report.StatusFailed
			result.Error = "scenario needs a user but no pool is configured"
			result.FinishedAt = r.now().UTC()
			result.Duration = result.FinishedAt.Sub(result.StartedAt)
			return result
		}
		var err error
		user, err = r.pool.Acquire(sc.Name)
		if err != nil {
			result.Status = report.StatusFailed
			result.Error = err.Error()
			result.FinishedAt = r.now().UTC()
			result.Duration = result.FinishedAt.Sub(result.StartedAt)
			return result
		}
		result.UserID = user.ID
		defer r.pool.Release(user.ID)
	}

	retries := r.cfg.Suite.Retries
	if sc.Retries > 0 {
		retries = sc.Retries
	} else if sc.Retries < 0 {
		retries = 0
	}
	opts := retry.Options{
		MaxAttempts: retries + 1,
		BaseDelay:   r.cfg.Suite.RetryDelay,
		Exponential: true,
		OnRetry: func(attempt int, err error) {
			log.Warn("Scenario attempt failed; retrying.",
				zap.Int("attempt", attempt), zap.Error(err))
		},
	}

	var lastEnv *Env
	attempts := 0
	err := retry.Do(ctx, opts, func(ctx context.Context) error {
		attempts++
		env, attemptErr := r.runAttempt(ctx, sc, user, log)
		lastEnv = env
		return attemptErr
	})

	result.Attempts = attempts
	result.FinishedAt = r.now().UTC()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	if lastEnv != nil {
		result.Steps = lastEnv.Steps()
		result.Attachments = lastEnv.Attachments()
		if lastEnv.Session != nil {
			for _, entry := range lastEnv.Session.ConsoleLogs() {
				result.ConsoleLogs = append(result.ConsoleLogs, report.ConsoleEntry{
					Timestamp: entry.Timestamp,
					Type:      entry.Type,
					Text:      entry.Text,
				})
			}
		}
	}

	if err != nil {
		result.Status = report.StatusFailed
		result.Error = err.Error()
		log.Error("Scenario failed.", zap.Int("attempts", attempts), zap.Error(err))
	} else {
		result.Status = report.StatusPassed
		log.Info("Scenario passed.", zap.Int("attempts", attempts), zap.Duration("took", result.Duration))
	}
	return result
}

// runAttempt opens a session, runs the scenario body, and tears the session
// down. On failure it captures diagnostics before the tab closes, attaching
// them to the returned Env's step record via the caller.
func (r *Runner) runAttempt(ctx context.Context, sc Scenario, user users.User, log *zap.Logger) (*Env, error) {
	session, err := r.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}

	env := &Env{
		Session: session,
		User:    user,
		Cfg:     r.cfg,
		Logger:  log,
	}

	runErr := sc.Run(ctx, env)

	if runErr != nil && r.collector != nil {
		// Capture must still reach the browser when the failure was the run
		// context itself being canceled; the tab is alive until Close below.
		capCtx := browser.Detach(ctx)
		if capture := r.collector.CaptureFailure(capCtx, sc.Name, session); capture != nil {
			env.attachments = capture.Attachments
		}
	}

	if closeErr := session.Close(ctx); closeErr != nil {
		log.Warn("Session close failed.", zap.Error(closeErr))
	}
	return env, runErr
}
