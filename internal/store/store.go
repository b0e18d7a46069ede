// Package store persists run history to PostgreSQL. Persistence is
// optional; the suite runs fine without a database and CI jobs that want
// trend data point LEXPROBE at one.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/veyraqa/lexprobe/internal/report"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store provides a PostgreSQL implementation of run-history persistence.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    suite_name  TEXT NOT NULL,
    base_url    TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL,
    total       INT NOT NULL,
    passed      INT NOT NULL,
    failed      INT NOT NULL,
    skipped     INT NOT NULL
);
CREATE TABLE IF NOT EXISTS scenario_results (
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    ord         INT NOT NULL,
    status      TEXT NOT NULL,
    attempts    INT NOT NULL,
    user_id     TEXT,
    error       TEXT,
    started_at  TIMESTAMPTZ,
    finished_at TIMESTAMPTZ,
    duration_ms BIGINT NOT NULL,
    PRIMARY KEY (run_id, name)
);
`

// EnsureSchema creates the run-history tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create run-history schema: %w", err)
	}
	return nil
}

// SaveRun writes the run and its scenario results in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *report.RunReport) error {
	run.Recompute()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	insertRun := `
        INSERT INTO runs (id, suite_name, base_url, started_at, finished_at, total, passed, failed, skipped)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `
	if _, err := tx.Exec(ctx, insertRun,
		run.RunID, run.SuiteName, run.BaseURL,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Totals.Total, run.Totals.Passed, run.Totals.Failed, run.Totals.Skipped,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(run.Scenarios) > 0 {
		if err := s.persistScenarios(ctx, tx, run.RunID, run.Scenarios); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) persistScenarios(ctx context.Context, tx pgx.Tx, runID string, scenarios []report.ScenarioResult) error {
	rows := make([][]interface{}, len(scenarios))
	for i, sc := range scenarios {
		rows[i] = []interface{}{
			runID, sc.Name, sc.Order,
			string(sc.Status), sc.Attempts, sc.UserID, sc.Error,
			sc.StartedAt.UTC(), sc.FinishedAt.UTC(),
			sc.Duration.Milliseconds(),
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"scenario_results"},
		[]string{"run_id", "name", "ord", "status", "attempts", "user_id", "error", "started_at", "finished_at", "duration_ms"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy scenario results: %w", err)
	}
	if int(copyCount) != len(scenarios) {
		return fmt.Errorf("mismatch in copied scenario count: expected %d, got %d", len(scenarios), copyCount)
	}
	return nil
}

// RunSummary is one row of run history.
type RunSummary struct {
	RunID      string
	SuiteName  string
	StartedAt  time.Time
	FinishedAt time.Time
	Totals     report.Totals
}

// RecentRuns returns the newest runs first, up to limit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
        SELECT id, suite_name, started_at, finished_at, total, passed, failed, skipped
        FROM runs
        ORDER BY started_at DESC
        LIMIT $1;
    `
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(
			&r.RunID, &r.SuiteName, &r.StartedAt, &r.FinishedAt,
			&r.Totals.Total, &r.Totals.Passed, &r.Totals.Failed, &r.Totals.Skipped,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// ScenarioHistory returns a scenario's outcomes across recent runs, newest
// first. Flake hunting uses this.
func (s *Store) ScenarioHistory(ctx context.Context, name string, limit int) ([]report.ScenarioResult, error) {
	query := `
        SELECT sr.name, sr.ord, sr.status, sr.attempts, sr.user_id, sr.error, sr.started_at, sr.finished_at, sr.duration_ms
        FROM scenario_results sr
        JOIN runs r ON r.id = sr.run_id
        WHERE sr.name = $1
        ORDER BY r.started_at DESC
        LIMIT $2;
    `
	rows, err := s.pool.Query(ctx, query, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario history: %w", err)
	}
	defer rows.Close()

	var out []report.ScenarioResult
	for rows.Next() {
		var sc report.ScenarioResult
		var status string
		var durationMs int64
		if err := rows.Scan(
			&sc.Name, &sc.Order, &status, &sc.Attempts, &sc.UserID, &sc.Error,
			&sc.StartedAt, &sc.FinishedAt, &durationMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scenario row: %w", err)
		}
		sc.Status = report.Status(status)
		sc.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}
