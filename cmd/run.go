// -- cmd/run.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/veyraqa/lexprobe/internal/browser"
	"github.com/veyraqa/lexprobe/internal/config"
	"github.com/veyraqa/lexprobe/internal/diagnostics"
	"github.com/veyraqa/lexprobe/internal/network"
	"github.com/veyraqa/lexprobe/internal/observability"
	"github.com/veyraqa/lexprobe/internal/report"
	"github.com/veyraqa/lexprobe/internal/store"
	"github.com/veyraqa/lexprobe/internal/suite"
	"github.com/veyraqa/lexprobe/internal/users"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the end-to-end suite against the portal",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line values override
			// the config file and environment.
			if err := viper.BindPFlag("suite.base_url", cmd.Flags().Lookup("base-url")); err != nil {
				return err
			}
			if err := viper.BindPFlag("suite.retries", cmd.Flags().Lookup("retries")); err != nil {
				return err
			}
			if err := viper.BindPFlag("suite.stop_on_failure", cmd.Flags().Lookup("stop-on-failure")); err != nil {
				return err
			}
			if err := viper.BindPFlag("suite.tags", cmd.Flags().Lookup("tags")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			// --headed is a convenience inverse of --headless.
			if headed, _ := cmd.Flags().GetBool("headed"); headed {
				viper.Set("browser.headless", false)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			if cfg.Suite.BaseURL == "" {
				return fmt.Errorf("no portal base URL configured (set suite.base_url or --base-url)")
			}

			outputPath := viper.GetString("output")
			format := viper.GetString("format")

			logger.Info("Starting suite run",
				zap.String("base_url", cfg.Suite.BaseURL),
				zap.Bool("headless", cfg.Browser.Headless),
				zap.Strings("tags", cfg.Suite.Tags),
			)

			run, err := executeSuite(ctx, cfg, logger)
			if run != nil {
				if reportErr := writeRunReport(run, format, outputPath, logger); reportErr != nil && err == nil {
					err = reportErr
				}
				if dbErr := persistRun(ctx, cfg, run, logger); dbErr != nil && err == nil {
					err = dbErr
				}
			}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return fmt.Errorf("suite aborted by user signal")
				}
				return err
			}

			if run.Failed() {
				return fmt.Errorf("%d of %d scenarios failed", run.Totals.Failed, run.Totals.Total)
			}
			fmt.Printf("\nSuite passed. Run ID: %s\n", run.RunID)
			return nil
		},
	}

	runCmd.Flags().StringP("output", "o", "", "Output file path for the report. If unset, a text summary goes to stdout.")
	runCmd.Flags().StringP("format", "f", "text", "Report format ('json', 'html', 'text', 'junit', 'all').")
	runCmd.Flags().String("base-url", "", "Portal base URL. (Overrides config/env)")
	runCmd.Flags().Int("retries", 0, "Per-scenario retry count. (Overrides config/env)")
	runCmd.Flags().Bool("stop-on-failure", false, "Stop the suite at the first failed scenario.")
	runCmd.Flags().StringSlice("tags", nil, "Only run scenarios carrying one of these tags.")
	runCmd.Flags().Bool("headless", true, "Run the browser headless.")
	runCmd.Flags().Bool("headed", false, "Run the browser with a visible window (inverse of --headless).")

	return runCmd
}

// executeSuite wires the browser, user pool, and runner, then runs every
// selected scenario. A non-nil run report comes back even on error so the
// caller can still render partial results.
func executeSuite(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*report.RunReport, error) {
	httpClient, err := network.NewClient(&network.ClientConfig{IgnoreTLSErrors: cfg.Browser.IgnoreTLSErrors})
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP client: %w", err)
	}
	if err := network.Preflight(ctx, httpClient, cfg.Suite.BaseURL, logger); err != nil {
		return nil, err
	}

	inventory, err := users.Load(cfg.Users.File, cfg.Users.EnvFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load user inventory: %w", err)
	}
	pool := users.NewPool(inventory, logger)

	manager := browser.NewManager(cfg, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during browser manager shutdown", zap.Error(err))
		}
	}()

	factory := func(ctx context.Context) (suite.BrowserSession, error) {
		return manager.NewSession(ctx)
	}
	collector := diagnostics.NewCollector(cfg.Suite.ScreenshotDir, cfg.Suite.PageSourceDir, logger)

	runner := suite.NewRunner(cfg, logger, pool, collector, factory, suite.BuiltinScenarios())
	return runner.Run(ctx)
}

// writeRunReport renders the run in the requested format. Format "all"
// renders every supported format next to each other, sharing the output
// path's base name.
func writeRunReport(run *report.RunReport, format, outputPath string, logger *zap.Logger) error {
	if format == "all" {
		if outputPath == "" || outputPath == "stdout" {
			return fmt.Errorf("format 'all' needs --output to name the report files")
		}
		base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
		targets := []struct{ format, ext string }{
			{"json", ".json"},
			{"html", ".html"},
			{"text", ".txt"},
			{"junit", ".xml"},
		}
		for _, t := range targets {
			if err := writeRunReport(run, t.format, base+t.ext, logger); err != nil {
				return err
			}
		}
		return nil
	}
	reporter, err := report.New(format, outputPath)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	defer func() {
		if err := reporter.Close(); err != nil {
			logger.Error("Failed to close reporter", zap.Error(err))
		}
	}()

	if err := reporter.Write(run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if outputPath != "" && outputPath != "stdout" {
		logger.Info("Report written.", zap.String("format", format), zap.String("path", outputPath))
	}
	return nil
}

// persistRun saves the run to the history database when one is configured.
func persistRun(ctx context.Context, cfg *config.Config, run *report.RunReport, logger *zap.Logger) error {
	if !cfg.Database.Enabled {
		return nil
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("run history is enabled but no database URL is configured (LEXPROBE_DATABASE_URL)")
	}

	dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	dbStore, err := store.New(ctx, dbPool, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize run-history store: %w", err)
	}
	if err := dbStore.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := dbStore.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run history: %w", err)
	}
	logger.Info("Run history saved.", zap.String("run_id", run.RunID))
	return nil
}
