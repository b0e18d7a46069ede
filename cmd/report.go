// File: cmd/report.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/veyraqa/lexprobe/internal/config"
	"github.com/veyraqa/lexprobe/internal/observability"
	"github.com/veyraqa/lexprobe/internal/report"
	"github.com/veyraqa/lexprobe/internal/store"
)

// newReportCmd creates and configures the `report` command. It re-renders a
// saved JSON run report into another format, or lists recent runs from the
// history database.
func newReportCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var format string
	var history int

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Re-renders a saved run report or lists run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			if history > 0 {
				return printRunHistory(cmd, history, logger)
			}
			if inputPath == "" {
				return fmt.Errorf("either --input or --history is required")
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read run report %s: %w", inputPath, err)
			}
			var run report.RunReport
			if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &run); err != nil {
				return fmt.Errorf("failed to parse run report %s: %w", inputPath, err)
			}

			return writeRunReport(&run, format, outputPath, logger)
		},
	}

	reportCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to a JSON run report produced by 'lexprobe run -f json'.")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path. Defaults to stdout.")
	reportCmd.Flags().StringVarP(&format, "format", "f", "html", "Output format ('json', 'html', 'text', 'junit', 'all').")
	reportCmd.Flags().IntVar(&history, "history", 0, "List the N most recent runs from the history database instead.")

	return reportCmd
}

// printRunHistory lists recent runs from the configured database.
func printRunHistory(cmd *cobra.Command, limit int, logger *zap.Logger) error {
	ctx := cmd.Context()

	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("run history needs a database URL (LEXPROBE_DATABASE_URL)")
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

	runs, err := dbStore.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSTARTED\tDURATION\tPASSED\tFAILED\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			r.RunID,
			r.StartedAt.Format(time.RFC3339),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.Totals.Passed, r.Totals.Failed, r.Totals.Skipped)
	}
	return w.Flush()
}
