package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/rating/pkg/cli"
	"mercator-hq/rating/pkg/config"
	"mercator-hq/rating/pkg/telemetry/health"
)

var checkFlags struct {
	timeout time.Duration
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the engine can serve quotes",
	Long: `Open the engine the way price does and run readiness checks against it:
the catalog is consistent, every coefficient table is readable from the
configured store with the declared number of rows, and the metrics textfile
(when configured) is writable.

The command exits non-zero when any check fails.

Examples:
  # Check a SQLite-backed deployment
  rating check --config config.yaml

  # Machine-readable report
  rating check --format json`,
	RunE: runChecks,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkFlags.timeout, "timeout", 5*time.Second, "timeout per check")
}

func runChecks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.GetConfig()
	logger := slog.Default()

	eng, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error("Failed to close engine", "error", err)
		}
	}()

	checker := health.New(checkFlags.timeout)
	checker.Register("catalog", health.CatalogCheck(eng.store))
	checker.Register("storage", health.StorageCheck(eng.store, eng.backend, cfg.Engine.Tenant))
	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Textfile != "" {
		checker.Register("metrics", health.WritableCheck(cfg.Telemetry.Metrics.Textfile))
	}

	report := checker.Run(ctx)
	if err := printResult(cmd, checkResult(report)); err != nil {
		return err
	}
	if !report.Ready() {
		return cli.NewCommandError("check", fmt.Errorf("status %s", report.Status))
	}
	return nil
}

type checkResult health.Report

func (r checkResult) Header() []string {
	return []string{"CHECK", "STATUS", "DURATION", "MESSAGE"}
}

func (r checkResult) Rows() [][]string {
	rows := make([][]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		rows = append(rows, []string{c.Name, c.Status, c.Duration.Round(time.Microsecond).String(), c.Message})
	}
	return rows
}
