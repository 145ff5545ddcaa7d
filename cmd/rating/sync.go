package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/rating/pkg/catalog"
	"mercator-hq/rating/pkg/cli"
	"mercator-hq/rating/pkg/config"
)

var syncFlags struct {
	watch bool
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Seed the coefficient store from the catalog",
	Long: `Load the catalog and replace the configured tenant's coefficient tables
with the catalog's tables.

With --watch (or catalog.watch in the config) the command keeps running and
reloads the catalog and tables whenever a catalog file changes. A reload that
fails validation keeps the previous catalog.

Examples:
  # One-off seeding of a SQLite store
  rating sync --config config.yaml

  # Keep the store in sync while editing the catalog
  rating sync --config config.yaml --watch`,
	RunE: syncCatalog,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVarP(&syncFlags.watch, "watch", "w", false, "reload on catalog changes until interrupted")
}

func syncCatalog(cmd *cobra.Command, args []string) error {
	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	cfg := config.GetConfig()
	logger := slog.Default()

	eng, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("sync", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error("Failed to close engine", "error", err)
		}
	}()

	current := eng.store.Current()
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d coefficient table(s) for tenant %s\n", len(current.Tables), cfg.Engine.Tenant)

	if !syncFlags.watch && !cfg.Catalog.Watch {
		return nil
	}

	watcher, err := catalog.NewWatcher(eng.store, cfg.Catalog.Debounce, logger)
	if err != nil {
		return cli.NewCommandError("sync", err)
	}
	defer watcher.Stop()

	if err := watcher.Watch(ctx); err != nil {
		return cli.NewCommandError("sync", err)
	}
	return nil
}
