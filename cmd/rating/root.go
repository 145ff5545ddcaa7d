package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/rating/pkg/cli"
	"mercator-hq/rating/pkg/config"
	"mercator-hq/rating/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile    string
	catalogDir string
	format     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "rating",
	Short: "Rating - insurance premium rating engine",
	Long: `Rating prices insurance quotes with calculator models loaded from a
catalog directory.

A pricing run resolves the calculator's inputs from a JSON document, looks
coefficients up in decision tables, executes the calculator's formula lines
and writes the results back into the document.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog", "", "override catalog directory")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "o", "text", "output format: text, json, csv")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setup loads configuration and installs the process logger before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	if _, err := cli.ParseFormat(format); err != nil {
		return err
	}

	cfg, err := config.Initialize(cfgFile, flagOverrides)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	_, err = logging.SetDefault(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	return nil
}

// flagOverrides applies persistent flags on top of the loaded config.
func flagOverrides(cfg *config.Config) {
	if catalogDir != "" {
		cfg.Catalog.Dir = catalogDir
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
}

// printResult writes result to the command's output in the selected format.
func printResult(cmd *cobra.Command, result any) error {
	f, err := cli.ParseFormat(format)
	if err != nil {
		return err
	}
	return cli.NewFormatter(f).FormatTo(cmd.OutOrStdout(), result)
}
