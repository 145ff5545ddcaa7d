// Package logging builds the process logger on log/slog.
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	logger.Info("Quote priced", "run_id", runID, "calculator_id", id)
//
// Components take a *slog.Logger in their constructors and fall back to
// slog.Default(); SetDefault installs the configured logger there.
package logging
