/*
Package cli provides command-line helpers for the rating command.

Output Formatting:

Results print as text, JSON or CSV. Types implementing Tabular render as
aligned columns in text mode and are the only ones CSV accepts:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Errors:

ConfigError, CommandError and UsageError classify failures; ExitCode maps
them to the process exit status.

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
