package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/amnis/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	if v == "" {
		return fmt.Errorf("must not be empty")
	}
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("amnis", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Amnis - a streaming statement engine.

Reads statements from standard input and writes one frame per line to
standard output. Logs go to standard error.

Usage:
  amnis [options] [CONFIG_PATH...]

Arguments:
  CONFIG_PATH
    Optional .hcl file or directory of .hcl files with session settings.

Options:
`)
		flagSet.PrintDefaults()
	}

	var configPaths, channels stringList
	flagSet.Var(&configPaths, "config", "Path to a config file or directory. May be repeated.")
	flagSet.Var(&configPaths, "c", "Path to a config file or directory (shorthand).")
	flagSet.Var(&channels, "channel", "Declare an extra channel name. May be repeated.")
	defaultChannelFlag := flagSet.String("default-channel", "", "Name of the channel registered first. Defaults to \"1\".")
	queueSizeFlag := flagSet.Int("queue-size", 0, "Capacity of the output frame queue. 0 uses the configured or built-in default.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	configPaths = append(configPaths, flagSet.Args()...)
	slog.Debug("Config paths determined.", "paths", []string(configPaths))

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPaths:     configPaths,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		QueueSize:       *queueSizeFlag,
		DefaultChannel:  *defaultChannelFlag,
		Channels:        channels,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
