// Package cli parses command-line flags for the framebench harness,
// mirroring the flag.FlagSet-based parsing convention and the
// code-carrying ExitError used by the load-testing tool this scheduler's
// ambient stack was adapted from.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// Config is everything the framebench harness needs after parsing.
type Config struct {
	ScenarioPath string
	WorkerAmount int
	ChunkAmount  int
	LogFormat    string
	LogLevel     string
}

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating whether the program should exit cleanly (e.g. -h was
// given), or an *ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("framebench", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
framebench - a work-stealing job graph scheduler benchmark harness.

Usage:
  framebench [options] SCENARIO_PATH

Arguments:
  SCENARIO_PATH
    Path to an HCL file with one or more "scenario" blocks.

Options:
`)
		flagSet.PrintDefaults()
	}

	workersFlag := flagSet.Int("workers", 0, "Override every scenario's worker_amount. 0 uses the scenario's own value.")
	chunksFlag := flagSet.Int("chunks", 0, "Override every scenario's chunk_amount. 0 uses the scenario's own value.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() < 1 {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &Config{
		ScenarioPath: flagSet.Arg(0),
		WorkerAmount: *workersFlag,
		ChunkAmount:  *chunksFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	}, false, nil
}
