// Package config parses command-line flags and TESTORCH_ environment
// variables into an AppConfig.
package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	apperrors "github.com/agbru/testorch/internal/errors"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "TESTORCH_"

// DefaultDrainTimeout is the default ceiling on the drain phase.
const DefaultDrainTimeout = 60 * time.Minute

// Log formats accepted by -log-format.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// AppConfig holds the resolved configuration of a testorch invocation.
type AppConfig struct {
	// SuitePath is the YAML manifest to run.
	SuitePath string
	// PoolSize is the number of workers. Zero means hardware parallelism.
	PoolSize int
	// DrainTimeout bounds the wait for in-flight tests once all were submitted.
	DrainTimeout time.Duration
	// GracePeriod is how long a forced shutdown waits for cancelled tests.
	GracePeriod time.Duration
	Verbose     bool
	Quiet       bool
	NoColor     bool
	// LogFormat is LogFormatConsole or LogFormatJSON.
	LogFormat string
	// MetricsAddr, when set, serves Prometheus metrics during the run.
	MetricsAddr string
	// ReportFile, when set, receives a JSON report of the run.
	ReportFile string
	// ShowVersion prints the version and exits.
	ShowVersion bool
}

// ParseConfig parses the command-line arguments and applies environment
// overrides for flags that were not given.
//
// Parameters:
//   - programName: The name used in usage output.
//   - args: The arguments without the program name.
//   - errorWriter: Receives usage and parse errors.
//
// Returns:
//   - AppConfig: The resolved configuration.
//   - error: flag.ErrHelp for -h, a parse error, or an apperrors.ConfigError
//     when validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	fs.Usage = func() {
		fmt.Fprintf(errorWriter, "Usage: %s [flags] -suite suite.yaml\n\nFlags:\n", programName)
		fs.PrintDefaults()
	}

	config := AppConfig{}
	fs.StringVar(&config.SuitePath, "suite", "", "Path to the YAML suite manifest.")
	fs.StringVar(&config.SuitePath, "f", "", "Path to the YAML suite manifest (shorthand).")
	fs.IntVar(&config.PoolSize, "pool-size", 0, "Number of concurrent workers (0 = hardware parallelism).")
	fs.IntVar(&config.PoolSize, "p", 0, "Number of concurrent workers (shorthand).")
	fs.DurationVar(&config.DrainTimeout, "drain-timeout", DefaultDrainTimeout, "Maximum time to wait for running tests before forcing cancellation.")
	fs.DurationVar(&config.GracePeriod, "grace-period", 0, "Time a forced shutdown waits for cancelled tests to return.")
	fs.BoolVar(&config.Verbose, "v", false, "Enable debug logging.")
	fs.BoolVar(&config.Verbose, "verbose", false, "Enable debug logging.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode: no spinner and no summary table.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode: no spinner and no summary table.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output.")
	fs.StringVar(&config.LogFormat, "log-format", LogFormatConsole, "Log format: console or json.")
	fs.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running (e.g. :9090).")
	fs.StringVar(&config.ReportFile, "report", "", "Write a JSON report of the run to this file.")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print the version and exit.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&config, fs)

	if config.SuitePath == "" && fs.NArg() == 1 {
		config.SuitePath = fs.Arg(0)
	} else if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %v", fs.Args())
	}

	if config.ShowVersion {
		return config, nil
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, err)
		return AppConfig{}, err
	}
	return ApplyAdaptiveDefaults(config), nil
}

// Validate checks the configuration for consistency.
func (c AppConfig) Validate() error {
	switch {
	case c.SuitePath == "":
		return apperrors.NewConfigError("a suite manifest is required (-suite)")
	case c.PoolSize < 0:
		return apperrors.NewConfigError("invalid pool size %d: must be >= 0", c.PoolSize)
	case c.DrainTimeout <= 0:
		return apperrors.NewConfigError("invalid drain timeout %s: must be positive", c.DrainTimeout)
	case c.GracePeriod < 0:
		return apperrors.NewConfigError("invalid grace period %s: must be >= 0", c.GracePeriod)
	case c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON:
		return apperrors.NewConfigError("invalid log format %q: must be %s or %s", c.LogFormat, LogFormatConsole, LogFormatJSON)
	case c.Verbose && c.Quiet:
		return apperrors.NewConfigError("-v and -q are mutually exclusive")
	}
	return nil
}
