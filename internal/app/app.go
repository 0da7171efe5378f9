// Package app wires configuration, the suite manifest, the dispatcher and
// the presenters into the testorch command.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/testorch/internal/cli"
	"github.com/agbru/testorch/internal/config"
	apperrors "github.com/agbru/testorch/internal/errors"
	"github.com/agbru/testorch/internal/logging"
	"github.com/agbru/testorch/internal/manifest"
	"github.com/agbru/testorch/internal/metrics"
	"github.com/agbru/testorch/internal/orchestration"
	"github.com/agbru/testorch/internal/server"
	"github.com/agbru/testorch/internal/summary"
	"github.com/agbru/testorch/internal/sysmon"
	"github.com/agbru/testorch/internal/ui"
)

// serverShutdownTimeout bounds the metrics server shutdown at exit.
const serverShutdownTimeout = 5 * time.Second

// Application represents the testorch application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer

	dispatcherOpts []orchestration.Option
	buildOpts      []manifest.BuildOption
	signals        bool
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithDispatcherOptions passes extra options to the dispatcher.
func WithDispatcherOptions(opts ...orchestration.Option) AppOption {
	return func(a *Application) { a.dispatcherOpts = append(a.dispatcherOpts, opts...) }
}

// WithBuildOptions passes extra options to manifest.Build.
func WithBuildOptions(opts ...manifest.BuildOption) AppOption {
	return func(a *Application) { a.buildOpts = append(a.buildOpts, opts...) }
}

// WithoutSignals stops Run from installing SIGINT/SIGTERM handlers.
func WithoutSignals() AppOption {
	return func(a *Application) { a.signals = false }
}

// New creates a new Application instance by parsing command-line arguments.
// args[0] is the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, signals: true}
	for _, opt := range opts {
		opt(app)
	}

	programName := "testorch"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// Run loads the suite, dispatches it and reports the outcome.
//
// Returns:
//   - int: The process exit code, see ExitCodeFor.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}

	level := zerolog.InfoLevel
	if a.Config.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	ui.InitTheme(a.Config.NoColor)
	logger := a.newLogger()

	m, err := manifest.Load(a.Config.SuitePath)
	if err != nil {
		logger.Error("load manifest", err, logging.String("path", a.Config.SuitePath))
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	s := m.Build(a.buildOpts...)
	total := s.TestCount()

	if a.signals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
	}

	prom := metrics.NewPrometheus()
	if a.Config.MetricsAddr != "" {
		srv := server.New(a.Config.MetricsAddr, prom, logger)
		if err := srv.Start(); err != nil {
			logger.Error("start metrics server", err, logging.String("addr", a.Config.MetricsAddr))
			fmt.Fprintf(a.ErrWriter, "Error: metrics server: %v\n", err)
			return apperrors.ExitErrorConfig
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", logging.Err(err))
			}
		}()
	}

	sampler := sysmon.NewSampler(sysmon.DefaultInterval)
	stopSampler := sampler.Start(ctx)

	// At most one update per top-level test, so sends never block.
	progressChan := make(chan orchestration.ProgressUpdate, total)
	dispatcherOpts := append([]orchestration.Option{
		orchestration.WithRecorder(prom),
		orchestration.WithProgress(func(u orchestration.ProgressUpdate) { progressChan <- u }),
	}, a.dispatcherOpts...)
	d := orchestration.NewDispatcher(orchestration.Options{
		PoolSize:     a.Config.PoolSize,
		DrainTimeout: a.Config.DrainTimeout,
		GracePeriod:  a.Config.GracePeriod,
	}, logger, dispatcherOpts...)

	var reporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := out
	if a.Config.Quiet {
		reporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	} else {
		eff := d.Options()
		cli.PrintExecutionConfig(s.Name(), total, s.CountTestCases(), eff.PoolSize, eff.DrainTimeout, out)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go reporter.DisplayProgress(&wg, progressChan, total, progressOut)

	run, err := d.RunAll(ctx, s)
	if err != nil {
		close(progressChan)
		wg.Wait()
		stopSampler()
		logger.Error("dispatch suite", err)
		return apperrors.ExitErrorGeneric
	}
	report := run.Wait()
	close(progressChan)
	wg.Wait()
	peak := stopSampler()

	summary.Log(logger, summary.FromReport(s, report))
	if !a.Config.Quiet {
		cli.CLIReportPresenter{Verbose: a.Config.Verbose}.PresentReport(report, out)
		cli.DisplayResourceUsage(peak, out)
	}

	code := ExitCodeFor(report)
	if a.Config.ReportFile != "" {
		if err := cli.WriteReport(a.Config.ReportFile, report); err != nil {
			logger.Error("write report", err, logging.String("path", a.Config.ReportFile))
			if code == apperrors.ExitSuccess {
				code = apperrors.ExitErrorGeneric
			}
		} else {
			logger.Debug("report written", logging.String("path", a.Config.ReportFile))
		}
	}
	return code
}

// newLogger builds the process logger on ErrWriter in the configured format.
func (a *Application) newLogger() logging.Logger {
	if a.Config.LogFormat == config.LogFormatJSON {
		return logging.NewLogger(a.ErrWriter, "testorch")
	}
	return logging.NewConsoleLogger(a.ErrWriter, "testorch", !ui.ColorsEnabled())
}

// ExitCodeFor maps a sealed report to the process exit code:
// 130 when an interruption forced the pool down, 2 when the drain ceiling
// did, 1 when any test did not pass and 0 otherwise.
func ExitCodeFor(r *orchestration.Report) int {
	switch {
	case r == nil:
		return apperrors.ExitErrorGeneric
	case r.Forced() && errors.Is(r.Shutdown.Reason, apperrors.ErrInterruptedWait):
		return apperrors.ExitErrorCanceled
	case r.Forced():
		return apperrors.ExitErrorTimeout
	case !r.Successful():
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// IsConfigError reports whether err came from configuration validation.
func IsConfigError(err error) bool {
	var cfgErr apperrors.ConfigError
	return errors.As(err, &cfgErr)
}
