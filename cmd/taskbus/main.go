// Command taskbus runs the headless frame loop demo on the job system and
// event bus, then prints a JSON report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/coachpo/taskbus/config"
	"github.com/coachpo/taskbus/internal/app"
	"github.com/coachpo/taskbus/internal/observability"
)

const (
	shutdownTimeout          = 30 * time.Second
	lifecycleShutdownTimeout = 10 * time.Second
	runtimeShutdownTimeout   = 15 * time.Second
)

type options struct {
	configPath    string
	reportPath    string
	workers       int
	frames        int
	frameInterval time.Duration
	probes        int
	heavyDelay    time.Duration
}

func main() {
	ctx, cancel := newSignalContext()
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "taskbus: %v\n", err)
		os.Exit(1)
	}
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("taskbus", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultPath))
	fs.StringVar(&opts.reportPath, "report", "-", "Where to write the JSON report (- for stdout)")
	fs.IntVar(&opts.workers, "workers", -1, "Worker count override (0 picks one per CPU minus one)")
	fs.IntVar(&opts.frames, "frames", 0, "Number of frames to run")
	fs.DurationVar(&opts.frameInterval, "frame-interval", 0, "Frame pacing")
	fs.IntVar(&opts.probes, "probes", -1, "Number of planetary scan probes to launch")
	fs.DurationVar(&opts.heavyDelay, "heavy-delay", -1, "How long the heavy job sleeps")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func loadSettings(ctx context.Context, opts options) (config.Settings, error) {
	cfg, err := config.LoadOrDefault(ctx, opts.configPath)
	if err != nil {
		return config.Settings{}, fmt.Errorf("load config: %w", err)
	}
	cfg = config.Apply(config.OverlayEnv(cfg),
		config.WithWorkers(opts.workers),
		config.WithFrames(opts.frames),
		config.WithFrameInterval(opts.frameInterval),
		config.WithProbes(opts.probes),
		config.WithHeavyJobDelay(opts.heavyDelay),
	).Normalise()
	if err := cfg.Validate(); err != nil {
		return config.Settings{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Settings, w io.Writer) *observability.SlogLogger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return observability.NewSlogLogger(slog.New(handler)).With(
		observability.F("service", "taskbus"),
		observability.F("env", string(cfg.Environment)),
	)
}

func run(parent context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cfg, err := loadSettings(ctx, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, stderr)
	observability.SetLogger(logger)
	defer observability.SetLogger(nil)

	logger.Info("configuration initialised",
		observability.F("workers", cfg.Pool.Workers),
		observability.F("frames", cfg.Demo.Frames),
		observability.F("probes", cfg.Demo.Probes),
		observability.F("telemetry", cfg.Telemetry.Enabled))

	rt, err := app.New(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("initialise runtime: %w", err)
	}

	var (
		lifecycle conc.WaitGroup
		report    app.Report
		runErr    error
	)
	lifecycle.Go(func() {
		defer cancel()
		report, runErr = rt.Run(ctx)
	})

	<-ctx.Done()
	if parent.Err() != nil {
		logger.Info("shutdown signal received, initiating graceful shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	shutdownErr := performGracefulShutdown(shutdownCtx, logger, &lifecycle, rt)

	if runErr != nil {
		return errors.Join(fmt.Errorf("frame loop: %w", runErr), shutdownErr)
	}
	if err := writeReport(report, opts.reportPath, stdout); err != nil {
		return errors.Join(err, shutdownErr)
	}
	return shutdownErr
}

func performGracefulShutdown(ctx context.Context, logger observability.Logger, lifecycle *conc.WaitGroup, rt *app.Runtime) error {
	var failures []error
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		logger.Info("shutdown step started", observability.F("step", name))
		if err := fn(stepCtx); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			return
		}
		logger.Info("shutdown step completed", observability.F("step", name))
	}

	shutdownStep("waiting for frame loop", lifecycleShutdownTimeout, func(stepCtx context.Context) error {
		done := make(chan struct{})
		go func() {
			lifecycle.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-stepCtx.Done():
			return fmt.Errorf("timeout waiting for goroutines: %w", stepCtx.Err())
		}
	})
	shutdownStep("stopping runtime", runtimeShutdownTimeout, rt.Shutdown)

	return observability.AggregateErrors(logger, "graceful shutdown", failures)
}

func writeReport(report app.Report, path string, stdout io.Writer) error {
	raw, err := report.JSON()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	raw = append(raw, '\n')
	if path == "" || path == "-" {
		_, err = stdout.Write(raw)
		return err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
