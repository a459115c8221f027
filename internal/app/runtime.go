// Package app assembles the worker pool, event bus, and demo workloads into a
// headless frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coachpo/taskbus/config"
	"github.com/coachpo/taskbus/internal/app/scan"
	"github.com/coachpo/taskbus/internal/bus/eventbus"
	"github.com/coachpo/taskbus/internal/events"
	"github.com/coachpo/taskbus/internal/observability"
	"github.com/coachpo/taskbus/internal/telemetry"
	"github.com/coachpo/taskbus/lib/async"
)

const meterName = "github.com/coachpo/taskbus"

// Runtime owns the process-wide services. Construct it once and pass it to
// whatever needs the pool or the bus.
type Runtime struct {
	cfg    config.Settings
	logger observability.Logger

	Telemetry *telemetry.Provider
	Pool      *async.Pool
	Bus       *eventbus.Bus

	scanCfg  scan.Config
	scanner  *scan.Scanner
	launcher *scan.Launcher

	frameUpdates atomic.Int64
	closeOnce    sync.Once
	closed       chan struct{}
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger overrides the process logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithScanConfig replaces the probe simulation parameters.
func WithScanConfig(cfg scan.Config) Option {
	return func(r *Runtime) { r.scanCfg = cfg }
}

// New validates cfg and starts the pool. Call Shutdown to release it.
func New(ctx context.Context, cfg config.Settings, opts ...Option) (*Runtime, error) {
	cfg = cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runtime{
		cfg:     cfg,
		logger:  observability.Log(),
		scanCfg: scan.DefaultConfig(),
		closed:  make(chan struct{}),
	}
	r.scanCfg.SensorRetries = cfg.Demo.SensorRetries
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	tcfg := telemetry.DefaultConfig()
	tcfg.Enabled = cfg.Telemetry.Enabled
	tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	tcfg.OTLPInsecure = cfg.Telemetry.Insecure
	tcfg.MetricInterval = cfg.Telemetry.MetricInterval
	tcfg.ServiceName = cfg.Telemetry.ServiceName
	tcfg.Environment = string(cfg.Environment)
	provider, err := telemetry.NewProvider(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	r.Telemetry = provider
	meter := provider.Meter(meterName)

	r.Pool = async.NewPool(
		async.WithWorkers(cfg.Pool.Workers),
		async.WithName(cfg.Pool.Name),
		async.WithLogger(r.logger),
		async.WithMeter(meter),
		async.WithContext(ctx),
	)
	r.Bus = eventbus.New(r.Pool,
		eventbus.WithLogger(r.logger),
		eventbus.WithMeter(meter),
	)

	if err := r.subscribe(); err != nil {
		return nil, errors.Join(err, r.Shutdown(context.Background()))
	}
	r.launcher = scan.NewLauncher(r.Bus, cfg.Demo.ProbeRate, cfg.Demo.ProbeBurst)
	return r, nil
}

func (r *Runtime) subscribe() error {
	r.scanner = scan.NewScanner(r.scanCfg, scan.NewResults(), scan.WithLogger(r.logger))
	if err := r.scanner.Register(r.Bus); err != nil {
		return fmt.Errorf("register scanner: %w", err)
	}
	if err := eventbus.SubscribeFunc(r.Bus, func(context.Context, *events.AppUpdate) {
		r.frameUpdates.Add(1)
	}); err != nil {
		return fmt.Errorf("register frame handler: %w", err)
	}
	if err := eventbus.SubscribeFunc(r.Bus, func(_ context.Context, evt *events.WindowClose) {
		r.logger.Info("close requested", observability.F("event", eventbus.Describe(evt)))
		r.closeOnce.Do(func() { close(r.closed) })
	}); err != nil {
		return fmt.Errorf("register close handler: %w", err)
	}
	return nil
}

// Config returns the normalised settings.
func (r *Runtime) Config() config.Settings { return r.cfg }

// RequestClose publishes a WindowClose event. The frame loop stops once it
// has been handled.
func (r *Runtime) RequestClose(ctx context.Context) error {
	_, err := eventbus.Publish(ctx, r.Bus, events.WindowClose{})
	return err
}

// Shutdown drains the pool, then flushes telemetry.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	if r.Pool != nil {
		if err := r.Pool.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pool: %w", err))
		}
	}
	if err := r.Telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return observability.AggregateErrors(r.logger, "runtime shutdown", errs)
}
