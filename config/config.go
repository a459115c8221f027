// Package config centralises runtime configuration for taskbus processes.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment identifies where the process runs.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// LogSettings selects the slog handler.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PoolSettings sizes the worker pool. Zero workers means one per CPU minus
// the caller's core.
type PoolSettings struct {
	Workers int    `yaml:"workers"`
	Name    string `yaml:"name"`
}

// TelemetrySettings configures OTLP metric export.
type TelemetrySettings struct {
	Enabled        bool          `yaml:"enabled"`
	OTLPEndpoint   string        `yaml:"otlpEndpoint"`
	Insecure       bool          `yaml:"insecure"`
	ServiceName    string        `yaml:"serviceName"`
	MetricInterval time.Duration `yaml:"metricInterval"`
}

// DemoSettings drives the headless frame loop and its workloads.
type DemoSettings struct {
	Frames        int           `yaml:"frames"`
	FrameInterval time.Duration `yaml:"frameInterval"`
	HeavyJobDelay time.Duration `yaml:"heavyJobDelay"`
	Probes        int           `yaml:"probes"`
	ProbeRate     float64       `yaml:"probeRate"`
	ProbeBurst    int           `yaml:"probeBurst"`
	SensorRetries uint          `yaml:"sensorRetries"`
}

// Settings is the full configuration tree.
type Settings struct {
	Environment Environment       `yaml:"environment"`
	Log         LogSettings       `yaml:"log"`
	Pool        PoolSettings      `yaml:"pool"`
	Telemetry   TelemetrySettings `yaml:"telemetry"`
	Demo        DemoSettings      `yaml:"demo"`
}

// Default returns the built-in configuration.
func Default() Settings {
	return Settings{
		Environment: EnvDev,
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Pool: PoolSettings{
			Workers: 0,
			Name:    "jobs",
		},
		Telemetry: TelemetrySettings{
			Enabled:        false,
			OTLPEndpoint:   "",
			Insecure:       true,
			ServiceName:    "taskbus",
			MetricInterval: 10 * time.Second,
		},
		Demo: DemoSettings{
			Frames:        600,
			FrameInterval: 16 * time.Millisecond,
			HeavyJobDelay: 3 * time.Second,
			Probes:        20,
			ProbeRate:     10,
			ProbeBurst:    2,
			SensorRetries: 3,
		},
	}
}

// FromEnv returns the defaults overlaid with environment variables.
func FromEnv() Settings {
	return OverlayEnv(Default())
}

// OverlayEnv applies TASKBUS_* environment variables on top of base.
func OverlayEnv(base Settings) Settings {
	cfg := base
	if env := strings.TrimSpace(os.Getenv("TASKBUS_ENV")); env != "" {
		cfg.Environment = Environment(strings.ToLower(env))
	}
	if v := strings.TrimSpace(os.Getenv("TASKBUS_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.Workers = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("TASKBUS_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKBUS_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
		cfg.Telemetry.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv("TASKBUS_FRAMES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Demo.Frames = n
		}
	}
	return cfg
}

// Option mutates Settings when applied via Apply.
type Option func(*Settings)

// Apply applies opts to a copy of base.
func Apply(base Settings, opts ...Option) Settings {
	cfg := base
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEnvironment configures the top-level environment.
func WithEnvironment(env Environment) Option {
	return func(s *Settings) {
		if env != "" {
			s.Environment = env
		}
	}
}

// WithWorkers overrides the pool size. Negative values are ignored.
func WithWorkers(n int) Option {
	return func(s *Settings) {
		if n >= 0 {
			s.Pool.Workers = n
		}
	}
}

// WithLogLevel overrides the log level.
func WithLogLevel(level string) Option {
	level = strings.TrimSpace(level)
	return func(s *Settings) {
		if level != "" {
			s.Log.Level = level
		}
	}
}

// WithOTLPEndpoint enables metric export to endpoint.
func WithOTLPEndpoint(endpoint string) Option {
	endpoint = strings.TrimSpace(endpoint)
	return func(s *Settings) {
		if endpoint == "" {
			return
		}
		s.Telemetry.OTLPEndpoint = endpoint
		s.Telemetry.Enabled = true
	}
}

// WithFrames overrides how many frames the demo loop runs.
func WithFrames(frames int) Option {
	return func(s *Settings) {
		if frames > 0 {
			s.Demo.Frames = frames
		}
	}
}

// WithFrameInterval overrides the frame pacing.
func WithFrameInterval(interval time.Duration) Option {
	return func(s *Settings) {
		if interval > 0 {
			s.Demo.FrameInterval = interval
		}
	}
}

// WithProbes overrides how many scan probes the demo launches.
func WithProbes(probes int) Option {
	return func(s *Settings) {
		if probes >= 0 {
			s.Demo.Probes = probes
		}
	}
}

// WithHeavyJobDelay overrides how long the demo's heavy job sleeps.
func WithHeavyJobDelay(delay time.Duration) Option {
	return func(s *Settings) {
		if delay >= 0 {
			s.Demo.HeavyJobDelay = delay
		}
	}
}
