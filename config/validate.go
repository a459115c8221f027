package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/coachpo/taskbus/errs"
)

const component = "config"

// Normalise trims string fields and fills zero values from Default.
func (s Settings) Normalise() Settings {
	def := Default()
	s.Environment = Environment(strings.ToLower(strings.TrimSpace(string(s.Environment))))
	if s.Environment == "" {
		s.Environment = def.Environment
	}

	s.Log.Level = strings.ToLower(strings.TrimSpace(s.Log.Level))
	if s.Log.Level == "" {
		s.Log.Level = def.Log.Level
	}
	s.Log.Format = strings.ToLower(strings.TrimSpace(s.Log.Format))
	if s.Log.Format == "" {
		s.Log.Format = def.Log.Format
	}

	s.Pool.Name = strings.TrimSpace(s.Pool.Name)
	if s.Pool.Name == "" {
		s.Pool.Name = def.Pool.Name
	}

	s.Telemetry.OTLPEndpoint = strings.TrimSpace(s.Telemetry.OTLPEndpoint)
	s.Telemetry.ServiceName = strings.TrimSpace(s.Telemetry.ServiceName)
	if s.Telemetry.ServiceName == "" {
		s.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
	if s.Telemetry.MetricInterval <= 0 {
		s.Telemetry.MetricInterval = def.Telemetry.MetricInterval
	}

	if s.Demo.FrameInterval <= 0 {
		s.Demo.FrameInterval = def.Demo.FrameInterval
	}
	if s.Demo.ProbeRate <= 0 {
		s.Demo.ProbeRate = def.Demo.ProbeRate
	}
	if s.Demo.ProbeBurst <= 0 {
		s.Demo.ProbeBurst = def.Demo.ProbeBurst
	}
	return s
}

// Validate reports the first semantic problem in s.
func (s Settings) Validate() error {
	switch s.Environment {
	case EnvDev, EnvStaging, EnvProd:
	default:
		return invalid("environment", "must be dev|staging|prod, got %q", s.Environment)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return invalid("log.level", "unknown level %q", s.Log.Level)
	}
	if s.Log.Format != "text" && s.Log.Format != "json" {
		return invalid("log.format", "must be text|json, got %q", s.Log.Format)
	}
	if s.Pool.Workers < 0 {
		return invalid("pool.workers", "must be >=0")
	}
	if s.Telemetry.Enabled && s.Telemetry.OTLPEndpoint == "" {
		return invalid("telemetry.otlpEndpoint", "required when telemetry is enabled")
	}
	if s.Demo.Frames <= 0 {
		return invalid("demo.frames", "must be >0")
	}
	if s.Demo.FrameInterval <= 0 {
		return invalid("demo.frameInterval", "must be >0")
	}
	if s.Demo.HeavyJobDelay < 0 {
		return invalid("demo.heavyJobDelay", "must be >=0")
	}
	if s.Demo.Probes < 0 {
		return invalid("demo.probes", "must be >=0")
	}
	if s.Demo.ProbeRate <= 0 {
		return invalid("demo.probeRate", "must be >0")
	}
	return nil
}

// LogLevel returns the parsed slog level, defaulting to info.
func (s Settings) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func invalid(field, format string, args ...any) error {
	return errs.New(component, errs.CodeInvalid,
		errs.WithMessage(fmt.Sprintf(format, args...)),
		errs.WithField("field", field))
}
