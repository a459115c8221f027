// Package telemetry provides OpenTelemetry initialization and instrumentation.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	serviceName    = "taskbus"
	serviceVersion = "1.0.0"
)

// globalEnvironment stores the environment name for use in metric labels.
var globalEnvironment atomic.Value

// Config defines OpenTelemetry configuration parameters.
type Config struct {
	Enabled          bool
	OTLPEndpoint     string
	OTLPInsecure     bool
	MetricInterval   time.Duration
	ServiceName      string
	ServiceVersion   string
	ServiceNamespace string
	Environment      string
}

// DefaultConfig returns the default telemetry configuration based on environment variables.
func DefaultConfig() Config {
	svcName := os.Getenv("OTEL_SERVICE_NAME")
	if svcName == "" {
		svcName = serviceName
	}
	env := strings.TrimSpace(os.Getenv("OTEL_RESOURCE_ENVIRONMENT"))
	if env == "" {
		env = "development"
	}
	return Config{
		Enabled:          os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:     os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
		MetricInterval:   30 * time.Second,
		ServiceName:      svcName,
		ServiceVersion:   serviceVersion,
		ServiceNamespace: os.Getenv("OTEL_SERVICE_NAMESPACE"),
		Environment:      env,
	}
}

// Provider manages the OpenTelemetry meter provider (metrics only).
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	fallback      metric.MeterProvider
	config        Config
}

// NewProvider initializes a telemetry provider. A disabled config or an empty
// endpoint yields a noop provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	globalEnvironment.Store(strings.ToLower(strings.TrimSpace(cfg.Environment)))

	if !cfg.Enabled || strings.TrimSpace(cfg.OTLPEndpoint) == "" {
		return &Provider{fallback: noop.NewMeterProvider(), config: cfg}, nil
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	mp, err := newMeterProvider(ctx, res, cfg)
	if err != nil {
		return nil, fmt.Errorf("create meter provider: %w", err)
	}
	otel.SetMeterProvider(mp)
	return &Provider{meterProvider: mp, config: cfg}, nil
}

// Enabled reports whether metrics are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.meterProvider != nil
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.meterProvider == nil {
		return nil
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter: %w", err)
	}
	return nil
}

// Meter returns a meter with the given name.
func (p *Provider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p == nil {
		return otel.Meter(name, opts...)
	}
	if p.meterProvider != nil {
		return p.meterProvider.Meter(name, opts...)
	}
	return p.fallback.Meter(name, opts...)
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = serviceName
	}
	version := cfg.ServiceVersion
	if version == "" {
		version = serviceVersion
	}
	attrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(version),
		),
	}
	if cfg.ServiceNamespace != "" {
		attrs = append(attrs, resource.WithAttributes(
			semconv.ServiceNamespaceKey.String(cfg.ServiceNamespace),
		))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, resource.WithAttributes(
			attribute.String("environment", strings.ToLower(cfg.Environment)),
		))
	}
	attrs = append(attrs, resource.WithProcessRuntimeName())
	attrs = append(attrs, resource.WithProcessRuntimeVersion())
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("create telemetry resource: %w", err)
	}
	return res, nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(stripScheme(cfg.OTLPEndpoint)),
	}
	if cfg.OTLPInsecure || strings.HasPrefix(cfg.OTLPEndpoint, "http://") {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(interval),
		)),
		sdkmetric.WithView(HistogramViews()...),
	)
	return mp, nil
}

// HistogramViews configures explicit buckets for the task and dispatch latency histograms.
func HistogramViews() []sdkmetric.View {
	latency := sdkmetric.AggregationExplicitBucketHistogram{
		Boundaries: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}
	return []sdkmetric.View{
		sdkmetric.NewView(
			sdkmetric.Instrument{Name: MetricTaskDuration, Kind: sdkmetric.InstrumentKindHistogram},
			sdkmetric.Stream{Aggregation: latency},
		),
		sdkmetric.NewView(
			sdkmetric.Instrument{Name: MetricDispatchDuration, Kind: sdkmetric.InstrumentKindHistogram},
			sdkmetric.Stream{Aggregation: latency},
		),
	}
}

// stripScheme removes http:// or https:// prefix from endpoint URL.
// OTLP HTTP exporters expect just host:port, not a full URL with scheme.
func stripScheme(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return endpoint
}

// Environment returns the configured environment name for use in metric labels.
func Environment() string {
	env, _ := globalEnvironment.Load().(string)
	if env == "" {
		return "development"
	}
	return env
}
