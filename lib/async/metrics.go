package async

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/taskbus/internal/telemetry"
)

type poolMetrics struct {
	pool string

	submitted metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	depth     metric.Int64UpDownCounter
	duration  metric.Float64Histogram
}

func newPoolMetrics(meter metric.Meter, pool string) *poolMetrics {
	m := &poolMetrics{pool: pool}
	m.submitted, _ = meter.Int64Counter(telemetry.MetricTasksSubmitted,
		metric.WithDescription("Number of tasks accepted or rejected by the pool"),
		metric.WithUnit("{task}"))
	m.completed, _ = meter.Int64Counter(telemetry.MetricTasksCompleted,
		metric.WithDescription("Number of tasks that finished executing"),
		metric.WithUnit("{task}"))
	m.failed, _ = meter.Int64Counter(telemetry.MetricTasksFailed,
		metric.WithDescription("Number of tasks that returned an error or panicked"),
		metric.WithUnit("{task}"))
	m.depth, _ = meter.Int64UpDownCounter(telemetry.MetricQueueDepth,
		metric.WithDescription("Number of tasks waiting in the queue"),
		metric.WithUnit("{task}"))
	m.duration, _ = meter.Float64Histogram(telemetry.MetricTaskDuration,
		metric.WithDescription("Task execution latency"),
		metric.WithUnit("ms"))
	return m
}

func (m *poolMetrics) recordSubmit(result string) {
	ctx := context.Background()
	env := telemetry.Environment()
	if m.submitted != nil {
		m.submitted.Add(ctx, 1, metric.WithAttributes(telemetry.PoolResultAttributes(env, m.pool, result)...))
	}
}

func (m *poolMetrics) recordQueued(delta int64) {
	if m.depth != nil {
		m.depth.Add(context.Background(), delta, metric.WithAttributes(telemetry.PoolAttributes(telemetry.Environment(), m.pool)...))
	}
}

func (m *poolMetrics) recordDone(start time.Time, result string) {
	ctx := context.Background()
	attrs := metric.WithAttributes(telemetry.PoolResultAttributes(telemetry.Environment(), m.pool, result)...)
	if m.completed != nil {
		m.completed.Add(ctx, 1, attrs)
	}
	if result != telemetry.ResultSuccess && m.failed != nil {
		m.failed.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}
