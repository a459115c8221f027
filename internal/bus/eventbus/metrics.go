package eventbus

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/taskbus/errs"
	"github.com/coachpo/taskbus/internal/telemetry"
)

type busMetrics struct {
	published   metric.Int64Counter
	duration    metric.Float64Histogram
	errors      metric.Int64Counter
	subscribers metric.Int64UpDownCounter
}

func newBusMetrics(meter metric.Meter) *busMetrics {
	m := new(busMetrics)
	m.published, _ = meter.Int64Counter(telemetry.MetricEventsPublished,
		metric.WithDescription("Number of publish calls by event type and result"),
		metric.WithUnit("{event}"))
	m.duration, _ = meter.Float64Histogram(telemetry.MetricDispatchDuration,
		metric.WithDescription("Time spent invoking all handlers of one dispatch"),
		metric.WithUnit("ms"))
	m.errors, _ = meter.Int64Counter(telemetry.MetricHandlerErrors,
		metric.WithDescription("Number of handler errors and panics"),
		metric.WithUnit("{error}"))
	m.subscribers, _ = meter.Int64UpDownCounter(telemetry.MetricSubscribers,
		metric.WithDescription("Number of registered handlers"),
		metric.WithUnit("{handler}"))
	return m
}

func (m *busMetrics) recordPublish(tag EventType, result string) {
	if m.published == nil {
		return
	}
	attrs := append(telemetry.EventAttributes(telemetry.Environment(), string(tag)), telemetry.AttrResult.String(result))
	m.published.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

func (m *busMetrics) recordSubscribe(tag EventType) {
	if m.subscribers == nil {
		return
	}
	m.subscribers.Add(context.Background(), 1,
		metric.WithAttributes(telemetry.EventAttributes(telemetry.Environment(), string(tag))...))
}

func (m *busMetrics) recordHandlerError(tag EventType, err error) {
	if m.errors == nil {
		return
	}
	code, ok := errs.CodeOf(err)
	if !ok {
		code = errs.CodeHandlerFailed
	}
	m.errors.Add(context.Background(), 1,
		metric.WithAttributes(telemetry.ErrorAttributes(telemetry.Environment(), string(tag), string(code))...))
}

func (m *busMetrics) recordDispatch(tag EventType, start time.Time, result string) {
	if m.duration == nil {
		return
	}
	attrs := append(telemetry.EventAttributes(telemetry.Environment(), string(tag)), telemetry.AttrResult.String(result))
	m.duration.Record(context.Background(), float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(attrs...))
}
