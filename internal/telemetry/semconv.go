package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic convention attribute keys for taskbus telemetry.
// Following OpenTelemetry naming conventions: namespace.attribute_name

const (
	// AttrEnvironment specifies the deployment environment (dev/staging/prod) for every metric.
	AttrEnvironment = attribute.Key("environment")
	// AttrPoolName labels worker pool metrics by logical pool.
	AttrPoolName = attribute.Key("pool.name")
	// AttrEventType annotates bus metrics with the event type tag.
	AttrEventType = attribute.Key("event.type")
	// AttrResult records the outcome of an operation (success, error class, etc.).
	AttrResult = attribute.Key("result")
	// AttrErrorType categorizes failures by error code.
	AttrErrorType = attribute.Key("error.type")
)

// Instrument names.
const (
	MetricTasksSubmitted   = "async.tasks.submitted"
	MetricTasksCompleted   = "async.tasks.completed"
	MetricTasksFailed      = "async.tasks.failed"
	MetricQueueDepth       = "async.queue.depth"
	MetricTaskDuration     = "async.task.duration"
	MetricEventsPublished  = "eventbus.events.published"
	MetricDispatchDuration = "eventbus.dispatch.duration"
	MetricHandlerErrors    = "eventbus.handler.errors"
	MetricSubscribers      = "eventbus.subscribers"
)

// Result values.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultPanic    = "panic"
	ResultRejected = "rejected"
)

// PoolAttributes returns common attributes for worker pool metrics.
func PoolAttributes(environment, poolName string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEnvironment.String(environment),
		AttrPoolName.String(poolName),
	}
}

// PoolResultAttributes returns pool attributes with a result classification.
func PoolResultAttributes(environment, poolName, result string) []attribute.KeyValue {
	return append(PoolAttributes(environment, poolName), AttrResult.String(result))
}

// EventAttributes returns common attributes for event bus metrics.
func EventAttributes(environment, eventType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEnvironment.String(environment),
		AttrEventType.String(eventType),
	}
}

// ErrorAttributes returns attributes for error metrics.
func ErrorAttributes(environment, eventType, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEnvironment.String(environment),
		AttrEventType.String(eventType),
		AttrErrorType.String(errorType),
	}
}
