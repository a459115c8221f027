package async

import (
	"context"
	"runtime"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/taskbus/internal/observability"
)

// DefaultPoolName labels pools constructed without WithName.
const DefaultPoolName = "jobs"

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the worker count. Values <= 0 keep DefaultWorkers().
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithName labels the pool in logs and metrics.
func WithName(name string) Option {
	return func(p *Pool) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			p.name = trimmed
		}
	}
}

// WithLogger sets the logger used for worker lifecycle and task panics.
func WithLogger(logger observability.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMeter sets the meter used to create pool instruments.
func WithMeter(meter metric.Meter) Option {
	return func(p *Pool) {
		if meter != nil {
			p.meter = meter
		}
	}
}

// WithContext sets the base context handed to every task. Its values are
// visible to tasks; cancelling it does not stop the pool.
func WithContext(ctx context.Context) Option {
	return func(p *Pool) {
		if ctx != nil {
			p.ctx = ctx
		}
	}
}

// DefaultWorkers returns one worker per logical CPU, minus one reserved for
// the caller's own loop, never less than one.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		return 1
	}
	return n
}
