// Package async provides a fixed-size worker pool with future-based results.
package async

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/taskbus/internal/observability"
	"github.com/coachpo/taskbus/internal/telemetry"
)

// Pool runs submitted tasks on a fixed set of worker goroutines consuming a
// shared FIFO queue. Shutdown drains queued work before workers exit.
type Pool struct {
	name    string
	workers int
	ctx     context.Context
	queue   *taskQueue
	logger  observability.Logger
	meter   metric.Meter
	metrics *poolMetrics

	wg       conc.WaitGroup
	waitOnce sync.Once
	done     chan struct{}

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	inFlight  atomic.Int64
}

// Stats is a point-in-time view of pool activity.
type Stats struct {
	Name      string `json:"name"`
	Workers   int    `json:"workers"`
	Queued    int    `json:"queued"`
	InFlight  int64  `json:"in_flight"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Closed    bool   `json:"closed"`
}

// NewPool starts a pool. Without WithWorkers it runs DefaultWorkers() workers.
func NewPool(opts ...Option) *Pool {
	p := new(Pool)
	p.name = DefaultPoolName
	p.workers = DefaultWorkers()
	p.ctx = context.Background()
	p.logger = observability.Log()
	p.meter = otel.Meter("async")
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.queue = newTaskQueue()
	p.metrics = newPoolMetrics(p.meter, p.name)
	p.done = make(chan struct{})

	for i := 0; i < p.workers; i++ {
		id := i
		p.wg.Go(func() { p.worker(id) })
	}
	p.logger.Info("worker pool started",
		observability.F("pool", p.name),
		observability.F("workers", p.workers))
	return p
}

// Name returns the pool label.
func (p *Pool) Name() string { return p.name }

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Closed reports whether shutdown has been requested.
func (p *Pool) Closed() bool { return p.queue.isStopped() }

// Go submits fn and returns a Future carrying only its error.
func (p *Pool) Go(fn func(context.Context) error) (*Future[struct{}], error) {
	if fn == nil {
		return nil, nilTaskError()
	}
	return Submit(p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// Shutdown stops accepting tasks, lets workers drain everything already
// queued, and waits for them to exit or for ctx to expire. Workers keep
// draining in the background when ctx expires first.
func (p *Pool) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.queue.stop() {
		p.logger.Info("worker pool stopping",
			observability.F("pool", p.name),
			observability.F("queued", p.queue.len()))
	}
	p.waitOnce.Do(func() {
		go func() {
			if r := p.wg.WaitAndRecover(); r != nil {
				p.logger.Error("worker exited with panic",
					observability.F("pool", p.name),
					observability.F("panic", r.String()))
			}
			p.logger.Info("worker pool stopped", observability.F("pool", p.name))
			close(p.done)
		}()
	})
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown context: %w", ctx.Err())
	}
}

// Close stops the pool and blocks until every queued task has run.
func (p *Pool) Close() {
	_ = p.Shutdown(context.Background())
}

// Stats returns current counters. Completed never exceeds Submitted.
func (p *Pool) Stats() Stats {
	completed := p.completed.Load()
	failed := p.failed.Load()
	return Stats{
		Name:      p.name,
		Workers:   p.workers,
		Queued:    p.queue.len(),
		InFlight:  p.inFlight.Load(),
		Submitted: p.submitted.Load(),
		Completed: completed,
		Failed:    failed,
		Closed:    p.queue.isStopped(),
	}
}

// enqueue counts the task before pushing it so a worker can never report it
// completed, or dequeue it from the depth gauge, ahead of its submission.
func (p *Pool) enqueue(task func()) error {
	p.submitted.Add(1)
	p.metrics.recordQueued(1)
	if _, ok := p.queue.push(task); !ok {
		p.submitted.Add(^uint64(0))
		p.metrics.recordQueued(-1)
		p.metrics.recordSubmit(telemetry.ResultRejected)
		return closedError(p.name)
	}
	p.metrics.recordSubmit(telemetry.ResultSuccess)
	return nil
}

func (p *Pool) worker(id int) {
	p.logger.Debug("worker started", observability.F("pool", p.name), observability.F("worker", id))
	for {
		task, _, ok := p.queue.pop()
		if !ok {
			p.logger.Debug("worker stopped", observability.F("pool", p.name), observability.F("worker", id))
			return
		}
		p.metrics.recordQueued(-1)
		task()
	}
}

// execute runs fn on the calling worker, converting a panic into a task
// failure so the worker loop survives.
func execute[T any](p *Pool, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	var (
		value T
		err   error
		pc    panics.Catcher
	)
	pc.Try(func() { value, err = fn(p.ctx) })

	result := telemetry.ResultSuccess
	if r := pc.Recovered(); r != nil {
		var zero T
		value = zero
		err = panicError(p.name, r.AsError())
		result = telemetry.ResultPanic
		p.logger.Error("task panicked",
			observability.F("pool", p.name),
			observability.F("panic", fmt.Sprint(r.Value)))
	} else if err != nil {
		result = telemetry.ResultError
	}

	if result != telemetry.ResultSuccess {
		p.failed.Add(1)
	}
	p.completed.Add(1)
	p.metrics.recordDone(start, result)
	return value, err
}
