// Package eventbus routes typed events to registered handlers on a worker pool.
package eventbus

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/taskbus/internal/observability"
	"github.com/coachpo/taskbus/internal/telemetry"
	"github.com/coachpo/taskbus/lib/async"
)

type handlerFunc func(context.Context, Event) error

type route struct {
	goType   reflect.Type
	handlers []handlerFunc
}

// Bus delivers each published event to every handler registered for its
// type. Dispatch runs as a single task on the injected pool.
type Bus struct {
	pool    *async.Pool
	logger  observability.Logger
	meter   metric.Meter
	metrics *busMetrics

	mu          sync.RWMutex
	routes      map[EventType]*route
	deadLetters *observability.DeadLetterQueue[DeadLetter]
	dlqCapacity int

	published     atomic.Uint64
	dispatched    atomic.Uint64
	handlerErrors atomic.Uint64
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger overrides the process logger.
func WithLogger(logger observability.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMeter records bus instruments on meter instead of the global provider.
func WithMeter(meter metric.Meter) Option {
	return func(b *Bus) {
		if meter != nil {
			b.meter = meter
		}
	}
}

// WithDeadLetterCapacity bounds how many failed dispatches are retained.
// Zero or less keeps every failure.
func WithDeadLetterCapacity(n int) Option {
	return func(b *Bus) { b.dlqCapacity = n }
}

// DeadLetter records a dispatch in which at least one handler failed.
type DeadLetter struct {
	DispatchID uuid.UUID `json:"dispatch_id"`
	Type       EventType `json:"type"`
	Event      string    `json:"event"`
	Handlers   int       `json:"handlers"`
	Error      string    `json:"error"`
	At         time.Time `json:"at"`
}

// Stats summarises bus activity.
type Stats struct {
	Published     uint64         `json:"published"`
	Dispatched    uint64         `json:"dispatched"`
	HandlerErrors uint64         `json:"handler_errors"`
	DeadLetters   int            `json:"dead_letters"`
	Subscribers   map[string]int `json:"subscribers"`
}

// DefaultDeadLetterCapacity is used unless WithDeadLetterCapacity is given.
const DefaultDeadLetterCapacity = 64

// New constructs a bus dispatching on pool.
func New(pool *async.Pool, opts ...Option) *Bus {
	b := &Bus{
		pool:        pool,
		logger:      observability.Log(),
		meter:       otel.Meter("eventbus"),
		routes:      make(map[EventType]*route),
		dlqCapacity: DefaultDeadLetterCapacity,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.metrics = newBusMetrics(b.meter)
	b.deadLetters = observability.NewDeadLetterQueue[DeadLetter](b.dlqCapacity)
	return b
}

// Subscribe registers h for every future publish of E. Handlers run in
// registration order and duplicates are kept.
func Subscribe[E any, P interface {
	*E
	Event
}](b *Bus, h func(context.Context, P) error) error {
	if b == nil {
		return invalidError("bus must not be nil")
	}
	if h == nil {
		return invalidError("handler must not be nil")
	}
	tag := P(new(E)).Type()
	wrapped := func(ctx context.Context, evt Event) error {
		return h(ctx, evt.(P))
	}
	return b.register(tag, reflect.TypeFor[E](), wrapped)
}

// SubscribeFunc registers a handler that cannot fail.
func SubscribeFunc[E any, P interface {
	*E
	Event
}](b *Bus, h func(context.Context, P)) error {
	if h == nil {
		return invalidError("handler must not be nil")
	}
	return Subscribe[E, P](b, func(ctx context.Context, evt P) error {
		h(ctx, evt)
		return nil
	})
}

// Publish copies evt and submits one dispatch task without blocking. The
// returned Dispatch completes once every handler has run; read fields set by
// handlers only after that.
func Publish[E any, P interface {
	*E
	Event
}](ctx context.Context, b *Bus, evt E) (*Dispatch[P], error) {
	if b == nil {
		return nil, invalidError("bus must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cell := P(&evt)
	tag := cell.Type()
	if err := b.bind(tag, reflect.TypeFor[E]()); err != nil {
		b.metrics.recordPublish(tag, telemetry.ResultRejected)
		return nil, err
	}

	d := &Dispatch[P]{ID: uuid.New(), Type: tag, event: cell}
	future, err := async.Submit(b.pool, func(context.Context) (int, error) {
		return b.dispatch(ctx, d.ID, tag, cell)
	})
	if err != nil {
		b.metrics.recordPublish(tag, telemetry.ResultRejected)
		return nil, err
	}
	d.future = future
	b.published.Add(1)
	b.metrics.recordPublish(tag, telemetry.ResultSuccess)
	return d, nil
}

// Handlers returns how many handlers are registered for tag.
func (b *Bus) Handlers(tag EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if r, ok := b.routes[tag]; ok {
		return len(r.handlers)
	}
	return 0
}

// Types lists the event types with at least one handler in lexical order.
func (b *Bus) Types() []EventType {
	b.mu.RLock()
	types := make([]EventType, 0, len(b.routes))
	for tag, r := range b.routes {
		if len(r.handlers) > 0 {
			types = append(types, tag)
		}
	}
	b.mu.RUnlock()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Stats returns current counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	subs := make(map[string]int, len(b.routes))
	for tag, r := range b.routes {
		if len(r.handlers) > 0 {
			subs[string(tag)] = len(r.handlers)
		}
	}
	b.mu.RUnlock()
	return Stats{
		Published:     b.published.Load(),
		Dispatched:    b.dispatched.Load(),
		HandlerErrors: b.handlerErrors.Load(),
		DeadLetters:   b.deadLetters.Len(),
		Subscribers:   subs,
	}
}

// DeadLetters drains the retained failed dispatches, oldest first.
func (b *Bus) DeadLetters() []DeadLetter {
	return b.deadLetters.Drain()
}

func (b *Bus) register(tag EventType, goType reflect.Type, h handlerFunc) error {
	if tag == "" {
		return invalidError("event type must not be empty")
	}
	b.mu.Lock()
	r, ok := b.routes[tag]
	if !ok {
		r = &route{goType: goType}
		b.routes[tag] = r
	} else if r.goType != goType {
		b.mu.Unlock()
		return conflictError(tag, r.goType, goType)
	}
	r.handlers = append(r.handlers, h)
	count := len(r.handlers)
	b.mu.Unlock()

	b.metrics.recordSubscribe(tag)
	b.logger.Debug("handler registered",
		observability.F("event_type", string(tag)),
		observability.F("handlers", count))
	return nil
}

// bind ties tag to goType on first use so a later Subscribe with another Go
// type is rejected before any dispatch can hand it the wrong event.
func (b *Bus) bind(tag EventType, goType reflect.Type) error {
	if tag == "" {
		return invalidError("event type must not be empty")
	}
	b.mu.RLock()
	r, ok := b.routes[tag]
	b.mu.RUnlock()
	if ok {
		if r.goType != goType {
			return conflictError(tag, r.goType, goType)
		}
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok = b.routes[tag]; !ok {
		b.routes[tag] = &route{goType: goType}
		return nil
	}
	if r.goType != goType {
		return conflictError(tag, r.goType, goType)
	}
	return nil
}

// snapshot copies the handler list so the lock is not held while handlers run.
func (b *Bus) snapshot(tag EventType) []handlerFunc {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.routes[tag]
	if !ok || len(r.handlers) == 0 {
		return nil
	}
	out := make([]handlerFunc, len(r.handlers))
	copy(out, r.handlers)
	return out
}

func (b *Bus) dispatch(ctx context.Context, id uuid.UUID, tag EventType, evt Event) (int, error) {
	start := time.Now()
	defer b.dispatched.Add(1)

	handlers := b.snapshot(tag)
	if len(handlers) == 0 {
		b.metrics.recordDispatch(tag, start, telemetry.ResultSuccess)
		return 0, nil
	}

	var failures []error
	for i, h := range handlers {
		if err := b.invoke(ctx, tag, i, h, evt); err != nil {
			failures = append(failures, err)
		}
	}

	err := observability.AggregateErrors(b.logger, "dispatch "+string(tag), failures,
		observability.F("dispatch_id", id.String()),
		observability.F("event", Describe(evt)))
	result := telemetry.ResultSuccess
	if err != nil {
		result = telemetry.ResultError
		b.deadLetters.Offer(DeadLetter{
			DispatchID: id,
			Type:       tag,
			Event:      Describe(evt),
			Handlers:   len(handlers),
			Error:      err.Error(),
			At:         time.Now(),
		})
	}
	b.metrics.recordDispatch(tag, start, result)
	return len(handlers), err
}

func (b *Bus) invoke(ctx context.Context, tag EventType, index int, h handlerFunc, evt Event) error {
	var (
		err error
		pc  panics.Catcher
	)
	pc.Try(func() { err = h(ctx, evt) })
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}
	if err == nil {
		return nil
	}
	wrapped := handlerError(tag, index, err)
	b.handlerErrors.Add(1)
	b.metrics.recordHandlerError(tag, wrapped)
	return wrapped
}
