package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coachpo/taskbus/lib/async"
)

// Dispatch tracks one published event through its handlers.
type Dispatch[P Event] struct {
	ID   uuid.UUID
	Type EventType

	event  P
	future *async.Future[int]
}

// Event returns the instance shared by every handler. Fields written by
// handlers are safe to read once Done is closed.
func (d *Dispatch[P]) Event() P { return d.event }

// Wait blocks until every handler has run and returns their joined errors.
func (d *Dispatch[P]) Wait() error {
	_, err := d.future.Await()
	return err
}

// WaitContext is Wait bounded by ctx.
func (d *Dispatch[P]) WaitContext(ctx context.Context) error {
	_, err := d.future.AwaitContext(ctx)
	return err
}

// WaitTimeout is Wait bounded by timeout.
func (d *Dispatch[P]) WaitTimeout(timeout time.Duration) error {
	_, err := d.future.AwaitWithTimeout(timeout)
	return err
}

// Poll reports completion without blocking.
func (d *Dispatch[P]) Poll() (done bool, err error) {
	_, done, err = d.future.Poll()
	return done, err
}

// Done is closed when the dispatch finishes.
func (d *Dispatch[P]) Done() <-chan struct{} { return d.future.Done() }

// Handled returns how many handlers were invoked, or zero while pending.
func (d *Dispatch[P]) Handled() int {
	n, done, _ := d.future.Poll()
	if !done {
		return 0
	}
	return n
}
