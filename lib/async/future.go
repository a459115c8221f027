package async

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Future is a one-shot result cell written by the executing task and read by
// the submitter. Once complete its value and error never change, and every
// accessor returns without blocking.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a Future that is already complete.
func Resolved[T any](value T, err error) *Future[T] {
	f := newFuture[T]()
	f.resolve(value, err)
	return f
}

func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Await blocks until the task completes and returns its result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.value, f.err
}

// AwaitContext waits for completion or until ctx is done. Abandoning the wait
// does not interrupt the task.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	if ctx == nil {
		return f.Await()
	}
	if value, ok, err := f.Poll(); ok {
		return value, err
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout waits up to timeout and returns ErrTimeout if the task has
// not completed by then.
func (f *Future[T]) AwaitWithTimeout(timeout time.Duration) (T, error) {
	if value, ok, err := f.Poll(); ok {
		return value, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero T
		return zero, timeoutError(timeout)
	}
}

// Poll reports the result without blocking. ok is false while the task is
// still pending.
func (f *Future[T]) Poll() (value T, ok bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		var zero T
		return zero, false, nil
	}
}

// IsComplete checks completion without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// WaitAll waits for every future and returns their values in order. All
// futures are awaited even when one fails; the returned error joins every
// failure.
func WaitAll[T any](futures ...*Future[T]) ([]T, error) {
	values := make([]T, len(futures))
	var failures []error
	for i, f := range futures {
		if f == nil {
			continue
		}
		v, err := f.Await()
		values[i] = v
		if err != nil {
			failures = append(failures, err)
		}
	}
	return values, errors.Join(failures...)
}
