package async

import "context"

// Submit enqueues fn and returns a Future for its result without blocking.
// It fails immediately with an ErrPoolClosed match once shutdown has begun.
func Submit[T any](p *Pool, fn func(context.Context) (T, error)) (*Future[T], error) {
	if p == nil || fn == nil {
		return nil, nilTaskError()
	}
	f := newFuture[T]()
	task := func() {
		f.resolve(execute(p, fn))
	}
	if err := p.enqueue(task); err != nil {
		return nil, err
	}
	return f, nil
}

// SubmitWith binds arg to fn and submits it.
func SubmitWith[A, T any](p *Pool, arg A, fn func(context.Context, A) (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, nilTaskError()
	}
	return Submit(p, func(ctx context.Context) (T, error) {
		return fn(ctx, arg)
	})
}

// SubmitValue submits a task that cannot fail.
func SubmitValue[T any](p *Pool, fn func() T) (*Future[T], error) {
	if fn == nil {
		return nil, nilTaskError()
	}
	return Submit(p, func(context.Context) (T, error) {
		return fn(), nil
	})
}
