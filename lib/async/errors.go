package async

import (
	"time"

	"github.com/coachpo/taskbus/errs"
)

const component = "lib/async"

var (
	// ErrPoolClosed matches errors returned when work is submitted after shutdown began.
	ErrPoolClosed = errs.New("", errs.CodeUnavailable, errs.WithMessage("pool closed"))
	// ErrTimeout matches errors returned by AwaitWithTimeout when the wait expires.
	ErrTimeout = errs.New("", errs.CodeTimeout, errs.WithMessage("await timed out"))
	// ErrTaskPanicked matches the error stored in a Future whose task panicked.
	ErrTaskPanicked = errs.New("", errs.CodeTaskFailed, errs.WithMessage("task panicked"))
)

func closedError(pool string) error {
	return errs.New(component, errs.CodeUnavailable,
		errs.WithMessage("pool closed"),
		errs.WithField("pool", pool))
}

func nilTaskError() error {
	return errs.New(component, errs.CodeInvalid, errs.WithMessage("task must not be nil"))
}

func timeoutError(after time.Duration) error {
	return errs.New(component, errs.CodeTimeout,
		errs.WithMessage("await timed out"),
		errs.WithField("after", after.String()))
}

func panicError(pool string, cause error) error {
	return errs.New(component, errs.CodeTaskFailed,
		errs.WithMessage("task panicked"),
		errs.WithField("pool", pool),
		errs.WithCause(cause))
}
