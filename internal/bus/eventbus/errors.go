package eventbus

import (
	"reflect"
	"strconv"

	"github.com/coachpo/taskbus/errs"
)

const component = "eventbus"

var (
	// ErrTypeConflict matches registrations that bind a tag to a second Go type.
	ErrTypeConflict = errs.New("", errs.CodeConflict)
	// ErrHandlerFailed matches handler errors and panics reported by a dispatch.
	ErrHandlerFailed = errs.New("", errs.CodeHandlerFailed)
)

func invalidError(message string) error {
	return errs.New(component, errs.CodeInvalid, errs.WithMessage(message))
}

func conflictError(tag EventType, bound, got reflect.Type) error {
	return errs.New(component, errs.CodeConflict,
		errs.WithMessage("event type already bound to another Go type"),
		errs.WithMetadata(map[string]string{
			"event_type": string(tag),
			"bound":      bound.String(),
			"got":        got.String(),
		}))
}

func handlerError(tag EventType, index int, cause error) error {
	return errs.New(component, errs.CodeHandlerFailed,
		errs.WithMessage("handler failed"),
		errs.WithField("event_type", string(tag)),
		errs.WithField("handler", strconv.Itoa(index)),
		errs.WithCause(cause))
}
