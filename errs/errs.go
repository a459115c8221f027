// Package errs provides structured error types and helpers for taskbus components.
package errs

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Code identifies a failure category.
type Code string

const (
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
	// CodeUnavailable indicates the component no longer accepts work.
	CodeUnavailable Code = "unavailable"
	// CodeConflict indicates a registration that contradicts an existing one.
	CodeConflict Code = "conflict"
	// CodeTaskFailed indicates a submitted task panicked while executing.
	CodeTaskFailed Code = "task_failed"
	// CodeHandlerFailed indicates an event handler returned an error or panicked.
	CodeHandlerFailed Code = "handler_failed"
	// CodeTimeout indicates a wait expired before the result became available.
	CodeTimeout Code = "timeout"
)

// E captures structured error information produced across the taskbus stack.
type E struct {
	Component string
	Code      Code
	Message   string
	Metadata  map[string]string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the component and error code.
func New(component string, code Code, opts ...Option) *E {
	e := &E{
		Component: strings.TrimSpace(component),
		Code:      code,
		Message:   "",
		Metadata:  nil,
		cause:     nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

// WithMetadata merges the provided metadata into the error envelope.
func WithMetadata(meta map[string]string) Option {
	return func(e *E) {
		if len(meta) == 0 {
			return
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]string, len(meta))
		}
		for k, v := range meta {
			key := strings.TrimSpace(k)
			if key == "" {
				continue
			}
			e.Metadata[key] = strings.TrimSpace(v)
		}
	}
}

// WithField appends a single metadata key/value pair.
func WithField(key, value string) Option {
	return func(e *E) {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]string, 1)
		}
		e.Metadata[trimmedKey] = strings.TrimSpace(value)
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	component := strings.TrimSpace(e.Component)
	if component == "" {
		component = "unknown"
	}
	parts = append(parts, "component="+component)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+strconv.Quote(e.Metadata[k]))
		}
		parts = append(parts, "meta="+strings.Join(pairs, ","))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// Is reports whether target is an envelope carrying the same code.
// A target with an empty component matches any component.
func (e *E) Is(target error) bool {
	var t *E
	if e == nil || !errors.As(target, &t) || t == nil {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Component == "" || t.Component == e.Component
}

// CodeOf extracts the code from the first envelope in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *E
	if !errors.As(err, &e) || e == nil {
		return "", false
	}
	return e.Code, true
}
