// Package observability defines shared logging primitives.
package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Logger captures structured logging behaviours shared across layers.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a key/value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for constructing a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

type loggerHolder struct {
	logger Logger
}

var defaultLogger atomic.Pointer[loggerHolder]

func init() {
	defaultLogger.Store(&loggerHolder{logger: noopLogger{}})
}

// SetLogger overrides the process default logger. A nil logger restores the noop logger.
func SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	defaultLogger.Store(&loggerHolder{logger: logger})
}

// Log returns the current process default logger.
func Log() Logger {
	return defaultLogger.Load().logger
}

// Or returns logger when non-nil, otherwise the process default.
func Or(logger Logger) Logger {
	if logger != nil {
		return logger
	}
	return Log()
}

// NoopLogger returns a logger that discards every entry.
func NoopLogger() Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	base *slog.Logger
}

// NewSlogLogger wraps base; a nil base uses slog.Default().
func NewSlogLogger(base *slog.Logger) *SlogLogger {
	if base == nil {
		base = slog.Default()
	}
	return &SlogLogger{base: base}
}

// With returns a logger that always attaches the supplied fields.
func (l *SlogLogger) With(fields ...Field) *SlogLogger {
	return &SlogLogger{base: l.base.With(toArgs(fields)...)}
}

func (l *SlogLogger) Debug(msg string, fields ...Field) {
	l.base.LogAttrs(context.Background(), slog.LevelDebug, msg, toAttrs(fields)...)
}

func (l *SlogLogger) Info(msg string, fields ...Field) {
	l.base.LogAttrs(context.Background(), slog.LevelInfo, msg, toAttrs(fields)...)
}

func (l *SlogLogger) Error(msg string, fields ...Field) {
	l.base.LogAttrs(context.Background(), slog.LevelError, msg, toAttrs(fields)...)
}

func toAttrs(fields []Field) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		if err, ok := f.Value.(error); ok && err != nil {
			attrs = append(attrs, slog.String(f.Key, err.Error()))
			continue
		}
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return attrs
}

func toArgs(fields []Field) []any {
	attrs := toAttrs(fields)
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return args
}
