// Package logger provides the structured logger shared by all components.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey string

// RequestIDKey is the context key under which handlers store the request ID.
const RequestIDKey contextKey = "request_id"

// Logger wraps slog.Logger with a few domain helpers.
type Logger struct {
	*slog.Logger
}

// New creates a logger for env: text at debug level in development, JSON at info otherwise.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns a logger carrying the request ID found in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		return l.WithRequestID(requestID)
	}
	return l
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// Upstream logs the outcome of one outbound call.
func (l *Logger) Upstream(op string, dur time.Duration, cached bool, err error) {
	attrs := []any{
		slog.String("op", op),
		slog.Int64("dur_ms", dur.Milliseconds()),
		slog.Bool("cached", cached),
	}
	if err != nil {
		l.Warn("upstream_call", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	l.Debug("upstream_call", attrs...)
}

// Fallback logs why a lookup ended at the default data.
// A nil err means there was simply nothing to return.
func (l *Logger) Fallback(query, reason string, err error) {
	if err != nil {
		l.Warn("fallback",
			slog.String("query", query),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Info("fallback",
		slog.String("query", query),
		slog.String("reason", reason),
	)
}
