package logging

// file: internal/logging/slog_logger.go

import (
	"context"
	"log/slog"
	"os"
)

// SlogLogger adapts the standard library's structured logger to Logger.
type SlogLogger struct {
	handle *slog.Logger
	ctx    context.Context
}

// NewSlogLogger builds a SlogLogger writing JSON records at or above level to stderr.
func NewSlogLogger(level slog.Level) *SlogLogger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &SlogLogger{handle: slog.New(handler), ctx: context.Background()}
}

// Debug logs at debug level.
func (l *SlogLogger) Debug(msg string, args ...any) { l.handle.DebugContext(l.ctx, msg, args...) }

// Info logs at info level.
func (l *SlogLogger) Info(msg string, args ...any) { l.handle.InfoContext(l.ctx, msg, args...) }

// Warn logs at warn level.
func (l *SlogLogger) Warn(msg string, args ...any) { l.handle.WarnContext(l.ctx, msg, args...) }

// Error logs at error level.
func (l *SlogLogger) Error(msg string, args ...any) { l.handle.ErrorContext(l.ctx, msg, args...) }

// WithContext returns a logger carrying ctx for subsequent calls.
func (l *SlogLogger) WithContext(ctx context.Context) Logger {
	return &SlogLogger{handle: l.handle, ctx: ctx}
}

// WithField returns a logger with key bound to value on every subsequent record.
func (l *SlogLogger) WithField(key string, value any) Logger {
	return &SlogLogger{handle: l.handle.With(key, value), ctx: l.ctx}
}
