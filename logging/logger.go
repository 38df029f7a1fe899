// Package logging provides a tiny abstraction over slog so the engine can
// depend on a minimal interface while callers plug in any structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"unicode/utf8"
)

// Logger is the minimal structured logging interface used across the engine.
// Args follow the slog convention of alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement Logger.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from an existing *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultLogger creates a Logger writing JSON to stdout at info level.
func NewDefaultLogger() Logger {
	return NewSlogAdapter(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// NewTextLogger creates a Logger writing human-readable lines to w at the
// given level.
func NewTextLogger(w io.Writer, level slog.Level) Logger {
	return NewSlogAdapter(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// NoOpLogger discards all log messages. Useful for tests and silent agents.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// Truncate shortens s for log output, keeping log lines bounded when tool
// arguments or model replies are large.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
