// Package types provides internal types shared across linker packages.
package types

import (
	"context"
	"log/slog"
	"time"
)

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-item iteration logging (tokens, references, worklist steps).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = slog.Level(-8)

// ctx is a package-level context for logging.
var ctx = context.Background()

// Logger wraps slog.Logger with nil-safe helpers.
type Logger struct {
	L *slog.Logger
}

// Enabled returns true if logging is enabled at the given level.
func (l *Logger) Enabled(level slog.Level) bool {
	return l.L != nil && l.L.Enabled(ctx, level)
}

// Log emits a log message if logging is enabled.
func (l *Logger) Log(level slog.Level, msg string, attrs ...slog.Attr) {
	if l.L != nil && l.L.Enabled(ctx, level) {
		l.L.LogAttrs(ctx, level, msg, attrs...)
	}
}

// TraceEnabled returns true if trace-level logging is enabled.
func (l *Logger) TraceEnabled() bool {
	return l.Enabled(LevelTrace)
}

// Trace emits a trace-level log.
func (l *Logger) Trace(msg string, attrs ...slog.Attr) {
	l.Log(LevelTrace, msg, attrs...)
}

// Phase logs the start of a link phase at debug level. The returned func
// logs the phase's completion with its elapsed time and the given attrs.
func (l *Logger) Phase(name string) func(attrs ...slog.Attr) {
	if !l.Enabled(slog.LevelDebug) {
		return func(...slog.Attr) {}
	}
	l.Log(slog.LevelDebug, "starting phase", slog.String("phase", name))
	start := time.Now()
	return func(attrs ...slog.Attr) {
		done := make([]slog.Attr, 0, len(attrs)+2)
		done = append(done, slog.String("phase", name), slog.Duration("elapsed", time.Since(start)))
		l.Log(slog.LevelDebug, "phase complete", append(done, attrs...)...)
	}
}

// Component returns a logger tagged with the given component name.
// A nil logger stays nil.
func Component(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("component", component))
}
