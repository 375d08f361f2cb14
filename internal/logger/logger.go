// Package logger configures the process-wide slog handler.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Setup installs a text or JSON handler writing to w as the default logger
// and returns it.
func Setup(w io.Writer, level string, format string) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// Discard installs a logger that drops every record. The TUI uses it when no
// log file is configured so output never reaches the terminal.
func Discard() *slog.Logger {
	return Setup(io.Discard, "error", "text")
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
