// Package logging provides structured logging for the Courier kernel.
// It wraps Go's log/slog package and adds the envelope traffic tracer
// used by the debug CLI flag.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log levels accepted by ParseLevel.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// ParseLevel converts a string log level to slog.Level. Defaults to
// INFO when the string is not recognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn, "WARNING":
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options configures logger construction.
type Options struct {
	// Level is the minimum level to emit ("DEBUG".."ERROR").
	Level string

	// JSON switches from text to JSON output.
	JSON bool

	// Writer receives the log stream. Defaults to stderr.
	Writer io.Writer
}

// New creates a logger for the given options.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	return slog.New(h)
}

// ForPlugin returns a child logger tagged with a plugin's identity.
// Plugin log calls arrive through the host API and carry no other
// provenance.
func ForPlugin(l *slog.Logger, name, instance string) *slog.Logger {
	return l.With("plugin", name, "instance", instance)
}
