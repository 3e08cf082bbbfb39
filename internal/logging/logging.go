// Package logging builds the server's slog logger on top of an asynchronous
// queue so that access logs, header dumps and application messages share one
// ordered sink.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the log sink.
type Options struct {
	// Path of the log file. Empty logs to stdout.
	Path      string
	FlushEach bool
	Level     slog.Level
}

// Setup opens the sink and returns a logger writing through the queue. The
// caller must Close the queue on shutdown to drain pending entries.
func Setup(opts Options) (*slog.Logger, *QueueWriter, error) {
	var sink io.Writer = struct{ io.Writer }{os.Stdout}
	if opts.Path != "" {
		f, err := os.Create(opts.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		sink = f
	}
	q := NewQueueWriter(sink, opts.FlushEach, 0)
	return NewLogger(q, opts.Level), q, nil
}

// NewLogger creates a text logger at level writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewDiscardLogger creates a logger that discards all output.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(100)}))
}

// LevelFromString converts a string to a slog.Level.
// Supports: debug, info, warn, error (case-insensitive).
// Returns slog.LevelInfo for unrecognized strings.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
