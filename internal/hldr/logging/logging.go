// Package logging provides structured logging for the detector.
//
// It is a thin layer over the standard library's log/slog: text output to a
// configurable writer (stderr by default, the Unix convention for
// diagnostics) with a service attribute on every record. Violation reports
// never go through the logger; they have their own sink.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level to emit. Defaults to slog.LevelInfo.
	Level slog.Leveler

	// Service tags every record, e.g. "hldr-detector".
	Service string

	// Output receives the log stream. Defaults to os.Stderr.
	Output io.Writer
}

// New builds a logger from cfg.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	level := cfg.Level
	if level == nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return logger
}

// Default returns an info-level stderr logger tagged "hldr-detector".
func Default() *slog.Logger {
	return New(Config{Service: "hldr-detector"})
}

// Discard returns a logger that drops everything. Used in tests and as the
// fallback when a caller passes no logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a config string ("debug", "info", "warn", "error")
// into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
