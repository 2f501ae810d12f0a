// Package logging builds the slog loggers used by loom applications and tools.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vango-dev/loom/internal/config"
)

// New creates a configured application logger writing to stderr.
// It standardizes the "error" key to "err".
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level, "text")
}

// NewWithWriter creates a logger writing to w in the given format
// ("text" or "json").
func NewWithWriter(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// FromConfig creates a logger from the log section of cfg. Dev mode forces
// debug level.
func FromConfig(w io.Writer, cfg *config.Config) *slog.Logger {
	level := ParseLevel(cfg.Log.Level)
	if cfg.Dev {
		level = slog.LevelDebug
	}
	return NewWithWriter(w, level, cfg.Log.Format)
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
