// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.Setup("info", os.Stderr)  // level name from config
//	logging.Setup("debug", os.Stderr) // verbose API tracing
//
// Recognised levels: debug, info, warn, error (default: info).
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Setup installs a tint handler at the named level as the slog default and
// returns the logger.
func Setup(level string, w io.Writer) *slog.Logger {
	logger := New(level, w)
	slog.SetDefault(logger)
	return logger
}

// New builds a tint logger without touching the default.
func New(level string, w io.Writer) *slog.Logger {
	return slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      ParseLevel(level),
			TimeFormat: time.Kitchen,
			AddSource:  ParseLevel(level) == slog.LevelDebug,
			NoColor:    !isTerminal(w),
		}),
	)
}

// ParseLevel maps a level name to a slog.Level. Unknown names are INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// KnownLevel reports whether name is one of the recognised level names.
func KnownLevel(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

type fdWriter interface {
	Fd() uintptr
}

// isTerminal reports whether w is a terminal, so pipes and files get no
// color codes.
func isTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
