// Package logger owns the process-wide slog logger. Level and format come
// from LOG_LEVEL (debug, info, warn, error) and LOG_FORMAT (json or text).
//
// Go Learning Note (log/slog):
// Since Go 1.21 the standard library ships structured logging. Messages are
// short event names and the details travel as key/value pairs, e.g.
// logger.L().Info("document_indexed", "id", id, "tokens", n). Handlers
// decide the encoding, so switching between text and JSON is a config change.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Setup builds the default logger from the environment and returns it.
func Setup() *slog.Logger {
	return SetupWith(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stderr)
}

// SetupWith builds the default logger writing to w.
func SetupWith(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	l := slog.New(h)

	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return l
}

// L returns the default logger, running Setup on first use.
func L() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		return Setup()
	}
	return l
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
