// Package runtime holds the small pieces every service main needs: logger,
// signal-aware root context and the health/readiness mux.
package runtime

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the service-wide structured JSON logger. Level comes
// from LOG_LEVEL (debug|info|warn|error), defaulting to info.
func NewLogger(service string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}
