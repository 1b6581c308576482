// Package logging provides structured logging configuration using log/slog.
//
// Each import run carries an id in its context. The id is stored under chi's
// RequestID key so the same helpers work for CLI runs and HTTP requests, and
// every entry logged through FromContext carries it as run_id.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w. Setup uses it for the global logger;
// tests use it to capture output.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
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

// WithRunID returns a context carrying a fresh run id, and the id itself.
func WithRunID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, middleware.RequestIDKey, id), id
}

// RunID returns the run id stored in ctx, or "" if there is none.
func RunID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// FromContext returns the default logger enriched with the run id in ctx.
//
// Usage:
//
//	ctx, _ := logging.WithRunID(ctx)
//	logging.FromContext(ctx).Info("import started", "file", path)
func FromContext(ctx context.Context) *slog.Logger {
	return Enrich(ctx, slog.Default())
}

// Enrich adds the run id in ctx to logger.
func Enrich(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := RunID(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	return logger
}
