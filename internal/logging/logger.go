// Package logging provides structured logging configuration using log/slog.
//
// This package integrates with chi's RequestID middleware to propagate
// request IDs through structured log entries, and adapts import progress
// events into log records.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/agbanzy/pollingunits/internal/core"
)

// Setup configures the global slog logger based on level and format and
// returns it.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// The server logs to stdout. The CLI logs to stderr so stdout carries only
// the run summary.
func Setup(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
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

// FromContext returns a logger enriched with request context.
//
// When called with a request context that contains a chi RequestID,
// the returned logger automatically includes request_id in all log entries.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	// Chi's RequestID middleware stores the ID in context
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	runLogger := logging.WithFields(ctx, "run_id", runID, "file", name)
//	runLogger.Info("import queued")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// ImportObserver logs import progress. Phase changes are logged at info,
// chunk writes at debug, and failures at error. A nil logger uses the
// default logger.
func ImportObserver(logger *slog.Logger) core.Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return core.ObserverFunc(func(e core.ProgressEvent) {
		l := logger.With("run_id", e.RunID)

		switch {
		case e.Phase == core.PhaseFailed:
			l.Error("import failed",
				"failed_phase", e.FailedPhase,
				"error", e.Error,
				"matched", e.Matched,
				"skipped", e.Skipped,
			)
		case e.Entity != "":
			l.Debug("import_chunk",
				"phase", e.Phase,
				"entity", e.Entity,
				"chunk", e.ChunkIndex,
				"chunks", e.ChunkCount,
				"rows_written", e.RowsWritten,
			)
		case e.Phase == core.PhaseDone:
			l.Info("import_phase",
				"phase", e.Phase,
				"total_records", e.TotalRecords,
				"matched", e.Matched,
				"skipped", e.Skipped,
				"new_lgas", e.NewLGAs,
				"new_wards", e.NewWards,
			)
		default:
			l.Info("import_phase", "phase", e.Phase, "percent", e.Percent())
		}
	})
}
