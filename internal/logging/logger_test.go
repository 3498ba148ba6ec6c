package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbanzy/pollingunits/internal/core"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestSetup_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "v", lines[0]["k"])
}

func TestFromContext_RequestID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, "info", "json")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithFields(ctx, "run_id", "r1").Info("queued")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-42", lines[0]["request_id"])
	assert.Equal(t, "r1", lines[0]["run_id"])
}

func TestImportObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := ImportObserver(logger)

	obs.OnProgress(core.ProgressEvent{RunID: "r1", Phase: core.PhaseSeeding})
	obs.OnProgress(core.ProgressEvent{
		RunID: "r1", Phase: core.PhaseLoadingUnits,
		Entity: core.EntityPollingUnit, ChunkIndex: 1, ChunkCount: 2, RowsWritten: 500,
	})
	obs.OnProgress(core.ProgressEvent{
		RunID: "r1", Phase: core.PhaseFailed,
		FailedPhase: core.PhaseLoadingUnits, Error: "connection reset",
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "import_phase", lines[0]["msg"])
	assert.Equal(t, "seeding", lines[0]["phase"])
	assert.Equal(t, "r1", lines[0]["run_id"])

	assert.Equal(t, "import_chunk", lines[1]["msg"])
	assert.Equal(t, "DEBUG", lines[1]["level"])
	assert.Equal(t, "polling_unit", lines[1]["entity"])
	assert.EqualValues(t, 500, lines[1]["rows_written"])

	assert.Equal(t, "import failed", lines[2]["msg"])
	assert.Equal(t, "ERROR", lines[2]["level"])
	assert.Equal(t, "loading_units", lines[2]["failed_phase"])
	assert.Equal(t, "connection reset", lines[2]["error"])
}
