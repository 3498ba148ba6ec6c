package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbanzy/pollingunits/internal/core"
)

func TestRecorder_SuccessfulRun(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	r.OnProgress(core.ProgressEvent{RunID: "r1", Phase: core.PhaseSeeding, At: start})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runInProgress))

	r.OnProgress(core.ProgressEvent{RunID: "r1", Phase: core.PhasePersistingHierarchy, Entity: core.EntityLGA, ChunkIndex: 1, ChunkCount: 1, RowsWritten: 2})
	r.OnProgress(core.ProgressEvent{RunID: "r1", Phase: core.PhaseLoadingUnits, Entity: core.EntityPollingUnit, ChunkIndex: 1, ChunkCount: 2, RowsWritten: 500})
	r.OnProgress(core.ProgressEvent{RunID: "r1", Phase: core.PhaseLoadingUnits, Entity: core.EntityPollingUnit, ChunkIndex: 2, ChunkCount: 2, RowsWritten: 730})
	r.OnProgress(core.ProgressEvent{RunID: "r1", Phase: core.PhaseDone, Skipped: 3, At: start.Add(2 * time.Second)})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.rowsWritten.WithLabelValues(core.EntityLGA)))
	assert.Equal(t, 730.0, testutil.ToFloat64(r.rowsWritten.WithLabelValues(core.EntityPollingUnit)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.rowsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseTotal.WithLabelValues(string(core.PhaseDone))))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.runInProgress))
	assert.Equal(t, 1, testutil.CollectAndCount(r.runDuration))

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.started)
	assert.Empty(t, r.written)
}

func TestRecorder_FailedRun(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.OnProgress(core.ProgressEvent{RunID: "r2", Phase: core.PhaseSeeding, At: time.Now()})
	r.OnProgress(core.ProgressEvent{RunID: "r2", Phase: core.PhaseFailed, FailedPhase: core.PhaseSeeding, Error: "boom", At: time.Now()})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.rowsSkipped))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.OnProgress(core.ProgressEvent{RunID: "r3", Phase: core.PhaseSeeding, At: time.Now()})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pollingunits_import_phase_total")
	assert.Contains(t, string(body), "pollingunits_import_run_in_progress 1")
	assert.Contains(t, string(body), "go_goroutines")
}
