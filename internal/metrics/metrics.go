// Package metrics exposes import run counters to Prometheus.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbanzy/pollingunits/internal/core"
)

const namespace = "pollingunits"

// Recorder turns progress events into metrics. It implements core.Observer.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	phaseTotal    *prometheus.CounterVec
	rowsWritten   *prometheus.CounterVec
	rowsSkipped   prometheus.Counter
	runDuration   prometheus.Histogram
	runInProgress prometheus.Gauge

	mu      sync.Mutex
	started map[string]time.Time
	written map[string]map[string]int64 // run -> entity -> rows reported so far
}

var _ core.Observer = (*Recorder)(nil)

// New registers the import metrics on a fresh registry. Go and process
// collectors are included so /metrics is useful on its own.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the import metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_runs_total",
			Help:      "Import runs by outcome.",
		}, []string{"outcome"}),
		phaseTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_phase_total",
			Help:      "Phase transitions observed across runs.",
		}, []string{"phase"}),
		rowsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_written_total",
			Help:      "Rows newly written to the store by entity.",
		}, []string{"entity"}),
		rowsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_skipped_total",
			Help:      "Registry rows skipped as malformed or unresolved.",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_run_duration_seconds",
			Help:      "Wall time of finished import runs.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
		runInProgress: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "import_run_in_progress",
			Help:      "1 while an import run is executing.",
		}),
		started: make(map[string]time.Time),
		written: make(map[string]map[string]int64),
	}
}

// OnProgress records e.
func (r *Recorder) OnProgress(e core.ProgressEvent) {
	if e.Entity != "" {
		r.chunk(e)
		return
	}

	r.phaseTotal.WithLabelValues(string(e.Phase)).Inc()

	switch e.Phase {
	case core.PhaseSeeding:
		r.mu.Lock()
		r.started[e.RunID] = e.At
		r.written[e.RunID] = make(map[string]int64)
		r.mu.Unlock()
		r.runInProgress.Set(1)
	case core.PhaseDone:
		r.finish(e, "success")
		r.rowsSkipped.Add(float64(e.Skipped))
	case core.PhaseFailed:
		r.finish(e, "failed")
	}
}

// chunk converts the loader's cumulative row count into a counter increment.
func (r *Recorder) chunk(e core.ProgressEvent) {
	r.mu.Lock()
	perEntity, ok := r.written[e.RunID]
	if !ok {
		perEntity = make(map[string]int64)
		r.written[e.RunID] = perEntity
	}
	delta := e.RowsWritten - perEntity[e.Entity]
	perEntity[e.Entity] = e.RowsWritten
	r.mu.Unlock()

	if delta > 0 {
		r.rowsWritten.WithLabelValues(e.Entity).Add(float64(delta))
	}
}

func (r *Recorder) finish(e core.ProgressEvent, outcome string) {
	r.runsTotal.WithLabelValues(outcome).Inc()
	r.runInProgress.Set(0)

	r.mu.Lock()
	start, ok := r.started[e.RunID]
	delete(r.started, e.RunID)
	delete(r.written, e.RunID)
	r.mu.Unlock()

	if ok && !e.At.Before(start) {
		r.runDuration.Observe(e.At.Sub(start).Seconds())
	}
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
