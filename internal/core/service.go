package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned for unknown or expired run ids.
var ErrRunNotFound = errors.New("import run not found")

// DefaultRunRetention is how long a finished run stays queryable.
const DefaultRunRetention = 5 * time.Minute

// ServiceConfig tunes the asynchronous run service.
type ServiceConfig struct {
	MaxWait   time.Duration // how long StartImport waits for a running import
	Retention time.Duration // how long finished runs stay queryable
}

// Service runs imports in the background, one at a time, and lets callers
// follow their progress. It is the entry point for the HTTP layer.
type Service struct {
	importer  *Importer
	gate      *RunGate
	retention time.Duration

	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	ID        string
	FileName  string
	Options   RunOptions
	Requester Requester
	StartedAt time.Time
	Done      chan struct{}

	mu        sync.Mutex
	progress  ProgressEvent
	summary   *RunSummary
	err       error
	listeners []chan ProgressEvent
}

// NewService creates a Service over store. observer, if non-nil, receives
// every event of every run in addition to run subscribers.
func NewService(store Store, cfg ServiceConfig, observer Observer, opts ...ImporterOption) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRunRetention
	}

	s := &Service{
		gate:      NewRunGate(cfg.MaxWait),
		retention: cfg.Retention,
		runs:      make(map[string]*activeRun),
	}

	opts = append(opts, WithObserver(MultiObserver(ObserverFunc(s.dispatch), observer)))
	s.importer = NewImporter(store, opts...)
	return s
}

// StartImport queues records for import and returns the run id at once.
// Returns ErrImportInProgress if another run does not finish within the
// configured wait.
func (s *Service) StartImport(ctx context.Context, fileName string, records *RecordSet, opts RunOptions) (string, error) {
	runID := uuid.New().String()

	if err := s.gate.Acquire(ctx, runID); err != nil {
		return "", err
	}

	now := time.Now()
	run := &activeRun{
		ID:        runID,
		FileName:  fileName,
		Options:   opts,
		Requester: RequesterFromContext(ctx),
		StartedAt: now,
		Done:      make(chan struct{}),
		progress: ProgressEvent{
			RunID:        runID,
			Phase:        PhaseIdle,
			TotalRecords: records.Total(),
			At:           now,
		},
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()

	slog.Info("import started",
		"run_id", runID,
		"file", fileName,
		"requester_ip", run.Requester.IP,
		"clear_existing", opts.ClearExisting,
		"dry_run", opts.DryRun,
	)

	// The run outlives the request that started it; keep values such as the
	// request id but drop cancellation.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer s.gate.Release()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in import run",
					"run_id", runID,
					"file", fileName,
					"panic", r,
				)
				s.finish(run, nil, fmt.Errorf("internal error: %v", r))
			}
		}()

		summary, err := s.importer.RunRecordsWithID(runCtx, runID, records, opts)
		s.finish(run, summary, err)
	}()

	return runID, nil
}

// dispatch routes importer events to the owning run.
func (s *Service) dispatch(e ProgressEvent) {
	s.mu.RLock()
	run, ok := s.runs[e.RunID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	run.progress = e
	for _, ch := range run.listeners {
		select {
		case ch <- e:
		default:
			// Listener is slow, skip this update
		}
	}
}

func (s *Service) finish(run *activeRun, summary *RunSummary, err error) {
	run.mu.Lock()
	run.summary = summary
	run.err = err
	if err != nil && run.progress.Phase != PhaseFailed {
		run.progress.Phase = PhaseFailed
		run.progress.Error = err.Error()
	}
	for _, ch := range run.listeners {
		close(ch)
	}
	run.listeners = nil
	run.mu.Unlock()

	close(run.Done)

	time.AfterFunc(s.retention, func() {
		s.mu.Lock()
		delete(s.runs, run.ID)
		s.mu.Unlock()
	})
}

func (s *Service) lookup(runID string) (*activeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// SubscribeProgress returns a channel receiving the run's events. The current
// state is sent first; the channel is closed when the run finishes.
func (s *Service) SubscribeProgress(runID string) (<-chan ProgressEvent, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	ch := make(chan ProgressEvent, 16)

	run.mu.Lock()
	defer run.mu.Unlock()

	ch <- run.progress
	select {
	case <-run.Done:
		close(ch)
	default:
		run.listeners = append(run.listeners, ch)
	}
	return ch, nil
}

// Progress returns the latest event of a run without blocking.
func (s *Service) Progress(runID string) (ProgressEvent, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return ProgressEvent{}, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.progress, nil
}

// Result blocks until the run finishes or ctx is done, then returns the
// summary or the error that failed the run.
func (s *Service) Result(ctx context.Context, runID string) (*RunSummary, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	select {
	case <-run.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	return run.summary, run.err
}

// RunInfo describes a run the service still retains.
type RunInfo struct {
	RunID     string        `json:"run_id"`
	FileName  string        `json:"file_name"`
	Options   RunOptions    `json:"options"`
	Requester Requester     `json:"requester"`
	StartedAt time.Time     `json:"started_at"`
	Progress  ProgressEvent `json:"progress"`
}

// Runs lists active and recently finished runs, newest first.
func (s *Service) Runs() []RunInfo {
	s.mu.RLock()
	runs := make([]*activeRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	out := make([]RunInfo, 0, len(runs))
	for _, run := range runs {
		run.mu.Lock()
		out = append(out, RunInfo{
			RunID:     run.ID,
			FileName:  run.FileName,
			Options:   run.Options,
			Requester: run.Requester,
			StartedAt: run.StartedAt,
			Progress:  run.progress,
		})
		run.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// GateStatus reports whether an import is running.
func (s *Service) GateStatus() RunGateStatus {
	return s.gate.Status()
}

// WaitForRuns blocks until the active run, if any, finishes.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.gate.WaitForDrain(ctx)
}
