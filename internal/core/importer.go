package core

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxUnresolvedReported caps RunSummary.UnresolvedStates.
const maxUnresolvedReported = 20

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithChunkSize sets the number of rows per store write.
func WithChunkSize(n int) ImporterOption {
	return func(im *Importer) {
		im.chunkSize = n
	}
}

// WithObserver sets the observer receiving progress events.
func WithObserver(o Observer) ImporterOption {
	return func(im *Importer) {
		if o != nil {
			im.observer = o
		}
	}
}

// WithBounds sets the coordinate bounding box.
func WithBounds(b Bounds) ImporterOption {
	return func(im *Importer) {
		im.bounds = b
	}
}

// WithNodeIDs overrides id allocation for synthesized LGAs and wards.
func WithNodeIDs(fn func() string) ImporterOption {
	return func(im *Importer) {
		im.newNodeID = fn
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) ImporterOption {
	return func(im *Importer) {
		im.now = now
	}
}

// Importer sequences an import run:
//
//	idle -> seeding -> planning -> persisting_hierarchy -> [clearing] -> loading_units -> done
//
// Any store or source error moves the run to failed and aborts the remaining
// phases. Writes already committed are kept.
//
// An Importer holds no per-run state and may be reused, but two runs against
// the same store must not overlap; see Service for in-process serialization.
type Importer struct {
	store     Store
	chunkSize int
	observer  Observer
	bounds    Bounds
	newNodeID func() string
	now       func() time.Time
}

// NewImporter returns an importer writing to store.
func NewImporter(store Store, opts ...ImporterOption) *Importer {
	im := &Importer{
		store:     store,
		chunkSize: DefaultChunkSize,
		observer:  nopObserver{},
		bounds:    NigeriaBounds,
		newNodeID: func() string { return uuid.New().String() },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Run reads the whole source and imports it.
func (im *Importer) Run(ctx context.Context, src io.Reader, opts RunOptions) (*RunSummary, error) {
	r := im.newRun(uuid.New().String(), opts)

	records, err := ReadRecords(src)
	if err != nil {
		return nil, r.fail(err)
	}
	return im.execute(ctx, r, records, opts)
}

// RunRecords imports an already parsed source.
func (im *Importer) RunRecords(ctx context.Context, records *RecordSet, opts RunOptions) (*RunSummary, error) {
	return im.RunRecordsWithID(ctx, uuid.New().String(), records, opts)
}

// RunRecordsWithID is RunRecords with a caller-chosen run id.
func (im *Importer) RunRecordsWithID(ctx context.Context, runID string, records *RecordSet, opts RunOptions) (*RunSummary, error) {
	return im.execute(ctx, im.newRun(runID, opts), records, opts)
}

func (im *Importer) execute(ctx context.Context, r *run, records *RecordSet, opts RunOptions) (*RunSummary, error) {
	s := &r.summary
	s.TotalRecords = records.Total()
	s.SkippedMalformed = len(records.Malformed)
	s.Skipped = s.SkippedMalformed

	r.enter(PhaseSeeding)
	index, err := im.seed(ctx)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(PhasePlanning)
	plan := NewPlanner(index, r.tag, WithIDGenerator(im.newNodeID)).Plan(records.Rows)
	s.NewLGAs = len(plan.LGAs)
	s.NewWards = len(plan.Wards)
	s.UnresolvedStates = plan.UnresolvedStates
	if len(s.UnresolvedStates) > maxUnresolvedReported {
		s.UnresolvedStates = s.UnresolvedStates[:maxUnresolvedReported]
	}

	loader := NewBulkLoader(im.store, im.chunkSize, ObserverFunc(r.forward))

	if !opts.DryRun {
		r.enter(PhasePersistingHierarchy)
		if _, err := loader.LoadHierarchy(ctx, plan); err != nil {
			return nil, r.fail(err)
		}

		if opts.ClearExisting {
			r.enter(PhaseClearing)
			n, err := im.store.DeletePollingUnits(ctx)
			if err != nil {
				return nil, r.fail(err)
			}
			s.Cleared = n
		}
	}

	r.enter(PhaseLoadingUnits)
	units := im.resolveUnits(index, records.Rows, s)
	if !opts.DryRun {
		inserted, err := loader.LoadPollingUnits(ctx, units)
		if err != nil {
			return nil, r.fail(err)
		}
		s.Inserted = inserted
	}

	total, err := im.store.CountPollingUnits(ctx)
	if err != nil {
		return nil, r.fail(err)
	}
	s.TotalPollingUnits = total
	s.FinishedAt = im.now()

	r.enter(PhaseDone)
	out := *s
	return &out, nil
}

// seed builds a fresh index from the store's current hierarchy.
func (im *Importer) seed(ctx context.Context) (*HierarchyIndex, error) {
	states, err := im.store.ListStates(ctx)
	if err != nil {
		return nil, err
	}
	lgas, err := im.store.ListLGAs(ctx)
	if err != nil {
		return nil, err
	}
	wards, err := im.store.ListWards(ctx)
	if err != nil {
		return nil, err
	}

	index := NewHierarchyIndex()
	index.Seed(states, lgas, wards)
	return index, nil
}

// resolveUnits is the second pass: every row is resolved against the
// completed index and either becomes a polling unit or is counted skipped.
func (im *Importer) resolveUnits(index *HierarchyIndex, rows []RawImportRow, s *RunSummary) []PollingUnit {
	validator := NewValidator(im.bounds)
	units := make([]PollingUnit, 0, len(rows))

	for _, row := range rows {
		wardID, ok := resolveWard(index, row)
		if !ok {
			s.SkippedUnresolved++
			s.Skipped++
			continue
		}
		units = append(units, validator.Build(row, wardID))
		s.Matched++
	}
	return units
}

func resolveWard(index *HierarchyIndex, row RawImportRow) (string, bool) {
	stateID, ok := index.ResolveState(row.StateName)
	if !ok {
		return "", false
	}
	lgaID, ok := index.LookupLGA(stateID, row.LGAName)
	if !ok {
		return "", false
	}
	return index.LookupWard(lgaID, row.WardName)
}

// run carries the mutable state of one execution.
type run struct {
	im      *Importer
	tag     string
	phase   RunPhase
	summary RunSummary
}

func (im *Importer) newRun(runID string, opts RunOptions) *run {
	return &run{
		im:    im,
		tag:   runTag(runID),
		phase: PhaseIdle,
		summary: RunSummary{
			RunID:     runID,
			DryRun:    opts.DryRun,
			StartedAt: im.now(),
		},
	}
}

// runTag shortens a run id for use inside synthetic codes.
func runTag(runID string) string {
	tag := strings.ReplaceAll(runID, "-", "")
	if len(tag) > 8 {
		tag = tag[:8]
	}
	return strings.ToUpper(tag)
}

func (r *run) event(phase RunPhase) ProgressEvent {
	s := r.summary
	return ProgressEvent{
		RunID:        s.RunID,
		Phase:        phase,
		TotalRecords: s.TotalRecords,
		Matched:      s.Matched,
		Skipped:      s.Skipped,
		NewLGAs:      s.NewLGAs,
		NewWards:     s.NewWards,
		At:           r.im.now(),
	}
}

func (r *run) enter(phase RunPhase) {
	r.phase = phase
	r.im.observer.OnProgress(r.event(phase))
}

// forward decorates loader chunk events with run totals.
func (r *run) forward(e ProgressEvent) {
	ev := r.event(e.Phase)
	ev.Entity = e.Entity
	ev.ChunkIndex = e.ChunkIndex
	ev.ChunkCount = e.ChunkCount
	ev.RowsWritten = e.RowsWritten
	r.im.observer.OnProgress(ev)
}

// fail reports the failure and returns err unchanged.
func (r *run) fail(err error) error {
	ev := r.event(PhaseFailed)
	ev.Error = err.Error()
	ev.FailedPhase = r.phase
	r.phase = PhaseFailed
	r.im.observer.OnProgress(ev)
	return err
}
