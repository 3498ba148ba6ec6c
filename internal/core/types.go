package core

import (
	"context"
	"time"
)

// State is a first-level administrative division. States are seeded by
// migrations and never written by an import run.
type State struct {
	ID   string
	Name string
}

// LGA is a local government area under a state.
type LGA struct {
	ID      string
	Name    string
	Code    string
	StateID string
}

// Ward is the direct parent of a polling unit.
type Ward struct {
	ID    string
	Name  string
	Code  string
	LGAID string
}

// PollingUnit is the leaf entity of the hierarchy.
type PollingUnit struct {
	ID        string
	Name      string
	UnitCode  string
	WardID    string
	Latitude  *float64
	Longitude *float64
}

// RawImportRow is one data line of the registry after field splitting.
// Lat and Lng are nil when the source line did not carry them.
type RawImportRow struct {
	Position  int // 1-based data line number, header excluded
	Name      string
	WardName  string
	LGAName   string
	StateName string
	Lat       *string
	Lng       *string
}

// Store is the persistence contract the import engine depends on.
//
// Insert methods must skip rows whose identity already exists instead of
// failing, and return the number of rows actually written.
type Store interface {
	ListStates(ctx context.Context) ([]State, error)
	ListLGAs(ctx context.Context) ([]LGA, error)
	ListWards(ctx context.Context) ([]Ward, error)

	InsertLGAs(ctx context.Context, lgas []LGA) (int64, error)
	InsertWards(ctx context.Context, wards []Ward) (int64, error)
	InsertPollingUnits(ctx context.Context, units []PollingUnit) (int64, error)

	DeletePollingUnits(ctx context.Context) (int64, error)
	CountPollingUnits(ctx context.Context) (int64, error)
}

// RunPhase indicates the current stage of an import run.
type RunPhase string

const (
	PhaseIdle                RunPhase = "idle"
	PhaseSeeding             RunPhase = "seeding"
	PhasePlanning            RunPhase = "planning"
	PhasePersistingHierarchy RunPhase = "persisting_hierarchy"
	PhaseClearing            RunPhase = "clearing"
	PhaseLoadingUnits        RunPhase = "loading_units"
	PhaseDone                RunPhase = "done"
	PhaseFailed              RunPhase = "failed"
)

// Terminal reports whether no further phase follows p.
func (p RunPhase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// RunOptions controls a single import run.
type RunOptions struct {
	// ClearExisting deletes every stored polling unit before loading.
	// Irreversible; off by default.
	ClearExisting bool `json:"clear_existing"`

	// DryRun resolves and plans without writing anything to the store.
	DryRun bool `json:"dry_run"`
}

// RunSummary is the result of an import run.
type RunSummary struct {
	RunID             string    `json:"run_id"`
	TotalRecords      int       `json:"total_records"`
	Matched           int       `json:"matched"`
	Skipped           int       `json:"skipped"`
	SkippedMalformed  int       `json:"skipped_malformed"`
	SkippedUnresolved int       `json:"skipped_unresolved"`
	NewLGAs           int       `json:"new_lgas"`
	NewWards          int       `json:"new_wards"`
	Inserted          int64     `json:"inserted"`
	Cleared           int64     `json:"cleared"`
	TotalPollingUnits int64     `json:"total_polling_units"`
	UnresolvedStates  []string  `json:"unresolved_states,omitempty"`
	DryRun            bool      `json:"dry_run"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Duration returns the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// ProgressEvent is emitted to an Observer at phase boundaries and after
// every chunk write.
type ProgressEvent struct {
	RunID string   `json:"run_id"`
	Phase RunPhase `json:"phase"`

	// Set on chunk events only.
	Entity      string `json:"entity,omitempty"`
	ChunkIndex  int    `json:"chunk_index,omitempty"`
	ChunkCount  int    `json:"chunk_count,omitempty"`
	RowsWritten int64  `json:"rows_written,omitempty"`

	TotalRecords int      `json:"total_records"`
	Matched      int      `json:"matched"`
	Skipped      int      `json:"skipped"`
	NewLGAs      int      `json:"new_lgas"`
	NewWards     int      `json:"new_wards"`
	Error        string   `json:"error,omitempty"` // non-empty if Phase is PhaseFailed
	FailedPhase  RunPhase `json:"failed_phase,omitempty"`

	At time.Time `json:"at"`
}

// Percent returns a coarse completion estimate (0-100) derived from the phase
// and, while loading units, the chunk position.
func (e ProgressEvent) Percent() int {
	switch e.Phase {
	case PhaseSeeding:
		return 5
	case PhasePlanning:
		return 15
	case PhasePersistingHierarchy:
		return 25
	case PhaseClearing:
		return 30
	case PhaseLoadingUnits:
		if e.ChunkCount > 0 {
			return 30 + (e.ChunkIndex*70)/e.ChunkCount
		}
		return 30
	case PhaseDone, PhaseFailed:
		return 100
	default:
		return 0
	}
}

// Observer receives progress events. Implementations must not block.
type Observer interface {
	OnProgress(ProgressEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ProgressEvent)

// OnProgress calls f(e).
func (f ObserverFunc) OnProgress(e ProgressEvent) { f(e) }

// MultiObserver fans events out to each non-nil observer in order.
func MultiObserver(observers ...Observer) Observer {
	filtered := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	return ObserverFunc(func(e ProgressEvent) {
		for _, o := range filtered {
			o.OnProgress(e)
		}
	})
}

type nopObserver struct{}

func (nopObserver) OnProgress(ProgressEvent) {}
