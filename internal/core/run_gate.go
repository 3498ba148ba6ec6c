package core

// run_gate.go serializes import runs within one process.
//
// Two runs against the same store would each seed their own hierarchy index
// and could synthesize duplicate LGAs or wards for the same (parent, name)
// pair. The gate holds a single slot; a caller waits up to maxWait for it and
// then receives ErrImportInProgress.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrImportInProgress is returned when another run holds the gate and the
// wait timeout expires.
var ErrImportInProgress = errors.New("another import is in progress, please try again later")

// DefaultMaxWaitTime is how long Acquire waits for the slot.
const DefaultMaxWaitTime = 5 * time.Second

// RunGate admits one import run at a time.
type RunGate struct {
	slot    chan struct{}
	maxWait time.Duration

	mu      sync.RWMutex
	holder  string
	since   time.Time
	granted int64
}

// NewRunGate creates a gate. A non-positive maxWait selects DefaultMaxWaitTime.
func NewRunGate(maxWait time.Duration) *RunGate {
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &RunGate{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire waits for the slot on behalf of runID. The caller MUST call
// Release when the run finishes.
func (g *RunGate) Acquire(ctx context.Context, runID string) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.take(runID)
		return nil
	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrImportInProgress
	}
}

// TryAcquire takes the slot without waiting.
func (g *RunGate) TryAcquire(runID string) bool {
	select {
	case g.slot <- struct{}{}:
		g.take(runID)
		return true
	default:
		return false
	}
}

func (g *RunGate) take(runID string) {
	g.mu.Lock()
	g.holder = runID
	g.since = time.Now()
	g.granted++
	g.mu.Unlock()
}

// Release frees the slot. Must be called exactly once per successful
// Acquire or TryAcquire.
func (g *RunGate) Release() {
	g.mu.Lock()
	g.holder = ""
	g.since = time.Time{}
	g.mu.Unlock()

	<-g.slot
}

// Busy reports whether a run holds the slot.
func (g *RunGate) Busy() bool {
	return len(g.slot) > 0
}

// WaitForDrain blocks until the slot is free or ctx is done. Used during
// shutdown so an in-flight run can finish writing its current chunk.
func (g *RunGate) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunGateStatus is a snapshot of the gate.
type RunGateStatus struct {
	Busy    bool      `json:"busy"`
	RunID   string    `json:"run_id,omitempty"`
	Since   time.Time `json:"since,omitempty"`
	Granted int64     `json:"granted"`
}

// Status returns the current gate state for monitoring.
func (g *RunGate) Status() RunGateStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return RunGateStatus{
		Busy:    g.holder != "",
		RunID:   g.holder,
		Since:   g.since,
		Granted: g.granted,
	}
}
