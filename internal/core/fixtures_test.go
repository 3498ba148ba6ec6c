package core_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agbanzy/pollingunits/internal/core"
	"github.com/agbanzy/pollingunits/internal/store/memstore"
)

const header = "name,ward,lga,state,latitude,longitude\n"

// newSeededStore returns a memstore with two states, one LGA and one ward.
func newSeededStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	_, err := s.InsertStates(ctx, []core.State{
		{ID: "NG-LA", Name: "Lagos"},
		{ID: "NG-FC", Name: "Federal Capital Territory"},
	})
	require.NoError(t, err)
	_, err = s.InsertLGAs(ctx, []core.LGA{{ID: "lga-ikeja", Name: "Ikeja", Code: "25-01", StateID: "NG-LA"}})
	require.NoError(t, err)
	_, err = s.InsertWards(ctx, []core.Ward{{ID: "ward-alausa", Name: "Alausa", Code: "25-01-01", LGAID: "lga-ikeja"}})
	require.NoError(t, err)

	// Seeding is not part of what tests count.
	s.ResetCalls()
	return s
}

func records(t *testing.T, lines ...string) *core.RecordSet {
	t.Helper()
	set, err := core.ReadRecords(strings.NewReader(header + strings.Join(lines, "\n")))
	require.NoError(t, err)
	return set
}

// eventLog records every progress event.
type eventLog struct {
	mu     sync.Mutex
	events []core.ProgressEvent
}

func (l *eventLog) OnProgress(e core.ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// phases returns the distinct phases in the order they were first seen.
func (l *eventLog) phases() []core.RunPhase {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []core.RunPhase
	for _, e := range l.events {
		if len(out) == 0 || out[len(out)-1] != e.Phase {
			out = append(out, e.Phase)
		}
	}
	return out
}

func (l *eventLog) chunks(entity string) []core.ProgressEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []core.ProgressEvent
	for _, e := range l.events {
		if e.Entity == entity {
			out = append(out, e)
		}
	}
	return out
}
