package core_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbanzy/pollingunits/internal/core"
	"github.com/agbanzy/pollingunits/internal/store/memstore"
)

func TestImporter_Run(t *testing.T) {
	store := newSeededStore(t)
	events := &eventLog{}
	im := core.NewImporter(store, core.WithObserver(events), core.WithChunkSize(2))

	src := header +
		"Alausa Primary,Alausa,Ikeja,Lagos,6.61,3.36\n" +
		"Town Hall,Ward 2,Ikeja,lagos,99,3.3\n" +
		"Garki Market,Garki I,AMAC,FCT Abuja\n" +
		"\n" +
		"too,short\n" +
		"Lost,W,L,Atlantis\n"

	s, err := im.Run(context.Background(), strings.NewReader(src), core.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, s.TotalRecords)
	assert.Equal(t, 3, s.Matched)
	assert.Equal(t, 2, s.Skipped)
	assert.Equal(t, 1, s.SkippedMalformed)
	assert.Equal(t, 1, s.SkippedUnresolved)
	assert.Equal(t, 1, s.NewLGAs)
	assert.Equal(t, 2, s.NewWards)
	assert.Equal(t, int64(3), s.Inserted)
	assert.Equal(t, int64(3), s.TotalPollingUnits)
	assert.Equal(t, []string{"Atlantis"}, s.UnresolvedStates)
	assert.False(t, s.DryRun)
	assert.NotEmpty(t, s.RunID)

	assert.Equal(t, []core.RunPhase{
		core.PhaseSeeding,
		core.PhasePlanning,
		core.PhasePersistingHierarchy,
		core.PhaseLoadingUnits,
		core.PhaseDone,
	}, events.phases())

	byCode := map[string]core.PollingUnit{}
	for _, u := range store.PollingUnits() {
		byCode[u.UnitCode] = u
	}
	require.Contains(t, byCode, "PU-000001")
	require.Contains(t, byCode, "PU-000002")
	require.Contains(t, byCode, "PU-000003")

	first := byCode["PU-000001"]
	assert.Equal(t, "ward-alausa", first.WardID)
	require.NotNil(t, first.Latitude)
	assert.InDelta(t, 6.61, *first.Latitude, 1e-9)

	assert.Nil(t, byCode["PU-000002"].Latitude, "out-of-range coordinates are dropped")

	for _, l := range store.LGAs() {
		if l.Name == "AMAC" {
			assert.Equal(t, "NG-FC", l.StateID)
			assert.True(t, core.IsSyntheticCode(l.Code))
		}
	}
}

func TestImporter_RerunIsIdempotent(t *testing.T) {
	store := newSeededStore(t)
	im := core.NewImporter(store)
	set := records(t,
		"A,Alausa,Ikeja,Lagos",
		"B,New Ward,Ikeja,Lagos",
	)

	first, err := im.RunRecords(context.Background(), set, core.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Inserted)
	assert.Equal(t, 1, first.NewWards)

	second, err := im.RunRecords(context.Background(), set, core.RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, second.Inserted)
	assert.Zero(t, second.NewWards, "synthesized wards are found on the next run")
	assert.Equal(t, 2, second.Matched)
	assert.Equal(t, int64(2), second.TotalPollingUnits)
	assert.Len(t, store.Wards(), 2)
}

func TestImporter_ClearExisting(t *testing.T) {
	store := newSeededStore(t)
	im := core.NewImporter(store)
	ctx := context.Background()

	_, err := im.RunRecords(ctx, records(t, "A,Alausa,Ikeja,Lagos", "B,Alausa,Ikeja,Lagos"), core.RunOptions{})
	require.NoError(t, err)

	events := &eventLog{}
	im = core.NewImporter(store, core.WithObserver(events))
	s, err := im.RunRecords(ctx, records(t, "C,Alausa,Ikeja,Lagos"), core.RunOptions{ClearExisting: true})
	require.NoError(t, err)

	assert.Equal(t, int64(2), s.Cleared)
	assert.Equal(t, int64(1), s.Inserted)
	assert.Equal(t, int64(1), s.TotalPollingUnits)
	assert.Contains(t, events.phases(), core.PhaseClearing)
	assert.Equal(t, "C", store.PollingUnits()[0].Name)
}

func TestImporter_NewWardUnderExistingLGA(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)
	_, err := store.InsertPollingUnits(ctx, []core.PollingUnit{
		{ID: "pu-existing", UnitCode: "25-01-01-001", Name: "Old Unit", WardID: "ward-alausa"},
	})
	require.NoError(t, err)
	im := core.NewImporter(store)

	s, err := im.RunRecords(ctx,
		records(t, "A,Ward X,Ikeja,Lagos", "B,Ward-X,Ikeja,Lagos", "C,Alausa,Ikeja,Lagos"),
		core.RunOptions{})
	require.NoError(t, err)

	assert.Zero(t, s.NewLGAs)
	assert.Equal(t, 1, s.NewWards)
	assert.Equal(t, 3, s.Matched)
	assert.Zero(t, s.Skipped)
	assert.Equal(t, int64(3), s.Inserted)
	assert.Equal(t, int64(4), s.TotalPollingUnits)

	byName := map[string]core.PollingUnit{}
	for _, u := range store.PollingUnits() {
		byName[u.Name] = u
	}
	require.Len(t, byName, 4)
	assert.Equal(t, byName["A"].WardID, byName["B"].WardID)
	assert.NotEqual(t, "ward-alausa", byName["A"].WardID)
	assert.Equal(t, "ward-alausa", byName["C"].WardID)

	wards := store.Wards()
	require.Len(t, wards, 2)
	for _, w := range wards {
		assert.Equal(t, "lga-ikeja", w.LGAID)
	}
}

func TestImporter_DryRun(t *testing.T) {
	store := newSeededStore(t)
	events := &eventLog{}
	im := core.NewImporter(store, core.WithObserver(events))

	s, err := im.RunRecords(context.Background(),
		records(t, "A,Alausa,Ikeja,Lagos", "B,Ward 9,Epe,Lagos"),
		core.RunOptions{DryRun: true, ClearExisting: true})
	require.NoError(t, err)

	assert.True(t, s.DryRun)
	assert.Equal(t, 2, s.Matched)
	assert.Equal(t, 1, s.NewLGAs)
	assert.Zero(t, s.Inserted)
	assert.Zero(t, s.Cleared)

	assert.Zero(t, store.Calls(memstore.OpInsertLGAs))
	assert.Zero(t, store.Calls(memstore.OpInsertWards))
	assert.Zero(t, store.Calls(memstore.OpInsertPollingUnits))
	assert.Zero(t, store.Calls(memstore.OpDeletePollingUnits))
	assert.NotContains(t, events.phases(), core.PhasePersistingHierarchy)
	assert.NotContains(t, events.phases(), core.PhaseClearing)
}

func TestImporter_UnresolvedStatesCapped(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("U%d,W,L,Nowhere %d", i, i))
	}

	s, err := core.NewImporter(newSeededStore(t)).RunRecords(context.Background(), records(t, lines...), core.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 30, s.SkippedUnresolved)
	assert.Len(t, s.UnresolvedStates, 20)
	assert.Equal(t, "Nowhere 0", s.UnresolvedStates[0])
}

func TestImporter_SyntheticCodesCarryRunTag(t *testing.T) {
	store := newSeededStore(t)
	im := core.NewImporter(store)

	_, err := im.RunRecordsWithID(context.Background(), "deadbeef-0000-4000-8000-000000000000",
		records(t, "A,Ward 1,Epe,Lagos"), core.RunOptions{})
	require.NoError(t, err)

	lgas := store.LGAs()
	require.Len(t, lgas, 2)
	assert.Equal(t, "AUTO-LGA-DEADBEEF-00001", lgas[1].Code)
	wards := store.Wards()
	require.Len(t, wards, 2)
	assert.Equal(t, "AUTO-WARD-DEADBEEF-00001", wards[1].Code)
}

func TestImporter_FailureReportsPhase(t *testing.T) {
	tests := []struct {
		op    string
		phase core.RunPhase
		opts  core.RunOptions
	}{
		{memstore.OpListWards, core.PhaseSeeding, core.RunOptions{}},
		{memstore.OpInsertWards, core.PhasePersistingHierarchy, core.RunOptions{}},
		{memstore.OpDeletePollingUnits, core.PhaseClearing, core.RunOptions{ClearExisting: true}},
		{memstore.OpInsertPollingUnits, core.PhaseLoadingUnits, core.RunOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			store := newSeededStore(t)
			boom := errors.New("store unavailable")
			store.FailOn(tt.op, 0, boom)

			events := &eventLog{}
			im := core.NewImporter(store, core.WithObserver(events))
			s, err := im.RunRecords(context.Background(), records(t, "A,New Ward,Ikeja,Lagos"), tt.opts)

			assert.Nil(t, s)
			assert.Same(t, boom, err)

			last := events.events[len(events.events)-1]
			assert.Equal(t, core.PhaseFailed, last.Phase)
			assert.Equal(t, tt.phase, last.FailedPhase)
			assert.Equal(t, "store unavailable", last.Error)
		})
	}
}

func TestImporter_Clock(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	im := core.NewImporter(newSeededStore(t), core.WithClock(func() time.Time { return at }))

	s, err := im.RunRecords(context.Background(), records(t), core.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, at, s.StartedAt)
	assert.Equal(t, at, s.FinishedAt)
	assert.Zero(t, s.Duration())
	assert.Zero(t, s.TotalRecords)
}
