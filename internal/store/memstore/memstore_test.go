package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbanzy/pollingunits/internal/core"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	_, err := s.InsertStates(ctx, []core.State{{ID: "NG-KN", Name: "Kano"}})
	require.NoError(t, err)
	_, err = s.InsertLGAs(ctx, []core.LGA{{ID: "l1", Name: "Dala", Code: "17-01", StateID: "NG-KN"}})
	require.NoError(t, err)
	_, err = s.InsertWards(ctx, []core.Ward{{ID: "w1", Name: "Adakawa", Code: "17-01-01", LGAID: "l1"}})
	require.NoError(t, err)
	return s
}

func TestInsertSkipsConflicts(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	n, err := s.InsertLGAs(ctx, []core.LGA{
		{ID: "l1", Name: "Dala again", Code: "other", StateID: "NG-KN"},
		{ID: "l2", Name: "Fagge", Code: "17-01", StateID: "NG-KN"},
		{ID: "l3", Name: "Gwale", Code: "17-03", StateID: "NG-KN"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "id and code conflicts are skipped")

	unit := core.PollingUnit{ID: "u1", Name: "School", UnitCode: "PU-000001", WardID: "w1"}
	n, err = s.InsertPollingUnits(ctx, []core.PollingUnit{unit, unit})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "duplicates within one call count once")

	count, err := s.CountPollingUnits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertRejectsMissingParent(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	_, err := s.InsertWards(ctx, []core.Ward{
		{ID: "w2", Name: "Ok", Code: "a", LGAID: "l1"},
		{ID: "w3", Name: "Orphan", Code: "b", LGAID: "missing"},
	})
	require.Error(t, err)
	assert.Len(t, s.Wards(), 1, "a failed chunk writes nothing")

	_, err = s.InsertPollingUnits(ctx, []core.PollingUnit{{ID: "u", UnitCode: "PU-000001", WardID: "nope"}})
	assert.ErrorContains(t, err, "foreign key")
}

func TestFailOn(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	boom := errors.New("boom")

	s.FailOn(OpCountPollingUnits, 2, boom)
	_, err := s.CountPollingUnits(ctx)
	assert.NoError(t, err)
	_, err = s.CountPollingUnits(ctx)
	assert.Same(t, boom, err)
	_, err = s.CountPollingUnits(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, s.Calls(OpCountPollingUnits))

	s.FailOn(OpListStates, 0, boom)
	for i := 0; i < 2; i++ {
		_, err = s.ListStates(ctx)
		assert.Same(t, boom, err)
	}
}

func TestResetCalls(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	boom := errors.New("boom")

	_, err := s.InsertLGAs(ctx, []core.LGA{{ID: "l2", Name: "Fagge", Code: "17-02", StateID: "NG-KN"}})
	require.NoError(t, err)
	require.Equal(t, 1, s.Calls(OpInsertLGAs))

	s.FailOn(OpInsertLGAs, 1, boom)
	s.ResetCalls()
	assert.Zero(t, s.Calls(OpInsertLGAs))
	assert.Len(t, s.LGAs(), 2, "data survives a reset")

	_, err = s.InsertLGAs(ctx, nil)
	assert.Same(t, boom, err, "call numbering restarts after a reset")
}

func TestDeletePollingUnits(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	unit := core.PollingUnit{ID: "u1", UnitCode: "PU-000001", WardID: "w1"}

	_, err := s.InsertPollingUnits(ctx, []core.PollingUnit{unit})
	require.NoError(t, err)

	n, err := s.DeletePollingUnits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.InsertPollingUnits(ctx, []core.PollingUnit{unit})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "deleted identities can be reused")
}
