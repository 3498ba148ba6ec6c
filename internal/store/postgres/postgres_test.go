package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbanzy/pollingunits/internal/core"
)

// openTest connects to TEST_DATABASE_URL or skips.
func openTest(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, PoolConfig{URL: url, MaxConns: 2, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(ctx))
	_, err = s.InsertStates(ctx, []core.State{{ID: "NG-LA", Name: "Lagos"}})
	require.NoError(t, err)
	return s
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), PoolConfig{URL: "::not a url::"})
	assert.Error(t, err)
}

func TestMigrate_RequiresPool(t *testing.T) {
	err := (&Store{}).Migrate(context.Background())
	assert.ErrorContains(t, err, "requires a pool")
}

// TestImportInTransaction runs a full import inside a transaction that is
// rolled back, so it leaves the database untouched.
func TestImportInTransaction(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	scoped := s.WithTx(tx)
	_, err = scoped.DeletePollingUnits(ctx)
	require.NoError(t, err)

	src := "name,ward,lga,state,lat,lng\n" +
		"Central School,Ward X,Ikeja Test,Lagos,6.6,3.35\n" +
		"Market Square,Ward X,Ikeja Test,Lagos\n"

	im := core.NewImporter(scoped, core.WithChunkSize(1))
	summary, err := im.Run(ctx, strings.NewReader(src), core.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, int64(2), summary.Inserted)
	assert.Equal(t, int64(2), summary.TotalPollingUnits)

	again, err := im.Run(ctx, strings.NewReader(src), core.RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, again.Inserted)
	assert.Zero(t, again.NewLGAs)
}
