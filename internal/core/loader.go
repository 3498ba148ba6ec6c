package core

import (
	"context"
	"time"
)

// DefaultChunkSize is the number of rows written per store call.
const DefaultChunkSize = 500

// Entity names reported on chunk progress events.
const (
	EntityLGA         = "lga"
	EntityWard        = "ward"
	EntityPollingUnit = "polling_unit"
)

// BulkLoader writes rows to the store in fixed-size chunks, one chunk per
// store call, strictly in order: LGAs, then wards, then polling units.
//
// A failed chunk stops the load and its error is returned exactly as the
// store produced it. Chunks already written stay written.
type BulkLoader struct {
	store     Store
	chunkSize int
	observer  Observer
}

// NewBulkLoader returns a loader writing to store. A non-positive chunkSize
// selects DefaultChunkSize; a nil observer discards chunk events.
func NewBulkLoader(store Store, chunkSize int, observer Observer) *BulkLoader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &BulkLoader{
		store:     store,
		chunkSize: chunkSize,
		observer:  observer,
	}
}

// ChunkSize returns the configured chunk size.
func (l *BulkLoader) ChunkSize() int {
	return l.chunkSize
}

// HierarchyWrite counts hierarchy rows actually written.
type HierarchyWrite struct {
	LGAs  int64
	Wards int64
}

// LoadHierarchy writes every planned LGA, then every planned ward.
func (l *BulkLoader) LoadHierarchy(ctx context.Context, plan Plan) (HierarchyWrite, error) {
	var res HierarchyWrite
	var err error

	res.LGAs, err = writeChunks(ctx, l, PhasePersistingHierarchy, EntityLGA, plan.LGAs, l.store.InsertLGAs)
	if err != nil {
		return res, err
	}
	res.Wards, err = writeChunks(ctx, l, PhasePersistingHierarchy, EntityWard, plan.Wards, l.store.InsertWards)
	return res, err
}

// LoadPollingUnits writes units and returns how many rows were new.
func (l *BulkLoader) LoadPollingUnits(ctx context.Context, units []PollingUnit) (int64, error) {
	return writeChunks(ctx, l, PhaseLoadingUnits, EntityPollingUnit, units, l.store.InsertPollingUnits)
}

// chunkCount returns how many chunks of size hold n items.
func chunkCount(n, size int) int {
	return (n + size - 1) / size
}

func writeChunks[T any](
	ctx context.Context,
	l *BulkLoader,
	phase RunPhase,
	entity string,
	items []T,
	insert func(context.Context, []T) (int64, error),
) (int64, error) {
	count := chunkCount(len(items), l.chunkSize)

	var written int64
	for i := 0; i < count; i++ {
		start := i * l.chunkSize
		end := min(start+l.chunkSize, len(items))

		n, err := insert(ctx, items[start:end])
		if err != nil {
			return written, err
		}
		written += n

		l.observer.OnProgress(ProgressEvent{
			Phase:       phase,
			Entity:      entity,
			ChunkIndex:  i + 1,
			ChunkCount:  count,
			RowsWritten: written,
			At:          time.Now(),
		})
	}
	return written, nil
}
