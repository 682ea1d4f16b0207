package ingest

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxz000/zwift-watcher/internal/worldstate"
)

type fakeSource struct {
	batches []Batch
	idx     int
	closed  int32
}

func (f *fakeSource) Next(ctx context.Context) (Batch, bool, error) {
	if f.idx >= len(f.batches) {
		return nil, false, nil
	}
	b := f.batches[f.idx]
	f.idx++
	return b, true, nil
}

func (f *fakeSource) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

func TestLoop_AppliesEveryBatchAndClosesSource(t *testing.T) {
	source := &fakeSource{batches: []Batch{
		{{ID: 1, GroupID: 1, WorldTime: 100}},
		{{ID: 2, GroupID: 1, WorldTime: 200}},
	}}
	locked := worldstate.NewLocked(worldstate.New(nil, nil))
	loop := NewLoop(source, locked, nil, nil, 1000)

	err := loop.Run(context.Background())
	require.NoError(t, err)

	count := worldstate.WithResult(locked, func(w *worldstate.World) int {
		return len(w.PlayersList())
	})
	assert.Equal(t, 2, count)
	assert.Equal(t, int32(1), source.closed)
}

func TestLoop_SweepsOutdatedOnCadence(t *testing.T) {
	var batches []Batch
	batches = append(batches, Batch{{ID: 1, GroupID: 1, WorldTime: 0}})
	for i := 0; i < 3; i++ {
		batches = append(batches, Batch{{ID: 2, GroupID: 1, WorldTime: int64(10000 + i)}})
	}
	source := &fakeSource{batches: batches}
	locked := worldstate.NewLocked(worldstate.New(nil, nil))
	loop := NewLoop(source, locked, nil, nil, 2)

	err := loop.Run(context.Background())
	require.NoError(t, err)

	known := worldstate.WithResult(locked, func(w *worldstate.World) bool {
		_, ok := w.Player(1)
		return ok
	})
	assert.False(t, known, "player 1 should have been evicted once the clock advanced past it")
}
