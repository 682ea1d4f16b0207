// Package ingest adapts the external sample-producing pipeline into the
// Iterator<Batch<PlayerSample>> contract the world-state core consumes.
package ingest

import (
	"context"

	"github.com/maxz000/zwift-watcher/internal/worldstate"
)

// Batch is an ordered sequence of samples, usually all captured in the same
// packet-capture tick. The core does not require batches to be sorted by
// world time.
type Batch = []worldstate.PlayerSample

// Source is a pull-based iterator over batches. It is finite (file replay)
// or effectively infinite (a live feed). Next returns ok=false once the
// source is exhausted; it never returns a batch and ok=false together.
type Source interface {
	Next(ctx context.Context) (batch Batch, ok bool, err error)
	Close() error
}
