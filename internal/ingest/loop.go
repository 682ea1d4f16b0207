package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/maxz000/zwift-watcher/internal/metrics"
	"github.com/maxz000/zwift-watcher/internal/worldstate"
)

// Loop is the single ingestion goroutine: it pulls batches from a Source,
// applies them to the world, and periodically sweeps for outdated players.
// Eviction is deliberately not automatic inside the core (spec); driving it
// from here keeps it a single-writer operation with no background tasks or
// extra locking.
type Loop struct {
	source          Source
	locked          *worldstate.Locked
	logger          *zap.Logger
	metrics         *metrics.Registry
	evictionCadence int
}

// NewLoop builds an ingestion loop. evictionCadence is the number of
// processed batches between staleness sweeps; the spec's reference cadence
// is 1000. metricsRegistry may be nil, in which case eviction metrics are
// skipped.
func NewLoop(source Source, locked *worldstate.Locked, logger *zap.Logger, metricsRegistry *metrics.Registry, evictionCadence int) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if evictionCadence <= 0 {
		evictionCadence = 1000
	}
	return &Loop{source: source, locked: locked, logger: logger, metrics: metricsRegistry, evictionCadence: evictionCadence}
}

// Run pulls batches until the source is exhausted, ctx is canceled, or the
// source returns an error.
func (l *Loop) Run(ctx context.Context) error {
	defer l.source.Close()

	var batches int
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		batch, ok, err := l.source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}

		l.locked.With(func(w *worldstate.World) {
			w.PushBatch(batch)
		})

		batches++
		if batches%l.evictionCadence == 0 {
			l.sweepOutdated()
		}
	}
}

func (l *Loop) sweepOutdated() {
	var outdated []int32
	l.locked.With(func(w *worldstate.World) {
		outdated = w.FindOutdated()
	})
	if len(outdated) == 0 {
		return
	}

	l.logger.Info("evicting outdated players", zap.Int32s("ids", outdated))
	l.locked.With(func(w *worldstate.World) {
		for _, id := range outdated {
			w.ClearPlayer(id)
		}
	})
	if l.metrics != nil {
		l.metrics.Ingest.PlayersEvicted.Add(float64(len(outdated)))
	}
}
