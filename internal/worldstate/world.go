package worldstate

import (
	"go.uber.org/zap"

	"github.com/maxz000/zwift-watcher/internal/metrics"
)

// MaxWorldTimeDiff is T_STALE: a player is outdated once the world clock is
// this many milliseconds ahead of the player's own latest world time.
const MaxWorldTimeDiff int64 = 5000

// World is the aggregator: player records keyed by id, a group index keyed
// by group id kept mutually exclusive, a distinguished watch group, and the
// global world clock.
type World struct {
	WorldTime int64

	players map[int32]*PlayerRecord
	groups  map[int32]*PlayerGroup
	watch   *PlayerGroup

	logger  *zap.Logger
	metrics *metrics.Registry

	historyOpts      []HistoryOption
	groupCapacity    int
	maxWorldTimeDiff int64
}

// Option configures a World away from the spec's default contract constants
// (see internal/config.HistoryConfig, which is the usual source of these
// overrides at startup).
type Option func(*World)

// WithHistoryCapacity overrides H for every per-player history the world
// creates from this point on.
func WithHistoryCapacity(capacity int) Option {
	return func(w *World) {
		if capacity > 0 {
			w.historyOpts = append(w.historyOpts, WithCapacity(capacity))
		}
	}
}

// WithHistoryInterpolationMaxTimeDiff overrides E for every per-player
// history the world creates from this point on.
func WithHistoryInterpolationMaxTimeDiff(maxDiff int64) Option {
	return func(w *World) {
		if maxDiff >= 0 {
			w.historyOpts = append(w.historyOpts, WithInterpolationMaxTimeDiff(maxDiff))
		}
	}
}

// WithGroupCapacity overrides the pre-allocation hint for new groups.
func WithGroupCapacity(capacity int) Option {
	return func(w *World) {
		if capacity > 0 {
			w.groupCapacity = capacity
		}
	}
}

// WithMaxWorldTimeDiff overrides T_STALE, the staleness threshold FindOutdated
// applies.
func WithMaxWorldTimeDiff(maxDiff int64) Option {
	return func(w *World) {
		if maxDiff > 0 {
			w.maxWorldTimeDiff = maxDiff
		}
	}
}

// New returns an empty world. logger and metricsRegistry may be nil, in which
// case anomalies are dropped silently and metrics are skipped (useful in
// tests). Without opts, history capacity/tolerance, group capacity, and the
// staleness threshold default to the spec's contract values.
func New(logger *zap.Logger, metricsRegistry *metrics.Registry, opts ...Option) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &World{
		players:          make(map[int32]*PlayerRecord),
		groups:           make(map[int32]*PlayerGroup),
		logger:           logger,
		metrics:          metricsRegistry,
		groupCapacity:    PlayerGroupCapacity,
		maxWorldTimeDiff: MaxWorldTimeDiff,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.watch = NewPlayerGroupWithCapacity(w.groupCapacity)
	return w
}

// PushSample ingests one sample: updates or creates the player's record,
// reassigns group membership so the player belongs to exactly one group, and
// advances the world clock. Returns the sample's world time.
func (w *World) PushSample(sample PlayerSample) int64 {
	record, exists := w.players[sample.ID]
	if !exists {
		record = NewPlayerRecord(sample, w.historyOpts...)
		w.players[sample.ID] = record
	} else if _, err := record.Update(sample); err != nil {
		w.logger.Warn("dropping sample with id mismatch",
			zap.Int32("record_id", record.ID), zap.Int32("sample_id", sample.ID))
		if w.metrics != nil {
			w.metrics.Ingest.IDMismatches.Inc()
		}
		return w.WorldTime
	}

	w.reassignGroup(sample.ID, sample.GroupID)

	if sample.WorldTime > w.WorldTime {
		w.WorldTime = sample.WorldTime
	}

	if w.metrics != nil {
		w.metrics.Ingest.SamplesIngested.Inc()
		w.metrics.World.ActivePlayers.Set(float64(len(w.players)))
		w.metrics.World.ActiveGroups.Set(float64(len(w.groups)))
	}

	return sample.WorldTime
}

// reassignGroup ensures id is a member of groups[gid] and of no other group.
func (w *World) reassignGroup(id, gid int32) {
	target, ok := w.groups[gid]
	if !ok {
		target = NewPlayerGroupWithCapacity(w.groupCapacity)
		w.groups[gid] = target
	}
	target.Add(id)

	for otherGid, group := range w.groups {
		if otherGid == gid {
			continue
		}
		group.Remove(id)
	}
}

// PushBatch ingests samples in order and returns the world time each push
// produced. Not atomic with respect to readers: a concurrent lock acquirer
// between two samples of the same batch observes a partially-applied batch.
func (w *World) PushBatch(samples []PlayerSample) []int64 {
	times := make([]int64, 0, len(samples))
	for _, sample := range samples {
		times = append(times, w.PushSample(sample))
	}
	if w.metrics != nil {
		w.metrics.Ingest.BatchesIngested.Inc()
	}
	return times
}

// ClearPlayer removes id from every group (groups are retained even if left
// empty) and deletes its player record, if present. The watch group is left
// untouched by design: the operator's watch list persists across reappearances.
func (w *World) ClearPlayer(id int32) {
	for _, group := range w.groups {
		group.Remove(id)
	}
	delete(w.players, id)

	if w.metrics != nil {
		w.metrics.World.ActivePlayers.Set(float64(len(w.players)))
	}
}

// FindOutdated returns every player id whose record world time trails the
// world clock by more than the configured staleness threshold (MaxWorldTimeDiff
// by default). It performs no mutation.
func (w *World) FindOutdated() []int32 {
	var outdated []int32
	for id, record := range w.players {
		if w.WorldTime-record.WorldTime > w.maxWorldTimeDiff {
			outdated = append(outdated, id)
		}
	}
	return outdated
}

// GroupsList returns every known group id, including empty groups. Order is
// unspecified.
func (w *World) GroupsList() []int32 {
	ids := make([]int32, 0, len(w.groups))
	for gid := range w.groups {
		ids = append(ids, gid)
	}
	return ids
}

// Group returns the group for gid, if known.
func (w *World) Group(gid int32) (*PlayerGroup, bool) {
	g, ok := w.groups[gid]
	return g, ok
}

// PlayersList returns every known player id. Order is unspecified.
func (w *World) PlayersList() []int32 {
	ids := make([]int32, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	return ids
}

// Player returns the record for id, if known.
func (w *World) Player(id int32) (*PlayerRecord, bool) {
	r, ok := w.players[id]
	return r, ok
}

// LatestAlignedTime returns the largest time at which every player in group
// that is still known to the world has a sample available: the minimum of
// the world clock and every participating record's own world time. If no
// member of group is known, it returns the world clock.
func (w *World) LatestAlignedTime(group *PlayerGroup) int64 {
	aligned := w.WorldTime
	for _, id := range group.Iter() {
		record, ok := w.players[id]
		if !ok {
			continue
		}
		if record.WorldTime < aligned {
			aligned = record.WorldTime
		}
	}
	return aligned
}

// WatchAdd adds id to the watch group.
func (w *World) WatchAdd(id int32) {
	w.watch.Add(id)
	if w.metrics != nil {
		w.metrics.World.WatchGroupSize.Set(float64(w.watch.Len()))
	}
}

// WatchClear empties the watch group.
func (w *World) WatchClear() {
	w.watch.Clear()
	if w.metrics != nil {
		w.metrics.World.WatchGroupSize.Set(0)
	}
}

// Watch returns the watch group.
func (w *World) Watch() *PlayerGroup {
	return w.watch
}

// WatchSnapshot aligns samples from every player in the watch group to a
// common instant (or returns each player's own latest sample if latest is
// true) in watch insertion order, skipping ids that are not currently known.
// Aligned samples all carry the common instant as their world time, including
// ones taken from the extrapolation tolerance window.
func (w *World) WatchSnapshot(latest bool) []PlayerSample {
	ids := w.watch.Iter()
	result := make([]PlayerSample, 0, len(ids))

	var t int64
	if !latest {
		t = w.LatestAlignedTime(w.watch)
	}

	for _, id := range ids {
		record, ok := w.players[id]
		if !ok {
			continue
		}
		var sample PlayerSample
		var found bool
		if latest {
			sample, found = record.Latest()
		} else {
			sample, found = record.At(t)
			sample.WorldTime = t
		}
		if found {
			result = append(result, sample)
		}
	}
	return result
}
