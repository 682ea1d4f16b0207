package worldstate

import "math"

const (
	// PlayerHistoryCapacity is H in spec terms; the retained size after any
	// push is PlayerHistoryCapacity-1.
	PlayerHistoryCapacity = 50

	// PlayerHistoryInterpolationMaxTimeDiff is the extrapolation tolerance E,
	// in milliseconds, on either side of the retained window.
	PlayerHistoryInterpolationMaxTimeDiff int64 = 100
)

// PlayerHistory is a bounded, time-sorted ring of samples for one player,
// stored latest-first (descending world time). It supports interpolated
// lookups at arbitrary timestamps. Capacity and interpolation tolerance
// default to the spec's contract values but can be overridden per instance
// (see HistoryOption), which is how internal/config.HistoryConfig reaches
// this ring at startup.
type PlayerHistory struct {
	samples []PlayerSample

	capacity                 int
	interpolationMaxTimeDiff int64
}

// HistoryOption configures a PlayerHistory away from its spec-contract
// defaults.
type HistoryOption func(*PlayerHistory)

// WithCapacity overrides H; after any push the history retains at most H-1
// samples, dropping the oldest.
func WithCapacity(capacity int) HistoryOption {
	return func(h *PlayerHistory) {
		if capacity > 0 {
			h.capacity = capacity
		}
	}
}

// WithInterpolationMaxTimeDiff overrides E, the extrapolation tolerance in
// milliseconds applied on either side of the retained window.
func WithInterpolationMaxTimeDiff(maxDiff int64) HistoryOption {
	return func(h *PlayerHistory) {
		if maxDiff >= 0 {
			h.interpolationMaxTimeDiff = maxDiff
		}
	}
}

// NewPlayerHistory returns an empty history with room pre-allocated for the
// full capacity, applying any HistoryOption overrides on top of the spec's
// defaults.
func NewPlayerHistory(opts ...HistoryOption) *PlayerHistory {
	h := &PlayerHistory{
		capacity:                 PlayerHistoryCapacity,
		interpolationMaxTimeDiff: PlayerHistoryInterpolationMaxTimeDiff,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.samples = make([]PlayerSample, 0, h.capacity)
	return h
}

// Push inserts sample so the latest-first order is preserved, then trims the
// tail if the history grew past its retained capacity. Duplicate world times
// are permitted.
func (h *PlayerHistory) Push(sample PlayerSample) {
	insertIndex := 0
	for _, existing := range h.samples {
		if existing.WorldTime > sample.WorldTime {
			insertIndex++
			continue
		}
		break
	}

	h.samples = append(h.samples, PlayerSample{})
	copy(h.samples[insertIndex+1:], h.samples[insertIndex:])
	h.samples[insertIndex] = sample

	if len(h.samples) > h.capacity-1 {
		h.samples = h.samples[:h.capacity-1]
	}
}

// Len reports the number of retained samples.
func (h *PlayerHistory) Len() int {
	return len(h.samples)
}

// GetAtTime returns the player's state at time t: an exact match if one
// exists, a linear interpolation between the bracketing samples, a clone of
// the nearest sample if t falls within the extrapolation tolerance just
// outside the retained window, or false if none of those apply.
func (h *PlayerHistory) GetAtTime(t int64) (PlayerSample, bool) {
	var before, after *PlayerSample

	for i := range h.samples {
		s := &h.samples[i]
		switch {
		case s.WorldTime == t:
			return s.clone(), true
		case s.WorldTime > t:
			after = s
		case s.WorldTime < t:
			before = s
		}
		if before != nil {
			break
		}
	}

	switch {
	case before != nil && after != nil:
		return interpolate(*before, *after, t), true
	case before != nil && after == nil:
		// t is newer than every retained sample; before is the newest one.
		if t-before.WorldTime < h.interpolationMaxTimeDiff {
			return before.clone(), true
		}
	case after != nil && before == nil:
		// t is older than every retained sample; after is the oldest one.
		if after.WorldTime-t < h.interpolationMaxTimeDiff {
			return after.clone(), true
		}
	}

	return PlayerSample{}, false
}

// interpolate produces a sample at time t between before (older) and after
// (newer), overriding the time-dependent fields and copying passthrough
// fields from before.
func interpolate(before, after PlayerSample, t int64) PlayerSample {
	result := before.clone()

	span := after.WorldTime - before.WorldTime
	ratio := float64(t-before.WorldTime) / float64(span)

	result.WorldTime = t
	result.Time = before.Time + int32((t-before.WorldTime)/1000)
	result.X = before.X + (after.X-before.X)*ratio
	result.Y = before.Y + (after.Y-before.Y)*ratio
	result.Distance = before.Distance + int32(math.Trunc(float64(after.Distance-before.Distance)*ratio))

	return result
}
