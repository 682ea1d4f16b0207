package worldstate

import "errors"

// ErrIDMismatch indicates a caller tried to update a PlayerRecord with a
// sample belonging to a different player id. It signals a programming error
// upstream; the core logs it as an anomaly and drops the sample.
var ErrIDMismatch = errors.New("worldstate: sample id does not match record id")

// PlayerRecord tracks one player's bounded history plus the maximum world
// time ever observed for that player.
type PlayerRecord struct {
	ID        int32
	WorldTime int64
	history   *PlayerHistory
}

// NewPlayerRecord seeds a record from its first observed sample. opts
// configure the record's underlying history away from the spec's default
// capacity/tolerance constants; see HistoryOption.
func NewPlayerRecord(sample PlayerSample, opts ...HistoryOption) *PlayerRecord {
	h := NewPlayerHistory(opts...)
	h.Push(sample)
	return &PlayerRecord{
		ID:        sample.ID,
		WorldTime: sample.WorldTime,
		history:   h,
	}
}

// Update pushes sample into the record's history and advances WorldTime if
// the sample is newer. It returns ErrIDMismatch without mutating anything if
// the sample belongs to a different player.
func (r *PlayerRecord) Update(sample PlayerSample) (int64, error) {
	if sample.ID != r.ID {
		return r.WorldTime, ErrIDMismatch
	}

	r.history.Push(sample)
	if sample.WorldTime > r.WorldTime {
		r.WorldTime = sample.WorldTime
	}
	return r.WorldTime, nil
}

// Latest returns the record's state at its own latest observed world time.
func (r *PlayerRecord) Latest() (PlayerSample, bool) {
	return r.history.GetAtTime(r.WorldTime)
}

// At returns the record's interpolated state at time t.
func (r *PlayerRecord) At(t int64) (PlayerSample, bool) {
	return r.history.GetAtTime(t)
}

// MotionVectorAt returns the unit direction of travel ending at time t, see
// motion.go.
func (r *PlayerRecord) MotionVectorAt(t int64) (dx, dy float64, ok bool) {
	return MotionVector(r.history, t)
}

// HistoryLen reports the number of samples currently retained in the
// record's bounded history.
func (r *PlayerRecord) HistoryLen() int {
	return r.history.Len()
}
