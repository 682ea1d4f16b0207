// Package worldstate implements the time-indexed, bounded per-player history and
// the world aggregator that tracks every player currently visible to the capture
// pipeline.
package worldstate

// PlayerSample is one telemetry observation of one player at one world time.
// It is treated as immutable: every method that derives a new sample from an
// existing one (interpolation) returns a copy rather than mutating in place.
type PlayerSample struct {
	ID        int32   `json:"id"`
	GroupID   int32   `json:"group_id"`
	WorldTime int64   `json:"world_time"` // ms since epoch
	Time      int32   `json:"time"`       // seconds of session
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Distance  int32   `json:"distance"`

	// Passthrough fields: copied through history operations but never
	// interpreted by the core.
	Power      int32   `json:"power"`
	HeartRate  int32   `json:"heart_rate"`
	Cadence    int32   `json:"cadence"`
	Speed      float64 `json:"speed"`
	Altitude   float64 `json:"altitude"`
	Gradient   float64 `json:"gradient"`
	RoadID     int32   `json:"road_id"`
	LaneNumber int32   `json:"lane_number"`
	Calories   int32   `json:"calories"`
}

// clone returns a value copy of the sample. PlayerSample has no reference
// fields, so a plain copy is a deep copy.
func (s PlayerSample) clone() PlayerSample {
	return s
}
