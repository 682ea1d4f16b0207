package worldstate

import "math"

// MotionVectorTimeDiff is the age, in milliseconds, a prior sample must
// exceed relative to the query time before it is used as the tail of a
// motion vector. Supplements the merged PlayerHistory with the waypoint path's
// direction-of-travel query from the original capture tool; it does not
// replace or duplicate PlayerHistory's own storage.
const MotionVectorTimeDiff int64 = 2000

// MotionVector returns the unit direction of travel ending at time t: the
// normalized vector from the most recent stored sample older than
// t-MotionVectorTimeDiff to the (possibly interpolated) sample at t. Returns
// ok=false if there is no sample at t, or no sample old enough to anchor the
// vector.
func MotionVector(history *PlayerHistory, t int64) (dx, dy float64, ok bool) {
	head, found := history.GetAtTime(t)
	if !found {
		return 0, 0, false
	}

	var tail *PlayerSample
	for i := range history.samples {
		s := &history.samples[i]
		if t-s.WorldTime > MotionVectorTimeDiff {
			tail = s
			break
		}
	}
	if tail == nil {
		return 0, 0, false
	}

	vx := head.X - tail.X
	vy := head.Y - tail.Y
	length := math.Sqrt(vx*vx + vy*vy)
	if length == 0 {
		return 0, 0, false
	}

	return vx / length, vy / length, true
}
