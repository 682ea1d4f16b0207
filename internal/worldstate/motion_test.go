package worldstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMotionVector_UnitVectorAlongTravel(t *testing.T) {
	h := NewPlayerHistory()
	h.Push(sampleAt(0, 0, 0, 0))
	h.Push(sampleAt(3000, 30, 0, 0))

	dx, dy, ok := MotionVector(h, 3000)
	require.True(t, ok)
	assert.InDelta(t, 1.0, dx, 1e-9)
	assert.InDelta(t, 0.0, dy, 1e-9)
}

func TestMotionVector_NoAnchorWithinTimeDiff(t *testing.T) {
	h := NewPlayerHistory()
	h.Push(sampleAt(0, 0, 0, 0))
	h.Push(sampleAt(1000, 10, 0, 0))

	_, _, ok := MotionVector(h, 1000)
	assert.False(t, ok, "no sample old enough to anchor a vector within the tolerance window")
}

func TestMotionVector_NoSampleAtTime(t *testing.T) {
	h := NewPlayerHistory()
	_, _, ok := MotionVector(h, 100)
	assert.False(t, ok)
}
