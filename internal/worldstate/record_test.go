package worldstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRecord_NewAndLatest(t *testing.T) {
	r := NewPlayerRecord(sampleAt(1000, 1, 2, 3))
	require.Equal(t, int32(1), r.ID)
	assert.Equal(t, int64(1000), r.WorldTime)

	latest, ok := r.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(1000), latest.WorldTime)
}

func TestPlayerRecord_UpdateAdvancesClockMonotonically(t *testing.T) {
	r := NewPlayerRecord(sampleAt(1000, 0, 0, 0))

	wt, err := r.Update(sampleAt(500, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), wt, "clock must not move backwards for an older sample")

	wt, err = r.Update(sampleAt(2000, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2000), wt)
}

func TestPlayerRecord_UpdateIDMismatch(t *testing.T) {
	r := NewPlayerRecord(sampleAt(1000, 0, 0, 0))
	mismatched := sampleAt(1000, 0, 0, 0)
	mismatched.ID = 2

	_, err := r.Update(mismatched)
	assert.ErrorIs(t, err, ErrIDMismatch)
	assert.Equal(t, int64(1000), r.WorldTime, "a rejected sample must not change record state")
}
