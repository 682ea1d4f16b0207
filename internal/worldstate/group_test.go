package worldstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerGroup_AddIsIdempotent(t *testing.T) {
	g := NewPlayerGroup()
	g.Add(1)
	g.Add(2)
	g.Add(1)

	require.Equal(t, 2, g.Len())
	assert.Equal(t, []int32{1, 2}, g.Iter())
}

func TestPlayerGroup_RemovePreservesOrder(t *testing.T) {
	g := NewPlayerGroup()
	g.Add(1)
	g.Add(2)
	g.Add(3)

	g.Remove(2)
	assert.Equal(t, []int32{1, 3}, g.Iter())
	assert.False(t, g.Contains(2))
}

func TestPlayerGroup_IterIsSnapshot(t *testing.T) {
	g := NewPlayerGroup()
	g.Add(1)
	snapshot := g.Iter()
	g.Add(2)

	assert.Equal(t, []int32{1}, snapshot)
	assert.Equal(t, []int32{1, 2}, g.Iter())
}

func TestPlayerGroup_Clear(t *testing.T) {
	g := NewPlayerGroup()
	g.Add(1)
	g.Add(2)
	g.Clear()

	assert.Equal(t, 0, g.Len())
	assert.False(t, g.Contains(1))
}
