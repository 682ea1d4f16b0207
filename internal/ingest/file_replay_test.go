package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReplayFile(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "replay.ndjson")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileReplay_DecodesBatchesInOrder(t *testing.T) {
	path := writeReplayFile(t,
		`[{"id":1,"group_id":1,"world_time":100,"x":1,"y":2,"distance":3}]`,
		`[{"id":2,"group_id":1,"world_time":200,"x":4,"y":5,"distance":6},{"id":3,"group_id":2,"world_time":210}]`,
	)

	replay, err := NewFileReplay(path, 0)
	require.NoError(t, err)
	defer replay.Close()

	ctx := context.Background()

	batch1, ok, err := replay.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, batch1, 1)
	assert.Equal(t, int32(1), batch1[0].ID)
	assert.Equal(t, int64(100), batch1[0].WorldTime)

	batch2, ok, err := replay.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, batch2, 2)
	assert.Equal(t, int32(3), batch2[1].ID)

	_, ok, err = replay.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "exhausted source reports ok=false with no error")
}

func TestFileReplay_SkipsBlankLines(t *testing.T) {
	path := writeReplayFile(t, "", `[{"id":1,"group_id":1,"world_time":1}]`, "")

	replay, err := NewFileReplay(path, 0)
	require.NoError(t, err)
	defer replay.Close()

	batch, ok, err := replay.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, batch, 1)
}

func TestFileReplay_RespectsContextCancellation(t *testing.T) {
	path := writeReplayFile(t,
		`[{"id":1,"group_id":1,"world_time":1}]`,
		`[{"id":2,"group_id":1,"world_time":2}]`,
	)

	replay, err := NewFileReplay(path, time.Hour)
	require.NoError(t, err)
	defer replay.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := replay.Next(ctx)
	assert.False(t, ok)
	assert.Error(t, err)
}
