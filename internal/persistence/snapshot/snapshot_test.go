package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ereea.space/internal/observerproto"
	"ereea.space/internal/sim/tuning"
)

func sample() SnapshotV1 {
	return SnapshotV1{
		Header:  Header{Version: Version, RunID: "r", Tick: 300},
		Seed:    9,
		Tuning:  tuning.Defaults(),
		Mission: "MissionComplete",
		Digest:  "feed",
		Global: []KnowledgeCellV1{
			{Explored: true, Timestamp: 12, ObserverID: 2, ObserverType: "Explorer"},
			{},
		},
		State: observerproto.StateMsg{
			Type:      observerproto.TypeState,
			Iteration: 300,
			Map:       observerproto.MapData{Tiles: [][]string{{"Empty", "Mineral"}}, StationX: 0},
			Robots:    []observerproto.RobotData{{ID: 1, RobotType: "Explorer", Mode: "Idle"}},
		},
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snaps", FileName(300))
	want := sample()
	require.NoError(t, WriteSnapshot(path, want))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, want.Header, h)

	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, want.Tuning, got.Tuning)
	assert.Equal(t, want.Global, got.Global)
	assert.Equal(t, want.State.Map.Tiles, got.State.Map.Tiles)
	assert.Equal(t, "Idle", got.State.Robots[0].Mode)
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.snap.zst")
	s := sample()
	s.Header.Version = 99
	require.NoError(t, WriteSnapshot(path, s))
	_, err := ReadSnapshot(path)
	assert.Error(t, err)
}

func TestReadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd"), 0o644))
	_, err := ReadSnapshot(path)
	assert.Error(t, err)
}

func TestFileNameSortsByTick(t *testing.T) {
	assert.Less(t, FileName(99), FileName(100))
}
