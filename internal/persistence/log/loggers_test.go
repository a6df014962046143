package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ereea.space/internal/sim/world"
)

func TestTickLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for tick := uint64(1); tick <= 3; tick++ {
		require.NoError(t, l.WriteTick(world.TickLogEntry{
			Tick:                  tick,
			Mission:               "Running",
			ExplorationPercentage: float64(tick),
			Spawns:                []world.SpawnRecord{{RobotID: tick, RobotType: "Explorer"}},
			Digest:                "d",
		}))
	}
	require.NoError(t, l.Close())

	files, err := TickFiles(dir)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var got []world.TickLogEntry
	for _, f := range files {
		entries, err := ReadTicks(f)
		require.NoError(t, err)
		got = append(got, entries...)
	}
	require.Len(t, got, 3)
	assert.Equal(t, uint64(3), got[2].Tick)
	assert.Equal(t, uint64(2), got[1].Spawns[0].RobotID)
}

func TestTickLogger_CloseWithoutWrites(t *testing.T) {
	l := NewTickLogger(t.TempDir())
	assert.NoError(t, l.Close())
}
