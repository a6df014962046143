package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ereea.space/internal/persistence/indexdb"
	"ereea.space/internal/sim/world"
	"ereea.space/internal/transport/hub"
)

type fakeWorld struct{ m world.WorldMetrics }

func (f fakeWorld) Metrics() world.WorldMetrics { return f.m }

type fakeHub struct{ s hub.Stats }

func (f fakeHub) Stats() hub.Stats { return f.s }

type fakeIndex struct{ s indexdb.Stats }

func (f fakeIndex) Stats() indexdb.Stats { return f.s }

func sampleCollector() *Collector {
	return NewCollector(
		fakeWorld{world.WorldMetrics{
			Tick:                  120,
			Mission:               "MissionComplete",
			Robots:                6,
			RobotsByMode:          map[string]int{"Exploring": 4, "Idle": 2},
			RobotsByType:          map[string]int{"Explorer": 3, "MineralCollector": 3},
			ExplorationPercentage: 91.5,
			ConflictCount:         17,
			EnergyReserves:        240,
			SnapshotsDropped:      3,
		}},
		fakeHub{hub.Stats{Observers: 2, Published: 119, Dropped: 5}},
		fakeIndex{indexdb.Stats{QueueDepth: 4, DropTickTotal: 1}},
	)
}

func TestCollectorValues(t *testing.T) {
	c := sampleCollector()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP ereea_mission_state 1 for the current mission state.
# TYPE ereea_mission_state gauge
ereea_mission_state{state="MissionComplete"} 1
ereea_mission_state{state="Running"} 0
ereea_mission_state{state="Terminated"} 0
# HELP ereea_robots Robots by mode.
# TYPE ereea_robots gauge
ereea_robots{mode="Exploring"} 4
ereea_robots{mode="Idle"} 2
# HELP ereea_tick Current simulation tick.
# TYPE ereea_tick gauge
ereea_tick 120
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"ereea_tick", "ereea_mission_state", "ereea_robots"))
}

func TestCollectorCounts(t *testing.T) {
	// 1 tick, 3 mission, 2 modes, 2 types, exploration, conflicts, 3 station,
	// queue depth, dropped, step ms, 3 hub, 1 index queue, 3 index drops
	assert.Equal(t, 23, testutil.CollectAndCount(sampleCollector()))
	assert.Equal(t, 3, testutil.CollectAndCount(sampleCollector(), "ereea_index_dropped_total"))
}

func TestCollectorNilSources(t *testing.T) {
	c := NewCollector(nil, nil, nil)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestHandlerServesText(t *testing.T) {
	srv := httptest.NewServer(Handler(sampleCollector()))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ereea_observer_dropped_total 5")
	assert.Contains(t, string(body), `ereea_station_resources{resource="energy"} 240`)
	assert.Contains(t, string(body), "go_goroutines")
}
