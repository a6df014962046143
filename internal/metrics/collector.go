// Package metrics exposes run health to Prometheus. Values are read at
// scrape time from the lock-free views the world, the hub and the index
// already publish, so scraping never touches the tick loop.
package metrics

import (
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ereea.space/internal/persistence/indexdb"
	"ereea.space/internal/sim/world"
	"ereea.space/internal/transport/hub"
)

const namespace = "ereea"

type WorldSource interface{ Metrics() world.WorldMetrics }
type HubSource interface{ Stats() hub.Stats }
type IndexSource interface{ Stats() indexdb.Stats }

// Collector implements prometheus.Collector. Any source may be nil.
type Collector struct {
	world WorldSource
	hub   HubSource
	index IndexSource

	tick          *prometheus.Desc
	mission       *prometheus.Desc
	robots        *prometheus.Desc
	robotsByType  *prometheus.Desc
	exploration   *prometheus.Desc
	conflicts     *prometheus.Desc
	reserves      *prometheus.Desc
	queueDepth    *prometheus.Desc
	snapDropped   *prometheus.Desc
	stepMS        *prometheus.Desc
	observers     *prometheus.Desc
	published     *prometheus.Desc
	observerDrops *prometheus.Desc
	indexQueue    *prometheus.Desc
	indexDropped  *prometheus.Desc
}

func NewCollector(w WorldSource, h HubSource, idx IndexSource) *Collector {
	d := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Collector{
		world: w,
		hub:   h,
		index: idx,

		tick:          d("tick", "Current simulation tick."),
		mission:       d("mission_state", "1 for the current mission state.", "state"),
		robots:        d("robots", "Robots by mode.", "mode"),
		robotsByType:  d("robots_by_type", "Robots by type.", "type"),
		exploration:   d("exploration_percent", "Share of the map in the station's knowledge."),
		conflicts:     d("merge_conflicts_total", "Cells where a merge replaced an older station belief."),
		reserves:      d("station_resources", "Station counters.", "resource"),
		queueDepth:    d("snapshot_queue_depth", "States waiting for the distributor."),
		snapDropped:   d("snapshots_dropped_total", "States evicted from the snapshot queue."),
		stepMS:        d("tick_step_ms", "Duration of the last tick in milliseconds."),
		observers:     d("observers", "Connected observers."),
		published:     d("observer_published_total", "States fanned out to observers."),
		observerDrops: d("observer_dropped_total", "States evicted from observer queues."),
		indexQueue:    d("index_queue_depth", "Writes waiting for the sqlite index."),
		indexDropped:  d("index_dropped_total", "Index writes dropped under load.", "kind"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.tick, c.mission, c.robots, c.robotsByType, c.exploration, c.conflicts, c.reserves,
		c.queueDepth, c.snapDropped, c.stepMS, c.observers, c.published, c.observerDrops,
		c.indexQueue, c.indexDropped,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}

	if c.world != nil {
		m := c.world.Metrics()
		gauge(c.tick, float64(m.Tick))
		for _, st := range []world.MissionState{world.Running, world.MissionComplete, world.Terminated} {
			v := 0.0
			if st.String() == m.Mission {
				v = 1
			}
			gauge(c.mission, v, st.String())
		}
		for _, k := range sortedKeys(m.RobotsByMode) {
			gauge(c.robots, float64(m.RobotsByMode[k]), k)
		}
		for _, k := range sortedKeys(m.RobotsByType) {
			gauge(c.robotsByType, float64(m.RobotsByType[k]), k)
		}
		gauge(c.exploration, m.ExplorationPercentage)
		counter(c.conflicts, float64(m.ConflictCount))
		gauge(c.reserves, float64(m.EnergyReserves), "energy")
		gauge(c.reserves, float64(m.CollectedMinerals), "minerals")
		gauge(c.reserves, float64(m.CollectedScientificData), "scientific_data")
		gauge(c.queueDepth, float64(m.SnapshotQueueDepth))
		counter(c.snapDropped, float64(m.SnapshotsDropped))
		gauge(c.stepMS, m.StepMS)
	}
	if c.hub != nil {
		s := c.hub.Stats()
		gauge(c.observers, float64(s.Observers))
		counter(c.published, float64(s.Published))
		counter(c.observerDrops, float64(s.Dropped))
	}
	if c.index != nil {
		s := c.index.Stats()
		gauge(c.indexQueue, float64(s.QueueDepth))
		counter(c.indexDropped, float64(s.DropTickTotal), "tick")
		counter(c.indexDropped, float64(s.DropSnapshotTotal), "snapshot")
		counter(c.indexDropped, float64(s.DropRunTotal), "run")
	}
}

// Handler serves c together with the Go runtime collectors.
func Handler(c *Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c, prometheus.NewGoCollector())
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
