package world

import "time"

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick    uint64 `json:"tick"`
	Mission string `json:"mission"`

	Robots       int            `json:"robots"`
	RobotsByMode map[string]int `json:"robots_by_mode"`
	RobotsByType map[string]int `json:"robots_by_type"`

	ExplorationPercentage float64 `json:"exploration_percentage"`
	ConflictCount         uint64  `json:"conflict_count"`

	EnergyReserves          int `json:"energy_reserves"`
	CollectedMinerals       int `json:"collected_minerals"`
	CollectedScientificData int `json:"collected_scientific_data"`

	SnapshotQueueDepth int    `json:"snapshot_queue_depth"`
	SnapshotsDropped   uint64 `json:"snapshots_dropped"`

	StepMS float64 `json:"step_ms"`
}

func (w *World) updateMetrics(stepDur time.Duration) {
	byMode := map[string]int{}
	byType := map[string]int{}
	for _, r := range w.robots {
		byMode[r.Mode.String()]++
		byType[r.Type.String()]++
	}
	st := w.station
	w.metrics.Store(WorldMetrics{
		Tick:                    st.CurrentTime,
		Mission:                 w.mission.String(),
		Robots:                  len(w.robots),
		RobotsByMode:            byMode,
		RobotsByType:            byType,
		ExplorationPercentage:   st.ExplorationPercentage(),
		ConflictCount:           st.ConflictCount,
		EnergyReserves:          st.EnergyReserves,
		CollectedMinerals:       st.CollectedMinerals,
		CollectedScientificData: st.CollectedScientificData,
		SnapshotQueueDepth:      len(w.snapshots),
		SnapshotsDropped:        w.dropped.Load(),
		StepMS:                  float64(stepDur.Microseconds()) / 1000.0,
	})
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
