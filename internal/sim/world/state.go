package world

import (
	"ereea.space/internal/observerproto"
	"ereea.space/internal/persistence/snapshot"
)

// buildState copies everything observers see into fresh slices, so the
// result stays valid after the world moves on.
func (w *World) buildState() observerproto.StateMsg {
	size := w.m.Size()
	tiles := make([][]string, size)
	for y := 0; y < size; y++ {
		row := make([]string, size)
		for x := 0; x < size; x++ {
			row[x] = w.m.Tile(x, y).String()
		}
		tiles[y] = row
	}

	robots := make([]observerproto.RobotData, 0, len(w.robots))
	for _, r := range w.robots {
		robots = append(robots, observerproto.RobotData{
			ID:                    r.ID,
			X:                     r.Pos.X,
			Y:                     r.Pos.Y,
			Energy:                r.Energy,
			MaxEnergy:             r.MaxEnergy,
			Minerals:              r.Cargo.Minerals,
			ScientificData:        r.Cargo.ScientificData,
			EnergyCells:           r.Cargo.EnergyCells,
			RobotType:             r.Type.String(),
			Mode:                  r.Mode.String(),
			ExplorationPercentage: r.ExplorationPercentage(),
		})
	}

	st := w.station
	return observerproto.StateMsg{
		Type:            observerproto.TypeState,
		ProtocolVersion: observerproto.Version,
		RunID:           w.cfg.RunID,
		Iteration:       st.CurrentTime,
		Mission:         w.mission.String(),
		Map: observerproto.MapData{
			Tiles:    tiles,
			StationX: st.Pos.X,
			StationY: st.Pos.Y,
		},
		Robots: robots,
		Station: observerproto.StationData{
			EnergyReserves:          st.EnergyReserves,
			CollectedMinerals:       st.CollectedMinerals,
			CollectedScientificData: st.CollectedScientificData,
			ExplorationPercentage:   st.ExplorationPercentage(),
			ConflictCount:           st.ConflictCount,
			RobotCount:              len(w.robots),
			StatusMessage:           st.Status(),
		},
		Exploration: observerproto.ExplorationData{
			ExploredTiles: st.Global().Mask(),
		},
	}
}

func (w *World) exportSnapshot(state observerproto.StateMsg, digest string) snapshot.SnapshotV1 {
	g := w.station.Global()
	size := g.Size()
	cells := make([]snapshot.KnowledgeCellV1, 0, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := g.Cell(x, y)
			cells = append(cells, snapshot.KnowledgeCellV1{
				Explored:     c.Explored,
				Timestamp:    c.Timestamp,
				ObserverID:   c.ObserverID,
				ObserverType: c.ObserverType,
			})
		}
	}
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			RunID:   w.cfg.RunID,
			Tick:    state.Iteration,
		},
		Seed:         w.cfg.Seed,
		Tuning:       w.tune,
		Mission:      w.mission.String(),
		CompleteTick: w.completeTick,
		Digest:       digest,
		Generation: snapshot.GenerationV1{
			Carves:      w.gen.Carves,
			CarvedSteps: w.gen.CarvedSteps,
			Cleared:     w.gen.Cleared,
		},
		Global: cells,
		State:  state,
	}
}

func (w *World) emitSnapshot(state observerproto.StateMsg, digest string) {
	if w.snapshotSink == nil {
		return
	}
	snap := w.exportSnapshot(state, digest)
	select {
	case w.snapshotSink <- snap:
	default:
		w.log.Printf("snapshot sink full, skipped tick %d", state.Iteration)
	}
}
