package world

import (
	"context"
	"errors"
	"fmt"

	"ereea.space/internal/observerproto"
	"ereea.space/internal/persistence/snapshot"
)

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

// Snapshots is the bounded per-tick state queue. When the consumer falls
// behind, the oldest queued state is dropped.
func (w *World) Snapshots() <-chan observerproto.StateMsg { return w.snapshots }

// Done yields the mission report once the mission has terminated.
func (w *World) Done() <-chan MissionReport { return w.done }

// Latest returns the state published at the end of the most recent tick.
func (w *World) Latest() observerproto.StateMsg {
	if p := w.latest.Load(); p != nil {
		return *p
	}
	return observerproto.StateMsg{}
}

// Snapshot builds the current state on the loop goroutine. After the loop
// has exited it falls back to the last published state.
func (w *World) Snapshot(ctx context.Context) (observerproto.StateMsg, error) {
	var out observerproto.StateMsg
	err := w.do(ctx, func() { out = w.buildState() })
	if errors.Is(err, ErrStopped) {
		return w.Latest(), nil
	}
	return out, err
}

// RobotKnowledge returns a copy of one robot's explored mask, indexed [y][x].
func (w *World) RobotKnowledge(ctx context.Context, id uint64) ([][]bool, error) {
	var (
		mask  [][]bool
		found bool
	)
	err := w.do(ctx, func() {
		for _, r := range w.robots {
			if r.ID == id {
				mask, found = r.Knowledge.Mask(), true
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("robot %d not found", id)
	}
	return mask, nil
}

// ExportSnapshot captures the full persisted state from the loop goroutine.
func (w *World) ExportSnapshot(ctx context.Context) (snapshot.SnapshotV1, error) {
	var out snapshot.SnapshotV1
	err := w.do(ctx, func() { out = w.exportSnapshot(w.buildState(), w.stateDigest()) })
	return out, err
}

func (w *World) Bootstrap() observerproto.BootstrapResponse {
	m := w.Metrics()
	return observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		RunID:           w.cfg.RunID,
		Tick:            m.Tick,
		Seed:            w.cfg.Seed,
		MapSize:         w.tune.Map.Size,
		TickIntervalMs:  w.tune.Tick.IntervalMs,
		Mission:         m.Mission,
	}
}
