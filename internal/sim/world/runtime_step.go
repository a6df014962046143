package world

import (
	"time"

	"ereea.space/internal/sim/robot"
)

func (w *World) step() {
	stepStart := time.Now()

	w.station.Tick()
	nowTick := w.station.CurrentTime
	w.tick.Store(nowTick)

	entry := TickLogEntry{Tick: nowTick}

	if w.mission == Running && w.station.ExplorationPercentage() >= w.tune.Tick.ExplorationGoalPercent {
		w.mission = MissionComplete
		w.completeTick = nowTick
		for _, r := range w.robots {
			r.Apply(robot.Recall, nowTick)
		}
		w.log.Printf("mission complete at tick %d: %.1f%% explored, recalling %d robots",
			nowTick, w.station.ExplorationPercentage(), len(w.robots))
	}

	for _, r := range w.robots {
		w.stepRobot(r, nowTick, &entry)
	}

	w.trySpawn(nowTick, &entry)

	if w.mission == MissionComplete && w.allHome() {
		w.mission = Terminated
		w.log.Printf("all robots home at tick %d, terminating", nowTick)
	}

	entry.Mission = w.mission.String()
	entry.ExplorationPercentage = w.station.ExplorationPercentage()
	entry.Robots = len(w.robots)
	entry.Digest = w.stateDigest()
	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}

	state := w.buildState()
	w.latest.Store(&state)
	if sendLatest(w.snapshots, state) {
		w.dropped.Add(1)
		w.dropWarn.Do(func() {
			w.log.Printf("snapshot queue full, dropped oldest (total=%d)", w.dropped.Load())
		})
	}

	every := uint64(w.tune.Tick.SnapshotEveryTicks)
	if w.mission == Terminated || (every > 0 && nowTick%every == 0) {
		w.emitSnapshot(state, entry.Digest)
	}

	w.updateMetrics(time.Since(stepStart))

	if w.mission == Terminated {
		select {
		case w.done <- w.report():
		default:
		}
	}
}

func (w *World) stepRobot(r *robot.Robot, nowTick uint64, entry *TickLogEntry) {
	if r.Mode == robot.Idle {
		if w.mission == Running && r.IdleFor(nowTick) >= uint64(w.tune.Robot.IdleRecoveryTicks) {
			r.Apply(robot.Resume, nowTick)
		}
		return
	}

	fx := r.Step(w.m, nowTick, w.rng)
	if fx.Consumed {
		w.m.ConsumeResource(fx.ConsumedAt.X, fx.ConsumedAt.Y)
	}
	if fx.Docked {
		w.dock(r, entry, false)
		r.Apply(robot.Docked, nowTick)
	}
	if r.Energy <= 0 {
		from := r.Pos
		r.Apply(robot.ForceRecall, nowTick)
		entry.Recalls = append(entry.Recalls, RecallRecord{RobotID: r.ID, From: from})
		w.dock(r, entry, true)
		w.log.Printf("robot %d (%s) exhausted at %v, recalled to station", r.ID, r.Type, from)
	}
}

// dock unloads cargo into the station and exchanges knowledge. The robot
// must already stand on the station tile.
func (w *World) dock(r *robot.Robot, entry *TickLogEntry, forced bool) {
	cargo := r.UnloadCargo()
	w.station.DepositResources(cargo.Minerals, cargo.ScientificData)
	w.station.DepositEnergy(cargo.EnergyCells)

	res, err := w.station.ShareKnowledge(r)
	if err != nil {
		w.log.Printf("robot %d: share knowledge: %v", r.ID, err)
		return
	}
	entry.Merges = append(entry.Merges, MergeRecord{
		RobotID:   r.ID,
		Adopted:   res.Adopted,
		Conflicts: res.Conflicts,
		Forced:    forced,
		Cargo:     cargo,
	})
}

func (w *World) trySpawn(nowTick uint64, entry *TickLogEntry) {
	if w.mission != Running {
		return
	}
	if nowTick-w.lastSpawnTick < uint64(w.tune.Tick.SpawnEveryTicks) {
		return
	}
	if limit := w.tune.Tick.MaxRobots; limit > 0 && len(w.robots) >= limit {
		return
	}
	r, ok := w.station.TryCreateRobot(w.m)
	if !ok {
		return
	}
	r.Survey(w.m, nowTick)
	w.robots = append(w.robots, r)
	w.lastSpawnTick = nowTick
	entry.Spawns = append(entry.Spawns, SpawnRecord{RobotID: r.ID, RobotType: r.Type.String()})
	w.log.Printf("spawned robot %d (%s) at tick %d", r.ID, r.Type, nowTick)
}

func (w *World) allHome() bool {
	for _, r := range w.robots {
		if !r.AtHome() {
			return false
		}
	}
	return true
}

func (w *World) report() MissionReport {
	return MissionReport{
		RunID:                   w.cfg.RunID,
		Tick:                    w.tick.Load(),
		CompleteTick:            w.completeTick,
		ExplorationPercentage:   w.station.ExplorationPercentage(),
		ConflictCount:           w.station.ConflictCount,
		Robots:                  len(w.robots),
		EnergyReserves:          w.station.EnergyReserves,
		CollectedMinerals:       w.station.CollectedMinerals,
		CollectedScientificData: w.station.CollectedScientificData,
	}
}
