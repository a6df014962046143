package station

import (
	"errors"
	"fmt"

	"ereea.space/internal/sim/knowledge"
	"ereea.space/internal/sim/robot"
	"ereea.space/internal/sim/terrain"
	"ereea.space/internal/sim/tuning"
)

var ErrNotDocked = errors.New("robot not docked")

// TileCounter is the part of the map the spawn heuristic reads.
type TileCounter interface {
	CountTiles(t terrain.Tile) int
}

// Station owns the resource counters and the authoritative knowledge.
type Station struct {
	Pos terrain.Pos

	EnergyReserves          int
	CollectedMinerals       int
	CollectedScientificData int
	ConflictCount           uint64
	NextRobotID             uint64
	CurrentTime             uint64

	global *knowledge.Grid

	cfg         tuning.StationTuning
	robotParams tuning.RobotTuning
}

func New(pos terrain.Pos, size int, cfg tuning.StationTuning, robotParams tuning.RobotTuning) *Station {
	return &Station{
		Pos:            pos,
		EnergyReserves: cfg.InitialEnergy,
		NextRobotID:    1,
		global:         knowledge.NewGrid(size),
		cfg:            cfg,
		robotParams:    robotParams,
	}
}

func (s *Station) Tick() { s.CurrentTime++ }

// Global is the authoritative knowledge grid. Callers must treat it as
// read-only; it changes only through ShareKnowledge.
func (s *Station) Global() *knowledge.Grid { return s.global }

func (s *Station) ExplorationPercentage() float64 { return s.global.Percentage() }

// ShareKnowledge merges a docked robot's knowledge into the global store and
// then hands the robot a copy of the result.
func (s *Station) ShareKnowledge(r *robot.Robot) (knowledge.MergeResult, error) {
	if r.Pos != r.Home || r.Home != s.Pos {
		return knowledge.MergeResult{}, fmt.Errorf("%w: robot %d at %v", ErrNotDocked, r.ID, r.Pos)
	}
	res, err := knowledge.Merge(s.global, r.Knowledge)
	if err != nil {
		return res, err
	}
	s.ConflictCount += uint64(res.Conflicts)
	r.Knowledge.Overwrite(s.global)
	return res, nil
}

// Commission builds a robot of the given type at no cost. Used for the
// bootstrap fleet.
func (s *Station) Commission(typ robot.Type) *robot.Robot {
	id := s.NextRobotID
	s.NextRobotID++
	return robot.New(id, typ, s.Pos, s.global.Clone(), s.robotParams)
}

func (s *Station) CanAffordRobot() bool {
	return s.EnergyReserves >= s.cfg.SpawnEnergyCost && s.CollectedMinerals >= s.cfg.SpawnMineralCost
}

// TryCreateRobot spends the spawn cost and returns a new robot seeded with
// the global knowledge, or reports false and leaves every counter untouched.
func (s *Station) TryCreateRobot(m TileCounter) (*robot.Robot, bool) {
	if !s.CanAffordRobot() {
		return nil, false
	}
	typ := s.ChooseType(m)
	s.EnergyReserves -= s.cfg.SpawnEnergyCost
	s.CollectedMinerals -= s.cfg.SpawnMineralCost
	return s.Commission(typ), true
}

// ChooseType picks the type of the next robot from the remaining tiles and
// current reserves. First matching rule wins.
func (s *Station) ChooseType(m TileCounter) robot.Type {
	energy := m.CountTiles(terrain.Energy)
	minerals := m.CountTiles(terrain.Mineral)
	science := m.CountTiles(terrain.Scientific)
	switch {
	case energy > 0 && (energy <= 3 || s.EnergyReserves < 100):
		return robot.EnergyCollector
	case minerals > 0 && (minerals <= 5 || s.CollectedMinerals < 30):
		return robot.MineralCollector
	case science > 0 && s.EnergyReserves >= 100:
		return robot.ScientificCollector
	default:
		return robot.Explorer
	}
}

// DepositResources books delivered cargo. Minerals also fund energy 1:1.
func (s *Station) DepositResources(minerals, scientificData int) {
	s.CollectedMinerals += minerals
	s.CollectedScientificData += scientificData
	s.EnergyReserves += minerals
}

func (s *Station) DepositEnergy(cells int) {
	s.EnergyReserves += cells * s.cfg.EnergyCellValue
}

func (s *Station) Status() string {
	var status string
	switch {
	case s.EnergyReserves < 30:
		status = "low energy"
	case s.CollectedMinerals < 10:
		status = "low minerals"
	case s.EnergyReserves >= 200 && s.CollectedMinerals >= 50:
		status = "abundant resources"
	default:
		status = "adequate resources"
	}
	return fmt.Sprintf("%s | robot creation: %d/%d energy, %d/%d minerals",
		status,
		min(s.EnergyReserves, s.cfg.SpawnEnergyCost), s.cfg.SpawnEnergyCost,
		min(s.CollectedMinerals, s.cfg.SpawnMineralCost), s.cfg.SpawnMineralCost)
}
