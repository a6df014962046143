package station

import (
	"errors"
	"strings"
	"testing"

	"ereea.space/internal/sim/robot"
	"ereea.space/internal/sim/terrain"
	"ereea.space/internal/sim/tuning"
)

type counts map[terrain.Tile]int

func (c counts) CountTiles(t terrain.Tile) int { return c[t] }

func newTestStation() *Station {
	tune := tuning.Defaults()
	return New(terrain.Pos{X: 10, Y: 10}, 20, tune.Station, tune.Robot)
}

func TestTryCreateRobot_SpawnScenario(t *testing.T) {
	s := newTestStation()
	s.EnergyReserves = 100
	s.CollectedMinerals = 15
	s.NextRobotID = 5
	s.global.Observe(3, 3, 2, 1, "Explorer")

	r, ok := s.TryCreateRobot(counts{terrain.Energy: 2})
	if !ok {
		t.Fatalf("spawn failed")
	}
	if r.Type != robot.EnergyCollector {
		t.Fatalf("type=%s want=EnergyCollector", r.Type)
	}
	if s.EnergyReserves != 50 || s.CollectedMinerals != 0 {
		t.Fatalf("reserves=%d minerals=%d want=50/0", s.EnergyReserves, s.CollectedMinerals)
	}
	if r.ID != 5 || s.NextRobotID != 6 {
		t.Fatalf("id=%d next=%d want=5/6", r.ID, s.NextRobotID)
	}
	if r.Pos != s.Pos || r.Mode != robot.Exploring {
		t.Fatalf("pos=%v mode=%s", r.Pos, r.Mode)
	}
	if !r.Knowledge.Equal(s.Global()) {
		t.Fatalf("new robot not seeded with global knowledge")
	}
	r.Knowledge.Observe(0, 0, 9, r.ID, "EnergyCollector")
	if s.Global().Explored(0, 0) {
		t.Fatalf("robot knowledge aliases the station's")
	}
}

func TestTryCreateRobot_InsufficientLeavesCountersUntouched(t *testing.T) {
	cases := []struct{ energy, minerals int }{
		{49, 100},
		{100, 14},
		{0, 0},
	}
	for _, tc := range cases {
		s := newTestStation()
		s.EnergyReserves = tc.energy
		s.CollectedMinerals = tc.minerals
		next := s.NextRobotID
		if r, ok := s.TryCreateRobot(counts{terrain.Energy: 9}); ok || r != nil {
			t.Fatalf("energy=%d minerals=%d: spawn succeeded", tc.energy, tc.minerals)
		}
		if s.EnergyReserves != tc.energy || s.CollectedMinerals != tc.minerals || s.NextRobotID != next {
			t.Fatalf("counters changed: %d/%d next=%d", s.EnergyReserves, s.CollectedMinerals, s.NextRobotID)
		}
	}
}

func TestChooseType_RuleOrder(t *testing.T) {
	cases := []struct {
		name     string
		energy   int
		minerals int
		tiles    counts
		want     robot.Type
	}{
		{"few energy tiles", 500, 500, counts{terrain.Energy: 3, terrain.Mineral: 1}, robot.EnergyCollector},
		{"low reserves", 99, 500, counts{terrain.Energy: 40}, robot.EnergyCollector},
		{"plenty of energy", 100, 10, counts{terrain.Energy: 40, terrain.Mineral: 40}, robot.MineralCollector},
		{"few mineral tiles", 100, 500, counts{terrain.Energy: 40, terrain.Mineral: 5}, robot.MineralCollector},
		{"science", 100, 30, counts{terrain.Energy: 40, terrain.Mineral: 40, terrain.Scientific: 1}, robot.ScientificCollector},
		{"science needs reserves", 99, 30, counts{terrain.Scientific: 4}, robot.Explorer},
		{"nothing left", 500, 500, counts{}, robot.Explorer},
	}
	for _, tc := range cases {
		s := newTestStation()
		s.EnergyReserves = tc.energy
		s.CollectedMinerals = tc.minerals
		if got := s.ChooseType(tc.tiles); got != tc.want {
			t.Fatalf("%s: got=%s want=%s", tc.name, got, tc.want)
		}
	}
}

func TestShareKnowledge_MergeScenario(t *testing.T) {
	s := newTestStation()
	a := s.Commission(robot.Explorer)
	s.global.Observe(5, 5, 7, 99, "Explorer")
	a.Knowledge.Observe(5, 5, 10, a.ID, "Explorer")
	a.Knowledge.Observe(6, 6, 4, a.ID, "Explorer")

	res, err := s.ShareKnowledge(a)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if s.ConflictCount != 1 || res.Conflicts != 1 || res.Adopted != 1 {
		t.Fatalf("conflicts=%d res=%+v", s.ConflictCount, res)
	}
	c := s.Global().Cell(5, 5)
	if c.Timestamp != 10 || c.ObserverID != a.ID {
		t.Fatalf("cell=%+v want timestamp=10 observer=%d", c, a.ID)
	}
	if !a.Knowledge.Equal(s.Global()) {
		t.Fatalf("robot knowledge differs from station after merge")
	}

	if _, err := s.ShareKnowledge(a); err != nil {
		t.Fatal(err)
	}
	if s.ConflictCount != 1 {
		t.Fatalf("repeat merge changed conflicts to %d", s.ConflictCount)
	}
}

func TestShareKnowledge_RequiresDock(t *testing.T) {
	s := newTestStation()
	a := s.Commission(robot.Explorer)
	a.Pos = terrain.Pos{X: 0, Y: 0}
	if _, err := s.ShareKnowledge(a); !errors.Is(err, ErrNotDocked) {
		t.Fatalf("err=%v want ErrNotDocked", err)
	}
}

func TestDeposit(t *testing.T) {
	s := newTestStation()
	s.DepositResources(4, 3)
	if s.CollectedMinerals != 4 || s.CollectedScientificData != 3 || s.EnergyReserves != 104 {
		t.Fatalf("counters=%d/%d/%d", s.CollectedMinerals, s.CollectedScientificData, s.EnergyReserves)
	}
	s.DepositEnergy(2)
	if s.EnergyReserves != 124 {
		t.Fatalf("reserves=%d want=124", s.EnergyReserves)
	}
}

func TestStatus(t *testing.T) {
	s := newTestStation()
	s.EnergyReserves = 20
	if got := s.Status(); !strings.HasPrefix(got, "low energy |") || !strings.Contains(got, "20/50 energy, 0/15 minerals") {
		t.Fatalf("status=%q", got)
	}
	s.EnergyReserves = 250
	s.CollectedMinerals = 60
	if got := s.Status(); got != "abundant resources | robot creation: 50/50 energy, 15/15 minerals" {
		t.Fatalf("status=%q", got)
	}
	s.CollectedMinerals = 5
	if got := s.Status(); !strings.HasPrefix(got, "low minerals") {
		t.Fatalf("status=%q", got)
	}
	s.EnergyReserves = 100
	s.CollectedMinerals = 20
	if got := s.Status(); !strings.HasPrefix(got, "adequate resources") {
		t.Fatalf("status=%q", got)
	}
}

func TestExplorationPercentage(t *testing.T) {
	s := newTestStation()
	for x := 0; x < 20; x++ {
		s.global.Observe(x, 0, 1, 1, "Explorer")
	}
	if got := s.ExplorationPercentage(); got != 5 {
		t.Fatalf("percentage=%v want=5", got)
	}
}
