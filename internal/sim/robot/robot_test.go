package robot

import (
	"math/rand"
	"testing"

	"ereea.space/internal/sim/knowledge"
	"ereea.space/internal/sim/terrain"
	"ereea.space/internal/sim/tuning"
)

func emptyRows(n int) [][]terrain.Tile {
	rows := make([][]terrain.Tile, n)
	for y := range rows {
		rows[y] = make([]terrain.Tile, n)
	}
	return rows
}

func newTestRobot(typ Type, m *terrain.Map, params tuning.RobotTuning) *Robot {
	return New(1, typ, m.Station(), knowledge.NewGrid(m.Size()), params)
}

func TestExplorer_MovesAndMarksDestination(t *testing.T) {
	m := terrain.FromRows(emptyRows(7))
	p := tuning.Defaults().Robot
	p.SensorRadius = 0
	r := newTestRobot(Explorer, m, p)
	rng := rand.New(rand.NewSource(1))

	fx := r.Step(m, 3, rng)
	if !fx.Moved || fx.Discovered != 1 {
		t.Fatalf("effects=%+v want moved with one discovery", fx)
	}
	if terrain.Chebyshev(r.Pos, r.Home) != 1 {
		t.Fatalf("pos=%v not adjacent to home %v", r.Pos, r.Home)
	}
	c := r.Knowledge.Cell(r.Pos.X, r.Pos.Y)
	if !c.Explored || c.Timestamp != 3 || c.ObserverID != 1 || c.ObserverType != "Explorer" {
		t.Fatalf("destination cell=%+v", c)
	}
	if r.Energy != p.MaxEnergy-p.MoveCost {
		t.Fatalf("energy=%v want=%v", r.Energy, p.MaxEnergy-p.MoveCost)
	}
	if r.Mode != Exploring {
		t.Fatalf("mode=%s want=Exploring", r.Mode)
	}
}

func TestExplorer_AvoidsObstaclesAndPrefersUnexplored(t *testing.T) {
	rows := emptyRows(5)
	for x := 0; x < 5; x++ {
		if x != 2 {
			rows[1][x] = terrain.Obstacle
			rows[3][x] = terrain.Obstacle
		}
	}
	m := terrain.FromRows(rows)
	p := tuning.Defaults().Robot
	p.SensorRadius = 0
	p.ReportAfter = 0
	r := newTestRobot(Explorer, m, p)
	rng := rand.New(rand.NewSource(5))

	r.Survey(m, 0)
	for tick := uint64(1); tick <= 80; tick++ {
		r.Step(m, tick, rng)
		if !m.IsValidPosition(r.Pos.X, r.Pos.Y) {
			t.Fatalf("robot entered invalid cell %v", r.Pos)
		}
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if m.IsValidPosition(x, y) && !r.Knowledge.Explored(x, y) {
				t.Fatalf("reachable cell (%d,%d) never explored", x, y)
			}
		}
	}
}

func TestCollector_CollectsThenReturnsAndDocks(t *testing.T) {
	rows := emptyRows(5)
	rows[2][3] = terrain.Mineral
	m := terrain.FromRows(rows)
	p := tuning.Defaults().Robot
	r := newTestRobot(MineralCollector, m, p)
	rng := rand.New(rand.NewSource(1))
	r.Survey(m, 0)

	r.Step(m, 1, rng)
	if r.Pos != (terrain.Pos{X: 3, Y: 2}) || r.Mode != Collecting {
		t.Fatalf("pos=%v mode=%s want={3 2} Collecting", r.Pos, r.Mode)
	}

	fx := r.Step(m, 2, rng)
	if !fx.Consumed || fx.ConsumedAt != (terrain.Pos{X: 3, Y: 2}) || fx.Resource != terrain.Mineral {
		t.Fatalf("effects=%+v", fx)
	}
	if r.Cargo.Minerals != 1 {
		t.Fatalf("minerals=%d want=1", r.Cargo.Minerals)
	}
	want := p.MaxEnergy - p.MoveCost - p.CollectCost
	if r.Energy != want {
		t.Fatalf("energy=%v want=%v", r.Energy, want)
	}
	if r.Mode != ReturnToStation {
		t.Fatalf("mode=%s want=ReturnToStation (nothing else known nearby)", r.Mode)
	}
	m.ConsumeResource(fx.ConsumedAt.X, fx.ConsumedAt.Y)

	fx = r.Step(m, 3, rng)
	if !fx.Docked || !r.AtHome() {
		t.Fatalf("effects=%+v pos=%v want docked at home", fx, r.Pos)
	}
	tr := r.Apply(Docked, 3)
	if tr.From != ReturnToStation || tr.To != Exploring {
		t.Fatalf("transition=%+v", tr)
	}
	if r.Energy != r.MaxEnergy {
		t.Fatalf("energy=%v not recharged", r.Energy)
	}
	if got := r.UnloadCargo(); got.Minerals != 1 || r.Cargo.Total() != 0 {
		t.Fatalf("unload=%+v remaining=%+v", got, r.Cargo)
	}
}

func TestCollector_ReturnsWhenCargoFull(t *testing.T) {
	rows := emptyRows(5)
	rows[2][3] = terrain.Scientific
	rows[2][4] = terrain.Scientific
	rows[1][4] = terrain.Scientific
	m := terrain.FromRows(rows)
	p := tuning.Defaults().Robot
	p.CargoCapacity = 2
	r := newTestRobot(ScientificCollector, m, p)
	rng := rand.New(rand.NewSource(1))
	r.Survey(m, 0)

	for tick := uint64(1); tick <= 10 && r.Mode != ReturnToStation; tick++ {
		fx := r.Step(m, tick, rng)
		if fx.Consumed {
			m.ConsumeResource(fx.ConsumedAt.X, fx.ConsumedAt.Y)
		}
	}
	if r.Cargo.ScientificData != 2 {
		t.Fatalf("scientific=%d want=2", r.Cargo.ScientificData)
	}
	if r.Mode != ReturnToStation {
		t.Fatalf("mode=%s want=ReturnToStation", r.Mode)
	}
	if m.CountTiles(terrain.Scientific) != 1 {
		t.Fatalf("remaining scientific=%d want=1", m.CountTiles(terrain.Scientific))
	}
}

func TestEnergyCollector_RechargesAndCarriesCells(t *testing.T) {
	rows := emptyRows(5)
	rows[2][3] = terrain.Energy
	m := terrain.FromRows(rows)
	p := tuning.Defaults().Robot
	r := newTestRobot(EnergyCollector, m, p)
	rng := rand.New(rand.NewSource(1))
	r.Survey(m, 0)
	r.Energy = 50

	r.Step(m, 1, rng)
	r.Step(m, 2, rng)
	if r.Cargo.EnergyCells != 1 {
		t.Fatalf("energy cells=%d want=1", r.Cargo.EnergyCells)
	}
	want := 50 - p.MoveCost - p.CollectCost + p.EnergyTileRecharge
	if r.Energy != want {
		t.Fatalf("energy=%v want=%v", r.Energy, want)
	}
}

func TestExplorer_NeverCollects(t *testing.T) {
	rows := emptyRows(3)
	for y := range rows {
		for x := range rows[y] {
			if x != 1 || y != 1 {
				rows[y][x] = terrain.Mineral
			}
		}
	}
	m := terrain.FromRows(rows)
	p := tuning.Defaults().Robot
	p.ReportAfter = 0
	r := newTestRobot(Explorer, m, p)
	rng := rand.New(rand.NewSource(2))
	for tick := uint64(1); tick <= 10; tick++ {
		if fx := r.Step(m, tick, rng); fx.Consumed {
			t.Fatalf("explorer consumed at tick %d", tick)
		}
		if r.Mode == Collecting {
			t.Fatalf("explorer entered Collecting")
		}
	}
}

func TestLowEnergy_TurnsHome(t *testing.T) {
	m := terrain.FromRows(emptyRows(9))
	p := tuning.Defaults().Robot
	r := newTestRobot(Explorer, m, p)
	r.Pos = terrain.Pos{X: 8, Y: 8}
	r.Energy = float64(terrain.Chebyshev(r.Pos, r.Home))*p.MoveCost + p.ReturnReserve

	r.Step(m, 1, rand.New(rand.NewSource(1)))
	if r.Mode != ReturnToStation {
		t.Fatalf("mode=%s want=ReturnToStation", r.Mode)
	}
	if r.Pos != (terrain.Pos{X: 7, Y: 7}) {
		t.Fatalf("pos=%v want={7 7}", r.Pos)
	}
}

func TestReportAfter_TurnsHome(t *testing.T) {
	m := terrain.FromRows(emptyRows(9))
	p := tuning.Defaults().Robot
	p.SensorRadius = 0
	p.ReportAfter = 3
	r := newTestRobot(Explorer, m, p)
	rng := rand.New(rand.NewSource(9))
	for tick := uint64(1); tick <= 3; tick++ {
		r.Step(m, tick, rng)
	}
	if r.Mode != ReturnToStation {
		t.Fatalf("mode=%s want=ReturnToStation after 3 discoveries", r.Mode)
	}
}

func TestEvents(t *testing.T) {
	m := terrain.FromRows(emptyRows(5))
	p := tuning.Defaults().Robot
	r := newTestRobot(Explorer, m, p)
	r.Pos = terrain.Pos{X: 0, Y: 0}
	r.Energy = -1

	tr := r.Apply(ForceRecall, 10)
	if tr.To != Idle || !r.AtHome() || r.Energy != p.MaxEnergy/2 {
		t.Fatalf("after ForceRecall: tr=%+v pos=%v energy=%v", tr, r.Pos, r.Energy)
	}
	if got := r.IdleFor(15); got != 5 {
		t.Fatalf("IdleFor=%d want=5", got)
	}
	r.Step(m, 11, rand.New(rand.NewSource(1)))
	if !r.AtHome() {
		t.Fatalf("idle robot moved")
	}
	if tr := r.Apply(Resume, 20); tr.To != Exploring {
		t.Fatalf("resume: %+v", tr)
	}

	r.Apply(Recall, 21)
	if r.Mode != ReturnToStation || !r.Recalled() {
		t.Fatalf("recall: mode=%s recalled=%v", r.Mode, r.Recalled())
	}
	if tr := r.Apply(Docked, 22); tr.To != Idle {
		t.Fatalf("docked after recall: %+v", tr)
	}
	if tr := r.Apply(Resume, 40); tr.Changed() {
		t.Fatalf("recalled robot resumed: %+v", tr)
	}
}
