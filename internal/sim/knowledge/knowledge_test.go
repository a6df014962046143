package knowledge

import "testing"

func TestObserve_FreshAndStale(t *testing.T) {
	g := NewGrid(4)
	if !g.Observe(1, 2, 5, 1, "Explorer") {
		t.Fatalf("first observation should be fresh")
	}
	if g.Observe(1, 2, 9, 2, "MineralCollector") {
		t.Fatalf("second observation should not be fresh")
	}
	if c := g.Cell(1, 2); c.Timestamp != 9 || c.ObserverID != 2 {
		t.Fatalf("cell=%+v want timestamp=9 observer=2", c)
	}
	g.Observe(1, 2, 3, 3, "Explorer")
	if c := g.Cell(1, 2); c.Timestamp != 9 {
		t.Fatalf("older observation rewound cell: %+v", c)
	}
	if g.Observe(9, 9, 1, 1, "Explorer") {
		t.Fatalf("out-of-bounds observation reported fresh")
	}
}

func TestPercentage(t *testing.T) {
	g := NewGrid(10)
	for x := 0; x < 10; x++ {
		g.Observe(x, 0, 1, 1, "Explorer")
	}
	if got := g.Percentage(); got != 10 {
		t.Fatalf("percentage=%v want=10", got)
	}
	mask := g.Mask()
	if !mask[0][9] || mask[1][0] {
		t.Fatalf("mask mismatch: row0=%v row1=%v", mask[0], mask[1])
	}
}

func TestMerge_NewerRobotRecordWinsAndCountsConflict(t *testing.T) {
	station := NewGrid(20)
	robot := NewGrid(20)
	station.Observe(5, 5, 7, 9, "Explorer")
	robot.Observe(5, 5, 10, 1, "EnergyCollector")

	res, err := Merge(station, robot)
	if err != nil {
		t.Fatal(err)
	}
	if res.Conflicts != 1 || res.Adopted != 0 {
		t.Fatalf("result=%+v want conflicts=1 adopted=0", res)
	}
	c := station.Cell(5, 5)
	if c.Timestamp != 10 || c.ObserverID != 1 || c.ObserverType != "EnergyCollector" {
		t.Fatalf("station cell=%+v", c)
	}
}

func TestMerge_TiesAndOlderKeepDestination(t *testing.T) {
	station := NewGrid(3)
	robot := NewGrid(3)
	station.Observe(0, 0, 4, 9, "Explorer")
	robot.Observe(0, 0, 4, 1, "Explorer")
	station.Observe(1, 1, 8, 9, "Explorer")
	robot.Observe(1, 1, 2, 1, "Explorer")
	robot.Observe(2, 2, 1, 1, "Explorer")

	res, err := Merge(station, robot)
	if err != nil {
		t.Fatal(err)
	}
	if res.Conflicts != 0 || res.Adopted != 1 {
		t.Fatalf("result=%+v want conflicts=0 adopted=1", res)
	}
	if station.Cell(0, 0).ObserverID != 9 || station.Cell(1, 1).Timestamp != 8 {
		t.Fatalf("station lost its records")
	}
	if !station.Explored(2, 2) {
		t.Fatalf("unexplored cell not adopted")
	}
}

func TestMerge_Idempotent(t *testing.T) {
	station := NewGrid(6)
	robot := NewGrid(6)
	for i := 0; i < 6; i++ {
		station.Observe(i, i, uint64(i), 9, "Explorer")
		robot.Observe(i, i, uint64(i+1), 1, "Explorer")
		robot.Observe(i, 0, 3, 1, "Explorer")
	}
	if _, err := Merge(station, robot); err != nil {
		t.Fatal(err)
	}
	again, err := Merge(station, robot)
	if err != nil {
		t.Fatal(err)
	}
	if again != (MergeResult{}) {
		t.Fatalf("second merge=%+v want zero", again)
	}
}

func TestMerge_SizeMismatch(t *testing.T) {
	if _, err := Merge(NewGrid(2), NewGrid(3)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewGrid(3)
	g.Observe(0, 0, 1, 1, "Explorer")
	c := g.Clone()
	if !c.Equal(g) {
		t.Fatalf("clone differs")
	}
	c.Observe(1, 1, 2, 2, "Explorer")
	if g.Explored(1, 1) {
		t.Fatalf("clone shares storage")
	}
	g.Overwrite(c)
	if !g.Equal(c) {
		t.Fatalf("overwrite did not copy")
	}
}
