package view

import (
	"strings"
	"testing"

	"ereea.space/internal/observerproto"
	"ereea.space/internal/sim/terrain"
)

func testState() *observerproto.StateMsg {
	tiles := [][]string{
		{"Empty", "Obstacle", "Energy"},
		{"Mineral", "Empty", "Scientific"},
		{"Empty", "Empty", "Empty"},
	}
	return &observerproto.StateMsg{
		Map: observerproto.MapData{Tiles: tiles, StationX: 1, StationY: 1},
		Robots: []observerproto.RobotData{
			{ID: 3, X: 1, Y: 1, RobotType: "Explorer"},
			{ID: 7, X: 0, Y: 2, RobotType: "MineralCollector"},
		},
	}
}

func allExplored(n int) [][]bool {
	m := make([][]bool, n)
	for y := range m {
		m[y] = make([]bool, n)
		for x := range m[y] {
			m[y][x] = true
		}
	}
	return m
}

func TestAt_Precedence(t *testing.T) {
	s := testState()
	mask := allExplored(3)

	if g := At(s, mask, 1, 1); g.Kind != Station {
		t.Fatalf("station cell kind=%d want=Station (robot on the station is hidden)", g.Kind)
	}
	g := At(s, mask, 0, 2)
	if g.Kind != Robot || g.Letter != 'M' || g.RobotID != 7 {
		t.Fatalf("robot cell=%+v", g)
	}
	if g := At(s, mask, 2, 0); g.Kind != Explored || g.Tile != terrain.Energy {
		t.Fatalf("energy cell=%+v", g)
	}
}

func TestAt_MaskHidesTerrain(t *testing.T) {
	s := testState()
	mask := make([][]bool, 3)
	for y := range mask {
		mask[y] = make([]bool, 3)
	}
	mask[0][1] = true

	if g := At(s, mask, 1, 0); g.Kind != Explored || g.Tile != terrain.Obstacle {
		t.Fatalf("explored obstacle=%+v", g)
	}
	if g := At(s, mask, 2, 0); g.Kind != Unexplored {
		t.Fatalf("unexplored energy revealed: %+v", g)
	}
	if g := At(s, mask, 0, 2); g.Kind != Robot {
		t.Fatalf("robots are shown regardless of mask: %+v", g)
	}
	if g := At(s, nil, 2, 2); g.Kind != Unexplored {
		t.Fatalf("nil mask=%+v", g)
	}
}

func TestRender(t *testing.T) {
	s := testState()
	out := Render(s, allExplored(3))
	want := strings.Join([]string{
		"· ██♦ ",
		"★ []○ ",
		"M:· · ",
	}, "\n") + "\n"
	if out != want {
		t.Fatalf("render:\n%s\nwant:\n%s", out, want)
	}
}
