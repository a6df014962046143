// Package view maps a state snapshot onto per-cell glyphs for viewers.
// It never looks at live world state.
package view

import (
	"strings"

	"ereea.space/internal/observerproto"
	"ereea.space/internal/sim/robot"
	"ereea.space/internal/sim/terrain"
)

type Kind uint8

const (
	Unexplored Kind = iota
	Explored
	Station
	Robot
)

// Glyph is what occupies one cell on screen.
type Glyph struct {
	Kind Kind
	// Tile is set for Explored.
	Tile terrain.Tile
	// Letter and RobotID are set for Robot.
	Letter  byte
	RobotID uint64
}

// At resolves the glyph at (x, y). The station wins over robots, robots win
// over terrain, and terrain is only revealed where mask is true. mask may be
// the global exploration or a single robot's knowledge.
func At(state *observerproto.StateMsg, mask [][]bool, x, y int) Glyph {
	if x == state.Map.StationX && y == state.Map.StationY {
		return Glyph{Kind: Station}
	}
	for _, r := range state.Robots {
		if r.X == x && r.Y == y {
			return Glyph{Kind: Robot, Letter: letter(r.RobotType), RobotID: r.ID}
		}
	}
	if y < 0 || y >= len(mask) || x < 0 || x >= len(mask[y]) || !mask[y][x] {
		return Glyph{Kind: Unexplored}
	}
	if y >= len(state.Map.Tiles) || x >= len(state.Map.Tiles[y]) {
		return Glyph{Kind: Unexplored}
	}
	t, err := terrain.ParseTile(state.Map.Tiles[y][x])
	if err != nil {
		return Glyph{Kind: Unexplored}
	}
	return Glyph{Kind: Explored, Tile: t}
}

func letter(robotType string) byte {
	t, err := robot.ParseType(robotType)
	if err != nil {
		return '?'
	}
	return t.Strategy().Glyph
}

// Cell is the two-column terminal rendering of g.
func (g Glyph) Cell() string {
	switch g.Kind {
	case Station:
		return "[]"
	case Robot:
		return string(g.Letter) + ":"
	case Explored:
		switch g.Tile {
		case terrain.Empty:
			return "· "
		case terrain.Obstacle:
			return "██"
		case terrain.Energy:
			return "♦ "
		case terrain.Mineral:
			return "★ "
		case terrain.Scientific:
			return "○ "
		}
	}
	return "  "
}

// Render draws the whole grid, one line per row.
func Render(state *observerproto.StateMsg, mask [][]bool) string {
	var b strings.Builder
	for y := range state.Map.Tiles {
		for x := range state.Map.Tiles[y] {
			b.WriteString(At(state, mask, x, y).Cell())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
