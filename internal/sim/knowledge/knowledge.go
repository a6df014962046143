// Package knowledge holds exploration beliefs: one Cell per grid square
// recording whether it was seen, when, and by whom. Each robot carries a
// private Grid and the station keeps the authoritative one; they are only
// reconciled through Merge.
package knowledge

// Cell is a belief about one square, not ground truth.
type Cell struct {
	Explored     bool   `json:"explored"`
	Timestamp    uint64 `json:"timestamp"`
	ObserverID   uint64 `json:"observer_id"`
	ObserverType string `json:"observer_type"`
}

type Grid struct {
	size  int
	cells []Cell
}

func NewGrid(size int) *Grid {
	if size < 1 {
		size = 1
	}
	return &Grid{size: size, cells: make([]Cell, size*size)}
}

func (g *Grid) Size() int { return g.size }

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.size && y < g.size
}

// Cell returns a copy of the belief at (x,y); out-of-bounds reads as unexplored.
func (g *Grid) Cell(x, y int) Cell {
	if !g.inBounds(x, y) {
		return Cell{}
	}
	return g.cells[y*g.size+x]
}

func (g *Grid) Explored(x, y int) bool {
	return g.Cell(x, y).Explored
}

// Observe records that observerID saw (x,y) at tick. It reports whether the
// cell was previously unexplored. A tick older than the stored one is ignored.
func (g *Grid) Observe(x, y int, tick, observerID uint64, observerType string) bool {
	if !g.inBounds(x, y) {
		return false
	}
	c := &g.cells[y*g.size+x]
	fresh := !c.Explored
	if c.Explored && tick < c.Timestamp {
		return false
	}
	*c = Cell{Explored: true, Timestamp: tick, ObserverID: observerID, ObserverType: observerType}
	return fresh
}

func (g *Grid) ExploredCount() int {
	n := 0
	for _, c := range g.cells {
		if c.Explored {
			n++
		}
	}
	return n
}

// Percentage is explored cells over total cells, times 100.
func (g *Grid) Percentage() float64 {
	return float64(g.ExploredCount()) / float64(len(g.cells)) * 100
}

// Mask returns the explored flags indexed [y][x].
func (g *Grid) Mask() [][]bool {
	out := make([][]bool, g.size)
	for y := 0; y < g.size; y++ {
		row := make([]bool, g.size)
		for x := 0; x < g.size; x++ {
			row[x] = g.cells[y*g.size+x].Explored
		}
		out[y] = row
	}
	return out
}

func (g *Grid) Clone() *Grid {
	c := &Grid{size: g.size, cells: make([]Cell, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// Equal compares two grids cell by cell.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.size != o.size {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Overwrite replaces g's contents with a copy of src.
func (g *Grid) Overwrite(src *Grid) {
	g.size = src.size
	if cap(g.cells) < len(src.cells) {
		g.cells = make([]Cell, len(src.cells))
	}
	g.cells = g.cells[:len(src.cells)]
	copy(g.cells, src.cells)
}
