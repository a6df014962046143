package terrain

// Pos is a grid coordinate. X grows to the east, Y to the south.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func Chebyshev(a, b Pos) int {
	return max(absInt(a.X-b.X), absInt(a.Y-b.Y))
}

func Manhattan(a, b Pos) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Map owns the tile grid and the station location. After generation it is
// mutated only by ConsumeResource.
type Map struct {
	size    int
	tiles   []Tile
	station Pos
}

// New returns an all-Empty map with the station at the centre.
func New(size int) *Map {
	if size < 1 {
		size = 1
	}
	return &Map{
		size:    size,
		tiles:   make([]Tile, size*size),
		station: Pos{X: size / 2, Y: size / 2},
	}
}

func (m *Map) Size() int      { return m.size }
func (m *Map) Station() Pos   { return m.station }
func (m *Map) CellCount() int { return m.size * m.size }

func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.size && y < m.size
}

func (m *Map) idx(x, y int) int { return y*m.size + x }

// Tile returns the tile at (x,y). Out-of-bounds cells read as Obstacle.
func (m *Map) Tile(x, y int) Tile {
	if !m.InBounds(x, y) {
		return Obstacle
	}
	return m.tiles[m.idx(x, y)]
}

func (m *Map) set(x, y int, t Tile) {
	m.tiles[m.idx(x, y)] = t
}

func (m *Map) IsValidPosition(x, y int) bool {
	return m.InBounds(x, y) && m.tiles[m.idx(x, y)] != Obstacle
}

// ConsumeResource turns a resource tile into Empty and reports what was
// there. Consuming a non-resource tile is a no-op.
func (m *Map) ConsumeResource(x, y int) (Tile, bool) {
	if !m.InBounds(x, y) {
		return Empty, false
	}
	i := m.idx(x, y)
	t := m.tiles[i]
	if !t.IsResource() {
		return t, false
	}
	m.tiles[i] = Empty
	return t, true
}

func (m *Map) CountTiles(t Tile) int {
	n := 0
	for _, v := range m.tiles {
		if v == t {
			n++
		}
	}
	return n
}

// Rows returns a copy of the grid indexed [y][x].
func (m *Map) Rows() [][]Tile {
	out := make([][]Tile, m.size)
	for y := 0; y < m.size; y++ {
		row := make([]Tile, m.size)
		copy(row, m.tiles[y*m.size:(y+1)*m.size])
		out[y] = row
	}
	return out
}

func (m *Map) Clone() *Map {
	c := &Map{size: m.size, station: m.station, tiles: make([]Tile, len(m.tiles))}
	copy(c.tiles, m.tiles)
	return c
}

// FromRows builds a map from literal rows; used by tests and snapshot
// inspection. The station is placed at the centre.
func FromRows(rows [][]Tile) *Map {
	m := New(len(rows))
	for y, row := range rows {
		for x := 0; x < m.size && x < len(row); x++ {
			m.set(x, y, row[x])
		}
	}
	return m
}
