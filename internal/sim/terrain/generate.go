package terrain

import (
	"errors"
	"fmt"
	"math/rand"

	perlin "github.com/aquilax/go-perlin"
)

var ErrUnreachable = errors.New("resource unreachable after repair")

// NoiseField yields the coherent-noise sample used to classify cell (x,y).
type NoiseField interface {
	At(x, y int) float64
}

// PerlinField samples Perlin noise at (x/size*freq, y/size*freq).
type PerlinField struct {
	p    *perlin.Perlin
	size float64
	freq float64
}

func NewPerlinField(seed int64, size int, freq, alpha, beta float64, octaves int) *PerlinField {
	if size < 1 {
		size = 1
	}
	return &PerlinField{
		p:    perlin.NewPerlin(alpha, beta, int32(octaves), seed),
		size: float64(size),
		freq: freq,
	}
}

func (f *PerlinField) At(x, y int) float64 {
	return f.p.Noise2D(float64(x)/f.size*f.freq, float64(y)/f.size*f.freq)
}

// GridField is a literal noise table indexed [y][x]. Missing cells read as 0.
type GridField [][]float64

func (g GridField) At(x, y int) float64 {
	if y < 0 || y >= len(g) || x < 0 || x >= len(g[y]) {
		return 0
	}
	return g[y][x]
}

type Config struct {
	Size        int
	ClearRadius int
}

// GenerationReport describes the connectivity repair that ran.
type GenerationReport struct {
	Carves      int `json:"carves"`
	CarvedSteps int `json:"carved_steps"`
	Cleared     int `json:"cleared"`
}

// Generate classifies every cell from field, clears the station
// neighbourhood and then carves paths until every resource cell is
// 8-connected to the station. rng drives the carve direction choices; pass
// a seeded source for reproducible maps.
func Generate(cfg Config, field NoiseField, rng *rand.Rand) (*Map, GenerationReport, error) {
	var rep GenerationReport
	if cfg.Size < 1 {
		return nil, rep, fmt.Errorf("terrain: size=%d", cfg.Size)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	m := New(cfg.Size)

	for y := 0; y < m.size; y++ {
		for x := 0; x < m.size; x++ {
			m.set(x, y, Classify(field.At(x, y)))
		}
	}

	st := m.station
	for y := st.Y - cfg.ClearRadius; y <= st.Y+cfg.ClearRadius; y++ {
		for x := st.X - cfg.ClearRadius; x <= st.X+cfg.ClearRadius; x++ {
			if m.InBounds(x, y) {
				m.set(x, y, Empty)
			}
		}
	}

	reach := m.reachableFrom(st)
	for y := 0; y < m.size; y++ {
		for x := 0; x < m.size; x++ {
			if !m.Tile(x, y).IsResource() || reach[m.idx(x, y)] {
				continue
			}
			steps, cleared := m.carve(st, Pos{X: x, Y: y}, rng)
			rep.Carves++
			rep.CarvedSteps += steps
			rep.Cleared += cleared
			reach = m.reachableFrom(st)
		}
	}

	for y := 0; y < m.size; y++ {
		for x := 0; x < m.size; x++ {
			if m.Tile(x, y).IsResource() && !reach[m.idx(x, y)] {
				return nil, rep, fmt.Errorf("%w: (%d,%d)", ErrUnreachable, x, y)
			}
		}
	}
	return m, rep, nil
}

// carve walks from `from` to `to` with unit horizontal or vertical steps,
// each one reducing the Manhattan distance, and clears any Obstacle it
// crosses. The axis is a coin flip while both still differ.
func (m *Map) carve(from, to Pos, rng *rand.Rand) (steps, cleared int) {
	cur := from
	for cur != to {
		dx, dy := sign(to.X-cur.X), sign(to.Y-cur.Y)
		switch {
		case dx != 0 && dy != 0:
			if rng.Intn(2) == 0 {
				cur.X += dx
			} else {
				cur.Y += dy
			}
		case dx != 0:
			cur.X += dx
		default:
			cur.Y += dy
		}
		steps++
		if m.Tile(cur.X, cur.Y) == Obstacle {
			m.set(cur.X, cur.Y, Empty)
			cleared++
		}
	}
	return steps, cleared
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// GenerateSeeded builds a Perlin-noise map where both the noise and the
// carve choices derive from seed, so equal seeds give equal maps.
func GenerateSeeded(cfg Config, seed int64, freq, alpha, beta float64, octaves int) (*Map, GenerationReport, error) {
	field := NewPerlinField(seed, cfg.Size, freq, alpha, beta, octaves)
	return Generate(cfg, field, rand.New(rand.NewSource(seed)))
}
