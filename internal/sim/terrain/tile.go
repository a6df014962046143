package terrain

import "fmt"

// Tile is the ground-truth classification of one cell.
type Tile uint8

const (
	Empty Tile = iota
	Obstacle
	Energy
	Mineral
	Scientific
)

var tileNames = [...]string{
	Empty:      "Empty",
	Obstacle:   "Obstacle",
	Energy:     "Energy",
	Mineral:    "Mineral",
	Scientific: "Scientific",
}

func (t Tile) String() string {
	if int(t) < len(tileNames) {
		return tileNames[t]
	}
	return fmt.Sprintf("Tile(%d)", uint8(t))
}

// IsResource reports whether the tile can be consumed.
func (t Tile) IsResource() bool {
	return t == Energy || t == Mineral || t == Scientific
}

func ParseTile(s string) (Tile, error) {
	for i, n := range tileNames {
		if n == s {
			return Tile(i), nil
		}
	}
	return Empty, fmt.Errorf("unknown tile %q", s)
}

// Classify maps a noise sample onto a tile.
func Classify(v float64) Tile {
	switch {
	case v > 0.5:
		return Obstacle
	case v > 0.3:
		return Energy
	case v > 0.1:
		return Mineral
	case v > 0.0:
		return Scientific
	default:
		return Empty
	}
}
