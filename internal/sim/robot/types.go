package robot

import (
	"fmt"

	"ereea.space/internal/sim/terrain"
)

type Type uint8

const (
	Explorer Type = iota
	EnergyCollector
	MineralCollector
	ScientificCollector
)

// Strategy holds the per-type differences in movement policy.
type Strategy struct {
	Name string
	// Glyph is the single letter used by viewers.
	Glyph     byte
	Collects  bool
	Specialty terrain.Tile
}

var strategies = [...]Strategy{
	Explorer:            {Name: "Explorer", Glyph: 'E'},
	EnergyCollector:     {Name: "EnergyCollector", Glyph: 'P', Collects: true, Specialty: terrain.Energy},
	MineralCollector:    {Name: "MineralCollector", Glyph: 'M', Collects: true, Specialty: terrain.Mineral},
	ScientificCollector: {Name: "ScientificCollector", Glyph: 'S', Collects: true, Specialty: terrain.Scientific},
}

// Types lists every robot type in bootstrap order.
var Types = []Type{Explorer, EnergyCollector, MineralCollector, ScientificCollector}

func (t Type) Strategy() Strategy {
	if int(t) < len(strategies) {
		return strategies[t]
	}
	return strategies[Explorer]
}

func (t Type) String() string {
	if int(t) < len(strategies) {
		return strategies[t].Name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

func ParseType(s string) (Type, error) {
	for i, st := range strategies {
		if st.Name == s {
			return Type(i), nil
		}
	}
	return Explorer, fmt.Errorf("unknown robot type %q", s)
}

type Mode uint8

const (
	Exploring Mode = iota
	Collecting
	ReturnToStation
	Idle
)

var modeNames = [...]string{
	Exploring:       "Exploring",
	Collecting:      "Collecting",
	ReturnToStation: "ReturnToStation",
	Idle:            "Idle",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return Exploring, fmt.Errorf("unknown robot mode %q", s)
}

// Cargo is what a robot carries back to the station.
type Cargo struct {
	Minerals       int `json:"minerals"`
	ScientificData int `json:"scientific_data"`
	EnergyCells    int `json:"energy_cells"`
}

func (c Cargo) Total() int { return c.Minerals + c.ScientificData + c.EnergyCells }
