package robot

import (
	"ereea.space/internal/sim/knowledge"
	"ereea.space/internal/sim/terrain"
	"ereea.space/internal/sim/tuning"
)

// Robot is one fleet member. It is owned by the world loop; nothing else
// may mutate it.
type Robot struct {
	ID        uint64
	Type      Type
	Home      terrain.Pos
	Pos       terrain.Pos
	Energy    float64
	MaxEnergy float64
	Cargo     Cargo
	Mode      Mode
	Knowledge *knowledge.Grid

	params tuning.RobotTuning

	recalled   bool
	idleSince  uint64
	sinceDock  int
	discovered int
}

// New places a fully charged robot at home in mode Exploring. knowledge is
// taken over by the robot; callers pass a clone.
func New(id uint64, typ Type, home terrain.Pos, kn *knowledge.Grid, params tuning.RobotTuning) *Robot {
	return &Robot{
		ID:        id,
		Type:      typ,
		Home:      home,
		Pos:       home,
		Energy:    params.MaxEnergy,
		MaxEnergy: params.MaxEnergy,
		Mode:      Exploring,
		Knowledge: kn,
		params:    params,
	}
}

func (r *Robot) AtHome() bool { return r.Pos == r.Home }

// Recalled reports whether the robot was ordered home for mission completion.
func (r *Robot) Recalled() bool { return r.recalled }

// IdleFor is the number of ticks spent in Idle as of tick.
func (r *Robot) IdleFor(tick uint64) uint64 {
	if r.Mode != Idle || tick < r.idleSince {
		return 0
	}
	return tick - r.idleSince
}

// Discovered is the total number of cells this robot was first to see in
// its own knowledge.
func (r *Robot) Discovered() int { return r.discovered }

func (r *Robot) ExplorationPercentage() float64 {
	return r.Knowledge.Percentage()
}

// UnloadCargo empties the hold and returns what it held.
func (r *Robot) UnloadCargo() Cargo {
	c := r.Cargo
	r.Cargo = Cargo{}
	return c
}

func (r *Robot) observerType() string { return r.Type.String() }

// sense marks every cell within the sensor radius explored and returns how
// many of them were new.
func (r *Robot) sense(v TerrainView, tick uint64) int {
	rad := r.params.SensorRadius
	n := 0
	for dy := -rad; dy <= rad; dy++ {
		for dx := -rad; dx <= rad; dx++ {
			x, y := r.Pos.X+dx, r.Pos.Y+dy
			if x < 0 || y < 0 || x >= v.Size() || y >= v.Size() {
				continue
			}
			if r.Knowledge.Observe(x, y, tick, r.ID, r.observerType()) {
				n++
			}
		}
	}
	return n
}
