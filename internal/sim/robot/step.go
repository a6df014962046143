package robot

import (
	"math/rand"

	"ereea.space/internal/sim/terrain"
)

// TerrainView is the read-only slice of the map a robot decides from.
type TerrainView interface {
	Size() int
	Tile(x, y int) terrain.Tile
	IsValidPosition(x, y int) bool
	Neighbors(p terrain.Pos) []terrain.Pos
	NextStep(from, to terrain.Pos) (terrain.Pos, bool)
	Nearest(from terrain.Pos, maxDist int, match func(terrain.Pos) bool) (target, step terrain.Pos, ok bool)
}

// Effects are the outcomes of one step that the world must act on. The
// robot never writes to the map itself.
type Effects struct {
	From  terrain.Pos
	Moved bool

	Consumed   bool
	ConsumedAt terrain.Pos
	Resource   terrain.Tile

	Docked     bool
	Discovered int
}

// Survey marks the robot's surroundings explored without moving.
func (r *Robot) Survey(v TerrainView, tick uint64) int {
	n := r.sense(v, tick)
	r.discovered += n
	return n
}

// Step runs one tick of the robot's own state machine.
func (r *Robot) Step(v TerrainView, tick uint64, rng *rand.Rand) Effects {
	fx := Effects{From: r.Pos}
	switch r.Mode {
	case Exploring:
		r.explore(v, tick, rng, &fx)
	case Collecting:
		r.collect(v, tick, &fx)
	case ReturnToStation:
		r.returnHome(v, tick, &fx)
	case Idle:
	}
	return fx
}

func (r *Robot) lowEnergy() bool {
	need := float64(terrain.Chebyshev(r.Pos, r.Home))*r.params.MoveCost + r.params.ReturnReserve
	return r.Energy <= need
}

func (r *Robot) moveTo(p terrain.Pos, v TerrainView, tick uint64, fx *Effects) {
	r.Pos = p
	r.Energy -= r.params.MoveCost
	fx.Moved = true
	n := r.sense(v, tick)
	r.sinceDock += n
	r.discovered += n
	fx.Discovered += n
}

func (r *Robot) explore(v TerrainView, tick uint64, rng *rand.Rand, fx *Effects) {
	if r.lowEnergy() {
		r.Mode = ReturnToStation
		r.returnHome(v, tick, fx)
		return
	}
	next, ok := r.pickExploreStep(v, rng)
	if !ok {
		return
	}
	r.moveTo(next, v, tick, fx)

	st := r.Type.Strategy()
	if st.Collects && v.Tile(r.Pos.X, r.Pos.Y) == st.Specialty {
		r.Mode = Collecting
		return
	}
	if r.params.ReportAfter > 0 && r.sinceDock >= r.params.ReportAfter {
		r.Mode = ReturnToStation
	}
}

// pickExploreStep prefers, in order: a known neighbouring specialty tile, a
// random neighbour unexplored by self, the first step toward the nearest
// cell unexplored by self, and finally any random neighbour.
func (r *Robot) pickExploreStep(v TerrainView, rng *rand.Rand) (terrain.Pos, bool) {
	nbrs := v.Neighbors(r.Pos)
	if len(nbrs) == 0 {
		return r.Pos, false
	}
	st := r.Type.Strategy()
	if st.Collects {
		for _, n := range nbrs {
			if r.Knowledge.Explored(n.X, n.Y) && v.Tile(n.X, n.Y) == st.Specialty {
				return n, true
			}
		}
	}

	var fresh []terrain.Pos
	for _, n := range nbrs {
		if !r.Knowledge.Explored(n.X, n.Y) {
			fresh = append(fresh, n)
		}
	}
	if len(fresh) > 0 {
		return fresh[rng.Intn(len(fresh))], true
	}

	unexplored := func(p terrain.Pos) bool { return !r.Knowledge.Explored(p.X, p.Y) }
	if _, step, ok := v.Nearest(r.Pos, 0, unexplored); ok {
		return step, true
	}
	return nbrs[rng.Intn(len(nbrs))], true
}

func (r *Robot) nextKnownResource(v TerrainView) (terrain.Pos, bool) {
	want := r.Type.Strategy().Specialty
	known := func(p terrain.Pos) bool {
		return r.Knowledge.Explored(p.X, p.Y) && v.Tile(p.X, p.Y) == want
	}
	_, step, ok := v.Nearest(r.Pos, r.params.SearchRadius, known)
	return step, ok
}

func (r *Robot) collect(v TerrainView, tick uint64, fx *Effects) {
	st := r.Type.Strategy()
	if !st.Collects || r.lowEnergy() {
		r.Mode = ReturnToStation
		r.returnHome(v, tick, fx)
		return
	}

	if v.Tile(r.Pos.X, r.Pos.Y) == st.Specialty {
		fx.Consumed = true
		fx.ConsumedAt = r.Pos
		fx.Resource = st.Specialty
		r.Energy -= r.params.CollectCost
		switch st.Specialty {
		case terrain.Energy:
			r.Cargo.EnergyCells++
			r.Energy = min(r.Energy+r.params.EnergyTileRecharge, r.MaxEnergy)
		case terrain.Mineral:
			r.Cargo.Minerals++
		case terrain.Scientific:
			r.Cargo.ScientificData++
		}
		if r.Cargo.Total() >= r.params.CargoCapacity {
			r.Mode = ReturnToStation
			return
		}
		if _, ok := r.nextKnownResource(v); !ok {
			r.Mode = ReturnToStation
		}
		return
	}

	step, ok := r.nextKnownResource(v)
	if !ok {
		r.Mode = ReturnToStation
		return
	}
	r.moveTo(step, v, tick, fx)
}

func (r *Robot) returnHome(v TerrainView, tick uint64, fx *Effects) {
	if r.AtHome() {
		fx.Docked = true
		return
	}
	next, ok := v.NextStep(r.Pos, r.Home)
	if !ok {
		return
	}
	r.moveTo(next, v, tick, fx)
	if r.AtHome() {
		fx.Docked = true
	}
}
