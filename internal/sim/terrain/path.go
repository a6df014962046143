package terrain

import (
	"container/heap"
	"math"
)

// Dirs8 lists the 8-connected neighbour offsets in a fixed order so that
// every search is deterministic.
var Dirs8 = [8]Pos{
	{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0},
	{X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1},
}

// Neighbors returns the valid 8-connected neighbours of p.
func (m *Map) Neighbors(p Pos) []Pos {
	out := make([]Pos, 0, 8)
	for _, d := range Dirs8 {
		n := Pos{X: p.X + d.X, Y: p.Y + d.Y}
		if m.IsValidPosition(n.X, n.Y) {
			out = append(out, n)
		}
	}
	return out
}

// reachableFrom floods the non-Obstacle cells 8-connected to start.
func (m *Map) reachableFrom(start Pos) []bool {
	seen := make([]bool, len(m.tiles))
	if !m.IsValidPosition(start.X, start.Y) {
		return seen
	}
	queue := []Pos{start}
	seen[m.idx(start.X, start.Y)] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range m.Neighbors(cur) {
			i := m.idx(n.X, n.Y)
			if seen[i] {
				continue
			}
			seen[i] = true
			queue = append(queue, n)
		}
	}
	return seen
}

// Reachable reports whether an 8-connected non-Obstacle path joins from and to.
func (m *Map) Reachable(from, to Pos) bool {
	if !m.IsValidPosition(to.X, to.Y) {
		return false
	}
	return m.reachableFrom(from)[m.idx(to.X, to.Y)]
}

// Nearest runs a breadth-first search from `from` over valid cells and
// returns the closest cell satisfying match, together with the first step
// toward it. from itself is never a candidate. maxDist <= 0 means unbounded.
func (m *Map) Nearest(from Pos, maxDist int, match func(Pos) bool) (target Pos, step Pos, ok bool) {
	if !m.InBounds(from.X, from.Y) {
		return Pos{}, Pos{}, false
	}
	type node struct {
		p     Pos
		first Pos
		dist  int
	}
	seen := make([]bool, len(m.tiles))
	seen[m.idx(from.X, from.Y)] = true
	queue := []node{{p: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxDist > 0 && cur.dist >= maxDist {
			continue
		}
		for _, n := range m.Neighbors(cur.p) {
			i := m.idx(n.X, n.Y)
			if seen[i] {
				continue
			}
			seen[i] = true
			first := cur.first
			if cur.dist == 0 {
				first = n
			}
			if match(n) {
				return n, first, true
			}
			queue = append(queue, node{p: n, first: first, dist: cur.dist + 1})
		}
	}
	return Pos{}, Pos{}, false
}

type pathNode struct {
	p      Pos
	g, f   float64
	seq    int
	parent *pathNode
	index  int
}

type openSet []*pathNode

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}
func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].index = i
	s[j].index = j
}
func (s *openSet) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*s)
	*s = append(*s, n)
}
func (s *openSet) Pop() any {
	old := *s
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*s = old[:len(old)-1]
	return n
}

func octile(a, b Pos) float64 {
	dx := float64(absInt(a.X - b.X))
	dy := float64(absInt(a.Y - b.Y))
	return math.Max(dx, dy) + (math.Sqrt2-1)*math.Min(dx, dy)
}

// FindPath returns the A* path from start to goal inclusive of both ends,
// with diagonal steps costing √2. It returns nil when goal is unreachable.
func (m *Map) FindPath(start, goal Pos) []Pos {
	if !m.IsValidPosition(goal.X, goal.Y) || !m.InBounds(start.X, start.Y) {
		return nil
	}
	if start == goal {
		return []Pos{start}
	}

	gScore := make([]float64, len(m.tiles))
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	closed := make([]bool, len(m.tiles))

	seq := 0
	open := &openSet{}
	gScore[m.idx(start.X, start.Y)] = 0
	heap.Push(open, &pathNode{p: start, f: octile(start, goal)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		ci := m.idx(cur.p.X, cur.p.Y)
		if closed[ci] {
			continue
		}
		if cur.p == goal {
			return reconstruct(cur)
		}
		closed[ci] = true

		for _, n := range m.Neighbors(cur.p) {
			ni := m.idx(n.X, n.Y)
			if closed[ni] {
				continue
			}
			cost := 1.0
			if n.X != cur.p.X && n.Y != cur.p.Y {
				cost = math.Sqrt2
			}
			g := cur.g + cost
			if g >= gScore[ni] {
				continue
			}
			gScore[ni] = g
			seq++
			heap.Push(open, &pathNode{p: n, g: g, f: g + octile(n, goal), seq: seq, parent: cur})
		}
	}
	return nil
}

func reconstruct(n *pathNode) []Pos {
	var rev []Pos
	for ; n != nil; n = n.parent {
		rev = append(rev, n.p)
	}
	out := make([]Pos, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

// NextStep returns the first move of the A* path from `from` to `to`.
func (m *Map) NextStep(from, to Pos) (Pos, bool) {
	path := m.FindPath(from, to)
	if len(path) < 2 {
		return from, false
	}
	return path[1], true
}
