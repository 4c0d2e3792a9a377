package grid

import (
	"container/heap"
	"sort"
)

const (
	orthogonalCost = 1.0
	diagonalCost   = 1.5
)

// Path is an ordered list of steps, excluding the origin, and the total movement cost.
type Path struct {
	Steps []Point `json:"steps"`
	Cost  float64 `json:"cost"`
}

// Destination returns the final step, or false for an empty path.
func (p Path) Destination() (Point, bool) {
	if len(p.Steps) == 0 {
		return Point{}, false
	}
	return p.Steps[len(p.Steps)-1], true
}

// PassFunc is an additional caller-supplied restriction on which cells may be entered.
// A nil PassFunc admits every cell the map itself allows.
type PassFunc func(Point) bool

// StepCost returns the cost of moving from a to the adjacent cell b.
//
// Precondition: a and b are distinct and Chebyshev-adjacent.
func (m *Map) StepCost(a, b Point) float64 {
	base := orthogonalCost
	if a.X != b.X && a.Y != b.Y {
		base = diagonalCost
	}
	return base + m.Terrain(b).ExtraCost()
}

// stepAllowed reports whether a single step from a to b is legal for the unit
// standing at origin: b must be enterable and a diagonal may not clip an
// impassable corner.
func (m *Map) stepAllowed(a, b Point, mover string, pass PassFunc) bool {
	if !m.InBounds(b) || !m.Terrain(b).Passable() {
		return false
	}
	if occ := m.Occupant(b); occ != "" && occ != mover {
		return false
	}
	if pass != nil && !pass(b) {
		return false
	}
	if a.X != b.X && a.Y != b.Y {
		if !m.Terrain(Point{b.X, a.Y}).Passable() || !m.Terrain(Point{a.X, b.Y}).Passable() {
			return false
		}
	}
	return true
}

type node struct {
	p      Point
	g      float64
	f      float64
	seq    int
	parent int
}

// frontier is a min-heap ordered by f, then g, then insertion sequence.
type frontier struct {
	nodes []node
	idx   []int
}

func (q frontier) Len() int { return len(q.idx) }
func (q frontier) Less(i, j int) bool {
	a, b := q.nodes[q.idx[i]], q.nodes[q.idx[j]]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.g != b.g {
		return a.g < b.g
	}
	return a.seq < b.seq
}
func (q frontier) Swap(i, j int) { q.idx[i], q.idx[j] = q.idx[j], q.idx[i] }
func (q *frontier) Push(x any)   { q.idx = append(q.idx, x.(int)) }
func (q *frontier) Pop() any {
	old := q.idx
	n := len(old)
	v := old[n-1]
	q.idx = old[:n-1]
	return v
}

// FindPath searches for the cheapest route from `from` to `to` whose total
// cost does not exceed budget. Cells occupied by any unit other than the one
// standing at `from` are excluded, as are impassable cells and cells rejected
// by pass.
//
// Precondition: from is on the map.
// Postcondition: Returns (path, true) with path.Cost <= budget, or (Path{}, false) when no such route exists.
// A request where from == to yields an empty zero-cost path and true.
func FindPath(m *Map, from, to Point, budget float64, pass PassFunc) (Path, bool) {
	if from == to {
		return Path{}, true
	}
	if !m.InBounds(to) || !m.InBounds(from) {
		return Path{}, false
	}
	mover := m.Occupant(from)
	q := &frontier{}
	best := map[Point]float64{from: 0}
	push := func(n node) {
		n.seq = len(q.nodes)
		q.nodes = append(q.nodes, n)
		heap.Push(q, n.seq)
	}
	push(node{p: from, g: 0, f: float64(Chebyshev(from, to)), parent: -1})
	for q.Len() > 0 {
		cur := q.nodes[heap.Pop(q).(int)]
		if cur.g > best[cur.p] {
			continue
		}
		if cur.p == to {
			return rebuild(q.nodes, cur), true
		}
		for _, nb := range m.Neighbors(cur.p) {
			if !m.stepAllowed(cur.p, nb, mover, pass) {
				continue
			}
			g := cur.g + m.StepCost(cur.p, nb)
			if g > budget {
				continue
			}
			if prev, seen := best[nb]; seen && prev <= g {
				continue
			}
			best[nb] = g
			push(node{p: nb, g: g, f: g + float64(Chebyshev(nb, to)), parent: cur.seq})
		}
	}
	return Path{}, false
}

func rebuild(nodes []node, last node) Path {
	var steps []Point
	for n := last; n.parent >= 0; n = nodes[n.parent] {
		steps = append(steps, n.p)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return Path{Steps: steps, Cost: last.g}
}

// Reach is a cell reachable within a movement budget and its cheapest cost.
type Reach struct {
	Point Point
	Cost  float64
}

// Reachable floods every cell the unit at from can reach within budget.
//
// Precondition: from is on the map.
// Postcondition: Returns cells other than from, ordered row-major, each with its minimal cost.
func Reachable(m *Map, from Point, budget float64, pass PassFunc) []Reach {
	mover := m.Occupant(from)
	q := &frontier{}
	best := map[Point]float64{from: 0}
	push := func(n node) {
		n.seq = len(q.nodes)
		q.nodes = append(q.nodes, n)
		heap.Push(q, n.seq)
	}
	push(node{p: from, parent: -1})
	for q.Len() > 0 {
		cur := q.nodes[heap.Pop(q).(int)]
		if cur.g > best[cur.p] {
			continue
		}
		for _, nb := range m.Neighbors(cur.p) {
			if !m.stepAllowed(cur.p, nb, mover, pass) {
				continue
			}
			g := cur.g + m.StepCost(cur.p, nb)
			if g > budget {
				continue
			}
			if prev, seen := best[nb]; seen && prev <= g {
				continue
			}
			best[nb] = g
			push(node{p: nb, g: g, f: g, parent: cur.seq})
		}
	}
	out := make([]Reach, 0, len(best))
	for p, c := range best {
		if p != from {
			out = append(out, Reach{Point: p, Cost: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Point.Y != out[j].Point.Y {
			return out[i].Point.Y < out[j].Point.Y
		}
		return out[i].Point.X < out[j].Point.X
	})
	return out
}
