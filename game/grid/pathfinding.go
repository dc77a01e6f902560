package grid

import (
	"container/heap"
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/hextactics/game/hex"
)

// FindPath runs A* from start to goal. Occupied cells block the search except
// the goal itself, so a path can end on the unit being chased. The result runs
// from start to goal inclusive.
func (g *Grid) FindPath(start, goal hex.Coord) ([]hex.Coord, bool) {
	if !g.InBounds(start) || !g.IsAccessible(goal) {
		return nil, false
	}
	if start == goal {
		return []hex.Coord{start}, true
	}

	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	heap.Push(pq, &node{Hex: start, Cost: 0, Seq: seq})
	costSoFar := map[hex.Coord]int{start: 0}

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*node)
		if current.Hex == goal {
			return reconstructPath(current), true
		}
		if current.Closed(costSoFar) {
			continue
		}
		for _, neighbor := range g.NeighborsExcludingOccupied(current.Hex, &goal) {
			newCost := costSoFar[current.Hex] + 1
			if old, seen := costSoFar[neighbor]; !seen || newCost < old {
				costSoFar[neighbor] = newCost
				seq++
				heap.Push(pq, &node{
					Hex:    neighbor,
					Steps:  newCost,
					Cost:   newCost + hex.Distance(neighbor, goal),
					Parent: current,
					Seq:    seq,
				})
			}
		}
	}
	return nil, false
}

// ReachableWithin flood-fills through empty accessible cells up to budget steps.
// The start cell is always included.
func (g *Grid) ReachableWithin(start hex.Coord, budget int) mapset.Set[hex.Coord] {
	reachable := mapset.New[hex.Coord]()
	if !g.InBounds(start) {
		return reachable
	}
	reachable.Put(start)

	frontier := []hex.Coord{start}
	for step := 0; step < budget && len(frontier) > 0; step++ {
		var next []hex.Coord
		for _, c := range frontier {
			for _, n := range g.EmptyNeighbors(c) {
				if reachable.Has(n) {
					continue
				}
				reachable.Put(n)
				next = append(next, n)
			}
		}
		frontier = next
	}
	return reachable
}

// ValidMoves lists the empty cells reachable within budget, excluding start,
// sorted row-major.
func (g *Grid) ValidMoves(start hex.Coord, budget int) []hex.Coord {
	reachable := g.ReachableWithin(start, budget)
	var out []hex.Coord
	reachable.Each(func(c hex.Coord) {
		if c != start && g.IsEmpty(c) {
			out = append(out, c)
		}
	})
	SortCoords(out)
	return out
}

// SortCoords orders coordinates row-major in place.
func SortCoords(cs []hex.Coord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Row != cs[j].Row {
			return cs[i].Row < cs[j].Row
		}
		return cs[i].Col < cs[j].Col
	})
}

// SetToSlice returns a row-major sorted slice of the set's members.
func SetToSlice(s mapset.Set[hex.Coord]) []hex.Coord {
	out := make([]hex.Coord, 0, s.Size())
	s.Each(func(c hex.Coord) {
		out = append(out, c)
	})
	SortCoords(out)
	return out
}

// priorityQueue orders A* nodes by estimated total cost, then insertion order.
type priorityQueue []*node

type node struct {
	Hex    hex.Coord
	Steps  int
	Cost   int
	Parent *node
	Seq    int
}

// Closed reports whether a cheaper route to this node's cell was already queued.
func (n *node) Closed(costSoFar map[hex.Coord]int) bool {
	return costSoFar[n.Hex] < n.Steps
}

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].Cost != pq[j].Cost {
		return pq[i].Cost < pq[j].Cost
	}
	return pq[i].Seq < pq[j].Seq
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(*node))
}
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

func reconstructPath(n *node) []hex.Coord {
	var path []hex.Coord
	for n != nil {
		path = append([]hex.Coord{n.Hex}, path...)
		n = n.Parent
	}
	return path
}
