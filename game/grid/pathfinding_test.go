package grid

import (
	"testing"

	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

func TestFindPathOpenGrid(t *testing.T) {
	g := createTestGrid(t, 10, 10)
	start, goal := hex.Coord{Row: 5, Col: 5}, hex.Coord{Row: 5, Col: 9}

	path, ok := g.FindPath(start, goal)
	if !ok {
		t.Fatal("Expected a path on an open grid")
	}
	if len(path) != 5 {
		t.Fatalf("Expected 5 coordinates, got %d: %v", len(path), path)
	}
	if path[0] != start || path[len(path)-1] != goal {
		t.Errorf("Path should run start to goal, got %v", path)
	}
	for i := 1; i < len(path); i++ {
		if d := hex.Distance(path[i-1], path[i]); d != 1 {
			t.Errorf("Step %d has distance %d", i, d)
		}
	}
}

func TestFindPathLengthMatchesDistance(t *testing.T) {
	g := createTestGrid(t, 8, 9)
	pairs := [][2]hex.Coord{
		{{Row: 0, Col: 0}, {Row: 7, Col: 8}},
		{{Row: 7, Col: 0}, {Row: 0, Col: 8}},
		{{Row: 3, Col: 4}, {Row: 3, Col: 4}},
		{{Row: 2, Col: 1}, {Row: 6, Col: 2}},
	}
	for _, p := range pairs {
		path, ok := g.FindPath(p[0], p[1])
		if !ok {
			t.Fatalf("No path %v -> %v", p[0], p[1])
		}
		if len(path)-1 != hex.Distance(p[0], p[1]) {
			t.Errorf("%v -> %v: path length %d, distance %d", p[0], p[1], len(path)-1, hex.Distance(p[0], p[1]))
		}
	}
}

func TestFindPathUnreachable(t *testing.T) {
	g := createTestGrid(t, 8, 8)
	goal := hex.Coord{Row: 4, Col: 4}
	for _, n := range g.Neighbors(goal) {
		g.SetAccessible(n, false)
	}

	if _, ok := g.FindPath(hex.Coord{Row: 0, Col: 0}, goal); ok {
		t.Error("Enclosed goal should be unreachable")
	}

	blocked := hex.Coord{Row: 1, Col: 1}
	g.SetAccessible(blocked, false)
	if _, ok := g.FindPath(hex.Coord{Row: 0, Col: 0}, blocked); ok {
		t.Error("Inaccessible goal should be unreachable")
	}
	if _, ok := g.FindPath(hex.Coord{Row: 0, Col: 0}, hex.Coord{Row: 20, Col: 0}); ok {
		t.Error("Out of bounds goal should be unreachable")
	}
}

func TestFindPathEndsOnOccupiedGoal(t *testing.T) {
	g := createTestGrid(t, 6, 6)
	target := createTestUnit(t, "Target", unit.Allied)
	goal := hex.Coord{Row: 0, Col: 4}
	g.Place(target, goal)

	path, ok := g.FindPath(hex.Coord{Row: 0, Col: 0}, goal)
	if !ok || path[len(path)-1] != goal {
		t.Fatalf("Expected a path ending on the occupied goal, got %v", path)
	}
}

func TestFindPathRoutesAroundObstacles(t *testing.T) {
	g := createTestGrid(t, 7, 7)
	start, goal := hex.Coord{Row: 3, Col: 1}, hex.Coord{Row: 3, Col: 5}
	wall := []hex.Coord{{Row: 1, Col: 3}, {Row: 2, Col: 3}, {Row: 3, Col: 3}, {Row: 4, Col: 3}}
	for _, c := range wall {
		g.SetAccessible(c, false)
	}
	blocker := createTestUnit(t, "Blocker", unit.Neutral)
	g.Place(blocker, hex.Coord{Row: 5, Col: 3})

	path, ok := g.FindPath(start, goal)
	if !ok {
		t.Fatal("Expected a detour")
	}
	if len(path)-1 <= hex.Distance(start, goal) {
		t.Errorf("Detour should be longer than the straight distance, got %v", path)
	}
	for _, c := range path {
		if !g.IsAccessible(c) {
			t.Errorf("Path crosses inaccessible %v", c)
		}
		if occ, ok := g.OccupantAt(c); ok && c != goal {
			t.Errorf("Path crosses %s at %v", occ.Name(), c)
		}
	}
}

func TestReachableWithin(t *testing.T) {
	g := createTestGrid(t, 9, 9)
	center := hex.Coord{Row: 4, Col: 4}

	zero := g.ReachableWithin(center, 0)
	if zero.Size() != 1 || !zero.Has(center) {
		t.Error("Budget 0 should contain only the start")
	}

	one := g.ReachableWithin(center, 1)
	if one.Size() != 7 {
		t.Errorf("Expected 7 cells within 1 step, got %d", one.Size())
	}

	two := g.ReachableWithin(center, 2)
	if two.Size() != 19 {
		t.Errorf("Expected 19 cells within 2 steps, got %d", two.Size())
	}

	g.SetAccessible(hex.Coord{Row: 3, Col: 4}, false)
	g.Place(createTestUnit(t, "X", unit.Hostile), hex.Coord{Row: 5, Col: 4})
	blocked := g.ReachableWithin(center, 1)
	if blocked.Size() != 5 || blocked.Has(hex.Coord{Row: 5, Col: 4}) {
		t.Errorf("Expected obstacle and occupant excluded, got %v", SetToSlice(blocked))
	}
}

func TestMovementRangeIdempotent(t *testing.T) {
	g := createTestGrid(t, 8, 8)
	g.SetAccessible(hex.Coord{Row: 2, Col: 3}, false)
	g.Place(createTestUnit(t, "X", unit.Neutral), hex.Coord{Row: 4, Col: 5})
	origin := hex.Coord{Row: 3, Col: 3}

	first := SetToSlice(g.MovementRange(origin, 3))
	second := SetToSlice(g.MovementRange(origin, 3))
	if len(first) != len(second) {
		t.Fatalf("Range changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Range changed at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestValidMovesSortedWithoutStart(t *testing.T) {
	g := createTestGrid(t, 6, 6)
	mover := createTestUnit(t, "Mover", unit.Hostile)
	start := hex.Coord{Row: 2, Col: 2}
	g.Place(mover, start)

	moves := g.ValidMoves(start, 2)
	if len(moves) != 18 {
		t.Errorf("Expected 18 moves, got %d", len(moves))
	}
	for i, c := range moves {
		if c == start {
			t.Error("Start must not be a valid move")
		}
		if i > 0 {
			prev := moves[i-1]
			if prev.Row > c.Row || (prev.Row == c.Row && prev.Col >= c.Col) {
				t.Errorf("Moves not row-major at %d: %v then %v", i, prev, c)
			}
		}
	}
}
