package main

import (
	"sort"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

// SystematicStrategy hunts hostiles one at a time, nearest first. It only
// reads match state; the client performs the calls it plans.
type SystematicStrategy struct {
	// huntOrder is the planned kill order by unit id
	huntOrder []string
	target    string

	visitedCells map[hex.Coord]int
	stuckCount   int
	lastHostile  int
}

func NewSystematicStrategy(state *engine.MatchState) *SystematicStrategy {
	s := &SystematicStrategy{visitedCells: make(map[hex.Coord]int)}
	s.planHuntOrder(state)
	return s
}

func hostiles(state *engine.MatchState) []unit.Snapshot {
	var out []unit.Snapshot
	for _, u := range state.Units {
		if u.Kind == unit.Hostile && u.Alive {
			out = append(out, u)
		}
	}
	return out
}

// planHuntOrder chains hostiles greedily: each next one is the closest to the
// previous.
func (s *SystematicStrategy) planHuntOrder(state *engine.MatchState) {
	remaining := hostiles(state)
	s.huntOrder = s.huntOrder[:0]
	from := state.Player.Unit.Position
	for len(remaining) > 0 {
		best := 0
		for i, u := range remaining {
			if hex.Distance(from, u.Position) < hex.Distance(from, remaining[best].Position) {
				best = i
			}
		}
		s.huntOrder = append(s.huntOrder, remaining[best].ID)
		from = remaining[best].Position
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	s.lastHostile = len(s.huntOrder)
}

// currentTarget returns the first planned hostile still on the grid.
func (s *SystematicStrategy) currentTarget(state *engine.MatchState) (unit.Snapshot, bool) {
	alive := hostiles(state)
	if len(alive) != s.lastHostile {
		s.planHuntOrder(state)
		s.stuckCount = 0
	}
	byID := make(map[string]unit.Snapshot, len(alive))
	for _, u := range alive {
		byID[u.ID] = u
	}
	for _, id := range s.huntOrder {
		if u, ok := byID[id]; ok {
			s.target = id
			return u, true
		}
	}
	s.target = ""
	return unit.Snapshot{}, false
}

// PlanAttack picks an attack for this turn. Melee is preferred on adjacent
// hostiles; projectile targets must be in shots, the server's answer for the
// projectile range. Weaker hostiles are hit first.
func (s *SystematicStrategy) PlanAttack(state *engine.MatchState, shots []hex.Coord) (string, hex.Coord, bool) {
	p := state.Player
	if p.ActionUsed {
		return "", hex.Coord{}, false
	}
	inShot := make(map[hex.Coord]bool, len(shots))
	for _, c := range shots {
		inShot[c] = true
	}

	targets := hostiles(state)
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].HP < targets[j].HP })
	for _, u := range targets {
		d := hex.Distance(p.Unit.Position, u.Position)
		if d == 1 && p.MeleeAttack.Damage > 0 {
			return "melee", u.Position, true
		}
		if d > 1 && inShot[u.Position] && p.ProjectileAttack.Damage > 0 {
			return "projectile", u.Position, true
		}
	}
	return "", hex.Coord{}, false
}

// PlanMove picks the cell of moves closest to the current target. Cells the
// player has stood on often lose ties so the hunt does not oscillate.
func (s *SystematicStrategy) PlanMove(state *engine.MatchState, moves []hex.Coord) (hex.Coord, bool) {
	p := state.Player
	if p.MovementUsed || len(moves) == 0 {
		return hex.Coord{}, false
	}
	target, ok := s.currentTarget(state)
	if !ok {
		return hex.Coord{}, false
	}

	here := p.Unit.Position
	s.visitedCells[here]++
	current := hex.Distance(here, target.Position)
	if current <= 1 {
		return hex.Coord{}, false
	}

	candidates := make([]hex.Coord, len(moves))
	copy(candidates, moves)
	grid.SortCoords(candidates)

	best, bestDist := hex.Coord{}, -1
	for _, c := range candidates {
		d := hex.Distance(c, target.Position)
		if bestDist == -1 || d < bestDist || (d == bestDist && s.visitedCells[c] < s.visitedCells[best]) {
			best, bestDist = c, d
		}
	}

	if bestDist >= current {
		s.stuckCount++
		return hex.Coord{}, false
	}
	return best, true
}

// Stuck reports whether the hunt made no progress for several turns.
func (s *SystematicStrategy) Stuck() bool { return s.stuckCount >= 3 }

func (s *SystematicStrategy) Reset(state *engine.MatchState) {
	s.visitedCells = make(map[hex.Coord]int)
	s.stuckCount = 0
	s.target = ""
	s.planHuntOrder(state)
}
