package engine

import (
	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

// CountUnits counts the units on the grid per allegiance.
func CountUnits(g *grid.Grid) map[unit.Allegiance]int {
	counts := make(map[unit.Allegiance]int)
	for _, u := range g.Units() {
		counts[u.Allegiance()]++
	}
	return counts
}

// NearestUnit finds the closest unit of an allegiance by hex distance. Ties
// go to the unit placed first.
func NearestUnit(g *grid.Grid, from hex.Coord, a unit.Allegiance) (*unit.Unit, int, bool) {
	var nearest *unit.Unit
	best := -1
	for _, u := range g.UnitsOf(a) {
		d := hex.Distance(from, u.Position())
		if best == -1 || d < best {
			nearest, best = u, d
		}
	}
	return nearest, best, nearest != nil
}

// UnitsThatCanReach lists the units with a path to target. Target may be
// occupied, usually by the player.
func UnitsThatCanReach(g *grid.Grid, target hex.Coord) []*unit.Unit {
	var out []*unit.Unit
	for _, u := range g.Units() {
		if _, ok := g.FindPath(u.Position(), target); ok {
			out = append(out, u)
		}
	}
	return out
}

// AssessThreat rates how exposed the player is: "HIGH" when a hostile can hit
// the player next hostile phase, "MEDIUM" when one is within two turns of
// movement, "LOW" otherwise.
func AssessThreat(g *grid.Grid, p *unit.Player) string {
	if p == nil || !p.Placed() {
		return "NONE"
	}
	pos := p.Position()
	level := "LOW"
	for _, u := range g.UnitsOf(unit.Hostile) {
		s := u.Stats()
		d := hex.Distance(u.Position(), pos)
		if s.HasProjectile() && d > 1 && d <= s.ProjectileRange && g.IsAligned(u.Position(), pos, s.ProjectileRange) && g.LineOfSight(u.Position(), pos) {
			return "HIGH"
		}
		path, ok := g.FindPath(u.Position(), pos)
		if !ok {
			continue
		}
		steps := len(path) - 2
		if s.MeleeDamage > 0 && steps <= s.Movement {
			return "HIGH"
		}
		if steps <= 2*s.Movement {
			level = "MEDIUM"
		}
	}
	return level
}
