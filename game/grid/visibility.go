package grid

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/hextactics/game/hex"
)

// Ray walks from start along dir for up to maxSteps steps. Obstacles do not stop it;
// leaving the grid does. The start cell is not included.
func (g *Grid) Ray(start hex.Coord, dir hex.Cube, maxSteps int) []hex.Coord {
	var out []hex.Coord
	for k := 1; k <= maxSteps; k++ {
		c := hex.Step(start, dir, k)
		if !g.InBounds(c) {
			break
		}
		out = append(out, c)
	}
	return out
}

// IsAligned reports whether target lies on one of the six rays from start
// within maxSteps.
func (g *Grid) IsAligned(start, target hex.Coord, maxSteps int) bool {
	_, ok := g.alignedDirection(start, target, maxSteps)
	return ok
}

func (g *Grid) alignedDirection(start, target hex.Coord, maxSteps int) (hex.Cube, bool) {
	if start == target {
		return hex.Cube{}, false
	}
	for _, dir := range hex.Directions {
		for _, c := range g.Ray(start, dir, maxSteps) {
			if c == target {
				return dir, true
			}
		}
	}
	return hex.Cube{}, false
}

// LineBetween returns the straight line from start to an aligned target, both
// endpoints included.
func (g *Grid) LineBetween(start, target hex.Coord) ([]hex.Coord, bool) {
	d := hex.Distance(start, target)
	dir, ok := g.alignedDirection(start, target, d)
	if !ok {
		return nil, false
	}
	line := []hex.Coord{start}
	for k := 1; k <= d; k++ {
		line = append(line, hex.Step(start, dir, k))
	}
	return line, true
}

// LineOfSight reports whether target is aligned with start and every cell
// strictly between them is accessible and empty.
func (g *Grid) LineOfSight(start, target hex.Coord) bool {
	line, ok := g.LineBetween(start, target)
	if !ok {
		return false
	}
	for _, c := range line[1 : len(line)-1] {
		if !g.IsEmpty(c) {
			return false
		}
	}
	return true
}

// AttackRange returns the cells an attack from origin can reach.
//
// Melee covers every in-bounds cell within limit hexes, obstacles ignored; at
// limit 1 that is exactly the in-bounds neighbors. Projectiles travel the six
// rays, stop at the first inaccessible cell and hit cells at distance 2..limit
// that have line of sight.
func (g *Grid) AttackRange(origin hex.Coord, limit int, melee bool) mapset.Set[hex.Coord] {
	cells := mapset.New[hex.Coord]()
	if !g.InBounds(origin) || limit < 1 {
		return cells
	}

	if melee {
		oc := origin.Cube()
		for dx := -limit; dx <= limit; dx++ {
			for dy := max(-limit, -dx-limit); dy <= min(limit, -dx+limit); dy++ {
				dz := -dx - dy
				c := hex.FromCube(hex.Cube{X: oc.X + dx, Y: oc.Y + dy, Z: oc.Z + dz})
				if c != origin && g.InBounds(c) {
					cells.Put(c)
				}
			}
		}
		return cells
	}

	for _, dir := range hex.Directions {
		for _, c := range g.Ray(origin, dir, limit) {
			if !g.IsAccessible(c) {
				break
			}
			d := hex.Distance(origin, c)
			if d > 1 && d <= limit && g.LineOfSight(origin, c) {
				cells.Put(c)
			}
		}
	}
	return cells
}

// MovementRange returns the cells a unit at origin can reach with budget steps.
func (g *Grid) MovementRange(origin hex.Coord, budget int) mapset.Set[hex.Coord] {
	return g.ReachableWithin(origin, budget)
}
