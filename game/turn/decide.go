package turn

import (
	"fmt"
	"sort"

	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

// decide resolves one unit's action for the current phase.
func (d *Director) decide(u *unit.Unit) {
	switch u.Allegiance() {
	case unit.Hostile:
		d.decideHostile(u)
	case unit.Allied:
		d.decideAllied(u)
	case unit.Neutral:
		d.decideNeutral(u)
	}
}

// decideHostile prefers the player, then allied units, then closing in on the player.
func (d *Director) decideHostile(u *unit.Unit) {
	if d.playerAlive() && d.attackIfAble(u, d.player.Unit) {
		return
	}

	allies := d.grid.UnitsOf(unit.Allied)

	var adjacent []*unit.Unit
	for _, a := range allies {
		if hex.Distance(u.Position(), a.Position()) == 1 {
			adjacent = append(adjacent, a)
		}
	}
	if len(adjacent) > 0 && canMelee(u) {
		d.melee(u, adjacent[d.rng.Intn(len(adjacent))])
		return
	}

	for _, a := range nearestFirst(u.Position(), allies) {
		if d.canShoot(u, a) {
			d.shoot(u, a)
			return
		}
	}

	if !d.playerAlive() {
		return
	}
	if d.advance(u, d.player.Position()) {
		d.attackIfAble(u, d.player.Unit)
	}
}

// decideAllied hunts the nearest hostile unit.
func (d *Director) decideAllied(u *unit.Unit) {
	hostiles := nearestFirst(u.Position(), d.grid.UnitsOf(unit.Hostile))
	if len(hostiles) == 0 {
		return
	}
	target := hostiles[0]

	if d.attackIfAble(u, target) {
		return
	}
	if d.advance(u, target.Position()) && target.IsAlive() {
		d.attackIfAble(u, target)
	}
}

// decideNeutral wanders to a random empty neighbor.
func (d *Director) decideNeutral(u *unit.Unit) {
	options := d.grid.EmptyNeighbors(u.Position())
	if len(options) == 0 {
		return
	}
	dest := options[d.rng.Intn(len(options))]
	if d.grid.Move(u, dest) {
		d.Logf("%s", grid.MovedMessage(u.Name(), dest))
	}
}

// attackIfAble tries a projectile first for allied units and melee first for
// everyone else, matching each side's priorities.
func (d *Director) attackIfAble(u, target *unit.Unit) bool {
	adjacent := hex.Distance(u.Position(), target.Position()) == 1

	if u.Allegiance() == unit.Allied {
		if d.canShoot(u, target) {
			d.shoot(u, target)
			return true
		}
		if adjacent && canMelee(u) {
			d.melee(u, target)
			return true
		}
		return false
	}

	if adjacent && canMelee(u) {
		d.melee(u, target)
		return true
	}
	if d.canShoot(u, target) {
		d.shoot(u, target)
		return true
	}
	return false
}

func canMelee(u *unit.Unit) bool {
	return u.Stats().MeleeDamage > 0
}

func (d *Director) canShoot(u, target *unit.Unit) bool {
	s := u.Stats()
	if s.ProjectileDamage <= 0 {
		return false
	}
	from, to := u.Position(), target.Position()
	dist := hex.Distance(from, to)
	if dist <= 1 || dist > s.ProjectileRange {
		return false
	}
	return d.grid.IsAligned(from, to, s.ProjectileRange) && d.grid.LineOfSight(from, to)
}

func (d *Director) melee(u, target *unit.Unit) {
	dmg := u.Stats().MeleeDamage
	d.damage(u, target, dmg, fmt.Sprintf("%s attacked %s for %d damage", u.Name(), d.displayName(target), dmg))
}

func (d *Director) shoot(u, target *unit.Unit) {
	dmg := u.Stats().ProjectileDamage
	d.damage(u, target, dmg, fmt.Sprintf("%s attacked %s with projectile for %d damage", u.Name(), d.displayName(target), dmg))
}

// advance walks u along the A* path toward goal, stopping on the farthest empty
// cell its movement allows. It reports whether u moved.
func (d *Director) advance(u *unit.Unit, goal hex.Coord) bool {
	path, ok := d.grid.FindPath(u.Position(), goal)
	if !ok || len(path) < 2 {
		return false
	}
	steps := min(u.Movement(), len(path)-1)
	for s := steps; s >= 1; s-- {
		dest := path[s]
		if !d.grid.IsEmpty(dest) {
			continue
		}
		if d.grid.Move(u, dest) {
			d.Logf("%s", grid.MovedMessage(u.Name(), dest))
			return true
		}
	}
	return false
}

// nearestFirst orders units by distance from origin, keeping placement order on ties.
func nearestFirst(origin hex.Coord, units []*unit.Unit) []*unit.Unit {
	out := make([]*unit.Unit, len(units))
	copy(out, units)
	sort.SliceStable(out, func(i, j int) bool {
		return hex.Distance(origin, out[i].Position()) < hex.Distance(origin, out[j].Position())
	})
	return out
}
