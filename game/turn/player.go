package turn

import (
	"fmt"

	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

func (d *Director) checkPlayerPhase() error {
	if d.Finished() {
		return ErrGameOver
	}
	if d.phase != PhasePlayer {
		return ErrNotPlayerPhase
	}
	if !d.playerAlive() || !d.grid.Contains(d.player.Unit) {
		return ErrNoPlayer
	}
	return nil
}

// MovePlayer moves the player to an empty cell within its movement budget.
// Movement can be used once per turn.
func (d *Director) MovePlayer(to hex.Coord) error {
	if err := d.checkPlayerPhase(); err != nil {
		return err
	}
	if d.player.MovementUsed {
		return ErrMovementUsed
	}
	if !d.grid.IsEmpty(to) {
		return fmt.Errorf("%w: %s is blocked", ErrUnreachable, to)
	}
	path, ok := d.grid.FindPath(d.player.Position(), to)
	if !ok || len(path)-1 > d.player.Movement() {
		return fmt.Errorf("%w: %s", ErrUnreachable, to)
	}
	if !d.grid.Move(d.player.Unit, to) {
		return fmt.Errorf("%w: %s", ErrUnreachable, to)
	}
	d.player.MovementUsed = true
	d.Logf("%s", grid.MovedMessage(string(d.player.Class), to))
	return nil
}

// PlayerAttack resolves one of the player's attacks against the unit at target.
// An action can be used once per turn.
func (d *Director) PlayerAttack(attackName string, target hex.Coord) error {
	if err := d.checkPlayerPhase(); err != nil {
		return err
	}
	if d.player.ActionUsed {
		return ErrActionUsed
	}
	attack, ok := d.player.AttackNamed(attackName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAttack, attackName)
	}
	enemy, ok := d.grid.OccupantAt(target)
	if !ok || d.isPlayer(enemy) {
		return fmt.Errorf("%w %s", ErrNoTarget, target)
	}

	from := d.player.Position()
	dist := hex.Distance(from, target)
	switch attack.Kind {
	case unit.Melee:
		if dist != 1 {
			return fmt.Errorf("%w: %s needs an adjacent target", ErrOutOfRange, attack.Name)
		}
	case unit.Projectile:
		limit := d.player.ProjectileRange()
		if dist <= 1 || dist > limit || !d.grid.IsAligned(from, target, limit) || !d.grid.LineOfSight(from, target) {
			return fmt.Errorf("%w: %s has no clear shot at %s", ErrOutOfRange, attack.Name, target)
		}
	}

	d.player.ActionUsed = true
	d.damage(d.player.Unit, enemy, attack.Damage,
		fmt.Sprintf("%s used %s on %s for %d damage", d.player.Class, attack.Name, enemy.Name(), attack.Damage))
	return nil
}

// PlayerAttackRange returns the cells the named attack can currently reach.
func (d *Director) PlayerAttackRange(attackName string) ([]hex.Coord, error) {
	if d.player == nil || !d.grid.Contains(d.player.Unit) {
		return nil, ErrNoPlayer
	}
	attack, ok := d.player.AttackNamed(attackName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttack, attackName)
	}
	if attack.Kind == unit.Melee {
		return grid.SetToSlice(d.grid.AttackRange(d.player.Position(), 1, true)), nil
	}
	return grid.SetToSlice(d.grid.AttackRange(d.player.Position(), d.player.ProjectileRange(), false)), nil
}

// TransformAt fires a transform event on the unit at c.
func (d *Director) TransformAt(c hex.Coord) (string, bool) {
	u, ok := d.grid.OccupantAt(c)
	if !ok || d.isPlayer(u) {
		return "", false
	}
	msg := u.Transform()
	if msg == "" {
		return "", false
	}
	d.Logf("%s", msg)
	return msg, true
}
