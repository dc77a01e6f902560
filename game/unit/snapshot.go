package unit

import (
	"fmt"

	"github.com/wricardo/hextactics/game/hex"
)

// Snapshot is the serializable form of a unit.
type Snapshot struct {
	ID        string     `json:"id"`
	CardID    string     `json:"card_id,omitempty"`
	HP        int        `json:"hp"`
	Position  hex.Coord  `json:"position"`
	Placed    bool       `json:"placed"`
	Primary   Stats      `json:"primary"`
	Secondary *Stats     `json:"secondary,omitempty"`
	Variant   Variant    `json:"variant"`
	Transform Transform  `json:"transform"`
	Animation *Frame     `json:"animation,omitempty"`
	Active    Stats      `json:"active"`
	Alive     bool       `json:"alive"`
	Kind      Allegiance `json:"allegiance"`
}

// Snapshot captures the unit's combat state.
func (u *Unit) Snapshot() Snapshot {
	frame := u.Anim.Frame()
	s := Snapshot{
		ID:        u.ID,
		CardID:    u.CardID,
		HP:        u.HP,
		Position:  u.pos,
		Placed:    u.placed,
		Primary:   u.primary,
		Variant:   u.variant,
		Transform: u.transform,
		Animation: &frame,
		Active:    u.Stats(),
		Alive:     u.IsAlive(),
		Kind:      u.Allegiance(),
	}
	if u.secondary != nil {
		secondary := *u.secondary
		s.Secondary = &secondary
	}
	return s
}

// Restore rebuilds a unit from a snapshot. The unit is not placed; the caller
// puts it on a grid at s.Position.
func Restore(s Snapshot) (*Unit, error) {
	u, err := New(s.CardID, s.Primary, s.Secondary, s.Transform)
	if err != nil {
		return nil, err
	}
	if s.ID != "" {
		u.ID = s.ID
	}
	if s.Variant == Secondary && u.secondary == nil {
		return nil, fmt.Errorf("unit %s: secondary variant without second state", s.Primary.Name)
	}
	u.variant = s.Variant
	u.HP = s.HP
	return u, nil
}

// PlayerSnapshot is the serializable form of the player.
type PlayerSnapshot struct {
	Unit             Snapshot `json:"unit"`
	Class            Class    `json:"class"`
	MeleeAttack      Attack   `json:"melee_attack"`
	ProjectileAttack Attack   `json:"projectile_attack"`
	MeleeWeapon      *Weapon  `json:"melee_weapon,omitempty"`
	ProjectileWeapon *Weapon  `json:"projectile_weapon,omitempty"`
	MovementUsed     bool     `json:"movement_used"`
	ActionUsed       bool     `json:"action_used"`
	Inventory        []Item   `json:"inventory"`
}

// Snapshot captures the player's combat and inventory state.
func (p *Player) Snapshot() PlayerSnapshot {
	inventory := make([]Item, len(p.Inventory))
	copy(inventory, p.Inventory)
	return PlayerSnapshot{
		Unit:             p.Unit.Snapshot(),
		Class:            p.Class,
		MeleeAttack:      p.MeleeAttack,
		ProjectileAttack: p.ProjectileAttack,
		MeleeWeapon:      p.MeleeWeapon,
		ProjectileWeapon: p.ProjectileWeapon,
		MovementUsed:     p.MovementUsed,
		ActionUsed:       p.ActionUsed,
		Inventory:        inventory,
	}
}

// RestorePlayer rebuilds a player from a snapshot. The player is not placed.
func RestorePlayer(s PlayerSnapshot) (*Player, error) {
	u, err := Restore(s.Unit)
	if err != nil {
		return nil, fmt.Errorf("restore player: %w", err)
	}
	return &Player{
		Unit:             u,
		Class:            s.Class,
		MeleeAttack:      s.MeleeAttack,
		ProjectileAttack: s.ProjectileAttack,
		MeleeWeapon:      s.MeleeWeapon,
		ProjectileWeapon: s.ProjectileWeapon,
		MovementUsed:     s.MovementUsed,
		ActionUsed:       s.ActionUsed,
		Inventory:        s.Inventory,
	}, nil
}
