package unit

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/wricardo/hextactics/game/hex"
)

// Variant selects which stat bundle is active.
type Variant int

const (
	Primary Variant = iota
	Secondary
)

func (v Variant) String() string {
	if v == Secondary {
		return "secondary"
	}
	return "primary"
}

// DefaultTransformThreshold is the hp fraction below which a two-state unit switches.
const DefaultTransformThreshold = 0.3

// Transform describes when a unit with a second state switches to it.
type Transform struct {
	// Threshold is a fraction of max hp; taking damage below it triggers the switch.
	Threshold float64 `json:"threshold"`
	// Reversible units can be toggled back by an explicit transform event.
	Reversible bool `json:"reversible,omitempty"`
}

// Unit is a stat-bearing entity on the grid.
type Unit struct {
	ID     string
	CardID string
	HP     int

	Anim Animation

	primary   Stats
	secondary *Stats
	variant   Variant
	transform Transform

	pos    hex.Coord
	placed bool
}

// New creates a unit at full health from a primary bundle and an optional
// second state.
func New(cardID string, primary Stats, secondary *Stats, transform Transform) (*Unit, error) {
	if err := primary.Validate(); err != nil {
		return nil, fmt.Errorf("primary stats: %w", err)
	}
	if secondary != nil {
		if err := secondary.Validate(); err != nil {
			return nil, fmt.Errorf("second state: %w", err)
		}
		if transform.Threshold <= 0 || transform.Threshold >= 1 {
			transform.Threshold = DefaultTransformThreshold
		}
	}

	return &Unit{
		ID:        uuid.New().String(),
		CardID:    cardID,
		HP:        primary.MaxHP,
		primary:   primary,
		secondary: secondary,
		transform: transform,
	}, nil
}

// Stats returns the active stat bundle.
func (u *Unit) Stats() Stats {
	if u.variant == Secondary && u.secondary != nil {
		return *u.secondary
	}
	return u.primary
}

func (u *Unit) Name() string           { return u.Stats().Name }
func (u *Unit) MaxHP() int             { return u.Stats().MaxHP }
func (u *Unit) Movement() int          { return u.Stats().Movement }
func (u *Unit) Allegiance() Allegiance { return u.Stats().Allegiance }
func (u *Unit) Variant() Variant       { return u.variant }
func (u *Unit) IsAlive() bool          { return u.HP > 0 }

// Named reports whether either state of the unit carries name.
func (u *Unit) Named(name string) bool {
	return u.primary.Name == name || (u.secondary != nil && u.secondary.Name == name)
}

// HasSecondState reports whether the unit carries an alternate bundle.
func (u *Unit) HasSecondState() bool { return u.secondary != nil }

// Position returns the unit's cell. Only meaningful while Placed is true.
func (u *Unit) Position() hex.Coord { return u.pos }

// Placed reports whether the unit currently occupies a grid cell.
func (u *Unit) Placed() bool { return u.placed }

// SetPosition records the unit's cell. It is called by the grid as part of
// place and move; calling it anywhere else breaks occupancy.
func (u *Unit) SetPosition(c hex.Coord) {
	u.pos = c
	u.placed = true
}

// ClearPosition marks the unit as off the grid. Called by the grid on removal.
func (u *Unit) ClearPosition() {
	u.placed = false
}

// TakeDamage subtracts damage, starts the hit feedback and reports whether the
// unit is now dead.
func (u *Unit) TakeDamage(damage int) bool {
	u.HP -= damage
	u.Anim.ShowDamage(damage)
	u.Anim.Flash()
	return u.HP <= 0
}

// ShouldTransform reports whether damage has pushed a living two-state unit
// under its threshold.
func (u *Unit) ShouldTransform() bool {
	if u.secondary == nil || u.variant != Primary || u.HP <= 0 {
		return false
	}
	return float64(u.HP) < float64(u.primary.MaxHP)*u.transform.Threshold
}

// SwitchState moves a primary unit into its second state. Hp resets to the new
// maximum. The returned message is empty when nothing changed.
func (u *Unit) SwitchState() string {
	if u.secondary == nil || u.variant != Primary {
		return ""
	}
	u.variant = Secondary
	u.HP = u.secondary.MaxHP
	return fmt.Sprintf("%s switched to second state", u.secondary.Name)
}

// Transform handles an external transform event, such as crafting. Primary
// units switch; reversible secondary units switch back with hp reset to the
// primary maximum.
func (u *Unit) Transform() string {
	if u.secondary == nil {
		return ""
	}
	if u.variant == Primary {
		return u.SwitchState()
	}
	if !u.transform.Reversible {
		return ""
	}
	u.variant = Primary
	u.HP = u.primary.MaxHP
	return fmt.Sprintf("%s reverted to first state", u.primary.Name)
}

// Summary renders the HUD stat block.
func (u *Unit) Summary() string {
	s := u.Stats()
	out := fmt.Sprintf("Name: %s\nHP: %d/%d\nMovement: %d\nMelee Damage: %d", s.Name, u.HP, s.MaxHP, s.Movement, s.MeleeDamage)
	if s.ProjectileDamage > 0 {
		out += fmt.Sprintf("\nProjectile Damage: %d\nRange: %d", s.ProjectileDamage, s.ProjectileRange)
	}
	out += fmt.Sprintf("\nAllegiance: %s", s.Allegiance)
	if s.SpecialSkill != "" {
		out += fmt.Sprintf("\nSpecial Skill: %s", s.SpecialSkill)
	}
	if u.secondary != nil {
		out += fmt.Sprintf("\nState: %d/2", int(u.variant)+1)
	}
	return out
}
