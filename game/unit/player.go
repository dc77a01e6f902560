package unit

import (
	"fmt"
	"sort"
	"strings"
)

// Class is a playable character class.
type Class string

const (
	Ranger  Class = "Ranger"
	Warrior Class = "Warrior"
	Tank    Class = "Tank"
)

// AttackKind distinguishes adjacent attacks from straight-line shots.
type AttackKind string

const (
	Melee      AttackKind = "melee"
	Projectile AttackKind = "projectile"
)

// Attack is one named player attack.
type Attack struct {
	Name   string     `json:"name"`
	Damage int        `json:"damage"`
	Kind   AttackKind `json:"kind"`
}

// ClassProfile holds the starting numbers for a class.
type ClassProfile struct {
	HP              int
	Movement        int
	ProjectileRange int
	Projectile      Attack
	Melee           Attack
	Special         string
}

var classProfiles = map[Class]ClassProfile{
	Ranger: {
		HP:         50, Movement: 5, ProjectileRange: 5,
		Projectile: Attack{Name: "Sling", Damage: 8, Kind: Projectile},
		Melee:      Attack{Name: "Punch", Damage: 4, Kind: Melee},
		Special:    "Multi-target Projectile",
	},
	Warrior: {
		HP:         100, Movement: 4, ProjectileRange: 4,
		Projectile: Attack{Name: "Throw Rock", Damage: 6, Kind: Projectile},
		Melee:      Attack{Name: "Kick", Damage: 6, Kind: Melee},
		Special:    "Double Attack",
	},
	Tank: {
		HP:         150, Movement: 3, ProjectileRange: 3,
		Projectile: Attack{Name: "Spit", Damage: 4, Kind: Projectile},
		Melee:      Attack{Name: "Head-butt", Damage: 8, Kind: Melee},
		Special:    "Spin Punch",
	},
}

// Classes lists the playable classes in a stable order.
func Classes() []Class {
	out := make([]Class, 0, len(classProfiles))
	for c := range classProfiles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Profile returns the starting numbers for a class.
func Profile(c Class) (ClassProfile, bool) {
	p, ok := classProfiles[c]
	return p, ok
}

// ParseClass resolves a class name case-insensitively. Empty means Warrior.
func ParseClass(s string) (Class, error) {
	if strings.TrimSpace(s) == "" {
		return Warrior, nil
	}
	for c := range classProfiles {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown class %q", s)
}

// Weapon is an equippable card that replaces one of the player's attacks.
type Weapon struct {
	CardID string     `json:"card_id"`
	Name   string     `json:"name"`
	Kind   AttackKind `json:"kind"`
	Damage int        `json:"damage"`
}

// Item is a card held in the player's inventory.
type Item struct {
	CardID   string  `json:"card_id"`
	Name     string  `json:"name"`
	CardType string  `json:"card_type"`
	State    int     `json:"state,omitempty"`
	Weapon   *Weapon `json:"weapon,omitempty"`
}

// Player is the unit the user controls.
type Player struct {
	*Unit

	Class            Class
	MeleeAttack      Attack
	ProjectileAttack Attack
	MeleeWeapon      *Weapon
	ProjectileWeapon *Weapon
	MovementUsed     bool
	ActionUsed       bool
	Inventory        []Item
}

// NewPlayer creates a full-health player of the given class.
func NewPlayer(class Class) (*Player, error) {
	profile, ok := classProfiles[class]
	if !ok {
		return nil, fmt.Errorf("unknown class %q", class)
	}

	u, err := New("", Stats{
		Name:             string(class),
		MaxHP:            profile.HP,
		Movement:         profile.Movement,
		MeleeDamage:      profile.Melee.Damage,
		ProjectileDamage: profile.Projectile.Damage,
		ProjectileRange:  profile.ProjectileRange,
		Allegiance:       PlayerAllegiance,
		SpecialSkill:     profile.Special,
	}, nil, Transform{})
	if err != nil {
		return nil, err
	}

	return &Player{
		Unit:             u,
		Class:            class,
		MeleeAttack:      profile.Melee,
		ProjectileAttack: profile.Projectile,
	}, nil
}

// ProjectileRange is the player's maximum shot distance.
func (p *Player) ProjectileRange() int {
	return p.Stats().ProjectileRange
}

// AttackNamed resolves an attack by its display name or by its kind.
func (p *Player) AttackNamed(name string) (Attack, bool) {
	switch {
	case strings.EqualFold(name, p.ProjectileAttack.Name), strings.EqualFold(name, string(Projectile)):
		return p.ProjectileAttack, true
	case strings.EqualFold(name, p.MeleeAttack.Name), strings.EqualFold(name, string(Melee)):
		return p.MeleeAttack, true
	}
	return Attack{}, false
}

// Equip replaces the matching attack with the weapon's.
func (p *Player) Equip(w Weapon) (string, bool) {
	if w.Name == "" || w.Damage < 0 {
		return "", false
	}
	switch w.Kind {
	case Melee:
		weapon := w
		p.MeleeWeapon = &weapon
		p.MeleeAttack = Attack{Name: w.Name, Damage: w.Damage, Kind: Melee}
		p.primary.MeleeDamage = w.Damage
	case Projectile:
		weapon := w
		p.ProjectileWeapon = &weapon
		p.ProjectileAttack = Attack{Name: w.Name, Damage: w.Damage, Kind: Projectile}
		p.primary.ProjectileDamage = w.Damage
	default:
		return "", false
	}
	return fmt.Sprintf("%s equipped %s", p.Class, w.Name), true
}

// EquipItem equips a weapon held in the inventory.
func (p *Player) EquipItem(cardID string) (string, bool) {
	for _, item := range p.Inventory {
		if item.CardID == cardID && item.Weapon != nil {
			return p.Equip(*item.Weapon)
		}
	}
	return "", false
}

// AddItem puts a card into the inventory.
func (p *Player) AddItem(item Item) {
	p.Inventory = append(p.Inventory, item)
}

// RemoveItem drops the first inventory card with the given card id.
func (p *Player) RemoveItem(cardID string) bool {
	for i, item := range p.Inventory {
		if item.CardID == cardID {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// HasItem reports whether the inventory holds a card with the given name.
func (p *Player) HasItem(name string) bool {
	for _, item := range p.Inventory {
		if item.Name == name {
			return true
		}
	}
	return false
}

// ResetTurn clears the per-turn action flags.
func (p *Player) ResetTurn() {
	p.MovementUsed = false
	p.ActionUsed = false
}

// Summary renders the player HUD block.
func (p *Player) Summary() string {
	melee, proj := "None", "None"
	if p.MeleeWeapon != nil {
		melee = p.MeleeWeapon.Name
	}
	if p.ProjectileWeapon != nil {
		proj = p.ProjectileWeapon.Name
	}
	return fmt.Sprintf("Class: %s\nHP: %d/%d\nMovement: %d\nRange: %d\nAttacks: %s (%d), %s (%d)\nSpecial: %s\nMelee Weapon: %s\nProjectile Weapon: %s",
		p.Class, p.HP, p.MaxHP(), p.Movement(), p.ProjectileRange(),
		p.ProjectileAttack.Name, p.ProjectileAttack.Damage,
		p.MeleeAttack.Name, p.MeleeAttack.Damage,
		p.Stats().SpecialSkill, melee, proj)
}
