package unit

import (
	"fmt"
	"strings"
)

// Allegiance controls which turn phase a unit acts in and whom it targets.
type Allegiance string

const (
	Hostile          Allegiance = "Hostile"
	Neutral          Allegiance = "Neutral"
	Allied           Allegiance = "Allied"
	PlayerAllegiance Allegiance = "Player"
)

// ParseAllegiance accepts the card spelling of an allegiance, case-insensitively.
func ParseAllegiance(s string) (Allegiance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hostile":
		return Hostile, nil
	case "neutral":
		return Neutral, nil
	case "allied":
		return Allied, nil
	case "player":
		return PlayerAllegiance, nil
	default:
		return "", fmt.Errorf("unknown allegiance %q", s)
	}
}

// Stats is one complete combat stat bundle.
type Stats struct {
	Name             string     `json:"name"`
	MaxHP            int        `json:"max_hp"`
	Movement         int        `json:"movement"`
	MeleeDamage      int        `json:"melee_damage"`
	ProjectileDamage int        `json:"projectile_damage"`
	ProjectileRange  int        `json:"projectile_range"`
	Allegiance       Allegiance `json:"allegiance"`
	SpecialSkill     string     `json:"special_skill,omitempty"`
}

// Validate rejects bundles a unit could not be built from.
func (s Stats) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.MaxHP <= 0 {
		return fmt.Errorf("%s: health must be positive, got %d", s.Name, s.MaxHP)
	}
	if s.Movement < 0 || s.MeleeDamage < 0 || s.ProjectileDamage < 0 || s.ProjectileRange < 0 {
		return fmt.Errorf("%s: numeric stats must be non-negative", s.Name)
	}
	if _, err := ParseAllegiance(string(s.Allegiance)); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	return nil
}

// HasProjectile reports whether the bundle can fire at all.
func (s Stats) HasProjectile() bool {
	return s.ProjectileDamage > 0 && s.ProjectileRange > 1
}
