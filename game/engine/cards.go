package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wricardo/hextactics/game/unit"
)

var (
	ErrInvalidCard    = errors.New("invalid card")
	ErrInvalidLevel   = errors.New("invalid level")
	ErrConfigNotFound = errors.New("config not found")
)

// Card data keys.
const (
	FieldName             = "Name"
	FieldHealth           = "Health"
	FieldMovement         = "Movement"
	FieldMeleeDamage      = "Melee Damage"
	FieldProjectileDamage = "Projectile Damage"
	FieldProjectileRange  = "Projectile Range"
	FieldAllegiance       = "Allegiance"
	FieldAllegianceLong   = "Allegiance (Hostile, Neutral, Allied)"
	FieldSpecialSkill     = "Special Skill"
	FieldType             = "Type"
	FieldThreshold        = "Transform Threshold"
	FieldReversible       = "Reversible"
	FieldSpecificCards    = "Requirements: Specific Cards"

	secondStatePrefix = "2nd_state_"
)

var numericFields = []string{FieldHealth, FieldMovement, FieldMeleeDamage, FieldProjectileDamage, FieldProjectileRange}

// requirementValues maps a crafting requirement to the material value that pays for it.
var requirementValues = []struct {
	Requirement string
	Value       string
}{
	{"Requirements: Raw Materials", "Raw Material Value"},
	{"Requirements: Refined Materials", "Refined Material Value"},
	{"Requirements: Wood", "Wood Value"},
	{"Requirements: Metal", "Metal Value"},
}

// unit defaults for optional fields
var statDefaults = map[string]int{
	FieldHealth:           10,
	FieldMovement:         3,
	FieldMeleeDamage:      5,
	FieldProjectileDamage: 0,
	FieldProjectileRange:  0,
}

// ValidateCard checks that a card carries the fields its type needs.
func ValidateCard(def *CardDefinition) error {
	if def == nil {
		return fmt.Errorf("%w: card cannot be nil", ErrInvalidCard)
	}
	if def.Data == nil {
		return fmt.Errorf("%w: %s: missing data", ErrInvalidCard, def.ID)
	}

	var required []string
	switch def.CardType {
	case EnemyCard, BossCard:
		required = []string{FieldName, FieldHealth, FieldMovement, FieldMeleeDamage}
	case NPCCard:
		required = []string{FieldName, FieldHealth, FieldMovement, FieldMeleeDamage}
		if _, ok := allegianceField(def.Data); !ok {
			return fmt.Errorf("%w: %s: missing required field %q", ErrInvalidCard, def.ID, FieldAllegianceLong)
		}
	case LocationCard, JunkCard, DocumentCard:
		required = []string{FieldName}
	default:
		return fmt.Errorf("%w: %s: unknown card type %q", ErrInvalidCard, def.ID, def.CardType)
	}

	for _, field := range required {
		if s, ok := def.Data[field]; !ok || s == nil || fmt.Sprint(s) == "" {
			return fmt.Errorf("%w: %s: missing required field %q", ErrInvalidCard, def.ID, field)
		}
	}

	for key, v := range def.Data {
		if !isNumericField(key) {
			continue
		}
		n, ok, err := parseNumber(v)
		if err != nil {
			return fmt.Errorf("%w: %s: field %q: %v", ErrInvalidCard, def.ID, key, err)
		}
		if ok && n < 0 {
			return fmt.Errorf("%w: %s: field %q must be non-negative", ErrInvalidCard, def.ID, key)
		}
	}

	if def.States != 0 && def.States != 1 && def.States != 2 {
		return fmt.Errorf("%w: %s: states must be 1 or 2, got %d", ErrInvalidCard, def.ID, def.States)
	}

	if def.CardType.UnitCard() {
		if _, _, _, err := StatsFromCard(def); err != nil {
			return err
		}
	}
	return nil
}

func isNumericField(key string) bool {
	base := stripSecondState(key)
	for _, f := range numericFields {
		if strings.EqualFold(base, f) {
			return true
		}
	}
	return false
}

func stripSecondState(key string) string {
	if len(key) >= len(secondStatePrefix) && strings.EqualFold(key[:len(secondStatePrefix)], secondStatePrefix) {
		return key[len(secondStatePrefix):]
	}
	return key
}

// StateData returns the fields of one card state with the second-state
// prefix removed. State 1 is everything without the prefix.
func StateData(def *CardDefinition, state int) map[string]interface{} {
	out := make(map[string]interface{})
	for k, v := range def.Data {
		second := stripSecondState(k) != k
		switch {
		case state == 1 && !second:
			out[k] = v
		case state == 2 && second:
			out[stripSecondState(k)] = v
		}
	}
	return out
}

// HasSecondState reports whether the card defines a usable second state.
func HasSecondState(def *CardDefinition) bool {
	if def.States != 2 {
		return false
	}
	_, ok := StateData(def, 2)[FieldName]
	return ok
}

// StatsFromCard builds the primary and optional second-state stat bundles of
// a unit card. Missing second-state fields inherit the first-state values.
func StatsFromCard(def *CardDefinition) (unit.Stats, *unit.Stats, unit.Transform, error) {
	if !def.CardType.UnitCard() {
		return unit.Stats{}, nil, unit.Transform{}, fmt.Errorf("%w: %s: %s does not spawn units", ErrInvalidCard, def.ID, def.CardType)
	}

	first := StateData(def, 1)
	primary, err := statsFromData(first, nil)
	if err != nil {
		return unit.Stats{}, nil, unit.Transform{}, fmt.Errorf("%w: %s: %v", ErrInvalidCard, def.ID, err)
	}

	transform := unit.Transform{}
	if v, ok, err := parseNumber(first[FieldThreshold]); err != nil {
		return unit.Stats{}, nil, unit.Transform{}, fmt.Errorf("%w: %s: field %q: %v", ErrInvalidCard, def.ID, FieldThreshold, err)
	} else if ok {
		transform.Threshold = v
	}
	if v, ok := first[FieldReversible]; ok {
		transform.Reversible = truthy(v)
	}

	if !HasSecondState(def) {
		return primary, nil, transform, nil
	}

	secondary, err := statsFromData(StateData(def, 2), &primary)
	if err != nil {
		return unit.Stats{}, nil, unit.Transform{}, fmt.Errorf("%w: %s: second state: %v", ErrInvalidCard, def.ID, err)
	}
	return primary, &secondary, transform, nil
}

func statsFromData(data map[string]interface{}, base *unit.Stats) (unit.Stats, error) {
	s := unit.Stats{Allegiance: unit.Hostile}
	if base != nil {
		s = *base
	}

	if name, ok := data[FieldName]; ok {
		s.Name = strings.TrimSpace(fmt.Sprint(name))
	}
	if skill, ok := data[FieldSpecialSkill]; ok && skill != nil {
		s.SpecialSkill = fmt.Sprint(skill)
	}

	targets := map[string]*int{
		FieldHealth:           &s.MaxHP,
		FieldMovement:         &s.Movement,
		FieldMeleeDamage:      &s.MeleeDamage,
		FieldProjectileDamage: &s.ProjectileDamage,
		FieldProjectileRange:  &s.ProjectileRange,
	}
	for field, dst := range targets {
		n, ok, err := parseNumber(data[field])
		if err != nil {
			return s, fmt.Errorf("field %q: %v", field, err)
		}
		switch {
		case ok:
			*dst = int(math.Round(n))
		case base == nil:
			*dst = statDefaults[field]
		}
	}

	if raw, ok := allegianceField(data); ok {
		a, err := unit.ParseAllegiance(raw)
		if err != nil {
			return s, err
		}
		s.Allegiance = a
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func allegianceField(data map[string]interface{}) (string, bool) {
	for _, key := range []string{FieldAllegianceLong, FieldAllegiance} {
		if v, ok := data[key]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// NewUnitFromCard creates a full-health unit from a unit card.
func NewUnitFromCard(def *CardDefinition) (*unit.Unit, error) {
	primary, secondary, transform, err := StatsFromCard(def)
	if err != nil {
		return nil, err
	}
	u, err := unit.New(def.ID, primary, secondary, transform)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCard, def.ID, err)
	}
	return u, nil
}

// WeaponFromData extracts a weapon from one card state. Cards without a
// Type of Melee or Projectile and a matching damage field are not weapons.
func WeaponFromData(cardID string, data map[string]interface{}) (*unit.Weapon, bool) {
	kind := strings.ToLower(strings.TrimSpace(fmt.Sprint(data[FieldType])))
	var field string
	var attack unit.AttackKind
	switch kind {
	case "melee":
		field, attack = FieldMeleeDamage, unit.Melee
	case "projectile":
		field, attack = FieldProjectileDamage, unit.Projectile
	default:
		return nil, false
	}

	n, ok, err := parseNumber(data[field])
	if err != nil || !ok || n < 0 {
		return nil, false
	}
	name := strings.TrimSpace(fmt.Sprint(data[FieldName]))
	if name == "" || data[FieldName] == nil {
		return nil, false
	}
	return &unit.Weapon{CardID: cardID, Name: name, Kind: attack, Damage: int(math.Round(n))}, true
}

// ItemFromCard converts a drawn card into an inventory item in its first state.
func ItemFromCard(def *CardDefinition) unit.Item {
	return itemForState(def, 1)
}

func itemForState(def *CardDefinition, state int) unit.Item {
	data := StateData(def, state)
	item := unit.Item{
		CardID:   def.ID,
		Name:     strings.TrimSpace(fmt.Sprint(data[FieldName])),
		CardType: string(def.CardType),
		State:    state,
	}
	if data[FieldName] == nil {
		item.Name = def.ID
	}
	if w, ok := WeaponFromData(def.ID, data); ok {
		item.Weapon = w
	}
	return item
}

// parseNumber reads a card number. JSON gives float64, YAML gives int and
// spreadsheets give strings. A nil or empty value is reported as absent.
func parseNumber(v interface{}) (float64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case uint64:
		return float64(n), true, nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", n)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported value %v", v)
	}
}

func intField(data map[string]interface{}, key string) int {
	n, ok, err := parseNumber(data[key])
	if err != nil || !ok {
		return 0
	}
	return int(n)
}

func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		ok, _ := strconv.ParseBool(strings.TrimSpace(b))
		return ok
	default:
		n, ok, _ := parseNumber(v)
		return ok && n != 0
	}
}
