package turn

import (
	"errors"
	"testing"

	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

func TestMovePlayer(t *testing.T) {
	start := hex.Coord{Row: 5, Col: 5}
	m := createTestMatch(t, 12, 12, unit.Warrior, start)

	tooFar := hex.Step(start, hex.Directions[2], 5)
	if err := m.director.MovePlayer(tooFar); !errors.Is(err, ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable beyond movement, got %v", err)
	}

	blocked := hex.Step(start, hex.Directions[0], 1)
	m.grid.SetAccessible(blocked, false)
	if err := m.director.MovePlayer(blocked); !errors.Is(err, ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable on a blocked cell, got %v", err)
	}

	dest := hex.Step(start, hex.Directions[2], 2)
	if err := m.director.MovePlayer(dest); err != nil {
		t.Fatalf("MovePlayer failed: %v", err)
	}
	if m.player.Position() != dest || !m.player.MovementUsed {
		t.Error("Player should be at the destination with movement used")
	}
	if !hasMessage(m.director.Log(), grid.MovedMessage("Warrior", dest)) {
		t.Errorf("Missing move line, log: %v", m.director.Log().Messages())
	}

	if err := m.director.MovePlayer(start); !errors.Is(err, ErrMovementUsed) {
		t.Errorf("Expected ErrMovementUsed, got %v", err)
	}
}

func TestPlayerActionsOnlyInPlayerPhase(t *testing.T) {
	m := createTestMatch(t, 6, 6, unit.Warrior, hex.Coord{Row: 2, Col: 2})
	m.spawn(t, goblin(), hex.Coord{Row: 5, Col: 5})
	m.director.EndPlayerTurn()

	if err := m.director.MovePlayer(hex.Coord{Row: 3, Col: 2}); !errors.Is(err, ErrNotPlayerPhase) {
		t.Errorf("Expected ErrNotPlayerPhase, got %v", err)
	}
	if err := m.director.PlayerAttack("Kick", hex.Coord{Row: 5, Col: 5}); !errors.Is(err, ErrNotPlayerPhase) {
		t.Errorf("Expected ErrNotPlayerPhase, got %v", err)
	}
	if err := m.director.EndPlayerTurn(); !errors.Is(err, ErrNotPlayerPhase) {
		t.Errorf("Expected ErrNotPlayerPhase, got %v", err)
	}
}

func TestPlayerProjectileAttack(t *testing.T) {
	start := hex.Coord{Row: 5, Col: 5}
	m := createTestMatch(t, 12, 12, unit.Warrior, start)
	aligned := hex.Step(start, hex.Directions[1], 2)
	target := m.spawn(t, goblin(), aligned)
	offAxis := hex.Step(hex.Step(start, hex.Directions[3], 1), hex.Directions[4], 1)
	m.spawn(t, goblin(), offAxis)

	if err := m.director.PlayerAttack("Throw Rock", offAxis); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for an unaligned target, got %v", err)
	}
	if err := m.director.PlayerAttack("Kick", aligned); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for melee at distance 2, got %v", err)
	}
	if err := m.director.PlayerAttack("Fireball", aligned); !errors.Is(err, ErrUnknownAttack) {
		t.Errorf("Expected ErrUnknownAttack, got %v", err)
	}
	if err := m.director.PlayerAttack("Throw Rock", hex.Coord{Row: 0, Col: 0}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Expected ErrNoTarget on an empty cell, got %v", err)
	}
	if m.player.ActionUsed {
		t.Fatal("Failed attacks must not use the action")
	}

	if err := m.director.PlayerAttack("Throw Rock", aligned); err != nil {
		t.Fatalf("PlayerAttack failed: %v", err)
	}
	if target.HP != 4 {
		t.Errorf("Expected goblin HP 4, got %d", target.HP)
	}
	if !hasMessage(m.director.Log(), "Warrior used Throw Rock on Goblin for 6 damage") {
		t.Errorf("Missing attack line, log: %v", m.director.Log().Messages())
	}
	if err := m.director.PlayerAttack("Throw Rock", aligned); !errors.Is(err, ErrActionUsed) {
		t.Errorf("Expected ErrActionUsed, got %v", err)
	}
}

func TestPlayerAttackRange(t *testing.T) {
	start := hex.Coord{Row: 5, Col: 5}
	m := createTestMatch(t, 12, 12, unit.Ranger, start)

	melee, err := m.director.PlayerAttackRange("melee")
	if err != nil || len(melee) != 6 {
		t.Errorf("Expected 6 melee cells, got %d (%v)", len(melee), err)
	}
	shots, err := m.director.PlayerAttackRange("Sling")
	if err != nil || len(shots) != 24 {
		t.Errorf("Expected 24 projectile cells for range 5, got %d (%v)", len(shots), err)
	}
}

func TestTransformAt(t *testing.T) {
	m := createTestMatch(t, 6, 6, unit.Warrior, hex.Coord{Row: 0, Col: 0})
	secondary := unit.Stats{Name: "Awakened Golem", MaxHP: 40, Movement: 1, MeleeDamage: 10, Allegiance: unit.Allied}
	statue, _ := unit.New("", unit.Stats{Name: "Statue", MaxHP: 20, Allegiance: unit.Neutral}, &secondary, unit.Transform{Reversible: true})
	at := hex.Coord{Row: 3, Col: 3}
	m.grid.Place(statue, at)

	if msg, ok := m.director.TransformAt(at); !ok || msg != "Awakened Golem switched to second state" {
		t.Errorf("TransformAt = %q, %v", msg, ok)
	}
	if statue.Allegiance() != unit.Allied {
		t.Error("Transformed statue should be allied")
	}
	if _, ok := m.director.TransformAt(hex.Coord{Row: 0, Col: 0}); ok {
		t.Error("The player cannot be transformed")
	}
}
