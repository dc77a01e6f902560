package turn

import (
	"strings"
	"testing"

	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

func TestParseTransition(t *testing.T) {
	tests := []struct {
		in   string
		want Condition
	}{
		{"", NoHostilesRemain{}},
		{"   ", NoHostilesRemain{}},
		{"Defeat Boss 'Goblin King'", DefeatNamed{Name: "Goblin King"}},
		{"Collect 'Ancient Key'", CollectItem{Name: "Ancient Key"}},
	}
	for _, tt := range tests {
		got, err := ParseTransition(tt.in)
		if err != nil {
			t.Errorf("ParseTransition(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTransition(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
		if strings.TrimSpace(tt.in) != "" && got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}

	if _, err := ParseTransition("Survive 10 turns"); err == nil {
		t.Error("Expected error for unknown transition")
	}
}

func TestDefeatNamedCondition(t *testing.T) {
	m := createTestMatch(t, 6, 6, unit.Warrior, hex.Coord{Row: 0, Col: 0})
	boss := goblin()
	boss.Name = "Goblin King"
	king := m.spawn(t, boss, hex.Coord{Row: 3, Col: 3})
	m.spawn(t, goblin(), hex.Coord{Row: 5, Col: 5})

	cond := DefeatNamed{Name: "Goblin King"}
	if cond.Satisfied(m.grid, m.player) {
		t.Error("Boss still on the grid")
	}
	m.grid.Remove(king)
	if !cond.Satisfied(m.grid, m.player) {
		t.Error("Expected satisfied once the boss is gone, other hostiles notwithstanding")
	}
	if (NoHostilesRemain{}).Satisfied(m.grid, m.player) {
		t.Error("A goblin remains")
	}
}

func TestDefeatNamedCondition_Transformed(t *testing.T) {
	m := createTestMatch(t, 6, 6, unit.Warrior, hex.Coord{Row: 0, Col: 0})
	primary := goblin()
	primary.Name = "Goblin King"
	primary.MaxHP = 24
	enraged := primary
	enraged.Name = "Enraged Goblin King"
	enraged.MaxHP = 20

	king, err := unit.New("goblin_king", primary, &enraged, unit.Transform{Threshold: 0.5})
	if err != nil {
		t.Fatalf("unit.New failed: %v", err)
	}
	if !m.grid.Place(king, hex.Coord{Row: 3, Col: 3}) {
		t.Fatal("Place failed")
	}

	cond := DefeatNamed{Name: "Goblin King"}
	king.TakeDamage(13)
	if king.SwitchState() == "" || king.Name() != "Enraged Goblin King" {
		t.Fatalf("Expected the king to switch state, got %s", king.Name())
	}
	if cond.Satisfied(m.grid, m.player) {
		t.Error("A transformed boss is still alive")
	}

	m.grid.Remove(king)
	if !cond.Satisfied(m.grid, m.player) {
		t.Error("Expected satisfied once the transformed boss is gone")
	}
}

func TestCollectItemCondition(t *testing.T) {
	m := createTestMatch(t, 6, 6, unit.Warrior, hex.Coord{Row: 0, Col: 0})
	cond := CollectItem{Name: "Ancient Key"}
	if cond.Satisfied(m.grid, m.player) {
		t.Error("Inventory is empty")
	}
	m.player.AddItem(unit.Item{CardID: "key", Name: "Ancient Key", CardType: "Junk Card"})
	if !cond.Satisfied(m.grid, m.player) {
		t.Error("Expected satisfied after collecting the item")
	}
}

func TestVictoryCheckedAfterHostilePhase(t *testing.T) {
	m := createTestMatch(t, 8, 8, unit.Warrior, hex.Coord{Row: 0, Col: 0},
		WithVictory(CollectItem{Name: "Ancient Key"}))
	m.spawn(t, goblin(), hex.Coord{Row: 7, Col: 7})
	m.player.AddItem(unit.Item{Name: "Ancient Key"})

	if m.director.Phase() != PhasePlayer {
		t.Fatal("Victory must not be checked during the player phase")
	}
	m.director.EndPlayerTurn()
	m.director.RunUntilPlayerTurn()
	if m.director.Phase() != PhaseLevelComplete {
		t.Errorf("Expected level complete, got %s", m.director.Phase())
	}
}
