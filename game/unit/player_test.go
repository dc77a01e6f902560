package unit

import "testing"

func TestNewPlayerClasses(t *testing.T) {
	tests := []struct {
		class      Class
		hp, move   int
		rangeLimit int
		projectile string
		melee      string
	}{
		{Ranger, 50, 5, 5, "Sling", "Punch"},
		{Warrior, 100, 4, 4, "Throw Rock", "Kick"},
		{Tank, 150, 3, 3, "Spit", "Head-butt"},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			p, err := NewPlayer(tt.class)
			if err != nil {
				t.Fatalf("NewPlayer failed: %v", err)
			}
			if p.HP != tt.hp || p.MaxHP() != tt.hp {
				t.Errorf("Expected HP %d, got %d/%d", tt.hp, p.HP, p.MaxHP())
			}
			if p.Movement() != tt.move {
				t.Errorf("Expected movement %d, got %d", tt.move, p.Movement())
			}
			if p.ProjectileRange() != tt.rangeLimit {
				t.Errorf("Expected range %d, got %d", tt.rangeLimit, p.ProjectileRange())
			}
			if p.ProjectileAttack.Name != tt.projectile || p.MeleeAttack.Name != tt.melee {
				t.Errorf("Unexpected attacks %+v / %+v", p.ProjectileAttack, p.MeleeAttack)
			}
			if p.Allegiance() != PlayerAllegiance {
				t.Errorf("Expected Player allegiance, got %s", p.Allegiance())
			}
			if p.Name() != string(tt.class) {
				t.Errorf("Player should be named after the class, got %s", p.Name())
			}
		})
	}

	if _, err := NewPlayer("Bard"); err == nil {
		t.Error("Expected error for unknown class")
	}
}

func TestParseClass(t *testing.T) {
	if c, err := ParseClass("ranger"); err != nil || c != Ranger {
		t.Errorf("ParseClass(ranger) = %s, %v", c, err)
	}
	if c, err := ParseClass(""); err != nil || c != Warrior {
		t.Errorf("Empty class should default to Warrior, got %s, %v", c, err)
	}
	if _, err := ParseClass("wizard"); err == nil {
		t.Error("Expected error for unknown class")
	}
	if len(Classes()) != 3 {
		t.Errorf("Expected 3 classes, got %d", len(Classes()))
	}
}

func TestAttackNamed(t *testing.T) {
	p, _ := NewPlayer(Warrior)

	if a, ok := p.AttackNamed("Kick"); !ok || a.Kind != Melee || a.Damage != 6 {
		t.Errorf("AttackNamed(Kick) = %+v, %v", a, ok)
	}
	if a, ok := p.AttackNamed("projectile"); !ok || a.Name != "Throw Rock" {
		t.Errorf("AttackNamed(projectile) = %+v, %v", a, ok)
	}
	if _, ok := p.AttackNamed("Fireball"); ok {
		t.Error("Unknown attack should not resolve")
	}
}

func TestEquipWeapon(t *testing.T) {
	p, _ := NewPlayer(Ranger)
	p.AddItem(Item{
		CardID:   "rusty_sword",
		Name:     "Rusty Sword",
		CardType: "Junk Card",
		Weapon:   &Weapon{CardID: "rusty_sword", Name: "Rusty Sword", Kind: Melee, Damage: 9},
	})
	p.AddItem(Item{CardID: "old_map", Name: "Old Map", CardType: "Document Card"})

	msg, ok := p.EquipItem("rusty_sword")
	if !ok {
		t.Fatal("Expected equip to succeed")
	}
	if msg != "Ranger equipped Rusty Sword" {
		t.Errorf("Unexpected equip message %q", msg)
	}
	if p.MeleeAttack.Name != "Rusty Sword" || p.MeleeAttack.Damage != 9 {
		t.Errorf("Melee attack not replaced: %+v", p.MeleeAttack)
	}
	if p.Stats().MeleeDamage != 9 {
		t.Errorf("Expected stat bundle to follow the weapon, got %d", p.Stats().MeleeDamage)
	}
	if p.ProjectileAttack.Name != "Sling" {
		t.Error("Projectile attack should be untouched")
	}

	if _, ok := p.EquipItem("old_map"); ok {
		t.Error("Non-weapon items cannot be equipped")
	}
	if _, ok := p.EquipItem("missing"); ok {
		t.Error("Items not in inventory cannot be equipped")
	}
	if !p.HasItem("Old Map") || p.HasItem("Crown") {
		t.Error("HasItem mismatch")
	}
}

func TestPlayerSnapshotRoundTrip(t *testing.T) {
	p, _ := NewPlayer(Tank)
	p.Equip(Weapon{Name: "Blowgun", Kind: Projectile, Damage: 7})
	p.MovementUsed = true
	p.TakeDamage(20)

	restored, err := RestorePlayer(p.Snapshot())
	if err != nil {
		t.Fatalf("RestorePlayer failed: %v", err)
	}
	if restored.HP != 130 || restored.Class != Tank || !restored.MovementUsed {
		t.Errorf("Unexpected restored player: HP=%d class=%s moved=%v", restored.HP, restored.Class, restored.MovementUsed)
	}
	if restored.ProjectileAttack.Name != "Blowgun" || restored.ProjectileWeapon == nil {
		t.Error("Expected equipped projectile weapon to survive restore")
	}

	restored.ResetTurn()
	if restored.MovementUsed || restored.ActionUsed {
		t.Error("ResetTurn should clear both flags")
	}
}
