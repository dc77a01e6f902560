package turn

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

type testMatch struct {
	grid     *grid.Grid
	player   *unit.Player
	director *Director
}

func createTestMatch(t *testing.T, rows, cols int, class unit.Class, at hex.Coord, opts ...Option) *testMatch {
	t.Helper()
	g, err := grid.New(rows, cols)
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	p, err := unit.NewPlayer(class)
	if err != nil {
		t.Fatalf("NewPlayer failed: %v", err)
	}
	if !g.PlacePlayer(p, at) {
		t.Fatalf("PlacePlayer(%v) failed", at)
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return &testMatch{grid: g, player: p, director: NewDirector(g, opts...)}
}

func (m *testMatch) spawn(t *testing.T, stats unit.Stats, at hex.Coord) *unit.Unit {
	t.Helper()
	u, err := unit.New("", stats, nil, unit.Transform{})
	if err != nil {
		t.Fatalf("unit.New failed: %v", err)
	}
	if !m.grid.Place(u, at) {
		t.Fatalf("Place(%s, %v) failed", stats.Name, at)
	}
	return u
}

func goblin() unit.Stats {
	return unit.Stats{Name: "Goblin", MaxHP: 10, Movement: 3, MeleeDamage: 6, Allegiance: unit.Hostile}
}

func hasMessage(l *Log, want string) bool {
	for _, m := range l.Messages() {
		if m == want {
			return true
		}
	}
	return false
}

func countContaining(l *Log, part string) int {
	n := 0
	for _, m := range l.Messages() {
		if strings.Contains(m, part) {
			n++
		}
	}
	return n
}

func TestHostileMeleesAdjacentPlayer(t *testing.T) {
	center := hex.Coord{Row: 5, Col: 5}
	m := createTestMatch(t, 10, 10, unit.Warrior, hex.Neighbors(center)[0])
	m.player.HP = 20
	m.spawn(t, goblin(), center)

	if err := m.director.EndPlayerTurn(); err != nil {
		t.Fatalf("EndPlayerTurn failed: %v", err)
	}
	m.director.RunUntilPlayerTurn()

	if m.player.HP != 14 {
		t.Errorf("Expected player HP 14, got %d", m.player.HP)
	}
	if !hasMessage(m.director.Log(), "Goblin attacked Warrior for 6 damage") {
		t.Errorf("Missing attack line, log: %v", m.director.Log().Messages())
	}
	if m.director.Phase() != PhasePlayer || m.director.Turn() != 2 {
		t.Errorf("Expected player phase of turn 2, got %s/%d", m.director.Phase(), m.director.Turn())
	}
}

func TestHostileAdvancesAlongPath(t *testing.T) {
	m := createTestMatch(t, 10, 10, unit.Warrior, hex.Coord{Row: 0, Col: 0})
	g := m.spawn(t, goblin(), hex.Coord{Row: 0, Col: 9})
	before := hex.Distance(g.Position(), m.player.Position())

	m.director.EndPlayerTurn()
	m.director.RunUntilPlayerTurn()

	after := hex.Distance(g.Position(), m.player.Position())
	if before-after != 3 {
		t.Errorf("Expected goblin to close 3 hexes, went from %d to %d", before, after)
	}
	if !hasMessage(m.director.Log(), grid.MovedMessage("Goblin", g.Position())) {
		t.Errorf("Missing move line, log: %v", m.director.Log().Messages())
	}
	if m.player.HP != m.player.MaxHP() {
		t.Error("Goblin should not reach the player this turn")
	}
}

func TestHostileProjectileNeedsLineOfSight(t *testing.T) {
	start := hex.Coord{Row: 5, Col: 5}
	dir := hex.Directions[0]
	archer := goblin()
	archer.Name = "Archer"
	archer.ProjectileDamage = 3
	archer.ProjectileRange = 4

	m := createTestMatch(t, 11, 11, unit.Warrior, start)
	m.spawn(t, archer, hex.Step(start, dir, 3))
	m.director.EndPlayerTurn()
	m.director.RunUntilPlayerTurn()

	if !hasMessage(m.director.Log(), "Archer attacked Warrior with projectile for 3 damage") {
		t.Errorf("Expected a projectile attack, log: %v", m.director.Log().Messages())
	}
	if m.player.HP != 97 {
		t.Errorf("Expected HP 97, got %d", m.player.HP)
	}

	blocked := createTestMatch(t, 11, 11, unit.Warrior, start)
	shooter := blocked.spawn(t, archer, hex.Step(start, dir, 3))
	blocked.grid.SetAccessible(hex.Step(start, dir, 1), false)
	origin := shooter.Position()
	blocked.director.EndPlayerTurn()
	blocked.director.RunUntilPlayerTurn()

	if countContaining(blocked.director.Log(), "with projectile") != 0 {
		t.Errorf("Blocked shot should not fire, log: %v", blocked.director.Log().Messages())
	}
	if shooter.Position() == origin {
		t.Error("Blocked archer should move instead")
	}
}

func TestHostileMeleesAdjacentAlly(t *testing.T) {
	m := createTestMatch(t, 10, 10, unit.Warrior, hex.Coord{Row: 0, Col: 0},
		WithRand(&Sequence{Values: []int{1}}))
	center := hex.Coord{Row: 6, Col: 6}
	m.spawn(t, goblin(), center)
	neighbors := hex.Neighbors(center)
	guard := unit.Stats{Name: "Guard", MaxHP: 30, Movement: 0, Allegiance: unit.Allied}
	m.spawn(t, guard, neighbors[0])
	scout := guard
	scout.Name = "Scout"
	m.spawn(t, scout, neighbors[3])

	m.director.EndPlayerTurn()
	m.director.RunUntilPlayerTurn()

	if !hasMessage(m.director.Log(), "Goblin attacked Scout for 6 damage") {
		t.Errorf("Expected the second adjacent ally to be picked, log: %v", m.director.Log().Messages())
	}
}

func TestAlliedShootsNearestHostile(t *testing.T) {
	start := hex.Coord{Row: 5, Col: 5}
	m := createTestMatch(t, 11, 11, unit.Warrior, hex.Coord{Row: 0, Col: 0})
	ally := unit.Stats{Name: "Ranger Ally", MaxHP: 10, Movement: 2, MeleeDamage: 1, ProjectileDamage: 4, ProjectileRange: 3, Allegiance: unit.Allied}
	m.spawn(t, ally, start)
	near := m.spawn(t, goblin(), hex.Step(start, hex.Directions[2], 2))
	far := goblin()
	far.Name = "Far Goblin"
	m.spawn(t, far, hex.Step(start, hex.Directions[5], 3))

	m.director.EndPlayerTurn()
	m.director.Step() // one allied decision
	if !hasMessage(m.director.Log(), "Ranger Ally attacked Goblin with projectile for 4 damage") {
		t.Errorf("Expected a shot at the nearest hostile, log: %v", m.director.Log().Messages())
	}
	if near.HP != 6 {
		t.Errorf("Expected goblin HP 6, got %d", near.HP)
	}
}

func TestDeadUnitRemovedImmediately(t *testing.T) {
	var defeated []string
	m := createTestMatch(t, 8, 8, unit.Warrior, hex.Coord{Row: 0, Col: 0},
		OnDefeated(func(u *unit.Unit) { defeated = append(defeated, u.Name()) }))
	center := hex.Coord{Row: 4, Col: 4}
	victim := m.spawn(t, goblin(), center)
	brute := unit.Stats{Name: "Brute", MaxHP: 40, Movement: 2, MeleeDamage: 50, Allegiance: unit.Allied}
	m.spawn(t, brute, hex.Neighbors(center)[1])

	m.director.EndPlayerTurn()
	m.director.Step()

	for _, u := range m.grid.Units() {
		if u == victim {
			t.Fatal("Dead unit still listed")
		}
	}
	if _, ok := m.grid.OccupantAt(center); ok {
		t.Error("Dead unit's cell should be empty")
	}
	if !hasMessage(m.director.Log(), "Goblin defeated") {
		t.Errorf("Missing defeat line, log: %v", m.director.Log().Messages())
	}
	if len(defeated) != 1 || defeated[0] != "Goblin" {
		t.Errorf("Expected defeat callback for Goblin, got %v", defeated)
	}

	// The dead goblin is skipped in its own phase and the level completes.
	m.director.RunUntilPlayerTurn()
	if m.director.Phase() != PhaseLevelComplete {
		t.Errorf("Expected level complete, got %s", m.director.Phase())
	}
}

func TestPlayerDefeatEndsMatch(t *testing.T) {
	center := hex.Coord{Row: 5, Col: 5}
	m := createTestMatch(t, 10, 10, unit.Ranger, center)
	m.player.HP = 5
	neighbors := hex.Neighbors(center)
	m.spawn(t, goblin(), neighbors[0])
	m.spawn(t, goblin(), neighbors[1])

	m.director.EndPlayerTurn()
	m.director.RunUntilPlayerTurn()

	if m.director.Phase() != PhaseGameOver {
		t.Fatalf("Expected game over, got %s", m.director.Phase())
	}
	if !hasMessage(m.director.Log(), PlayerDefeatedMessage) {
		t.Error("Missing defeat line")
	}
	if n := countContaining(m.director.Log(), "attacked Ranger"); n != 1 {
		t.Errorf("Remaining decisions should be discarded, got %d attacks", n)
	}
	if err := m.director.EndPlayerTurn(); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver, got %v", err)
	}
	if err := m.director.MovePlayer(hex.Coord{Row: 0, Col: 0}); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver, got %v", err)
	}
}

func TestNeutralWanders(t *testing.T) {
	m := createTestMatch(t, 8, 8, unit.Warrior, hex.Coord{Row: 0, Col: 0},
		WithRand(&Sequence{Values: []int{0}}))
	start := hex.Coord{Row: 4, Col: 4}
	merchant := m.spawn(t, unit.Stats{Name: "Merchant", MaxHP: 5, Movement: 1, Allegiance: unit.Neutral}, start)
	want := m.grid.EmptyNeighbors(start)[0]

	m.director.EndPlayerTurn()
	m.director.RunUntilPlayerTurn()

	if merchant.Position() != want {
		t.Errorf("Expected merchant at %v, got %v", want, merchant.Position())
	}
}

func TestNeutralBoxedInStays(t *testing.T) {
	m := createTestMatch(t, 8, 8, unit.Warrior, hex.Coord{Row: 0, Col: 0})
	start := hex.Coord{Row: 4, Col: 4}
	for _, n := range hex.Neighbors(start) {
		m.grid.SetAccessible(n, false)
	}
	merchant := m.spawn(t, unit.Stats{Name: "Merchant", MaxHP: 5, Movement: 1, Allegiance: unit.Neutral}, start)

	m.director.EndPlayerTurn()
	m.director.RunUntilPlayerTurn()

	if merchant.Position() != start {
		t.Error("Boxed-in neutral should stay put")
	}
}

func TestSecondStateOnPlayerHit(t *testing.T) {
	center := hex.Coord{Row: 4, Col: 4}
	m := createTestMatch(t, 8, 8, unit.Tank, hex.Neighbors(center)[2])
	secondary := unit.Stats{Name: "Goblin Chief", MaxHP: 30, Movement: 3, MeleeDamage: 9, Allegiance: unit.Hostile}
	u, _ := unit.New("", goblin(), &secondary, unit.Transform{})
	m.grid.Place(u, center)

	if err := m.director.PlayerAttack("Head-butt", center); err != nil {
		t.Fatalf("PlayerAttack failed: %v", err)
	}
	if !hasMessage(m.director.Log(), "Tank used Head-butt on Goblin for 8 damage") {
		t.Errorf("Missing attack line, log: %v", m.director.Log().Messages())
	}
	if !hasMessage(m.director.Log(), "Goblin Chief switched to second state") {
		t.Errorf("Missing switch line, log: %v", m.director.Log().Messages())
	}
	if u.HP != 30 || u.Name() != "Goblin Chief" {
		t.Errorf("Expected Goblin Chief at 30 HP, got %s at %d", u.Name(), u.HP)
	}
}

func TestTickWaitsForAnimations(t *testing.T) {
	m := createTestMatch(t, 8, 8, unit.Warrior, hex.Coord{Row: 4, Col: 4})
	m.spawn(t, goblin(), hex.Coord{Row: 0, Col: 7})

	if err := m.director.MovePlayer(hex.Coord{Row: 6, Col: 4}); err != nil {
		t.Fatalf("MovePlayer failed: %v", err)
	}
	m.director.EndPlayerTurn()

	if m.director.Tick(unit.StepDuration / 2) {
		t.Error("Tick should wait while the player is moving")
	}
	if !m.director.Animating() {
		t.Error("Expected the player to still be animating")
	}
	if !m.director.Tick(2 * unit.StepDuration) {
		t.Error("Tick should step once the move finishes")
	}
}

func TestPhaseCycle(t *testing.T) {
	m := createTestMatch(t, 8, 8, unit.Warrior, hex.Coord{Row: 0, Col: 0})
	m.spawn(t, unit.Stats{Name: "Dog", MaxHP: 8, Movement: 2, Allegiance: unit.Allied}, hex.Coord{Row: 4, Col: 1})
	m.spawn(t, unit.Stats{Name: "Merchant", MaxHP: 5, Movement: 1, Allegiance: unit.Neutral}, hex.Coord{Row: 4, Col: 4})
	m.spawn(t, goblin(), hex.Coord{Row: 7, Col: 7})

	if err := m.director.EndPlayerTurn(); err != nil {
		t.Fatalf("EndPlayerTurn failed: %v", err)
	}
	phases := []Phase{m.director.Phase()}
	for i := 0; i < 20 && m.director.Phase() != PhasePlayer; i++ {
		if m.director.Turn() != 1 && m.director.Phase() != PhasePlayer {
			t.Fatalf("Turn advanced to %d during the %s phase", m.director.Turn(), m.director.Phase())
		}
		m.director.FinishAnimations()
		if !m.director.Step() {
			t.Fatalf("Step stalled in the %s phase", m.director.Phase())
		}
		if p := m.director.Phase(); p != phases[len(phases)-1] {
			phases = append(phases, p)
		}
	}

	want := []Phase{PhaseAllied, PhaseNeutral, PhaseHostile, PhasePlayer}
	if len(phases) != len(want) {
		t.Fatalf("Expected phases %v, got %v", want, phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("Expected phases %v, got %v", want, phases)
		}
	}
	if m.director.Turn() != 2 {
		t.Errorf("Expected turn 2 once the hostile phase ends, got %d", m.director.Turn())
	}
	if m.director.Step() {
		t.Error("Step should do nothing in the player phase")
	}
}

func TestRestoreMidPhaseResumesQueue(t *testing.T) {
	m := createTestMatch(t, 8, 8, unit.Warrior, hex.Coord{Row: 0, Col: 0})
	first := m.spawn(t, goblin(), hex.Coord{Row: 7, Col: 7})
	second := m.spawn(t, goblin(), hex.Coord{Row: 7, Col: 5})

	m.director.EndPlayerTurn()
	for m.director.Phase() != PhaseHostile {
		m.director.Step()
	}
	m.director.FinishAnimations()
	m.director.Step()
	pending := m.director.PendingIDs()
	if len(pending) != 1 || pending[0] != second.ID {
		t.Fatalf("Expected only %s pending, got %v", second.ID, pending)
	}

	resumed := NewDirector(m.grid, WithLogger(zaptest.NewLogger(t)))
	resumed.Restore(PhaseHostile, 3, append(pending, "gone"))
	if resumed.Phase() != PhaseHostile || resumed.Turn() != 3 || resumed.Pending() != 1 {
		t.Fatalf("Expected hostile phase of turn 3 with one pending unit, got %s/%d/%d",
			resumed.Phase(), resumed.Turn(), resumed.Pending())
	}

	start := first.Position()
	resumed.Step()
	if first.Position() != start {
		t.Error("A unit that already acted must not act again")
	}
	resumed.FinishAnimations()
	resumed.Step()
	if resumed.Phase() != PhasePlayer || resumed.Turn() != 4 {
		t.Errorf("Expected the player phase of turn 4, got %s/%d", resumed.Phase(), resumed.Turn())
	}

	resumed.Restore(PhaseGameOver, 0, nil)
	if resumed.Phase() != PhaseGameOver || resumed.Turn() != 4 || resumed.Pending() != 0 {
		t.Errorf("Expected game over to survive restore, got %s/%d", resumed.Phase(), resumed.Turn())
	}
}

func TestParsePhase(t *testing.T) {
	if p, err := ParsePhase(" Hostile "); err != nil || p != PhaseHostile {
		t.Errorf("ParsePhase(Hostile) = %s, %v", p, err)
	}
	if _, err := ParsePhase("lunch"); err == nil {
		t.Error("Expected error for unknown phase")
	}
}
