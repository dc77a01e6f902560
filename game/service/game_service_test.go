package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/service"
	"github.com/wricardo/hextactics/game/turn"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	library  engine.Library
	saves    int
}

func NewMockSessionManager(lib engine.Library) *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		library:  lib,
	}
}

func (m *MockSessionManager) Create(id string, opts service.CreateOptions) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.New(engine.Options{Library: m.library, Seed: 1})
	if err != nil {
		return nil, err
	}
	if opts.Level != "" {
		if err := eng.StartLevel(opts.Level); err != nil {
			return nil, err
		}
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		LevelID:        eng.LevelID(),
		Class:          "Warrior",
		Seed:           1,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("session not found")
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	// Mock save - in real implementation this would persist to disk
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	cards  map[string]*engine.CardDefinition
	levels map[string]*engine.LevelConfig
}

func NewMockConfigManager() *MockConfigManager {
	start := hex.Coord{Row: 3, Col: 3}
	testLevel := &engine.LevelConfig{
		Name:              "Test",
		Grid:              engine.GridSize{Rows: 6, Columns: 6},
		PlayerStart:       &start,
		InaccessibleHexes: []hex.Coord{{Row: 0, Col: 1}},
		Units: []engine.UnitPlacement{
			{CardID: "goblin", Position: hex.Coord{Row: 3, Col: 4}},
		},
	}

	return &MockConfigManager{
		cards: map[string]*engine.CardDefinition{
			"goblin": {
				ID:       "goblin",
				CardType: engine.EnemyCard,
				States:   1,
				Data: map[string]interface{}{
					"Name":         "Goblin",
					"Health":       6,
					"Movement":     2,
					"Melee Damage": 1,
				},
			},
		},
		levels: map[string]*engine.LevelConfig{
			"test": testLevel,
		},
	}
}

func (m *MockConfigManager) Card(id string) (*engine.CardDefinition, error) {
	if c, ok := m.cards[engine.ContentID(id)]; ok {
		return c, nil
	}
	return nil, engine.ErrConfigNotFound
}

func (m *MockConfigManager) Deck(id string) (*engine.DeckConfig, error) {
	return nil, engine.ErrConfigNotFound
}

func (m *MockConfigManager) Level(id string) (*engine.LevelConfig, error) {
	if l, ok := m.levels[engine.ContentID(id)]; ok {
		return l, nil
	}
	return nil, engine.ErrConfigNotFound
}

func (m *MockConfigManager) Campaign(id string) (*engine.CampaignConfig, error) {
	return nil, engine.ErrConfigNotFound
}

func (m *MockConfigManager) ListLevels() ([]*service.LevelInfo, error) {
	result := make([]*service.LevelInfo, 0, len(m.levels))
	for id, l := range m.levels {
		result = append(result, &service.LevelInfo{
			Filename: id + ".json",
			LevelID:  id,
			Name:     l.Name,
			Rows:     l.Grid.Rows,
			Columns:  l.Grid.Columns,
			Units:    len(l.Units),
		})
	}
	return result, nil
}

func (m *MockConfigManager) ListCards() ([]*service.CardInfo, error) {
	result := make([]*service.CardInfo, 0, len(m.cards))
	for id, c := range m.cards {
		result = append(result, &service.CardInfo{Filename: id + ".json", CardID: id, CardType: c.CardType, States: c.States})
	}
	return result, nil
}

func (m *MockConfigManager) ListCampaigns() ([]*service.CampaignInfo, error) {
	return nil, nil
}

func (m *MockConfigManager) DefaultLevel() string {
	return "test"
}

func (m *MockConfigManager) SaveLevel(id string, level *engine.LevelConfig) error {
	if err := engine.ValidateLevel(level); err != nil {
		return err
	}
	m.levels[engine.ContentID(id)] = level
	return nil
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager) {
	t.Helper()
	configs := NewMockConfigManager()
	sessions := NewMockSessionManager(configs)
	return service.NewGameService(sessions, configs, nil), sessions
}

func createTestSession(t *testing.T, svc service.GameService) *service.SessionInfo {
	t.Helper()
	info, err := svc.CreateSession(context.Background(), service.CreateOptions{Level: "test"})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return info
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tests := []struct {
		name    string
		opts    service.CreateOptions
		wantErr string
	}{
		{
			name: "create with default level",
			opts: service.CreateOptions{},
		},
		{
			name: "create with specific level",
			opts: service.CreateOptions{Level: "test", ID: "picked"},
		},
		{
			name:    "create with invalid level",
			opts:    service.CreateOptions{Level: "nonexistent"},
			wantErr: "Available: [test]",
		},
		{
			name:    "create with invalid campaign",
			opts:    service.CreateOptions{Campaign: "nonexistent"},
			wantErr: "campaign 'nonexistent' not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("CreateSession() error = %v, want %q", err, tt.wantErr)
				}
				if err != nil && !errors.Is(err, engine.ErrConfigNotFound) {
					t.Errorf("Expected ErrConfigNotFound in the chain, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSession() error = %v", err)
			}
			if session.LevelID != "test" || session.State == nil {
				t.Errorf("Expected the test level, got %+v", session)
			}
			if tt.opts.ID != "" && session.ID != tt.opts.ID {
				t.Errorf("Expected id %s, got %s", tt.opts.ID, session.ID)
			}
		})
	}
}

func TestGameService_Sessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info := createTestSession(t, svc)

	got, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.ID != info.ID || got.State.Player.Unit.Position != (hex.Coord{Row: 3, Col: 3}) {
		t.Errorf("Unexpected session %+v", got)
	}

	list, err := svc.ListSessions(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("Expected 1 session, got %d (%v)", len(list), err)
	}

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("Expected session not found, got %v", err)
	}
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService(t)
	info := createTestSession(t, svc)

	tests := []struct {
		name        string
		sessionID   string
		to          hex.Coord
		wantErr     bool
		wantSuccess bool
	}{
		{
			name:      "invalid session",
			sessionID: "nonexistent",
			to:        hex.Coord{Row: 2, Col: 3},
			wantErr:   true,
		},
		{
			name:      "occupied cell",
			sessionID: info.ID,
			to:        hex.Coord{Row: 3, Col: 4},
		},
		{
			name:      "blocked cell",
			sessionID: info.ID,
			to:        hex.Coord{Row: 0, Col: 1},
		},
		{
			name:        "valid move",
			sessionID:   info.ID,
			to:          hex.Coord{Row: 1, Col: 3},
			wantSuccess: true,
		},
		{
			name:      "second move in the same turn",
			sessionID: info.ID,
			to:        hex.Coord{Row: 2, Col: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Move(ctx, tt.sessionID, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Move() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if result.Success != tt.wantSuccess {
				t.Errorf("Move() success = %v, want %v (%s)", result.Success, tt.wantSuccess, result.Message)
			}
			if result.State == nil {
				t.Fatal("Move() returned no state")
			}
		})
	}

	state, _ := svc.GetState(ctx, info.ID)
	if state.Player.Unit.Position != (hex.Coord{Row: 1, Col: 3}) {
		t.Errorf("Expected the player at (1,3), got %s", state.Player.Unit.Position)
	}
	if sessions.saves == 0 {
		t.Error("Expected actions to persist the session")
	}
}

func TestGameService_AttackAndFastForward(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info := createTestSession(t, svc)

	res, err := svc.Attack(ctx, info.ID, "laser", hex.Coord{Row: 3, Col: 4})
	if err != nil {
		t.Fatalf("Attack failed: %v", err)
	}
	if res.Success {
		t.Error("Expected an unknown attack to fail")
	}

	// Kick does 6 damage, the goblin has 6 HP
	res, err = svc.Attack(ctx, info.ID, "melee", hex.Coord{Row: 3, Col: 4})
	if err != nil {
		t.Fatalf("Attack failed: %v", err)
	}
	if !res.Success || len(res.State.Units) != 0 {
		t.Fatalf("Expected the goblin to die, got %s with %d units", res.Message, len(res.State.Units))
	}
	if len(res.Events) == 0 || res.Events[0].Type != "log" {
		t.Errorf("Expected log events, got %+v", res.Events)
	}

	end, err := svc.EndTurn(ctx, info.ID, true)
	if err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}
	if !end.Success || end.Steps == 0 {
		t.Errorf("Expected a fast-forwarded turn, got %+v", end)
	}
	if !end.State.Victory || end.State.Phase != turn.PhaseLevelComplete {
		t.Errorf("Expected victory, got phase %s", end.State.Phase)
	}
	if last := end.Events[len(end.Events)-1]; last.Type != "victory" {
		t.Errorf("Expected a trailing victory event, got %+v", last)
	}

	// the match is over
	res, _ = svc.Move(ctx, info.ID, hex.Coord{Row: 2, Col: 3})
	if res.Success {
		t.Error("Expected moves after victory to fail")
	}
}

func TestGameService_EndTurnAndTick(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info := createTestSession(t, svc)

	end, err := svc.EndTurn(ctx, info.ID, false)
	if err != nil || !end.Success {
		t.Fatalf("EndTurn failed: %v %+v", err, end)
	}
	if end.Steps != 0 || end.State.Phase == turn.PhasePlayer {
		t.Errorf("Expected the other phases to be pending, got %+v", end.State.Phase)
	}

	// A second end turn is rejected outside the player phase
	again, _ := svc.EndTurn(ctx, info.ID, false)
	if again.Success {
		t.Error("Expected EndTurn outside the player phase to fail")
	}

	var state *engine.MatchState
	for i := 0; i < 1000; i++ {
		tick, err := svc.Tick(ctx, info.ID, time.Second)
		if err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		state = tick.State
		if state.Phase == turn.PhasePlayer && !state.Animating {
			break
		}
	}
	if state.Phase != turn.PhasePlayer || state.Turn != 2 {
		t.Errorf("Expected turn 2 in the player phase, got turn %d %s", state.Turn, state.Phase)
	}

	if _, err := svc.Tick(ctx, "nonexistent", time.Second); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_AutoTurnAndReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info := createTestSession(t, svc)

	res, err := svc.AutoTurn(ctx, info.ID)
	if err != nil {
		t.Fatalf("AutoTurn failed: %v", err)
	}
	if !res.Success || !res.State.Victory {
		t.Errorf("Expected the auto turn to kill the adjacent goblin, got %s", res.Message)
	}

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.Victory || len(state.Units) != 1 || state.Turn != 1 {
		t.Errorf("Expected a fresh match, got victory=%v units=%d turn=%d", state.Victory, len(state.Units), state.Turn)
	}
	if state.Player.Unit.Position != (hex.Coord{Row: 3, Col: 3}) {
		t.Errorf("Expected the player back at the start, got %s", state.Player.Unit.Position)
	}
}

func TestGameService_DrawCardAndTransform(t *testing.T) {
	ctx := context.Background()
	configs := NewMockConfigManager()
	configs.cards["coin"] = &engine.CardDefinition{
		ID:       "coin",
		CardType: engine.JunkCard,
		States:   1,
		Data:     map[string]interface{}{"Name": "Old Coin", "Metal Value": 1},
	}
	configs.cards["idol"] = &engine.CardDefinition{
		ID:       "idol",
		CardType: engine.NPCCard,
		States:   2,
		Data: map[string]interface{}{
			"Name":           "Idol",
			"Health":         4,
			"Movement":       0,
			"Melee Damage":   0,
			"Allegiance":     "Neutral",
			"2nd_state_Name": "Awakened Idol",
		},
	}
	start := hex.Coord{Row: 3, Col: 3}
	configs.levels["shrine"] = &engine.LevelConfig{
		Name:        "Shrine",
		Grid:        engine.GridSize{Rows: 6, Columns: 6},
		PlayerStart: &start,
		Units: []engine.UnitPlacement{
			{CardID: "idol", Position: hex.Coord{Row: 3, Col: 4}},
			{CardID: "goblin", Position: hex.Coord{Row: 0, Col: 5}},
		},
		CardDrawingHexes: []engine.CardDrawingHex{{Row: 5, Column: 0, CardID: "coin"}},
	}
	svc := service.NewGameService(NewMockSessionManager(configs), configs, nil)
	info, err := svc.CreateSession(ctx, service.CreateOptions{Level: "shrine"})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	drawn, err := svc.DrawCard(ctx, info.ID, hex.Coord{Row: 5, Col: 0})
	if err != nil || !drawn.Success || drawn.Message != "Drew Old Coin" {
		t.Fatalf("DrawCard() = %+v (%v)", drawn, err)
	}
	if inv := drawn.State.Player.Inventory; len(inv) != 1 || inv[0].CardID != "coin" {
		t.Errorf("Expected the coin in the inventory, got %+v", inv)
	}
	if r, _ := svc.DrawCard(ctx, info.ID, hex.Coord{Row: 2, Col: 2}); r.Success {
		t.Error("Expected a draw from a plain cell to be refused")
	}

	changed, err := svc.Transform(ctx, info.ID, hex.Coord{Row: 3, Col: 4})
	if err != nil || !changed.Success || changed.Message != "Awakened Idol switched to second state" {
		t.Fatalf("Transform() = %+v (%v)", changed, err)
	}
	for _, u := range changed.State.Units {
		if u.Position == (hex.Coord{Row: 3, Col: 4}) && u.Active.Name != "Awakened Idol" {
			t.Errorf("Expected the awakened idol in the state, got %s", u.Active.Name)
		}
	}
	if r, _ := svc.Transform(ctx, info.ID, hex.Coord{Row: 0, Col: 5}); r.Success {
		t.Error("Expected a single-state goblin to be refused")
	}
	if _, err := svc.Transform(ctx, "nonexistent", hex.Coord{}); err == nil {
		t.Error("Expected error for an unknown session")
	}
}

func TestGameService_GetLog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info := createTestSession(t, svc)

	svc.Move(ctx, info.ID, hex.Coord{Row: 2, Col: 3})
	svc.EndTurn(ctx, info.ID, true)

	all, err := svc.GetLog(ctx, info.ID, service.LogOptions{Limit: 100, Order: "asc"})
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	if all.Total < 3 || len(all.Entries) != all.Total {
		t.Fatalf("Expected the whole log, got %d of %d", len(all.Entries), all.Total)
	}
	for i := 1; i < len(all.Entries); i++ {
		if all.Entries[i].Seq <= all.Entries[i-1].Seq {
			t.Fatal("Expected ascending order")
		}
	}

	page, err := svc.GetLog(ctx, info.ID, service.LogOptions{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	if len(page.Entries) != 2 || page.Entries[0].Seq != all.Entries[len(all.Entries)-1].Seq {
		t.Errorf("Expected the newest entries first, got %+v", page.Entries)
	}
	if !page.HasNext || page.HasPrevious || page.TotalPages != (all.Total+1)/2 {
		t.Errorf("Unexpected pagination %+v", page)
	}

	beyond, _ := svc.GetLog(ctx, info.ID, service.LogOptions{Page: 50, Limit: 500})
	if len(beyond.Entries) != 0 || beyond.PageSize != 100 {
		t.Errorf("Expected an empty clamped page, got %d entries size %d", len(beyond.Entries), beyond.PageSize)
	}
}

func TestGameService_Queries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info := createTestSession(t, svc)
	goblin := hex.Coord{Row: 3, Col: 4}

	moves, err := svc.MovementRange(ctx, info.ID)
	if err != nil || moves.Kind != "movement" || len(moves.Cells) == 0 {
		t.Fatalf("Unexpected movement range %+v (%v)", moves, err)
	}
	for _, c := range moves.Cells {
		if c == goblin {
			t.Error("Movement range must not include occupied cells")
		}
	}

	melee, err := svc.AttackRange(ctx, info.ID, "melee")
	if err != nil {
		t.Fatalf("AttackRange failed: %v", err)
	}
	if !containsCoord(melee.Cells, goblin) {
		t.Errorf("Expected the goblin in melee range, got %v", melee.Cells)
	}
	if _, err := svc.AttackRange(ctx, info.ID, "laser"); !errors.Is(err, turn.ErrUnknownAttack) {
		t.Errorf("Expected ErrUnknownAttack, got %v", err)
	}

	ranges, err := svc.UnitRanges(ctx, info.ID, goblin)
	if err != nil {
		t.Fatalf("UnitRanges failed: %v", err)
	}
	if len(ranges.Movement) == 0 || len(ranges.Projectile) != 0 {
		t.Errorf("Unexpected goblin ranges %+v", ranges)
	}
	if _, err := svc.UnitRanges(ctx, info.ID, hex.Coord{Row: 5, Col: 5}); !errors.Is(err, service.ErrNoUnit) {
		t.Errorf("Expected ErrNoUnit, got %v", err)
	}

	path, err := svc.FindPath(ctx, info.ID, hex.Coord{Row: 5, Col: 0}, hex.Coord{Row: 5, Col: 2})
	if err != nil || !path.Found || path.Length != 2 {
		t.Errorf("Expected a path of length 2, got %+v (%v)", path, err)
	}
	blocked, _ := svc.FindPath(ctx, info.ID, hex.Coord{Row: 5, Col: 0}, hex.Coord{Row: 0, Col: 1})
	if blocked.Found {
		t.Error("Expected no path into a blocked cell")
	}

	los, err := svc.LineOfSight(ctx, info.ID, hex.Coord{Row: 5, Col: 0}, hex.Coord{Row: 3, Col: 0})
	if err != nil || !los.Visible {
		t.Errorf("Expected a clear line, got %+v (%v)", los, err)
	}
}

func TestGameService_Content(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	levels, err := svc.ListLevels(ctx)
	if err != nil || len(levels) != 1 || levels[0].LevelID != "test" {
		t.Fatalf("Unexpected levels %+v (%v)", levels, err)
	}
	cards, _ := svc.ListCards(ctx)
	if len(cards) != 1 || cards[0].CardType != engine.EnemyCard {
		t.Errorf("Unexpected cards %+v", cards)
	}

	level, err := svc.LoadLevel(ctx, "test")
	if err != nil || level.Name != "Test" {
		t.Fatalf("LoadLevel failed: %v", err)
	}
	if err := svc.SaveLevel(ctx, "copy", level); err != nil {
		t.Fatalf("SaveLevel failed: %v", err)
	}
	if _, err := svc.LoadLevel(ctx, "copy"); err != nil {
		t.Errorf("Expected the saved level to load: %v", err)
	}
	if err := svc.SaveLevel(ctx, "broken", &engine.LevelConfig{}); err == nil {
		t.Error("Expected an invalid level to be rejected")
	}
}

func containsCoord(cells []hex.Coord, c hex.Coord) bool {
	for _, x := range cells {
		if x == c {
			return true
		}
	}
	return false
}
