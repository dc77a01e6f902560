package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/turn"
)

const (
	defaultLogPageSize = 20
	maxLogPageSize     = 100
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *zap.Logger
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
}

// CreateSession creates a new match session
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error) {
	if opts.Skirmish == nil && opts.Campaign == "" && opts.Level == "" {
		opts.Level = s.configs.DefaultLevel()
	}

	// Reject unknown content up front with a helpful list of what exists
	switch {
	case opts.Skirmish != nil:
	case opts.Campaign != "":
		if _, err := s.configs.Campaign(opts.Campaign); err != nil {
			return nil, s.contentError("campaign", opts.Campaign, err)
		}
	case opts.Level != "":
		if _, err := s.configs.Level(opts.Level); err != nil {
			return nil, s.contentError("level", opts.Level, err)
		}
	}

	session, err := s.sessions.Create(opts.ID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session.Lock()
	defer session.Unlock()
	return sessionInfo(session), nil
}

func (s *gameServiceImpl) contentError(kind, id string, err error) error {
	if !errors.Is(err, engine.ErrConfigNotFound) {
		return fmt.Errorf("failed to load %s %s: %w", kind, id, err)
	}

	var ids []string
	switch kind {
	case "campaign":
		if list, listErr := s.configs.ListCampaigns(); listErr == nil {
			for _, c := range list {
				ids = append(ids, c.CampaignID)
			}
		}
	default:
		if list, listErr := s.configs.ListLevels(); listErr == nil {
			for _, l := range list {
				ids = append(ids, l.LevelID)
			}
		}
	}
	if len(ids) > 0 {
		return fmt.Errorf("%s '%s' not found. Available: %v: %w", kind, id, ids, err)
	}
	return fmt.Errorf("%s '%s' not found. Use /api/%ss to list available content: %w", kind, id, kind, err)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	session.Lock()
	defer session.Unlock()
	s.sessions.UpdateLastAccessed(sessionID)
	return sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		result = append(result, sessionInfo(sess))
		sess.Unlock()
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// sessionInfo builds the public view of a session. The caller holds its lock.
func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.Engine.LevelID(),
		CampaignID:     sess.CampaignID,
		Class:          sess.Class,
		Seed:           sess.Seed,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.Engine.State(),
	}
}

// withSession runs fn under the session lock, then persists the session.
func (s *gameServiceImpl) withSession(sessionID string, save bool, fn func(*Session) error) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()

	s.sessions.UpdateLastAccessed(sessionID)
	if err := fn(sess); err != nil {
		return err
	}

	if save {
		if err := s.sessions.Save(sessionID); err != nil {
			s.logger.Warn("failed to persist session", zap.String("session", sessionID), zap.Error(err))
		}
	}
	return nil
}

// action runs a player action and gathers the log lines it produced.
func (s *gameServiceImpl) action(sessionID string, act func(*engine.MatchEngine) engine.ActionResult) (*ActionResponse, error) {
	var resp *ActionResponse
	err := s.withSession(sessionID, true, func(sess *Session) error {
		seq := sess.Engine.Log().LastSeq()
		res := act(sess.Engine)
		resp = &ActionResponse{
			Success: res.Success,
			Message: res.Message,
			State:   sess.Engine.State(),
			Events:  collectEvents(sess.Engine, seq),
		}
		return nil
	})
	return resp, err
}

// collectEvents turns log entries newer than seq into events and appends the
// match outcome once it is decided.
func collectEvents(eng *engine.MatchEngine, seq int) []GameEvent {
	var events []GameEvent
	for _, entry := range eng.Log().Since(seq) {
		events = append(events, logEvent(entry))
	}
	if len(events) == 0 {
		return events
	}

	now := time.Now()
	switch {
	case eng.IsVictory():
		events = append(events, GameEvent{
			Type:      "victory",
			Message:   "Victory!",
			Turn:      eng.Director().Turn(),
			Timestamp: now,
		})
	case eng.IsGameOver():
		events = append(events, GameEvent{
			Type:      "game_over",
			Message:   "The player has fallen",
			Turn:      eng.Director().Turn(),
			Timestamp: now,
		})
	}
	return events
}

func logEvent(entry turn.Entry) GameEvent {
	return GameEvent{
		Type:      "log",
		Message:   entry.Message,
		Turn:      entry.Turn,
		Phase:     string(entry.Phase),
		Timestamp: entry.Timestamp,
	}
}

// Move walks the player to a cell
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, to hex.Coord) (*ActionResponse, error) {
	return s.action(sessionID, func(e *engine.MatchEngine) engine.ActionResult {
		return e.MovePlayer(to)
	})
}

// Attack performs one of the player's attacks against a cell
func (s *gameServiceImpl) Attack(ctx context.Context, sessionID, attackName string, target hex.Coord) (*ActionResponse, error) {
	return s.action(sessionID, func(e *engine.MatchEngine) engine.ActionResult {
		return e.Attack(attackName, target)
	})
}

// Equip equips an inventory item
func (s *gameServiceImpl) Equip(ctx context.Context, sessionID, cardID string) (*ActionResponse, error) {
	return s.action(sessionID, func(e *engine.MatchEngine) engine.ActionResult {
		return e.Equip(cardID)
	})
}

// Craft turns an inventory item into its second state
func (s *gameServiceImpl) Craft(ctx context.Context, sessionID, cardID string, materials []string) (*ActionResponse, error) {
	return s.action(sessionID, func(e *engine.MatchEngine) engine.ActionResult {
		return e.Craft(cardID, materials)
	})
}

// DrawCard resolves the card-drawing hex at a cell without moving there
func (s *gameServiceImpl) DrawCard(ctx context.Context, sessionID string, at hex.Coord) (*ActionResponse, error) {
	return s.action(sessionID, func(e *engine.MatchEngine) engine.ActionResult {
		return e.DrawCard(at)
	})
}

// Transform switches the unit at a cell to its other state
func (s *gameServiceImpl) Transform(ctx context.Context, sessionID string, at hex.Coord) (*ActionResponse, error) {
	return s.action(sessionID, func(e *engine.MatchEngine) engine.ActionResult {
		return e.TransformUnit(at)
	})
}

// AutoTurn lets the engine play the player's turn
func (s *gameServiceImpl) AutoTurn(ctx context.Context, sessionID string) (*ActionResponse, error) {
	return s.action(sessionID, func(e *engine.MatchEngine) engine.ActionResult {
		return e.AutoTurn()
	})
}

// EndTurn ends the player phase. With fastForward the remaining phases run
// at once; otherwise clients drive them with Tick.
func (s *gameServiceImpl) EndTurn(ctx context.Context, sessionID string, fastForward bool) (*EndTurnResponse, error) {
	var resp *EndTurnResponse
	err := s.withSession(sessionID, true, func(sess *Session) error {
		seq := sess.Engine.Log().LastSeq()
		res := sess.Engine.EndTurn()
		resp = &EndTurnResponse{Success: res.Success, Message: res.Message}
		if res.Success && fastForward {
			resp.Steps = sess.Engine.RunUntilPlayerTurn()
		}
		resp.State = sess.Engine.State()
		resp.Events = collectEvents(sess.Engine, seq)
		return nil
	})
	return resp, err
}

// Tick advances the session's director by elapsed time
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, elapsed time.Duration) (*TickResponse, error) {
	var resp *TickResponse
	err := s.withSession(sessionID, false, func(sess *Session) error {
		seq := sess.Engine.Log().LastSeq()
		stepped := sess.Engine.Tick(elapsed)
		resp = &TickResponse{
			Stepped: stepped,
			State:   sess.Engine.State(),
			Events:  collectEvents(sess.Engine, seq),
		}
		if stepped {
			if err := s.sessions.Save(sessionID); err != nil {
				s.logger.Warn("failed to persist session", zap.String("session", sessionID), zap.Error(err))
			}
		}
		return nil
	})
	return resp, err
}

// Reset starts the session's match over
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.MatchState, error) {
	var state *engine.MatchState
	err := s.withSession(sessionID, true, func(sess *Session) error {
		if err := sess.Engine.Reset(); err != nil {
			s.logger.Warn("reset fell back to the arena", zap.String("session", sessionID), zap.Error(err))
		}
		state = sess.Engine.State()
		return nil
	})
	return state, err
}

// GetState returns the current match state
func (s *gameServiceImpl) GetState(ctx context.Context, sessionID string) (*engine.MatchState, error) {
	var state *engine.MatchState
	err := s.withSession(sessionID, false, func(sess *Session) error {
		state = sess.Engine.State()
		return nil
	})
	return state, err
}

// GetLog returns a page of the turn log
func (s *gameServiceImpl) GetLog(ctx context.Context, sessionID string, opts LogOptions) (*LogResponse, error) {
	var entries []turn.Entry
	err := s.withSession(sessionID, false, func(sess *Session) error {
		entries = sess.Engine.Log().Entries()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Set defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = defaultLogPageSize
	}
	if opts.Limit > maxLogPageSize {
		opts.Limit = maxLogPageSize
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	if opts.Order == "desc" {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	total := len(entries)
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &LogResponse{
		Entries:     entries[start:end],
		Total:       total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// MovementRange returns the cells the player can reach this turn
func (s *gameServiceImpl) MovementRange(ctx context.Context, sessionID string) (*RangeResponse, error) {
	var resp *RangeResponse
	err := s.withSession(sessionID, false, func(sess *Session) error {
		resp = &RangeResponse{Kind: "movement", Cells: sess.Engine.MovementRange()}
		return nil
	})
	return resp, err
}

// AttackRange returns the cells the named attack covers
func (s *gameServiceImpl) AttackRange(ctx context.Context, sessionID, attackName string) (*RangeResponse, error) {
	var resp *RangeResponse
	err := s.withSession(sessionID, false, func(sess *Session) error {
		cells, err := sess.Engine.AttackRange(attackName)
		if err != nil {
			return err
		}
		resp = &RangeResponse{Kind: attackName, Cells: cells}
		return nil
	})
	return resp, err
}

// UnitRanges returns the ranges of the unit standing at a cell
func (s *gameServiceImpl) UnitRanges(ctx context.Context, sessionID string, at hex.Coord) (*UnitRangesResponse, error) {
	var resp *UnitRangesResponse
	err := s.withSession(sessionID, false, func(sess *Session) error {
		movement, melee, projectile, ok := sess.Engine.UnitRanges(at)
		if !ok {
			return fmt.Errorf("%w at %s", ErrNoUnit, at)
		}
		resp = &UnitRangesResponse{
			Position:   at,
			Movement:   movement,
			Melee:      melee,
			Projectile: projectile,
		}
		return nil
	})
	return resp, err
}

// FindPath runs a path search on the session's grid
func (s *gameServiceImpl) FindPath(ctx context.Context, sessionID string, from, to hex.Coord) (*PathResponse, error) {
	var resp *PathResponse
	err := s.withSession(sessionID, false, func(sess *Session) error {
		path, ok := sess.Engine.FindPath(from, to)
		resp = &PathResponse{Found: ok, Path: path}
		if ok {
			resp.Length = len(path) - 1
		}
		return nil
	})
	return resp, err
}

// LineOfSight checks the line between two cells on the session's grid
func (s *gameServiceImpl) LineOfSight(ctx context.Context, sessionID string, from, to hex.Coord) (*LineOfSightResponse, error) {
	var resp *LineOfSightResponse
	err := s.withSession(sessionID, false, func(sess *Session) error {
		resp = &LineOfSightResponse{From: from, To: to, Visible: sess.Engine.LineOfSight(from, to)}
		return nil
	})
	return resp, err
}

// ListLevels returns available levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.configs.ListLevels()
}

// ListCards returns available cards
func (s *gameServiceImpl) ListCards(ctx context.Context) ([]*CardInfo, error) {
	return s.configs.ListCards()
}

// ListCampaigns returns available campaigns
func (s *gameServiceImpl) ListCampaigns(ctx context.Context) ([]*CampaignInfo, error) {
	return s.configs.ListCampaigns()
}

// LoadLevel loads a specific level
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID string) (*engine.LevelConfig, error) {
	return s.configs.Level(levelID)
}

// SaveLevel stores a level
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelID string, level *engine.LevelConfig) error {
	return s.configs.SaveLevel(levelID, level)
}
