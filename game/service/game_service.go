package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/hex"
)

// ErrNoUnit is returned by unit queries on an empty cell.
var ErrNoUnit = errors.New("no unit")

// GameService defines all match-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Player Actions
	Move(ctx context.Context, sessionID string, to hex.Coord) (*ActionResponse, error)
	Attack(ctx context.Context, sessionID, attackName string, target hex.Coord) (*ActionResponse, error)
	Equip(ctx context.Context, sessionID, cardID string) (*ActionResponse, error)
	Craft(ctx context.Context, sessionID, cardID string, materials []string) (*ActionResponse, error)
	DrawCard(ctx context.Context, sessionID string, at hex.Coord) (*ActionResponse, error)
	Transform(ctx context.Context, sessionID string, at hex.Coord) (*ActionResponse, error)
	EndTurn(ctx context.Context, sessionID string, fastForward bool) (*EndTurnResponse, error)
	AutoTurn(ctx context.Context, sessionID string) (*ActionResponse, error)
	Tick(ctx context.Context, sessionID string, elapsed time.Duration) (*TickResponse, error)
	Reset(ctx context.Context, sessionID string) (*engine.MatchState, error)

	// Match State
	GetState(ctx context.Context, sessionID string) (*engine.MatchState, error)
	GetLog(ctx context.Context, sessionID string, opts LogOptions) (*LogResponse, error)

	// Queries
	MovementRange(ctx context.Context, sessionID string) (*RangeResponse, error)
	AttackRange(ctx context.Context, sessionID, attackName string) (*RangeResponse, error)
	UnitRanges(ctx context.Context, sessionID string, at hex.Coord) (*UnitRangesResponse, error)
	FindPath(ctx context.Context, sessionID string, from, to hex.Coord) (*PathResponse, error)
	LineOfSight(ctx context.Context, sessionID string, from, to hex.Coord) (*LineOfSightResponse, error)

	// Content
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	ListCards(ctx context.Context) ([]*CardInfo, error)
	ListCampaigns(ctx context.Context) ([]*CampaignInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*engine.LevelConfig, error)
	SaveLevel(ctx context.Context, levelID string, level *engine.LevelConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, opts CreateOptions) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles content loading
type ConfigManager interface {
	engine.Library
	ListLevels() ([]*LevelInfo, error)
	ListCards() ([]*CardInfo, error)
	ListCampaigns() ([]*CampaignInfo, error)
	DefaultLevel() string
	SaveLevel(id string, level *engine.LevelConfig) error
}

// Session represents an active match. The embedded mutex serializes every
// operation on the engine.
type Session struct {
	sync.Mutex

	ID             string
	Engine         *engine.MatchEngine
	LevelID        string
	CampaignID     string
	Class          string
	Seed           int64
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
