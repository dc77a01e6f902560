package service

import (
	"time"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/turn"
)

// CreateOptions selects what a new session plays. Skirmish wins over
// Campaign, which wins over Level. An empty selection uses the default level.
type CreateOptions struct {
	ID       string                  `json:"id,omitempty"`
	Level    string                  `json:"level,omitempty"`
	Campaign string                  `json:"campaign,omitempty"`
	Class    string                  `json:"class,omitempty"`
	Seed     int64                   `json:"seed,omitempty"`
	Skirmish *engine.SkirmishOptions `json:"skirmish,omitempty"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	LevelID        string             `json:"level_id"`
	CampaignID     string             `json:"campaign_id,omitempty"`
	Class          string             `json:"class"`
	Seed           int64              `json:"seed"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	State          *engine.MatchState `json:"state"`
}

// ActionResponse contains the result of a player action
type ActionResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	State   *engine.MatchState `json:"state"`
	Events  []GameEvent        `json:"events,omitempty"`
}

// EndTurnResponse reports an ended turn. When the turn was fast-forwarded,
// Steps counts the director steps run until control came back.
type EndTurnResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Steps   int                `json:"steps"`
	State   *engine.MatchState `json:"state"`
	Events  []GameEvent        `json:"events,omitempty"`
}

// TickResponse reports a single director advance.
type TickResponse struct {
	Stepped bool               `json:"stepped"`
	State   *engine.MatchState `json:"state"`
	Events  []GameEvent        `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string    `json:"type"` // "log", "victory", "game_over", "reset"
	Message   string    `json:"message"`
	Turn      int       `json:"turn,omitempty"`
	Phase     string    `json:"phase,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LogOptions configures turn log retrieval
type LogOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// LogResponse contains a page of the turn log
type LogResponse struct {
	Entries     []turn.Entry `json:"entries"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
	HasNext     bool         `json:"has_next"`
	HasPrevious bool         `json:"has_previous"`
}

// RangeResponse is a set of cells answering a range query.
type RangeResponse struct {
	Kind  string      `json:"kind"`
	Cells []hex.Coord `json:"cells"`
}

// UnitRangesResponse holds the three ranges of the unit at a cell.
type UnitRangesResponse struct {
	Position   hex.Coord   `json:"position"`
	Movement   []hex.Coord `json:"movement"`
	Melee      []hex.Coord `json:"melee"`
	Projectile []hex.Coord `json:"projectile"`
}

// PathResponse answers a path query.
type PathResponse struct {
	Found  bool        `json:"found"`
	Path   []hex.Coord `json:"path,omitempty"`
	Length int         `json:"length"`
}

// LineOfSightResponse answers a line of sight query.
type LineOfSightResponse struct {
	From    hex.Coord `json:"from"`
	To      hex.Coord `json:"to"`
	Visible bool      `json:"visible"`
}

// LevelInfo describes a level file
type LevelInfo struct {
	Filename    string `json:"filename"`
	LevelID     string `json:"level_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
	Units       int    `json:"units"`
	CardHexes   int    `json:"card_drawing_hexes"`
}

// CardInfo describes a card file
type CardInfo struct {
	Filename string          `json:"filename"`
	CardID   string          `json:"card_id"`
	Name     string          `json:"name"`
	CardType engine.CardType `json:"card_type"`
	States   int             `json:"states"`
}

// CampaignInfo describes a campaign file
type CampaignInfo struct {
	Filename   string   `json:"filename"`
	CampaignID string   `json:"campaign_id"`
	Name       string   `json:"name"`
	Levels     []string `json:"levels"`
}
