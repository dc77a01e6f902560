package engine

import (
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/turn"
	"github.com/wricardo/hextactics/game/unit"
)

// CardType is the category printed on a card.
type CardType string

const (
	EnemyCard    CardType = "Enemy Card"
	BossCard     CardType = "Boss Card"
	NPCCard      CardType = "NPC Card"
	LocationCard CardType = "Location Card"
	JunkCard     CardType = "Junk Card"
	DocumentCard CardType = "Document Card"

	// Validation constants
	MinGridSize     = 1
	MaxGridSize     = 100
	DefaultRows     = 16
	DefaultCols     = 24
	DefaultHexSize  = 30
	MaxTickSteps    = 10000
	RecentLogLength = 50
)

// DefaultArenaID is the level id of the built-in arena.
const DefaultArenaID = "arena"

// UnitCard reports whether cards of this type spawn units.
func (t CardType) UnitCard() bool {
	return t == EnemyCard || t == BossCard || t == NPCCard
}

// CardDefinition is a card as stored on disk. Data holds the printed fields
// keyed by their display names ("Health", "Melee Damage", ...).
type CardDefinition struct {
	ID       string                 `json:"id" yaml:"id"`
	CardType CardType               `json:"card_type" yaml:"card_type"`
	Subclass string                 `json:"subclass,omitempty" yaml:"subclass,omitempty"`
	States   int                    `json:"states,omitempty" yaml:"states,omitempty"`
	Data     map[string]interface{} `json:"data" yaml:"data"`
}

// DeckConfig is a named pool of card ids drawn from at random.
type DeckConfig struct {
	Name  string   `json:"name" yaml:"name"`
	Cards []string `json:"cards" yaml:"cards"`
}

// GridSize holds level dimensions.
type GridSize struct {
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`
}

// UnitPlacement spawns a card's unit at a cell.
type UnitPlacement struct {
	CardID   string    `json:"card_id" yaml:"card_id"`
	Position hex.Coord `json:"position" yaml:"position"`
}

// CardDrawingHex is a cell that hands out a card, or a portal when LinkedLevel is set.
type CardDrawingHex struct {
	Row         int    `json:"row" yaml:"row"`
	Column      int    `json:"column" yaml:"column"`
	DeckFile    string `json:"deck_file,omitempty" yaml:"deck_file,omitempty"`
	CardID      string `json:"card_id,omitempty" yaml:"card_id,omitempty"`
	LinkedLevel string `json:"linked_level,omitempty" yaml:"linked_level,omitempty"`
}

// Coord returns the cell of the drawing hex.
func (h CardDrawingHex) Coord() hex.Coord {
	return hex.Coord{Row: h.Row, Col: h.Column}
}

// LevelConfig is a level layout.
type LevelConfig struct {
	Name              string           `json:"name,omitempty" yaml:"name,omitempty"`
	Description       string           `json:"description,omitempty" yaml:"description,omitempty"`
	Grid              GridSize         `json:"grid" yaml:"grid"`
	HexSize           int              `json:"hex_size,omitempty" yaml:"hex_size,omitempty"`
	InaccessibleHexes []hex.Coord      `json:"inaccessible_hexes,omitempty" yaml:"inaccessible_hexes,omitempty"`
	PlayerStart       *hex.Coord       `json:"player_start,omitempty" yaml:"player_start,omitempty"`
	Units             []UnitPlacement  `json:"units,omitempty" yaml:"units,omitempty"`
	CardDrawingHexes  []CardDrawingHex `json:"card_drawing_hexes,omitempty" yaml:"card_drawing_hexes,omitempty"`
}

// Start returns the player start, defaulting to the grid center.
func (l *LevelConfig) Start() hex.Coord {
	if l.PlayerStart != nil {
		return *l.PlayerStart
	}
	return hex.Coord{Row: l.Grid.Rows / 2, Col: l.Grid.Columns / 2}
}

// DrawingHexAt returns the card-drawing hex at c, if any.
func (l *LevelConfig) DrawingHexAt(c hex.Coord) (CardDrawingHex, bool) {
	for _, h := range l.CardDrawingHexes {
		if h.Coord() == c {
			return h, true
		}
	}
	return CardDrawingHex{}, false
}

// CampaignLevel is one entry of a campaign.
type CampaignLevel struct {
	LevelFile        string `json:"level_file" yaml:"level_file"`
	TransitionToNext string `json:"transition_to_next,omitempty" yaml:"transition_to_next,omitempty"`
}

// CampaignConfig is an ordered list of levels.
type CampaignConfig struct {
	Name   string          `json:"name" yaml:"name"`
	Levels []CampaignLevel `json:"levels" yaml:"levels"`
}

// MatchState is the externally visible state of a match.
type MatchState struct {
	LevelID          string              `json:"level_id"`
	LevelName        string              `json:"level_name,omitempty"`
	CampaignID       string              `json:"campaign_id,omitempty"`
	CampaignLevel    int                 `json:"campaign_level"`
	CampaignComplete bool                `json:"campaign_complete"`
	Rows             int                 `json:"rows"`
	Cols             int                 `json:"columns"`
	HexSize          int                 `json:"hex_size"`
	Inaccessible     []hex.Coord         `json:"inaccessible_hexes"`
	CardHexes        []CardDrawingHex    `json:"card_drawing_hexes,omitempty"`
	Phase            turn.Phase          `json:"phase"`
	Turn             int                 `json:"turn"`
	Player           unit.PlayerSnapshot `json:"player"`
	Units            []unit.Snapshot     `json:"units"`
	Animating        bool                `json:"animating"`
	GameOver         bool                `json:"game_over"`
	Victory          bool                `json:"victory"`
	Objective        string              `json:"objective,omitempty"`
	Message          string              `json:"message"`
	LoadError        string              `json:"load_error,omitempty"`
	Log              []turn.Entry        `json:"log"`
}

// ActionResult is returned by every player action. A failed action leaves the
// match untouched.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SkirmishOptions configures a procedurally generated level.
type SkirmishOptions struct {
	Seed    int64    `json:"seed"`
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
	Density float64  `json:"density"`
	Cards   []string `json:"cards"`
	Count   int      `json:"count"`
}

// Card usage actions recorded through a UsageRecorder.
const (
	UsageSpawned  = "spawned"
	UsageDrawn    = "drawn"
	UsageDefeated = "defeated"
)
