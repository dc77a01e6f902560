package engine

import (
	"fmt"

	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/turn"
	"github.com/wricardo/hextactics/game/unit"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is everything needed to resume a match.
type Snapshot struct {
	Version int        `json:"version"`
	Class   unit.Class `json:"class"`
	Seed    int64      `json:"seed"`

	LevelID    string       `json:"level_id"`
	Level      *LevelConfig `json:"level"`
	StartID    string       `json:"start_id"`
	StartLevel *LevelConfig `json:"start_level"`

	CampaignID       string          `json:"campaign_id,omitempty"`
	Campaign         *CampaignConfig `json:"campaign,omitempty"`
	CampaignIndex    int             `json:"campaign_index"`
	CampaignComplete bool            `json:"campaign_complete"`
	Victory          bool            `json:"victory"`

	Rows         int                 `json:"rows"`
	Cols         int                 `json:"columns"`
	Inaccessible []hex.Coord         `json:"inaccessible_hexes"`
	Player       unit.PlayerSnapshot `json:"player"`
	Units        []unit.Snapshot     `json:"units"`
	Objective    string              `json:"objective,omitempty"`

	Phase     turn.Phase   `json:"phase"`
	Turn      int          `json:"turn"`
	Pending   []string     `json:"pending,omitempty"`
	Log       []turn.Entry `json:"log"`
	LoadError string       `json:"load_error,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// Snapshot captures the match. Animations are not saved.
func (e *MatchEngine) Snapshot() *Snapshot {
	g := e.director.Grid()
	units := g.Units()
	snaps := make([]unit.Snapshot, 0, len(units))
	for _, u := range units {
		s := u.Snapshot()
		s.Animation = nil
		snaps = append(snaps, s)
	}
	player := e.player.Snapshot()
	player.Unit.Animation = nil

	return &Snapshot{
		Version:          SnapshotVersion,
		Class:            e.class,
		Seed:             e.seed,
		LevelID:          e.levelID,
		Level:            e.level,
		StartID:          e.startID,
		StartLevel:       e.startLevel,
		CampaignID:       e.campaignID,
		Campaign:         e.campaign,
		CampaignIndex:    e.campaignIndex,
		CampaignComplete: e.campaignComplete,
		Victory:          e.victory,
		Rows:             g.Rows(),
		Cols:             g.Cols(),
		Inaccessible:     g.Blocked(),
		Player:           player,
		Units:            snaps,
		Objective:        e.director.Victory().String(),
		Phase:            e.director.Phase(),
		Turn:             e.director.Turn(),
		Pending:          e.director.PendingIDs(),
		Log:              e.log.Entries(),
		LoadError:        e.loadErr,
		Message:          e.message,
	}
}

// Restore rebuilds an engine from a snapshot. Units are placed at their saved
// cells; a match saved mid-phase resumes with the units that had not yet acted.
func Restore(opts Options, s *Snapshot) (*MatchEngine, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}

	opts.Class = s.Class
	if opts.Rand == nil {
		// keep replays deterministic per turn without persisting rng state
		opts.Rand = turn.NewRand(s.Seed + int64(s.Turn))
	}
	opts.Seed = s.Seed
	e, err := New(opts)
	if err != nil {
		return nil, err
	}

	g, err := grid.New(s.Rows, s.Cols)
	if err != nil {
		return nil, fmt.Errorf("restore grid: %w", err)
	}
	for _, c := range s.Inaccessible {
		if !g.SetAccessible(c, false) {
			return nil, fmt.Errorf("restore grid: cannot block %s", c)
		}
	}

	player, err := unit.RestorePlayer(s.Player)
	if err != nil {
		return nil, err
	}
	if !g.PlacePlayer(player, s.Player.Unit.Position) {
		return nil, fmt.Errorf("restore player: cannot place at %s", s.Player.Unit.Position)
	}
	for _, us := range s.Units {
		u, err := unit.Restore(us)
		if err != nil {
			return nil, err
		}
		if !g.Place(u, us.Position) {
			return nil, fmt.Errorf("restore unit %s: cannot place at %s", u.Name(), us.Position)
		}
	}

	cond, err := turn.ParseTransition(s.Objective)
	if err != nil {
		return nil, fmt.Errorf("restore objective: %w", err)
	}

	e.log.Replace(s.Log)
	e.player = player
	e.director = turn.NewDirector(g,
		turn.WithRand(e.rng),
		turn.WithLogger(e.logger),
		turn.WithLog(e.log),
		turn.WithVictory(cond),
		turn.OnDefeated(e.defeated),
	)
	e.director.Restore(s.Phase, s.Turn, s.Pending)

	e.levelID, e.level = s.LevelID, s.Level
	if e.level == nil {
		e.level = DefaultLevel()
	}
	e.startID, e.startLevel = s.StartID, s.StartLevel
	if e.startLevel == nil {
		e.startID, e.startLevel = e.levelID, e.level
	}
	e.campaignID, e.campaign, e.campaignIndex = s.CampaignID, s.Campaign, s.CampaignIndex
	e.campaignComplete, e.victory = s.CampaignComplete, s.Victory
	e.loadErr, e.message = s.LoadError, s.Message
	return e, nil
}
