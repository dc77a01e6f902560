package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/ojrac/opensimplex-go"
	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

// Library resolves content by id. Ids may carry a directory or a file
// extension; implementations strip both.
type Library interface {
	Card(id string) (*CardDefinition, error)
	Deck(id string) (*DeckConfig, error)
	Level(id string) (*LevelConfig, error)
	Campaign(id string) (*CampaignConfig, error)
}

// ValidateLevel checks dimensions and that every referenced cell is inside
// the grid. Card references are checked when the level is built.
func ValidateLevel(l *LevelConfig) error {
	if l == nil {
		return fmt.Errorf("%w: level cannot be nil", ErrInvalidLevel)
	}
	rows, cols := l.Grid.Rows, l.Grid.Columns
	if rows < MinGridSize || rows > MaxGridSize || cols < MinGridSize || cols > MaxGridSize {
		return fmt.Errorf("%w: grid must be between %d and %d in each dimension, got %dx%d",
			ErrInvalidLevel, MinGridSize, MaxGridSize, rows, cols)
	}
	if l.HexSize < 0 {
		return fmt.Errorf("%w: hex_size must be non-negative", ErrInvalidLevel)
	}

	inBounds := func(c hex.Coord) bool {
		return c.Row >= 0 && c.Row < rows && c.Col >= 0 && c.Col < cols
	}
	blocked := make(map[hex.Coord]bool, len(l.InaccessibleHexes))
	for _, c := range l.InaccessibleHexes {
		if !inBounds(c) {
			return fmt.Errorf("%w: inaccessible hex %s out of bounds", ErrInvalidLevel, c)
		}
		blocked[c] = true
	}

	start := l.Start()
	if !inBounds(start) {
		return fmt.Errorf("%w: player start %s out of bounds", ErrInvalidLevel, start)
	}
	if blocked[start] {
		return fmt.Errorf("%w: player start %s is inaccessible", ErrInvalidLevel, start)
	}

	occupied := map[hex.Coord]bool{start: true}
	for i, p := range l.Units {
		if p.CardID == "" {
			return fmt.Errorf("%w: unit %d has no card_id", ErrInvalidLevel, i)
		}
		if !inBounds(p.Position) || blocked[p.Position] {
			return fmt.Errorf("%w: unit %s at %s is not on an accessible cell", ErrInvalidLevel, p.CardID, p.Position)
		}
		if occupied[p.Position] {
			return fmt.Errorf("%w: unit %s at %s overlaps another unit", ErrInvalidLevel, p.CardID, p.Position)
		}
		occupied[p.Position] = true
	}

	for _, h := range l.CardDrawingHexes {
		if !inBounds(h.Coord()) {
			return fmt.Errorf("%w: card drawing hex %s out of bounds", ErrInvalidLevel, h.Coord())
		}
		if h.DeckFile == "" && h.CardID == "" && h.LinkedLevel == "" {
			return fmt.Errorf("%w: card drawing hex %s has no deck, card or linked level", ErrInvalidLevel, h.Coord())
		}
	}
	return nil
}

// BuildLevel creates the grid for a level and places the player at its start.
// Every spawned unit is passed to spawned.
func BuildLevel(lib Library, l *LevelConfig, p *unit.Player, spawned func(*unit.Unit)) (*grid.Grid, error) {
	if err := ValidateLevel(l); err != nil {
		return nil, err
	}

	g, err := grid.New(l.Grid.Rows, l.Grid.Columns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	for _, c := range l.InaccessibleHexes {
		g.SetAccessible(c, false)
	}
	if !g.PlacePlayer(p, l.Start()) {
		return nil, fmt.Errorf("%w: cannot place player at %s", ErrInvalidLevel, l.Start())
	}
	// a failed build must leave the player free to be placed elsewhere
	fail := func(err error) (*grid.Grid, error) {
		g.Remove(p.Unit)
		return nil, err
	}

	for _, placement := range l.Units {
		if lib == nil {
			return fail(fmt.Errorf("%w: no card library for unit %s", ErrInvalidLevel, placement.CardID))
		}
		def, err := lib.Card(placement.CardID)
		if err != nil {
			return fail(fmt.Errorf("%w: unit %s: %v", ErrInvalidLevel, placement.CardID, err))
		}
		u, err := NewUnitFromCard(def)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrInvalidLevel, err))
		}
		if !g.Place(u, placement.Position) {
			return fail(fmt.Errorf("%w: cannot place %s at %s", ErrInvalidLevel, u.Name(), placement.Position))
		}
		if spawned != nil {
			spawned(u)
		}
	}
	return g, nil
}

// DefaultLevel is the empty arena installed when a level fails to load.
func DefaultLevel() *LevelConfig {
	return &LevelConfig{
		Name:    "Default Arena",
		Grid:    GridSize{Rows: DefaultRows, Columns: DefaultCols},
		HexSize: DefaultHexSize,
	}
}

// GenerateSkirmish builds a level from an opensimplex noise field. Cells whose
// noise exceeds the density cutoff become inaccessible; units from opts.Cards
// are spread over cells the player can walk to.
func GenerateSkirmish(opts SkirmishOptions) (*LevelConfig, error) {
	if opts.Rows == 0 {
		opts.Rows = DefaultRows
	}
	if opts.Columns == 0 {
		opts.Columns = DefaultCols
	}
	if opts.Density <= 0 {
		opts.Density = 0.25
	}
	if opts.Density >= 1 {
		return nil, fmt.Errorf("%w: density must be below 1, got %.2f", ErrInvalidLevel, opts.Density)
	}
	if opts.Count == 0 {
		opts.Count = len(opts.Cards)
	}

	level := &LevelConfig{
		Name:        fmt.Sprintf("Skirmish %d", opts.Seed),
		Description: "Procedurally generated arena",
		Grid:        GridSize{Rows: opts.Rows, Columns: opts.Columns},
		HexSize:     DefaultHexSize,
	}
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}

	start := level.Start()
	level.PlayerStart = &start

	noise := opensimplex.New(opts.Seed)
	const scale = 0.18
	// Noise is roughly uniform in [-1, 1]; map density to a cutoff from the top.
	cutoff := 1 - 2*opts.Density
	for r := 0; r < opts.Rows; r++ {
		for c := 0; c < opts.Columns; c++ {
			cell := hex.Coord{Row: r, Col: c}
			if hex.Distance(cell, start) <= 1 {
				continue
			}
			if noise.Eval2(float64(c)*scale, float64(r)*scale) > cutoff {
				level.InaccessibleHexes = append(level.InaccessibleHexes, cell)
			}
		}
	}

	if len(opts.Cards) == 0 || opts.Count <= 0 {
		return level, nil
	}

	g, err := grid.New(opts.Rows, opts.Columns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	for _, c := range level.InaccessibleHexes {
		g.SetAccessible(c, false)
	}

	var spots []hex.Coord
	reachable := g.ReachableWithin(start, opts.Rows*opts.Columns)
	reachable.Each(func(c hex.Coord) {
		if hex.Distance(c, start) >= 4 {
			spots = append(spots, c)
		}
	})
	grid.SortCoords(spots)

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(spots), func(i, j int) { spots[i], spots[j] = spots[j], spots[i] })
	if opts.Count > len(spots) {
		opts.Count = len(spots)
	}
	chosen := spots[:opts.Count]
	sort.SliceStable(chosen, func(i, j int) bool {
		return hex.Distance(chosen[i], start) > hex.Distance(chosen[j], start)
	})
	for i, c := range chosen {
		level.Units = append(level.Units, UnitPlacement{
			CardID:   opts.Cards[i%len(opts.Cards)],
			Position: c,
		})
	}
	return level, nil
}
