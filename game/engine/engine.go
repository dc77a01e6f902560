package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/turn"
	"github.com/wricardo/hextactics/game/unit"
)

// Engine provides the main interface for match operations
type Engine interface {
	// Match state
	State() *MatchState
	Snapshot() *Snapshot
	Reset() error
	IsGameOver() bool
	IsVictory() bool

	// Player actions
	MovePlayer(to hex.Coord) ActionResult
	Attack(attackName string, target hex.Coord) ActionResult
	Equip(cardID string) ActionResult
	Craft(cardID string, materials []string) ActionResult
	EndTurn() ActionResult

	// Turn progression
	Tick(elapsed time.Duration) bool
	RunUntilPlayerTurn() int

	// Queries
	MovementRange() []hex.Coord
	ValidMoves() []hex.Coord
	AttackRange(attackName string) ([]hex.Coord, error)
	FindPath(from, to hex.Coord) ([]hex.Coord, bool)
	LineOfSight(from, to hex.Coord) bool
}

// UsageRecorder receives card lifecycle events: spawned, drawn and defeated.
type UsageRecorder interface {
	RecordCardUsage(cardID, action string, at *hex.Coord)
}

// Options configures a MatchEngine.
type Options struct {
	Library  Library
	Usage    UsageRecorder
	Logger   *zap.Logger
	Class    unit.Class
	Seed     int64
	Rand     turn.RandSource
	LogLimit int
}

// MatchEngine implements the Engine interface
type MatchEngine struct {
	lib    Library
	usage  UsageRecorder
	logger *zap.Logger
	rng    turn.RandSource
	seed   int64
	class  unit.Class

	log      *turn.Log
	player   *unit.Player
	director *turn.Director

	levelID string
	level   *LevelConfig
	loadErr string
	message string

	// what Reset goes back to
	startID    string
	startLevel *LevelConfig

	campaignID       string
	campaign         *CampaignConfig
	campaignIndex    int
	campaignComplete bool
	victory          bool
}

// New creates an engine with a fresh player standing in the default arena.
// Call StartLevel, StartCampaign or StartSkirmish to load content.
func New(opts Options) (*MatchEngine, error) {
	class := opts.Class
	if class == "" {
		class = unit.Warrior
	}
	player, err := unit.NewPlayer(class)
	if err != nil {
		return nil, err
	}

	e := &MatchEngine{
		lib:    opts.Library,
		usage:  opts.Usage,
		logger: opts.Logger,
		rng:    opts.Rand,
		seed:   opts.Seed,
		class:  class,
		log:    turn.NewLog(opts.LogLimit),
		player: player,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.rng == nil {
		e.rng = turn.NewRand(opts.Seed)
	}

	if err := e.installLevel(DefaultArenaID, DefaultLevel(), nil, nil); err != nil {
		return nil, err
	}
	e.startID, e.startLevel = e.levelID, e.level
	return e, nil
}

func (e *MatchEngine) Player() *unit.Player      { return e.player }
func (e *MatchEngine) Grid() *grid.Grid          { return e.director.Grid() }
func (e *MatchEngine) Director() *turn.Director  { return e.director }
func (e *MatchEngine) Log() *turn.Log            { return e.log }
func (e *MatchEngine) Level() *LevelConfig       { return e.level }
func (e *MatchEngine) LevelID() string           { return e.levelID }
func (e *MatchEngine) Campaign() *CampaignConfig { return e.campaign }
func (e *MatchEngine) CampaignIndex() int        { return e.campaignIndex }
func (e *MatchEngine) LoadError() string         { return e.loadErr }
func (e *MatchEngine) IsVictory() bool           { return e.victory }
func (e *MatchEngine) IsGameOver() bool {
	return e.director.Phase() == turn.PhaseGameOver
}

// StartLevel loads a level from the library. On failure the default arena is
// installed, the failure is recorded and the error is returned.
func (e *MatchEngine) StartLevel(id string) error {
	e.campaign, e.campaignID, e.campaignIndex = nil, "", 0
	l, err := e.fetchLevel(id)
	if err == nil {
		err = e.installLevel(id, l, nil, nil)
	}
	if err != nil {
		e.fallback(err)
		e.director.Logf("Failed to load level %s. Starting default level.", id)
		return err
	}
	e.startID, e.startLevel = id, l
	e.director.Logf("Started level %s.", levelTitle(id, l))
	return nil
}

// StartLevelConfig installs a level given inline.
func (e *MatchEngine) StartLevelConfig(id string, l *LevelConfig) error {
	e.campaign, e.campaignID, e.campaignIndex = nil, "", 0
	if err := e.installLevel(id, l, nil, nil); err != nil {
		e.fallback(err)
		e.director.Logf("Failed to load level %s. Starting default level.", id)
		return err
	}
	e.startID, e.startLevel = id, l
	e.director.Logf("Started level %s.", levelTitle(id, l))
	return nil
}

// StartSkirmish generates a procedural level and installs it.
func (e *MatchEngine) StartSkirmish(opts SkirmishOptions) error {
	l, err := GenerateSkirmish(opts)
	if err != nil {
		e.fallback(err)
		e.director.Logf("Failed to generate skirmish. Starting default level.")
		return err
	}
	return e.StartLevelConfig(fmt.Sprintf("skirmish-%d", opts.Seed), l)
}

// StartCampaign loads a campaign and its first level.
func (e *MatchEngine) StartCampaign(id string) error {
	if e.lib == nil {
		return e.campaignFailed(id, fmt.Errorf("%w: no content library", ErrConfigNotFound))
	}
	c, err := e.lib.Campaign(id)
	if err != nil {
		return e.campaignFailed(id, err)
	}
	if len(c.Levels) == 0 {
		return e.campaignFailed(id, fmt.Errorf("%w: campaign %s has no levels", ErrInvalidLevel, id))
	}

	e.campaign, e.campaignID, e.campaignIndex = c, id, 0
	e.campaignComplete, e.victory = false, false
	if err := e.loadCampaignLevel(0); err != nil {
		return err
	}
	e.director.Logf("Loaded campaign: %s", campaignTitle(id, c))
	return nil
}

func (e *MatchEngine) campaignFailed(id string, err error) error {
	e.campaign, e.campaignID, e.campaignIndex = nil, "", 0
	e.fallback(err)
	e.director.Logf("Failed to load campaign %s. Starting default level.", id)
	return err
}

func (e *MatchEngine) loadCampaignLevel(idx int) error {
	entry := e.campaign.Levels[idx]
	l, err := e.fetchLevel(entry.LevelFile)
	var cond turn.Condition
	if err == nil {
		cond, err = turn.ParseTransition(entry.TransitionToNext)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidLevel, err)
		}
	}
	if err == nil {
		err = e.installLevel(entry.LevelFile, l, cond, nil)
	}
	if err != nil {
		e.fallback(err)
		e.director.Logf("Failed to load level %d. Starting default level.", idx+1)
		return err
	}
	e.director.Logf("Loaded level %d: %s", idx+1, entry.LevelFile)
	return nil
}

func (e *MatchEngine) fetchLevel(id string) (*LevelConfig, error) {
	if e.lib == nil {
		return nil, fmt.Errorf("%w: no content library for level %s", ErrConfigNotFound, id)
	}
	return e.lib.Level(id)
}

// fallback installs the default arena after a failed load.
func (e *MatchEngine) fallback(err error) {
	e.logger.Warn("level load failed, using default arena", zap.Error(err))
	if installErr := e.installLevel(DefaultArenaID, DefaultLevel(), nil, nil); installErr != nil {
		e.logger.Error("default arena failed", zap.Error(installErr))
	}
	e.loadErr = err.Error()
}

// installLevel swaps in a new grid built from l. The player keeps its hp and
// inventory; carry units are placed on free cells around the player start.
func (e *MatchEngine) installLevel(id string, l *LevelConfig, cond turn.Condition, carry []*unit.Unit) error {
	turnNumber := 1
	if e.director != nil {
		turnNumber = e.director.Turn()
		if e.director.Phase() == turn.PhaseLevelComplete {
			turnNumber++
		}
		old := e.director.Grid()
		old.Remove(e.player.Unit)
		for _, u := range carry {
			old.Remove(u)
		}
	}

	g, err := BuildLevel(e.lib, l, e.player, func(u *unit.Unit) {
		pos := u.Position()
		e.record(u.CardID, UsageSpawned, &pos)
	})
	if err != nil {
		return err
	}

	free := g.EmptyNeighbors(e.player.Position())
	for i, u := range carry {
		if i < len(free) {
			g.Place(u, free[i])
		}
	}

	if cond == nil {
		cond = turn.NoHostilesRemain{}
	}
	e.player.ResetTurn()
	e.director = turn.NewDirector(g,
		turn.WithRand(e.rng),
		turn.WithLogger(e.logger),
		turn.WithLog(e.log),
		turn.WithVictory(cond),
		turn.WithTurn(turnNumber),
		turn.OnDefeated(e.defeated),
	)
	e.level, e.levelID, e.loadErr = l, id, ""

	e.logger.Debug("level installed",
		zap.String("level", id),
		zap.Int("rows", g.Rows()),
		zap.Int("cols", g.Cols()),
		zap.Int("units", len(g.Units())),
	)
	return nil
}

func (e *MatchEngine) defeated(u *unit.Unit) {
	pos := u.Position()
	e.record(u.CardID, UsageDefeated, &pos)
}

func (e *MatchEngine) record(cardID, action string, at *hex.Coord) {
	if e.usage == nil || cardID == "" {
		return
	}
	e.usage.RecordCardUsage(cardID, action, at)
}

// Reset starts over with a fresh player of the same class: the campaign from
// its first level, otherwise the level the match started with.
func (e *MatchEngine) Reset() error {
	player, err := unit.NewPlayer(e.class)
	if err != nil {
		return err
	}
	if e.director != nil {
		e.director.Grid().Remove(e.player.Unit)
	}
	e.player = player
	e.director = nil
	e.log.Clear()
	e.rng = turn.NewRand(e.seed)
	e.victory, e.campaignComplete, e.message = false, false, ""

	if e.campaign != nil {
		e.campaignIndex = 0
		if err := e.loadCampaignLevel(0); err != nil {
			return err
		}
		e.director.Logf("Loaded campaign: %s", campaignTitle(e.campaignID, e.campaign))
		return nil
	}

	if err := e.installLevel(e.startID, e.startLevel, nil, nil); err != nil {
		e.fallback(err)
		e.director.Logf("Failed to load level %s. Starting default level.", e.startID)
		return err
	}
	e.director.Logf("Started level %s.", levelTitle(e.startID, e.startLevel))
	return nil
}

// MovePlayer walks the player to an empty reachable cell and resolves a card
// drawing hex at the destination.
func (e *MatchEngine) MovePlayer(to hex.Coord) ActionResult {
	seq := e.log.LastSeq()
	if err := e.director.MovePlayer(to); err != nil {
		return e.fail(err)
	}
	if h, ok := e.level.DrawingHexAt(to); ok {
		e.resolveDrawingHex(h)
	}
	return e.succeed(seq)
}

// DrawCard resolves the card-drawing hex at c without moving there.
func (e *MatchEngine) DrawCard(c hex.Coord) ActionResult {
	if e.director.Finished() {
		return e.fail(turn.ErrGameOver)
	}
	seq := e.log.LastSeq()
	h, ok := e.level.DrawingHexAt(c)
	if !ok {
		e.director.Logf("No deck or linked level at this hex")
		return ActionResult{Success: false, Message: "No deck or linked level at this hex"}
	}
	e.resolveDrawingHex(h)
	return e.succeed(seq)
}

// TransformUnit switches the unit at c to its other state when it has one.
func (e *MatchEngine) TransformUnit(c hex.Coord) ActionResult {
	if e.director.Finished() {
		return e.fail(turn.ErrGameOver)
	}
	seq := e.log.LastSeq()
	if _, ok := e.director.TransformAt(c); !ok {
		return ActionResult{Success: false, Message: fmt.Sprintf("Nothing at %s can transform", c)}
	}
	return e.succeed(seq)
}

func (e *MatchEngine) resolveDrawingHex(h CardDrawingHex) {
	if h.LinkedLevel != "" {
		e.enterLinkedLevel(h.LinkedLevel)
		return
	}

	cardID := h.CardID
	if cardID == "" && h.DeckFile != "" {
		if e.lib == nil {
			e.director.Logf("Deck not found: %s", h.DeckFile)
			return
		}
		deck, err := e.lib.Deck(h.DeckFile)
		if err != nil {
			e.logger.Warn("deck lookup failed", zap.String("deck", h.DeckFile), zap.Error(err))
			e.director.Logf("Deck not found: %s", h.DeckFile)
			return
		}
		if len(deck.Cards) == 0 {
			e.director.Logf("Deck is empty")
			return
		}
		cardID = deck.Cards[e.rng.Intn(len(deck.Cards))]
	}
	if cardID == "" {
		e.director.Logf("No deck or linked level at this hex")
		return
	}

	def, err := e.card(cardID)
	if err != nil {
		e.logger.Warn("card lookup failed", zap.String("card", cardID), zap.Error(err))
		e.director.Logf("Card not found: %s", cardID)
		return
	}
	item := ItemFromCard(def)
	e.player.AddItem(item)
	pos := h.Coord()
	e.record(def.ID, UsageDrawn, &pos)
	e.director.Logf("Drew %s", item.Name)
}

func (e *MatchEngine) card(id string) (*CardDefinition, error) {
	if e.lib == nil {
		return nil, fmt.Errorf("%w: no content library for card %s", ErrConfigNotFound, id)
	}
	return e.lib.Card(id)
}

// enterLinkedLevel moves the player, and every allied unit, into another
// level. The turn number and objective carry over.
func (e *MatchEngine) enterLinkedLevel(id string) {
	l, err := e.fetchLevel(id)
	if err != nil {
		e.logger.Warn("linked level lookup failed", zap.String("level", id), zap.Error(err))
		e.director.Logf("Linked level file not found: %s", id)
		return
	}
	e.director.Logf("Entering %s", id)

	allies := e.director.Grid().UnitsOf(unit.Allied)
	if err := e.installLevel(id, l, e.director.Victory(), allies); err != nil {
		e.fallback(err)
		e.director.Logf("Failed to load level %s. Starting default level.", id)
	}
}

// Attack performs one of the player's attacks on the unit at target.
func (e *MatchEngine) Attack(attackName string, target hex.Coord) ActionResult {
	seq := e.log.LastSeq()
	if err := e.director.PlayerAttack(attackName, target); err != nil {
		return e.fail(err)
	}
	return e.succeed(seq)
}

// Equip replaces an attack with a weapon card from the inventory.
func (e *MatchEngine) Equip(cardID string) ActionResult {
	if e.director.Finished() {
		return e.fail(turn.ErrGameOver)
	}
	seq := e.log.LastSeq()
	msg, ok := e.player.EquipItem(cardID)
	if !ok {
		return ActionResult{Success: false, Message: fmt.Sprintf("No weapon %s in inventory", cardID)}
	}
	e.director.Logf("%s", msg)
	return e.succeed(seq)
}

// Craft turns a two-state junk card or blueprint into its second state,
// consuming the listed material cards. Requirements come from the target's
// first state: material value totals and an optional list of card names.
func (e *MatchEngine) Craft(cardID string, materials []string) ActionResult {
	if e.director.Finished() {
		return e.fail(turn.ErrGameOver)
	}
	inv := e.player.Inventory
	target := -1
	for i, item := range inv {
		if item.CardID == cardID && item.State <= 1 {
			target = i
			break
		}
	}
	if target < 0 {
		return ActionResult{Success: false, Message: fmt.Sprintf("No craftable %s in inventory", cardID)}
	}

	def, err := e.card(cardID)
	if err != nil {
		return e.fail(err)
	}
	craftable := def.CardType == JunkCard || (def.CardType == DocumentCard && strings.EqualFold(def.Subclass, "Blueprint"))
	if !craftable || !HasSecondState(def) {
		return ActionResult{Success: false, Message: fmt.Sprintf("%s cannot be crafted", inv[target].Name)}
	}

	used := map[int]bool{target: true}
	provided := make(map[string]int)
	var names []string
	for _, m := range materials {
		j := -1
		for i, item := range inv {
			if !used[i] && item.CardID == m && item.CardType == string(JunkCard) && item.State <= 1 {
				j = i
				break
			}
		}
		if j < 0 {
			return ActionResult{Success: false, Message: fmt.Sprintf("Material %s not in inventory", m)}
		}
		used[j] = true
		mdef, err := e.card(m)
		if err != nil {
			return e.fail(err)
		}
		data := StateData(mdef, 1)
		for _, rv := range requirementValues {
			provided[rv.Value] += intField(data, rv.Value)
		}
		names = append(names, inv[j].Name)
	}

	req := StateData(def, 1)
	for _, rv := range requirementValues {
		if provided[rv.Value] < intField(req, rv.Requirement) {
			return ActionResult{Success: false, Message: "Requirements not met"}
		}
	}
	if specific, ok := req[FieldSpecificCards]; ok && specific != nil {
		for _, name := range strings.Split(fmt.Sprint(specific), ",") {
			name = strings.TrimSpace(name)
			if name != "" && !containsString(names, name) {
				return ActionResult{Success: false, Message: "Requirements not met"}
			}
		}
	}

	seq := e.log.LastSeq()
	crafted := itemForState(def, 2)
	next := make([]unit.Item, 0, len(inv))
	for i, item := range inv {
		switch {
		case i == target:
			next = append(next, crafted)
		case !used[i]:
			next = append(next, item)
		}
	}
	e.player.Inventory = next
	e.director.Logf("Crafted %s", crafted.Name)
	return e.succeed(seq)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// EndTurn ends the player phase. Callers then drive the remaining phases with
// Tick or RunUntilPlayerTurn.
func (e *MatchEngine) EndTurn() ActionResult {
	if err := e.director.EndPlayerTurn(); err != nil {
		return e.fail(err)
	}
	e.message = "Turn ended"
	return ActionResult{Success: true, Message: e.message}
}

// Tick advances animations and performs at most one step.
func (e *MatchEngine) Tick(elapsed time.Duration) bool {
	stepped := e.director.Tick(elapsed)
	e.checkProgress()
	return stepped
}

// RunUntilPlayerTurn resolves every pending phase at once.
func (e *MatchEngine) RunUntilPlayerTurn() int {
	steps := e.director.RunUntilPlayerTurn()
	e.checkProgress()
	return steps
}

// checkProgress advances the campaign once the director reports the level
// complete.
func (e *MatchEngine) checkProgress() {
	if e.director.Phase() != turn.PhaseLevelComplete || e.victory {
		return
	}
	if e.campaign == nil {
		e.victory = true
		e.director.Logf("Level Completed!")
		return
	}
	if e.campaignIndex+1 >= len(e.campaign.Levels) {
		e.victory, e.campaignComplete = true, true
		e.director.Logf("Campaign Completed!")
		return
	}
	e.campaignIndex++
	if err := e.loadCampaignLevel(e.campaignIndex); err != nil {
		e.logger.Warn("campaign level failed", zap.Int("level", e.campaignIndex+1), zap.Error(err))
	}
}

// MovementRange is every cell the player could reach this turn.
func (e *MatchEngine) MovementRange() []hex.Coord {
	g := e.director.Grid()
	out := grid.SetToSlice(g.MovementRange(e.player.Position(), e.player.Movement()))
	grid.SortCoords(out)
	return out
}

// ValidMoves is MovementRange minus the player's cell, or nothing when the
// player cannot move right now.
func (e *MatchEngine) ValidMoves() []hex.Coord {
	if e.director.Phase() != turn.PhasePlayer || e.player.MovementUsed {
		return nil
	}
	return e.director.Grid().ValidMoves(e.player.Position(), e.player.Movement())
}

// AttackRange lists the cells the named attack could hit from the player's cell.
func (e *MatchEngine) AttackRange(attackName string) ([]hex.Coord, error) {
	return e.director.PlayerAttackRange(attackName)
}

// UnitRanges returns the movement and attack cells of the unit at c.
func (e *MatchEngine) UnitRanges(c hex.Coord) (movement, melee, projectile []hex.Coord, ok bool) {
	g := e.director.Grid()
	u, found := g.OccupantAt(c)
	if !found {
		return nil, nil, nil, false
	}
	s := u.Stats()
	movement = grid.SetToSlice(g.MovementRange(c, s.Movement))
	melee = grid.SetToSlice(g.AttackRange(c, 1, true))
	if s.HasProjectile() {
		projectile = grid.SetToSlice(g.AttackRange(c, s.ProjectileRange, false))
	}
	grid.SortCoords(movement)
	grid.SortCoords(melee)
	grid.SortCoords(projectile)
	return movement, melee, projectile, true
}

// FindPath runs A* on the current grid.
func (e *MatchEngine) FindPath(from, to hex.Coord) ([]hex.Coord, bool) {
	return e.director.Grid().FindPath(from, to)
}

// LineOfSight reports whether the straight line between two cells is clear.
func (e *MatchEngine) LineOfSight(from, to hex.Coord) bool {
	return e.director.Grid().LineOfSight(from, to)
}

// State returns the visible match state.
func (e *MatchEngine) State() *MatchState {
	g := e.director.Grid()
	units := g.Units()
	snaps := make([]unit.Snapshot, 0, len(units))
	for _, u := range units {
		snaps = append(snaps, u.Snapshot())
	}

	entries := e.log.Entries()
	if len(entries) > RecentLogLength {
		entries = entries[len(entries)-RecentLogLength:]
	}

	hexSize := e.level.HexSize
	if hexSize == 0 {
		hexSize = DefaultHexSize
	}

	return &MatchState{
		LevelID:          e.levelID,
		LevelName:        e.level.Name,
		CampaignID:       e.campaignID,
		CampaignLevel:    e.campaignIndex + 1,
		CampaignComplete: e.campaignComplete,
		Rows:             g.Rows(),
		Cols:             g.Cols(),
		HexSize:          hexSize,
		Inaccessible:     g.Blocked(),
		CardHexes:        e.level.CardDrawingHexes,
		Phase:            e.director.Phase(),
		Turn:             e.director.Turn(),
		Player:           e.player.Snapshot(),
		Units:            snaps,
		Animating:        e.director.Animating(),
		GameOver:         e.IsGameOver(),
		Victory:          e.victory,
		Objective:        e.director.Victory().String(),
		Message:          e.message,
		LoadError:        e.loadErr,
		Log:              entries,
	}
}

func (e *MatchEngine) succeed(seq int) ActionResult {
	var lines []string
	for _, entry := range e.log.Since(seq) {
		lines = append(lines, entry.Message)
	}
	e.message = strings.Join(lines, "\n")
	return ActionResult{Success: true, Message: e.message}
}

func (e *MatchEngine) fail(err error) ActionResult {
	msg := err.Error()
	switch {
	case errors.Is(err, turn.ErrNotPlayerPhase):
		msg = "Wait for your turn"
	case errors.Is(err, turn.ErrGameOver):
		msg = "The match is over"
	}
	e.logger.Debug("action rejected", zap.Error(err))
	return ActionResult{Success: false, Message: msg}
}

func levelTitle(id string, l *LevelConfig) string {
	if l != nil && l.Name != "" {
		return l.Name
	}
	return id
}

func campaignTitle(id string, c *CampaignConfig) string {
	if c != nil && c.Name != "" {
		return c.Name
	}
	return id
}
