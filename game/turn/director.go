package turn

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/unit"
)

// Phase is a step of the turn cycle.
type Phase string

const (
	PhasePlayer        Phase = "player"
	PhaseAllied        Phase = "allied"
	PhaseNeutral       Phase = "neutral"
	PhaseHostile       Phase = "hostile"
	PhaseLevelComplete Phase = "level_complete"
	PhaseGameOver      Phase = "game_over"
)

// ParsePhase resolves a phase name.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PhasePlayer, PhaseAllied, PhaseNeutral, PhaseHostile, PhaseLevelComplete, PhaseGameOver:
		return p, nil
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// Mid reports whether the phase is one of the unit-resolution phases.
func (p Phase) Mid() bool {
	return p == PhaseAllied || p == PhaseNeutral || p == PhaseHostile
}

var phaseAllegiance = map[Phase]unit.Allegiance{
	PhaseAllied:  unit.Allied,
	PhaseNeutral: unit.Neutral,
	PhaseHostile: unit.Hostile,
}

var (
	ErrNotPlayerPhase = errors.New("not the player's phase")
	ErrGameOver       = errors.New("match is over")
	ErrNoPlayer       = errors.New("no player on the grid")
	ErrMovementUsed   = errors.New("movement already used this turn")
	ErrActionUsed     = errors.New("action already used this turn")
	ErrUnreachable    = errors.New("destination is not reachable")
	ErrUnknownAttack  = errors.New("unknown attack")
	ErrNoTarget       = errors.New("no enemy at target")
	ErrOutOfRange     = errors.New("target out of range")
)

// PlayerDefeatedMessage is logged when the player's hp drops to zero.
const PlayerDefeatedMessage = "Player defeated!"

// Director runs the phase state machine for one grid.
type Director struct {
	grid    *grid.Grid
	player  *unit.Player
	rng     RandSource
	log     *Log
	logger  *zap.Logger
	victory Condition

	phase Phase
	turn  int
	queue []*unit.Unit

	onDefeated func(*unit.Unit)
}

// Option configures a Director.
type Option func(*Director)

// WithRand sets the random source. The default is NewRand(1).
func WithRand(r RandSource) Option {
	return func(d *Director) { d.rng = r }
}

// WithLogger sets the zap logger every log entry is mirrored to.
func WithLogger(l *zap.Logger) Option {
	return func(d *Director) { d.logger = l }
}

// WithLog shares a turn log, so messages survive level changes.
func WithLog(l *Log) Option {
	return func(d *Director) { d.log = l }
}

// WithVictory sets the level completion condition. The default is NoHostilesRemain.
func WithVictory(c Condition) Option {
	return func(d *Director) { d.victory = c }
}

// WithTurn sets the starting turn number.
func WithTurn(n int) Option {
	return func(d *Director) { d.turn = n }
}

// OnDefeated registers a callback for every non-player unit removed by damage.
func OnDefeated(fn func(*unit.Unit)) Option {
	return func(d *Director) { d.onDefeated = fn }
}

// NewDirector starts a director in the player phase. The player is taken from
// the grid.
func NewDirector(g *grid.Grid, opts ...Option) *Director {
	d := &Director{
		grid:   g,
		player: g.Player(),
		phase:  PhasePlayer,
		turn:   1,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = NewRand(1)
	}
	if d.log == nil {
		d.log = NewLog(0)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.victory == nil {
		d.victory = NoHostilesRemain{}
	}
	return d
}

func (d *Director) Grid() *grid.Grid     { return d.grid }
func (d *Director) Player() *unit.Player { return d.player }
func (d *Director) Phase() Phase         { return d.phase }
func (d *Director) Turn() int            { return d.turn }
func (d *Director) Log() *Log            { return d.log }
func (d *Director) Victory() Condition   { return d.victory }
func (d *Director) Rand() RandSource     { return d.rng }
func (d *Director) Pending() int         { return len(d.queue) }
func (d *Director) Logger() *zap.Logger  { return d.logger }
func (d *Director) Finished() bool       { return d.phase == PhaseGameOver || d.phase == PhaseLevelComplete }
func (d *Director) playerAlive() bool    { return d.player != nil && d.player.IsAlive() }
func (d *Director) isPlayer(u *unit.Unit) bool {
	return d.player != nil && d.player.Unit == u
}

// PendingIDs lists the units still to act in the current phase, in order.
func (d *Director) PendingIDs() []string {
	ids := make([]string, 0, len(d.queue))
	for _, u := range d.queue {
		ids = append(ids, u.ID)
	}
	return ids
}

// Restore resets the director to a saved phase and turn. In a unit phase the
// queue is rebuilt from pending; ids no longer on the grid are dropped.
func (d *Director) Restore(phase Phase, turn int, pending []string) {
	if phase == "" {
		phase = PhasePlayer
	}
	d.phase = phase
	if turn > 0 {
		d.turn = turn
	}
	d.queue = nil
	if !phase.Mid() {
		return
	}

	byID := make(map[string]*unit.Unit)
	for _, u := range d.grid.Units() {
		byID[u.ID] = u
	}
	for _, id := range pending {
		if u, ok := byID[id]; ok {
			d.queue = append(d.queue, u)
		}
	}
}

// Logf appends a formatted message to the turn log.
func (d *Director) Logf(format string, args ...interface{}) Entry {
	msg := fmt.Sprintf(format, args...)
	e := d.log.Add(d.turn, d.phase, msg)
	d.logger.Info(msg,
		zap.Int("turn", d.turn),
		zap.String("phase", string(d.phase)),
		zap.Int("seq", e.Seq),
	)
	return e
}

// EndPlayerTurn clears the player's flags and starts the allied phase.
func (d *Director) EndPlayerTurn() error {
	if d.Finished() {
		return ErrGameOver
	}
	if d.phase != PhasePlayer {
		return ErrNotPlayerPhase
	}
	if d.player != nil {
		d.player.ResetTurn()
	}
	d.enterPhase(PhaseAllied)
	return nil
}

func (d *Director) enterPhase(p Phase) {
	d.phase = p
	d.queue = nil
	if a, ok := phaseAllegiance[p]; ok {
		d.queue = d.grid.UnitsOf(a)
	}
	d.logger.Debug("phase started",
		zap.String("phase", string(p)),
		zap.Int("turn", d.turn),
		zap.Int("units", len(d.queue)),
	)
}

// Step performs one unit decision or one phase transition. It reports false
// when there is nothing to do: the player phase or a finished match.
func (d *Director) Step() bool {
	if !d.phase.Mid() {
		return false
	}

	for len(d.queue) > 0 {
		u := d.queue[0]
		d.queue = d.queue[1:]
		// Killed earlier in the phase, or switched sides.
		if !u.IsAlive() || !d.grid.Contains(u) || u.Allegiance() != phaseAllegiance[d.phase] {
			continue
		}
		d.decide(u)
		return true
	}

	switch d.phase {
	case PhaseAllied:
		d.enterPhase(PhaseNeutral)
	case PhaseNeutral:
		d.enterPhase(PhaseHostile)
	case PhaseHostile:
		d.checkLevelCompletion()
	}
	return true
}

func (d *Director) checkLevelCompletion() {
	if d.victory.Satisfied(d.grid, d.player) {
		d.enterPhase(PhaseLevelComplete)
		return
	}
	d.turn++
	if d.player != nil {
		d.player.ResetTurn()
	}
	d.enterPhase(PhasePlayer)
}

// Animating reports whether any unit, the player included, is mid-move.
func (d *Director) Animating() bool {
	if d.player != nil && d.player.Anim.Moving() {
		return true
	}
	for _, u := range d.grid.Units() {
		if u.Anim.Moving() {
			return true
		}
	}
	return false
}

// Advance moves every animation timer forward.
func (d *Director) Advance(elapsed time.Duration) {
	if d.player != nil {
		d.player.Anim.Advance(elapsed)
	}
	for _, u := range d.grid.Units() {
		u.Anim.Advance(elapsed)
	}
}

// FinishAnimations completes every running animation.
func (d *Director) FinishAnimations() {
	if d.player != nil {
		d.player.Anim.Finish()
	}
	for _, u := range d.grid.Units() {
		u.Anim.Finish()
	}
}

// Tick advances animations by elapsed and, once nothing is moving, performs
// exactly one step. It reports whether a step ran.
func (d *Director) Tick(elapsed time.Duration) bool {
	d.Advance(elapsed)
	if d.Animating() {
		return false
	}
	return d.Step()
}

// RunUntilPlayerTurn skips animations and resolves steps until the player can
// act again or the match is finished. It returns the number of steps taken.
func (d *Director) RunUntilPlayerTurn() int {
	steps := 0
	for {
		d.FinishAnimations()
		if !d.Step() {
			return steps
		}
		steps++
	}
}

// damage applies an attack and handles death and second-state switches.
func (d *Director) damage(attacker, target *unit.Unit, amount int, message string) {
	attacker.Anim.Flash()
	d.Logf("%s", message)
	dead := target.TakeDamage(amount)

	if d.isPlayer(target) {
		if dead {
			d.Logf(PlayerDefeatedMessage)
			d.queue = nil
			d.phase = PhaseGameOver
		}
		return
	}

	if dead {
		d.grid.Remove(target)
		d.Logf("%s defeated", target.Name())
		if d.onDefeated != nil {
			d.onDefeated(target)
		}
		return
	}

	if target.ShouldTransform() {
		if msg := target.SwitchState(); msg != "" {
			d.Logf("%s", msg)
		}
	}
}

// displayName is the class for the player and the card name otherwise.
func (d *Director) displayName(u *unit.Unit) string {
	if d.isPlayer(u) {
		return string(d.player.Class)
	}
	return u.Name()
}
