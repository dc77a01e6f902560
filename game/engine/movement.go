package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/turn"
	"github.com/wricardo/hextactics/game/unit"
)

// AutoTurn plays one player turn greedily: attack the weakest hostile in
// reach, otherwise close in on the nearest one and try again, then end the
// turn and resolve the other phases.
func (e *MatchEngine) AutoTurn() ActionResult {
	if e.director.Finished() {
		return e.fail(turn.ErrGameOver)
	}
	if e.director.Phase() != turn.PhasePlayer {
		return e.fail(turn.ErrNotPlayerPhase)
	}

	seq := e.log.LastSeq()
	if !e.autoAttack() {
		if dest, ok := e.approachCell(); ok {
			if r := e.MovePlayer(dest); r.Success {
				e.autoAttack()
			} else {
				e.logger.Debug("auto turn move refused", zap.String("to", dest.String()), zap.String("reason", r.Message))
			}
		}
	}
	if e.director.Phase() == turn.PhasePlayer {
		if err := e.director.EndPlayerTurn(); err == nil {
			e.RunUntilPlayerTurn()
		}
	}
	return e.succeed(seq)
}

// PlayUntilDone runs AutoTurn until the match ends or maxTurns turns pass. It
// returns the number of turns played.
func (e *MatchEngine) PlayUntilDone(maxTurns int) int {
	played := 0
	for played < maxTurns && !e.IsGameOver() && !e.IsVictory() {
		if !e.AutoTurn().Success {
			break
		}
		played++
	}
	return played
}

func (e *MatchEngine) autoAttack() bool {
	if e.player.ActionUsed {
		return false
	}
	g := e.director.Grid()
	pos := e.player.Position()
	hostiles := g.UnitsOf(unit.Hostile)
	// weakest first, nearest on ties
	sort.SliceStable(hostiles, func(i, j int) bool {
		if hostiles[i].HP != hostiles[j].HP {
			return hostiles[i].HP < hostiles[j].HP
		}
		return hex.Distance(pos, hostiles[i].Position()) < hex.Distance(pos, hostiles[j].Position())
	})

	for _, h := range hostiles {
		at := h.Position()
		if hex.Distance(pos, at) == 1 {
			if e.director.PlayerAttack(e.player.MeleeAttack.Name, at) == nil {
				return true
			}
			continue
		}
		if e.director.PlayerAttack(e.player.ProjectileAttack.Name, at) == nil {
			return true
		}
	}
	return false
}

// approachCell picks the valid move closest to the nearest hostile.
func (e *MatchEngine) approachCell() (hex.Coord, bool) {
	g := e.director.Grid()
	target, _, ok := NearestUnit(g, e.player.Position(), unit.Hostile)
	if !ok {
		return hex.Coord{}, false
	}
	best, bestDist := hex.Coord{}, -1
	for _, c := range e.ValidMoves() {
		d := hex.Distance(c, target.Position())
		if bestDist == -1 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist == -1 || bestDist >= hex.Distance(e.player.Position(), target.Position()) {
		return hex.Coord{}, false
	}
	return best, true
}
