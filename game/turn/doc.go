// Package turn runs the phase cycle of a match.
//
// A Director owns one grid and walks it through Player, Allied, Neutral and
// Hostile phases. Each call to Step resolves a single unit decision or a
// single phase transition, so a caller can interleave steps with rendering:
// Tick advances animations and only steps once nothing is moving, while
// RunUntilPlayerTurn fast-forwards to the next player phase.
//
// Damage is applied immediately. Units at zero hp leave the grid on the spot
// and the player's death ends the match with PhaseGameOver. After the hostile
// phase the level's Condition is checked; a satisfied condition parks the
// director in PhaseLevelComplete for the caller to load the next level.
//
// Every message goes to the shared Log and to the configured zap logger.
package turn
