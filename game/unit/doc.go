// Package unit models the combat entities that live on the grid.
//
// A Unit carries a Primary stat bundle and, optionally, a Secondary one. The
// active bundle is always read through Stats(); switching variants swaps the
// whole bundle at once instead of patching fields. Damage below the transform
// threshold switches a unit into its second state and resets its hp to the new
// maximum.
//
// Player wraps a Unit with class attacks, equipment, inventory and the per-turn
// movement/action flags.
//
// Animation holds presentation-only timers: a 0..1 move progress value, the
// attack flash and the floating damage text. Nothing in combat resolution reads
// them except the turn director's "is anything still moving" check.
package unit
