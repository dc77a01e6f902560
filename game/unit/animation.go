package unit

import (
	"fmt"
	"time"

	"github.com/wricardo/hextactics/game/hex"
)

const (
	// StepDuration is how long a move animation spends per hex travelled.
	StepDuration = 150 * time.Millisecond
	// AttackFlashDuration is how long an attacker stays highlighted.
	AttackFlashDuration = 500 * time.Millisecond
	// DamageTextDuration is how long floating damage numbers stay visible.
	DamageTextDuration = 1000 * time.Millisecond
)

// Animation is presentation-only state. Combat logic never reads it, except
// that the turn director waits for moves to finish before advancing.
type Animation struct {
	From hex.Coord `json:"from"`
	To   hex.Coord `json:"to"`

	moving   bool
	elapsed  time.Duration
	duration time.Duration

	flashLeft time.Duration

	damageText string
	damageLeft time.Duration
}

// StartMove begins interpolating from one cell to another.
func (a *Animation) StartMove(from, to hex.Coord) {
	steps := hex.Distance(from, to)
	if steps <= 0 {
		a.moving = false
		return
	}
	a.From, a.To = from, to
	a.moving = true
	a.elapsed = 0
	a.duration = time.Duration(steps) * StepDuration
}

// Flash starts the attack highlight.
func (a *Animation) Flash() {
	a.flashLeft = AttackFlashDuration
}

// ShowDamage starts the floating "-N" text.
func (a *Animation) ShowDamage(damage int) {
	a.damageText = fmt.Sprintf("-%d", damage)
	a.damageLeft = DamageTextDuration
}

// Advance moves every timer forward by elapsed.
func (a *Animation) Advance(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	if a.moving {
		a.elapsed += elapsed
		if a.elapsed >= a.duration {
			a.elapsed = a.duration
			a.moving = false
		}
	}
	if a.flashLeft > 0 {
		a.flashLeft -= elapsed
		if a.flashLeft < 0 {
			a.flashLeft = 0
		}
	}
	if a.damageLeft > 0 {
		a.damageLeft -= elapsed
		if a.damageLeft <= 0 {
			a.damageLeft = 0
			a.damageText = ""
		}
	}
}

// Finish completes every running timer at once.
func (a *Animation) Finish() {
	a.moving = false
	a.elapsed = a.duration
	a.flashLeft = 0
	a.damageLeft = 0
	a.damageText = ""
}

// Moving reports whether a move interpolation is in progress.
func (a *Animation) Moving() bool { return a.moving }

// Flashing reports whether the attack highlight is visible.
func (a *Animation) Flashing() bool { return a.flashLeft > 0 }

// Progress is the move interpolation value in [0, 1]. Idle units report 1.
func (a *Animation) Progress() float64 {
	if !a.moving || a.duration <= 0 {
		return 1
	}
	return float64(a.elapsed) / float64(a.duration)
}

// DamageText returns the floating damage label while it is visible.
func (a *Animation) DamageText() (string, bool) {
	if a.damageLeft <= 0 || a.damageText == "" {
		return "", false
	}
	return a.damageText, true
}

// Frame is the animation state exposed to presentation layers.
type Frame struct {
	From       hex.Coord `json:"from"`
	To         hex.Coord `json:"to"`
	Moving     bool      `json:"moving"`
	Progress   float64   `json:"progress"`
	Flashing   bool      `json:"flashing"`
	DamageText string    `json:"damage_text,omitempty"`
}

// Frame captures the current interpolation values.
func (a *Animation) Frame() Frame {
	text, _ := a.DamageText()
	return Frame{
		From:       a.From,
		To:         a.To,
		Moving:     a.moving,
		Progress:   a.Progress(),
		Flashing:   a.Flashing(),
		DamageText: text,
	}
}
