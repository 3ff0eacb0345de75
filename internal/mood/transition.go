package mood

import (
	"math"
	"time"
)

const (
	// DefaultTransitionRate is the fraction of the remaining distance covered per 100ms
	DefaultTransitionRate = 0.1

	// SnapThreshold is the per-channel distance under which the color jumps to the target
	SnapThreshold = 5
)

// Transition moves a current color towards a target color with an
// exponential approach driven by elapsed time. Not safe for concurrent use.
type Transition struct {
	current  Color
	target   Color
	rate     float64
	lastTick time.Time
}

// NewTransition creates a transition resting at start
func NewTransition(start Color, rate float64) *Transition {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = DefaultTransitionRate
	}
	return &Transition{
		current: start,
		target:  start,
		rate:    rate,
	}
}

// SetTarget replaces the target; the current color is untouched
func (t *Transition) SetTarget(c Color) {
	t.target = c
}

// JumpTo sets current and target at once, skipping the fade
func (t *Transition) JumpTo(c Color) {
	t.current = c
	t.target = c
}

// Tick advances the current color by the time elapsed since the previous tick.
// The first tick only records now. A tick that goes back in time counts as zero elapsed.
func (t *Transition) Tick(now time.Time) {
	var dt float64
	if !t.lastTick.IsZero() {
		dt = now.Sub(t.lastTick).Seconds()
	}
	t.lastTick = now

	if dt <= 0 || t.current == t.target {
		return
	}

	// Capped at 1 so a long gap between ticks can never carry a channel past
	// its target; step >= 1 covers the whole remaining distance this tick.
	step := math.Min(t.rate*dt*10, 1)

	r := approach(t.current.R, t.target.R, step)
	g := approach(t.current.G, t.target.G, step)
	b := approach(t.current.B, t.target.B, step)

	if near(r, t.target.R) && near(g, t.target.G) && near(b, t.target.B) {
		t.current = t.target
		return
	}

	t.current = Color{R: clampChannel(r), G: clampChannel(g), B: clampChannel(b)}
}

// Value returns the current, unscaled color
func (t *Transition) Value() Color {
	return t.current
}

// Target returns the color being approached
func (t *Transition) Target() Color {
	return t.target
}

// Converged reports whether the current color has reached the target
func (t *Transition) Converged() bool {
	return t.current == t.target
}

// Rate returns the transition rate
func (t *Transition) Rate() float64 {
	return t.rate
}

// approach moves from towards to by step of the distance, rounded.
// A channel short of its target always moves at least one unit so tiny
// steps cannot stall the fade.
func approach(from, to uint8, step float64) int {
	old := float64(from)
	next := int(math.Round(old + (float64(to)-old)*step))
	switch {
	case next == int(from) && to > from:
		next++
	case next == int(from) && to < from:
		next--
	}
	return next
}

func near(v int, target uint8) bool {
	d := v - int(target)
	if d < 0 {
		d = -d
	}
	return d < SnapThreshold
}

func clampChannel(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
