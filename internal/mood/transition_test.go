package mood

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return epoch.Add(time.Duration(seconds * float64(time.Second)))
}

func TestTransitionSetTargetLeavesCurrent(t *testing.T) {
	tr := NewTransition(NeutralColor, DefaultTransitionRate)
	tr.SetTarget(Color{255, 50, 50})

	assert.Equal(t, NeutralColor, tr.Value())
	assert.Equal(t, Color{255, 50, 50}, tr.Target())
	assert.False(t, tr.Converged())
}

func TestTransitionLargeStepSnapsToTarget(t *testing.T) {
	tr := NewTransition(Color{200, 200, 200}, 0.1)
	tr.SetTarget(Color{255, 200, 0})

	tr.Tick(at(0))
	assert.Equal(t, Color{200, 200, 200}, tr.Value(), "first tick only records the time")

	tr.Tick(at(1.0))
	assert.Equal(t, Color{255, 200, 0}, tr.Value())
	assert.True(t, tr.Converged())
}

func TestTransitionPartialStep(t *testing.T) {
	tr := NewTransition(Color{0, 0, 0}, 0.1)
	tr.SetTarget(Color{200, 100, 50})

	tr.Tick(at(0))
	tr.Tick(at(0.5)) // step 0.5

	assert.Equal(t, Color{100, 50, 25}, tr.Value())
}

func TestTransitionZeroElapsedIsNoop(t *testing.T) {
	tr := NewTransition(Color{200, 200, 200}, 0.1)
	tr.SetTarget(Color{202, 200, 200})

	tr.Tick(at(3))
	tr.Tick(at(3))
	assert.Equal(t, Color{200, 200, 200}, tr.Value(), "no time elapsed, no color change")

	tr.Tick(at(3.01))
	assert.Equal(t, Color{202, 200, 200}, tr.Value(), "within snap threshold once time moves")
}

func TestTransitionTickIsIdempotent(t *testing.T) {
	tr := NewTransition(Color{0, 0, 0}, 0.1)
	tr.SetTarget(Color{255, 255, 255})

	tr.Tick(at(0))
	tr.Tick(at(0.2))
	after := tr.Value()

	tr.Tick(at(0.2))
	assert.Equal(t, after, tr.Value())
}

func TestTransitionBackwardsTimeIsNoop(t *testing.T) {
	tr := NewTransition(Color{0, 0, 0}, 0.1)
	tr.SetTarget(Color{255, 255, 255})

	tr.Tick(at(10))
	tr.Tick(at(5))
	assert.Equal(t, Color{0, 0, 0}, tr.Value())

	tr.Tick(at(5.1))
	assert.NotEqual(t, Color{0, 0, 0}, tr.Value(), "last tick moved back to 5s")
}

func TestTransitionHugeElapsedStaysInRange(t *testing.T) {
	tr := NewTransition(Color{0, 255, 10}, 0.1)
	tr.SetTarget(Color{255, 0, 245})

	tr.Tick(at(0))
	tr.Tick(at(3600))

	assert.Equal(t, Color{255, 0, 245}, tr.Value())
}

func TestTransitionConvergesMonotonically(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randomColor := func() Color {
		return Color{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
	}

	for _, dt := range []float64{0.001, 0.033, 0.1, 0.5} {
		for i := 0; i < 50; i++ {
			start, target := randomColor(), randomColor()
			tr := NewTransition(start, DefaultTransitionRate)
			tr.SetTarget(target)

			now := 0.0
			tr.Tick(at(now))
			prev := distances(tr.Value(), target)

			steps := 0
			for !tr.Converged() {
				require.Less(t, steps, 10000, "no convergence from %v to %v with dt %v", start, target, dt)
				now += dt
				tr.Tick(at(now))

				cur := distances(tr.Value(), target)
				for ch := range cur {
					require.LessOrEqual(t, cur[ch], prev[ch], "channel %d moved away from target", ch)
				}
				prev = cur
				steps++
			}
			assert.Equal(t, target, tr.Value())
		}
	}
}

func TestTransitionJumpTo(t *testing.T) {
	tr := NewTransition(NeutralColor, 0.1)
	tr.SetTarget(Color{1, 2, 3})
	tr.JumpTo(Color{9, 9, 9})

	assert.Equal(t, Color{9, 9, 9}, tr.Value())
	assert.Equal(t, Color{9, 9, 9}, tr.Target())
}

func TestNewTransitionDefaultsRate(t *testing.T) {
	assert.Equal(t, DefaultTransitionRate, NewTransition(Off, 0).Rate())
	assert.Equal(t, DefaultTransitionRate, NewTransition(Off, -2).Rate())
	assert.Equal(t, 0.3, NewTransition(Off, 0.3).Rate())
}

func distances(c, target Color) [3]int {
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	return [3]int{
		abs(int(c.R) - int(target.R)),
		abs(int(c.G) - int(target.G)),
		abs(int(c.B) - int(target.B)),
	}
}

func TestApproachMovesAtLeastOneUnit(t *testing.T) {
	tests := []struct {
		name     string
		from, to uint8
		step     float64
		want     int
	}{
		{"rounds to no change, nudged up", 200, 240, 0.01, 201},
		{"rounds to no change, nudged down", 240, 200, 0.01, 239},
		{"large enough step is not nudged", 200, 240, 0.5, 220},
		{"already at target", 120, 120, 0.01, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, approach(tt.from, tt.to, tt.step))
		})
	}
}

func TestTransitionSmallStepStillAdvances(t *testing.T) {
	tr := NewTransition(Color{200, 200, 200}, 0.1)
	tr.SetTarget(Color{240, 200, 200})

	tr.Tick(at(0))
	tr.Tick(at(0.01)) // step 0.01, 200.4 rounds back to 200

	assert.Equal(t, Color{201, 200, 200}, tr.Value())
}
