package mood

import (
	"math"
	"time"
)

// DefaultBrightness is the brightness of a freshly created light
const DefaultBrightness = 0.7

// LightingState is the mood lighting engine: a color transition plus
// power, brightness and a session log.
//
// LightingState is not safe for concurrent use. Callers that share it
// between goroutines must hold one lock around every call.
type LightingState struct {
	transition *Transition
	isOn       bool
	brightness float64
	log        *EventLog
	clock      func() time.Time
}

// Snapshot is a copy of the engine state at one instant
type Snapshot struct {
	On         bool    `json:"on"`
	Brightness float64 `json:"brightness"`
	Current    Color   `json:"current"`
	Target     Color   `json:"target"`
	Output     Color   `json:"output"`
	Converged  bool    `json:"converged"`
}

type settings struct {
	brightness  float64
	rate        float64
	start       Color
	logCapacity int
	clock       func() time.Time
}

// Option configures a LightingState
type Option func(*settings)

// WithBrightness sets the initial brightness (clamped into [0,1])
func WithBrightness(b float64) Option {
	return func(s *settings) { s.brightness = b }
}

// WithTransitionRate sets the fade rate
func WithTransitionRate(rate float64) Option {
	return func(s *settings) { s.rate = rate }
}

// WithStartColor sets the color the light rests at initially
func WithStartColor(c Color) Option {
	return func(s *settings) { s.start = c }
}

// WithLogCapacity bounds the session log
func WithLogCapacity(n int) Option {
	return func(s *settings) { s.logCapacity = n }
}

// WithClock sets the wall clock used to timestamp log entries
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewLightingState creates a switched-off light resting at the neutral color
func NewLightingState(opts ...Option) *LightingState {
	s := settings{
		brightness:  DefaultBrightness,
		rate:        DefaultTransitionRate,
		start:       NeutralColor,
		logCapacity: DefaultLogCapacity,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &LightingState{
		transition: NewTransition(s.start, s.rate),
		brightness: clampUnit(s.brightness),
		log:        NewEventLog(s.logCapacity),
		clock:      s.clock,
	}
}

// TurnOn switches the light on and logs it
func (l *LightingState) TurnOn() {
	l.isOn = true
	l.LogEvent(EventLightsOn, "", nil)
}

// TurnOff switches the light off and logs it
func (l *LightingState) TurnOff() {
	l.isOn = false
	l.LogEvent(EventLightsOff, "", nil)
}

// SetBrightness stores b clamped into [0,1]
func (l *LightingState) SetBrightness(b float64) {
	l.brightness = clampUnit(b)
}

// SetEmotionColor makes c the fade target
func (l *LightingState) SetEmotionColor(c Color) {
	l.transition.SetTarget(c)
}

// SnapToColor shows c immediately without fading
func (l *LightingState) SnapToColor(c Color) {
	l.transition.JumpTo(c)
}

// Tick advances the fade to now
func (l *LightingState) Tick(now time.Time) {
	l.transition.Tick(now)
}

// CurrentOutput returns the color to show: black when off, otherwise the
// current color with every channel scaled by brightness and truncated.
func (l *LightingState) CurrentOutput() Color {
	if !l.isOn {
		return Off
	}
	return l.transition.Value().Scale(l.brightness)
}

// LogEvent appends an entry stamped with the engine clock
func (l *LightingState) LogEvent(kind EventKind, emotion string, color *Color) {
	l.log.Append(LogEntry{
		Timestamp: l.clock(),
		Kind:      kind,
		Emotion:   emotion,
		Color:     color,
	})
}

// Log returns a copy of the session log, oldest first
func (l *LightingState) Log() []LogEntry {
	return l.log.Entries()
}

// LogDropped returns how many entries the log has rotated out
func (l *LightingState) LogDropped() int {
	return l.log.Dropped()
}

// ClearLog empties the session log
func (l *LightingState) ClearLog() {
	l.log.Clear()
}

// IsOn reports whether the light is on
func (l *LightingState) IsOn() bool {
	return l.isOn
}

// Brightness returns the brightness in [0,1]
func (l *LightingState) Brightness() float64 {
	return l.brightness
}

// Color returns the current color before brightness scaling
func (l *LightingState) Color() Color {
	return l.transition.Value()
}

// Target returns the color being faded towards
func (l *LightingState) Target() Color {
	return l.transition.Target()
}

// Snapshot captures the current state
func (l *LightingState) Snapshot() Snapshot {
	return Snapshot{
		On:         l.isOn,
		Brightness: l.brightness,
		Current:    l.transition.Value(),
		Target:     l.transition.Target(),
		Output:     l.CurrentOutput(),
		Converged:  l.transition.Converged(),
	}
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
