package moodlight

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/saaga0h/jeeves-moodlight/internal/mood"
)

// ControllerConfig configures a Controller
type ControllerConfig struct {
	HistoryCapacity    int
	MoodWindow         int
	UseAveragedMood    bool
	TransitionRate     float64
	Brightness         float64
	StartOn            bool
	LogCapacity        int
	CalibrationMinutes int

	// Now is the clock for fades, log timestamps and calibration expiry.
	// Defaults to time.Now.
	Now func() time.Time
}

// Controller binds the mood engine, the emotion history and the calibration
// window behind one lock. It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	engine      *mood.LightingState
	aggregator  *mood.Aggregator
	calibration *CalibrationManager

	window             int
	useAveragedMood    bool
	calibrationMinutes int
	now                func() time.Time

	// brightness chosen by the user, before the daylight ceiling
	requested   float64
	ceiling     float64
	mood        string
	calibrating bool

	// log entries handed out by DrainLog since the last clear
	drained    int
	logCleared bool
}

// NewController creates a controller; the light starts off unless StartOn
func NewController(cfg ControllerConfig) *Controller {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	window := cfg.MoodWindow
	if window <= 0 {
		window = 10
	}

	c := &Controller{
		engine: mood.NewLightingState(
			mood.WithBrightness(cfg.Brightness),
			mood.WithTransitionRate(cfg.TransitionRate),
			mood.WithLogCapacity(cfg.LogCapacity),
			mood.WithClock(now),
		),
		aggregator:         mood.NewAggregator(cfg.HistoryCapacity),
		calibration:        NewCalibrationManager(now),
		window:             window,
		useAveragedMood:    cfg.UseAveragedMood,
		calibrationMinutes: cfg.CalibrationMinutes,
		now:                now,
		ceiling:            1.0,
	}
	c.requested = c.engine.Brightness()

	if cfg.StartOn {
		c.engine.TurnOn()
	}

	return c
}

// Observe feeds one face-detected classifier reading.
// Returns true when the dominant emotion differs from the previous one.
func (c *Controller) Observe(r Reading) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, _ := c.aggregator.LastLabel()
	c.aggregator.Record(r.Label, r.Scores, r.ObservedAt)

	changed := r.Label != last
	if changed {
		color := mood.ColorFor(r.Label)
		c.engine.LogEvent(mood.EventEmotionChange, r.Label, &color)
	}

	if !c.calibrationActiveLocked() {
		c.retargetLocked(r.Label)
	}

	return changed
}

// retargetLocked points the fade at the averaged mood, or at the color of
// the latest label when averaging is disabled
func (c *Controller) retargetLocked(latest string) {
	if !c.useAveragedMood {
		if latest == "" {
			return
		}
		c.mood = latest
		c.engine.SetEmotionColor(mood.ColorFor(latest))
		return
	}

	m, err := c.aggregator.Average(c.window)
	if err != nil || m == nil {
		return
	}
	c.mood = m.Label
	c.engine.SetEmotionColor(m.Color)
}

// Apply executes a control command
func (c *Controller) Apply(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd.Name {
	case CommandOn:
		c.engine.TurnOn()

	case CommandOff:
		c.engine.TurnOff()

	case CommandBrightness:
		b, err := cmd.FloatValue()
		if err != nil {
			return err
		}
		if math.IsNaN(b) {
			return fmt.Errorf("%w: brightness is NaN", ErrInvalidValue)
		}
		c.requested = math.Max(0, math.Min(1, b))
		c.applyBrightnessLocked()
		c.engine.LogEvent(mood.EventBrightnessChange, "", nil)

	case CommandCalibrate:
		minutes := c.calibrationMinutes
		if len(cmd.Value) > 0 {
			v, err := cmd.FloatValue()
			if err != nil {
				return err
			}
			if v > 0 {
				minutes = int(math.Ceil(v))
			}
		}
		c.calibration.Start(minutes)
		c.calibrating = true
		c.engine.LogEvent(mood.EventCalibrationOn, "", nil)

	case CommandEndCalibration:
		c.calibration.End()
		if c.calibrating {
			c.endCalibrationLocked()
		}

	case CommandSetColor:
		color, err := cmd.ColorValue()
		if err != nil {
			return err
		}
		c.engine.SnapToColor(color)

	case CommandClearLog:
		c.clearLogLocked()

	case CommandReset:
		c.aggregator.Reset()
		c.clearLogLocked()
		c.mood = ""
		c.engine.SetEmotionColor(mood.NeutralColor)
		c.engine.LogEvent(mood.EventReset, "", nil)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}

	return nil
}

// SetCeiling caps the effective brightness (daylight dimming)
func (c *Controller) SetCeiling(ceiling float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if math.IsNaN(ceiling) {
		return
	}
	c.ceiling = math.Max(0, math.Min(1, ceiling))
	c.applyBrightnessLocked()
}

// Tick advances the fade to the controller clock and returns the new state
func (c *Controller) Tick() mood.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.calibrating && !c.calibration.Active() {
		c.endCalibrationLocked()
	}

	c.engine.Tick(c.now())
	return c.engine.Snapshot()
}

// Snapshot returns the state without advancing the fade
func (c *Controller) Snapshot() mood.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.engine.Snapshot()
}

// Mood returns the label the light is currently targeting
func (c *Controller) Mood() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mood
}

// LastEmotion returns the most recent dominant emotion, "" if none
func (c *Controller) LastEmotion() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	label, _ := c.aggregator.LastLabel()
	return label
}

// Calibrating reports whether a calibration window is open
func (c *Controller) Calibrating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calibrating && c.calibration.Active()
}

// Log returns a copy of the session log
func (c *Controller) Log() []mood.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.engine.Log()
}

// DrainLog returns log entries appended since the previous call.
// cleared is true when the log was emptied in between; entries then start
// from the clear.
func (c *Controller) DrainLog() (entries []mood.LogEntry, cleared bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared = c.logCleared
	c.logCleared = false

	log := c.engine.Log()
	total := len(log) + c.engine.LogDropped()
	pending := min(total-c.drained, len(log))
	c.drained = total

	if pending <= 0 {
		return nil, cleared
	}
	return log[len(log)-pending:], cleared
}

// Status reports the controller state for health checks
func (c *Controller) Status() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.engine.Snapshot()
	last, _ := c.aggregator.LastLabel()

	return map[string]interface{}{
		"on":          snap.On,
		"brightness":  snap.Brightness,
		"current":     snap.Current.Hex(),
		"target":      snap.Target.Hex(),
		"output":      snap.Output.Hex(),
		"converged":   snap.Converged,
		"emotion":     last,
		"mood":        c.mood,
		"history":     c.aggregator.Len(),
		"calibrating": c.calibrating,
		"log_entries": len(c.engine.Log()),
	}
}

func (c *Controller) calibrationActiveLocked() bool {
	if !c.calibrating {
		return false
	}
	if c.calibration.Active() {
		return true
	}
	c.endCalibrationLocked()
	return false
}

// endCalibrationLocked logs the end of calibration and hands the light back
// to the mood
func (c *Controller) endCalibrationLocked() {
	c.calibrating = false
	c.engine.LogEvent(mood.EventCalibrationOff, "", nil)

	last, _ := c.aggregator.LastLabel()
	c.retargetLocked(last)
}

func (c *Controller) applyBrightnessLocked() {
	c.engine.SetBrightness(math.Min(c.requested, c.ceiling))
}

func (c *Controller) clearLogLocked() {
	c.engine.ClearLog()
	c.drained = 0
	c.logCleared = true
}
