package scenario

import (
	"github.com/saaga0h/jeeves-moodlight/internal/mood"
)

// Scenario is a scripted sequence of classifier results and commands replayed
// against the mood engine on a synthetic clock
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	TickInterval   float64  `yaml:"tick_interval"` // Seconds between transition ticks
	Duration       float64  `yaml:"duration"`      // Seconds to run; defaults past the last step
	Brightness     *float64 `yaml:"brightness"`
	Window         int      `yaml:"window"`
	History        int      `yaml:"history"`
	TransitionRate float64  `yaml:"transition_rate"`
	Averaged       *bool    `yaml:"averaged"`
	StartOn        *bool    `yaml:"start_on"`

	Steps        []Step        `yaml:"steps"`
	Expectations []Expectation `yaml:"expectations"`
}

// Step is one input at a point in scenario time
type Step struct {
	At          float64      `yaml:"at"` // Seconds from start
	Emotion     *EmotionStep `yaml:"emotion,omitempty"`
	NoFace      bool         `yaml:"no_face,omitempty"`
	Command     *CommandStep `yaml:"command,omitempty"`
	Description string       `yaml:"description,omitempty"`
}

// Kind returns the step category
func (s *Step) Kind() string {
	switch {
	case s.Emotion != nil:
		return "emotion"
	case s.Command != nil:
		return "command"
	case s.NoFace:
		return "no_face"
	default:
		return ""
	}
}

// EmotionStep is a classifier result with a detected face
type EmotionStep struct {
	Label  string             `yaml:"label"`
	Scores map[string]float64 `yaml:"scores,omitempty"`
}

// CommandStep is a control command, as sent on the command topic
type CommandStep struct {
	Name  string      `yaml:"name"`
	Value interface{} `yaml:"value,omitempty"`
}

// Expectation is a state check at a point in scenario time.
// Unset fields are not checked.
type Expectation struct {
	At          float64 `yaml:"at"`
	On          *bool   `yaml:"on,omitempty"`
	Output      string  `yaml:"output,omitempty"` // #rrggbb
	Target      string  `yaml:"target,omitempty"` // #rrggbb
	Mood        string  `yaml:"mood,omitempty"`
	Converged   *bool   `yaml:"converged,omitempty"`
	Description string  `yaml:"description,omitempty"`
}

// Frame is the engine state right after a tick
type Frame struct {
	Elapsed  float64
	Event    string
	Snapshot mood.Snapshot
	Mood     string
}

// CheckResult is the outcome of one expectation
type CheckResult struct {
	Expectation Expectation
	Passed      bool
	Reason      string
	Actual      mood.Snapshot
}

// Result is the outcome of a replay
type Result struct {
	Scenario    *Scenario
	Frames      []Frame
	Checks      []CheckResult
	Log         []mood.LogEntry
	Final       mood.Snapshot
	Ticks       int
	Passed      bool
	PassedCount int
	FailedCount int
}
