package scenario

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-moodlight/internal/mood"
	"github.com/saaga0h/jeeves-moodlight/internal/moodlight"
)

// Runner replays scenarios against the mood engine
type Runner struct {
	logger    *slog.Logger
	start     time.Time
	everyTick bool
}

// NewRunner creates a new scenario runner.
// With everyTick a frame is recorded for every tick, not only those with input.
func NewRunner(logger *slog.Logger, everyTick bool) *Runner {
	return &Runner{
		logger:    logger,
		start:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		everyTick: everyTick,
	}
}

// Run replays a scenario. Steps falling between ticks are applied at the
// next tick; expectations are checked against the state after that tick.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	if err := ValidateScenario(s); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}
	applyDefaults(s)

	now := r.start
	clock := func() time.Time { return now }

	controller := moodlight.NewController(moodlight.ControllerConfig{
		HistoryCapacity:    s.History,
		MoodWindow:         s.Window,
		UseAveragedMood:    *s.Averaged,
		TransitionRate:     s.TransitionRate,
		Brightness:         *s.Brightness,
		StartOn:            *s.StartOn,
		CalibrationMinutes: DefaultCalibrationMinutes,
		Now:                clock,
	})

	expectations := make([]Expectation, len(s.Expectations))
	copy(expectations, s.Expectations)
	sort.SliceStable(expectations, func(i, j int) bool {
		return expectations[i].At < expectations[j].At
	})

	interval := seconds(s.TickInterval)
	if interval <= 0 {
		return nil, fmt.Errorf("tick_interval %g does not advance the clock", s.TickInterval)
	}
	duration := seconds(s.Duration)

	result := &Result{Scenario: s}

	r.logger.Info("Replaying scenario",
		"name", s.Name,
		"steps", len(s.Steps),
		"expectations", len(expectations),
		"tick_interval", s.TickInterval,
		"duration", s.Duration)

	stepIdx, expIdx := 0, 0
	for elapsed := time.Duration(0); elapsed <= duration; elapsed += interval {
		now = r.start.Add(elapsed)

		var events []string
		for stepIdx < len(s.Steps) && seconds(s.Steps[stepIdx].At) <= elapsed {
			event, err := r.applyStep(controller, &s.Steps[stepIdx], now)
			if err != nil {
				return nil, fmt.Errorf("step %d at %.2fs: %w", stepIdx, s.Steps[stepIdx].At, err)
			}
			events = append(events, event)
			stepIdx++
		}

		snap := controller.Tick()
		result.Ticks++

		if len(events) > 0 || r.everyTick {
			result.Frames = append(result.Frames, Frame{
				Elapsed:  elapsed.Seconds(),
				Event:    strings.Join(events, "; "),
				Snapshot: snap,
				Mood:     controller.Mood(),
			})
		}

		for expIdx < len(expectations) && seconds(expectations[expIdx].At) <= elapsed {
			check := checkExpectation(expectations[expIdx], snap, controller.Mood())
			if check.Passed {
				result.PassedCount++
			} else {
				result.FailedCount++
				r.logger.Debug("Expectation failed",
					"at", expectations[expIdx].At,
					"reason", check.Reason)
			}
			result.Checks = append(result.Checks, check)
			expIdx++
		}
	}

	result.Final = controller.Snapshot()
	result.Log = controller.Log()
	result.Passed = result.FailedCount == 0

	r.logger.Info("Scenario finished",
		"name", s.Name,
		"ticks", result.Ticks,
		"passed", result.PassedCount,
		"failed", result.FailedCount)

	return result, nil
}

func (r *Runner) applyStep(controller *moodlight.Controller, step *Step, now time.Time) (string, error) {
	switch step.Kind() {
	case "emotion":
		reading := moodlight.NewReading(step.Emotion.Label, step.Emotion.Scores, now)
		controller.Observe(reading)
		return "emotion " + reading.Label, nil

	case "no_face":
		return "no face", nil

	case "command":
		cmd, err := moodlight.NewCommand(step.Command.Name, step.Command.Value)
		if err != nil {
			return "", err
		}
		if err := controller.Apply(cmd); err != nil {
			return "", err
		}
		if len(cmd.Value) > 0 {
			return fmt.Sprintf("command %s %s", cmd.Name, string(cmd.Value)), nil
		}
		return "command " + cmd.Name, nil

	default:
		return "", fmt.Errorf("step has no input")
	}
}

func checkExpectation(exp Expectation, snap mood.Snapshot, currentMood string) CheckResult {
	var mismatches []string

	if exp.On != nil && *exp.On != snap.On {
		mismatches = append(mismatches, fmt.Sprintf("on: expected %t, got %t", *exp.On, snap.On))
	}

	if exp.Output != "" {
		if want, _ := moodlight.ParseHexColor(exp.Output); want != snap.Output {
			mismatches = append(mismatches, fmt.Sprintf("output: expected %s, got %s", want.Hex(), snap.Output.Hex()))
		}
	}

	if exp.Target != "" {
		if want, _ := moodlight.ParseHexColor(exp.Target); want != snap.Target {
			mismatches = append(mismatches, fmt.Sprintf("target: expected %s, got %s", want.Hex(), snap.Target.Hex()))
		}
	}

	if exp.Mood != "" && !strings.EqualFold(exp.Mood, currentMood) {
		mismatches = append(mismatches, fmt.Sprintf("mood: expected %s, got %q", exp.Mood, currentMood))
	}

	if exp.Converged != nil && *exp.Converged != snap.Converged {
		mismatches = append(mismatches, fmt.Sprintf("converged: expected %t, got %t", *exp.Converged, snap.Converged))
	}

	return CheckResult{
		Expectation: exp,
		Passed:      len(mismatches) == 0,
		Reason:      strings.Join(mismatches, "; "),
		Actual:      snap,
	}
}

// maxSeconds is the longest offset a time.Duration can hold
var maxSeconds = time.Duration(math.MaxInt64).Seconds()

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
