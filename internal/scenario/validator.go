package scenario

import (
	"fmt"
	"math"
	"strings"

	"github.com/saaga0h/jeeves-moodlight/internal/moodlight"
)

// ValidateScenario performs validation checks on a loaded scenario
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	if err := validateSettings(s); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}

	if err := validateSteps(s.Steps); err != nil {
		return fmt.Errorf("steps validation failed: %w", err)
	}

	if err := validateExpectations(s.Expectations); err != nil {
		return fmt.Errorf("expectations validation failed: %w", err)
	}

	if s.Duration > 0 && s.Duration < lastMoment(s) {
		return fmt.Errorf("duration %.2fs ends before the last step or expectation (%.2fs)", s.Duration, lastMoment(s))
	}

	return nil
}

func validateSettings(s *Scenario) error {
	if err := validateSeconds("tick_interval", s.TickInterval); err != nil {
		return err
	}
	if s.TickInterval > 0 && seconds(s.TickInterval) <= 0 {
		return fmt.Errorf("tick_interval %g is shorter than a nanosecond", s.TickInterval)
	}

	if err := validateSeconds("duration", s.Duration); err != nil {
		return err
	}

	if math.IsNaN(s.TransitionRate) || math.IsInf(s.TransitionRate, 0) {
		return fmt.Errorf("transition_rate must be a finite number")
	}

	if s.Window < 0 || s.History < 0 {
		return fmt.Errorf("window and history cannot be negative")
	}

	if s.Window > 0 && s.History > 0 && s.History < s.Window {
		return fmt.Errorf("history (%d) must be >= window (%d)", s.History, s.Window)
	}

	if s.TransitionRate < 0 {
		return fmt.Errorf("transition_rate cannot be negative")
	}

	if s.Brightness != nil && !(*s.Brightness >= 0 && *s.Brightness <= 1) {
		return fmt.Errorf("brightness must be between 0 and 1 (got %g)", *s.Brightness)
	}

	return nil
}

func validateSteps(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	prev := 0.0
	for i, step := range steps {
		if err := validateSeconds("at", step.At); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		if step.At < prev {
			return fmt.Errorf("step %d: steps must be in time order (%.2fs after %.2fs)", i, step.At, prev)
		}
		prev = step.At

		kinds := 0
		if step.Emotion != nil {
			kinds++
		}
		if step.NoFace {
			kinds++
		}
		if step.Command != nil {
			kinds++
		}
		if kinds != 1 {
			return fmt.Errorf("step %d: exactly one of 'emotion', 'no_face' or 'command' is required", i)
		}

		if step.Emotion != nil && strings.TrimSpace(step.Emotion.Label) == "" {
			return fmt.Errorf("step %d: emotion label is required", i)
		}

		if step.Command != nil {
			if _, err := moodlight.NewCommand(step.Command.Name, step.Command.Value); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
	}

	return nil
}

func validateExpectations(expectations []Expectation) error {
	for i, exp := range expectations {
		if err := validateSeconds("at", exp.At); err != nil {
			return fmt.Errorf("expectation %d: %w", i, err)
		}

		if exp.On == nil && exp.Output == "" && exp.Target == "" && exp.Mood == "" && exp.Converged == nil {
			return fmt.Errorf("expectation %d: nothing to check", i)
		}

		for field, hex := range map[string]string{"output": exp.Output, "target": exp.Target} {
			if hex == "" {
				continue
			}
			if _, err := moodlight.ParseHexColor(hex); err != nil {
				return fmt.Errorf("expectation %d: %s: %w", i, field, err)
			}
		}
	}

	return nil
}

// validateSeconds checks a time offset is finite, non-negative and fits a time.Duration
func validateSeconds(field string, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fmt.Errorf("%s must be a finite number", field)
	case v < 0:
		return fmt.Errorf("%s cannot be negative", field)
	case v >= maxSeconds:
		return fmt.Errorf("%s %g is too large", field, v)
	}
	return nil
}
