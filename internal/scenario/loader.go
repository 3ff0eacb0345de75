package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied to fields a scenario leaves out
const (
	DefaultTickInterval   = 0.1
	DefaultWindow         = 10
	DefaultHistory        = 30
	DefaultTransitionRate = 0.1
	DefaultBrightness     = 0.7

	DefaultCalibrationMinutes = 15
	defaultSettleSeconds      = 2.0
)

// LoadScenario loads a scenario from a YAML file
func LoadScenario(filepath string) (*Scenario, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	return LoadScenarioFromBytes(data)
}

// LoadScenarioFromBytes loads a scenario from byte data (useful for testing)
func LoadScenarioFromBytes(data []byte) (*Scenario, error) {
	var scenario Scenario

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}

	applyDefaults(&scenario)

	return &scenario, nil
}

func applyDefaults(s *Scenario) {
	if s.TickInterval == 0 {
		s.TickInterval = DefaultTickInterval
	}
	if s.Window == 0 {
		s.Window = DefaultWindow
	}
	if s.History == 0 {
		s.History = max(DefaultHistory, s.Window)
	}
	if s.TransitionRate == 0 {
		s.TransitionRate = DefaultTransitionRate
	}
	if s.Brightness == nil {
		b := DefaultBrightness
		s.Brightness = &b
	}
	if s.StartOn == nil {
		on := true
		s.StartOn = &on
	}
	if s.Averaged == nil {
		averaged := true
		s.Averaged = &averaged
	}
	if s.Duration == 0 {
		s.Duration = lastMoment(s) + defaultSettleSeconds
	}
}

// lastMoment returns the latest step or expectation time
func lastMoment(s *Scenario) float64 {
	last := 0.0
	for _, step := range s.Steps {
		last = max(last, step.At)
	}
	for _, exp := range s.Expectations {
		last = max(last, exp.At)
	}
	return last
}
