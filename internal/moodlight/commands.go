package moodlight

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/saaga0h/jeeves-moodlight/internal/mood"
)

// Control command names
const (
	CommandOn             = "on"
	CommandOff            = "off"
	CommandBrightness     = "brightness"
	CommandCalibrate      = "calibrate"
	CommandEndCalibration = "end_calibration"
	CommandSetColor       = "set_color"
	CommandClearLog       = "clear_log"
	CommandReset          = "reset"
)

var (
	// ErrUnknownCommand is returned for command names the agent does not handle
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidValue is returned when a command value has the wrong shape
	ErrInvalidValue = errors.New("invalid command value")
)

var knownCommands = map[string]bool{
	CommandOn:             true,
	CommandOff:            true,
	CommandBrightness:     true,
	CommandCalibrate:      true,
	CommandEndCalibration: true,
	CommandSetColor:       true,
	CommandClearLog:       true,
	CommandReset:          true,
}

// Command is a control message from automation/command/mood/{location}
type Command struct {
	Name  string          `json:"command"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ParseCommand decodes and validates a control payload
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("failed to parse command: %w", err)
	}

	cmd.Name = strings.ToLower(strings.TrimSpace(cmd.Name))
	if !knownCommands[cmd.Name] {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}

	return cmd, nil
}

// NewCommand builds a command from a name and any JSON-encodable value
func NewCommand(name string, value interface{}) (Command, error) {
	cmd := Command{Name: strings.ToLower(strings.TrimSpace(name))}
	if !knownCommands[cmd.Name] {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}

	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		cmd.Value = raw
	}

	return cmd, nil
}

// FloatValue reads the value as a number; numeric strings are accepted
func (c Command) FloatValue() (float64, error) {
	if len(c.Value) == 0 {
		return 0, fmt.Errorf("%w: %s requires a value", ErrInvalidValue, c.Name)
	}

	var f float64
	if err := json.Unmarshal(c.Value, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(c.Value, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
	}

	return 0, fmt.Errorf("%w: %s expects a number, got %s", ErrInvalidValue, c.Name, string(c.Value))
}

// ColorValue reads the value as [r,g,b] or "#rrggbb"; channels are clamped
func (c Command) ColorValue() (mood.Color, error) {
	if len(c.Value) == 0 {
		return mood.Color{}, fmt.Errorf("%w: %s requires a color", ErrInvalidValue, c.Name)
	}

	var channels []float64
	if err := json.Unmarshal(c.Value, &channels); err == nil {
		if len(channels) != 3 {
			return mood.Color{}, fmt.Errorf("%w: color needs 3 channels, got %d", ErrInvalidValue, len(channels))
		}
		return mood.Color{
			R: clampByte(channels[0]),
			G: clampByte(channels[1]),
			B: clampByte(channels[2]),
		}, nil
	}

	var hex string
	if err := json.Unmarshal(c.Value, &hex); err == nil {
		return ParseHexColor(hex)
	}

	return mood.Color{}, fmt.Errorf("%w: unsupported color %s", ErrInvalidValue, string(c.Value))
}

// ParseHexColor parses "#rrggbb" (the leading # is optional)
func ParseHexColor(s string) (mood.Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return mood.Color{}, fmt.Errorf("%w: bad hex color %q", ErrInvalidValue, s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return mood.Color{}, fmt.Errorf("%w: bad hex color %q", ErrInvalidValue, s)
	}

	return mood.Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

func clampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
