package mood

import (
	"fmt"
	"strings"
)

// Color is an RGB light color, one byte per channel
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Scale multiplies every channel by factor and truncates.
// factor is clamped into [0,1] so the result never exceeds the input.
func (c Color) Scale(factor float64) Color {
	f := clampUnit(factor)
	return Color{
		R: scaleChannel(c.R, f),
		G: scaleChannel(c.G, f),
		B: scaleChannel(c.B, f),
	}
}

// Slice returns the color as a [r, g, b] slice for JSON payloads
func (c Color) Slice() []int {
	return []int{int(c.R), int(c.G), int(c.B)}
}

func scaleChannel(v uint8, f float64) uint8 {
	// int conversion truncates toward zero, which is floor for non-negative values
	return uint8(float64(v) * f)
}

var (
	// Off is the output of a switched-off light
	Off = Color{0, 0, 0}

	// NeutralColor is the fallback for unknown or missing emotions
	NeutralColor = Color{200, 200, 200}

	// NoFaceColor marks a classifier cycle in which no face was found
	NoFaceColor = Color{128, 128, 128}
)

// Emotion labels produced by the classifier
const (
	EmotionHappy    = "happy"
	EmotionSad      = "sad"
	EmotionAngry    = "angry"
	EmotionSurprise = "surprise"
	EmotionFear     = "fear"
	EmotionDisgust  = "disgust"
	EmotionNeutral  = "neutral"
)

var emotionOrder = []string{
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionSurprise,
	EmotionFear,
	EmotionDisgust,
	EmotionNeutral,
}

var emotionColors = map[string]Color{
	EmotionHappy:    {255, 200, 0},   // warm yellow/orange
	EmotionSad:      {100, 150, 255}, // cool blue
	EmotionAngry:    {255, 50, 50},   // red
	EmotionSurprise: {255, 255, 100}, // bright yellow
	EmotionFear:     {150, 100, 200}, // purple
	EmotionDisgust:  {100, 200, 100}, // green
	EmotionNeutral:  NeutralColor,    // white
}

// ColorFor returns the lighting color for an emotion label.
// Lookup is case-insensitive; unknown labels fall back to NeutralColor.
func ColorFor(label string) Color {
	if c, exists := emotionColors[normalizeLabel(label)]; exists {
		return c
	}
	return NeutralColor
}

// IsKnownEmotion reports whether the label has its own palette entry
func IsKnownEmotion(label string) bool {
	_, exists := emotionColors[normalizeLabel(label)]
	return exists
}

// Emotions returns the known emotion labels in palette order
func Emotions() []string {
	out := make([]string, len(emotionOrder))
	copy(out, emotionOrder)
	return out
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
