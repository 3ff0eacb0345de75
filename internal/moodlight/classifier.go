package moodlight

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-moodlight/internal/mood"
)

// ClassifierMessage is the payload published by the emotion classifier
type ClassifierMessage struct {
	DominantEmotion string             `json:"dominant_emotion"`
	Emotion         string             `json:"emotion"`
	Scores          map[string]float64 `json:"scores"`
	FaceDetected    bool               `json:"face_detected"`
	Timestamp       string             `json:"timestamp,omitempty"`
}

// Reading is a classifier result in which a face was found
type Reading struct {
	Label      string
	Scores     map[string]float64
	ObservedAt time.Time
}

// ParseClassifierMessage decodes a classifier payload.
// ok is false when no face was detected; the reading must then not be fed
// to the engine.
func ParseClassifierMessage(payload []byte, now time.Time) (Reading, bool, error) {
	var msg ClassifierMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Reading{}, false, fmt.Errorf("failed to parse classifier message: %w", err)
	}

	if !msg.FaceDetected {
		return Reading{}, false, nil
	}

	scores := sanitizeScores(msg.Scores)

	observedAt := now
	if msg.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, msg.Timestamp); err == nil {
			observedAt = ts
		}
	}

	return NewReading(dominantLabel(msg, scores), scores, observedAt), true, nil
}

// NewReading builds a face-detected reading the way a classifier message
// would produce it: labels lower-cased, scores clamped into [0,100].
func NewReading(label string, scores map[string]float64, at time.Time) Reading {
	label = strings.ToLower(strings.TrimSpace(label))
	clean := sanitizeScores(scores)

	// A bare verdict counts as full confidence in it
	if len(clean) == 0 {
		clean[label] = 100
	}

	return Reading{
		Label:      label,
		Scores:     clean,
		ObservedAt: at,
	}
}

// sanitizeScores lower-cases labels and clamps probabilities into [0,100]
func sanitizeScores(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for label, score := range in {
		key := strings.ToLower(strings.TrimSpace(label))
		if key == "" || math.IsNaN(score) {
			continue
		}
		out[key] = math.Max(0, math.Min(100, score))
	}
	return out
}

// dominantLabel prefers the classifier's own verdict, then the highest score,
// then neutral
func dominantLabel(msg ClassifierMessage, scores map[string]float64) string {
	for _, label := range []string{msg.DominantEmotion, msg.Emotion} {
		label = strings.ToLower(strings.TrimSpace(label))
		if label != "" && label != "none" {
			return label
		}
	}

	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := mood.EmotionNeutral
	bestScore := -1.0
	for _, k := range keys {
		if scores[k] > bestScore {
			best = k
			bestScore = scores[k]
		}
	}
	return best
}
