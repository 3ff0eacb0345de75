package mqtt

import (
	"fmt"
	"strings"
)

// Topic patterns used by the mood lighting agent
const (
	// Classifier output (input)
	TopicRawEmotion = "automation/raw/emotion/+"

	// Mood control commands (input)
	TopicMoodCommand = "automation/command/mood/+"

	// Light actuator commands (output)
	TopicLightCommand = "automation/command/light/+"

	// Mood context (output)
	TopicMoodContext = "automation/context/mood/+"
)

// RawEmotionTopic is where the classifier publishes results for a location
// Pattern: automation/raw/emotion/{location}
func RawEmotionTopic(location string) string {
	return fmt.Sprintf("automation/raw/emotion/%s", location)
}

// MoodCommandTopic carries on/off/brightness/calibration commands
// Pattern: automation/command/mood/{location}
func MoodCommandTopic(location string) string {
	return fmt.Sprintf("automation/command/mood/%s", location)
}

// LightCommandTopic is consumed by the fixture driver
// Pattern: automation/command/light/{location}
func LightCommandTopic(location string) string {
	return fmt.Sprintf("automation/command/light/%s", location)
}

// MoodContextTopic carries the mood state for other agents
// Pattern: automation/context/mood/{location}
func MoodContextTopic(location string) string {
	return fmt.Sprintf("automation/context/mood/%s", location)
}

// ServiceStatusTopic carries the retained online/offline marker of a service
// Pattern: automation/status/{service}
func ServiceStatusTopic(service string) string {
	return fmt.Sprintf("automation/status/%s", service)
}

// LocationFromTopic returns the last segment of a four part
// automation/{kind}/{type}/{location} topic
func LocationFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[3] == "" {
		return "", fmt.Errorf("invalid topic format: %s (expected automation/{kind}/{type}/{location})", topic)
	}
	return parts[3], nil
}
