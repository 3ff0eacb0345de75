package redis

import "fmt"

// Key construction helpers for the mood lighting schema

// MoodStateKey returns the key for the live light state snapshot (hash)
// Pattern: mood:state:{location}
func MoodStateKey(location string) string {
	return fmt.Sprintf("mood:state:%s", location)
}

// MoodLogKey returns the key for the session log mirror (list, newest first)
// Pattern: mood:log:{location}
func MoodLogKey(location string) string {
	return fmt.Sprintf("mood:log:%s", location)
}
