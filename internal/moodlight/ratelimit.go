package moodlight

import (
	"sync"
	"time"
)

// Publish channels limited independently
const (
	channelLightCommand = "light_command"
	channelState        = "state"
)

// RateLimiter spaces out publishes per channel
type RateLimiter struct {
	mu             sync.RWMutex
	lastPublishMap map[string]time.Time
	now            func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		lastPublishMap: make(map[string]time.Time),
		now:            now,
	}
}

// ShouldPublish checks if enough time has passed since the last publish on
// channel and records the publish if so
func (rl *RateLimiter) ShouldPublish(channel string, minIntervalMs int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	lastTime, exists := rl.lastPublishMap[channel]
	if exists && now.Sub(lastTime) < time.Duration(minIntervalMs)*time.Millisecond {
		return false
	}

	rl.lastPublishMap[channel] = now
	return true
}

// RecordPublish records a publish that bypassed the limiter (forced updates)
func (rl *RateLimiter) RecordPublish(channel string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lastPublishMap[channel] = rl.now()
}

// LastPublish returns the last publish time on channel
func (rl *RateLimiter) LastPublish(channel string) (time.Time, bool) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	lastTime, exists := rl.lastPublishMap[channel]
	return lastTime, exists
}
