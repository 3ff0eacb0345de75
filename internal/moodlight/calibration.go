package moodlight

import (
	"sync"
	"time"
)

// CalibrationManager tracks the calibration window during which emotion
// results no longer retarget the light, so colors can be set by hand.
type CalibrationManager struct {
	mu        sync.RWMutex
	expiresAt time.Time
	active    bool
	now       func() time.Time
}

// NewCalibrationManager creates a calibration manager
func NewCalibrationManager(now func() time.Time) *CalibrationManager {
	if now == nil {
		now = time.Now
	}
	return &CalibrationManager{now: now}
}

// Start begins (or extends) calibration for the given number of minutes
func (cm *CalibrationManager) Start(durationMinutes int) time.Time {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.expiresAt = cm.now().Add(time.Duration(durationMinutes) * time.Minute)
	cm.active = true

	return cm.expiresAt
}

// Active reports whether calibration is on.
// An expired window is cleared on the first check after expiry.
func (cm *CalibrationManager) Active() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return false
	}

	if cm.now().After(cm.expiresAt) {
		cm.active = false
		return false
	}

	return true
}

// End stops calibration; returns false if it was not active
func (cm *CalibrationManager) End() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	wasActive := cm.active && !cm.now().After(cm.expiresAt)
	cm.active = false
	return wasActive
}

// ExpiresAt returns when the current calibration window ends
func (cm *CalibrationManager) ExpiresAt() (time.Time, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return cm.expiresAt, cm.active
}
