package mood

import "time"

// DefaultLogCapacity bounds the session log
const DefaultLogCapacity = 500

// EventKind names a session log event
type EventKind string

const (
	EventLightsOn         EventKind = "lights_on"
	EventLightsOff        EventKind = "lights_off"
	EventEmotionChange    EventKind = "emotion_change"
	EventBrightnessChange EventKind = "brightness_change"
	EventCalibrationOn    EventKind = "calibration_on"
	EventCalibrationOff   EventKind = "calibration_off"
	EventReset            EventKind = "reset"
)

// LogEntry is one session log record. Emotion is empty and Color nil
// when the event carries none.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"event"`
	Emotion   string    `json:"emotion,omitempty"`
	Color     *Color    `json:"color,omitempty"`
}

// EventLog is an append-only ring of log entries; the oldest entry is
// dropped once capacity is reached.
type EventLog struct {
	entries  []LogEntry
	start    int
	capacity int
	dropped  int
}

// NewEventLog creates a log holding at most capacity entries
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &EventLog{
		entries:  make([]LogEntry, 0, min(capacity, 64)),
		capacity: capacity,
	}
}

// Append adds an entry, rotating out the oldest when full
func (l *EventLog) Append(entry LogEntry) {
	if entry.Color != nil {
		c := *entry.Color
		entry.Color = &c
	}

	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, entry)
		return
	}

	l.entries[l.start] = entry
	l.start = (l.start + 1) % l.capacity
	l.dropped++
}

// Entries returns a copy of the log, oldest first
func (l *EventLog) Entries() []LogEntry {
	out := make([]LogEntry, 0, len(l.entries))
	for i := 0; i < len(l.entries); i++ {
		entry := l.entries[(l.start+i)%len(l.entries)]
		if entry.Color != nil {
			c := *entry.Color
			entry.Color = &c
		}
		out = append(out, entry)
	}
	return out
}

// Len returns the number of entries held
func (l *EventLog) Len() int {
	return len(l.entries)
}

// Dropped returns how many entries were rotated out since the last Clear
func (l *EventLog) Dropped() int {
	return l.dropped
}

// Clear empties the log
func (l *EventLog) Clear() {
	l.entries = l.entries[:0]
	l.start = 0
	l.dropped = 0
}
