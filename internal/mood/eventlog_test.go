package mood

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogRing(t *testing.T) {
	log := NewEventLog(2)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	log.Append(LogEntry{Timestamp: at, Kind: EventLightsOn})
	log.Append(LogEntry{Timestamp: at, Kind: EventEmotionChange, Emotion: "sad"})
	log.Append(LogEntry{Timestamp: at, Kind: EventLightsOff})

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, EventEmotionChange, entries[0].Kind)
	assert.Equal(t, EventLightsOff, entries[1].Kind)
	assert.Equal(t, 1, log.Dropped())

	log.Clear()
	assert.Equal(t, 0, log.Len())
	assert.Equal(t, 0, log.Dropped())
}

func TestEventLogCopiesColor(t *testing.T) {
	log := NewEventLog(0)
	c := Color{R: 1, G: 2, B: 3}

	log.Append(LogEntry{Kind: EventEmotionChange, Color: &c})
	c.R = 99

	entries := log.Entries()
	require.NotNil(t, entries[0].Color)
	assert.Equal(t, uint8(1), entries[0].Color.R)

	entries[0].Color.G = 99
	assert.Equal(t, uint8(2), log.Entries()[0].Color.G)
}
