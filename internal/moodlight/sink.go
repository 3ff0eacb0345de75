package moodlight

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/saaga0h/jeeves-moodlight/internal/mood"
	"github.com/saaga0h/jeeves-moodlight/pkg/redis"
)

// StateSink mirrors the engine state and session log into Redis so other
// services (and a restarted agent's operators) can inspect them
type StateSink struct {
	redis       redis.Client
	location    string
	ttl         time.Duration
	logCapacity int
}

// NewStateSink creates a sink for one location
func NewStateSink(client redis.Client, location string, ttl time.Duration, logCapacity int) *StateSink {
	return &StateSink{
		redis:       client,
		location:    location,
		ttl:         ttl,
		logCapacity: logCapacity,
	}
}

// StateRecord is what gets written to the state hash
type StateRecord struct {
	Snapshot    mood.Snapshot
	Emotion     string
	Mood        string
	Calibrating bool
	SessionID   string
	UpdatedAt   time.Time
}

// WriteState stores the current state under mood:state:{location}
func (s *StateSink) WriteState(ctx context.Context, rec StateRecord) error {
	key := redis.MoodStateKey(s.location)

	fields := map[string]interface{}{
		"on":          strconv.FormatBool(rec.Snapshot.On),
		"brightness":  strconv.FormatFloat(rec.Snapshot.Brightness, 'f', 3, 64),
		"current":     rec.Snapshot.Current.Hex(),
		"target":      rec.Snapshot.Target.Hex(),
		"output":      rec.Snapshot.Output.Hex(),
		"converged":   strconv.FormatBool(rec.Snapshot.Converged),
		"emotion":     rec.Emotion,
		"mood":        rec.Mood,
		"calibrating": strconv.FormatBool(rec.Calibrating),
		"session_id":  rec.SessionID,
		"updated_at":  rec.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if err := s.redis.HSet(ctx, key, fields); err != nil {
		return err
	}

	if s.ttl > 0 {
		if err := s.redis.Expire(ctx, key, s.ttl); err != nil {
			return err
		}
	}

	return nil
}

// AppendLog pushes entries (oldest first) onto mood:log:{location},
// newest at the head, keeping at most logCapacity entries
func (s *StateSink) AppendLog(ctx context.Context, entries []mood.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	key := redis.MoodLogKey(s.location)

	values := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal log entry: %w", err)
		}
		values = append(values, string(data))
	}

	if err := s.redis.LPush(ctx, key, values...); err != nil {
		return err
	}

	if s.logCapacity > 0 {
		if err := s.redis.LTrim(ctx, key, 0, int64(s.logCapacity-1)); err != nil {
			return err
		}
	}

	return nil
}

// ReadLog returns the mirrored log, oldest first
func (s *StateSink) ReadLog(ctx context.Context) ([]mood.LogEntry, error) {
	raw, err := s.redis.LRange(ctx, redis.MoodLogKey(s.location), 0, -1)
	if err != nil {
		return nil, err
	}

	entries := make([]mood.LogEntry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry mood.LogEntry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			return nil, fmt.Errorf("failed to parse log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ClearLog removes the mirrored log
func (s *StateSink) ClearLog(ctx context.Context) error {
	return s.redis.Del(ctx, redis.MoodLogKey(s.location))
}
