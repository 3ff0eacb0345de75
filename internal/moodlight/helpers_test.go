package moodlight

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-moodlight/pkg/mqtt"
	"github.com/saaga0h/jeeves-moodlight/pkg/redis"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type published struct {
	Topic    string
	Retained bool
	Payload  []byte
}

type fakeMQTT struct {
	mu            sync.Mutex
	connected     bool
	subscriptions map[string]mqtt.MessageHandler
	messages      []published
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{subscriptions: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeMQTT) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeMQTT) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeMQTT) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions[topic] = handler
	return nil
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{Topic: topic, Retained: retained, Payload: payload})
	return nil
}

// on returns the messages published to topic
func (f *fakeMQTT) on(topic string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []published
	for _, m := range f.messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

type testMessage struct {
	topic   string
	payload []byte
}

func (m testMessage) Topic() string   { return m.topic }
func (m testMessage) Payload() []byte { return m.payload }
func (m testMessage) Ack()            {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRedis(t *testing.T) (redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}), discardLogger())
	return client, mr
}
