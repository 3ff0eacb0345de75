package moodlight

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-moodlight/internal/mood"
	"github.com/saaga0h/jeeves-moodlight/pkg/config"
	"github.com/saaga0h/jeeves-moodlight/pkg/mqtt"
	"github.com/saaga0h/jeeves-moodlight/pkg/redis"
)

type agentFixture struct {
	agent *Agent
	mqtt  *fakeMQTT
	redis redis.Client
	clock *testClock
}

func newAgentFixture(t *testing.T, mutate ...func(*config.Config)) *agentFixture {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Location = "study"
	cfg.StartOn = true
	cfg.InitialBrightness = 1.0
	for _, m := range mutate {
		m(cfg)
	}

	clock := newTestClock()
	mq := newFakeMQTT()
	rc, _ := newTestRedis(t)

	agent := newAgent(mq, rc, cfg, discardLogger(), prometheus.NewRegistry(), clock.Now)
	return &agentFixture{agent: agent, mqtt: mq, redis: rc, clock: clock}
}

func (f *agentFixture) emotion(payload string) {
	f.agent.handleEmotionMessage(testMessage{topic: mqtt.RawEmotionTopic("study"), payload: []byte(payload)})
}

func (f *agentFixture) command(payload string) {
	f.agent.handleCommandMessage(testMessage{topic: mqtt.MoodCommandTopic("study"), payload: []byte(payload)})
}

func decodeLightCommand(t *testing.T, msg published) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Payload, &out))
	return out
}

func TestAgentStartSubscribesAndAnnounces(t *testing.T) {
	f := newAgentFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.agent.Start(ctx) }()

	contextTopic := mqtt.MoodContextTopic("study")
	require.Eventually(t, func() bool {
		return len(f.mqtt.on(contextTopic)) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, f.agent.Stop())
	assert.False(t, f.mqtt.IsConnected())

	f.mqtt.mu.Lock()
	assert.Contains(t, f.mqtt.subscriptions, mqtt.RawEmotionTopic("study"))
	assert.Contains(t, f.mqtt.subscriptions, mqtt.MoodCommandTopic("study"))
	f.mqtt.mu.Unlock()

	commands := f.mqtt.on(mqtt.LightCommandTopic("study"))
	require.Len(t, commands, 1)
	cmd := decodeLightCommand(t, commands[0])
	assert.Equal(t, "on", cmd["action"])
	assert.Equal(t, mood.NeutralColor.Hex(), cmd["hex"])

	contexts := f.mqtt.on(contextTopic)
	require.Len(t, contexts, 1)
	assert.True(t, contexts[0].Retained)
}

func TestAgentEmotionDrivesLight(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()

	f.agent.performTick(ctx, true)
	f.emotion(`{"dominant_emotion":"happy","scores":{"happy":100},"face_detected":true}`)

	f.clock.Advance(time.Second)
	f.agent.performTick(ctx, false)

	commands := f.mqtt.on(mqtt.LightCommandTopic("study"))
	require.Len(t, commands, 2)
	last := decodeLightCommand(t, commands[1])
	assert.Equal(t, "#ffc800", last["hex"])
	assert.Equal(t, []interface{}{255.0, 200.0, 0.0}, last["rgb"])
	assert.Equal(t, "happy", last["mood"])
	assert.Equal(t, 100.0, last["brightness"])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.agent.metrics.observations.WithLabelValues("happy")))
}

func TestAgentNoFaceIgnored(t *testing.T) {
	f := newAgentFixture(t)

	f.emotion(`{"dominant_emotion":"none","scores":{},"face_detected":false}`)

	assert.Equal(t, "", f.agent.Controller().LastEmotion())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.agent.metrics.noFace))
}

func TestAgentUnchangedOutputNotRepublished(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()

	f.agent.performTick(ctx, true)
	for i := 0; i < 5; i++ {
		f.clock.Advance(time.Second)
		f.agent.performTick(ctx, false)
	}

	assert.Len(t, f.mqtt.on(mqtt.LightCommandTopic("study")), 1)
}

func TestAgentRateLimitsFade(t *testing.T) {
	f := newAgentFixture(t, func(cfg *config.Config) {
		cfg.MinPublishIntervalMs = 250
		cfg.TransitionRate = 0.01
	})
	ctx := context.Background()

	f.agent.performTick(ctx, true)
	f.emotion(`{"dominant_emotion":"sad","scores":{"sad":100},"face_detected":true}`)

	// Ten 100ms ticks of a slow fade: the output changes on every tick
	for i := 0; i < 10; i++ {
		f.clock.Advance(100 * time.Millisecond)
		f.agent.performTick(ctx, false)
	}

	// Initial announce plus one publish per 250ms window (t=0.3s, 0.6s, 0.9s)
	commands := f.mqtt.on(mqtt.LightCommandTopic("study"))
	assert.Len(t, commands, 4)
}

func TestAgentCommandAppliedAndPublished(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()

	f.agent.performTick(ctx, true)
	f.command(`{"command":"set_color","value":[10,20,30]}`)

	commands := f.mqtt.on(mqtt.LightCommandTopic("study"))
	require.Len(t, commands, 2)
	assert.Equal(t, "#0a141e", decodeLightCommand(t, commands[1])["hex"])

	f.command(`{"command":"off"}`)
	commands = f.mqtt.on(mqtt.LightCommandTopic("study"))
	require.Len(t, commands, 3)
	last := decodeLightCommand(t, commands[2])
	assert.Equal(t, "off", last["action"])
	assert.Equal(t, "#000000", last["hex"])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.agent.metrics.commands.WithLabelValues(CommandOff)))
}

func TestAgentInvalidCommandIgnored(t *testing.T) {
	f := newAgentFixture(t)

	f.command(`{"command":"strobe"}`)
	f.command(`{"command":"brightness","value":"loud"}`)

	assert.Empty(t, f.mqtt.on(mqtt.LightCommandTopic("study")))
}

func TestAgentWritesStateToRedis(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()

	f.emotion(`{"dominant_emotion":"angry","scores":{"angry":100},"face_detected":true}`)
	f.agent.performTick(ctx, true)

	state, err := f.redis.HGetAll(ctx, redis.MoodStateKey("study"))
	require.NoError(t, err)
	assert.Equal(t, "true", state["on"])
	assert.Equal(t, "angry", state["emotion"])
	assert.Equal(t, "angry", state["mood"])
	assert.Equal(t, mood.ColorFor("angry").Hex(), state["target"])
	assert.Equal(t, f.agent.SessionID(), state["session_id"])
}

func TestAgentMirrorsLog(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()

	f.emotion(`{"dominant_emotion":"happy","face_detected":true}`)
	f.agent.performTick(ctx, false)

	entries, err := f.agent.sink.ReadLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, mood.EventLightsOn, entries[0].Kind)
	assert.Equal(t, mood.EventEmotionChange, entries[1].Kind)

	f.command(`{"command":"clear_log"}`)

	entries, err = f.agent.sink.ReadLog(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAgentStatus(t *testing.T) {
	f := newAgentFixture(t)

	status := f.agent.Status()
	assert.Equal(t, "study", status["location"])
	assert.Equal(t, f.agent.SessionID(), status["session_id"])
	assert.Equal(t, true, status["on"])
}
