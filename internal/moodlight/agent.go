package moodlight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saaga0h/jeeves-moodlight/internal/mood"
	"github.com/saaga0h/jeeves-moodlight/pkg/config"
	"github.com/saaga0h/jeeves-moodlight/pkg/mqtt"
	"github.com/saaga0h/jeeves-moodlight/pkg/redis"
)

const stateRefreshIntervalMs = 30000

// Agent drives one mood light from classifier results and control commands
type Agent struct {
	mqtt    mqtt.Client
	redis   redis.Client
	cfg     *config.Config
	logger  *slog.Logger
	metrics *Metrics

	controller  *Controller
	sink        *StateSink
	rateLimiter *RateLimiter
	sessionID   string
	now         func() time.Time

	// Serializes ticks; guards the last published output
	tickMux       sync.Mutex
	lastPublished mood.Color
	lastOn        bool
	published     bool

	// Periodic tick loop
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewAgent creates a new mood light agent.
// Metrics are registered on reg when it is non-nil.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) *Agent {
	return newAgent(mqttClient, redisClient, cfg, logger, reg, time.Now)
}

func newAgent(mqttClient mqtt.Client, redisClient redis.Client, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer, now func() time.Time) *Agent {
	controller := NewController(ControllerConfig{
		HistoryCapacity:    cfg.HistoryCapacity,
		MoodWindow:         cfg.MoodWindow,
		UseAveragedMood:    cfg.UseAveragedMood,
		TransitionRate:     cfg.TransitionRate,
		Brightness:         cfg.InitialBrightness,
		StartOn:            cfg.StartOn,
		LogCapacity:        cfg.LogCapacity,
		CalibrationMinutes: cfg.CalibrationMinutes,
		Now:                now,
	})

	ttl := time.Duration(cfg.StateTTLMinutes) * time.Minute

	return &Agent{
		mqtt:        mqttClient,
		redis:       redisClient,
		cfg:         cfg,
		logger:      logger,
		metrics:     NewMetrics(reg),
		controller:  controller,
		sink:        NewStateSink(redisClient, cfg.Location, ttl, cfg.LogCapacity),
		rateLimiter: NewRateLimiter(now),
		sessionID:   uuid.New().String(),
		now:         now,
		stopChan:    make(chan struct{}),
	}
}

// Start starts the mood light agent and blocks until ctx is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting mood light agent",
		"service_name", a.cfg.ServiceName,
		"location", a.cfg.Location,
		"session_id", a.sessionID,
		"tick_interval_ms", a.cfg.TickIntervalMs,
		"mood_window", a.cfg.MoodWindow,
		"daylight_dimming", a.cfg.DaylightDimming)

	// Connect to MQTT broker
	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// Verify Redis connection
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	emotionTopic := mqtt.RawEmotionTopic(a.cfg.Location)
	if err := a.mqtt.Subscribe(emotionTopic, 0, a.handleEmotionMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", emotionTopic, err)
	}
	a.logger.Info("Subscribed to classifier results", "topic", emotionTopic)

	commandTopic := mqtt.MoodCommandTopic(a.cfg.Location)
	if err := a.mqtt.Subscribe(commandTopic, 1, a.handleCommandMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", commandTopic, err)
	}
	a.logger.Info("Subscribed to mood commands", "topic", commandTopic)

	// Announce the initial state
	a.performTick(ctx, true)

	a.startTickLoop()

	a.logger.Info("Mood light agent started and ready")

	<-ctx.Done()
	a.logger.Info("Mood light agent stopping")

	return nil
}

// Stop gracefully stops the agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping mood light agent")

	if a.ticker != nil {
		a.ticker.Stop()
	}
	a.stopOnce.Do(func() { close(a.stopChan) })

	a.mqtt.Disconnect()

	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("Mood light agent stopped")
	return nil
}

func (a *Agent) startTickLoop() {
	interval := time.Duration(a.cfg.TickIntervalMs) * time.Millisecond
	a.ticker = time.NewTicker(interval)

	go func() {
		a.logger.Info("Starting transition loop", "interval_ms", a.cfg.TickIntervalMs)
		ctx := context.Background()
		for {
			select {
			case <-a.ticker.C:
				a.performTick(ctx, false)
			case <-a.stopChan:
				return
			}
		}
	}()
}

// performTick advances the fade and publishes the output when it changed.
// force bypasses both the change check and the rate limit.
func (a *Agent) performTick(ctx context.Context, force bool) {
	a.tickMux.Lock()
	defer a.tickMux.Unlock()

	if a.cfg.DaylightDimming {
		a.controller.SetCeiling(DaylightCeiling(a.cfg.Latitude, a.cfg.Longitude, a.now(), a.cfg.NightBrightness))
	}

	snap := a.controller.Tick()
	a.metrics.ticks.Inc()
	a.metrics.observeOutput(snap.Output, snap.Brightness)

	a.flushLog(ctx)

	changed := !a.published || snap.Output != a.lastPublished || snap.On != a.lastOn

	if !changed && !force {
		// Keep the state hash alive while the light holds steady
		if a.rateLimiter.ShouldPublish(channelState, stateRefreshIntervalMs) {
			a.writeState(ctx, snap)
		}
		return
	}

	if force {
		a.rateLimiter.RecordPublish(channelLightCommand)
	} else if !a.rateLimiter.ShouldPublish(channelLightCommand, a.cfg.MinPublishIntervalMs) {
		a.logger.Debug("Rate limited, deferring light command",
			"location", a.cfg.Location,
			"min_interval_ms", a.cfg.MinPublishIntervalMs)
		return
	}

	if err := a.publishLightCommand(snap); err != nil {
		a.logger.Error("Failed to publish light command",
			"location", a.cfg.Location,
			"error", err)
		return
	}

	a.lastPublished = snap.Output
	a.lastOn = snap.On
	a.published = true

	if err := a.publishContext(snap); err != nil {
		a.logger.Error("Failed to publish mood context",
			"location", a.cfg.Location,
			"error", err)
	}

	a.rateLimiter.RecordPublish(channelState)
	a.writeState(ctx, snap)
}

// handleEmotionMessage handles classifier results
func (a *Agent) handleEmotionMessage(msg mqtt.Message) {
	location, err := mqtt.LocationFromTopic(msg.Topic())
	if err != nil {
		a.logger.Warn("Invalid emotion topic format", "topic", msg.Topic())
		return
	}

	reading, ok, err := ParseClassifierMessage(msg.Payload(), a.now())
	if err != nil {
		a.logger.Error("Failed to parse classifier message",
			"location", location,
			"error", err)
		return
	}

	if !ok {
		a.metrics.noFace.Inc()
		a.logger.Debug("No face detected, ignoring", "location", location)
		return
	}

	label := reading.Label
	if !mood.IsKnownEmotion(label) {
		label = "unknown"
	}
	a.metrics.observations.WithLabelValues(label).Inc()

	if changed := a.controller.Observe(reading); changed {
		a.logger.Info("Emotion changed",
			"location", location,
			"emotion", reading.Label,
			"mood", a.controller.Mood(),
			"color", mood.ColorFor(reading.Label).Hex())
	} else {
		a.logger.Debug("Received classifier result",
			"location", location,
			"emotion", reading.Label)
	}
}

// handleCommandMessage handles mood control commands
func (a *Agent) handleCommandMessage(msg mqtt.Message) {
	location, err := mqtt.LocationFromTopic(msg.Topic())
	if err != nil {
		a.logger.Warn("Invalid command topic format", "topic", msg.Topic())
		return
	}

	cmd, err := ParseCommand(msg.Payload())
	if err != nil {
		a.logger.Error("Failed to parse mood command",
			"location", location,
			"error", err)
		return
	}

	if err := a.controller.Apply(cmd); err != nil {
		a.logger.Error("Failed to apply mood command",
			"location", location,
			"command", cmd.Name,
			"error", err)
		return
	}

	a.metrics.commands.WithLabelValues(cmd.Name).Inc()
	a.logger.Info("Applied mood command",
		"location", location,
		"command", cmd.Name,
		"value", string(cmd.Value))

	// Power and color commands show immediately
	a.performTick(context.Background(), true)
}

// publishLightCommand publishes the fixture command
func (a *Agent) publishLightCommand(snap mood.Snapshot) error {
	action := "off"
	if snap.On {
		action = "on"
	}

	commandMsg := map[string]interface{}{
		"action":     action,
		"rgb":        snap.Output.Slice(),
		"hex":        snap.Output.Hex(),
		"brightness": int(snap.Brightness * 100),
		"mood":       a.controller.Mood(),
		"source":     a.cfg.ServiceName,
		"timestamp":  a.now().UTC().Format(time.RFC3339),
	}

	commandTopic := mqtt.LightCommandTopic(a.cfg.Location)
	commandPayload, err := json.Marshal(commandMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal command message: %w", err)
	}

	if err := a.mqtt.Publish(commandTopic, 0, false, commandPayload); err != nil {
		return fmt.Errorf("failed to publish command to %s: %w", commandTopic, err)
	}

	a.metrics.publishes.WithLabelValues("light_command").Inc()
	a.logger.Debug("Published light command", "topic", commandTopic, "hex", snap.Output.Hex())

	return nil
}

// publishContext publishes the retained mood context for other agents
func (a *Agent) publishContext(snap mood.Snapshot) error {
	state := "off"
	if snap.On {
		state = "on"
	}

	contextMsg := map[string]interface{}{
		"source":      a.cfg.ServiceName,
		"type":        "mood",
		"location":    a.cfg.Location,
		"state":       state,
		"emotion":     a.controller.LastEmotion(),
		"mood":        a.controller.Mood(),
		"calibrating": a.controller.Calibrating(),
		"current":     snap.Current.Hex(),
		"target":      snap.Target.Hex(),
		"output":      snap.Output.Hex(),
		"brightness":  snap.Brightness,
		"converged":   snap.Converged,
		"session_id":  a.sessionID,
		"timestamp":   a.now().UTC().Format(time.RFC3339),
	}

	contextTopic := mqtt.MoodContextTopic(a.cfg.Location)
	contextPayload, err := json.Marshal(contextMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal context message: %w", err)
	}

	if err := a.mqtt.Publish(contextTopic, 0, true, contextPayload); err != nil {
		return fmt.Errorf("failed to publish context to %s: %w", contextTopic, err)
	}

	a.metrics.publishes.WithLabelValues("context").Inc()
	a.logger.Debug("Published mood context", "topic", contextTopic)

	return nil
}

func (a *Agent) writeState(ctx context.Context, snap mood.Snapshot) {
	rec := StateRecord{
		Snapshot:    snap,
		Emotion:     a.controller.LastEmotion(),
		Mood:        a.controller.Mood(),
		Calibrating: a.controller.Calibrating(),
		SessionID:   a.sessionID,
		UpdatedAt:   a.now(),
	}

	if err := a.sink.WriteState(ctx, rec); err != nil {
		a.logger.Error("Failed to store mood state",
			"location", a.cfg.Location,
			"error", err)
	}
}

// flushLog mirrors new session log entries into Redis
func (a *Agent) flushLog(ctx context.Context) {
	entries, cleared := a.controller.DrainLog()

	if cleared {
		if err := a.sink.ClearLog(ctx); err != nil {
			a.logger.Error("Failed to clear mirrored log", "location", a.cfg.Location, "error", err)
		}
	}

	if err := a.sink.AppendLog(ctx, entries); err != nil {
		a.logger.Error("Failed to mirror session log",
			"location", a.cfg.Location,
			"entries", len(entries),
			"error", err)
	}
}

// Controller exposes the engine controller
func (a *Agent) Controller() *Controller {
	return a.controller
}

// SessionID identifies this agent run
func (a *Agent) SessionID() string {
	return a.sessionID
}

// Status reports agent state for the detailed health check
func (a *Agent) Status() map[string]interface{} {
	status := a.controller.Status()
	status["location"] = a.cfg.Location
	status["session_id"] = a.sessionID

	if last, ok := a.rateLimiter.LastPublish(channelLightCommand); ok {
		status["last_publish"] = last.UTC().Format(time.RFC3339)
	}

	return status
}
