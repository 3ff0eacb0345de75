package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds the configuration for the J.E.E.V.E.S. mood lighting agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Mood agent configuration
	Location             string
	TickIntervalMs       int
	MinPublishIntervalMs int
	HistoryCapacity      int
	MoodWindow           int
	UseAveragedMood      bool
	TransitionRate       float64
	InitialBrightness    float64
	StartOn              bool
	LogCapacity          int
	CalibrationMinutes   int
	StateTTLMinutes      int

	// Daylight dimming configuration
	DaylightDimming bool
	Latitude        float64
	Longitude       float64
	NightBrightness float64
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:    "localhost",
		MQTTPort:      1883,
		MQTTUser:      "",
		MQTTPassword:  "",
		MQTTClientID:  "",
		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,
		ServiceName:   "moodlight-agent",
		HealthPort:    8080,
		LogLevel:      "info",
		// Mood agent defaults
		Location:             "living_room",
		TickIntervalMs:       100,
		MinPublishIntervalMs: 250,
		HistoryCapacity:      30,
		MoodWindow:           10,
		UseAveragedMood:      true,
		TransitionRate:       0.1,
		InitialBrightness:    0.7,
		StartOn:              false,
		LogCapacity:          500,
		CalibrationMinutes:   15,
		StateTTLMinutes:      60,
		// Daylight dimming defaults (Helsinki coordinates)
		DaylightDimming: false,
		Latitude:        60.1695,
		Longitude:       24.9354,
		NightBrightness: 0.4,
	}
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set are not overridden; a missing file is not an error.
func (c *Config) LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables with JEEVES_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	envString("JEEVES_MQTT_BROKER", &c.MQTTBroker)
	envInt("JEEVES_MQTT_PORT", &c.MQTTPort)
	envString("JEEVES_MQTT_USER", &c.MQTTUser)
	envString("JEEVES_MQTT_PASSWORD", &c.MQTTPassword)
	envString("JEEVES_MQTT_CLIENT_ID", &c.MQTTClientID)

	// Redis configuration
	envString("JEEVES_REDIS_HOST", &c.RedisHost)
	envInt("JEEVES_REDIS_PORT", &c.RedisPort)
	envString("JEEVES_REDIS_PASSWORD", &c.RedisPassword)
	envInt("JEEVES_REDIS_DB", &c.RedisDB)

	// Service configuration
	envString("JEEVES_SERVICE_NAME", &c.ServiceName)
	envInt("JEEVES_HEALTH_PORT", &c.HealthPort)
	envString("JEEVES_LOG_LEVEL", &c.LogLevel)

	// Mood agent configuration
	envString("JEEVES_LOCATION", &c.Location)
	envInt("JEEVES_TICK_INTERVAL_MS", &c.TickIntervalMs)
	envInt("JEEVES_MIN_PUBLISH_INTERVAL_MS", &c.MinPublishIntervalMs)
	envInt("JEEVES_HISTORY_CAPACITY", &c.HistoryCapacity)
	envInt("JEEVES_MOOD_WINDOW", &c.MoodWindow)
	envBool("JEEVES_USE_AVERAGED_MOOD", &c.UseAveragedMood)
	envFloat("JEEVES_TRANSITION_RATE", &c.TransitionRate)
	envFloat("JEEVES_INITIAL_BRIGHTNESS", &c.InitialBrightness)
	envBool("JEEVES_START_ON", &c.StartOn)
	envInt("JEEVES_LOG_CAPACITY", &c.LogCapacity)
	envInt("JEEVES_CALIBRATION_MINUTES", &c.CalibrationMinutes)
	envInt("JEEVES_STATE_TTL_MINUTES", &c.StateTTLMinutes)

	// Daylight dimming configuration
	envBool("JEEVES_DAYLIGHT_DIMMING", &c.DaylightDimming)
	envFloat("JEEVES_LATITUDE", &c.Latitude)
	envFloat("JEEVES_LONGITUDE", &c.Longitude)
	envFloat("JEEVES_NIGHT_BRIGHTNESS", &c.NightBrightness)
}

// RegisterFlags binds config fields to the flag set, using the current
// values as defaults
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	// MQTT flags
	flags.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	flags.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	flags.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	flags.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	flags.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	flags.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	flags.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	flags.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	flags.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Service flags
	flags.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	flags.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Mood agent flags
	flags.StringVar(&c.Location, "location", c.Location, "Location (room) this light belongs to")
	flags.IntVar(&c.TickIntervalMs, "tick-interval-ms", c.TickIntervalMs, "Fade loop interval in milliseconds")
	flags.IntVar(&c.MinPublishIntervalMs, "min-publish-interval-ms", c.MinPublishIntervalMs, "Minimum time between light commands (ms)")
	flags.IntVar(&c.HistoryCapacity, "history-capacity", c.HistoryCapacity, "Emotion observations kept for averaging")
	flags.IntVar(&c.MoodWindow, "mood-window", c.MoodWindow, "Observations averaged into the mood")
	flags.BoolVar(&c.UseAveragedMood, "use-averaged-mood", c.UseAveragedMood, "Drive color from the averaged mood instead of the latest emotion")
	flags.Float64Var(&c.TransitionRate, "transition-rate", c.TransitionRate, "Color fade rate")
	flags.Float64Var(&c.InitialBrightness, "brightness", c.InitialBrightness, "Initial brightness (0.0-1.0)")
	flags.BoolVar(&c.StartOn, "start-on", c.StartOn, "Turn the light on at startup")
	flags.IntVar(&c.LogCapacity, "log-capacity", c.LogCapacity, "Maximum session log entries")
	flags.IntVar(&c.CalibrationMinutes, "calibration-minutes", c.CalibrationMinutes, "Default calibration mode duration in minutes")
	flags.IntVar(&c.StateTTLMinutes, "state-ttl-minutes", c.StateTTLMinutes, "TTL of the Redis state snapshot in minutes")

	// Daylight dimming flags
	flags.BoolVar(&c.DaylightDimming, "daylight-dimming", c.DaylightDimming, "Cap brightness after sunset")
	flags.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for daylight calculation")
	flags.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for daylight calculation")
	flags.Float64Var(&c.NightBrightness, "night-brightness", c.NightBrightness, "Brightness ceiling while the sun is down (0.0-1.0)")
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.Location == "" {
		return fmt.Errorf("location is required")
	}
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.MinPublishIntervalMs < 0 {
		return fmt.Errorf("minimum publish interval cannot be negative")
	}
	if c.MoodWindow <= 0 {
		return fmt.Errorf("mood window must be positive")
	}
	if c.HistoryCapacity < c.MoodWindow {
		return fmt.Errorf("history capacity (%d) must be at least the mood window (%d)", c.HistoryCapacity, c.MoodWindow)
	}
	if c.TransitionRate <= 0 {
		return fmt.Errorf("transition rate must be positive")
	}
	if c.LogCapacity <= 0 {
		return fmt.Errorf("log capacity must be positive")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
