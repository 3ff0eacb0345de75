package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/jeeves-moodlight/pkg/mqtt"
	"github.com/saaga0h/jeeves-moodlight/pkg/redis"
)

// StatusProvider reports agent specific status for the detailed health check
type StatusProvider interface {
	Status() map[string]interface{}
}

// Checker provides health check functionality for agents
type Checker struct {
	mqtt   mqtt.Client
	redis  redis.Client
	agent  StatusProvider
	logger *slog.Logger

	pingTimeout time.Duration
}

// NewChecker creates a new health checker with the given dependencies.
// agent may be nil.
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, agent StatusProvider, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:        mqttClient,
		redis:       redisClient,
		agent:       agent,
		logger:      logger,
		pingTimeout: 500 * time.Millisecond,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Services  *Services              `json:"services,omitempty"`
	Agent     map[string]interface{} `json:"agent,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis string `json:"redis"`
	MQTT  string `json:"mqtt"`
}

// HandlerFunc returns a liveness handler.
// Returns 200 if the process is alive without checking dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc returns a handler that checks all dependencies and
// includes the agent status
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{
			Redis: "disconnected",
			MQTT:  "disconnected",
		}

		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		}

		if h.redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
			if err := h.redis.Ping(ctx); err != nil {
				h.logger.Warn("Redis health ping failed", "error", err)
			} else {
				services.Redis = "connected"
			}
			cancel()
		}

		// Determine overall status
		status := "healthy"
		statusCode := http.StatusOK

		if services.Redis == "disconnected" || services.MQTT == "disconnected" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}
		if h.agent != nil {
			response.Agent = h.agent.Status()
		}

		h.write(w, statusCode, response)
	}
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
