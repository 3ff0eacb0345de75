package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saaga0h/jeeves-moodlight/pkg/mqtt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMQTT struct {
	connected bool
}

func (f *fakeMQTT) Connect(ctx context.Context) error {
	return nil
}

func (f *fakeMQTT) Disconnect() {}

func (f *fakeMQTT) IsConnected() bool {
	return f.connected
}

func (f *fakeMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	return nil
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	return nil
}

type fakeRedis struct {
	pingErr error
}

func (f *fakeRedis) HSet(ctx context.Context, key string, fields map[string]interface{}) error {
	return nil
}

func (f *fakeRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return nil, nil
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) error {
	return nil
}

func (f *fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) error {
	return nil
}

func (f *fakeRedis) LLen(ctx context.Context, key string) (int64, error) {
	return 0, nil
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return nil, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	return nil
}

func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (f *fakeRedis) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeRedis) Close() error {
	return nil
}

type staticStatus map[string]interface{}

func (s staticStatus) Status() map[string]interface{} { return s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandlerFunc(t *testing.T) {
	checker := NewChecker(&fakeMQTT{}, &fakeRedis{pingErr: errors.New("down")}, nil, discardLogger())

	rec := httptest.NewRecorder()
	checker.HandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decode(t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Services)
}

func TestDetailedHandlerFuncHealthy(t *testing.T) {
	status := staticStatus{"location": "study", "on": true}
	checker := NewChecker(&fakeMQTT{connected: true}, &fakeRedis{}, status, discardLogger())

	rec := httptest.NewRecorder()
	checker.DetailedHandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "healthy", resp.Status)
	require.NotNil(t, resp.Services)
	assert.Equal(t, "connected", resp.Services.MQTT)
	assert.Equal(t, "connected", resp.Services.Redis)
	assert.Equal(t, "study", resp.Agent["location"])
}

func TestDetailedHandlerFuncDegraded(t *testing.T) {
	tests := []struct {
		name  string
		mqtt  *fakeMQTT
		redis *fakeRedis
	}{
		{"mqtt down", &fakeMQTT{connected: false}, &fakeRedis{}},
		{"redis down", &fakeMQTT{connected: true}, &fakeRedis{pingErr: errors.New("refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(tt.mqtt, tt.redis, nil, discardLogger())

			rec := httptest.NewRecorder()
			checker.DetailedHandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "degraded", decode(t, rec).Status)
		})
	}
}
