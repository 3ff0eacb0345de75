package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}), logger)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestClientHashRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.HSet(ctx, MoodStateKey("study"), map[string]interface{}{
		"on":  "true",
		"hex": "#ffc800",
	}))

	fields, err := client.HGetAll(ctx, MoodStateKey("study"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"on": "true", "hex": "#ffc800"}, fields)
}

func TestClientListTrim(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	key := MoodLogKey("study")

	for _, v := range []string{"a", "b", "c", "d"} {
		require.NoError(t, client.LPush(ctx, key, v))
	}
	require.NoError(t, client.LTrim(ctx, key, 0, 2))

	length, err := client.LLen(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)

	vals, err := client.LRange(ctx, key, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, vals)

	require.NoError(t, client.Del(ctx, key))
	length, err = client.LLen(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestClientExpire(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	key := MoodStateKey("bedroom")

	require.NoError(t, client.HSet(ctx, key, map[string]interface{}{"on": "false"}))
	require.NoError(t, client.Expire(ctx, key, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestClientPingFailure(t *testing.T) {
	client, mr := newTestClient(t)
	mr.Close()

	assert.Error(t, client.Ping(context.Background()))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "mood:state:study", MoodStateKey("study"))
	assert.Equal(t, "mood:log:study", MoodLogKey("study"))
}
