package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oss-callback/internal/common/logging"
	"oss-callback/internal/redis"
)

func newDistributed(t *testing.T, limit int) (Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	limiter, err := New(Config{
		Enabled: true,
		Limit:   limit,
		Window:  time.Minute,
		Type:    BackendDistributed,
	}, client, logging.NewNopLogger())
	require.NoError(t, err)
	return limiter, mr
}

func TestDistributedLimiter(t *testing.T) {
	limiter, mr := newDistributed(t, 2)
	ctx := context.Background()

	assert.True(t, limiter.TryAcquireForKey(ctx, "10.0.0.1"))
	assert.True(t, limiter.TryAcquireForKey(ctx, "10.0.0.1"))
	assert.False(t, limiter.TryAcquireForKey(ctx, "10.0.0.1"))
	assert.True(t, limiter.TryAcquireForKey(ctx, "10.0.0.2"))

	assert.True(t, mr.Exists("ratelimit:10.0.0.1"))
	assert.NoError(t, limiter.Health())
	assert.Equal(t, "distributed", limiter.Stats()["type"])
}

func TestDistributedLimiter_FailsOpen(t *testing.T) {
	limiter, mr := newDistributed(t, 1)
	mr.Close()

	assert.True(t, limiter.TryAcquireForKey(context.Background(), "10.0.0.1"))
	assert.True(t, limiter.TryAcquireForKey(context.Background(), "10.0.0.1"))
	assert.Error(t, limiter.Health())
}

func TestNew(t *testing.T) {
	_, err := New(Config{Enabled: true, Limit: 1, Window: time.Second, Type: BackendDistributed}, nil, nil)
	assert.Error(t, err)

	limiter, err := New(Config{Enabled: true, Limit: 1, Window: time.Second}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "local", limiter.Stats()["type"])
}
