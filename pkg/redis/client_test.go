package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asookemart/asooke-backend/pkg/config"
)

type memoryCommands struct {
	values  map[string]string
	ttls    map[string]time.Duration
	incrErr error
}

func newMemoryCommands() *memoryCommands {
	return &memoryCommands{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryCommands) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.values[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryCommands) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	if m.incrErr != nil {
		return redis.NewIntResult(0, m.incrErr)
	}
	var n int64
	if v, ok := m.values[key]; ok {
		fmt.Sscan(v, &n)
	}
	n++
	m.values[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (m *memoryCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.ttls[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			n++
		}
		delete(m.values, k)
		delete(m.ttls, k)
	}
	return redis.NewIntResult(n, nil)
}

func TestIncrWithTTLSetsExpiryOnce(t *testing.T) {
	mem := newMemoryCommands()
	c := &Client{cmd: mem}
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.IncrWithTTL(ctx, "ao:rate_limit:auth:login:ip:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, time.Minute, mem.ttls["ao:rate_limit:auth:login:ip:1.2.3.4"])

	mem.incrErr = errors.New("READONLY")
	_, err := c.IncrWithTTL(ctx, "k", time.Minute)
	assert.Error(t, err)
}

func TestSetNXAndDel(t *testing.T) {
	c := &Client{cmd: newMemoryCommands()}
	ctx := context.Background()
	key := c.IdempotencyKey("notification", "msg-1")

	first, err := c.SetNX(ctx, key, "done", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := c.SetNX(ctx, key, "done", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, c.Del(ctx, key))
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)

	assert.NoError(t, c.Del(ctx))
}

func TestUninitialisedClient(t *testing.T) {
	var c *Client
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())

	empty := &Client{}
	_, err := empty.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestKeyspace(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "ao:idempotency:checkout:u1:k1", c.IdempotencyKey("checkout:u1", "k1"))
	assert.Equal(t, "ao:rate_limit:auth:login", c.RateLimitKey("auth:login"))
	assert.Equal(t, "ao:lock:cron-worker", c.LockKey("cron-worker"))
	assert.Equal(t, "ao:session:access:abc", c.AccessSessionKey("abc"))
	assert.Equal(t, "ao:lock", c.LockKey(" "))
}

func TestDialOptions(t *testing.T) {
	_, err := dialOptions(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := dialOptions(config.RedisConfig{URL: "redis://:pw@cache:6380/2", PoolSize: 7, DB: 5})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = dialOptions(config.RedisConfig{Address: "localhost:6379", DB: 3, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, time.Second, opts.DialTimeout)
}
