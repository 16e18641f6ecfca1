package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asookemart/asooke-backend/pkg/config"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, ttl: time.Hour, now: time.Now}, store
}

func TestManagerGenerateAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	token, err := manager.Generate(ctx, userID, "access-123")
	require.NoError(t, err)

	_, _, err = manager.Rotate(ctx, userID, "access-123", "wrong")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	newAccessID, newToken, err := manager.Rotate(ctx, userID, "access-123", token)
	require.NoError(t, err)
	assert.NotEqual(t, "access-123", newAccessID)
	assert.NotEqual(t, token, newToken)

	_, exists := store.data[store.AccessSessionKey("access-123")]
	assert.False(t, exists, "old session left behind")
	assert.NotContains(t, store.data[store.AccessSessionKey(newAccessID)], newToken, "refresh token stored in clear")

	_, _, err = manager.Rotate(ctx, userID, "access-123", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "refresh token reused")

	ok, err := manager.HasSession(ctx, newAccessID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRotateRejectsOtherUser(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	token, err := manager.Generate(ctx, uuid.New(), "access-1")
	require.NoError(t, err)

	_, _, err = manager.Rotate(ctx, uuid.New(), "access-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateUnknownSession(t *testing.T) {
	manager, _ := newTestManager()
	_, _, err := manager.Rotate(context.Background(), uuid.New(), "missing", "token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeDropsSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	_, err := manager.Generate(ctx, uuid.New(), "access-9")
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(ctx, "access-9"))
	ok, err := manager.HasSession(ctx, "access-9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptEntryIsInvalid(t *testing.T) {
	manager, store := newTestManager()
	store.data[store.AccessSessionKey("access-7")] = "not json"

	ok, err := manager.HasSession(context.Background(), "access-7")
	require.NoError(t, err)
	assert.False(t, ok)
	_, _, err = manager.Rotate(context.Background(), uuid.New(), "access-7", "x")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestNewManagerChecksTTLs(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{})
	assert.Error(t, err)

	_, err = NewManager(newMockStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	assert.Error(t, err)
}
