package intervention

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/browserpilot/types"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client, "test:intervention:", 0)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	req := &Request{
		ID:        "req-1",
		Type:      TypeAntiBotProtection,
		Status:    StatusPending,
		Message:   "cloudflare challenge",
		Context:   map[string]any{"retries": float64(3)},
		CreatedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Timeout:   2 * time.Minute,
	}
	require.NoError(t, store.Save(ctx, req))

	got, err := store.Load(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, req.Type, got.Type)
	assert.Equal(t, req.Message, got.Message)
	assert.Equal(t, req.Context, got.Context)
	assert.Equal(t, req.Timeout, got.Timeout)
	assert.True(t, got.CreatedAt.Equal(req.CreatedAt))
}

func TestRedisStoreMissing(t *testing.T) {
	store := newTestRedisStore(t)
	_, err := store.Load(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, types.ErrInterventionNotFound, types.GetErrorCode(err))
}

func TestRedisStoreStatusIndex(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, &Request{
			ID:        id,
			Type:      TypeCaptcha,
			Status:    StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			Timeout:   time.Minute,
		}))
	}

	// resolve one; it must move between status indexes
	req, err := store.Load(ctx, "b")
	require.NoError(t, err)
	now := base.Add(time.Minute)
	req.Status = StatusCompleted
	req.ResolvedAt = &now
	require.NoError(t, store.Update(ctx, req))

	pending, err := store.List(ctx, StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "c", pending[0].ID)
	assert.Equal(t, "a", pending[1].ID)

	completed, err := store.List(ctx, StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "b", completed[0].ID)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCoordinatorWithRedisStore(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinator(newTestRedisStore(t), 5*time.Minute, nil)

	req, err := c.Request(ctx, Options{Type: TypeSecurityCheck, Timeout: time.Minute})
	require.NoError(t, err)

	got, err := c.Cancel(ctx, req.ID, "operator unavailable")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	reloaded, err := c.Status(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, reloaded.Status)
	assert.Equal(t, "operator unavailable", reloaded.CancelReason)
}

func TestRedisStorePing(t *testing.T) {
	store := newTestRedisStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
