package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreJSON(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	var out map[string]int
	assert.ErrorIs(t, m.GetJSON(ctx, "missing", &out), ErrMiss)

	require.NoError(t, m.SetJSON(ctx, "products:list:a", map[string]int{"n": 1}, time.Minute))
	require.NoError(t, m.SetJSON(ctx, "products:list:b", map[string]int{"n": 2}, 0))
	require.NoError(t, m.SetJSON(ctx, "categories:tree", map[string]int{"n": 3}, 0))

	require.NoError(t, m.GetJSON(ctx, "products:list:a", &out))
	assert.Equal(t, 1, out["n"])

	require.NoError(t, m.DeletePattern(ctx, "products:*"))
	assert.ErrorIs(t, m.GetJSON(ctx, "products:list:b", &out), ErrMiss)
	assert.NoError(t, m.GetJSON(ctx, "categories:tree", &out))
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore()
	m.now = func() time.Time { return now }

	require.NoError(t, m.SetJSON(ctx, "k", 1, time.Second))
	now = now.Add(2 * time.Second)
	var v int
	assert.ErrorIs(t, m.GetJSON(ctx, "k", &v), ErrMiss)
}

func TestMemoryStoreLock(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	ok, err := m.AcquireLock(ctx, "lock", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = m.AcquireLock(ctx, "lock", "b", time.Minute)
	assert.False(t, ok)

	require.NoError(t, m.ReleaseLock(ctx, "lock", "b"))
	ok, _ = m.AcquireLock(ctx, "lock", "c", time.Minute)
	assert.False(t, ok, "release with wrong value must not unlock")

	require.NoError(t, m.ReleaseLock(ctx, "lock", "a"))
	ok, _ = m.AcquireLock(ctx, "lock", "c", time.Minute)
	assert.True(t, ok)
}
