package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "ns", "k", map[string]int{"count": 3}, time.Minute))

	var got map[string]int
	hit, err := m.Get(ctx, "ns", "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, got["count"])
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory()

	var got string
	hit, err := m.Get(context.Background(), "ns", "absent", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "ns", "k", "v", -time.Second))

	var got string
	hit, err := m.Get(ctx, "ns", "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryInvalidateNamespace(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "runs", "a", 1, time.Minute))
	require.NoError(t, m.Set(ctx, "prompts", "b", 2, time.Minute))

	require.NoError(t, m.InvalidateNamespace(ctx, "runs"))

	var got int
	hit, _ := m.Get(ctx, "runs", "a", &got)
	assert.False(t, hit)

	hit, _ = m.Get(ctx, "prompts", "b", &got)
	assert.True(t, hit)
}
