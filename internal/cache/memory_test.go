package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/cache"
)

func TestMemory_TTL(t *testing.T) {
	m := cache.NewMemory()

	t.Run("should return a live value before expiry", func(t *testing.T) {
		m.Set("k", []byte("v"), 100*time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		value, ok := m.Get("k")
		require.True(t, ok)
		require.Equal(t, []byte("v"), value)
	})

	t.Run("should treat an expired entry as absent", func(t *testing.T) {
		m.Set("short", []byte("v"), 50*time.Millisecond)

		time.Sleep(60 * time.Millisecond)
		_, ok := m.Get("short")
		require.False(t, ok)
	})

	t.Run("should not store non-positive TTLs", func(t *testing.T) {
		m.Set("none", []byte("v"), 0)
		_, ok := m.Get("none")
		require.False(t, ok)
	})
}

func TestMemory_InvalidatePattern(t *testing.T) {
	m := cache.NewMemory()
	m.Set("peregrine:validation:seoul", []byte("a"), time.Minute)
	m.Set("peregrine:validation:lisbon", []byte("b"), time.Minute)
	m.Set("peregrine:pool:seoul:6:20", []byte("c"), time.Minute)

	dropped := m.InvalidatePattern("peregrine:validation:*")
	require.Equal(t, 2, dropped)

	_, ok := m.Get("peregrine:validation:seoul")
	require.False(t, ok)
	_, ok = m.Get("peregrine:pool:seoul:6:20")
	require.True(t, ok)
}

func TestMemory_Sweeper(t *testing.T) {
	m := cache.NewMemory()
	defer m.Close()

	m.Set("a", []byte("1"), 20*time.Millisecond)
	m.Set("b", []byte("2"), time.Minute)
	m.StartSweeper(10 * time.Millisecond)

	require.Eventually(t, func() bool {
		return m.Len() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMemory_DeleteAndHas(t *testing.T) {
	m := cache.NewMemory()
	m.Set("k", []byte("v"), time.Minute)
	require.True(t, m.Has("k"))

	m.Delete("k")
	require.False(t, m.Has("k"))
}
