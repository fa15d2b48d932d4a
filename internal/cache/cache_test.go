// SPDX-License-Identifier: MIT

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("stac:item", `{"bbox":[0,0,1,1]}`, 5*time.Minute)

	val, ok := c.Get("stac:item")
	require.True(t, ok)
	assert.Equal(t, `{"bbox":[0,0,1,1]}`, val)

	_, ok = c.Get("nonexistent")
	assert.False(t, ok)
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("shortlived", "value", 30*time.Millisecond)

	_, ok := c.Get("shortlived")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok = c.Get("shortlived")
	assert.False(t, ok, "expected key to be expired")
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("a", 1, 5*time.Minute)
	c.Set("b", 2, 5*time.Minute)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().CurrentSize)
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("a", 1, 5*time.Minute)
	_, _ = c.Get("a")
	_, _ = c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestMemoryCache_Janitor(t *testing.T) {
	c := NewMemoryCache(20 * time.Millisecond)
	defer c.(*memoryCache).Stop()

	c.Set("a", 1, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return c.Stats().CurrentSize == 0
	}, time.Second, 10*time.Millisecond, "janitor should evict expired entries")
}

func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()
	c.Set("a", 1, time.Minute)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, Stats{}, c.Stats())
}
