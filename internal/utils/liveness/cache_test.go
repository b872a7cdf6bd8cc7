package liveness

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldTouch_FirstSightingAlwaysTouches(t *testing.T) {
	cache := NewCache(30*time.Second, 100, time.Hour)
	now := time.Now()

	assert.True(t, cache.ShouldTouch("session-1", now))
}

func TestShouldTouch_WithinIntervalSkips(t *testing.T) {
	cache := NewCache(30*time.Second, 100, time.Hour)
	now := time.Now()

	assert.True(t, cache.ShouldTouch("session-1", now))
	assert.False(t, cache.ShouldTouch("session-1", now.Add(5*time.Second)))
	assert.False(t, cache.ShouldTouch("session-1", now.Add(29*time.Second)))
}

func TestShouldTouch_AfterIntervalTouchesAgain(t *testing.T) {
	cache := NewCache(30*time.Second, 100, time.Hour)
	now := time.Now()

	assert.True(t, cache.ShouldTouch("session-1", now))
	assert.True(t, cache.ShouldTouch("session-1", now.Add(35*time.Second)))
	// The second touch resets the clock
	assert.False(t, cache.ShouldTouch("session-1", now.Add(40*time.Second)))
}

func TestShouldTouch_SessionsAreIndependent(t *testing.T) {
	cache := NewCache(30*time.Second, 100, time.Hour)
	now := time.Now()

	assert.True(t, cache.ShouldTouch("session-1", now))
	assert.True(t, cache.ShouldTouch("session-2", now))
	assert.False(t, cache.ShouldTouch("session-1", now.Add(time.Second)))
	assert.False(t, cache.ShouldTouch("session-2", now.Add(time.Second)))
}

func TestForget_ResetsSession(t *testing.T) {
	cache := NewCache(30*time.Second, 100, time.Hour)
	now := time.Now()

	assert.True(t, cache.ShouldTouch("session-1", now))
	cache.Forget("session-1")
	assert.True(t, cache.ShouldTouch("session-1", now.Add(time.Second)))
}

func TestPurge_DropsStaleEntriesAtHighWater(t *testing.T) {
	cache := NewCache(30*time.Second, 10, time.Hour)
	base := time.Now()

	// Fill with entries old enough to be purged
	for i := 0; i < 10; i++ {
		cache.ShouldTouch(fmt.Sprintf("stale-%d", i), base)
	}
	assert.Equal(t, 10, cache.Len())

	// Crossing the high-water mark two hours later purges the stale entries
	assert.True(t, cache.ShouldTouch("fresh", base.Add(2*time.Hour)))
	assert.Equal(t, 1, cache.Len())
}

func TestPurge_KeepsRecentEntries(t *testing.T) {
	cache := NewCache(time.Second, 5, time.Hour)
	base := time.Now()

	for i := 0; i < 5; i++ {
		cache.ShouldTouch(fmt.Sprintf("recent-%d", i), base)
	}

	// Crossing the high-water mark within the retention window keeps everything
	assert.True(t, cache.ShouldTouch("one-more", base.Add(time.Minute)))
	assert.Equal(t, 6, cache.Len())
}
