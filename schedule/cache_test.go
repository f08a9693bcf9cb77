package schedule

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrenceCache_BasicOperations(t *testing.T) {
	cache := NewOccurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	from := date(2024, 1, 1)
	result, found := cache.Get("next", "schedule-1", from)
	assert.False(t, found, "expected cache miss")
	assert.True(t, result.IsAbsent())

	cache.Set("next", "schedule-1", some(date(2024, 1, 8)), from)

	result, found = cache.Get("next", "schedule-1", from)
	require.True(t, found, "expected cache hit")
	assert.Equal(t, some(date(2024, 1, 8)), result)

	// any difference in the key is a miss
	_, found = cache.Get("previous", "schedule-1", from)
	assert.False(t, found)
	_, found = cache.Get("next", "schedule-2", from)
	assert.False(t, found)
	_, found = cache.Get("next", "schedule-1", from, from)
	assert.False(t, found)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(4), stats.Misses)
}

func TestOccurrenceCache_TTLExpiration(t *testing.T) {
	cache := NewOccurrenceCache(CacheConfig{
		TTL:             100 * time.Millisecond,
		MaxEntries:      100,
		CleanupInterval: 50 * time.Millisecond,
	})
	defer cache.Close()

	cache.Set("last", "schedule-1", mo.None[time.Time]())

	result, found := cache.Get("last", "schedule-1")
	require.True(t, found, "expected cache hit immediately after set")
	assert.Equal(t, mo.None[time.Time](), result)

	time.Sleep(150 * time.Millisecond)

	_, found = cache.Get("last", "schedule-1")
	assert.False(t, found, "expected cache miss after expiration")
}

func TestOccurrenceCache_MaxEntries(t *testing.T) {
	cache := NewOccurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      3,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	for i := 0; i < 5; i++ {
		cache.Set("next", fmt.Sprintf("schedule-%d", i), some(date(2024, 1, i+1)))
		time.Sleep(time.Millisecond)
	}

	stats := cache.Stats()
	assert.LessOrEqual(t, stats.TotalEntries, 3)

	// the most recent entry survives eviction
	_, found := cache.Get("next", "schedule-4")
	assert.True(t, found)
	_, found = cache.Get("next", "schedule-0")
	assert.False(t, found)
}

func TestOccurrenceCache_ConcurrentAccess(t *testing.T) {
	cache := NewOccurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      1000,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("schedule-%d-%d", g, i)
				cache.Set("next", id, some(date(2024, 1, 1)))
				cache.Get("next", id)
			}
		}(g)
	}
	wg.Wait()

	stats := cache.Stats()
	assert.Equal(t, 1000, stats.TotalEntries)
	assert.Equal(t, 1000, stats.ActiveEntries)
}

func TestOccurrenceCache_CloseTwice(t *testing.T) {
	cache := NewOccurrenceCache(CacheConfig{})
	cache.Set("next", "schedule-1", some(date(2024, 1, 1)))
	cache.Close()
	assert.NotPanics(t, cache.Close)
	assert.Equal(t, 0, cache.Stats().TotalEntries)
}

func TestEngineConfigPresets(t *testing.T) {
	assert.False(t, DefaultEngineConfig.CacheEnabled)
	assert.False(t, DisabledCacheConfig.CacheEnabled)
	assert.True(t, HighPerformanceConfig.CacheEnabled)
	assert.True(t, LowMemoryConfig.CacheEnabled)
	assert.Greater(t, HighPerformanceConfig.CacheConfig.MaxEntries, LowMemoryConfig.CacheConfig.MaxEntries)

	for _, config := range []EngineConfig{DefaultEngineConfig, HighPerformanceConfig, LowMemoryConfig, DisabledCacheConfig} {
		s, err := New(Event{Frequency: Daily{}, Start: some(date(2024, 1, 1)), End: some(date(2024, 12, 31))}, WithConfig(config))
		require.NoError(t, err)
		next, err := s.NextOccurrence(date(2024, 3, 1))
		require.NoError(t, err)
		assert.Equal(t, some(date(2024, 3, 2)), next)
		s.Close()
	}
}
