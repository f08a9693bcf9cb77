package schedule

import (
	"time"
)

// EngineConfig holds tuning options for the occurrence search
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// Search tuning
	MaxWindowDays         int // Upper bound for the sliding window used by next/previous searches
	ParallelThresholdDays int // Ranges shorter than this are counted on one goroutine
}

// DefaultEngineConfig does not cache, so a Schedule starts no goroutines
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: false,
	CacheConfig:  DefaultCacheConfig,

	MaxWindowDays:         4 * 366,
	ParallelThresholdDays: 10 * 366,
}

// HighPerformanceConfig is optimized for repeated queries on long-lived schedules
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute, // Longer cache TTL
		MaxEntries:      5000,             // More cache entries
		CleanupInterval: 10 * time.Minute, // Less frequent cleanup
	},

	MaxWindowDays:         16 * 366, // Wider windows, fewer slides
	ParallelThresholdDays: 2 * 366,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute, // Shorter cache TTL
		MaxEntries:      100,             // Fewer cache entries
		CleanupInterval: 2 * time.Minute, // More frequent cleanup
	},

	MaxWindowDays:         366,
	ParallelThresholdDays: 100 * 366,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,
	CacheConfig:  CacheConfig{}, // Not used

	MaxWindowDays:         4 * 366,
	ParallelThresholdDays: 10 * 366,
}
