package schedule

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/mo"
)

// CacheConfig holds configuration for the occurrence cache
type CacheConfig struct {
	TTL             time.Duration // how long a search result stays valid
	MaxEntries      int           // least recently used results are evicted above this
	CleanupInterval time.Duration // how often expired results are dropped
}

// DefaultCacheConfig is applied to zero fields of a CacheConfig
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

type cachedSearch struct {
	result   mo.Option[time.Time]
	expires  time.Time
	accessed time.Time
}

// OccurrenceCache memoises next, previous and last searches. One cache may
// be shared by many schedules since keys include the schedule ID.
type OccurrenceCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedSearch
	config  CacheConfig

	hits   atomic.Int64
	misses atomic.Int64

	stop      chan struct{}
	closeOnce sync.Once
}

// NewOccurrenceCache creates a cache and starts its cleanup goroutine. Call
// Close to stop it.
func NewOccurrenceCache(config CacheConfig) *OccurrenceCache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}

	c := &OccurrenceCache{
		entries: make(map[string]*cachedSearch),
		config:  config,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// searchKey joins the operation, schedule ID and day numbers of the dates
func searchKey(op, scheduleID string, dates []time.Time) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteByte('|')
	b.WriteString(scheduleID)
	for _, d := range dates {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(d.Unix(), 36))
	}
	return b.String()
}

// Get returns the cached result of op for the schedule and dates
func (c *OccurrenceCache) Get(op, scheduleID string, dates ...time.Time) (mo.Option[time.Time], bool) {
	key := searchKey(op, scheduleID, dates)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && now.After(entry.expires) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return mo.None[time.Time](), false
	}

	entry.accessed = now
	c.hits.Add(1)
	return entry.result, true
}

// Set stores the result of op for the schedule and dates
func (c *OccurrenceCache) Set(op, scheduleID string, result mo.Option[time.Time], dates ...time.Time) {
	key := searchKey(op, scheduleID, dates)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cachedSearch{result: result, expires: now.Add(c.config.TTL), accessed: now}
	if len(c.entries) > c.config.MaxEntries {
		c.evict(now)
	}
}

// evict drops expired results, then the least recently used ones until the
// cache is back at MaxEntries. Callers hold the write lock.
func (c *OccurrenceCache) evict(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}

	excess := len(c.entries) - c.config.MaxEntries
	if excess <= 0 {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return c.entries[a].accessed.Compare(c.entries[b].accessed)
	})
	for _, key := range keys[:excess] {
		delete(c.entries, key)
	}
}

func (c *OccurrenceCache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			c.evict(now)
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// Close stops the cleanup goroutine and empties the cache. It is safe to
// call more than once.
func (c *OccurrenceCache) Close() {
	c.closeOnce.Do(func() { close(c.stop) })

	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// CacheStats describes the cache contents and its hit rate
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
	Hits           int64
	Misses         int64
}

// Stats returns cache statistics
func (c *OccurrenceCache) Stats() CacheStats {
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		TotalEntries: len(c.entries),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
	}
	for _, entry := range c.entries {
		if now.After(entry.expires) {
			stats.ExpiredEntries++
		}
	}
	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats
}
