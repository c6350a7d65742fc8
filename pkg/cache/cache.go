// Package cache implements the tiered content cache described by spec §4.7:
// LRU (exact) or LFU (approximate) eviction, per-entry TTL, and symmetric
// hit/miss/uncached latency telemetry.
package cache

import (
	"sync"
	"time"

	"github.com/contractforge/registry/internal/telemetry"
)

// Policy selects the eviction strategy.
type Policy string

const (
	PolicyLRU Policy = "lru"
	PolicyLFU Policy = "lfu"
)

// Key identifies a cached value by owning contract and an inner key.
type Key struct {
	ContractID string
	Inner      string
}

// Cache is a bounded content cache with pluggable eviction and symmetric
// hit/miss/uncached latency telemetry. A disabled Cache behaves as a
// passthrough: Get always misses, Put is a no-op.
type Cache struct {
	enabled    bool
	defaultTTL time.Duration
	evictor    evictor
	now        func() time.Time

	mu          sync.Mutex
	hitSumUs    float64
	hitCount    int64
	missSumUs   float64
	missCount   int64
	uncachedSum float64
	uncachedCnt int64
}

// evictor is the eviction-policy-specific storage backing the cache.
type evictor interface {
	get(key Key) (value string, expiresAt time.Time, hasExpiry bool, ok bool)
	put(key Key, value string, expiresAt time.Time, hasExpiry bool)
	remove(key Key)
	len() int
}

// New creates a Cache. When enabled is false, the cache is a passthrough
// regardless of policy/capacity.
func New(enabled bool, policy Policy, capacity int, defaultTTL time.Duration) *Cache {
	var ev evictor
	switch policy {
	case PolicyLFU:
		ev = newLFU(capacity)
	default:
		ev = newLRU(capacity)
	}
	return &Cache{enabled: enabled, defaultTTL: defaultTTL, evictor: ev, now: time.Now}
}

// Get looks up key, recording cache-hit or cache-miss latency. An entry past
// its expiry is treated as absent and evicted.
func (c *Cache) Get(key Key) (string, bool) {
	start := c.now()
	if !c.enabled {
		c.recordLookup(start, c.now(), "miss")
		return "", false
	}

	value, expiresAt, hasExpiry, ok := c.evictor.get(key)
	if ok && hasExpiry && !c.now().Before(expiresAt) {
		c.evictor.remove(key)
		ok = false
	}

	if ok {
		c.recordLookup(start, c.now(), "hit")
		return value, true
	}
	c.recordLookup(start, c.now(), "miss")
	return "", false
}

// Put stores value under key. A zero ttl uses the cache's default TTL; a
// negative ttl means no expiry.
func (c *Cache) Put(key Key, value string, ttl time.Duration) {
	if !c.enabled {
		return
	}
	effective := ttl
	if effective == 0 {
		effective = c.defaultTTL
	}
	hasExpiry := effective >= 0
	var expiresAt time.Time
	if hasExpiry {
		expiresAt = c.now().Add(effective)
	}
	c.evictor.put(key, value, expiresAt, hasExpiry)
}

// Invalidate removes key unconditionally.
func (c *Cache) Invalidate(key Key) {
	if !c.enabled {
		return
	}
	c.evictor.remove(key)
}

// Len reports the number of entries currently stored.
func (c *Cache) Len() int {
	if !c.enabled {
		return 0
	}
	return c.evictor.len()
}

// RecordUncached records the latency of an operation performed without
// going through the cache, for improvement-factor reporting (spec §4.7's
// "uncached baseline" aggregate).
func (c *Cache) RecordUncached(d time.Duration) {
	micros := float64(d.Microseconds())
	telemetry.CacheLookupDuration.WithLabelValues("uncached").Observe(micros)

	c.mu.Lock()
	c.uncachedSum += micros
	c.uncachedCnt++
	c.mu.Unlock()
}

// TimeOperation runs fn, records its latency under the "uncached" outcome,
// and returns fn's result unchanged.
func (c *Cache) TimeOperation(fn func() string) string {
	start := c.now()
	result := fn()
	c.RecordUncached(c.now().Sub(start))
	return result
}

// recordLookup records a cache hit or miss into both the process-wide
// Prometheus histogram and this instance's sum/count aggregates.
func (c *Cache) recordLookup(start, end time.Time, outcome string) {
	micros := float64(end.Sub(start).Microseconds())
	telemetry.CacheLookupDuration.WithLabelValues(outcome).Observe(micros)

	c.mu.Lock()
	switch outcome {
	case "hit":
		c.hitSumUs += micros
		c.hitCount++
	case "miss":
		c.missSumUs += micros
		c.missCount++
	}
	c.mu.Unlock()
}

// Telemetry is a snapshot of the three disjoint latency aggregates spec
// §4.7 requires: cached-hit, cache-miss, and uncached-baseline sum+count in
// microseconds.
type Telemetry struct {
	HitSumMicros      float64
	HitCount          int64
	MissSumMicros     float64
	MissCount         int64
	UncachedSumMicros float64
	UncachedCount     int64
}

// Stats returns a snapshot of the current latency aggregates.
func (c *Cache) Stats() Telemetry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Telemetry{
		HitSumMicros:      c.hitSumUs,
		HitCount:          c.hitCount,
		MissSumMicros:     c.missSumUs,
		MissCount:         c.missCount,
		UncachedSumMicros: c.uncachedSum,
		UncachedCount:     c.uncachedCnt,
	}
}

// ImprovementFactor returns avg_uncached / avg_cached_hit (spec §4.7 and §8
// scenario 6), and ok=true only when both the hit and uncached aggregates
// have at least one sample and the average hit latency is non-zero;
// otherwise the factor is undefined and ok=false.
func (c *Cache) ImprovementFactor() (factor float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hitCount == 0 || c.uncachedCnt == 0 {
		return 0, false
	}
	avgHit := c.hitSumUs / float64(c.hitCount)
	avgUncached := c.uncachedSum / float64(c.uncachedCnt)
	if avgHit == 0 {
		return 0, false
	}
	return avgUncached / avgHit, true
}
