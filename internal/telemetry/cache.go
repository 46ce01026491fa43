package telemetry

import (
	"fmt"
	"sync"
	"time"
)

type CacheStats struct {
	Name    string `json:"name"`
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	HitRate string `json:"hit_rate"`
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a bounded map whose entries expire after a fixed TTL. When full,
// the entry closest to expiry is evicted.
type TTLCache[V any] struct {
	mu      sync.Mutex
	name    string
	items   map[string]cacheEntry[V]
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	hits    int64
	misses  int64
}

func NewTTLCache[V any](name string, maxSize int, ttl time.Duration) *TTLCache[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &TTLCache[V]{
		name:    name,
		items:   make(map[string]cacheEntry[V]),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if ok && c.now().After(entry.expiresAt) {
		delete(c.items, key)
		ok = false
	}
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return entry.value, true
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.purgeExpired(now)
		if len(c.items) >= c.maxSize {
			c.evictSoonest()
		}
	}
	c.items[key] = cacheEntry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

func (c *TTLCache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := "0%"
	if total := c.hits + c.misses; total > 0 {
		hitRate = fmt.Sprintf("%.1f%%", float64(c.hits)/float64(total)*100)
	}
	return CacheStats{
		Name:    c.name,
		Size:    len(c.items),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

func (c *TTLCache[V]) purgeExpired(now time.Time) {
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}

func (c *TTLCache[V]) evictSoonest() {
	var victim string
	var soonest time.Time
	first := true
	for k, e := range c.items {
		if first || e.expiresAt.Before(soonest) {
			victim, soonest, first = k, e.expiresAt, false
		}
	}
	if !first {
		delete(c.items, victim)
	}
}
