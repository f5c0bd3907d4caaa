package utils

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// TTLCache is a bounded LRU whose entries also expire. Expired entries are dropped
// lazily on read.
type TTLCache struct {
	entries *lru.Cache[string, cacheEntry]
	now     func() time.Time
}

var (
	sharedCache     *TTLCache
	sharedCacheOnce sync.Once
)

func NewTTLCache(size int) *TTLCache {
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &TTLCache{entries: entries, now: time.Now}
}

// GetCache returns the process-wide cache (500 entries).
func GetCache() *TTLCache {
	sharedCacheOnce.Do(func() {
		sharedCache = NewTTLCache(500)
	})
	return sharedCache
}

func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	c.entries.Add(key, cacheEntry{value: value, expiresAt: c.now().Add(ttl)})
}

func (c *TTLCache) Get(key string) (any, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Delete(key string) {
	c.entries.Remove(key)
}

func (c *TTLCache) Len() int {
	return c.entries.Len()
}
