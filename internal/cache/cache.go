package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Item wraps cached data with its expiry.
type Item struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Cache is a small in-process LRU with per-entry TTL, used for hot read
// paths like the RSS feed. Constructed once and injected where needed.
type Cache struct {
	lruCache *lru.Cache[string, Item]
}

func New(size int) (*Cache, error) {
	l, err := lru.New[string, Item](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lruCache: l}, nil
}

func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, Item{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get returns nil when the key is absent or expired.
func (c *Cache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.Data
}

func (c *Cache) Delete(key string) {
	c.lruCache.Remove(key)
}
