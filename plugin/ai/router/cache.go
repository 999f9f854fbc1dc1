package router

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// lruCache is a thread-safe LRU cache with TTL support, used to avoid
// re-classifying identical inputs.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	entries    map[string]*list.Element
	lruList    *list.List // front = most recently used
	mutex      sync.Mutex
}

type cacheEntry struct {
	key        string
	result     *Result
	expiration time.Time
}

func newLRUCache(maxEntries int, ttl time.Duration) *lruCache {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		entries:    make(map[string]*list.Element),
		lruList:    list.New(),
	}
}

func (c *lruCache) Get(key string) (*Result, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if c.ttl > 0 && time.Now().After(entry.expiration) {
		c.lruList.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}

	c.lruList.MoveToFront(elem)
	return entry.result, true
}

func (c *lruCache) Set(key string, result *Result) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if elem, exists := c.entries[key]; exists {
		c.lruList.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.result = result
		entry.expiration = time.Now().Add(c.ttl)
		return
	}

	elem := c.lruList.PushFront(&cacheEntry{
		key:        key,
		result:     result,
		expiration: time.Now().Add(c.ttl),
	})
	c.entries[key] = elem

	if c.lruList.Len() > c.maxEntries {
		oldest := c.lruList.Back()
		if oldest != nil {
			c.lruList.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

// cacheKey hashes the input so long messages do not bloat the key space.
func cacheKey(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}
