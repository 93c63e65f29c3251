package shell

import (
	"net/http"
	"sort"
	"sync"
)

// Entry is a stored response.
type Entry struct {
	Status int
	Header http.Header
	Body   []byte
}

// Cache maps request keys to stored responses.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func newCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Match returns the entry stored under key.
func (c *Cache) Match(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put stores e under key, replacing any previous entry.
func (c *Cache) Put(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheStorage holds named caches, one per shell version.
type CacheStorage struct {
	mu     sync.RWMutex
	caches map[string]*Cache
}

// NewCacheStorage creates an empty storage.
func NewCacheStorage() *CacheStorage {
	return &CacheStorage{caches: make(map[string]*Cache)}
}

// Open returns the cache called name, creating it if needed.
func (s *CacheStorage) Open(name string) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[name]
	if !ok {
		c = newCache()
		s.caches[name] = c
	}
	return c
}

// Delete removes the cache called name and reports whether it existed.
func (s *CacheStorage) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.caches[name]
	delete(s.caches, name)
	return ok
}

// Keys returns the cache names in sorted order.
func (s *CacheStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.caches))
	for k := range s.caches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Match looks key up in every cache, in name order.
func (s *CacheStorage) Match(key string) (Entry, bool) {
	for _, name := range s.Keys() {
		s.mu.RLock()
		c := s.caches[name]
		s.mu.RUnlock()
		if c == nil {
			continue
		}
		if e, ok := c.Match(key); ok {
			return e, true
		}
	}
	return Entry{}, false
}
