package cache

import (
	"container/list"
	"sync"
	"time"
)

// Status represents the cache lookup result.
type Status string

const (
	StatusHit     Status = "hit"
	StatusMiss    Status = "miss"
	StatusExpired Status = "expired"
	// StatusStale means the source file changed since the entry was rendered.
	StatusStale Status = "stale"
)

// Entry holds a rendered preview page.
type Entry struct {
	HTML      []byte
	ModTime   time.Time // modification time of the source file
	Size      int64
	ExpiresAt time.Time
}

// Cache is a thread-safe, in-memory LRU cache with TTL and byte-counting eviction.
type Cache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int64
	curSize int64
	now     func() time.Time // injectable for testing
}

type cacheItem struct {
	key   string
	entry Entry
}

// New creates a cache with the given TTL and max size in bytes.
func New(ttl time.Duration, maxSize int64) *Cache {
	return &Cache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves the entry for key rendered from a source last modified at
// modTime. Expired and stale entries are dropped and reported as such.
func (c *Cache) Get(key string, modTime time.Time) (*Entry, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, StatusMiss
	}

	item := elem.Value.(*cacheItem)

	if c.now().After(item.entry.ExpiresAt) {
		c.remove(elem)
		return nil, StatusExpired
	}
	if !item.entry.ModTime.Equal(modTime) {
		c.remove(elem)
		return nil, StatusStale
	}

	c.order.MoveToFront(elem)
	entry := item.entry
	return &entry, StatusHit
}

// Put stores an entry in the cache. Evicts LRU entries if necessary.
// Entries larger than the whole cache are not stored.
func (c *Cache) Put(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry.Size > c.maxSize {
		if elem, ok := c.items[key]; ok {
			c.remove(elem)
		}
		return
	}

	entry.ExpiresAt = c.now().Add(c.ttl)

	if elem, ok := c.items[key]; ok {
		old := elem.Value.(*cacheItem)
		c.curSize -= old.entry.Size
		old.entry = entry
		c.curSize += entry.Size
		c.order.MoveToFront(elem)
		c.evict()
		return
	}

	item := &cacheItem{key: key, entry: entry}
	elem := c.order.PushFront(item)
	c.items[key] = elem
	c.curSize += entry.Size

	c.evict()
}

// evict removes LRU entries until curSize <= maxSize. Must be called with mu held.
func (c *Cache) evict() {
	for c.curSize > c.maxSize && c.order.Len() > 0 {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest)
	}
}

// remove drops elem. Must be called with mu held.
func (c *Cache) remove(elem *list.Element) {
	item := elem.Value.(*cacheItem)
	c.curSize -= item.entry.Size
	delete(c.items, item.key)
	c.order.Remove(elem)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the current byte size of the cache.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curSize
}
