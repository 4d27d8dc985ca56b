package message

import (
	"container/list"
	"sync"
)

// Cache maps raw text to the HTML the pipeline produced for it. A size of
// zero means unbounded; otherwise the least recently used entry is evicted.
// Each Message owns its own Cache.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	lruList *list.List
}

// cacheEntry holds a cache key-value pair for the LRU list.
type cacheEntry struct {
	key  string
	html string
}

// NewCache creates a cache holding at most maxSize entries.
func NewCache(maxSize int) *Cache {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Cache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		lruList: list.New(),
	}
}

// Get returns the HTML stored for text.
func (c *Cache) Get(text string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[text]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*cacheEntry).html, true
	}
	return "", false
}

// Put stores html for text.
func (c *Cache) Put(text, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[text]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*cacheEntry).html = html
		return
	}

	if c.maxSize > 0 && c.lruList.Len() >= c.maxSize {
		c.evictOldest()
	}

	elem := c.lruList.PushFront(&cacheEntry{key: text, html: html})
	c.entries[text] = elem
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *Cache) evictOldest() {
	oldest := c.lruList.Back()
	if oldest != nil {
		delete(c.entries, oldest.Value.(*cacheEntry).key)
		c.lruList.Remove(oldest)
	}
}

// Clear removes every entry. Called whenever the message text changes.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.lruList.Init()
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
