package media

import (
	"slices"
	"sync"

	"github.com/golang/groupcache/lru"

	"property-media/models"
)

// GalleryCache remembers resolved storage galleries by StorageContext.CacheKey.
// A stored empty slice means "resolved, nothing found".
type GalleryCache interface {
	Get(key string) ([]models.GalleryImage, bool)
	Set(key string, images []models.GalleryImage)
}

// MemoryCache is an unbounded GalleryCache. Entries are never evicted, so a
// folder that was empty when first listed stays empty for the life of the
// cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]models.GalleryImage
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]models.GalleryImage)}
}

func (c *MemoryCache) Get(key string) ([]models.GalleryImage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	images, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(images), true
}

func (c *MemoryCache) Set(key string, images []models.GalleryImage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cloneImages(images)
}

// Len returns the number of cached folders.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LRUCache is a GalleryCache holding at most a fixed number of folders,
// evicting the least recently used one.
type LRUCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewLRUCache creates an LRUCache for up to maxEntries folders. A
// non-positive maxEntries disables eviction.
func NewLRUCache(maxEntries int) *LRUCache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &LRUCache{cache: lru.New(maxEntries)}
}

func (c *LRUCache) Get(key string) ([]models.GalleryImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.([]models.GalleryImage)), true
}

func (c *LRUCache) Set(key string, images []models.GalleryImage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, cloneImages(images))
}

// Len returns the number of cached folders.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// NewGalleryCache returns an LRUCache when maxEntries is positive and an
// unbounded MemoryCache otherwise.
func NewGalleryCache(maxEntries int) GalleryCache {
	if maxEntries > 0 {
		return NewLRUCache(maxEntries)
	}
	return NewMemoryCache()
}

// cloneImages copies images so callers cannot mutate cached entries. nil is
// stored as the empty sentinel.
func cloneImages(images []models.GalleryImage) []models.GalleryImage {
	if images == nil {
		return []models.GalleryImage{}
	}
	return slices.Clone(images)
}
