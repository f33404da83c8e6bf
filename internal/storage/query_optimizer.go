package storage

import (
	"fmt"
	"sync"
	"time"
)

// QueryCache is a generic TTL cache with FIFO eviction, used to avoid
// re-querying the history database for repeated trend lookups.
type QueryCache struct {
	maxSize int
	items   map[string]*queryCacheItem
	order   []string
	mu      sync.RWMutex
}

type queryCacheItem struct {
	data      interface{}
	expiresAt time.Time
	key       string
}

// NewQueryCache creates a new query cache holding at most maxSize items.
func NewQueryCache(maxSize int) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &QueryCache{
		maxSize: maxSize,
		items:   make(map[string]*queryCacheItem),
		order:   make([]string, 0, maxSize),
	}
}

// Get retrieves a cached item if present and not expired.
func (qc *QueryCache) Get(key string) (interface{}, bool) {
	qc.mu.RLock()
	defer qc.mu.RUnlock()

	item, found := qc.items[key]
	if !found {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.data, true
}

// Set stores an item in the cache with a default TTL of 1 minute.
func (qc *QueryCache) Set(key string, data interface{}) {
	qc.SetWithTTL(key, data, time.Minute)
}

// SetWithTTL stores an item with a custom TTL.
func (qc *QueryCache) SetWithTTL(key string, data interface{}, ttl time.Duration) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	if _, found := qc.items[key]; found {
		qc.items[key] = &queryCacheItem{data: data, expiresAt: time.Now().Add(ttl), key: key}
		return
	}
	if len(qc.items) >= qc.maxSize {
		qc.evictOldest()
	}
	qc.items[key] = &queryCacheItem{data: data, expiresAt: time.Now().Add(ttl), key: key}
	qc.order = append(qc.order, key)
}

func (qc *QueryCache) evictOldest() {
	if len(qc.order) == 0 {
		return
	}
	oldestKey := qc.order[0]
	delete(qc.items, oldestKey)
	qc.order = qc.order[1:]
}

// Clear removes all items.
func (qc *QueryCache) Clear() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.items = make(map[string]*queryCacheItem)
	qc.order = make([]string, 0, qc.maxSize)
}

// Size returns the current number of items.
func (qc *QueryCache) Size() int {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	return len(qc.items)
}

// MaxSize returns the maximum cache size.
func (qc *QueryCache) MaxSize() int {
	return qc.maxSize
}

// CachedStorage wraps a Storage, caching Trend lookups for ttl. SaveRun and
// Prune invalidate the whole cache rather than tracking per-name staleness,
// since both are infrequent relative to repeated `ubench trend` queries.
type CachedStorage struct {
	Storage
	cache *QueryCache
	ttl   time.Duration
}

// NewCachedStorage wraps backing with a Trend-result cache of the given
// size and per-entry TTL.
func NewCachedStorage(backing Storage, cacheSize int, ttl time.Duration) *CachedStorage {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedStorage{Storage: backing, cache: NewQueryCache(cacheSize), ttl: ttl}
}

func (c *CachedStorage) Trend(name string, limit int) ([]*RunRecord, error) {
	key := fmt.Sprintf("trend:%s:%d", name, limit)
	if cached, found := c.cache.Get(key); found {
		if recs, ok := cached.([]*RunRecord); ok {
			return recs, nil
		}
	}
	recs, err := c.Storage.Trend(name, limit)
	if err != nil {
		return nil, err
	}
	c.cache.SetWithTTL(key, recs, c.ttl)
	return recs, nil
}

func (c *CachedStorage) SaveRun(rec *RunRecord) error {
	if err := c.Storage.SaveRun(rec); err != nil {
		return err
	}
	c.cache.Clear()
	return nil
}

func (c *CachedStorage) Prune(retentionDays int) error {
	if err := c.Storage.Prune(retentionDays); err != nil {
		return err
	}
	c.cache.Clear()
	return nil
}
