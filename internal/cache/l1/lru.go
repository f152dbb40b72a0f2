package l1

import (
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// Ensure LRUCache implements interfaces.Store
var _ interfaces.Store = (*LRUCache)(nil)

// LRUCache implements the L1 tier as a bounded in-process LRU of cache
// entries. Only fresh reads refresh recency: stale and allow-stale reads go
// through Peek, so entries nobody revalidates are not kept alive by stale
// traffic alone.
type LRUCache struct {
	cache  *lru.Cache[string, *models.CacheEntry]
	clock  clock.Clock
	logger *zap.Logger
}

// NewLRUCache creates an L1 cache bounded to maxEntries.
func NewLRUCache(maxEntries int, clk clock.Clock, logger *zap.Logger) (*LRUCache, error) {
	c, err := lru.New[string, *models.CacheEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LRUCache{cache: c, clock: clk, logger: logger}, nil
}

// Get retrieves a non-expired entry. Fresh hits touch recency; stale hits do not.
func (lc *LRUCache) Get(key string) (*models.CacheEntry, bool) {
	entry, found := lc.cache.Peek(key)
	if !found {
		return nil, false
	}
	now := lc.clock.Now()
	if entry.IsExpired(now) {
		// Left in place for GetStale; capacity eviction reclaims it eventually.
		return nil, false
	}
	if entry.IsFresh(now) {
		lc.cache.Get(key)
	}
	return entry, true
}

// GetStale retrieves an entry regardless of expiry, without touching recency.
func (lc *LRUCache) GetStale(key string) (*models.CacheEntry, bool) {
	return lc.cache.Peek(key)
}

// Set inserts or replaces an entry, evicting the least-recently-used entry
// when at capacity.
func (lc *LRUCache) Set(key string, entry *models.CacheEntry) {
	if evicted := lc.cache.Add(key, entry); evicted {
		lc.logger.Debug("L1 LRU eviction on insert", zap.String("key", key))
	}
}

// Delete removes an entry and reports whether one was present.
func (lc *LRUCache) Delete(key string) bool {
	return lc.cache.Remove(key)
}

// Clear drops every entry.
func (lc *LRUCache) Clear() {
	lc.cache.Purge()
}

// Len returns the number of resident entries, for capacity metrics.
func (lc *LRUCache) Len() int {
	return lc.cache.Len()
}

// SweepExpired removes entries whose total lifetime elapsed more than
// keepFor ago. Called periodically so long-dead entries do not occupy
// capacity waiting for LRU pressure.
func (lc *LRUCache) SweepExpired(keepFor time.Duration) int {
	now := lc.clock.Now()
	removed := 0
	for _, key := range lc.cache.Keys() {
		entry, ok := lc.cache.Peek(key)
		if !ok {
			continue
		}
		if entry.IsExpired(now.Add(-keepFor)) {
			lc.cache.Remove(key)
			removed++
		}
	}
	return removed
}
