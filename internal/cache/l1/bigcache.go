package l1

import (
	"context"
	"encoding/json"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/metrics"
	"go-holder-cache/internal/models"
)

// Ensure BigCacheStore implements interfaces.Store
var _ interfaces.Store = (*BigCacheStore)(nil)

// BigCacheStore is an alternative L1 engine backed by BigCache, selectable by
// config for deployments where payload size matters more than strict LRU
// recency. Entries are JSON-encoded; eviction is byte-bounded and governed by
// BigCache's life window rather than per-entry recency.
type BigCacheStore struct {
	cache  *bigcache.BigCache
	clock  clock.Clock
	logger *zap.Logger
}

// BigCacheConfig tunes the BigCache engine.
type BigCacheConfig struct {
	SizeMB     int           // hard memory cap in MB
	LifeWindow time.Duration // global eviction horizon
}

// NewBigCacheStore creates a BigCache-backed L1 store.
func NewBigCacheStore(cfg BigCacheConfig, clk clock.Clock, logger *zap.Logger) (*BigCacheStore, error) {
	conf := bigcache.DefaultConfig(cfg.LifeWindow)
	conf.HardMaxCacheSize = cfg.SizeMB
	conf.MaxEntrySize = 1024 * 1024
	conf.Verbose = false

	c, err := bigcache.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &BigCacheStore{cache: c, clock: clk, logger: logger}, nil
}

// Get retrieves a non-expired entry.
func (bc *BigCacheStore) Get(key string) (*models.CacheEntry, bool) {
	entry, found := bc.decode(key)
	if !found {
		return nil, false
	}
	if entry.IsExpired(bc.clock.Now()) {
		return nil, false
	}
	return entry, true
}

// GetStale retrieves an entry regardless of expiry.
func (bc *BigCacheStore) GetStale(key string) (*models.CacheEntry, bool) {
	return bc.decode(key)
}

// Set stores an entry.
func (bc *BigCacheStore) Set(key string, entry *models.CacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		bc.logger.Error("Failed to marshal L1 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "encode")
		return
	}
	if err := bc.cache.Set(key, data); err != nil {
		bc.logger.Error("Failed to set L1 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "store")
	}
}

// Delete removes an entry.
func (bc *BigCacheStore) Delete(key string) bool {
	return bc.cache.Delete(key) == nil
}

// Clear drops every entry.
func (bc *BigCacheStore) Clear() {
	if err := bc.cache.Reset(); err != nil {
		bc.logger.Warn("Failed to reset L1 cache", zap.Error(err))
	}
}

// Close releases the underlying cache.
func (bc *BigCacheStore) Close() error {
	return bc.cache.Close()
}

// Stats returns configured capacity and entry count for metrics.
func (bc *BigCacheStore) Stats() (capacityBytes int64, entries int64) {
	return int64(bc.cache.Capacity()), int64(bc.cache.Len())
}

func (bc *BigCacheStore) decode(key string) (*models.CacheEntry, bool) {
	data, err := bc.cache.Get(key)
	if err != nil {
		return nil, false
	}
	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		bc.logger.Warn("Failed to unmarshal L1 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "decode")
		_ = bc.cache.Delete(key) // remove corrupted entry
		return nil, false
	}
	return &entry, true
}
