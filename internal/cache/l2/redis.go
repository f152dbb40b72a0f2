package l2

import (
	"context"
	"encoding/json"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/metrics"
	"go-holder-cache/internal/models"
)

// keyPrefix isolates this service's keyspace inside a shared redis instance.
const keyPrefix = "hc:"

// Ensure RedisCache implements interfaces.Store
var _ interfaces.Store = (*RedisCache)(nil)

// RedisCache implements the L2 tier on redis. Entries are JSON-encoded with
// their freshness timestamps; the server-side TTL is the entry's total
// lifetime (fresh + stale window), so redis itself reclaims fully expired
// entries and GetStale only ever sees entries still inside the stale window.
type RedisCache struct {
	client      interfaces.RedisClient
	clock       clock.Clock
	readTimeout time.Duration
	sendTimeout time.Duration
	logger      *zap.Logger
}

// NewRedisCache creates an L2 cache on top of an established redis client.
func NewRedisCache(client interfaces.RedisClient, clk clock.Clock, readTimeout, sendTimeout time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client:      client,
		clock:       clk,
		readTimeout: readTimeout,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Get retrieves a non-expired entry from redis.
func (rc *RedisCache) Get(key string) (*models.CacheEntry, bool) {
	entry, found := rc.fetch(key)
	if !found {
		return nil, false
	}
	if entry.IsExpired(rc.clock.Now()) {
		return nil, false
	}
	return entry, true
}

// GetStale retrieves an entry regardless of local expiry judgement. Redis
// already bounds how stale an entry can get via the server-side TTL.
func (rc *RedisCache) GetStale(key string) (*models.CacheEntry, bool) {
	return rc.fetch(key)
}

// Set stores an entry with a server-side TTL of its total lifetime. A
// serialization failure is a distinct error class: the in-memory tier may
// still hold a usable copy while other replicas silently miss, so it is
// logged loudly and counted separately.
func (rc *RedisCache) Set(key string, entry *models.CacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		rc.logger.Error("L2 cache entry not serializable, cross-process cache will diverge",
			zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "serialization")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rc.sendTimeout)
	defer cancel()

	ttl := time.Duration(entry.ExpiresAt-entry.UpdatedAt) * time.Millisecond
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := rc.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		rc.logger.Error("Failed to set L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "store")
	}
}

// Delete removes an entry.
func (rc *RedisCache) Delete(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), rc.sendTimeout)
	defer cancel()

	n, err := rc.client.Del(ctx, keyPrefix+key).Result()
	if err != nil {
		rc.logger.Error("Failed to delete L2 cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return n > 0
}

// Clear removes every entry under this service's prefix, leaving unrelated
// keys in a shared redis untouched.
func (rc *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			rc.logger.Error("Failed to scan L2 cache keys for clear", zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				rc.logger.Error("Failed to delete L2 cache keys during clear", zap.Error(err))
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

func (rc *RedisCache) fetch(key string) (*models.CacheEntry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), rc.readTimeout)
	defer cancel()

	data, err := rc.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			rc.logger.Warn("L2 cache get error", zap.String("key", key), zap.Error(err))
			metrics.RecordCacheError("l2", "get")
		}
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		rc.logger.Error("Failed to unmarshal L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "decode")
		rc.client.Del(context.Background(), keyPrefix+key)
		return nil, false
	}
	return &entry, true
}
