package l2

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// fakeRedis is a map-backed stand-in for the redis client, tracking the TTL
// each key was written with.
type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failing bool
}

var _ interfaces.RedisClient = (*fakeRedis)(nil)

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failing {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failing {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	switch v := value.(type) {
	case string:
		f.data[key] = v
	case []byte:
		f.data[key] = string(v)
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.failing {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			delete(f.ttls, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	if f.failing {
		return redis.NewScanCmdResult(nil, 0, errors.New("connection refused"))
	}
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for key := range f.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Close() error { return nil }

func newTestRedisCache() (*RedisCache, *fakeRedis) {
	backend := newFakeRedis()
	return NewRedisCache(backend, clock.New(), 2*time.Second, 2*time.Second, zap.NewNop()), backend
}

func TestRedisCache_Get_FreshnessFollowsInjectedClock(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	backend := newFakeRedis()
	cache := NewRedisCache(backend, mock, 2*time.Second, 2*time.Second, zap.NewNop())

	ttl := models.TTL{Fresh: 30 * time.Second, Stale: 90 * time.Second}
	cache.Set("k", models.NewEntry([]byte("v"), mock.Now(), ttl))

	_, found := cache.Get("k")
	require.True(t, found)

	// Advancing the mock past the total lifetime expires the entry without
	// any real time passing.
	mock.Add(3 * time.Minute)
	_, found = cache.Get("k")
	assert.False(t, found)

	entry, found := cache.GetStale("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), entry.Data)
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, backend := newTestRedisCache()
	ttl := models.TTL{Fresh: 30 * time.Second, Stale: 90 * time.Second}

	cache.Set("holders:list", models.NewEntry([]byte(`{"holders":[]}`), time.Now(), ttl))

	entry, found := cache.Get("holders:list")
	require.True(t, found)
	assert.Equal(t, []byte(`{"holders":[]}`), entry.Data)

	// Keys are namespaced; the server-side TTL is the entry's total lifetime.
	assert.Contains(t, backend.data, "hc:holders:list")
	assert.Equal(t, 2*time.Minute, backend.ttls["hc:holders:list"])
}

func TestRedisCache_Get_Miss(t *testing.T) {
	cache, _ := newTestRedisCache()

	_, found := cache.Get("missing")
	assert.False(t, found)
}

func TestRedisCache_Get_ExpiredIsAMiss(t *testing.T) {
	cache, _ := newTestRedisCache()
	ttl := models.TTL{Fresh: 30 * time.Second, Stale: 90 * time.Second}

	cache.Set("k", models.NewEntry([]byte("v"), time.Now().Add(-time.Hour), ttl))

	_, found := cache.Get("k")
	assert.False(t, found)

	entry, found := cache.GetStale("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), entry.Data)
}

func TestRedisCache_Get_BackendErrorIsAMiss(t *testing.T) {
	cache, backend := newTestRedisCache()
	backend.failing = true

	_, found := cache.Get("k")
	assert.False(t, found)
}

func TestRedisCache_Get_CorruptEntrySelfHeals(t *testing.T) {
	cache, backend := newTestRedisCache()
	backend.data["hc:k"] = "{not json"

	_, found := cache.Get("k")
	assert.False(t, found)
	assert.NotContains(t, backend.data, "hc:k")
}

func TestRedisCache_Delete(t *testing.T) {
	cache, _ := newTestRedisCache()
	cache.Set("k", models.NewEntry([]byte("v"), time.Now(), models.TTL{Fresh: time.Minute}))

	assert.True(t, cache.Delete("k"))
	assert.False(t, cache.Delete("k"))
}

func TestRedisCache_Clear_OnlyTouchesOwnPrefix(t *testing.T) {
	cache, backend := newTestRedisCache()
	cache.Set("a", models.NewEntry([]byte("v"), time.Now(), models.TTL{Fresh: time.Minute}))
	cache.Set("b", models.NewEntry([]byte("v"), time.Now(), models.TTL{Fresh: time.Minute}))
	backend.data["other-service:key"] = "untouched"

	cache.Clear()

	_, found := cache.Get("a")
	assert.False(t, found)
	assert.Contains(t, backend.data, "other-service:key")
}

func TestRedisCache_EntryRoundTripsNegativeFlag(t *testing.T) {
	cache, _ := newTestRedisCache()

	cache.Set("profile:ghost", models.NewNegativeEntry(time.Now(), time.Minute))

	entry, found := cache.Get("profile:ghost")
	require.True(t, found)
	assert.True(t, entry.Negative)
	assert.Nil(t, entry.Data)
}

func TestRedisCache_StoredFormatIsJSON(t *testing.T) {
	cache, backend := newTestRedisCache()
	cache.Set("k", models.NewEntry([]byte("v"), time.Now(), models.TTL{Fresh: time.Minute}))

	var entry models.CacheEntry
	require.NoError(t, json.Unmarshal([]byte(backend.data["hc:k"]), &entry))
	assert.Equal(t, []byte("v"), entry.Data)
}
