package interfaces

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisClient is the subset of the redis client used by the L2 tier and the
// distributed change notifier.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}
