package l2

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"go-holder-cache/internal/interfaces"
)

// Ensure RedisWrapper implements interfaces.RedisClient
var _ interfaces.RedisClient = (*RedisWrapper)(nil)

// ConnectionConfig holds redis connection tuning.
type ConnectionConfig struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	SendTimeout    time.Duration
	PoolSize       int
}

// RedisWrapper wraps redis.Client to implement interfaces.RedisClient.
type RedisWrapper struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisWrapper connects to the redis instance at redisURL and verifies
// connectivity before returning.
func NewRedisWrapper(cfg ConnectionConfig, redisURL string, logger *zap.Logger) (*RedisWrapper, error) {
	parsedURL, err := url.Parse(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	host := parsedURL.Hostname()
	port := parsedURL.Port()
	if port == "" {
		port = "6379"
	}

	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		DialTimeout:  cfg.ConnectTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.SendTimeout,
		PoolSize:     cfg.PoolSize,
	}

	if parsedURL.User != nil {
		if password, ok := parsedURL.User.Password(); ok {
			opts.Password = password
		}
	}
	if len(parsedURL.Path) > 1 {
		if db, err := strconv.Atoi(parsedURL.Path[1:]); err == nil {
			opts.DB = db
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	logger.Info("Connected to redis",
		zap.String("address", opts.Addr),
		zap.Duration("connect_timeout", cfg.ConnectTimeout),
		zap.Int("pool_size", cfg.PoolSize))

	return &RedisWrapper{client: client, logger: logger}, nil
}

// Get retrieves a value by key.
func (r *RedisWrapper) Get(ctx context.Context, key string) *redis.StringCmd {
	return r.client.Get(ctx, key)
}

// Set stores a value with expiration.
func (r *RedisWrapper) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return r.client.Set(ctx, key, value, expiration)
}

// Del deletes one or more keys.
func (r *RedisWrapper) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return r.client.Del(ctx, keys...)
}

// Scan iterates keys matching a pattern.
func (r *RedisWrapper) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	return r.client.Scan(ctx, cursor, match, count)
}

// Ping tests connectivity.
func (r *RedisWrapper) Ping(ctx context.Context) *redis.StatusCmd {
	return r.client.Ping(ctx)
}

// Close closes the client connection.
func (r *RedisWrapper) Close() error {
	return r.client.Close()
}
