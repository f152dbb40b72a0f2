package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/metrics"
)

const (
	markerPrefix = "hc:lastmod:"

	// markerTTL bounds marker lifetime so abandoned scopes (wallets nobody
	// watches anymore) do not accumulate forever.
	markerTTL = 30 * 24 * time.Hour
)

// Ensure RedisNotifier implements interfaces.Notifier
var _ interfaces.Notifier = (*RedisNotifier)(nil)

// RedisNotifier keeps markers in redis so every replica observes the same
// logical clock. A local memory layer shields reads from transient backend
// errors and guards per-process monotonicity; when redis is unreachable,
// LastModified fails open to "now" so clients assume there may be updates
// rather than failing the request.
type RedisNotifier struct {
	client interfaces.RedisClient
	local  *MemoryNotifier
	clock  clock.Clock
	logger *zap.Logger
}

// NewRedisNotifier creates a redis-backed notifier.
func NewRedisNotifier(client interfaces.RedisClient, clk clock.Clock, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		local:  NewMemoryNotifier(clk),
		clock:  clk,
		logger: logger,
	}
}

// MarkUpdated records that scope changed now, locally and in redis.
func (n *RedisNotifier) MarkUpdated(ctx context.Context, scope string) {
	n.local.MarkUpdated(ctx, scope)
	now := n.clock.Now()
	if err := n.client.Set(ctx, markerPrefix+scope, now.UnixMilli(), markerTTL).Err(); err != nil {
		n.logger.Warn("Failed to publish last-modified marker",
			zap.String("scope", scope), zap.Error(err))
	}
}

// LastModified returns the newest marker known for scope. On backend failure
// it returns "now" (fail open): a spurious client refetch is preferred over
// a failed request.
func (n *RedisNotifier) LastModified(ctx context.Context, scope string) time.Time {
	localTS := n.local.LastModified(ctx, scope)

	val, err := n.client.Get(ctx, markerPrefix+scope).Result()
	if err == redis.Nil {
		return localTS
	}
	if err != nil {
		n.logger.Warn("Last-modified lookup failed, assuming updated",
			zap.String("scope", scope), zap.Error(err))
		metrics.NotifierFailOpen.Inc()
		return n.clock.Now()
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		n.logger.Warn("Malformed last-modified marker",
			zap.String("scope", scope), zap.String("value", val))
		return n.clock.Now()
	}
	remoteTS := time.UnixMilli(ms)
	if remoteTS.After(localTS) {
		return remoteTS
	}
	return localTS
}

// HasUpdatesSince reports whether scope changed strictly after since.
func (n *RedisNotifier) HasUpdatesSince(ctx context.Context, scope string, since time.Time) bool {
	return n.LastModified(ctx, scope).After(since)
}
