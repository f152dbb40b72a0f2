package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-holder-cache/internal/cache"
	"go-holder-cache/internal/cache/service"
	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// PriceLookup is the slice of the cache service the price decorator needs.
type PriceLookup interface {
	Lookup(ctx context.Context, key string, opts service.LookupOptions) (*service.Result, error)
}

// Ensure CachedPriceSource implements interfaces.PriceSource
var _ interfaces.PriceSource = (*CachedPriceSource)(nil)

// CachedPriceSource serves the token price through the cache under its own
// key, so every holder-list rebuild inside the price freshness window shares
// one upstream fetch, bounded by the price namespace's own refresh timeout
// rather than the caller's.
type CachedPriceSource struct {
	inner       interfaces.PriceSource
	lookup      PriceLookup
	ttl         models.TTL
	negativeTTL time.Duration
	timeout     time.Duration
}

// NewCachedPriceSource wraps a price source with the cache.
func NewCachedPriceSource(inner interfaces.PriceSource, lookup PriceLookup, ttl models.TTL, negativeTTL, timeout time.Duration) *CachedPriceSource {
	return &CachedPriceSource{
		inner:       inner,
		lookup:      lookup,
		ttl:         ttl,
		negativeTTL: negativeTTL,
		timeout:     timeout,
	}
}

// TokenPrice returns the cached price, stale copies included. The price is
// garnish on the leaderboard, so a stale quote beats no quote.
func (c *CachedPriceSource) TokenPrice(ctx context.Context) (*models.PricePoint, error) {
	res, err := c.lookup.Lookup(ctx, cache.PriceKey(), service.LookupOptions{
		TTL:         c.ttl,
		NegativeTTL: c.negativeTTL,
		Timeout:     c.timeout,
		AllowStale:  true,
		Loader:      c.load,
	})
	if err != nil {
		return nil, err
	}

	var point models.PricePoint
	if err := json.Unmarshal(res.Data, &point); err != nil {
		return nil, fmt.Errorf("decode cached price: %w", err)
	}
	return &point, nil
}

func (c *CachedPriceSource) load(ctx context.Context) ([]byte, error) {
	point, err := c.inner.TokenPrice(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(point)
}
