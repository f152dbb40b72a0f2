// Package service orchestrates the read-through, stale-tolerant lookup flow:
// consult the entry store, classify freshness, serve what is servable, and
// hand recomputation to the refresh coordinator. Callers never block on a
// recompute as long as any usable copy exists.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-holder-cache/internal/cache"
	"go-holder-cache/internal/cache/policy"
	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/metrics"
	"go-holder-cache/internal/models"
	"go-holder-cache/internal/refresh"
)

// LookupOptions carries the per-namespace policy for one lookup.
type LookupOptions struct {
	TTL         models.TTL
	NegativeTTL time.Duration
	Timeout     time.Duration // bound on a blocking recompute wait
	AllowStale  bool          // serve entries past their total lifetime
	Scope       string        // notifier scope bumped on successful refresh
	Loader      refresh.LoaderFunc
	Emergency   []byte // served when nothing else is usable; nil => hard miss
}

// Result is the outcome of a cache lookup.
type Result struct {
	Data   []byte
	Cached bool          // served from cache rather than a fresh recompute
	Stale  bool          // served past its staleness threshold
	Age    time.Duration // time since the entry was last refreshed
}

// CacheService wires the entry store, freshness policy, refresh coordinator,
// and change notifier into one lookup surface for the HTTP layer.
type CacheService struct {
	store       interfaces.Store
	coordinator *refresh.Coordinator
	notifier    interfaces.Notifier
	clock       clock.Clock
	logger      *zap.Logger
}

// NewCacheService creates the cache service.
func NewCacheService(store interfaces.Store, coordinator *refresh.Coordinator, notifier interfaces.Notifier, clk clock.Clock, logger *zap.Logger) *CacheService {
	return &CacheService{
		store:       store,
		coordinator: coordinator,
		notifier:    notifier,
		clock:       clk,
		logger:      logger,
	}
}

// Lookup serves key according to the stale-while-revalidate discipline:
//
//	fresh  -> serve, no refresh
//	stale  -> serve, schedule one background refresh (single-flight)
//	absent -> block on a refresh bounded by opts.Timeout, then fall back to
//	          the newest surviving copy or the emergency payload
//
// A cached negative entry surfaces as models.ErrNotFound without touching
// the upstream.
func (s *CacheService) Lookup(ctx context.Context, key string, opts LookupOptions) (*Result, error) {
	ns := cache.Namespace(key)
	metrics.RecordCacheRequest(ns)

	now := s.clock.Now()
	entry, found := s.store.Get(key)
	if !found && opts.AllowStale {
		entry, found = s.store.GetStale(key)
	}
	if !found {
		entry = nil
	}

	switch policy.Classify(entry, now, opts.AllowStale) {
	case models.FreshnessFresh:
		metrics.RecordCacheHit(ns, "fresh")
		if entry.Negative {
			return nil, models.ErrNotFound
		}
		return &Result{Data: entry.Data, Cached: true, Age: entry.Age(now)}, nil

	case models.FreshnessStale:
		metrics.RecordCacheHit(ns, "stale")
		s.coordinator.Schedule(s.spec(key, opts))
		if entry.Negative {
			return nil, models.ErrNotFound
		}
		return &Result{Data: entry.Data, Cached: true, Stale: true, Age: entry.Age(now)}, nil

	default:
		metrics.RecordCacheMiss(ns)
		return s.lookupMiss(ctx, key, opts)
	}
}

// Invalidate force-evicts one key from every tier.
func (s *CacheService) Invalidate(key string) bool {
	removed := s.store.Delete(key)
	s.logger.Info("Cache key invalidated", zap.String("key", key), zap.Bool("removed", removed))
	return removed
}

// ClearAll force-evicts every entry from every tier.
func (s *CacheService) ClearAll() {
	s.store.Clear()
	s.logger.Warn("All cache entries cleared")
}

// LastModified exposes the change notifier to the HTTP layer.
func (s *CacheService) LastModified(ctx context.Context, scope string) time.Time {
	return s.notifier.LastModified(ctx, scope)
}

// HasUpdatesSince reports whether scope changed strictly after since.
func (s *CacheService) HasUpdatesSince(ctx context.Context, scope string, since time.Time) bool {
	return s.notifier.HasUpdatesSince(ctx, scope, since)
}

// TaskFor exposes refresh task state for the ops surface.
func (s *CacheService) TaskFor(key string) (refresh.Task, bool) {
	return s.coordinator.TaskFor(key)
}

// lookupMiss blocks on a refresh, then degrades through stale data and the
// emergency payload before giving up.
func (s *CacheService) lookupMiss(ctx context.Context, key string, opts LookupOptions) (*Result, error) {
	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	data, err := s.coordinator.Refresh(waitCtx, s.spec(key, opts))
	if err == nil {
		return &Result{Data: data}, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrNotFound
	}

	// The refresh failed or we stopped waiting. Serve the newest surviving
	// copy even past expiry; degraded beats failed for latency-sensitive
	// callers.
	if entry, ok := s.store.GetStale(key); ok && !entry.Negative {
		s.logger.Warn("Serving expired cache entry after failed refresh",
			zap.String("key", key), zap.Error(err))
		return &Result{Data: entry.Data, Cached: true, Stale: true, Age: entry.Age(s.clock.Now())}, nil
	}
	if opts.Emergency != nil {
		s.logger.Warn("Serving emergency payload, no cached value exists",
			zap.String("key", key), zap.Error(err))
		return &Result{Data: opts.Emergency, Stale: true}, nil
	}
	return nil, fmt.Errorf("%w: %v", models.ErrNoUsableValue, err)
}

func (s *CacheService) spec(key string, opts LookupOptions) refresh.Spec {
	return refresh.Spec{
		Key:         key,
		Scope:       opts.Scope,
		TTL:         opts.TTL,
		NegativeTTL: opts.NegativeTTL,
		Timeout:     opts.Timeout,
		Loader:      opts.Loader,
	}
}
