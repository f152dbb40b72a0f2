package main

import (
	"context"
	"fmt"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-holder-cache/internal/cache"
	"go-holder-cache/internal/cache/l1"
	"go-holder-cache/internal/cache/l2"
	"go-holder-cache/internal/cache/multi"
	"go-holder-cache/internal/cache/noop"
	"go-holder-cache/internal/cache/service"
	"go-holder-cache/internal/config"
	"go-holder-cache/internal/httpserver"
	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/leaderboard"
	"go-holder-cache/internal/metrics"
	"go-holder-cache/internal/notify"
	"go-holder-cache/internal/ratelimit"
	"go-holder-cache/internal/refresh"
	"go-holder-cache/internal/scheduler"
	"go-holder-cache/internal/upstream"
)

// CompositionRoot holds all application dependencies and provides a
// centralized place for dependency injection and service initialization.
type CompositionRoot struct {
	Config *config.Config
	Logger *zap.Logger
	Clock  clock.Clock

	// Cache tiers
	L1Store interfaces.Store
	L2Store interfaces.Store
	Store   interfaces.Store

	// Coordination
	Notifier    interfaces.Notifier
	Coordinator *refresh.Coordinator

	// Services
	CacheService *service.CacheService
	Assembler    *leaderboard.Service
	Limiter      *ratelimit.Limiter
	HTTPServer   *httpserver.Server
	RefreshTask  *scheduler.PeriodicTask

	redisClient *l2.RedisWrapper
}

// NewCompositionRoot creates and initializes all application dependencies,
// wired together in the correct order:
//
//  1. Logger (needed by all other components)
//  2. Configuration
//  3. Cache tiers (L1, L2, composite)
//  4. Change notifier and refresh coordinator
//  5. Cache service, upstream clients, leaderboard assembly
//  6. Rate limiter, HTTP server, background refresh
func NewCompositionRoot() (*CompositionRoot, error) {
	// Optional .env for local development; production injects real env vars.
	_ = godotenv.Load()

	root := &CompositionRoot{Clock: clock.New()}

	if err := root.initLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := root.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := root.initCacheTiers(); err != nil {
		return nil, fmt.Errorf("failed to initialize cache tiers: %w", err)
	}
	root.initCoordination()
	root.initServices()
	root.initHTTPServer()
	root.initRefreshTask()

	return root, nil
}

// initLogger initializes the application logger
func (r *CompositionRoot) initLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	r.Logger = logger
	return nil
}

// loadConfig loads the application configuration
func (r *CompositionRoot) loadConfig() error {
	configPath := os.Getenv("HOLDER_CACHE_CONFIG_FILE")
	if configPath == "" {
		configPath = "/app/holder_cache.yaml"
	}

	cfg, err := config.LoadConfig(configPath, r.Logger)
	if err != nil {
		return err
	}

	r.Config = cfg
	return nil
}

// initCacheTiers builds the L1 and L2 stores and composes them. Disabled or
// unreachable tiers degrade to no-ops so the process always comes up.
func (r *CompositionRoot) initCacheTiers() error {
	if err := r.initL1Store(); err != nil {
		return fmt.Errorf("failed to initialize L1 store: %w", err)
	}
	r.initL2Store()

	r.Store = multi.NewMultiStore(
		[]interfaces.Store{r.L1Store, r.L2Store},
		r.Logger,
		r.Config.MultiCache.EnablePropagation,
	)
	return nil
}

// initL1Store initializes the in-process tier per the configured engine.
func (r *CompositionRoot) initL1Store() error {
	switch r.Config.L1.Engine {
	case "lru":
		store, err := l1.NewLRUCache(r.Config.L1.MaxEntries, r.Clock, r.Logger)
		if err != nil {
			return err
		}
		r.L1Store = store
		r.Logger.Info("LRU cache (L1) initialized", zap.Int("max_entries", r.Config.L1.MaxEntries))
	case "bigcache":
		store, err := l1.NewBigCacheStore(l1.BigCacheConfig{
			SizeMB:     r.Config.L1.SizeMB,
			LifeWindow: r.Config.L1.LifeWindow.Std(),
		}, r.Clock, r.Logger)
		if err != nil {
			return err
		}
		r.L1Store = store
		r.Logger.Info("BigCache (L1) initialized", zap.Int("size_mb", r.Config.L1.SizeMB))
	default:
		r.L1Store = noop.NewNoOpStore()
		r.Logger.Info("L1 cache disabled")
	}
	return nil
}

// initL2Store initializes the Redis tier, falling back to a no-op store when
// Redis is disabled or unreachable at startup.
func (r *CompositionRoot) initL2Store() {
	if !r.Config.Redis.Enabled {
		r.L2Store = noop.NewNoOpStore()
		r.Logger.Info("Redis (L2) disabled")
		return
	}

	redisURL := GetRedisURL(r.Logger, r.Config.Redis.URL)
	client, err := l2.NewRedisWrapper(l2.ConnectionConfig{
		ConnectTimeout: r.Config.Redis.ConnectTimeout.Std(),
		ReadTimeout:    r.Config.Redis.ReadTimeout.Std(),
		SendTimeout:    r.Config.Redis.SendTimeout.Std(),
		PoolSize:       r.Config.Redis.PoolSize,
	}, redisURL, r.Logger)
	if err != nil {
		r.Logger.Warn("Failed to connect to Redis, falling back to no L2 cache",
			zap.String("redis_url", redisURL),
			zap.Error(err))
		r.L2Store = noop.NewNoOpStore()
		return
	}

	r.redisClient = client
	r.L2Store = l2.NewRedisCache(client, r.Clock, r.Config.Redis.ReadTimeout.Std(), r.Config.Redis.SendTimeout.Std(), r.Logger)
	r.Logger.Info("Redis (L2) initialized", zap.String("redis_url", redisURL))
}

// initCoordination wires the change notifier and refresh coordinator. With a
// live Redis connection the last-modified markers are shared across replicas.
func (r *CompositionRoot) initCoordination() {
	if r.redisClient != nil {
		r.Notifier = notify.NewRedisNotifier(r.redisClient, r.Clock, r.Logger)
	} else {
		r.Notifier = notify.NewMemoryNotifier(r.Clock)
	}
	r.Coordinator = refresh.NewCoordinator(r.Store, r.Notifier, r.Clock, r.Logger)
}

// initServices initializes upstream clients and application services.
func (r *CompositionRoot) initServices() {
	holders := upstream.NewHolderIndex(upstream.ClientConfig{
		BaseURL:  r.Config.Upstream.HolderIndexURL,
		APIKey:   r.Config.Upstream.APIKey,
		RetryMax: r.Config.Upstream.RetryMax,
	})
	profiles := upstream.NewProfileStore(upstream.ClientConfig{
		BaseURL:  r.Config.Upstream.ProfileStoreURL,
		APIKey:   r.Config.Upstream.APIKey,
		RetryMax: r.Config.Upstream.RetryMax,
	})
	price := upstream.NewPriceSource(upstream.ClientConfig{
		BaseURL:  r.Config.Upstream.PriceURL,
		APIKey:   r.Config.Upstream.APIKey,
		RetryMax: r.Config.Upstream.RetryMax,
	})

	r.CacheService = service.NewCacheService(r.Store, r.Coordinator, r.Notifier, r.Clock, r.Logger)

	// The price rides through the cache under its own key, so holder-list
	// rebuilds inside the price freshness window share one upstream fetch.
	cachedPrice := leaderboard.NewCachedPriceSource(price, r.CacheService,
		r.Config.Namespaces.Price.TTLPair(),
		r.Config.Namespaces.NegativeTTL.Std(),
		r.Config.Namespaces.Price.RefreshTimeout.Std(),
	)
	r.Assembler = leaderboard.NewService(holders, profiles, cachedPrice, r.Config.Leaderboard.ListLimit, r.Clock, r.Logger)

	if r.Config.RateLimit.Enabled {
		r.Limiter = ratelimit.New(ratelimit.Config{
			Burst:             r.Config.RateLimit.Burst,
			TokensPerInterval: r.Config.RateLimit.TokensPerInterval,
			Interval:          r.Config.RateLimit.Interval.Std(),
			MaxIdentities:     r.Config.RateLimit.MaxIdentities,
		}, r.Clock)
	}
}

// initHTTPServer initializes the HTTP server
func (r *CompositionRoot) initHTTPServer() {
	r.HTTPServer = httpserver.NewServer(
		r.CacheService,
		r.Assembler,
		r.Config.Namespaces,
		r.Limiter,
		r.Clock,
		r.Logger,
	)
}

// initRefreshTask builds the periodic job that keeps the leaderboard warm,
// sweeps dead L1 entries, and reports L1 capacity.
func (r *CompositionRoot) initRefreshTask() {
	ns := r.Config.Namespaces.Holders
	spec := refresh.Spec{
		Key:         cache.HolderListKey(),
		Scope:       interfaces.ScopeGlobal,
		TTL:         ns.TTLPair(),
		NegativeTTL: r.Config.Namespaces.NegativeTTL.Std(),
		Timeout:     ns.RefreshTimeout.Std(),
		Loader:      r.Assembler.BuildHolderList,
	}

	r.RefreshTask = scheduler.New("leaderboard-refresh", r.Config.Leaderboard.RefreshInterval.Std(), r.Clock, r.Logger,
		func(ctx context.Context) {
			if _, err := r.Coordinator.Refresh(ctx, spec); err != nil {
				r.Logger.Warn("Proactive leaderboard refresh failed", zap.Error(err))
			}
			r.collectL1Stats()
		})
}

// collectL1Stats sweeps long-expired L1 entries and publishes capacity gauges.
func (r *CompositionRoot) collectL1Stats() {
	switch store := r.L1Store.(type) {
	case *l1.LRUCache:
		store.SweepExpired(r.Config.Namespaces.Holders.TTL.Std())
		metrics.UpdateL1Capacity(int64(r.Config.L1.MaxEntries), int64(store.Len()))
	case *l1.BigCacheStore:
		capacity, used := store.Stats()
		metrics.UpdateL1Capacity(capacity, used)
	}
}

// Cleanup performs cleanup of all resources
func (r *CompositionRoot) Cleanup() error {
	var errs []error

	if r.Logger != nil {
		if err := r.Logger.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("failed to sync logger: %w", err))
		}
	}

	if store, ok := r.L1Store.(*l1.BigCacheStore); ok {
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close L1 store: %w", err))
		}
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis client: %w", err))
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
