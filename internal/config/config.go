package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"go-holder-cache/internal/models"
)

// Duration is a yaml-parsable wrapper around time.Duration ("30s", "5m").
type Duration time.Duration

// UnmarshalYAML implements custom YAML unmarshaling for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", str, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	ListenAddr   string   `yaml:"listen_addr"`
	MetricsAddr  string   `yaml:"metrics_addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
}

// L1Config selects and tunes the in-process tier.
type L1Config struct {
	Engine     string   `yaml:"engine" validate:"oneof=lru bigcache none"`
	MaxEntries int      `yaml:"max_entries" validate:"gte=0"`
	SizeMB     int      `yaml:"size_mb" validate:"gte=0"`
	LifeWindow Duration `yaml:"life_window"`
}

// RedisConfig tunes the distributed tier.
type RedisConfig struct {
	Enabled        bool     `yaml:"enabled"`
	URL            string   `yaml:"url"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	ReadTimeout    Duration `yaml:"read_timeout"`
	SendTimeout    Duration `yaml:"send_timeout"`
	PoolSize       int      `yaml:"pool_size" validate:"gte=0"`
}

// MultiCacheConfig tunes the composite tier.
type MultiCacheConfig struct {
	EnablePropagation bool `yaml:"enable_propagation"`
}

// NamespaceConfig is the freshness policy for one key namespace. An entry is
// fresh up to StaleThreshold, stale-but-servable up to TTL. StaleThreshold is
// a pointer so an explicit "0s" (serve-stale-always) survives defaulting.
type NamespaceConfig struct {
	TTL            Duration  `yaml:"ttl"`
	StaleThreshold *Duration `yaml:"stale_threshold"`
	RefreshTimeout Duration  `yaml:"refresh_timeout"`
}

// Stale returns the configured staleness threshold, zero when unset.
func (n NamespaceConfig) Stale() time.Duration {
	if n.StaleThreshold == nil {
		return 0
	}
	return n.StaleThreshold.Std()
}

// TTLPair converts the namespace policy to the entry-store TTL tuple.
func (n NamespaceConfig) TTLPair() models.TTL {
	return models.TTL{
		Fresh: n.Stale(),
		Stale: n.TTL.Std() - n.Stale(),
	}
}

func (n NamespaceConfig) validate(name string) error {
	if n.TTL <= 0 {
		return fmt.Errorf("namespace %s: ttl must be positive", name)
	}
	if n.Stale() > n.TTL.Std() {
		return fmt.Errorf("namespace %s: stale_threshold %s exceeds ttl %s",
			name, n.Stale(), n.TTL.Std())
	}
	if err := n.TTLPair().Validate(); err != nil {
		return fmt.Errorf("namespace %s: %w", name, err)
	}
	return nil
}

// NamespacesConfig groups the per-namespace policies.
type NamespacesConfig struct {
	Holders     NamespaceConfig `yaml:"holders"`
	Holder      NamespaceConfig `yaml:"holder"`
	Profile     NamespaceConfig `yaml:"profile"`
	Price       NamespaceConfig `yaml:"price"`
	NegativeTTL Duration        `yaml:"negative_ttl"`
}

// RateLimitConfig tunes the per-identity token bucket.
type RateLimitConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Burst             int      `yaml:"burst" validate:"gte=1"`
	TokensPerInterval int      `yaml:"tokens_per_interval" validate:"gte=1"`
	Interval          Duration `yaml:"interval"`
	MaxIdentities     int      `yaml:"max_identities" validate:"gte=1"`
}

// UpstreamConfig locates the hosted services.
type UpstreamConfig struct {
	HolderIndexURL  string `yaml:"holder_index_url" validate:"required,url"`
	ProfileStoreURL string `yaml:"profile_store_url" validate:"required,url"`
	PriceURL        string `yaml:"price_url" validate:"required,url"`
	APIKey          string `yaml:"api_key"`
	RetryMax        int    `yaml:"retry_max" validate:"gte=0"`
}

// LeaderboardConfig tunes leaderboard assembly and proactive refresh.
type LeaderboardConfig struct {
	ListLimit       int      `yaml:"list_limit" validate:"gte=1"`
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// Config is the main configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	L1          L1Config          `yaml:"l1"`
	Redis       RedisConfig       `yaml:"redis"`
	MultiCache  MultiCacheConfig  `yaml:"multi_cache"`
	Namespaces  NamespacesConfig  `yaml:"namespaces"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Upstream    UpstreamConfig    `yaml:"upstream"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
}

// LoadConfig loads, defaults, and validates configuration from a file path.
// Construction fails when any namespace's stale threshold exceeds its TTL.
func LoadConfig(configPath string, logger *zap.Logger) (*Config, error) {
	logger.Info("Loading configuration", zap.String("path", configPath))

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var config Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate enforces structural and cross-field invariants.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	namespaces := map[string]NamespaceConfig{
		"holders": c.Namespaces.Holders,
		"holder":  c.Namespaces.Holder,
		"profile": c.Namespaces.Profile,
		"price":   c.Namespaces.Price,
	}
	for name, ns := range namespaces {
		if err := ns.validate(name); err != nil {
			return err
		}
	}
	if c.Namespaces.NegativeTTL <= 0 {
		return fmt.Errorf("namespaces: negative_ttl must be positive")
	}
	return nil
}

// applyDefaults sets default values for missing configuration.
func (c *Config) applyDefaults() {
	setStr(&c.Server.ListenAddr, ":8080")
	setStr(&c.Server.MetricsAddr, ":9090")
	setDur(&c.Server.ReadTimeout, 30*time.Second)
	setDur(&c.Server.WriteTimeout, 30*time.Second)
	setDur(&c.Server.IdleTimeout, 60*time.Second)

	setStr(&c.L1.Engine, "lru")
	setInt(&c.L1.MaxEntries, 10000)
	setInt(&c.L1.SizeMB, 64)
	setDur(&c.L1.LifeWindow, 10*time.Minute)

	setStr(&c.Redis.URL, "redis://localhost:6379")
	setDur(&c.Redis.ConnectTimeout, 5*time.Second)
	setDur(&c.Redis.ReadTimeout, 2*time.Second)
	setDur(&c.Redis.SendTimeout, 2*time.Second)
	setInt(&c.Redis.PoolSize, 10)

	// The holder list is hot and volatile: near-zero staleness threshold,
	// short lifetime. Profiles change rarely: one hour with a five-minute
	// freshness window.
	defaultNS(&c.Namespaces.Holders, 30*time.Second, 0, 10*time.Second)
	defaultNS(&c.Namespaces.Holder, 5*time.Minute, time.Minute, 8*time.Second)
	defaultNS(&c.Namespaces.Profile, time.Hour, 5*time.Minute, 8*time.Second)
	defaultNS(&c.Namespaces.Price, time.Minute, 30*time.Second, 8*time.Second)
	setDur(&c.Namespaces.NegativeTTL, time.Minute)

	setInt(&c.RateLimit.Burst, 10)
	setInt(&c.RateLimit.TokensPerInterval, 5)
	setDur(&c.RateLimit.Interval, 2*time.Minute)
	setInt(&c.RateLimit.MaxIdentities, 10000)

	setInt(&c.Upstream.RetryMax, 3)

	setInt(&c.Leaderboard.ListLimit, 100)
	setDur(&c.Leaderboard.RefreshInterval, 30*time.Second)
}

func defaultNS(ns *NamespaceConfig, ttl, stale, timeout time.Duration) {
	setDur(&ns.TTL, ttl)
	// An explicit "0s" stays zero; only an absent threshold is defaulted.
	if ns.StaleThreshold == nil {
		d := Duration(stale)
		ns.StaleThreshold = &d
	}
	setDur(&ns.RefreshTimeout, timeout)
}

func setStr(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setDur(v *Duration, def time.Duration) {
	if *v == 0 {
		*v = Duration(def)
	}
}
