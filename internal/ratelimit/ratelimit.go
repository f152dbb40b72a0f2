// Package ratelimit implements a per-identity token bucket. Refill is
// computed lazily from elapsed time at check time; no background timer runs.
package ratelimit

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultMaxIdentities bounds the bucket store when no cap is configured.
const defaultMaxIdentities = 10000

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // positive only when denied
}

// Config tunes the token bucket shared by all identities.
type Config struct {
	Burst             int           // bucket capacity
	TokensPerInterval int           // tokens replenished per interval
	Interval          time.Duration // replenishment period
	MaxIdentities     int           // resident bucket cap; <=0 => default
}

type bucket struct {
	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
}

// Limiter tracks a token bucket per identity (user, API key, or client IP).
// Identities are client-supplied, so the bucket store is a bounded LRU rather
// than a map: a request stream rotating through forged identities recycles
// bucket slots instead of growing process memory. A recreated bucket starts
// full, which is exactly what an untouched bucket refills back to, so
// evicting idle identities loses nothing; evicting a still-draining identity
// under capacity pressure forgets at most one burst of debt.
//
// Updates to one identity's bucket are a single critical section; different
// identities never contend on the same lock.
type Limiter struct {
	cfg   Config
	clock clock.Clock

	mu      sync.Mutex // guards bucket creation
	buckets *lru.Cache[string, *bucket]
}

// New creates a limiter with the given budget.
func New(cfg Config, clk clock.Clock) *Limiter {
	if cfg.MaxIdentities <= 0 {
		cfg.MaxIdentities = defaultMaxIdentities
	}
	buckets, _ := lru.New[string, *bucket](cfg.MaxIdentities)
	return &Limiter{
		cfg:     cfg,
		clock:   clk,
		buckets: buckets,
	}
}

// Allowed consumes one token for identity if available.
func (l *Limiter) Allowed(identity string) Decision {
	b := l.bucketFor(identity)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.clock.Now()
	l.refill(b, now)

	if b.tokens > 0 {
		b.tokens--
		return Decision{Allowed: true, Remaining: b.tokens}
	}

	retryAfter := b.lastRefill.Add(l.cfg.Interval).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}
}

// refill credits whole elapsed intervals, capped at the burst limit.
// b.mu must be held.
func (l *Limiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < l.cfg.Interval {
		return
	}
	intervals := int(elapsed / l.cfg.Interval)
	b.tokens += intervals * l.cfg.TokensPerInterval
	if b.tokens > l.cfg.Burst {
		b.tokens = l.cfg.Burst
	}
	b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * l.cfg.Interval)
}

func (l *Limiter) bucketFor(identity string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets.Get(identity); ok {
		return b
	}
	b := &bucket{tokens: l.cfg.Burst, lastRefill: l.clock.Now()}
	l.buckets.Add(identity, b)
	return b
}
