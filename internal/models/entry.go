package models

import (
	"fmt"
	"time"
)

// Freshness classifies a cache entry relative to its staleness threshold and TTL.
type Freshness int

const (
	FreshnessAbsent Freshness = iota
	FreshnessFresh
	FreshnessStale
)

func (f Freshness) String() string {
	switch f {
	case FreshnessFresh:
		return "fresh"
	case FreshnessStale:
		return "stale"
	default:
		return "absent"
	}
}

// TTL represents cache time-to-live configuration for a namespace.
type TTL struct {
	Fresh time.Duration // age below which the entry is fresh
	Stale time.Duration // additional window in which stale data may be served
}

// Validate enforces the staleness-window invariant. A zero fresh window is
// legal: it makes every entry immediately stale-but-servable, which is how
// the hot holder list is configured.
func (t TTL) Validate() error {
	if t.Fresh < 0 {
		return fmt.Errorf("fresh TTL must not be negative, got %s", t.Fresh)
	}
	if t.Stale < 0 {
		return fmt.Errorf("stale TTL must not be negative, got %s", t.Stale)
	}
	if t.Total() <= 0 {
		return fmt.Errorf("total TTL must be positive, got %s", t.Total())
	}
	return nil
}

// Total returns the full lifetime of an entry (fresh + stale window).
func (t TTL) Total() time.Duration { return t.Fresh + t.Stale }

// CacheEntry is the stored representation of a cached value.
// Timestamps are unix milliseconds so the entry round-trips through JSON
// without precision loss across tiers.
type CacheEntry struct {
	Data      []byte `json:"data"`
	Negative  bool   `json:"negative,omitempty"` // cached "entity does not exist" result
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	StaleAt   int64  `json:"stale_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// NewEntry builds an entry whose stale/expiry horizons are derived from ttl.
func NewEntry(data []byte, now time.Time, ttl TTL) *CacheEntry {
	ms := now.UnixMilli()
	return &CacheEntry{
		Data:      data,
		CreatedAt: ms,
		UpdatedAt: ms,
		StaleAt:   ms + ttl.Fresh.Milliseconds(),
		ExpiresAt: ms + ttl.Total().Milliseconds(),
	}
}

// NewNegativeEntry caches the fact that a lookup found nothing.
func NewNegativeEntry(now time.Time, ttl time.Duration) *CacheEntry {
	e := NewEntry(nil, now, TTL{Fresh: ttl})
	e.Negative = true
	return e
}

// IsFresh reports whether the entry is within its staleness threshold.
func (e *CacheEntry) IsFresh(now time.Time) bool {
	return now.UnixMilli() <= e.StaleAt
}

// IsExpired reports whether the entry is past its total lifetime.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return now.UnixMilli() > e.ExpiresAt
}

// Age returns how long ago the entry was last refreshed.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-e.UpdatedAt) * time.Millisecond
}
