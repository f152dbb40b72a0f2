// Package policy implements the freshness classification rule that drives
// stale-while-revalidate behavior. Classification is a pure function of the
// entry's timestamps and the current time; it never touches storage.
package policy

import (
	"time"

	"go-holder-cache/internal/models"
)

// Classify maps an entry to fresh, stale, or absent.
//
// An entry within its staleness threshold is fresh. Past the threshold but
// within its total lifetime it is stale: servable, but a background refresh
// should be scheduled. Past its lifetime it is absent, unless the caller
// explicitly allows stale reads, in which case any surviving copy is served
// as stale.
func Classify(entry *models.CacheEntry, now time.Time, allowStale bool) models.Freshness {
	if entry == nil {
		return models.FreshnessAbsent
	}
	if entry.IsFresh(now) {
		return models.FreshnessFresh
	}
	if !entry.IsExpired(now) {
		return models.FreshnessStale
	}
	if allowStale {
		return models.FreshnessStale
	}
	return models.FreshnessAbsent
}

// ShouldRefresh reports whether a background recompute should be scheduled
// for the given classification. Fresh entries never trigger one; stale
// entries always do, subject to single-flight deduplication downstream.
func ShouldRefresh(f models.Freshness) bool {
	return f == models.FreshnessStale
}
