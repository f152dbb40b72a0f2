package interfaces

import (
	"go-holder-cache/internal/models"
)

// Store defines the contract for cache tier implementations.
//
// Get returns any non-expired entry; implementations must only refresh LRU
// recency for entries that are still fresh, so that stale reads alone can
// never keep an entry alive. GetStale additionally returns entries past
// their total lifetime, for callers that explicitly opted into stale data.
type Store interface {
	Get(key string) (*models.CacheEntry, bool)
	GetStale(key string) (*models.CacheEntry, bool)
	Set(key string, entry *models.CacheEntry)
	Delete(key string) bool
	Clear()
}
