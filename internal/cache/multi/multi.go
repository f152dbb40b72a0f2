package multi

import (
	"go.uber.org/zap"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// Ensure MultiStore implements interfaces.Store
var _ interfaces.Store = (*MultiStore)(nil)

// MultiStore is a composite store that tries multiple tiers in order.
// Reads return the first hit; writes and deletes go to every tier. With
// propagation enabled, a hit in a lower tier is copied into the tiers
// above it so subsequent reads stay local.
type MultiStore struct {
	stores            []interfaces.Store
	logger            *zap.Logger
	enablePropagation bool
}

// NewMultiStore creates a composite store from the given tiers, ordered
// fastest first.
func NewMultiStore(stores []interfaces.Store, logger *zap.Logger, enablePropagation bool) *MultiStore {
	return &MultiStore{
		stores:            stores,
		logger:            logger,
		enablePropagation: enablePropagation,
	}
}

// Get retrieves a non-expired entry from the first tier that has it.
func (ms *MultiStore) Get(key string) (*models.CacheEntry, bool) {
	for i, store := range ms.stores {
		if entry, found := store.Get(key); found {
			ms.propagate(key, entry, i)
			return entry, true
		}
	}
	return nil, false
}

// GetStale retrieves a possibly-expired entry from the first tier that has it.
func (ms *MultiStore) GetStale(key string) (*models.CacheEntry, bool) {
	for _, store := range ms.stores {
		if entry, found := store.GetStale(key); found {
			return entry, true
		}
	}
	return nil, false
}

// Set stores the entry in every tier.
func (ms *MultiStore) Set(key string, entry *models.CacheEntry) {
	if len(ms.stores) == 0 {
		ms.logger.Warn("No cache tiers available for set operation", zap.String("key", key))
		return
	}
	for _, store := range ms.stores {
		store.Set(key, entry)
	}
}

// Delete removes the entry from every tier; reports whether any tier had it.
func (ms *MultiStore) Delete(key string) bool {
	removed := false
	for _, store := range ms.stores {
		if store.Delete(key) {
			removed = true
		}
	}
	return removed
}

// Clear drops every entry from every tier.
func (ms *MultiStore) Clear() {
	for _, store := range ms.stores {
		store.Clear()
	}
}

// propagate copies a hit from tier hitIndex into the faster tiers above it.
func (ms *MultiStore) propagate(key string, entry *models.CacheEntry, hitIndex int) {
	if !ms.enablePropagation || hitIndex == 0 {
		return
	}
	for i := 0; i < hitIndex; i++ {
		ms.stores[i].Set(key, entry)
	}
}
