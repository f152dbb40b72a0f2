package noop

import (
	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// Ensure NoOpStore implements interfaces.Store
var _ interfaces.Store = (*NoOpStore)(nil)

// NoOpStore is a no-operation store used in place of disabled tiers.
type NoOpStore struct{}

// NewNoOpStore creates a new no-operation store instance.
func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

// Get always returns a miss.
func (n *NoOpStore) Get(key string) (*models.CacheEntry, bool) {
	return nil, false
}

// GetStale always returns a miss.
func (n *NoOpStore) GetStale(key string) (*models.CacheEntry, bool) {
	return nil, false
}

// Set does nothing.
func (n *NoOpStore) Set(key string, entry *models.CacheEntry) {
}

// Delete does nothing.
func (n *NoOpStore) Delete(key string) bool {
	return false
}

// Clear does nothing.
func (n *NoOpStore) Clear() {
}
