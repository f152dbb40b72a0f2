// Package notify tracks logical last-modified markers per scope so polling
// clients can ask "has anything changed since t" without re-fetching
// payloads. The global scope and per-entity scopes are independent: a client
// watching one wallet is not told about unrelated leaderboard churn.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"go-holder-cache/internal/interfaces"
)

// Ensure MemoryNotifier implements interfaces.Notifier
var _ interfaces.Notifier = (*MemoryNotifier)(nil)

// MemoryNotifier keeps markers in process memory. Markers are monotonically
// non-decreasing per scope.
type MemoryNotifier struct {
	clock clock.Clock

	mu      sync.RWMutex
	markers map[string]time.Time
}

// NewMemoryNotifier creates an in-process notifier.
func NewMemoryNotifier(clk clock.Clock) *MemoryNotifier {
	return &MemoryNotifier{
		clock:   clk,
		markers: make(map[string]time.Time),
	}
}

// MarkUpdated records that scope changed now. A marker never moves backward.
func (n *MemoryNotifier) MarkUpdated(_ context.Context, scope string) {
	now := n.clock.Now()
	n.mu.Lock()
	defer n.mu.Unlock()
	if existing, ok := n.markers[scope]; ok && existing.After(now) {
		return
	}
	n.markers[scope] = now
}

// LastModified returns the marker for scope, or the zero time if the scope
// has never been marked.
func (n *MemoryNotifier) LastModified(_ context.Context, scope string) time.Time {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.markers[scope]
}

// HasUpdatesSince reports whether scope changed strictly after since.
func (n *MemoryNotifier) HasUpdatesSince(ctx context.Context, scope string, since time.Time) bool {
	return n.LastModified(ctx, scope).After(since)
}
