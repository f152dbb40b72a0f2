package interfaces

import (
	"context"
	"time"
)

// ScopeGlobal is the notifier scope covering the whole leaderboard.
const ScopeGlobal = "global"

// Notifier tracks logical last-modified timestamps per scope so polling
// clients can cheaply detect change without re-fetching full payloads.
//
// Markers are monotonically non-decreasing per scope. Implementations backed
// by remote storage fail open: when the backing store is unreachable,
// LastModified reports "now" so clients err on the side of re-fetching.
type Notifier interface {
	MarkUpdated(ctx context.Context, scope string)
	LastModified(ctx context.Context, scope string) time.Time
	HasUpdatesSince(ctx context.Context, scope string, since time.Time) bool
}
