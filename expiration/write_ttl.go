package expiration

import (
	"time"

	"github.com/krisalay/adaptive-cache/types"
)

/*
WriteTTL expires entries a fixed duration after they were written. Reads do
not extend the lifetime. This is the default strategy: an entry stored with
an explicit TTL keeps it; an entry stored without one receives the
strategy's default.

A zero Default means entries without an explicit TTL never expire.
*/
type WriteTTL struct {

	// Default is applied to entries written without an explicit TTL.
	Default time.Duration
}

func (w *WriteTTL) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return ent.IsExpired(now)
}

// OnAccess does nothing: write-anchored TTLs do not slide.
func (w *WriteTTL) OnAccess(*types.CacheEntry, time.Time) {}

// OnWrite fills in the default expiration horizon, but never overwrites a
// TTL the caller set explicitly.
func (w *WriteTTL) OnWrite(ent *types.CacheEntry, now time.Time) {
	if ent.ExpireAt.IsZero() && w.Default > 0 {
		ent.ExpireAt = now.Add(w.Default)
	}
}
