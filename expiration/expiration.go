// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/adaptive-cache/types"
)

/*
Strategy decides when an entry stops being valid and how reads and writes
move that horizon. The entry's ExpireAt field is the single source of truth
for expiration; strategies only read and rewrite that field, they keep no
TTL table of their own.
*/
type Strategy interface {

	// IsExpired reports whether the entry is expired at the given instant.
	IsExpired(*types.CacheEntry, time.Time) bool

	// OnAccess is called whenever an entry is read successfully.
	OnAccess(*types.CacheEntry, time.Time)

	// OnWrite is called whenever an entry is written or replaced.
	OnWrite(*types.CacheEntry, time.Time)
}
