package expiration

import (
	"time"

	"github.com/krisalay/adaptive-cache/types"
)

/*
AccessTTL implements sliding expiration ("expire after access"). Every
successful read pushes the expiration horizon forward, so entries stay
alive as long as they keep being used and die TTL after the last touch.
*/
type AccessTTL struct {

	// TTL is how long an entry remains valid after its last access.
	TTL time.Duration
}

func (a *AccessTTL) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return ent.IsExpired(now)
}

// OnAccess slides the horizon forward from now.
func (a *AccessTTL) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.ExpireAt = now.Add(a.TTL)
}

// OnWrite starts the sliding window, respecting an explicitly set TTL.
func (a *AccessTTL) OnWrite(ent *types.CacheEntry, now time.Time) {
	if ent.ExpireAt.IsZero() {
		ent.ExpireAt = now.Add(a.TTL)
	}
}
