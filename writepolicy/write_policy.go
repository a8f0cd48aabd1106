package writepolicy

import "context"

/*
A write policy decides what happens toward the backing store when the cache
accepts a write.

  - Write-through: propagate immediately, on the caller's goroutine
  - Write-back: queue and propagate asynchronously

The cache engine does not care which policy is configured; it calls OnWrite
and moves on. With no policy configured, writes stay in memory only.
*/
type WritePolicy interface {

	// OnWrite is called after the cache has stored a key.
	OnWrite(ctx context.Context, key string, value any)

	// Close is called when the cache shuts down. Policies with pending
	// asynchronous work must flush it here.
	Close()
}
