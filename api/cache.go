package api

import (
	"context"
	"time"

	"github.com/krisalay/adaptive-cache/cleanup"
	"github.com/krisalay/adaptive-cache/stats"
)

/*
Cache is the PUBLIC data-plane contract of the adaptive cache. Everything
behind it (scoring, eviction, tag indexing, in-flight de-duplication,
expiration timers) stays an implementation detail.
*/
type Cache interface {

	/*
		Get retrieves the value stored under key.

		BEHAVIOR:
		---------
		- Live entry: returns (value, true), counts a hit, refreshes the
		  entry's access time, frequency and recency position.
		- Absent or expired entry: returns (nil, false) and counts a miss.
		  An expired entry is removed on the way out.

		A miss is an explicit absence, never an error.
	*/
	Get(key string) (any, bool)

	/*
		Set stores a value under key with the cache's default TTL and
		priority.

		The value's footprint is estimated first; values failing the
		reasonable-size check are rejected with an error distinguishable
		from success, never silently truncated. A successful Set may evict
		the lowest-scoring entries to stay within capacity.
	*/
	Set(ctx context.Context, key string, value any) error

	// SetWithTTL stores a value with an explicit time-to-live. The entry
	// expires ttl after this write, regardless of later reads.
	SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// SetWithOptions stores a value with full control over TTL, priority
	// and tags.
	SetWithOptions(ctx context.Context, key string, value any, opts SetOptions) error

	/*
		SetWithTags performs a normal Set and registers the key under every
		given tag, replacing any tags from a previous SetWithTags of the
		same key.
	*/
	SetWithTags(ctx context.Context, key string, value any, tagList []string, ttl time.Duration) error

	/*
		GetOrCompute returns the live value for key, or runs compute to
		produce, store and return it.

		GUARANTEE: at most one computation per key runs at a time. If N
		callers arrive while no live entry exists, compute runs once and
		all N receive the same value, or the same error. The in-flight
		slot is released on success and failure alike, so a failed key is
		immediately retryable.
	*/
	GetOrCompute(ctx context.Context, key string, compute func(context.Context) (any, error)) (any, error)

	// Invalidate removes one key. Idempotent; reports whether a live entry
	// was actually removed.
	Invalidate(key string) bool

	// InvalidateByTag removes every key currently carrying the tag and
	// clears the tag from the index. Returns how many entries went away.
	InvalidateByTag(tag string) int

	// InvalidatePattern removes every key matching the glob pattern
	// (e.g. "user:*"). Returns the removal count, or an error for a
	// malformed pattern.
	InvalidatePattern(pattern string) (int, error)

	// InvalidateAll clears the whole cache. Returns how many entries were
	// removed.
	InvalidateAll() int

	// KeysByTag returns a read-only snapshot of the keys under tag. It
	// does not touch access bookkeeping.
	KeysByTag(tag string) []string

	/*
		Expire sets or replaces the TTL of an existing key, anchored at
		now. Returns false when the key does not exist.
	*/
	Expire(key string, ttl time.Duration) bool

	/*
		TTL returns the remaining time-to-live of a key.

		Redis-compatible semantics:
		> 0 : remaining duration
		 -1 : key exists but carries no TTL
		 -2 : key does not exist or is already expired
	*/
	TTL(key string) time.Duration

	/*
		Close shuts the cache down: stops background maintenance, cancels
		every per-key expiration timer, flushes pending write-back work and
		releases all entries. Using the cache after Close is a caller
		error.
	*/
	Close()
}

// SetOptions carries the optional knobs for a write.
type SetOptions struct {

	// TTL is the explicit time-to-live. Zero means "use the cache
	// default"; entries without any TTL never expire.
	TTL time.Duration

	// Priority ranks the entry for eviction, clamped to [0,100]. Negative
	// values mean "use the cache default".
	Priority int

	// Tags registers the key for bulk invalidation.
	Tags []string
}

/*
Diagnostics is the read-only observability surface. None of these calls
mutate cached data; they may update internal diagnostic bookkeeping only.
*/
type Diagnostics interface {

	// Stats returns the quantitative accounting snapshot: entry and byte
	// totals, hit rate, average access age, last cleanup time.
	Stats() stats.CacheStats

	// ResetStats zeroes all counters and access tracking without touching
	// the entry table.
	ResetStats()

	// CleanupReport returns the rolling maintenance event log.
	CleanupReport() []cleanup.Event

	// CleanupStats summarizes maintenance history.
	CleanupStats() cleanup.Stats
}

// Lifecycle controls background maintenance for a cache instance.
type Lifecycle interface {
	StartBackgroundCleanup()
	StopBackgroundCleanup()
}
