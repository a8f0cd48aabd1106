package eviction

import "github.com/krisalay/adaptive-cache/types"

/*
This file defines how the cache decides what to remove when it runs out of
space.

Policy is the contract every eviction strategy must follow. The cache tells
the policy about reads, writes and removals; when the cache is full it asks
the policy for a victim and then performs the actual removal itself
(table, tag index, timers, stats).
*/
type Policy interface {

	// OnGet is called whenever a key is read from the cache, so strategies
	// that care about recency can reorder their bookkeeping.
	OnGet(string)

	// OnPut is called whenever a key is inserted, so the strategy can start
	// tracking it.
	OnPut(string)

	// Remove is called when a key leaves the cache for any reason other
	// than eviction (explicit invalidation, expiry), so the strategy can
	// drop its bookkeeping for that key.
	Remove(string)

	// Evict returns the key that should be removed next, or "" when the
	// strategy tracks nothing.
	Evict() string
}

// PolicyType identifies the supported eviction strategies.
type PolicyType string

const (
	// Adaptive evicts the key with the lowest composite score
	// (priority, frequency, freshness, size). Ties go to the least
	// recently accessed key. This is the default.
	Adaptive PolicyType = "ADAPTIVE"

	// LRU evicts the key that has not been accessed for the longest time,
	// ignoring priority and size entirely.
	LRU PolicyType = "LRU"
)

// EntryLookup resolves a tracked key to its live entry. The adaptive policy
// uses it to score candidates at eviction time; a nil result means the key
// is already gone and is skipped.
type EntryLookup func(key string) *types.CacheEntry

// New builds the eviction policy for the given type. lookup is only needed
// by score-based strategies; LRU ignores it.
func New(t PolicyType, lookup EntryLookup) Policy {
	switch t {
	case LRU:
		return newLRU()
	case Adaptive, "":
		return newAdaptive(lookup)
	default:
		panic("unknown eviction policy: " + string(t))
	}
}
