// Package stats tracks quantitative cache accounting: operation counters,
// per-key access timestamps, hit rate and access-age metrics.
package stats

import (
	"sync"
	"time"
)

// CacheStats is the full diagnostics snapshot the cache exposes: the
// accumulator's figures combined with table-level totals and the time of
// the last maintenance pass.
type CacheStats struct {
	Entries       int64
	SizeBytes     int64
	Hits          int64
	Misses        int64
	Sets          int64
	Removes       int64
	HitRate       float64
	AvgAccessTime time.Duration
	LastCleanup   time.Time
}

// Snapshot is a point-in-time view of the accumulator, combined by the
// coordinator with table-level figures (entry count, total size).
type Snapshot struct {
	Hits          int64
	Misses        int64
	Sets          int64
	Removes       int64
	HitRate       float64
	AvgAccessTime time.Duration
	TrackedKeys   int
}

/*
Accumulator counts cache operations and remembers when each key was last
touched. Counters are monotone; only Reset clears them.

All methods are safe for concurrent use. The accumulator is observational:
it never mutates the entry table and the entry table never depends on it.
*/
type Accumulator struct {
	mu         sync.Mutex
	hits       int64
	misses     int64
	sets       int64
	removes    int64
	lastAccess map[string]time.Time
}

func NewAccumulator() *Accumulator {
	return &Accumulator{lastAccess: make(map[string]time.Time)}
}

// RecordHit counts a successful read and refreshes the key's access time.
func (a *Accumulator) RecordHit(key string) {
	a.mu.Lock()
	a.hits++
	a.lastAccess[key] = time.Now()
	a.mu.Unlock()
}

// RecordMiss counts a failed read.
func (a *Accumulator) RecordMiss(key string) {
	a.mu.Lock()
	a.misses++
	a.mu.Unlock()
}

// RecordSet counts a write and refreshes the key's access time.
func (a *Accumulator) RecordSet(key string) {
	a.mu.Lock()
	a.sets++
	a.lastAccess[key] = time.Now()
	a.mu.Unlock()
}

// RecordRemove counts a removal and drops the key's access tracking, so
// removed keys stop contributing to the access-age average.
func (a *Accumulator) RecordRemove(key string) {
	a.mu.Lock()
	a.removes++
	delete(a.lastAccess, key)
	a.mu.Unlock()
}

// HitRate returns hits/(hits+misses), or 0 before any read happened.
func (a *Accumulator) HitRate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return hitRate(a.hits, a.misses)
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot computes the current figures. The access-age average is derived
// on demand from the tracked timestamps rather than maintained incrementally.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Hits:        a.hits,
		Misses:      a.misses,
		Sets:        a.sets,
		Removes:     a.removes,
		HitRate:     hitRate(a.hits, a.misses),
		TrackedKeys: len(a.lastAccess),
	}

	if len(a.lastAccess) > 0 {
		now := time.Now()
		var total time.Duration
		for _, t := range a.lastAccess {
			total += now.Sub(t)
		}
		snap.AvgAccessTime = total / time.Duration(len(a.lastAccess))
	}
	return snap
}

// Reset zeroes every counter and clears access tracking. The entry table
// itself is untouched.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.hits, a.misses, a.sets, a.removes = 0, 0, 0, 0
	a.lastAccess = make(map[string]time.Time)
	a.mu.Unlock()
}
