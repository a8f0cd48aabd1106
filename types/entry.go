package types

import (
	"math"
	"time"
)

// Scoring weights for CacheEntry.AdaptiveScore.
//
// The exact constants matter less than the shape: raising priority,
// raising frequency, lowering age, or lowering size must each raise
// the score while the other inputs are held fixed.
const (
	weightPriority    = 2.0
	weightFrequency   = 1.5
	weightFreshness   = 1.0
	weightSizePenalty = 0.1
)

// Priority bounds for a cache entry. Values outside the range are clamped
// at construction time, never rejected.
const (
	MinPriority     = 0
	MaxPriority     = 100
	DefaultPriority = 50
)

/*
CacheEntry is one stored value plus the metadata the cache needs to rank it:
how big it is, how important the caller said it is, how often and how
recently it has been used, and when it stops being valid.

The identity fields (Key, Value, SizeBytes, Priority, CreatedAt) never change
after construction. LastAccessedAt and Frequency are intentionally mutable;
they are only written under the owning cache's lock.
*/
type CacheEntry struct {
	Key            string
	Value          any
	SizeBytes      int64
	Priority       int
	Frequency      int64
	CreatedAt      time.Time
	LastAccessedAt time.Time
	ExpireAt       time.Time // zero => no TTL
}

// NewCacheEntry builds an entry with frequency 1 and both timestamps set to
// now. Priority is clamped into [MinPriority, MaxPriority]. A ttl of zero or
// less means the entry never expires.
func NewCacheEntry(key string, value any, sizeBytes int64, priority int, ttl time.Duration) *CacheEntry {
	now := time.Now()
	ent := &CacheEntry{
		Key:            key,
		Value:          value,
		SizeBytes:      sizeBytes,
		Priority:       clampPriority(priority),
		Frequency:      1,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	if ttl > 0 {
		ent.ExpireAt = now.Add(ttl)
	}
	return ent
}

func clampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// IsExpired reports whether the entry's TTL has elapsed at the given instant.
// Entries without a TTL never expire.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !e.ExpireAt.IsZero() && now.After(e.ExpireAt)
}

// UpdateAccess marks the entry as just used.
func (e *CacheEntry) UpdateAccess(now time.Time) {
	e.LastAccessedAt = now
}

// IncrementFrequency counts one more access and refreshes the access time.
func (e *CacheEntry) IncrementFrequency(now time.Time) {
	e.Frequency++
	e.UpdateAccess(now)
}

// AgeSeconds returns the entry age in whole seconds, never less than 1.
// The floor keeps the freshness term bounded for entries created within
// the last second.
func (e *CacheEntry) AgeSeconds(now time.Time) int64 {
	ms := now.Sub(e.CreatedAt).Milliseconds()
	secs := int64(math.Ceil(float64(ms) / 1000.0))
	if secs < 1 {
		return 1
	}
	return secs
}

/*
AdaptiveScore ranks the entry for eviction. Higher scores survive longer.

	score = 2.0*priority + 1.5*frequency + freshness - 0.1*sizePenalty

where freshness decays with age (100 / (age+1)) and the size penalty is the
size in KiB capped at 100, so values beyond ~100KB all pay the same penalty
instead of dominating the ranking.
*/
func (e *CacheEntry) AdaptiveScore(now time.Time) float64 {
	freshness := 100.0 / float64(e.AgeSeconds(now)+1)
	sizePenalty := math.Min(float64(e.SizeBytes)/1024.0, 100.0)

	return float64(e.Priority)*weightPriority +
		float64(e.Frequency)*weightFrequency +
		freshness*weightFreshness -
		sizePenalty*weightSizePenalty
}

// WithTTL returns a copy of the entry whose expiration horizon is re-anchored
// at now+ttl. Value, size, priority and frequency carry over; creation and
// access times do too, so the copy keeps its ranking. A ttl of zero or less
// clears the expiration.
func (e *CacheEntry) WithTTL(ttl time.Duration) *CacheEntry {
	cp := *e
	if ttl > 0 {
		cp.ExpireAt = time.Now().Add(ttl)
	} else {
		cp.ExpireAt = time.Time{}
	}
	return &cp
}

// RemainingTTL returns the time left before expiration at the given instant.
// Redis-compatible semantics: -1 when the entry has no TTL, -2 when it is
// already expired.
func (e *CacheEntry) RemainingTTL(now time.Time) time.Duration {
	if e.ExpireAt.IsZero() {
		return -1
	}
	d := e.ExpireAt.Sub(now)
	if d < 0 {
		return -2
	}
	return d
}
