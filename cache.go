package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/adaptive-cache/api"
	"github.com/krisalay/adaptive-cache/cleanup"
	"github.com/krisalay/adaptive-cache/engine"
	"github.com/krisalay/adaptive-cache/eviction"
	"github.com/krisalay/adaptive-cache/sizeof"
	"github.com/krisalay/adaptive-cache/stats"
	"github.com/krisalay/adaptive-cache/store"
	"github.com/krisalay/adaptive-cache/tags"
	"github.com/krisalay/adaptive-cache/types"
)

// ErrValueTooLarge is returned by the Set family when a value fails the
// reasonable-size check: a non-positive estimate, larger than the
// configured maximum, or large enough to monopolize the cache.
var ErrValueTooLarge = errors.New("cache: value too large")

// ErrClosed is returned by write operations after Close.
var ErrClosed = errors.New("cache: closed")

// Construction defaults.
const (
	DefaultMaxEntries     = 1000
	DefaultMaxValueSizeMB = 10
)

// Options configures an AdaptiveCache. The zero value is usable: 1000
// entries, adaptive eviction, no default TTL, background cleanup enabled
// every minute.
type Options struct {

	// Name identifies the instance in logs and cleanup reports.
	Name string

	// MaxEntries is the entry-count capacity. Exceeding it evicts the
	// lowest-scoring entries. Non-positive means DefaultMaxEntries.
	MaxEntries int

	// MaxValueSizeMB bounds single-value size; a value may additionally
	// never exceed 10% of this. Non-positive means DefaultMaxValueSizeMB.
	MaxValueSizeMB int

	// DefaultTTL applies to entries written without an explicit TTL.
	// Zero means such entries never expire.
	DefaultTTL time.Duration

	// DefaultPriority applies to entries written without an explicit
	// priority. Non-positive means types.DefaultPriority.
	DefaultPriority int

	// EvictionPolicy selects the victim strategy. Empty means Adaptive.
	EvictionPolicy eviction.PolicyType

	// CleanupInterval is the background maintenance cadence.
	// Non-positive means cleanup.DefaultInterval (one minute).
	CleanupInterval time.Duration

	// DisableBackgroundCleanup turns the janitor off; cleanup then only
	// happens via ForceCleanup and per-key expiration timers. The default
	// (false) starts background cleanup in New.
	DisableBackgroundCleanup bool

	// Engine supplies the policy layer: expiration strategy, refresh hook,
	// backing store, write policy, metrics. Nil means a default engine
	// with a write-anchored DefaultTTL and no store.
	Engine *engine.Engine

	// Logger receives structured diagnostics. The zero value is replaced
	// with a no-op logger.
	Logger *zerolog.Logger
}

/*
AdaptiveCache is the coordinator: one instance owns the entry table, the
access-order/eviction policy, the tag index, the per-key expiration timers
and the in-flight computation map, and serializes every mutation of them
under a single lock. Nothing outside this package touches those structures
directly.
*/
type AdaptiveCache struct {
	opts Options
	log  zerolog.Logger

	// mu serializes all table/index/timer mutation for this instance.
	mu     sync.Mutex
	table  *store.Table
	policy eviction.Policy
	tagIx  *tags.Index
	timers map[string]*time.Timer
	closed bool

	engine  *engine.Engine
	stats   *stats.Accumulator
	janitor *cleanup.Janitor

	// sf de-duplicates concurrent GetOrCompute calls per key.
	sf singleflight.Group

	// lifecycleMu guards the maintenance supervisor independently of mu,
	// so stopping cleanup never contends with data operations.
	lifecycleMu sync.Mutex
	supCancel   context.CancelFunc
	supDone     <-chan error
}

// Compile-time checks that the coordinator honors the public contracts.
var (
	_ api.Cache       = (*AdaptiveCache)(nil)
	_ api.Diagnostics = (*AdaptiveCache)(nil)
	_ api.Lifecycle   = (*AdaptiveCache)(nil)
	_ cleanup.System  = (*AdaptiveCache)(nil)

	_ cleanup.Optimizable = (*AdaptiveCache)(nil)
)

// New builds a cache and, unless disabled, starts its background cleanup.
func New(opts Options) *AdaptiveCache {
	if opts.Name == "" {
		opts.Name = "adaptive-cache"
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.MaxValueSizeMB <= 0 {
		opts.MaxValueSizeMB = DefaultMaxValueSizeMB
	}
	if opts.DefaultPriority <= 0 {
		opts.DefaultPriority = types.DefaultPriority
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("cache", opts.Name).Logger()
	}

	eng := opts.Engine
	if eng == nil {
		eng = engine.New(nil, nil, nil, nil, nil)
	}

	c := &AdaptiveCache{
		opts:   opts,
		log:    log,
		table:  store.NewTable(),
		tagIx:  tags.NewIndex(),
		timers: make(map[string]*time.Timer),
		engine: eng,
		stats:  stats.NewAccumulator(),
	}
	c.policy = eviction.New(opts.EvictionPolicy, func(key string) *types.CacheEntry {
		ent, _ := c.table.Get(key)
		return ent
	})

	c.janitor = cleanup.NewJanitor(opts.CleanupInterval, log)
	c.janitor.Register(c)

	if !opts.DisableBackgroundCleanup {
		c.StartBackgroundCleanup()
	}
	return c
}

// ---------------------------------------------------------------------------
// Reads

// Get retrieves the value stored under key. A live entry counts a hit and
// refreshes its access metadata; an absent or expired entry counts a miss.
func (c *AdaptiveCache) Get(key string) (any, bool) {
	c.mu.Lock()

	ent, ok := c.table.Get(key)
	if !ok {
		c.mu.Unlock()
		c.stats.RecordMiss(key)
		c.engine.Metrics.Miss()
		return nil, false
	}

	if c.engine.IsExpired(ent) {
		c.removeLocked(key, removeExpired)
		c.mu.Unlock()
		c.stats.RecordMiss(key)
		c.engine.Metrics.Miss()
		return nil, false
	}

	now := time.Now()
	ent.IncrementFrequency(now)
	c.policy.OnGet(key)
	c.engine.OnRead(key, ent)
	c.mu.Unlock()

	c.stats.RecordHit(key)
	c.engine.Metrics.Hit()
	return ent.Value, true
}

// TTL returns the remaining time-to-live of a key: -1 for no TTL, -2 for
// missing or expired.
func (c *AdaptiveCache) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.table.Get(key)
	if !ok {
		return -2
	}
	return ent.RemainingTTL(time.Now())
}

// Len returns the current entry count.
func (c *AdaptiveCache) Len() int {
	return int(c.table.Size())
}

// ---------------------------------------------------------------------------
// Writes

// Set stores a value with the cache defaults for TTL and priority.
func (c *AdaptiveCache) Set(ctx context.Context, key string, value any) error {
	return c.SetWithOptions(ctx, key, value, api.SetOptions{Priority: -1})
}

// SetWithTTL stores a value expiring ttl after this write.
func (c *AdaptiveCache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.SetWithOptions(ctx, key, value, api.SetOptions{TTL: ttl, Priority: -1})
}

// SetWithTags stores a value and registers it under the given tags,
// replacing the key's previous tag membership.
func (c *AdaptiveCache) SetWithTags(ctx context.Context, key string, value any, tagList []string, ttl time.Duration) error {
	return c.SetWithOptions(ctx, key, value, api.SetOptions{TTL: ttl, Priority: -1, Tags: tagList})
}

/*
SetWithOptions is the full write path. It estimates the value's footprint,
rejects unreasonable sizes, builds a fresh entry (frequency restarts at 1),
inserts it, re-registers tags, reschedules the key's expiration timer, and
evicts the lowest-scoring entries until the table is back within capacity.
*/
func (c *AdaptiveCache) SetWithOptions(ctx context.Context, key string, value any, opts api.SetOptions) error {
	size := sizeof.Estimate(value)
	if !sizeof.IsReasonableSize(size, c.opts.MaxValueSizeMB) {
		return fmt.Errorf("%w: key %q estimated at %d bytes (max %d MB, 10%% single-entry cap)",
			ErrValueTooLarge, key, size, c.opts.MaxValueSizeMB)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}
	priority := opts.Priority
	if priority < 0 {
		priority = c.opts.DefaultPriority
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	ent := types.NewCacheEntry(key, value, size, priority, ttl)

	// The expiration strategy may fill in a default horizon; the write
	// policy may forward the value to the backing store. Neither touches
	// the table, so both run outside the lock.
	c.engine.OnWrite(ctx, ent)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	c.table.Put(key, ent)
	c.policy.OnPut(key)
	if opts.Tags != nil {
		c.tagIx.RemoveKey(key)
		c.tagIx.Add(key, opts.Tags)
	}
	c.scheduleTimerLocked(key, ent)

	evicted := 0
	for int(c.table.Size()) > c.opts.MaxEntries {
		victim := c.policy.Evict()
		if victim == "" {
			break
		}
		c.removeVictimLocked(victim)
		evicted++
	}
	c.mu.Unlock()

	c.stats.RecordSet(key)
	if evicted > 0 {
		c.log.Debug().Str("key", key).Int("evicted", evicted).Msg("capacity eviction")
	}
	return nil
}

/*
GetOrCompute returns the live value for key or computes it exactly once.

Concurrent callers of the same key share one in-flight computation and all
receive its value or its error; callers of other keys proceed unblocked.
The in-flight slot is released whether compute succeeds or fails, so a
failed key can be retried immediately. compute enforces its own timeout if
it needs one; the cache imposes none.
*/
func (c *AdaptiveCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		// A racing caller may have stored the value between our miss and
		// this flight starting. This re-check is not a lookup of its own:
		// the caller's miss is already recorded, so peek without touching
		// the accounting.
		if v, ok := c.peekLive(key); ok {
			return v, nil
		}

		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, v); err != nil {
			// The computed value is still good; the caller gets it even
			// if it could not be cached.
			c.log.Warn().Err(err).Str("key", key).Msg("computed value not cached")
		}
		return v, nil
	})
	return v, err
}

// peekLive reports the value under key if a live entry exists, without
// recording a hit or miss and without touching access metadata.
func (c *AdaptiveCache) peekLive(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.table.Get(key)
	if !ok || c.engine.IsExpired(ent) {
		return nil, false
	}
	return ent.Value, true
}

// GetOrLoad is GetOrCompute backed by the engine's persistent store: the
// explicit fallback path to the opaque backing collaborator.
func (c *AdaptiveCache) GetOrLoad(ctx context.Context, key string) (any, error) {
	return c.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		return c.engine.Load(ctx, key)
	})
}

// Expire sets or replaces the TTL of an existing key, anchored at now.
func (c *AdaptiveCache) Expire(key string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.table.Get(key)
	if !ok {
		return false
	}
	fresh := ent.WithTTL(ttl)
	c.table.Put(key, fresh)
	c.scheduleTimerLocked(key, fresh)
	return true
}

// ---------------------------------------------------------------------------
// Invalidation

// Invalidate removes one key, its tags and its timer. Idempotent.
func (c *AdaptiveCache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(key, removeManual)
}

// InvalidateByTag removes every key carrying the tag and clears the tag's
// index entry. Returns the number of entries removed.
func (c *AdaptiveCache) InvalidateByTag(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.tagIx.DropTag(tag) {
		if c.removeLocked(key, removeManual) {
			removed++
		}
	}
	return removed
}

// InvalidatePattern removes every key matching the glob pattern.
func (c *AdaptiveCache) InvalidatePattern(pattern string) (int, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("cache: bad invalidation pattern %q: %w", pattern, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var dead []string
	for key := range c.table.Snapshot() {
		if g.Match(key) {
			dead = append(dead, key)
		}
	}
	for _, key := range dead {
		c.policy.Remove(key)
		c.tagIx.RemoveKey(key)
		c.cancelTimerLocked(key)
		c.stats.RecordRemove(key)
	}
	c.table.DeleteAll(dead)
	return len(dead), nil
}

// InvalidateAll clears the cache: every entry, every tag, every timer. The
// table is dropped in one publish instead of entry by entry.
func (c *AdaptiveCache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.table.Snapshot()
	for key := range snap {
		c.policy.Remove(key)
		c.cancelTimerLocked(key)
		c.stats.RecordRemove(key)
	}
	c.table.Clear()
	c.tagIx.Clear()
	return len(snap)
}

// KeysByTag returns a read-only snapshot of the keys under tag.
func (c *AdaptiveCache) KeysByTag(tag string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tagIx.Keys(tag)
}

// ---------------------------------------------------------------------------
// Removal plumbing

type removeReason int

const (
	removeManual removeReason = iota
	removeEvicted
	removeExpired
)

// removeLocked takes a key out of every structure: table, eviction
// bookkeeping, tag index, timer map, access tracking. Caller holds c.mu.
func (c *AdaptiveCache) removeLocked(key string, reason removeReason) bool {
	if _, ok := c.table.Get(key); !ok {
		return false
	}
	c.table.Delete(key)
	c.policy.Remove(key)
	c.tagIx.RemoveKey(key)
	c.cancelTimerLocked(key)
	c.stats.RecordRemove(key)

	switch reason {
	case removeEvicted:
		c.engine.Metrics.Eviction()
	case removeExpired:
		c.engine.Metrics.Expire()
	}
	return true
}

// removeVictimLocked is removeLocked for a key the policy already evicted
// from its own bookkeeping.
func (c *AdaptiveCache) removeVictimLocked(key string) {
	if _, ok := c.table.Get(key); !ok {
		return
	}
	c.table.Delete(key)
	c.tagIx.RemoveKey(key)
	c.cancelTimerLocked(key)
	c.stats.RecordRemove(key)
	c.engine.Metrics.Eviction()
}

// ---------------------------------------------------------------------------
// Expiration timers

// scheduleTimerLocked (re)arms the key's expiration timer to the entry's
// current horizon. Caller holds c.mu.
func (c *AdaptiveCache) scheduleTimerLocked(key string, ent *types.CacheEntry) {
	c.cancelTimerLocked(key)
	if ent.ExpireAt.IsZero() {
		return
	}
	d := time.Until(ent.ExpireAt)
	if d < 0 {
		d = 0
	}
	c.timers[key] = time.AfterFunc(d, func() { c.onExpireTimer(key) })
}

func (c *AdaptiveCache) cancelTimerLocked(key string) {
	if t, ok := c.timers[key]; ok {
		t.Stop()
		delete(c.timers, key)
	}
}

// onExpireTimer fires at an entry's expected horizon. Sliding strategies
// may have pushed the horizon out since the timer was armed, in which case
// the timer is re-armed instead of removing a live entry.
func (c *AdaptiveCache) onExpireTimer(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	ent, ok := c.table.Get(key)
	if !ok {
		delete(c.timers, key)
		return
	}
	if c.engine.IsExpired(ent) {
		c.removeLocked(key, removeExpired)
		return
	}
	c.scheduleTimerLocked(key, ent)
}

// ---------------------------------------------------------------------------
// Maintenance (cleanup.System / cleanup.Optimizable)

// Name identifies this instance in cleanup reports.
func (c *AdaptiveCache) Name() string { return c.opts.Name }

/*
RemoveExpired sweeps the table for expired entries and removes them,
returning the count.

The lock-free snapshot supplies only the key set. Expiry itself is judged
under c.mu: sliding strategies rewrite an entry's horizon in place on every
read, so ExpireAt may only be read while holding the lock that serializes
those writes. Confirmed removals are batched into a single table publish
rather than one copy-on-write delete per key.
*/
func (c *AdaptiveCache) RemoveExpired() int {
	snap := c.table.Snapshot()
	keys := make([]string, 0, len(snap))
	for key := range snap {
		keys = append(keys, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var dead []string
	for _, key := range keys {
		ent, ok := c.table.Get(key)
		if ok && c.engine.IsExpired(ent) {
			dead = append(dead, key)
		}
	}
	for _, key := range dead {
		c.policy.Remove(key)
		c.tagIx.RemoveKey(key)
		c.cancelTimerLocked(key)
		c.stats.RecordRemove(key)
		c.engine.Metrics.Expire()
	}
	c.table.DeleteAll(dead)
	return len(dead)
}

// Optimize is the score-based maintenance hook: it sheds any excess beyond
// capacity (defense against policies drifting out of sync) after a normal
// expired sweep.
func (c *AdaptiveCache) Optimize() error {
	removed := c.RemoveExpired()

	c.mu.Lock()
	evicted := 0
	for int(c.table.Size()) > c.opts.MaxEntries {
		victim := c.policy.Evict()
		if victim == "" {
			break
		}
		c.removeVictimLocked(victim)
		evicted++
	}
	c.mu.Unlock()

	c.log.Debug().Int("expired", removed).Int("evicted", evicted).Msg("cache optimized")
	return nil
}

// ForceCleanup runs one maintenance pass synchronously and reports the
// outcome. The background ticker, if running, is unaffected.
func (c *AdaptiveCache) ForceCleanup(includeOptimization bool) cleanup.Result {
	return c.janitor.ForceCleanup(includeOptimization)
}

// ---------------------------------------------------------------------------
// Diagnostics (api.Diagnostics)

// Stats returns the quantitative accounting snapshot.
func (c *AdaptiveCache) Stats() stats.CacheStats {
	snap := c.stats.Snapshot()
	jan := c.janitor.CurrentStats()
	return stats.CacheStats{
		Entries:       c.table.Size(),
		SizeBytes:     c.table.TotalBytes(),
		Hits:          snap.Hits,
		Misses:        snap.Misses,
		Sets:          snap.Sets,
		Removes:       snap.Removes,
		HitRate:       snap.HitRate,
		AvgAccessTime: snap.AvgAccessTime,
		LastCleanup:   jan.LastRun,
	}
}

// ResetStats zeroes counters and access tracking; the table is untouched.
func (c *AdaptiveCache) ResetStats() { c.stats.Reset() }

// CleanupReport returns the rolling maintenance event log.
func (c *AdaptiveCache) CleanupReport() []cleanup.Event { return c.janitor.Report() }

// CleanupStats summarizes maintenance history.
func (c *AdaptiveCache) CleanupStats() cleanup.Stats { return c.janitor.CurrentStats() }

// ---------------------------------------------------------------------------
// Lifecycle

// StartBackgroundCleanup runs the janitor under a suture supervisor, so a
// panicking maintenance pass is restarted instead of silently dying.
// Idempotent while running.
func (c *AdaptiveCache) StartBackgroundCleanup() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.supCancel != nil {
		return
	}

	sup := suture.NewSimple(c.opts.Name + "-maintenance")
	sup.Add(c.janitor)

	ctx, cancel := context.WithCancel(context.Background())
	c.supCancel = cancel
	c.supDone = sup.ServeBackground(ctx)
}

// StopBackgroundCleanup halts the janitor and waits for any in-flight pass
// to finish. Idempotent while stopped.
func (c *AdaptiveCache) StopBackgroundCleanup() {
	c.lifecycleMu.Lock()
	cancel, done := c.supCancel, c.supDone
	c.supCancel, c.supDone = nil, nil
	c.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

/*
Close disposes the cache: background cleanup stops, every per-key timer is
canceled, pending write-back work is flushed, and all entries are released.
Data operations after Close return ErrClosed or miss.
*/
func (c *AdaptiveCache) Close() {
	c.StopBackgroundCleanup()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for key, t := range c.timers {
		t.Stop()
		delete(c.timers, key)
	}
	for key := range c.table.Snapshot() {
		c.policy.Remove(key)
	}
	c.table.Clear()
	c.tagIx.Clear()
	c.mu.Unlock()

	c.engine.Close()
	c.log.Debug().Msg("cache closed")
}
