package engine

import (
	"context"
	"errors"
	"time"

	"github.com/krisalay/adaptive-cache/expiration"
	"github.com/krisalay/adaptive-cache/refresh"
	"github.com/krisalay/adaptive-cache/types"
	"github.com/krisalay/adaptive-cache/writepolicy"
)

// ErrNoStore is returned by Load when no backing store is configured.
var ErrNoStore = errors.New("engine: no backing store configured")

/*
Engine is the policy layer of the cache. It decides behavior, not storage:

  - when an entry counts as expired
  - how reads and writes move the expiration horizon
  - when the refresh hook fires
  - how writes propagate to the backing store
  - which metric events get recorded

It does not store data, evict, or lock; the coordinator owns all of that.
*/
type Engine struct {

	// Expiration decides when entries are too old. Nil means entries only
	// expire via their explicit per-entry TTL.
	Expiration expiration.Strategy

	// Refresh is an optional hook run after successful reads. It must not
	// block the read path.
	Refresh refresh.Hook

	// Store is the opaque persistent collaborator. Only the explicit
	// fallback path and write policies touch it. Nil means memory-only.
	Store types.Store

	// WritePolicy propagates cache writes to the Store. Nil means writes
	// stay in memory.
	WritePolicy writepolicy.WritePolicy

	// Metrics receives lifecycle events. Never nil after New.
	Metrics types.Metrics
}

// New assembles an engine. A nil metrics sink is replaced with a no-op so
// the rest of the code never nil-checks it.
func New(exp expiration.Strategy, hook refresh.Hook, store types.Store, wp writepolicy.WritePolicy, metrics types.Metrics) *Engine {
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	return &Engine{
		Expiration:  exp,
		Refresh:     hook,
		Store:       store,
		WritePolicy: wp,
		Metrics:     metrics,
	}
}

// IsExpired checks the entry against the configured strategy, falling back
// to the entry's own horizon when no strategy is set.
func (e *Engine) IsExpired(ent *types.CacheEntry) bool {
	now := time.Now()
	if e.Expiration != nil {
		return e.Expiration.IsExpired(ent, now)
	}
	return ent.IsExpired(now)
}

// OnRead runs the read-side behavior for a hit: slide the TTL if the
// strategy cares about reads, then give the refresh hook a chance.
func (e *Engine) OnRead(key string, ent *types.CacheEntry) {
	now := time.Now()

	if e.Expiration != nil {
		e.Expiration.OnAccess(ent, now)
	}

	if e.Refresh != nil {
		e.Metrics.Refresh()
		e.Refresh.OnRead(key, ent)
	}
}

// OnWrite runs the write-side behavior: apply default TTLs and forward the
// value to the backing store per the configured write policy.
func (e *Engine) OnWrite(ctx context.Context, ent *types.CacheEntry) {
	if e.Expiration != nil {
		e.Expiration.OnWrite(ent, time.Now())
	}

	if e.WritePolicy != nil {
		e.WritePolicy.OnWrite(ctx, ent.Key, ent.Value)
	}
}

// Load fetches a value from the backing store on the explicit fallback
// path.
func (e *Engine) Load(ctx context.Context, key string) (any, error) {
	if e.Store == nil {
		return nil, ErrNoStore
	}
	return e.Store.Load(ctx, key)
}

// Close shuts down engine-owned resources (pending write-back work).
func (e *Engine) Close() {
	if e.WritePolicy != nil {
		e.WritePolicy.Close()
	}
}
