// This file defines the read-path refresh hook. The goal of refresh is to
// keep entries fresh without ever slowing down reads.

package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/krisalay/adaptive-cache/types"
)

/*
Hook is called after every successful cache read. Implementations MUST be
fast and non-blocking: this runs on the hot read path, so anything
expensive has to move to a goroutine.
*/
type Hook interface {
	OnRead(key string, ent *types.CacheEntry)
}

// ReloadFunc recomputes and stores a fresh value for key. The coordinator
// supplies this; a failed reload leaves the current entry in place.
type ReloadFunc func(ctx context.Context, key string) error

/*
NearExpiry refreshes entries in the background shortly before they expire,
so hot keys never present an expired window to readers.

When a read finds the remaining TTL under Threshold, the hook kicks off one
background reload for that key; concurrent reads of the same near-expiry
key do not pile up additional reloads.
*/
type NearExpiry struct {
	// Threshold is the remaining-TTL level below which a reload starts.
	Threshold time.Duration

	// Reload recomputes and stores the value.
	Reload ReloadFunc

	// Timeout bounds each background reload. Zero means 30 seconds.
	Timeout time.Duration

	// Log receives reload failures. Zero value logs nowhere.
	Log zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func (h *NearExpiry) OnRead(key string, ent *types.CacheEntry) {
	if ent.ExpireAt.IsZero() {
		return
	}
	if time.Until(ent.ExpireAt) > h.Threshold {
		return
	}

	h.mu.Lock()
	if h.inflight == nil {
		h.inflight = make(map[string]struct{})
	}
	if _, busy := h.inflight[key]; busy {
		h.mu.Unlock()
		return
	}
	h.inflight[key] = struct{}{}
	h.mu.Unlock()

	go h.reload(key)
}

func (h *NearExpiry) reload(key string) {
	defer func() {
		h.mu.Lock()
		delete(h.inflight, key)
		h.mu.Unlock()
	}()

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := h.Reload(ctx, key); err != nil {
		h.Log.Warn().Err(err).Str("key", key).Msg("background refresh failed")
	}
}
