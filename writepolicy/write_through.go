package writepolicy

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/krisalay/adaptive-cache/types"
)

/*
WriteThrough forwards every cache write to the backing store synchronously:
the cache write is not complete until the store write finishes. Simple and
consistent, but a slow store makes cache writes slow.
*/
type WriteThrough struct {
	store types.Store
	log   zerolog.Logger
}

func NewWriteThrough(store types.Store, log zerolog.Logger) *WriteThrough {
	return &WriteThrough{store: store, log: log}
}

func (w *WriteThrough) OnWrite(ctx context.Context, key string, value any) {
	if err := w.store.Put(ctx, key, value); err != nil {
		w.log.Error().Err(err).Str("key", key).Msg("write-through store put failed")
	}
}

// Close is a no-op: write-through holds no pending work.
func (w *WriteThrough) Close() {}
