package writepolicy

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/krisalay/adaptive-cache/types"
)

// writeReq is one pending write waiting to reach the backing store.
type writeReq struct {
	key   string
	value any
}

/*
WriteBack queues cache writes and propagates them to the backing store from
a single background worker. Cache writes stay fast; the store catches up
eventually.

When the queue is full, new writes are DROPPED rather than blocking the
cache: losing a propagation beats stalling the write path.
*/
type WriteBack struct {
	store   types.Store
	ch      chan writeReq
	wg      sync.WaitGroup
	log     zerolog.Logger
	dropped int64
	mu      sync.Mutex
}

// NewWriteBack starts the worker. buffer is the queue depth; bursts beyond
// it are dropped.
func NewWriteBack(store types.Store, buffer int, log zerolog.Logger) *WriteBack {
	w := &WriteBack{
		store: store,
		ch:    make(chan writeReq, buffer),
		log:   log,
	}
	w.wg.Add(1)
	go w.worker()
	return w
}

func (w *WriteBack) OnWrite(ctx context.Context, key string, value any) {
	select {
	case w.ch <- writeReq{key: key, value: value}:
	default:
		w.mu.Lock()
		w.dropped++
		n := w.dropped
		w.mu.Unlock()
		w.log.Warn().Str("key", key).Int64("dropped_total", n).
			Msg("write-back queue full, dropping write")
	}
}

func (w *WriteBack) worker() {
	defer w.wg.Done()
	for req := range w.ch {
		// Each write gets its own context; the caller's is long gone.
		if err := w.store.Put(context.Background(), req.key, req.value); err != nil {
			w.log.Error().Err(err).Str("key", req.key).Msg("write-back store put failed")
		}
	}
}

// Dropped returns how many writes were discarded under queue pressure.
func (w *WriteBack) Dropped() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Close stops accepting writes and drains the queue before returning, so
// pending propagations are not lost on shutdown.
func (w *WriteBack) Close() {
	close(w.ch)
	w.wg.Wait()
}
