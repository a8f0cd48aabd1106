package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/krisalay/adaptive-cache/types"
)

func TestNearExpiryTriggersReload(t *testing.T) {
	var calls atomic.Int64
	h := &NearExpiry{
		Threshold: time.Minute,
		Reload: func(ctx context.Context, key string) error {
			calls.Add(1)
			return nil
		},
		Log: zerolog.Nop(),
	}

	ent := types.NewCacheEntry("k", 1, 1, 50, 10*time.Second)
	h.OnRead("k", ent)

	assert.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)
}

func TestNearExpirySkipsFarFromExpiry(t *testing.T) {
	var calls atomic.Int64
	h := &NearExpiry{
		Threshold: time.Second,
		Reload: func(ctx context.Context, key string) error {
			calls.Add(1)
			return nil
		},
	}

	// Far from expiry, and no horizon at all: neither should reload.
	h.OnRead("far", types.NewCacheEntry("far", 1, 1, 50, time.Hour))
	h.OnRead("forever", types.NewCacheEntry("forever", 1, 1, 50, 0))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestNearExpiryDeduplicatesConcurrentReads(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	h := &NearExpiry{
		Threshold: time.Minute,
		Reload: func(ctx context.Context, key string) error {
			calls.Add(1)
			<-release
			return nil
		},
	}

	ent := types.NewCacheEntry("k", 1, 1, 50, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnRead("k", ent)
		}()
	}
	wg.Wait()

	// All 20 reads raced in while one reload was in flight.
	assert.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)
	close(release)

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
}

func TestNearExpiryReloadsAgainAfterCompletion(t *testing.T) {
	var calls atomic.Int64
	h := &NearExpiry{
		Threshold: time.Minute,
		Reload: func(ctx context.Context, key string) error {
			calls.Add(1)
			return nil
		},
	}

	ent := types.NewCacheEntry("k", 1, 1, 50, time.Second)
	h.OnRead("k", ent)

	assert.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)

	// Once the first reload finished, the key is eligible again.
	assert.Eventually(t, func() bool {
		h.OnRead("k", ent)
		return calls.Load() >= 2
	}, time.Second, time.Millisecond)
}

func TestNearExpiryReloadFailureIsContained(t *testing.T) {
	h := &NearExpiry{
		Threshold: time.Minute,
		Reload: func(ctx context.Context, key string) error {
			return errors.New("backend down")
		},
		Log: zerolog.Nop(),
	}

	ent := types.NewCacheEntry("k", 1, 1, 50, time.Second)
	h.OnRead("k", ent)

	// The failure is logged, and the key becomes eligible for a retry.
	assert.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		_, busy := h.inflight["k"]
		return !busy
	}, time.Second, time.Millisecond)
}

func TestNearExpiryContextHasTimeout(t *testing.T) {
	deadlineSeen := make(chan bool, 1)
	h := &NearExpiry{
		Threshold: time.Minute,
		Timeout:   time.Second,
		Reload: func(ctx context.Context, key string) error {
			_, ok := ctx.Deadline()
			deadlineSeen <- ok
			return nil
		},
	}

	h.OnRead("k", types.NewCacheEntry("k", 1, 1, 50, time.Second))

	select {
	case ok := <-deadlineSeen:
		assert.True(t, ok, "reload context should carry a deadline")
	case <-time.After(time.Second):
		t.Fatal("reload never ran")
	}
}
