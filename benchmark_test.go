package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	cache "github.com/krisalay/adaptive-cache"
	"github.com/krisalay/adaptive-cache/engine"
	"github.com/krisalay/adaptive-cache/expiration"
)

func newBenchmarkCache() *cache.AdaptiveCache {
	eng := engine.New(
		&expiration.AccessTTL{TTL: 10 * time.Second},
		nil,
		nil,
		nil,
		nil,
	)

	return cache.New(cache.Options{
		MaxEntries:               100000,
		DisableBackgroundCleanup: true,
		Engine:                   eng,
	})
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkCacheGetHit(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()
	defer c.Close()

	c.Set(ctx, "key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}

func BenchmarkCacheGetMiss(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("miss-%d", i)
		c.Get(key)
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkCacheParallelGet(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()
	defer c.Close()

	for i := 0; i < 1000; i++ {
		c.Set(ctx, fmt.Sprintf("key-%d", i), i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Get("key-42")
		}
	})
}

//
// ================= WRITE BENCH =================
//

func BenchmarkCacheSet(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(ctx, fmt.Sprintf("key-%d", i), i)
	}
}

func BenchmarkCacheGetOrCompute(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetOrCompute(ctx, "key", func(context.Context) (any, error) {
			return "value", nil
		})
	}
}

//
// ================= HIGH CONCURRENCY TEST =================
//

func BenchmarkCacheHighConcurrency(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()
	defer c.Close()

	keys := make([]string, 10000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
		c.Set(ctx, keys[i], i)
	}

	b.ResetTimer()

	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < b.N/100; j++ {
				c.Get(keys[j%len(keys)])
			}
		}(i)
	}
	wg.Wait()
}
