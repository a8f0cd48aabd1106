package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/krisalay/adaptive-cache"
	"github.com/krisalay/adaptive-cache/engine"
	"github.com/krisalay/adaptive-cache/expiration"
	"github.com/krisalay/adaptive-cache/writepolicy"

	"github.com/rs/zerolog"
)

// ================= BACKING STORE =================

type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]any
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]any)}
}

func (s *InMemoryStore) Load(ctx context.Context, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key], nil
}

func (s *InMemoryStore) Put(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// ================= BENCHMARK =================

func main() {
	ctx := context.Background()

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	// ---------------- Cache Config ----------------
	const (
		capacity    = 200000
		preloadKeys = 100000
		goroutines  = 200
		opsPerG     = 5000
	)

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", capacity)
	fmt.Println("Preload Keys :", preloadKeys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("---------------------------------")

	// ---------------- Backing Store ----------------
	store := NewInMemoryStore()

	// ---------------- Cache Engine ----------------
	log := zerolog.Nop()
	exp := &expiration.AccessTTL{TTL: 60 * time.Second}
	writePolicy := writepolicy.NewWriteBack(store, 4096, log)

	eng := engine.New(
		exp,
		nil,
		store,
		writePolicy,
		nil,
	)

	c := cache.New(cache.Options{
		Name:                     "benchmark",
		MaxEntries:               capacity,
		Engine:                   eng,
		DisableBackgroundCleanup: true,
	})

	// ---------------- Preload Cache ----------------
	fmt.Println("Preloading cache...")
	for i := 0; i < preloadKeys; i++ {
		key := fmt.Sprintf("key-%d", i)
		c.Set(ctx, key, i)
	}
	fmt.Println("Preload complete.")

	// ---------------- Warmup ----------------
	fmt.Println("Warming up cache...")
	for i := 0; i < 10000; i++ {
		c.Get(fmt.Sprintf("key-%d", i%preloadKeys))
	}
	fmt.Println("Warmup complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				key := fmt.Sprintf("key-%d", j%preloadKeys)
				c.Get(key)
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	st := c.Stats()

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Hit Rate         : %.4f\n", st.HitRate)
	fmt.Printf("Entries          : %d\n", st.Entries)
	fmt.Println("=========================================")

	c.Close()
}
