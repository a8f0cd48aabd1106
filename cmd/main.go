package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	cache "github.com/krisalay/adaptive-cache"
	"github.com/krisalay/adaptive-cache/api"
	"github.com/krisalay/adaptive-cache/config"
	"github.com/krisalay/adaptive-cache/engine"
	"github.com/krisalay/adaptive-cache/expiration"
	"github.com/krisalay/adaptive-cache/writepolicy"
)

// InMemoryStore is a toy backing store standing in for a database.
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
	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("store: no value for %q", key)
	}
	return v, nil
}

func (s *InMemoryStore) Put(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.DebugLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration failed")
	}

	store := NewInMemoryStore()
	store.data["profile:42"] = "loaded-from-store"

	opts := cfg.Options()
	opts.Logger = &log
	opts.Engine = engine.New(
		&expiration.WriteTTL{Default: cfg.DefaultTTL},
		nil,
		store,
		writepolicy.NewWriteBack(store, 1024, log),
		nil,
	)

	c := cache.New(opts)
	defer c.Close()

	ctx := context.Background()

	// Plain writes and reads.
	_ = c.Set(ctx, "greeting", "hello")
	if v, ok := c.Get("greeting"); ok {
		log.Info().Interface("value", v).Msg("get greeting")
	}

	// Tagged writes and bulk invalidation.
	_ = c.SetWithTags(ctx, "user:1", "alice", []string{"users"}, time.Minute)
	_ = c.SetWithTags(ctx, "user:2", "bob", []string{"users"}, time.Minute)
	log.Info().Strs("keys", c.KeysByTag("users")).Msg("keys tagged users")
	log.Info().Int("removed", c.InvalidateByTag("users")).Msg("invalidated tag users")

	// Fallback to the backing store, de-duplicated per key.
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(ctx, "profile:42")
			if err != nil {
				log.Error().Err(err).Msg("load failed")
				return
			}
			log.Info().Interface("value", v).Msg("profile loaded")
		}()
	}
	wg.Wait()

	// Priorities steer eviction: low-priority entries go first.
	_ = c.SetWithOptions(ctx, "important", "keep-me", api.SetOptions{Priority: 95})
	_ = c.SetWithOptions(ctx, "disposable", "shed-me", api.SetOptions{Priority: 5})

	// One synchronous maintenance pass, then the numbers.
	res := c.ForceCleanup(true)
	log.Info().
		Bool("success", res.Success).
		Int("expired_removed", res.ExpiredRemoved).
		Dur("duration", res.Duration).
		Msg("forced cleanup")

	st := c.Stats()
	log.Info().
		Int64("entries", st.Entries).
		Int64("bytes", st.SizeBytes).
		Float64("hit_rate", st.HitRate).
		Int64("hits", st.Hits).
		Int64("misses", st.Misses).
		Msg("cache stats")

	for _, ev := range c.CleanupReport() {
		log.Info().Str("kind", string(ev.Kind)).Str("msg", ev.Message).Msg("cleanup event")
	}
}
