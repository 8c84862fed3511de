package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/viccon/sturdyc"
)

// Errors shared by the cache backends. They live here so both the adapters
// and the public cache package can reference the same sentinels.
var (
	ErrMiss        = errors.New("cache: miss")
	ErrUnavailable = errors.New("cache: backend unavailable")
	ErrUntagged    = errors.New("cache: entry stored without tags")
)

// Config holds the configuration for the in-memory cache backend.
type Config struct {
	// Capacity defines the maximum number of entries the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent
	// access. Higher values improve concurrency but increase memory
	// overhead. Must be greater than 0.
	NumShards int

	// TTL is the time-to-live for cached entries. Expiry is a safety net
	// against missed invalidations; tag invalidation is the primary
	// mechanism. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired
	// entries. Zero uses the backend default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                time.Hour,
		EvictionPercentage: 10,
		EvictionInterval:   0,
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// memoryCache implements the tag cache on top of a sturdyc client, with a
// tag -> member-key index maintained alongside the entries. Invalidating a
// tag iterates its member set, so the cost is proportional to the number of
// entries under the tag, never the total key count.
type memoryCache struct {
	client *sturdyc.Client[[]byte]
	tags   *xsync.MapOf[string, *xsync.MapOf[string, struct{}]]

	// epochs counts invalidations per tag; the sum over an entry's tags is
	// the fence token handed out by Epoch and checked again by Set.
	epochs *xsync.MapOf[string, uint64]
}

// NewMemoryCache creates the in-memory tag cache backend. It validates the
// configuration and initializes a sturdyc client with the provided settings.
func NewMemoryCache(cfg Config) (*memoryCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var options []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		options...,
	)

	return &memoryCache{
		client: client,
		tags:   xsync.NewMapOf[string, *xsync.MapOf[string, struct{}]](),
		epochs: xsync.NewMapOf[string, uint64](),
	}, nil
}

// Get returns the entry stored under key, or ErrMiss.
func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := m.client.Get(key); ok {
		return data, nil
	}
	return nil, ErrMiss
}

// Epoch returns the fence token for the given tags: the sum of their
// invalidation counters. Tags never invalidated count as zero.
func (m *memoryCache) Epoch(ctx context.Context, tags ...string) (uint64, error) {
	var sum uint64
	for _, tag := range tags {
		if n, ok := m.epochs.Load(tag); ok {
			sum += n
		}
	}
	return sum, nil
}

// Set stores the entry and registers it under every tag. Registration
// happens before the value becomes readable so that no reader can observe an
// entry that is not yet reachable from its tags. If any tag was invalidated
// after the caller took its fence, the entry is dropped again: the value was
// computed against pre-invalidation state and must not outlive it.
func (m *memoryCache) Set(ctx context.Context, key string, value []byte, tags []string, fence uint64) error {
	if len(tags) == 0 {
		return ErrUntagged
	}

	for _, tag := range tags {
		members, _ := m.tags.LoadOrCompute(tag, func() *xsync.MapOf[string, struct{}] {
			return xsync.NewMapOf[string, struct{}]()
		})
		members.Store(key, struct{}{})
	}

	m.client.Set(key, value)

	if current, _ := m.Epoch(ctx, tags...); current != fence {
		m.client.Delete(key)
	}
	return nil
}

// InvalidateTags deletes every entry registered under any of the tags.
// Invalidating an already-invalidated tag is a no-op.
func (m *memoryCache) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		// The epoch bump precedes member deletion so an in-flight Set
		// either sees the new epoch or has its key in the member set.
		m.epochs.Compute(tag, func(old uint64, _ bool) (uint64, bool) {
			return old + 1, false
		})

		members, ok := m.tags.LoadAndDelete(tag)
		if !ok {
			continue
		}
		members.Range(func(key string, _ struct{}) bool {
			// A key may sit under several tags; deleting it twice is
			// harmless, so stale members in sibling sets are fine.
			m.client.Delete(key)
			return true
		})
	}
	return nil
}
