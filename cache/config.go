package cache

import (
	"time"

	"github.com/stackmill/tenantcache/internal/cacheinfra"
)

// Config exposes configuration for the in-memory tag cache backend.
type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults. The TTL is
// a safety net against missed invalidations, not the primary expiry
// mechanism, so it defaults to a full hour.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewMemoryTagCache constructs the in-memory TagCache implementation. It is
// suitable for single-process deployments and tests; multi-instance
// deployments should share a Redis backend instead (see NewRedisTagCache).
func NewMemoryTagCache(cfg Config) (TagCache, error) {
	return cacheinfra.NewMemoryCache(cfg.toInternal())
}

// RedisConfig configures the Redis-backed tag cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces every key and tag set, so several applications
	// can share one Redis instance.
	KeyPrefix string

	TTL time.Duration
}

// NewRedisTagCache constructs a TagCache backed by a shared Redis instance.
// Tag membership is tracked in Redis sets, so invalidating a tag is
// proportional to the number of entries under it, not the total key count.
func NewRedisTagCache(cfg RedisConfig) (TagCache, error) {
	return cacheinfra.NewRedisCache(cacheinfra.RedisConfig{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		KeyPrefix: cfg.KeyPrefix,
		TTL:       cfg.TTL,
	})
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
