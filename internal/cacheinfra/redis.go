package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed tag cache.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Validate checks if the configuration values are valid.
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return &ConfigError{Field: "Addr", Message: "must not be empty"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	return nil
}

// redisCache implements the tag cache against a shared Redis instance. Tag
// membership lives in Redis sets keyed by tag name, so every application
// instance sees the same invalidation state.
type redisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates the Redis tag cache backend.
func NewRedisCache(cfg RedisConfig) (*redisCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &redisCache{
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
	}, nil
}

// Get returns the entry stored under key, ErrMiss when absent, or a wrapped
// ErrUnavailable on backend failure so callers can degrade to a direct fetch.
func (r *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, r.entryKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return data, nil
}

// Epoch returns the fence token for the given tags: the sum of their
// invalidation counters. Counter keys persist without a TTL so a fence can
// never be reset back to a previously handed-out value.
func (r *redisCache) Epoch(ctx context.Context, tags ...string) (uint64, error) {
	keys := make([]string, len(tags))
	for i, tag := range tags {
		keys[i] = r.epochKey(tag)
	}

	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: epochs: %v", ErrUnavailable, err)
	}

	var sum uint64
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: epoch %s: %v", ErrUnavailable, tags[i], err)
		}
		sum += n
	}
	return sum, nil
}

// Set stores the entry and adds it to every tag set in one transaction. Tag
// sets are refreshed with the same TTL as the entry on every write, so a set
// always outlives its members. The write is undone when any tag was
// invalidated after the caller took its fence.
func (r *redisCache) Set(ctx context.Context, key string, value []byte, tags []string, fence uint64) error {
	if len(tags) == 0 {
		return ErrUntagged
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, r.entryKey(key), value, r.ttl)
	for _, tag := range tags {
		tagKey := r.tagKey(tag)
		pipe.SAdd(ctx, tagKey, key)
		pipe.Expire(ctx, tagKey, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}

	current, err := r.Epoch(ctx, tags...)
	if err != nil {
		return err
	}
	if current != fence {
		if err := r.rdb.Del(ctx, r.entryKey(key)).Err(); err != nil {
			return fmt.Errorf("%w: fence %s: %v", ErrUnavailable, key, err)
		}
	}
	return nil
}

// InvalidateTags deletes every entry registered under any of the tags along
// with the tag sets themselves. A tag with no members is a no-op.
func (r *redisCache) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := r.tagKey(tag)

		// The epoch bump precedes member deletion so an in-flight Set
		// either sees the new epoch or has its key in the member set.
		if err := r.rdb.Incr(ctx, r.epochKey(tag)).Err(); err != nil {
			return fmt.Errorf("%w: epoch %s: %v", ErrUnavailable, tag, err)
		}

		members, err := r.rdb.SMembers(ctx, tagKey).Result()
		if err != nil {
			return fmt.Errorf("%w: members of %s: %v", ErrUnavailable, tag, err)
		}

		keys := make([]string, 0, len(members)+1)
		for _, member := range members {
			keys = append(keys, r.entryKey(member))
		}
		keys = append(keys, tagKey)

		if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("%w: invalidate %s: %v", ErrUnavailable, tag, err)
		}
	}
	return nil
}

// Ping verifies connectivity to the backend.
func (r *redisCache) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *redisCache) entryKey(key string) string {
	return r.prefix + "entry:" + key
}

func (r *redisCache) tagKey(tag string) string {
	return r.prefix + "tag:" + tag
}

func (r *redisCache) epochKey(tag string) string {
	return r.prefix + "epoch:" + tag
}
