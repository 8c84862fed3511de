package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/stackmill/tenantcache/internal/cacheinfra"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

// Sentinel errors shared by every TagCache backend.
var (
	// ErrMiss is returned by Get when the key is absent or expired.
	ErrMiss = cacheinfra.ErrMiss

	// ErrUnavailable wraps backend failures on the read or write path.
	// Callers treat it as a miss; the cache is an optimization, never a
	// correctness dependency.
	ErrUnavailable = cacheinfra.ErrUnavailable

	// ErrUntagged is returned by Set when no tags are supplied. An entry
	// without tags could never be invalidated, so storing one is forbidden.
	ErrUntagged = cacheinfra.ErrUntagged
)

// TagCache is a key/value cache whose entries belong to one or more tags.
// Invalidating a tag removes every entry that was stored under it, no matter
// which key the entry was written with. Values are opaque byte slices; the
// TTL is uniform per backend and configured at construction time.
type TagCache interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Epoch returns a fence token covering the given tags. The token
	// changes whenever any of the tags is invalidated.
	Epoch(ctx context.Context, tags ...string) (uint64, error)

	// Set stores the entry under the given tags. fence must be an Epoch
	// token taken before the value was computed; if any of the tags has
	// been invalidated since, the entry is discarded instead of stored, so
	// a fetch racing an invalidation cannot resurrect pre-invalidation
	// data.
	Set(ctx context.Context, key string, value []byte, tags []string, fence uint64) error

	// InvalidateTags drops every entry associated with any of the given
	// tags. Invalidating a tag that has no entries is a no-op.
	InvalidateTags(ctx context.Context, tags ...string) error
}

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// GetOrFetch performs a read-through lookup: a cache hit returns the decoded
// entry; on a miss the fetch function runs and the result is stored under
// the given tags. Concurrent misses sharing a flight are deduplicated
// through the singleflight group; callers whose fetch observes
// caller-specific data for the same key (scoped queries against a global
// item key) must pass distinct flights so one caller's outcome is never
// handed to another.
//
// Backend failures on Get degrade to a miss, and failures on Set are dropped:
// either way the caller still receives the fetched value. Errors from fetchFn
// itself propagate unchanged and nothing is cached.
func GetOrFetch[T any](ctx context.Context, c TagCache, group *singleflight.Group, flight, key string, tags []string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	if data, err := c.Get(ctx, key); err == nil {
		var out T
		if err := msgpack.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		// Undecodable entry: treat as a miss and let the fetch overwrite it.
	} else if !errors.Is(err, ErrMiss) && !errors.Is(err, ErrUnavailable) {
		return zero, err
	}

	v, err, _ := group.Do(flight, func() (any, error) {
		// The fence is taken before the fetch so an invalidation landing
		// mid-fetch keeps the (potentially pre-write) result out of the
		// cache.
		fence, fenceErr := c.Epoch(ctx, tags...)

		value, err := fetchFn(ctx)
		if err != nil {
			return nil, err
		}

		if fenceErr == nil {
			if data, err := msgpack.Marshal(value); err == nil {
				// Best effort: a failed Set just means the next read misses.
				_ = c.Set(ctx, key, data, tags, fence)
			}
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: fetched value is %T, want %T", v, zero)
	}
	return out, nil
}
