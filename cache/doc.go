// Package cache provides the tag-capable caching interface and deterministic
// key/tag derivation used by tenant-scoped repositories.
//
// # Overview
//
// The package exports three building blocks:
//
//   - TagCache: a key/value cache whose entries carry invalidation tags
//   - Key derivation: ListKey, ItemKey, CollectionTag and ItemTag
//   - GetOrFetch: a generic read-through helper with stampede suppression
//
// Tags, not keys, are the unit of invalidation. A service cannot enumerate
// every list-query key variant (filter and page combinations) that may have
// cached an affected record, but it can drop the one collection tag they all
// share.
//
// # Key Derivation
//
// List keys hash the canonical filter set, the pagination state and the
// principal identity:
//
//	key := cache.ListKey("task", map[string]string{"status": "open"}, 1, 25, principal.ID)
//	// task::list::<xxhash64>
//
// Two filter sets that are permutations of the same pairs always yield the
// same key; two principals never share one. Item keys are plain:
//
//	key := cache.ItemKey("task", id) // task::item::<id>
//
// # Read-Through Usage
//
//	var group singleflight.Group
//	page, err := cache.GetOrFetch(ctx, tagCache, &group, flight, key,
//		[]string{cache.CollectionTag("task")},
//		func(ctx context.Context) (Page, error) {
//			return store.List(ctx, criteria...)
//		})
//
// The flight names the miss-deduplication bucket: callers whose fetch
// observes caller-specific data for the same key must pass distinct flights.
// Values are encoded with msgpack, so cached types must round-trip through
// it (exported fields). Backend failures degrade to a miss: the fetch
// function still runs and its result is returned, so the cache never becomes
// a correctness dependency. A fence token taken before the fetch keeps a
// result computed before a concurrent invalidation out of the cache.
//
// # Backends
//
// Two TagCache implementations ship with the module: an in-memory backend
// built on sturdyc (NewMemoryTagCache) and a Redis backend that keeps tag
// membership in Redis sets (NewRedisTagCache). Every entry must be stored
// with at least one tag; Set rejects untagged writes with ErrUntagged.
package cache
