// Package scopedcache combines mandatory row-ownership scoping with a tagged
// read-through cache for go-repository-bun repositories.
//
// # Overview
//
// Service[T] wraps a base repository for one record type and exposes five
// operations: List, GetByID, Create, Update and Delete. Every operation
// takes an explicit scope.Principal; queries are constrained to the
// principal's rows at construction time, so a caller cannot forget to scope
// and there is no ambient global state to bypass.
//
// # Caching Behavior
//
// Reads are cache-first:
//
//  1. Derive the key (list keys embed filters, pagination and principal;
//     item keys are global).
//  2. On a hit, return the cached value. Item hits re-check ownership.
//  3. On a miss, run the scope-enforced query, store the result under its
//     tags, and return it.
//
// List entries carry the resource's collection tag; item entries carry the
// collection tag plus the record's item tag.
//
// # Invalidation Ripple
//
// Mutations invalidate tags synchronously after the store write succeeds and
// before the call returns, so a read that starts after a mutation returns
// can at worst miss and rebuild, never observe a stale hit:
//
//   - Create: collection tag (all cached list pages rebuild)
//   - Update, Delete: item tag + collection tag
//
// Invalidation failures do not fail the mutation. They are logged as
// cache_invalidation_failure and staleness is bounded by the cache TTL.
//
// Update and Delete re-fetch the persisted row through the ownership scope
// before touching the store: a caller-supplied record forged with a foreign
// id fails with ErrNotFound, and the owner field persisted by Update is
// always the stored one, never the caller's.
//
// # Information Hiding
//
// GetByID, Update and Delete report ErrNotFound both for records that do not
// exist and for records owned by another principal. Callers cannot probe for
// the existence of other tenants' data.
//
// # Usage
//
//	svc := scopedcache.New(taskRepo, tagCache, scopedcache.ResourceConfig{
//		Filters: map[string]scopedcache.FilterFunc{
//			"status": scopedcache.Equals("status"),
//			"search": scopedcache.Contains("title"),
//		},
//	})
//
//	page, err := svc.List(ctx, principal, scopedcache.Filters{"status": "open"}, scopedcache.Pagination{})
package scopedcache
