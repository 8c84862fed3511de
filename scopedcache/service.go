package scopedcache

import (
	"context"
	"log/slog"
	"sort"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/stackmill/tenantcache/cache"
	"github.com/stackmill/tenantcache/scope"
	"golang.org/x/sync/singleflight"
)

// Owned is implemented by record types managed through the scoped cache.
// Each type declares its identity and owner accessors statically; there is no
// runtime probing for conventionally named fields.
type Owned interface {
	RecordID() string
	OwnerID() string
	SetOwner(id string)
}

// ResourceConfig declares how one record type participates in caching and
// ownership scoping. It is resolved once at registration time.
type ResourceConfig struct {
	// Name namespaces cache keys and tags for this record type. Empty
	// derives the snake-cased type name.
	Name string

	// OwnerColumn overrides the owner-identifier column. Empty uses
	// scope.DefaultOwnerColumn.
	OwnerColumn string

	// Filters declares the filter names callers may supply and how each
	// one constrains a list query. Unknown filter names are rejected.
	Filters map[string]FilterFunc

	// Logger receives operational signals such as invalidation failures.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Service decorates a base repository with tenant scoping and tagged
// caching. Reads are cache-first with the scoped store as the miss path;
// mutations pass through to the store and then ripple tag invalidations so
// subsequent reads rebuild.
type Service[T Owned] struct {
	base      repository.Repository[T]
	cache     cache.TagCache
	group     singleflight.Group
	resource  string
	ownership scope.Ownership
	filters   map[string]FilterFunc
	logger    *slog.Logger
}

// New creates a Service wrapping the base repository for one record type.
func New[T Owned](base repository.Repository[T], tagCache cache.TagCache, cfg ResourceConfig) *Service[T] {
	name := cfg.Name
	if name == "" {
		name = resourceName[T]()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service[T]{
		base:      base,
		cache:     tagCache,
		resource:  name,
		ownership: scope.Ownership{Column: cfg.OwnerColumn},
		filters:   cfg.Filters,
		logger:    logger,
	}
}

// Resource returns the name namespacing this service's keys and tags.
func (s *Service[T]) Resource() string {
	return s.resource
}

// List returns one page of the principal's records matching the filters.
// Results are served from the cache when possible; the cached page and the
// miss-path query are both principal-scoped, so a tenant can never observe
// another tenant's page.
func (s *Service[T]) List(ctx context.Context, principal scope.Principal, filters Filters, page Pagination) (Page[T], error) {
	var zero Page[T]

	scoped, err := s.ownership.SelectCriteria(principal)
	if err != nil {
		return zero, err
	}

	page = page.withDefaults()
	if err := page.Validate(); err != nil {
		return zero, err
	}

	applied, err := s.filterCriteria(filters)
	if err != nil {
		return zero, err
	}

	key := cache.ListKey(s.resource, filters, page.Page, page.PerPage, principal.ID)
	tags := []string{cache.CollectionTag(s.resource)}

	return cache.GetOrFetch(ctx, s.cache, &s.group, key, key, tags, func(ctx context.Context) (Page[T], error) {
		criteria := make([]repository.SelectCriteria, 0, len(applied)+2)
		criteria = append(criteria, scoped)
		criteria = append(criteria, applied...)
		criteria = append(criteria, paginateCriteria(page))

		records, total, err := s.base.List(ctx, criteria...)
		if err != nil {
			return Page[T]{}, err
		}
		return Page[T]{Items: records, Total: total, Page: page.Page, PerPage: page.PerPage}, nil
	})
}

// GetByID returns the principal's record with the given identifier. A record
// that does not exist and a record owned by a different principal are
// indistinguishable: both fail with ErrNotFound. Item keys are global, so the
// ownership check also runs against cache hits.
func (s *Service[T]) GetByID(ctx context.Context, principal scope.Principal, id string) (T, error) {
	var zero T

	scoped, err := s.ownership.SelectCriteria(principal)
	if err != nil {
		return zero, err
	}

	key := cache.ItemKey(s.resource, id)
	tags := []string{cache.CollectionTag(s.resource), cache.ItemTag(s.resource, id)}

	// Item keys are global, but the miss-path query is principal-scoped,
	// so two tenants' fetches for the same id must never share a flight:
	// one tenant's NotFound is not the other's.
	flight := principal.ID + "\x1f" + key

	record, err := cache.GetOrFetch(ctx, s.cache, &s.group, flight, key, tags, func(ctx context.Context) (T, error) {
		found, err := s.base.GetByID(ctx, id, scoped)
		if err != nil {
			if isNoRows(err) {
				return zero, ErrNotFound
			}
			return zero, err
		}
		return found, nil
	})
	if err != nil {
		return zero, err
	}

	if !s.ownership.Owns(principal, record.OwnerID()) {
		return zero, ErrNotFound
	}
	return record, nil
}

// Create persists a new record owned by the principal. The owner identifier
// is assigned here from the requesting principal; whatever the caller set on
// the record is overwritten. On success the collection tag is invalidated so
// cached list pages rebuild.
func (s *Service[T]) Create(ctx context.Context, principal scope.Principal, record T) (T, error) {
	var zero T

	if !principal.Valid() {
		return zero, scope.ErrUnauthenticated
	}
	record.SetOwner(principal.ID)

	created, err := s.base.Create(ctx, record)
	if err != nil {
		return zero, err
	}

	s.invalidate(ctx, "create", cache.CollectionTag(s.resource))
	return created, nil
}

// Update persists changes to one of the principal's records, then
// invalidates the record's item tag and the collection tag. The persisted
// row is re-fetched through the ownership scope first: a caller-supplied
// record claiming the wrong owner fails with ErrNotFound, and the owner
// field written to the store is always the persisted one, never the
// caller's.
func (s *Service[T]) Update(ctx context.Context, principal scope.Principal, record T) (T, error) {
	var zero T

	current, err := s.currentRecord(ctx, principal, record.RecordID())
	if err != nil {
		return zero, err
	}
	record.SetOwner(current.OwnerID())

	updated, err := s.base.Update(ctx, record)
	if err != nil {
		return zero, err
	}

	s.invalidate(ctx, "update",
		cache.ItemTag(s.resource, updated.RecordID()),
		cache.CollectionTag(s.resource))
	return updated, nil
}

// Delete removes one of the principal's records, then invalidates the
// record's item tag and the collection tag. Like Update, it deletes the row
// re-fetched through the ownership scope, not the caller's copy.
func (s *Service[T]) Delete(ctx context.Context, principal scope.Principal, record T) error {
	current, err := s.currentRecord(ctx, principal, record.RecordID())
	if err != nil {
		return err
	}

	if err := s.base.Delete(ctx, current); err != nil {
		return err
	}

	s.invalidate(ctx, "delete",
		cache.ItemTag(s.resource, current.RecordID()),
		cache.CollectionTag(s.resource))
	return nil
}

// currentRecord loads the persisted row through the ownership scope before a
// mutation. The caller-supplied record is never trusted: existence and
// ownership are re-established from the store, and absence and foreign
// ownership collapse into the same ErrNotFound.
func (s *Service[T]) currentRecord(ctx context.Context, principal scope.Principal, id string) (T, error) {
	var zero T

	scoped, err := s.ownership.SelectCriteria(principal)
	if err != nil {
		return zero, err
	}

	current, err := s.base.GetByID(ctx, id, scoped)
	if err != nil {
		if isNoRows(err) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	if !s.ownership.Owns(principal, current.OwnerID()) {
		return zero, ErrNotFound
	}
	return current, nil
}

// invalidate drops the tags after a successful mutation. The mutation has
// already committed, so a backend failure here is logged and absorbed: stale
// reads are bounded by the cache TTL, durability is not conditioned on cache
// availability.
func (s *Service[T]) invalidate(ctx context.Context, op string, tags ...string) {
	if err := s.cache.InvalidateTags(ctx, tags...); err != nil {
		s.logger.ErrorContext(ctx, "cache_invalidation_failure",
			slog.String("resource", s.resource),
			slog.String("operation", op),
			slog.Any("tags", tags),
			slog.String("error", err.Error()),
		)
	}
}

// filterCriteria resolves the supplied filters against the declared filter
// set. Names are applied in sorted order so the generated query is stable.
func (s *Service[T]) filterCriteria(filters Filters) ([]repository.SelectCriteria, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		if _, ok := s.filters[name]; !ok {
			return nil, &UnknownFilterError{Resource: s.resource, Name: name}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	criteria := make([]repository.SelectCriteria, 0, len(names))
	for _, name := range names {
		criteria = append(criteria, s.filters[name].criteria(filters[name]))
	}
	return criteria, nil
}
