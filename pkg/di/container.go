package di

import (
	"log/slog"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/stackmill/tenantcache/cache"
	"github.com/stackmill/tenantcache/scopedcache"
)

// Container provides dependency injection for the scoped cache components.
// It manages a singleton tag cache backend and the logger shared by every
// scoped repository created through it.
type Container struct {
	tagCache cache.TagCache
	logger   *slog.Logger
}

// Option customizes a Container.
type Option func(*Container)

// WithLogger sets the logger handed to scoped repositories.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// NewContainer creates a DI container backed by the in-memory tag cache.
func NewContainer(cfg cache.Config, opts ...Option) (*Container, error) {
	tagCache, err := cache.NewMemoryTagCache(cfg)
	if err != nil {
		return nil, err
	}
	return newContainer(tagCache, opts...), nil
}

// NewContainerWithDefaults creates a DI container using the default
// in-memory cache configuration.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

// NewRedisContainer creates a DI container backed by a shared Redis tag
// cache, for deployments with more than one application instance.
func NewRedisContainer(cfg cache.RedisConfig, opts ...Option) (*Container, error) {
	tagCache, err := cache.NewRedisTagCache(cfg)
	if err != nil {
		return nil, err
	}
	return newContainer(tagCache, opts...), nil
}

func newContainer(tagCache cache.TagCache, opts ...Option) *Container {
	c := &Container{
		tagCache: tagCache,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TagCache returns the singleton tag cache backend.
func (c *Container) TagCache() cache.TagCache {
	return c.tagCache
}

// Logger returns the container's logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// NewScopedRepository creates a scoped, cached repository for one record
// type, wiring in the container's cache backend and logger.
//
// Since Go methods cannot have type parameters, this is provided as a
// package-level function:
//
//	tasks := di.NewScopedRepository(container, taskRepo, scopedcache.ResourceConfig{})
func NewScopedRepository[T scopedcache.Owned](c *Container, base repository.Repository[T], cfg scopedcache.ResourceConfig) *scopedcache.Service[T] {
	if cfg.Logger == nil {
		cfg.Logger = c.logger
	}
	return scopedcache.New(base, c.tagCache, cfg)
}
