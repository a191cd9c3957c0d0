package catalog

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/metrics"
	"github.com/angelmondragon/afrifurn-storefront/pkg/redis"
)

// CacheTTLs controls how long each kind of response is kept.
type CacheTTLs struct {
	Filter time.Duration
	Facets time.Duration
}

// CachedFetcher serves product service responses from redis when it can. Cache failures are
// logged and bypassed; they never fail a request.
type CachedFetcher struct {
	upstream Catalog
	cache    redis.Cache
	ttls     CacheTTLs
	logg     *logger.Logger
	metrics  *metrics.BrowseMetrics
}

var _ Catalog = (*CachedFetcher)(nil)

func NewCachedFetcher(upstream Catalog, cache redis.Cache, ttls CacheTTLs, logg *logger.Logger, m *metrics.BrowseMetrics) *CachedFetcher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedFetcher{
		upstream: upstream,
		cache:    cache,
		ttls:     ttls,
		logg:     logg,
		metrics:  m,
	}
}

func (f *CachedFetcher) FilterProducts(ctx context.Context, params filters.QueryParameters) ([]Product, error) {
	key := redis.FilterCacheKey(params.Key())
	return cached(ctx, f, "filter", key, f.ttls.Filter, func() ([]Product, error) {
		return f.upstream.FilterProducts(ctx, params)
	})
}

func (f *CachedFetcher) ProductByShortName(ctx context.Context, shortName string) (*Product, error) {
	key := redis.ProductKey(shortName)
	return cached(ctx, f, "product", key, f.ttls.Filter, func() (*Product, error) {
		return f.upstream.ProductByShortName(ctx, shortName)
	})
}

func (f *CachedFetcher) Colors(ctx context.Context) ([]Color, error) {
	return cached(ctx, f, "facets", redis.FacetKey("colors"), f.ttls.Facets, func() ([]Color, error) {
		return f.upstream.Colors(ctx)
	})
}

func (f *CachedFetcher) Materials(ctx context.Context) ([]Material, error) {
	return cached(ctx, f, "facets", redis.FacetKey("materials"), f.ttls.Facets, func() ([]Material, error) {
		return f.upstream.Materials(ctx)
	})
}

func (f *CachedFetcher) Categories(ctx context.Context) ([]Category, error) {
	return cached(ctx, f, "facets", redis.FacetKey("categories"), f.ttls.Facets, func() ([]Category, error) {
		return f.upstream.Categories(ctx)
	})
}

func cached[T any](ctx context.Context, f *CachedFetcher, kind, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if f.cache == nil || ttl <= 0 {
		return load()
	}

	raw, err := f.cache.Get(ctx, key)
	switch {
	case err == nil:
		var hit T
		if decodeErr := json.Unmarshal([]byte(raw), &hit); decodeErr == nil {
			f.metrics.IncCacheLookup(kind, metrics.CacheHit)
			return hit, nil
		}
		f.metrics.IncCacheLookup(kind, metrics.CacheError)
		f.logg.Warn(f.logg.WithField(ctx, "cache_key", key), "discarding undecodable cache entry")
	case redis.IsMiss(err):
		f.metrics.IncCacheLookup(kind, metrics.CacheMiss)
	default:
		f.metrics.IncCacheLookup(kind, metrics.CacheError)
		f.logg.Warn(f.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "cache read failed")
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "cache_key", key), "cache encode failed")
		return value, nil
	}
	if err := f.cache.Set(ctx, key, string(payload), ttl); err != nil {
		f.logg.Warn(f.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "cache write failed")
	}
	return value, nil
}
