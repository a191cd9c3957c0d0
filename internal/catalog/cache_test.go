package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/metrics"
	"github.com/angelmondragon/afrifurn-storefront/pkg/redis"
)

type memoryCache struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return "", m.failGet
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type stubCatalog struct {
	mu         sync.Mutex
	products   []Product
	err        error
	filterHits int
	colorHits  int
}

func (s *stubCatalog) FilterProducts(context.Context, filters.QueryParameters) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterHits++
	return s.products, s.err
}

func (s *stubCatalog) ProductByShortName(_ context.Context, shortName string) (*Product, error) {
	return &Product{ID: "p-" + shortName, ShortName: shortName}, nil
}

func (s *stubCatalog) Colors(context.Context) ([]Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colorHits++
	return []Color{{Name: "Red", Code: "#ff0000"}}, nil
}

func (s *stubCatalog) Materials(context.Context) ([]Material, error) {
	return []Material{{Name: "Oak"}}, nil
}

func (s *stubCatalog) Categories(context.Context) ([]Category, error) {
	return []Category{{ShortName: "sofas", Name: "Sofas"}}, nil
}

func newFetcher(upstream Catalog, cache redis.Cache) *CachedFetcher {
	return NewCachedFetcher(upstream, cache, CacheTTLs{Filter: 5 * time.Minute, Facets: 15 * time.Minute},
		logger.Nop(), metrics.NewBrowseMetrics(prometheus.NewRegistry()))
}

func TestCachedFetcherServesRepeatQueriesFromCache(t *testing.T) {
	upstream := &stubCatalog{products: []Product{{ID: "p1", Name: "Sofa", Price: *filters.Amount(300)}}}
	cache := newMemoryCache()
	fetcher := newFetcher(upstream, cache)
	params := filters.Serialize(filters.Snapshot{Colors: filters.NewSet("red"), Page: 1, PageSize: 12})

	first, err := fetcher.FilterProducts(context.Background(), params)
	require.NoError(t, err)
	second, err := fetcher.FilterProducts(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.filterHits)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].Price.Equal(second[0].Price))

	key := redis.FilterCacheKey(params.Key())
	assert.Equal(t, 5*time.Minute, cache.ttls[key])
}

func TestCachedFetcherDoesNotCacheErrors(t *testing.T) {
	upstream := &stubCatalog{err: errors.New("boom")}
	fetcher := newFetcher(upstream, newMemoryCache())

	for i := 0; i < 2; i++ {
		_, err := fetcher.FilterProducts(context.Background(), nil)
		require.Error(t, err)
	}
	assert.Equal(t, 2, upstream.filterHits)
}

func TestCachedFetcherBypassesBrokenCache(t *testing.T) {
	upstream := &stubCatalog{products: []Product{{ID: "p1"}}}
	cache := newMemoryCache()
	cache.failGet = errors.New("redis down")
	cache.failSet = errors.New("redis down")
	fetcher := newFetcher(upstream, cache)

	products, err := fetcher.FilterProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestCachedFetcherDiscardsCorruptEntries(t *testing.T) {
	upstream := &stubCatalog{}
	cache := newMemoryCache()
	cache.data[redis.FacetKey("colors")] = "{not json"
	fetcher := newFetcher(upstream, cache)

	colors, err := fetcher.Colors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", colors[0].Code)
	assert.Equal(t, 1, upstream.colorHits)

	_, err = fetcher.Colors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.colorHits, "rewritten entry should be served")
}

func TestCachedFetcherWithoutCache(t *testing.T) {
	upstream := &stubCatalog{}
	fetcher := newFetcher(upstream, nil)

	product, err := fetcher.ProductByShortName(context.Background(), "oslo")
	require.NoError(t, err)
	assert.Equal(t, "p-oslo", product.ID)

	facets, err := LoadFacets(context.Background(), fetcher)
	require.NoError(t, err)
	assert.Len(t, facets.Materials, 1)
}
