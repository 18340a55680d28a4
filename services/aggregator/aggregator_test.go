package aggregator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricescout/internal/crawler"
	"sjsage522/pricescout/internal/price"
)

// stubProvider returns canned results
type stubProvider struct {
	marketplace crawler.Marketplace
	results     []crawler.SearchResult
	delay       time.Duration
	panics      bool
	calls       atomic.Int32
}

var _ crawler.Provider = (*stubProvider)(nil)

func (s *stubProvider) Search(ctx context.Context, query string) []crawler.SearchResult {
	s.calls.Add(1)
	if s.panics {
		panic("provider exploded")
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.results
}

func (s *stubProvider) GetName() string {
	return string(s.marketplace)
}

func (s *stubProvider) GetMarketplace() crawler.Marketplace {
	return s.marketplace
}

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{cache: make(map[string][]byte)}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, errors.New("cache miss")
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

func offer(source crawler.Marketplace, title string, p *float64) crawler.SearchResult {
	return crawler.SearchResult{
		Source:   source,
		Title:    title,
		Price:    p,
		Currency: price.INR,
		URL:      "https://example.com/" + title,
	}
}

func ptr(v float64) *float64 {
	return &v
}

func TestIsRelevant(t *testing.T) {
	testCases := []struct {
		query string
		title string
		want  bool
	}{
		{"red running shoes", "Red Running Shoes Size 9", true},
		{"red running shoes", "Blue Sandals", false},
		{"red shoes", "Red boots", true},
		{"red running shoes", "Red Sandals", false},
		{"red red shoes", "red boots", true},
		{"", "anything", false},
		{"   ", "anything", false},
		// punctuation is part of the word
		{"acme phone", "Acme-Phone", false},
	}

	for _, tc := range testCases {
		t.Run(tc.query+"/"+tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRelevant(tc.query, tc.title))
		})
	}
}

func TestRank(t *testing.T) {
	results := []crawler.SearchResult{
		offer(crawler.Amazon, "none", nil),
		offer(crawler.Amazon, "five hundred", ptr(500)),
		offer(crawler.Flipkart, "three hundred", ptr(300)),
	}

	ranked := Rank(results)
	require.Len(t, ranked, 3)
	assert.Equal(t, 300.0, *ranked[0].Price)
	assert.Equal(t, 500.0, *ranked[1].Price)
	assert.Nil(t, ranked[2].Price)
}

func TestRankIsStable(t *testing.T) {
	results := []crawler.SearchResult{
		offer(crawler.Amazon, "a", nil),
		offer(crawler.Amazon, "b", ptr(100)),
		offer(crawler.Flipkart, "c", nil),
		offer(crawler.Flipkart, "d", ptr(100)),
		offer(crawler.Myntra, "e", ptr(0)),
	}

	ranked := Rank(results)
	var titles []string
	for _, r := range ranked {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, titles)
}

func TestSearchProducts(t *testing.T) {
	amazon := &stubProvider{marketplace: crawler.Amazon, results: []crawler.SearchResult{
		offer(crawler.Amazon, "Acme Phone 128GB", ptr(12999)),
		offer(crawler.Amazon, "Phone Case", ptr(299)),
	}}
	flipkart := &stubProvider{marketplace: crawler.Flipkart, results: []crawler.SearchResult{
		offer(crawler.Flipkart, "Acme Phone 5G", nil),
		offer(crawler.Flipkart, "Acme Phone Lite", ptr(9999)),
	}}
	myntra := &stubProvider{marketplace: crawler.Myntra}

	agg := NewAggregator([]crawler.Provider{amazon, flipkart, myntra}, nil, 0)
	results := agg.SearchProducts(context.Background(), "acme phone")

	require.Len(t, results, 4)
	// "Phone Case" still shares half of the query
	assert.Equal(t, "Phone Case", results[0].Title)
	assert.Equal(t, 299.0, *results[0].Price)
	assert.Equal(t, "Acme Phone Lite", results[1].Title)
	assert.Equal(t, "Acme Phone 128GB", results[2].Title)
	assert.Equal(t, "Acme Phone 5G", results[3].Title)
	assert.Nil(t, results[3].Price)
}

func TestSearchProductsIsolatesProviderFailures(t *testing.T) {
	broken := &stubProvider{marketplace: crawler.Amazon, panics: true}
	slow := &stubProvider{marketplace: crawler.Flipkart, delay: 50 * time.Millisecond, results: []crawler.SearchResult{
		offer(crawler.Flipkart, "Acme Phone", ptr(100)),
	}}
	empty := &stubProvider{marketplace: crawler.Myntra}

	agg := NewAggregator([]crawler.Provider{broken, slow, empty}, nil, 0)
	results := agg.SearchProducts(context.Background(), "acme phone")

	require.Len(t, results, 1)
	assert.Equal(t, crawler.Flipkart, results[0].Source)
	assert.EqualValues(t, 1, broken.calls.Load())
	assert.EqualValues(t, 1, empty.calls.Load())
}

func TestSearchProductsRunsProvidersConcurrently(t *testing.T) {
	var providers []crawler.Provider
	for _, m := range []crawler.Marketplace{crawler.Amazon, crawler.Flipkart, crawler.Myntra} {
		providers = append(providers, &stubProvider{marketplace: m, delay: 100 * time.Millisecond})
	}

	start := time.Now()
	NewAggregator(providers, nil, 0).SearchProducts(context.Background(), "acme")
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestSearchProductsWithoutProviders(t *testing.T) {
	assert.Empty(t, NewAggregator(nil, nil, 0).SearchProducts(context.Background(), "acme"))
}

func TestSearchProductsCache(t *testing.T) {
	provider := &stubProvider{marketplace: crawler.Amazon, results: []crawler.SearchResult{
		offer(crawler.Amazon, "Acme Phone", ptr(100)),
	}}
	cache := NewMockCacheService()
	agg := NewAggregator([]crawler.Provider{provider}, cache, time.Minute)

	first := agg.SearchProducts(context.Background(), "acme phone")
	second := agg.SearchProducts(context.Background(), "acme phone")

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, provider.calls.Load())

	_, err := cache.Get(cacheKey("acme phone"))
	assert.NoError(t, err)
}

func TestSearchProductsCacheDisabled(t *testing.T) {
	provider := &stubProvider{marketplace: crawler.Amazon}
	agg := NewAggregator([]crawler.Provider{provider}, NewMockCacheService(), 0)

	agg.SearchProducts(context.Background(), "acme")
	agg.SearchProducts(context.Background(), "acme")
	assert.EqualValues(t, 2, provider.calls.Load())
}

func TestSearchAlternatives(t *testing.T) {
	provider := &stubProvider{marketplace: crawler.Amazon, results: []crawler.SearchResult{
		offer(crawler.Amazon, "Acme Phone 5G Blue 128GB", ptr(100)),
	}}
	agg := NewAggregator([]crawler.Provider{provider}, nil, 0)

	results := agg.SearchAlternatives(context.Background(), "Acme Phone 5G Blue 128GB with charger and case")
	require.Len(t, results, 1)

	assert.Empty(t, agg.SearchAlternatives(context.Background(), "   "))
}

func TestFallbackQuery(t *testing.T) {
	assert.Equal(t, "Acme Phone 5G Blue 128GB", FallbackQuery("Acme  Phone 5G Blue 128GB (Midnight) with charger"))
	assert.Equal(t, "Lamp", FallbackQuery(" Lamp "))
	assert.Empty(t, FallbackQuery(""))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("acme"), cacheKey("  acme "))
	assert.NotEqual(t, cacheKey("acme"), cacheKey("Acme"))
	assert.Len(t, cacheKey("acme"), len("search:")+40)
}
