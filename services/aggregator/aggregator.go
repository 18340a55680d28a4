package aggregator

import (
	"cmp"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sjsage522/pricescout/helpers"
	"sjsage522/pricescout/internal/crawler"
	"sjsage522/pricescout/logger"
	"sjsage522/pricescout/services/cache"
)

const (
	// RelevanceThreshold is the share of query words a title must contain
	RelevanceThreshold = 0.5

	// fallbackQueryWords is how much of a product name seeds an
	// alternatives search
	fallbackQueryWords = 5
)

// Aggregator fans a query out to every search provider and ranks the
// relevant candidates by price
type Aggregator struct {
	providers []crawler.Provider
	cache     cache.CacheService
	cacheTTL  time.Duration
}

// NewAggregator creates an aggregator. Results are cached only when
// cacheSvc is set and cacheTTL is positive.
func NewAggregator(providers []crawler.Provider, cacheSvc cache.CacheService, cacheTTL time.Duration) *Aggregator {
	return &Aggregator{
		providers: providers,
		cache:     cacheSvc,
		cacheTTL:  cacheTTL,
	}
}

// SearchProducts queries all providers concurrently and returns the relevant
// candidates, cheapest first. One provider failing or stalling never affects
// the others' results.
func (a *Aggregator) SearchProducts(ctx context.Context, query string) []crawler.SearchResult {
	log := logger.ForAggregator()

	if cached, ok := a.lookup(query); ok {
		log.Debug().Str("query", query).Int("count", len(cached)).Msg("Search served from cache")
		return cached
	}

	candidates := a.collect(ctx, query)
	matches := Rank(Filter(query, candidates))

	log.Info().
		Str("query", query).
		Int("candidates", len(candidates)).
		Int("matches", len(matches)).
		Msg("Search finished")

	a.store(query, matches)
	return matches
}

// SearchAlternatives looks for other offers of a product by the leading
// words of its name
func (a *Aggregator) SearchAlternatives(ctx context.Context, productName string) []crawler.SearchResult {
	query := FallbackQuery(productName)
	if query == "" {
		return []crawler.SearchResult{}
	}
	return a.SearchProducts(ctx, query)
}

// collect runs every provider and concatenates their results in
// registration order
func (a *Aggregator) collect(ctx context.Context, query string) []crawler.SearchResult {
	if len(a.providers) == 0 {
		return nil
	}

	slots := make([][]crawler.SearchResult, len(a.providers))

	var g errgroup.Group
	g.SetLimit(len(a.providers))
	for i, p := range a.providers {
		i, p := i, p
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.ForProvider(p.GetName()).Error().
						Interface("panic", r).
						Str("query", query).
						Msg("Provider panicked")
				}
			}()
			slots[i] = p.Search(ctx, query)
			return nil
		})
	}
	_ = g.Wait()

	var all []crawler.SearchResult
	for _, s := range slots {
		all = append(all, s...)
	}
	return all
}

// IsRelevant reports whether title contains at least half of the distinct
// lowercase words of query. A query without words matches nothing.
func IsRelevant(query, title string) bool {
	queryWords := distinctWords(query)
	if len(queryWords) == 0 {
		return false
	}
	titleWords := distinctWords(title)

	matched := 0
	for w := range queryWords {
		if _, ok := titleWords[w]; ok {
			matched++
		}
	}
	return float64(matched)/float64(len(queryWords)) >= RelevanceThreshold
}

func distinctWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		words[w] = struct{}{}
	}
	return words
}

// Filter keeps the results relevant to query, preserving order
func Filter(query string, results []crawler.SearchResult) []crawler.SearchResult {
	matches := make([]crawler.SearchResult, 0, len(results))
	for _, r := range results {
		if IsRelevant(query, r.Title) {
			matches = append(matches, r)
		}
	}
	return matches
}

// Rank sorts results by ascending price in place and returns them. Results
// without a price go last; ties keep their order.
func Rank(results []crawler.SearchResult) []crawler.SearchResult {
	slices.SortStableFunc(results, func(a, b crawler.SearchResult) int {
		return cmp.Compare(sortPrice(a), sortPrice(b))
	})
	return results
}

func sortPrice(r crawler.SearchResult) float64 {
	// a listed price of 0 is not a real offer and ranks with the unpriced ones
	if r.Price == nil || *r.Price <= 0 {
		return math.Inf(1)
	}
	return *r.Price
}

// FallbackQuery derives a search query from a product name
func FallbackQuery(productName string) string {
	return strings.Join(helpers.LeadingWords(productName, fallbackQueryWords), " ")
}

func cacheKey(query string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(query)))
	return "search:" + hex.EncodeToString(sum[:])
}

func (a *Aggregator) lookup(query string) ([]crawler.SearchResult, bool) {
	if a.cache == nil || a.cacheTTL <= 0 {
		return nil, false
	}
	data, err := a.cache.Get(cacheKey(query))
	if err != nil {
		return nil, false
	}
	var results []crawler.SearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		logger.ForCache().Warn().Err(err).Msg("Discarding unreadable cached search")
		return nil, false
	}
	return results, true
}

func (a *Aggregator) store(query string, results []crawler.SearchResult) {
	if a.cache == nil || a.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := a.cache.Set(cacheKey(query), data, a.cacheTTL); err != nil {
		logger.ForCache().Warn().Err(err).Msg("Failed to cache search results")
	}
}
