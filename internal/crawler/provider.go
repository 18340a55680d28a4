package crawler

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricescout/logger"
	"sjsage522/pricescout/services/cache"
)

// SearchConfig describes one marketplace's search endpoint and listing format
type SearchConfig struct {
	Marketplace Marketplace
	BaseURL     string
	CacheKey    string
	BlockTime   time.Duration

	// SearchURL builds the listing URL for query under baseURL
	SearchURL func(baseURL, query string) string

	// Parse turns a listing page into candidates. URLs must be made
	// absolute against baseURL.
	Parse func(doc *goquery.Document, baseURL, query string) []SearchResult
}

// SearchProvider queries one marketplace
type SearchProvider struct {
	BaseCrawler
	config SearchConfig
}

// NewSearchProvider creates a provider from its configuration
func NewSearchProvider(config SearchConfig, fetcher PageFetcher, cacheSvc cache.CacheService) *SearchProvider {
	return &SearchProvider{
		BaseCrawler: BaseCrawler{
			Fetcher:   fetcher,
			CacheSvc:  cacheSvc,
			BlockTime: config.BlockTime,
		},
		config: config,
	}
}

// Search fetches and parses the marketplace listing for query. Any failure
// is logged and yields no results.
func (p *SearchProvider) Search(ctx context.Context, query string) (results []SearchResult) {
	log := logger.ForProvider(p.GetName())

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("query", query).Msg("Search aborted")
			results = nil
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	target := p.config.SearchURL(p.config.BaseURL, query)
	page, err := p.fetchWithCache(ctx, p.config.CacheKey, target)
	if err != nil {
		log.Warn().Err(err).Str("url", target).Msg("Search fetch failed")
		return nil
	}

	doc, err := p.createDocument(page)
	if err != nil {
		log.Warn().Err(err).Str("url", target).Msg("Search page unreadable")
		return nil
	}

	if IsBotCheck(doc, page.FinalURL) {
		log.Warn().Str("url", page.FinalURL).Msg("Bot check page detected")
		return nil
	}

	results = capResults(p.config.Parse(doc, p.config.BaseURL, query))
	log.Debug().Int("count", len(results)).Str("query", query).Msg("Search finished")
	return results
}

// GetName returns the provider's name
func (p *SearchProvider) GetName() string {
	return string(p.config.Marketplace)
}

// GetMarketplace returns the marketplace the provider queries
func (p *SearchProvider) GetMarketplace() Marketplace {
	return p.config.Marketplace
}

func capResults(results []SearchResult) []SearchResult {
	if len(results) > MaxResults {
		return results[:MaxResults]
	}
	return results
}

// escapeQuery percent-encodes a query with spaces as %20
func escapeQuery(query string) string {
	return strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}
