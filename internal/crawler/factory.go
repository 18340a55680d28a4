package crawler

import (
	"sjsage522/pricescout/config"
	"sjsage522/pricescout/helpers"
	"sjsage522/pricescout/logger"
	"sjsage522/pricescout/services/cache"
)

// CreateProviders creates one search provider per supported marketplace, in
// the order their results are concatenated
func CreateProviders(cfg *config.Config, cacheSvc cache.CacheService, fetcher PageFetcher) []Provider {
	configurations := []SearchConfig{
		{
			Marketplace: Amazon,
			BaseURL:     cfg.AmazonURL,
			CacheKey:    ProfileFor(Amazon).CooldownKey(),
			BlockTime:   cfg.BlockTime,
			SearchURL:   amazonSearchURL,
			Parse:       parseAmazonSearch,
		},
		{
			Marketplace: Flipkart,
			BaseURL:     cfg.FlipkartURL,
			CacheKey:    ProfileFor(Flipkart).CooldownKey(),
			BlockTime:   cfg.BlockTime,
			SearchURL:   flipkartSearchURL,
			Parse:       parseFlipkartSearch,
		},
		{
			Marketplace: Myntra,
			BaseURL:     cfg.MyntraURL,
			CacheKey:    ProfileFor(Myntra).CooldownKey(),
			BlockTime:   cfg.BlockTime,
			SearchURL:   myntraSearchURL,
			Parse:       parseMyntraSearch,
		},
	}

	var providers []Provider
	for _, c := range configurations {
		providers = append(providers, NewSearchProvider(c, fetcher, cacheSvc))
	}

	for _, p := range providers {
		logger.Debug("Search provider created: %s", p.GetName())
	}
	return providers
}

// NewEngineFromConfig builds an engine with a fetcher using the product page
// timeout, and providers sharing its host pacing with the shorter search
// timeout
func NewEngineFromConfig(cfg *config.Config, cacheSvc cache.CacheService) (*Engine, []Provider) {
	fetcher := helpers.NewFetcher(cfg.FetchTimeout, cfg.RateLimitInterval)
	engine := NewEngine(fetcher, cacheSvc, cfg.BlockTime)
	providers := CreateProviders(cfg, cacheSvc, fetcher.WithTimeout(cfg.SearchTimeout))
	return engine, providers
}
