package crawler

import (
	"context"
	"time"

	"sjsage522/pricescout/helpers"
	"sjsage522/pricescout/logger"
	"sjsage522/pricescout/pkg/errors"
	"sjsage522/pricescout/services/cache"
)

// Engine resolves product URLs into extraction results
type Engine struct {
	BaseCrawler
	extractor *Extractor
}

// NewEngine creates an engine that fetches through fetcher. cacheSvc may be
// nil, which disables marketplace cooldowns.
func NewEngine(fetcher PageFetcher, cacheSvc cache.CacheService, blockTime time.Duration) *Engine {
	return &Engine{
		BaseCrawler: BaseCrawler{
			Fetcher:   fetcher,
			CacheSvc:  cacheSvc,
			BlockTime: blockTime,
		},
		extractor: NewExtractor(),
	}
}

// ExtractProduct fetches url and extracts its fields. Failures are reported
// in the result's Error field; it never returns a Go error.
func (e *Engine) ExtractProduct(ctx context.Context, url string) ExtractionResult {
	result, err := e.Lookup(ctx, url)
	if err != nil && !result.HasError() {
		result.Error = "fetch failed: " + err.Error()
	}
	return result
}

// Lookup is ExtractProduct with the underlying failure exposed. A bot check
// yields an error matching errors.ErrBotCheck alongside a result carrying
// BotCheckMessage.
func (e *Engine) Lookup(ctx context.Context, url string) (ExtractionResult, error) {
	profile := DetectProfile(url, "")
	log := logger.ForExtractor(string(profile.Marketplace))

	page, err := e.fetchWithCache(ctx, profile.CooldownKey(), url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Fetch failed")
		return ExtractionResult{Currency: profile.Currency}, err
	}

	return e.extractPage(page)
}

func (e *Engine) extractPage(page *helpers.Page) (ExtractionResult, error) {
	profile := DetectProfile(page.URL, page.FinalURL)

	doc, err := e.createDocument(page)
	if err != nil {
		return ExtractionResult{Currency: profile.Currency}, err
	}

	result := e.extractor.Extract(doc, page.URL, page.FinalURL)
	if result.Error == BotCheckMessage {
		return result, errors.NewBotCheck(string(profile.Marketplace), page.FinalURL)
	}
	return result, nil
}
