package crawler

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricescout/helpers"
	"sjsage522/pricescout/logger"
	"sjsage522/pricescout/pkg/errors"
	"sjsage522/pricescout/services/cache"
)

// PageFetcher retrieves one document per call
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*helpers.Page, error)
}

// BaseCrawler provides the fetch path shared by the engine and the search
// providers
type BaseCrawler struct {
	Fetcher   PageFetcher
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// fetchWithCache fetches url unless cacheKey marks the marketplace as cooling
// down. A rate-limited response starts the cooldown.
func (c *BaseCrawler) fetchWithCache(ctx context.Context, cacheKey, url string) (*helpers.Page, error) {
	if c.CacheSvc != nil && cacheKey != "" {
		if _, err := c.CacheSvc.Get(cacheKey); err == nil {
			return nil, errors.NewRateLimit(cacheKey, c.BlockTime)
		}
	}

	page, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		if c.CacheSvc != nil && cacheKey != "" && errors.TypeOf(err) == errors.ErrorTypeRateLimit {
			seconds := strconv.Itoa(int(c.BlockTime / time.Second))
			if cerr := c.CacheSvc.Set(cacheKey, []byte(seconds), c.BlockTime); cerr != nil {
				logger.ForCache().Warn().Err(cerr).Str("key", cacheKey).Msg("Failed to store cooldown")
			}
		}
		return nil, err
	}

	return page, nil
}

// createDocument parses a fetched body
func (c *BaseCrawler) createDocument(page *helpers.Page) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, errors.NewParsing(page.URL, "failed to parse HTML", err)
	}
	return doc, nil
}
