package crawler

import (
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricescout/logger"
)

// titleBlacklist holds placeholder titles served instead of a product name
var titleBlacklist = []string{
	"Add to your order",
	"Amazon.in",
	"Amazon.com",
	"Shopping Cart",
	"Page Not Found",
	"Robot Check",
	"Welcome to Amazon",
}

const botCheckTitleMarker = "Robot Check"

// IsPlaceholderTitle reports whether title is a known placeholder
func IsPlaceholderTitle(title string) bool {
	return slices.Contains(titleBlacklist, strings.TrimSpace(title))
}

// IsBotCheck reports whether the document is an interception page rather
// than the requested product
func IsBotCheck(doc *goquery.Document, finalURL string) bool {
	return strings.Contains(documentTitle(doc), botCheckTitleMarker) ||
		strings.Contains(strings.ToLower(finalURL), "captcha")
}

func acceptTitle(title string) bool {
	return title != "" && !IsPlaceholderTitle(title)
}

func acceptAmount(a Amount) bool {
	return a.Value > 0
}

func acceptImage(src string) bool {
	return src != ""
}

// Extractor recovers product fields from a parsed document
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract runs the matching profile's chains against doc. It never panics:
// an internal failure yields an empty result.
func (e *Extractor) Extract(doc *goquery.Document, url, finalURL string) (result ExtractionResult) {
	profile := DetectProfile(url, finalURL)
	log := logger.ForExtractor(string(profile.Marketplace))

	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("url", url).
				Interface("panic", r).
				Msg("Extraction aborted")
			result = ExtractionResult{Currency: profile.Currency}
		}
	}()

	if IsBotCheck(doc, finalURL) {
		log.Warn().Str("url", url).Str("final_url", finalURL).Msg("Bot check page detected")
		return ExtractionResult{Currency: profile.Currency, Error: BotCheckMessage}
	}

	page := NewPage(doc, url, finalURL)
	result.Currency = profile.Currency

	title := profile.Title.Resolve(page, acceptTitle)
	if title.Kind == Found {
		result.Title = &title.Value
	}

	amount := profile.Price.Resolve(page, acceptAmount)
	if amount.Kind == Found {
		value := amount.Value.Value
		result.Price = &value
		if amount.Value.Currency != "" {
			result.Currency = amount.Value.Currency
		}
	}

	image := profile.Image.Resolve(page, acceptImage)
	if image.Kind == Found {
		result.ImageURL = &image.Value
	}

	if logger.IsDebugEnabled() {
		log.Debug().
			Str("url", url).
			Str("title_strategy", title.Strategy).
			Str("price_strategy", amount.Strategy).
			Str("price_outcome", amount.Kind.String()).
			Str("image_strategy", image.Strategy).
			Msg("Extraction finished")
	}

	return result
}
