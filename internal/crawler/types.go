package crawler

import (
	"context"

	"sjsage522/pricescout/internal/price"
)

// Marketplace identifies a supported site profile
type Marketplace string

const (
	Amazon   Marketplace = "Amazon"
	Myntra   Marketplace = "Myntra"
	Flipkart Marketplace = "Flipkart"
	Generic  Marketplace = "Generic"
)

// MaxResults caps the candidates a single search provider may return
const MaxResults = 3

// BotCheckMessage is the error reported when a marketplace serves an
// interception page instead of the product
const BotCheckMessage = "Bot check detected. Try again later."

// ExtractionResult is the structured record recovered from one product page.
// A result with no error and no price means no usable data was found.
type ExtractionResult struct {
	Title    *string        `json:"title"`
	Price    *float64       `json:"price"`
	Currency price.Currency `json:"currency"`
	ImageURL *string        `json:"image_url"`
	Error    string         `json:"error,omitempty"`
}

// IsEmpty reports whether no data field was recovered
func (r ExtractionResult) IsEmpty() bool {
	return r.Title == nil && r.Price == nil && r.ImageURL == nil
}

// HasError reports whether the extraction hit a hard failure
func (r ExtractionResult) HasError() bool {
	return r.Error != ""
}

// SearchResult is one candidate offer found through a marketplace search.
// URL is always absolute.
type SearchResult struct {
	Source   Marketplace    `json:"source"`
	Title    string         `json:"title"`
	Price    *float64       `json:"price"`
	Currency price.Currency `json:"currency"`
	URL      string         `json:"url"`
}

// Amount is a price recovered by a strategy. An empty Currency means the
// strategy saw no symbol and the profile's expected currency applies.
type Amount struct {
	Value    float64
	Currency price.Currency
}

// Provider defines the contract for all marketplace search providers
type Provider interface {
	// Search returns at most MaxResults candidates; failures yield an empty slice
	Search(ctx context.Context, query string) []SearchResult

	// GetName returns the provider's name for logging and identification
	GetName() string

	// GetMarketplace returns the marketplace the provider queries
	GetMarketplace() Marketplace
}
