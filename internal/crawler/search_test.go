package crawler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricescout/config"
	"sjsage522/pricescout/internal/price"
	"sjsage522/pricescout/pkg/errors"
)

func amazonCard(title, whole, href string) string {
	var b strings.Builder
	b.WriteString(`<div data-component-type="s-search-result">`)
	if title != "" {
		fmt.Fprintf(&b, `<h2><span>%s</span></h2>`, title)
	}
	if whole != "" {
		fmt.Fprintf(&b, `<span class="a-price"><span class="a-price-whole">%s</span></span>`, whole)
	}
	if href != "" {
		fmt.Fprintf(&b, `<a class="a-link-normal" href="%s">view</a>`, href)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func TestParseAmazonSearch(t *testing.T) {
	markup := "<html><body>" +
		amazonCard("Acme Phone 128GB", "", "/dp/NOPRICE") +
		amazonCard("Acme Phone 64GB", "9,999.", "/dp/B001") +
		amazonCard("Acme Phone Case", "499", "https://www.amazon.in/dp/B002") +
		amazonCard("Acme Phone Pro", "24,999", "/dp/B003") +
		amazonCard("Acme Phone Max", "29,999", "/dp/B004") +
		"</body></html>"

	results := parseAmazonSearch(parseDoc(t, markup), "https://www.amazon.in", "acme phone")

	require.Len(t, results, MaxResults)
	assert.Equal(t, SearchResult{
		Source:   Amazon,
		Title:    "Acme Phone 64GB",
		Price:    floatPtr(9999),
		Currency: price.INR,
		URL:      "https://www.amazon.in/dp/B001",
	}, results[0])
	assert.Equal(t, "https://www.amazon.in/dp/B002", results[1].URL)
	assert.Equal(t, "Acme Phone Pro", results[2].Title)
}

func flipkartSearchPage(products ...string) string {
	return `<html><body><script>window.__INITIAL_STATE__ = {"multiWidgetState":{"widgetsData":{"slots":[` +
		`{"slotData":{"widget":{"type":"BANNER"}}},` +
		`{"slotData":{"widget":{"data":{"products":[` + strings.Join(products, ",") + `]}}}}` +
		`]}}};</script></body></html>`
}

func TestParseFlipkartSearchState(t *testing.T) {
	markup := flipkartSearchPage(
		`{"value":{"titles":{"title":"Acme Phone 5G"},"pricing":{"displayPrice":24999}},"action":{"url":"/acme-phone/p/1"}}`,
		`{"value":{"titles":{"newTitle":"Acme Phone Lite"},"pricing":{"finalPrice":{"value":14999}}},"action":{"url":"/acme-lite/p/2"}}`,
		`{"value":{"titles":{"title":"No URL"},"pricing":{"displayPrice":1}}}`,
		`{"value":{"titles":{"title":"Acme Phone Max"},"pricing":{"prices":[{"name":"Maximum Retail Price","value":40000},{"name":"Selling Price","value":34999}]}},"action":{"url":"/acme-max/p/3"}}`,
		`{"value":{"titles":{"title":"Acme Phone Ultra"},"pricing":{"displayPrice":54999}},"action":{"url":"/acme-ultra/p/4"}}`,
	)

	results := parseFlipkartSearch(parseDoc(t, markup), "https://www.flipkart.com", "acme phone")

	require.Len(t, results, MaxResults)
	assert.Equal(t, "Acme Phone 5G", results[0].Title)
	assert.Equal(t, 24999.0, *results[0].Price)
	assert.Equal(t, "https://www.flipkart.com/acme-phone/p/1", results[0].URL)
	assert.Equal(t, "Acme Phone Lite", results[1].Title)
	assert.Equal(t, 14999.0, *results[1].Price)
	assert.Equal(t, 34999.0, *results[2].Price)
	assert.Equal(t, Flipkart, results[2].Source)
}

func TestParseFlipkartSearchTextFallback(t *testing.T) {
	markup := `<html><head><title>Acme phone search</title></head><body>
<div class="card"><a href="/acme-phone/p/1"><div><span>Acme Phone Pro 5G (Blue, 128 GB)</span></div><div>₹24,999</div></a></div>
<div class="card"><a href="/acme-phone/p/1"><div><span>Acme Phone Pro duplicate listing</span></div><div>₹24,999</div></a></div>
<div class="card"><a href="/acme-tab/p/2"><div><span>ACME Tab</span></div><div>₹14,999</div></a></div>
<div class="card"><div><span>Acme without link</span></div></div>
</body></html>`

	results := parseFlipkartSearch(parseDoc(t, markup), "https://www.flipkart.com", "acme phone case")

	require.Len(t, results, 2)
	assert.Equal(t, "Acme Phone Pro 5G (Blue, 128 GB)...", results[0].Title)
	assert.Equal(t, 24999.0, *results[0].Price)
	assert.Equal(t, "https://www.flipkart.com/acme-phone/p/1", results[0].URL)
	assert.Equal(t, "https://www.flipkart.com/acme-tab/p/2", results[1].URL)
	assert.Equal(t, 14999.0, *results[1].Price)
}

func TestParseFlipkartSearchTextFallbackTruncatesTitle(t *testing.T) {
	long := strings.Repeat("Acme ", 20)
	markup := `<html><body><a href="/p/1"><div><span>` + long + `</span></div><span>₹99</span></a></body></html>`

	results := parseFlipkartSearch(parseDoc(t, markup), "https://www.flipkart.com", "acme")

	require.Len(t, results, 1)
	assert.Equal(t, strings.TrimSpace(long)[:50]+"...", results[0].Title)
}

func TestParseFlipkartSearchEmptyQuery(t *testing.T) {
	assert.Empty(t, parseFlipkartSearch(parseDoc(t, "<html></html>"), "https://www.flipkart.com", ""))
}

func TestParseMyntraSearch(t *testing.T) {
	markup := `<html><body><script>window.__myx = {"searchData":{"results":{"products":[
{"productName":"Roadster Men Shirt","price":899,"landingPageUrl":"shirts/roadster/1/buy"},
{"productName":"Roadster Men Tee","mrp":0,"landingPageUrl":"tshirts/roadster/2/buy"},
{"product":"Roadster Slim Shirt","discountedPrice":799,"mrp":1599,"landingPageUrl":"shirts/roadster/3/buy"},
{"productName":"Roadster Linen Shirt","mrp":1299,"landingPageUrl":"/shirts/roadster/4/buy"},
{"productName":"Roadster Oxford Shirt","price":999,"landingPageUrl":"shirts/roadster/5/buy"}
]}}};</script></body></html>`

	results := parseMyntraSearch(parseDoc(t, markup), "https://www.myntra.com", "roadster shirt")

	require.Len(t, results, MaxResults)
	assert.Equal(t, SearchResult{
		Source:   Myntra,
		Title:    "Roadster Men Shirt",
		Price:    floatPtr(899),
		Currency: price.INR,
		URL:      "https://www.myntra.com/shirts/roadster/1/buy",
	}, results[0])
	assert.Equal(t, "Roadster Slim Shirt", results[1].Title)
	assert.Equal(t, 799.0, *results[1].Price)
	assert.Equal(t, "https://www.myntra.com/shirts/roadster/4/buy", results[2].URL)
}

func TestSearchURLs(t *testing.T) {
	assert.Equal(t, "https://www.amazon.in/s?k=red%20running%20shoes", amazonSearchURL("https://www.amazon.in/", "red running shoes"))
	assert.Equal(t, "https://www.flipkart.com/search?q=a%26b", flipkartSearchURL("https://www.flipkart.com", "a&b"))
	assert.Equal(t, "https://www.myntra.com/red-running-shoes?rawQuery=Red%20Running%20shoes", myntraSearchURL("https://www.myntra.com", "Red Running shoes"))
}

func testConfig() *config.Config {
	return &config.Config{
		AmazonURL:   "https://www.amazon.in",
		FlipkartURL: "https://www.flipkart.com",
		MyntraURL:   "https://www.myntra.com",
		BlockTime:   time.Minute,
	}
}

func TestSearchProvider(t *testing.T) {
	fetcher := newMockFetcher().serve("https://www.amazon.in/s?k=acme%20phone",
		"<html><body>"+amazonCard("Acme Phone", "999", "/dp/B1")+"</body></html>")
	providers := CreateProviders(testConfig(), nil, fetcher)
	require.Len(t, providers, 3)

	amazon := providers[0]
	assert.Equal(t, "Amazon", amazon.GetName())
	assert.Equal(t, Amazon, amazon.GetMarketplace())

	results := amazon.Search(context.Background(), "  acme phone ")
	require.Len(t, results, 1)
	assert.Equal(t, "https://www.amazon.in/dp/B1", results[0].URL)
}

func TestSearchProviderFailuresYieldNothing(t *testing.T) {
	fetcher := newMockFetcher().
		fail("https://www.flipkart.com/search?q=acme", errors.NewNetwork("flipkart", "unexpected status code: 500", nil)).
		serve("https://www.amazon.in/s?k=acme", "<html><head><title>Robot Check</title></head><body>"+amazonCard("Acme", "1", "/dp/1")+"</body></html>")
	providers := CreateProviders(testConfig(), nil, fetcher)

	assert.Empty(t, providers[0].Search(context.Background(), "acme"))
	assert.Empty(t, providers[1].Search(context.Background(), "acme"))
	// unserved URL
	assert.Empty(t, providers[2].Search(context.Background(), "acme"))
	assert.Empty(t, providers[0].Search(context.Background(), "   "))
}

func TestSearchProviderRespectsCooldown(t *testing.T) {
	cache := NewMockCacheService()
	require.NoError(t, cache.Set("amazon_rate_limited", []byte("60"), time.Minute))
	fetcher := newMockFetcher()
	providers := CreateProviders(testConfig(), cache, fetcher)

	assert.Empty(t, providers[0].Search(context.Background(), "acme"))
	assert.Empty(t, fetcher.calls)
}

func TestSearchProviderRecoversFromPanics(t *testing.T) {
	p := NewSearchProvider(SearchConfig{
		Marketplace: Generic,
		SearchURL:   func(string, string) string { return "https://example.com" },
		Parse: func(*goquery.Document, string, string) []SearchResult {
			panic("boom")
		},
	}, newMockFetcher().serve("https://example.com", "<html></html>"), nil)

	assert.Empty(t, p.Search(context.Background(), "x"))
}

func floatPtr(v float64) *float64 {
	return &v
}
