package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricescout/helpers"
	"sjsage522/pricescout/internal/price"
)

func amazonSearchURL(baseURL, query string) string {
	return strings.TrimSuffix(baseURL, "/") + "/s?k=" + escapeQuery(query)
}

// parseAmazonSearch reads the rendered result cards
func parseAmazonSearch(doc *goquery.Document, baseURL, _ string) []SearchResult {
	var results []SearchResult

	doc.Find(`div[data-component-type="s-search-result"]`).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		titleTag := item.Find("h2").First()
		priceTag := item.Find("span.a-price-whole").First()
		linkTag := item.Find("a.a-link-normal").First()
		if titleTag.Length() == 0 || priceTag.Length() == 0 || linkTag.Length() == 0 {
			return true
		}

		href := strings.TrimSpace(linkTag.AttrOr("href", ""))
		title := strings.TrimSpace(titleTag.Text())
		if href == "" || title == "" {
			return true
		}

		result := SearchResult{
			Source:   Amazon,
			Title:    title,
			Currency: price.INR,
			URL:      helpers.ResolveURL(baseURL, href),
		}
		if value, _, ok := price.Normalize(priceTag.Text()); ok {
			result.Price = &value
		}

		results = append(results, result)
		return len(results) < MaxResults
	})

	return results
}
