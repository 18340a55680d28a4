package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"sjsage522/pricescout/helpers"
	"sjsage522/pricescout/internal/price"
)

// myntraSearchURL builds /<slug>?rawQuery=<query>, the path Myntra's own
// search box navigates to
func myntraSearchURL(baseURL, query string) string {
	slug := url.PathEscape(strings.ToLower(strings.Join(strings.Fields(query), "-")))
	return strings.TrimSuffix(baseURL, "/") + "/" + slug + "?rawQuery=" + escapeQuery(query)
}

// parseMyntraSearch reads searchData.results.products from the page state
func parseMyntraSearch(doc *goquery.Document, baseURL, _ string) []SearchResult {
	state := findEmbeddedJSON(doc.Selection, myxMarker, myxState)
	if state.Kind != Found {
		return nil
	}

	var results []SearchResult
	state.Value.Get("searchData.results.products").ForEach(func(_, prod gjson.Result) bool {
		title := firstString(prod, "productName", "product")
		href := prod.Get("landingPageUrl").String()
		value := firstPositive(prod, "price", "discountedPrice", "mrp")
		if title == "" || href == "" || value <= 0 {
			return true
		}

		results = append(results, SearchResult{
			Source:   Myntra,
			Title:    title,
			Price:    &value,
			Currency: price.INR,
			URL:      helpers.ResolveURL(strings.TrimSuffix(baseURL, "/")+"/", href),
		})
		return len(results) < MaxResults
	})

	return results
}

func firstString(obj gjson.Result, paths ...string) string {
	for _, path := range paths {
		if s := strings.TrimSpace(obj.Get(path).String()); s != "" {
			return s
		}
	}
	return ""
}

func firstPositive(obj gjson.Result, paths ...string) float64 {
	for _, path := range paths {
		if v := obj.Get(path).Float(); v > 0 {
			return v
		}
	}
	return 0
}
