package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"sjsage522/pricescout/helpers"
	"sjsage522/pricescout/internal/price"
)

const (
	flipkartStateMarker = "window.__INITIAL_STATE__"

	// how far the text fallback climbs from a matching title
	flipkartCardDepth = 5
	// leading query words the text fallback looks for
	flipkartMatchWords = 2
	flipkartTitleRunes = 50
)

var (
	flipkartState = regexp.MustCompile(`window\.__INITIAL_STATE__\s*=\s*({.*});`)
	rupeeLead     = regexp.MustCompile(`^₹\d`)
)

func flipkartSearchURL(baseURL, query string) string {
	return strings.TrimSuffix(baseURL, "/") + "/search?q=" + escapeQuery(query)
}

// parseFlipkartSearch reads the page state and falls back to matching
// query words in the rendered text
func parseFlipkartSearch(doc *goquery.Document, baseURL, query string) []SearchResult {
	var results []SearchResult
	if state := findEmbeddedJSON(doc.Selection, flipkartStateMarker, flipkartState); state.Kind == Found {
		results = flipkartStateProducts(state.Value, baseURL)
	}
	if len(results) == 0 {
		results = flipkartTextMatches(doc, baseURL, query)
	}
	return results
}

func flipkartStateProducts(state gjson.Result, baseURL string) []SearchResult {
	var results []SearchResult

	state.Get("multiWidgetState.widgetsData.slots").ForEach(func(_, slot gjson.Result) bool {
		slot.Get("slotData.widget.data.products").ForEach(func(_, prod gjson.Result) bool {
			href := prod.Get("action.url").String()
			if href == "" {
				return true
			}
			title := firstString(prod.Get("value.titles"), "title", "newTitle")
			value := flipkartListingPrice(prod.Get("value.pricing"))
			if title == "" || value <= 0 {
				return true
			}

			results = append(results, SearchResult{
				Source:   Flipkart,
				Title:    title,
				Price:    &value,
				Currency: price.INR,
				URL:      helpers.ResolveURL(baseURL, href),
			})
			return len(results) < MaxResults
		})
		return len(results) < MaxResults
	})

	return results
}

// flipkartListingPrice prefers the displayed selling price
func flipkartListingPrice(pricing gjson.Result) float64 {
	if v := firstPositive(pricing, "displayPrice", "finalPrice.value"); v > 0 {
		return v
	}
	var value float64
	pricing.Get("prices").ForEach(func(_, p gjson.Result) bool {
		if p.Get("name").String() == "Selling Price" {
			value = p.Get("value").Float()
			return false
		}
		return true
	})
	return value
}

// flipkartTextMatches finds text nodes containing one of the leading query
// words and climbs towards the enclosing card for a price and a link
func flipkartTextMatches(doc *goquery.Document, baseURL, query string) []SearchResult {
	words := helpers.LeadingWords(query, flipkartMatchWords)
	if len(words) == 0 {
		return nil
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	pattern := regexp.MustCompile(`(?i)` + strings.Join(words, "|"))

	var results []SearchResult
	seen := make(map[string]bool)

	eachText(bodyNode(doc), func(n *html.Node) bool {
		if !pattern.MatchString(n.Data) || n.Parent == nil || n.Parent.DataAtom == atom.Title {
			return true
		}

		priceText, href := nearbyOffer(n.Parent)
		if priceText == "" || href == "" {
			return true
		}
		link := helpers.ResolveURL(baseURL, href)
		if seen[link] {
			return true
		}
		seen[link] = true

		result := SearchResult{
			Source:   Flipkart,
			Title:    helpers.Truncate(strings.TrimSpace(n.Data), flipkartTitleRunes, "") + "...",
			Currency: price.INR,
			URL:      link,
		}
		if value, _, ok := price.Normalize(rupeeAmount.FindString(priceText)); ok {
			result.Price = &value
		}
		results = append(results, result)
		return len(results) < MaxResults
	})

	return results
}

// nearbyOffer climbs up to flipkartCardDepth ancestors of n collecting the
// first rupee price text and the first link href
func nearbyOffer(n *html.Node) (priceText, href string) {
	container := n
	for i := 0; i < flipkartCardDepth; i++ {
		container = container.Parent
		if container == nil {
			break
		}

		if priceText == "" {
			if t, ok := firstText(container, func(s string) bool { return strings.Contains(s, "₹") }); ok {
				if s := strings.TrimSpace(t.Data); rupeeLead.MatchString(s) {
					priceText = s
				}
			}
		}

		if href == "" {
			if container.DataAtom == atom.A {
				href, _ = attr(container, "href")
			} else if a := firstElement(container, atom.A); a != nil {
				href, _ = attr(a, "href")
			}
		}

		if priceText != "" && href != "" {
			break
		}
	}
	return priceText, href
}
