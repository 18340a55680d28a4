package crawler

import (
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricescout/internal/price"
)

var (
	// embedded state keys in priority order, e.g. "ppd":{"fsp":51999,"finalPrice":51999}
	flipkartPriceKeys = []*regexp.Regexp{
		regexp.MustCompile(`"finalPrice":\s*(\d+)`),
		regexp.MustCompile(`"fsp":\s*(\d+)`),
		regexp.MustCompile(`"displayPrice":\s*(\d+)`),
	}

	flipkartRupeeText = regexp.MustCompile(`₹\d{1,3}(?:,\d{3})*(?:\.\d+)?`)
	rupeeAmount       = regexp.MustCompile(`₹\s*\d[\d,]*(?:\.\d+)?`)
)

func flipkartPrices() Chain[Amount] {
	return Chain[Amount]{
		{Name: "flipkart:state-price", Attempt: flipkartStatePrice},
		textPrice("flipkart:rupee-text", flipkartRupeeText, rupeeAmount, price.INR),
	}
}

// flipkartStatePrice takes the first positive price key in the page state.
// Keys that are present but zero mark the item unavailable, which stops
// the chain before any looser text search.
func flipkartStatePrice(p *Page) Outcome[Amount] {
	markup := p.HTML()
	located := false
	for _, key := range flipkartPriceKeys {
		m := key.FindStringSubmatch(markup)
		if m == nil {
			continue
		}
		located = true
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return found(Amount{Value: v, Currency: price.INR})
		}
	}
	if located {
		return suppressed[Amount]()
	}
	return absent[Amount]()
}

func flipkartSymbol(*Page, *goquery.Selection) price.Currency {
	return price.INR
}
