package crawler

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/tidwall/gjson"

	"sjsage522/pricescout/internal/price"
)

var (
	amazonTitleIDs = []string{"productTitle", "title", "ebooksProductTitle"}
	amazonImageIDs = []string{"landingImage", "imgBlkFront", "main-image", "ebooksImgBlkFront"}

	selAmazonImageWrapper = cascadia.MustCompile("div#imgTagWrapperId img")
	selAmazonDynamicImage = cascadia.MustCompile("img.a-dynamic-image")
	selAmazonPriceSymbol  = cascadia.MustCompile(".a-price-symbol")
)

func amazonTitles() Chain[string] {
	chain := make(Chain[string], 0, len(amazonTitleIDs))
	for _, id := range amazonTitleIDs {
		chain = append(chain, elementTitle("amazon:#"+id, cascadia.MustCompile("#"+id)))
	}
	return chain
}

func amazonImages() Chain[string] {
	chain := make(Chain[string], 0, len(amazonImageIDs)+2)
	for _, id := range amazonImageIDs {
		m := cascadia.MustCompile("img#" + id)
		chain = append(chain, Strategy[string]{Name: "amazon:img#" + id, Attempt: func(p *Page) Outcome[string] {
			img := p.Doc.FindMatcher(m).First()
			if img.Length() == 0 {
				return absent[string]()
			}
			if src := dynamicImageURL(img); src != "" {
				return found(src)
			}
			if src := img.AttrOr("data-old-hires", ""); src != "" {
				return found(src)
			}
			return nonEmpty(img.Attr("src"))
		}})
	}

	return append(chain,
		Strategy[string]{Name: "amazon:image-wrapper", Attempt: func(p *Page) Outcome[string] {
			img := p.Doc.FindMatcher(selAmazonImageWrapper).First()
			if img.Length() == 0 {
				return absent[string]()
			}
			if src := dynamicImageURL(img); src != "" {
				return found(src)
			}
			return nonEmpty(img.Attr("src"))
		}},
		Strategy[string]{Name: "amazon:a-dynamic-image", Attempt: func(p *Page) Outcome[string] {
			return nonEmpty(p.Doc.FindMatcher(selAmazonDynamicImage).First().Attr("src"))
		}},
	)
}

// dynamicImageURL returns the first key of data-a-dynamic-image, a JSON
// object mapping image URLs to their dimensions
func dynamicImageURL(img *goquery.Selection) string {
	raw, ok := img.Attr("data-a-dynamic-image")
	if !ok || !gjson.Valid(raw) {
		return ""
	}
	obj := gjson.Parse(raw)
	if !obj.IsObject() {
		return ""
	}
	var first string
	obj.ForEach(func(key, _ gjson.Result) bool {
		first = key.String()
		return false
	})
	return first
}

// amazonSymbol reads the .a-price-symbol that precedes a bare price
func amazonSymbol(p *Page, el *goquery.Selection) price.Currency {
	n := precedingMatch(p.Doc.Nodes[0], el.Nodes[0], selAmazonPriceSymbol)
	if n == nil {
		return ""
	}
	currency, _ := price.Detect(goquery.NewDocumentFromNode(n).Text())
	return currency
}
