package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"sjsage522/pricescout/internal/price"
)

// Generic strategies apply to every marketplace and close every chain.

var (
	selOGTitle      = cascadia.MustCompile(`meta[property="og:title"]`)
	selDocTitle     = cascadia.MustCompile("title")
	selFirstH1      = cascadia.MustCompile("h1")
	selOGImage      = cascadia.MustCompile(`meta[property="og:image"]`)
	selImages       = cascadia.MustCompile("img[src]")
	selCurrencyMeta = cascadia.MustCompile(`meta[property="product:price:currency"], meta[property="og:price:currency"]`)
)

var (
	// priceMetaProperties are checked in priority order
	priceMetaProperties = []string{"product:price:amount", "og:price:amount", "price"}

	// priceClasses are element classes known to carry a price
	priceClasses = []string{
		"a-price-whole", "a-offscreen", // Amazon
		"price", "current-price", "amount",
		"_30jeq3", // Flipkart
	}

	symbolPrice      = regexp.MustCompile(`[₹$€£]\s*[\d,.]+`)
	looseSymbolPrice = regexp.MustCompile(`[₹$€£¥]\s*\d[\d,.]*`)

	imageNoise = []string{"logo", "icon", "sprite"}
)

// symbolHook recovers a currency for a price element whose own text holds
// only digits. An empty result leaves the profile default in place.
type symbolHook func(p *Page, el *goquery.Selection) price.Currency

func genericTitles() Chain[string] {
	return Chain[string]{
		metaTitle("og-title", selOGTitle),
		elementTitle("document-title", selDocTitle),
		elementTitle("first-heading", selFirstH1),
	}
}

// genericPrices are the structured price strategies; the loose text search
// is kept apart so profiles can slot their own strategies before it.
func genericPrices(hook symbolHook) Chain[Amount] {
	chain := make(Chain[Amount], 0, len(priceMetaProperties)+len(priceClasses))
	for _, prop := range priceMetaProperties {
		chain = append(chain, metaPrice(prop))
	}
	for _, cls := range priceClasses {
		chain = append(chain, classPrice(cls, hook))
	}
	return chain
}

func lastResortPrice() Strategy[Amount] {
	return textPrice("symbol-text", looseSymbolPrice, looseSymbolPrice, "")
}

func genericImages() Chain[string] {
	return Chain[string]{
		{Name: "og-image", Attempt: func(p *Page) Outcome[string] {
			return nonEmpty(metaContent(p, selOGImage))
		}},
		{Name: "first-content-image", Attempt: firstContentImage},
	}
}

func metaContent(p *Page, m cascadia.Selector) (string, bool) {
	s := p.Doc.FindMatcher(m).First()
	if s.Length() == 0 {
		return "", false
	}
	return s.Attr("content")
}

func nonEmpty(s string, ok bool) Outcome[string] {
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return absent[string]()
	}
	return found(s)
}

func metaTitle(name string, m cascadia.Selector) Strategy[string] {
	return Strategy[string]{Name: name, Attempt: func(p *Page) Outcome[string] {
		return nonEmpty(metaContent(p, m))
	}}
}

func elementTitle(name string, m cascadia.Selector) Strategy[string] {
	return Strategy[string]{Name: name, Attempt: func(p *Page) Outcome[string] {
		s := p.Doc.FindMatcher(m)
		return nonEmpty(selText(s), s.Length() > 0)
	}}
}

func metaPrice(prop string) Strategy[Amount] {
	byProperty := cascadia.MustCompile(fmt.Sprintf(`meta[property=%q]`, prop))
	byName := cascadia.MustCompile(fmt.Sprintf(`meta[name=%q]`, prop))

	return Strategy[Amount]{Name: "meta:" + prop, Attempt: func(p *Page) Outcome[Amount] {
		content, ok := metaContent(p, byProperty)
		if !ok {
			content, ok = metaContent(p, byName)
		}
		if !ok {
			return absent[Amount]()
		}
		value, _, ok := price.Normalize(content)
		if !ok {
			return malformed[Amount](fmt.Errorf("meta %s: unparsable price %q", prop, content))
		}
		currency, _ := price.Detect(content)
		if currency == "" {
			if code, ok := metaContent(p, selCurrencyMeta); ok {
				currency, _ = price.FromCode(code)
			}
		}
		return found(Amount{Value: value, Currency: currency})
	}}
}

func classPrice(cls string, hook symbolHook) Strategy[Amount] {
	m := cascadia.MustCompile("." + cls)

	return Strategy[Amount]{Name: "class:" + cls, Attempt: func(p *Page) Outcome[Amount] {
		el := p.Doc.FindMatcher(m).First()
		if el.Length() == 0 {
			return absent[Amount]()
		}
		text := selText(el)

		// digits only, as in Amazon's a-price-whole
		if price.IsNumeric(text) {
			if value, _, ok := price.Normalize(text); ok && value > 0 {
				var currency price.Currency
				if hook != nil {
					currency = hook(p, el)
				}
				return found(Amount{Value: value, Currency: currency})
			}
		}

		match := symbolPrice.FindString(text)
		if match == "" {
			return absent[Amount]()
		}
		value, currency, ok := price.Normalize(match)
		if !ok {
			return malformed[Amount](fmt.Errorf("class %s: unparsable price %q", cls, match))
		}
		return found(Amount{Value: value, Currency: currency})
	}}
}

// textPrice scans visible text for the first node matching detect and reads
// the amount from the first extract match inside it. A non-empty fixed
// currency overrides the detected symbol.
func textPrice(name string, detect, extract *regexp.Regexp, fixed price.Currency) Strategy[Amount] {
	return Strategy[Amount]{Name: name, Attempt: func(p *Page) Outcome[Amount] {
		node, ok := firstText(bodyNode(p.Doc), detect.MatchString)
		if !ok {
			return absent[Amount]()
		}
		match := extract.FindString(node.Data)
		value, currency, ok := price.Normalize(match)
		if !ok {
			return malformed[Amount](fmt.Errorf("%s: unparsable price %q", name, match))
		}
		if fixed != "" {
			currency = fixed
		}
		return found(Amount{Value: value, Currency: currency})
	}}
}

func firstContentImage(p *Page) Outcome[string] {
	var src string
	p.Doc.FindMatcher(selImages).EachWithBreak(func(_ int, img *goquery.Selection) bool {
		candidate := img.AttrOr("src", "")
		if !strings.HasPrefix(candidate, "http") || looksDecorative(candidate) {
			return true
		}
		src = candidate
		return false
	})
	return nonEmpty(src, src != "")
}

func looksDecorative(src string) bool {
	lower := strings.ToLower(src)
	for _, noise := range imageNoise {
		if strings.Contains(lower, noise) {
			return true
		}
	}
	return false
}

// documentTitle is the text of the first <title> element
func documentTitle(doc *goquery.Document) string {
	return selText(doc.FindMatcher(selDocTitle))
}
