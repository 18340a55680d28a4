package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"sjsage522/pricescout/internal/price"
)

const myxMarker = "window.__myx"

var (
	myxState = regexp.MustCompile(`(?s)window\.__myx\s*=\s*({.*});?`)

	// placeholders in Myntra's image URL templates
	myntraImageSize = strings.NewReplacer(
		"($height)", "720",
		"($width)", "540",
		"($qualityPercentage)", "90",
	)
)

// myntraPDP returns the product detail object of the page state
func myntraPDP(p *Page) Outcome[gjson.Result] {
	state := p.EmbeddedJSON(myxMarker, myxState)
	if state.Kind != Found {
		return state
	}
	pdp := state.Value.Get("pdpData")
	if !pdp.IsObject() {
		return absent[gjson.Result]()
	}
	return found(pdp)
}

func myntraTitles() Chain[string] {
	return Chain[string]{
		{Name: "myntra:pdp-name", Attempt: func(p *Page) Outcome[string] {
			pdp := myntraPDP(p)
			if pdp.Kind != Found {
				return Outcome[string]{Kind: pdp.Kind, Err: pdp.Err}
			}
			name := pdp.Value.Get("name")
			return nonEmpty(name.String(), name.Exists())
		}},
	}
}

func myntraPrices() Chain[Amount] {
	return Chain[Amount]{
		myntraPrice("discounted"),
		myntraPrice("mrp"),
	}
}

func myntraPrice(field string) Strategy[Amount] {
	return Strategy[Amount]{Name: "myntra:pdp-" + field, Attempt: func(p *Page) Outcome[Amount] {
		pdp := myntraPDP(p)
		if pdp.Kind != Found {
			return Outcome[Amount]{Kind: pdp.Kind, Err: pdp.Err}
		}
		v := pdp.Value.Get("price." + field)
		switch v.Type {
		case gjson.Null:
			return absent[Amount]()
		case gjson.Number:
			return found(Amount{Value: v.Float(), Currency: price.INR})
		default:
			return malformed[Amount](fmt.Errorf("pdpData.price.%s is %s", field, v.Type))
		}
	}}
}

func myntraImages() Chain[string] {
	return Chain[string]{
		{Name: "myntra:pdp-album", Attempt: func(p *Page) Outcome[string] {
			pdp := myntraPDP(p)
			if pdp.Kind != Found {
				return Outcome[string]{Kind: pdp.Kind, Err: pdp.Err}
			}
			src := pdp.Value.Get("media.albums.0.images.0.src").String()
			return nonEmpty(myntraImageSize.Replace(src), src != "")
		}},
	}
}
