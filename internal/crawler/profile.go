package crawler

import (
	"strings"
	"sync"

	"sjsage522/pricescout/internal/price"
)

// Profile bundles everything that differs between marketplaces: how a URL
// is recognised, which currency a bare price is assumed to be in, and the
// ordered strategy chains for each field. The generic strategies are
// already appended to every chain.
type Profile struct {
	Marketplace Marketplace

	// URLMarkers are matched against the requested URL, FinalURLMarkers
	// against the URL after redirects
	URLMarkers      []string
	FinalURLMarkers []string

	Currency price.Currency

	Title Chain[string]
	Price Chain[Amount]
	Image Chain[string]
}

// Matches reports whether the profile applies to the given URLs
func (p *Profile) Matches(url, finalURL string) bool {
	for _, m := range p.URLMarkers {
		if strings.Contains(url, m) {
			return true
		}
	}
	for _, m := range p.FinalURLMarkers {
		if strings.Contains(finalURL, m) {
			return true
		}
	}
	return false
}

// CooldownKey is the cache key marking the marketplace as rate limited.
// Generic sites share no cooldown.
func (p *Profile) CooldownKey() string {
	if p.Marketplace == Generic {
		return ""
	}
	return strings.ToLower(string(p.Marketplace)) + "_rate_limited"
}

var profiles = sync.OnceValue(func() []*Profile {
	return []*Profile{
		{
			Marketplace:     Amazon,
			URLMarkers:      []string{"amazon", "amzn"},
			FinalURLMarkers: []string{"amazon"},
			Currency:        price.INR,
			Title:           amazonTitles().Then(genericTitles()...),
			Price:           genericPrices(amazonSymbol).Then(lastResortPrice()),
			Image:           amazonImages().Then(genericImages()...),
		},
		{
			Marketplace: Myntra,
			URLMarkers:  []string{"myntra.com"},
			Currency:    price.INR,
			Title:       myntraTitles().Then(genericTitles()...),
			Price:       genericPrices(nil).Then(myntraPrices()...).Then(lastResortPrice()),
			Image:       myntraImages().Then(genericImages()...),
		},
		{
			Marketplace: Flipkart,
			URLMarkers:  []string{"flipkart.com"},
			Currency:    price.INR,
			Title:       genericTitles(),
			Price:       genericPrices(flipkartSymbol).Then(flipkartPrices()...).Then(lastResortPrice()),
			Image:       genericImages(),
		},
		genericProfile(),
	}
})

func genericProfile() *Profile {
	return &Profile{
		Marketplace: Generic,
		Currency:    price.DefaultCurrency,
		Title:       genericTitles(),
		Price:       genericPrices(nil).Then(lastResortPrice()),
		Image:       genericImages(),
	}
}

// Profiles returns the registered profiles in detection order
func Profiles() []*Profile {
	return profiles()
}

// DetectProfile picks the first profile matching url or finalURL.
// Generic matches everything and is always last.
func DetectProfile(url, finalURL string) *Profile {
	all := profiles()
	for _, p := range all[:len(all)-1] {
		if p.Matches(url, finalURL) {
			return p
		}
	}
	return all[len(all)-1]
}

// ProfileFor returns the profile registered for m
func ProfileFor(m Marketplace) *Profile {
	for _, p := range profiles() {
		if p.Marketplace == m {
			return p
		}
	}
	return profiles()[len(profiles())-1]
}
