package helpers

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// ResolveURL makes href absolute against base. Already absolute links are
// returned unchanged; an unparsable href is returned as base+href.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimSuffix(base, "/") + href
	}
	return b.ResolveReference(ref).String()
}

// LeadingWords returns the first n whitespace-separated words of s
func LeadingWords(s string, n int) []string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// Truncate shortens s to at most n runes, appending suffix when cut
func Truncate(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + suffix
}
