package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// Page is the per-call view strategies work on. It is never shared
// between extractions.
type Page struct {
	Doc      *goquery.Document
	URL      string
	FinalURL string

	html  *string
	blobs map[string]Outcome[gjson.Result]
}

// NewPage wraps a parsed document together with its request and final URLs
func NewPage(doc *goquery.Document, url, finalURL string) *Page {
	return &Page{
		Doc:      doc,
		URL:      url,
		FinalURL: finalURL,
		blobs:    make(map[string]Outcome[gjson.Result]),
	}
}

// HTML returns the rendered document markup
func (p *Page) HTML() string {
	if p.html == nil {
		s, err := p.Doc.Html()
		if err != nil {
			s = ""
		}
		p.html = &s
	}
	return *p.html
}

// EmbeddedJSON locates a JSON state blob assigned to a global variable
// inside a <script>. marker is a cheap substring test; pattern must capture
// the object literal in its first group. The result is memoized per marker.
func (p *Page) EmbeddedJSON(marker string, pattern *regexp.Regexp) Outcome[gjson.Result] {
	if out, ok := p.blobs[marker]; ok {
		return out
	}
	out := findEmbeddedJSON(p.Doc.Selection, marker, pattern)
	p.blobs[marker] = out
	return out
}

func findEmbeddedJSON(root *goquery.Selection, marker string, pattern *regexp.Regexp) Outcome[gjson.Result] {
	out := absent[gjson.Result]()
	root.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, marker) {
			return true
		}
		m := pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			return true
		}
		if !gjson.Valid(m[1]) {
			out = malformed[gjson.Result](fmt.Errorf("invalid JSON after %s", marker))
			return true
		}
		out = found(gjson.Parse(m[1]))
		return false
	})
	return out
}
