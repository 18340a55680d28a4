package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// eachText visits text nodes under root in document order. Text inside
// script, style and template elements is never visited. fn returns false
// to stop the walk.
func eachText(root *html.Node, fn func(*html.Node) bool) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if !fn(c) {
				return false
			}
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Template, atom.Noscript:
				continue
			}
			if !eachText(c, fn) {
				return false
			}
		}
	}
	return true
}

// firstText returns the first text node under root accepted by match
func firstText(root *html.Node, match func(string) bool) (*html.Node, bool) {
	var hit *html.Node
	eachText(root, func(n *html.Node) bool {
		if match(n.Data) {
			hit = n
			return false
		}
		return true
	})
	return hit, hit != nil
}

// attr returns the value of an attribute on n
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// bodyNode returns the <body> element of doc, or the document root
func bodyNode(doc *goquery.Document) *html.Node {
	if body := doc.Find("body"); body.Length() > 0 {
		return body.Nodes[0]
	}
	return doc.Nodes[0]
}

// selText is the trimmed text of the first node in s
func selText(s *goquery.Selection) string {
	return strings.TrimSpace(s.First().Text())
}

// firstElement returns the first descendant of root with the given tag
func firstElement(root *html.Node, tag atom.Atom) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == tag {
			return c
		}
		if n := firstElement(c, tag); n != nil {
			return n
		}
	}
	return nil
}

// precedingMatch returns the last element matching m that starts before
// target in document order. Ancestors of target count as preceding.
func precedingMatch(root, target *html.Node, m cascadia.Matcher) *html.Node {
	var last *html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n == target {
			return false
		}
		if n.Type == html.ElementNode && m.Match(n) {
			last = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)
	return last
}
