package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/baxromumarov/catalog-scraper/internal/urlutil"
)

// LinkRule describes how entity links are found on a listing page. Exactly
// one of Selector (CSS) or XPath should be set.
type LinkRule struct {
	Selector string
	XPath    string
	// Anchor, when set, selects the first anchor inside each matched element;
	// otherwise the matched element itself is the anchor.
	Anchor string
	// HrefContains drops anchors whose href does not contain the substring.
	HrefContains string
	// Event rebuilds the URL from an inline handler instead of href.
	Event *EventRule
}

// EventRule pulls identifiers out of an attribute such as onclick and
// substitutes them, in order, into Template (a fmt pattern with %s verbs).
type EventRule struct {
	Attr     string
	Pattern  *regexp.Regexp
	Template string
}

func (e *EventRule) url(n *html.Node) (string, bool) {
	value := attr(n, e.Attr)
	if value == "" || e.Pattern == nil {
		return "", false
	}
	m := e.Pattern.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	args := make([]any, 0, len(m)-1)
	for _, g := range m[1:] {
		args = append(args, g)
	}
	return fmt.Sprintf(e.Template, args...), true
}

// Extract returns the links found in markup, in document order, resolved
// against base. A page with no matching elements yields an empty slice.
// Duplicates are kept.
func (r LinkRule) Extract(markup []byte, base string) []Link {
	links := []Link{}
	for _, n := range r.anchors(markup) {
		link, ok := r.link(n, base)
		if ok {
			links = append(links, link)
		}
	}
	return links
}

// ExtractLinks is LinkRule.Extract for callers holding the rule by value.
func ExtractLinks(markup []byte, base string, rule LinkRule) []Link {
	return rule.Extract(markup, base)
}

func (r LinkRule) anchors(markup []byte) []*html.Node {
	if r.XPath != "" {
		doc, err := htmlquery.Parse(bytes.NewReader(markup))
		if err != nil {
			return nil
		}
		nodes, err := htmlquery.QueryAll(doc, r.XPath)
		if err != nil {
			return nil
		}
		if r.Anchor == "" {
			return nodes
		}
		var out []*html.Node
		for _, n := range nodes {
			if a := goquery.NewDocumentFromNode(n).Find(r.Anchor).First(); a.Length() > 0 {
				out = append(out, a.Nodes[0])
			}
		}
		return out
	}

	if r.Selector == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil
	}
	var out []*html.Node
	doc.Find(r.Selector).Each(func(_ int, s *goquery.Selection) {
		if r.Anchor != "" {
			s = s.Find(r.Anchor).First()
		}
		if s.Length() > 0 {
			out = append(out, s.Nodes[0])
		}
	})
	return out
}

func (r LinkRule) link(n *html.Node, base string) (Link, bool) {
	label := CleanText(ExtractText(n))

	if r.Event != nil {
		raw, ok := r.Event.url(n)
		if !ok {
			return Link{}, false
		}
		return Link{Label: label, URL: urlutil.Resolve(base, raw)}, true
	}

	href := attr(n, "href")
	if href == "" {
		return Link{}, false
	}
	if r.HrefContains != "" && !strings.Contains(href, r.HrefContains) {
		return Link{}, false
	}
	abs := urlutil.Resolve(base, href)
	if abs == "" {
		return Link{}, false
	}
	return Link{Label: label, URL: abs}, true
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
