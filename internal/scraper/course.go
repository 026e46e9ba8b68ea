package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CourseLayout holds the selectors and keywords of one course detail page
// layout.
type CourseLayout struct {
	TitleSelector   string
	TitleSeparator  string
	ContentSelector string
	LabelSelector   string
	Labels          []LabelRule
	// RequisiteKeyword is the text that introduces the nested prerequisite
	// list. Empty means prerequisites are read as a flat labelled value. The
	// description ends at the keyword or at the first label, whichever is
	// first.
	RequisiteKeyword string
}

var courseFields = []string{
	"code", "title", "description", "credits", "hours", "prerequisites",
	"corequisites", "restrictions", "notes", "equivalencies",
}

type CourseExtractor struct {
	layout CourseLayout
}

func NewCourseExtractor(layout CourseLayout) *CourseExtractor {
	return &CourseExtractor{layout: layout}
}

func (e *CourseExtractor) Extract(_ context.Context, markup []byte, link Link) (CourseRecord, Report, error) {
	rec := CourseRecord{URL: link.URL}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return rec, Report{}, fmt.Errorf("parse course page: %w", err)
	}
	t := newFieldTracker(courseFields...)

	if code, title, ok := SplitTitle(SelectionText(doc.Find(e.layout.TitleSelector).First()), e.layout.TitleSeparator); ok {
		t.set("code", &rec.Code, code)
		t.set("title", &rec.Title, title)
	}

	content := doc.Find(e.layout.ContentSelector).First()
	if content.Length() > 0 {
		e.readBody(content.Nodes[0], &rec, t)
		e.readLabels(content, &rec, t)
	}
	return rec, t.report(link.URL), nil
}

// SplitTitle splits a "CODE - Title" heading. It succeeds only when sep
// splits text into exactly two parts.
func SplitTitle(text, sep string) (string, string, bool) {
	if text == "" || sep == "" {
		return "", "", false
	}
	parts := strings.Split(text, sep)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// readBody reads the description that follows the second rule in the
// content cell, and the nested prerequisite group that follows it.
func (e *CourseExtractor) readBody(content *html.Node, rec *CourseRecord, t *fieldTracker) {
	texts := textsAfterRule(content, 2)
	if texts == nil {
		return
	}

	var desc []string
	stop := -1
	for i, n := range texts {
		text := CleanText(n.Data)
		if e.layout.RequisiteKeyword != "" && text == e.layout.RequisiteKeyword {
			stop = i
			break
		}
		if e.inLabel(n, content) {
			break
		}
		desc = append(desc, text)
	}
	t.set("description", &rec.Description, CleanDescription(desc))

	if stop < 0 {
		return
	}
	var label string
	for _, n := range texts[stop+1:] {
		if label = CleanText(n.Data); label != "" {
			break
		}
	}
	if label == "" {
		return
	}
	items := []string{}
	if list := nextList(texts[stop], content); list != nil {
		goquery.NewDocumentFromNode(list).Find("li").Each(func(_ int, li *goquery.Selection) {
			if text := SelectionText(li); text != "" {
				items = append(items, text)
			}
		})
	}
	rec.Prerequisites = Requisites{Groups: []RequisiteGroup{{Label: label, Items: items}}}
	t.mark("prerequisites")
}

func (e *CourseExtractor) readLabels(content *goquery.Selection, rec *CourseRecord, t *fieldTracker) {
	content.Find(e.layout.LabelSelector).Each(func(_ int, s *goquery.Selection) {
		field := Classify(SelectionText(s), e.layout.Labels)
		if field == "" {
			return
		}
		value := siblingText(s.Nodes[0])
		if value == "" {
			return
		}
		switch field {
		case "credits":
			t.set(field, &rec.Credits, value)
		case "hours":
			t.set(field, &rec.Hours, value)
		case "prerequisites":
			if !t.has(field) {
				rec.Prerequisites = TextRequisites(value)
				t.mark(field)
			}
		case "corequisites":
			t.set(field, &rec.Corequisites, value)
		case "restrictions":
			t.set(field, &rec.Restrictions, value)
		case "notes":
			t.set(field, &rec.Notes, value)
		case "equivalencies":
			t.set(field, &rec.Equivalencies, value)
		}
	})
}

func (e *CourseExtractor) inLabel(n, root *html.Node) bool {
	tag := strings.ToLower(strings.TrimSpace(e.layout.LabelSelector))
	for p := n.Parent; p != nil && p != root; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

// textsAfterRule returns the text nodes below root that come after the nth
// <hr>, in document order. It returns nil when root has fewer rules.
func textsAfterRule(root *html.Node, nth int) []*html.Node {
	var out []*html.Node
	seen := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.ElementNode && n.Data == "hr":
			seen++
			return
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		case n.Type == html.TextNode && seen >= nth:
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if seen < nth {
		return nil
	}
	if out == nil {
		out = []*html.Node{}
	}
	return out
}

// nextList finds the first ul or ol that follows from in document order,
// without leaving root.
func nextList(from, root *html.Node) *html.Node {
	for n := following(from, root); n != nil; n = nextInOrder(n, root) {
		if n.Type == html.ElementNode && (n.Data == "ul" || n.Data == "ol") {
			return n
		}
	}
	return nil
}

func nextInOrder(n, root *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	return following(n, root)
}

// following returns the next node in document order after n's subtree.
func following(n, root *html.Node) *html.Node {
	for ; n != nil && n != root; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// siblingText returns the cleaned text right after n, skipping blank
// siblings. An element sibling ends the search.
func siblingText(n *html.Node) string {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.TextNode {
			if text := CleanText(s.Data); text != "" {
				return strings.TrimSpace(strings.TrimPrefix(text, ":"))
			}
			continue
		}
		if s.Type == html.ElementNode && s.Data != "br" {
			return ""
		}
	}
	return ""
}
