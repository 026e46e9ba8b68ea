package scraper

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractText returns the concatenated text below n, skipping script and
// style bodies.
func ExtractText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(ExtractText(c))
	}
	return sb.String()
}

// CleanText collapses every whitespace run (including non-breaking spaces)
// to one space, drops non-printable runes and trims the result.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// SelectionText is CleanText over the text of every node in sel.
func SelectionText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var sb strings.Builder
	for _, n := range sel.Nodes {
		sb.WriteString(ExtractText(n))
		sb.WriteByte(' ')
	}
	return CleanText(sb.String())
}

// BlockText keeps the line structure of a section: block elements and <br>
// start new lines, each non-blank line is cleaned, and lines are joined with
// "\n".
func BlockText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var raw strings.Builder
	for _, n := range sel.Nodes {
		writeBlocks(&raw, n)
		raw.WriteByte('\n')
	}
	var lines []string
	for _, line := range strings.Split(raw.String(), "\n") {
		if line = CleanText(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true, "br": true,
	"tr": true, "table": true, "section": true, "address": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func writeBlocks(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeBlocks(sb, c)
	}
	if block {
		sb.WriteByte('\n')
	}
}

// CleanDescription joins the text fragments of a description, dropping the
// blank ones.
func CleanDescription(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = CleanText(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// TableRows returns a table's column headers and its data rows as cell
// texts by position. Headers come from thead th cells, or from the first row
// when there is no thead; in that case the first row is not returned as
// data. Rows without td cells are skipped.
func TableRows(table *goquery.Selection) ([]string, [][]string) {
	if table == nil || table.Length() == 0 {
		return nil, nil
	}
	table = table.First()

	var headers []string
	rows := table.Find("tr")
	thead := table.Find("thead").First()
	if thead.Length() > 0 {
		thead.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, SelectionText(th))
		})
	}
	if thead.Length() == 0 || len(headers) == 0 {
		first := rows.First()
		if first.Length() == 0 {
			return nil, nil
		}
		headers = nil
		first.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, SelectionText(cell))
		})
		rows = rows.Slice(1, rows.Length())
	}

	var data [][]string
	rows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			row = append(row, SelectionText(td))
		})
		data = append(data, row)
	})
	return headers, data
}

// TableToMaps is TableRows with every row keyed by the column headers.
// Cells beyond the last header are ignored, and rows left without any cell
// are dropped.
func TableToMaps(table *goquery.Selection) ([]string, []map[string]string) {
	headers, rows := TableRows(table)
	if headers == nil && rows == nil {
		return nil, nil
	}
	var data []map[string]string
	for _, cells := range rows {
		row := make(map[string]string)
		for i, cell := range cells {
			if i < len(headers) {
				row[headers[i]] = cell
			}
		}
		if len(row) > 0 {
			data = append(data, row)
		}
	}
	return headers, data
}
