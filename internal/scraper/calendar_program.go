package scraper

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	courseCode   = regexp.MustCompile(`(?i)^[A-Z]{2,5}\s*\d{3,4}[A-Z]?$`)
	creditNumber = regexp.MustCompile(`(\d+\.?\d*)`)
)

// CalendarProgramLayout describes program pages of the academic calendar,
// where sections are delimited by headings instead of tabs.
type CalendarProgramLayout struct {
	TitleFallback      string
	MetadataTables     []string
	MetadataLabels     []LabelRule
	OverviewHeadings   []string
	CurriculumHeadings []string
	AdmissionHeadings  []string
	ContactHeadings    []string
}

var calendarProgramFields = []string{
	"title", "overview", "credential", "total_credits", "length", "location",
	"start_date", "curriculum", "admission_requirements", "contact",
}

type CalendarProgramExtractor struct {
	layout CalendarProgramLayout
}

func NewCalendarProgramExtractor(layout CalendarProgramLayout) *CalendarProgramExtractor {
	return &CalendarProgramExtractor{layout: layout}
}

func (e *CalendarProgramExtractor) Extract(_ context.Context, markup []byte, link Link) (ProgramRecord, Report, error) {
	rec := ProgramRecord{URL: link.URL, Curriculum: []string{}}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return rec, Report{}, fmt.Errorf("parse program page: %w", err)
	}
	t := newFieldTracker(calendarProgramFields...)
	l := e.layout
	content := contentRoot(doc)

	if !t.set("title", &rec.Title, CleanText(link.Label)) {
		t.set("title", &rec.Title, SelectionText(doc.Find(l.TitleFallback).First()))
	}

	if h := findHeading(content, "h2, h3", l.OverviewHeadings); h != nil {
		t.set("overview", &rec.Overview, sectionText(h, func(s *goquery.Selection) bool {
			return s.Is("p") || (s.Is("div") && s.Find("table").Length() == 0)
		}))
	}

	e.readMetadata(content, &rec, t)
	e.readCurriculum(content, &rec, t)

	if h := findHeading(content, "h2, h3, h4", l.AdmissionHeadings); h != nil {
		t.set("admission_requirements", &rec.AdmissionRequirements, sectionText(h, func(s *goquery.Selection) bool {
			return s.Is("p, ul, ol, div") && s.Find("table").Length() == 0
		}))
	}
	if h := findHeading(content, "h2, h3, h4", l.ContactHeadings); h != nil {
		t.set("contact", &rec.Contact, sectionText(h, func(s *goquery.Selection) bool {
			return s.Is("p, div, address")
		}))
	}

	return rec, t.report(link.URL), nil
}

func (e *CalendarProgramExtractor) readMetadata(content *goquery.Selection, rec *ProgramRecord, t *fieldTracker) {
	var tables *goquery.Selection
	for _, sel := range e.layout.MetadataTables {
		if tables = content.Find(sel); tables.Length() > 0 {
			break
		}
	}
	if tables == nil {
		return
	}
	tables.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		header := FoldLabel(SelectionText(cells.Eq(0)))
		value := SelectionText(cells.Eq(1))
		if header == "" {
			return
		}
		switch field := Classify(header, e.layout.MetadataLabels); field {
		case "credential":
			t.set(field, &rec.Credential, value)
		case "total_credits":
			t.set(field, &rec.TotalCredits, value)
		case "length":
			t.set(field, &rec.Length, value)
		case "location":
			t.set(field, &rec.Location, value)
		case "start_date":
			t.set(field, &rec.StartDate, value)
		default:
			if rec.Metadata == nil {
				rec.Metadata = make(map[string]string)
			}
			rec.Metadata[header] = value
		}
	})
}

func (e *CalendarProgramExtractor) readCurriculum(content *goquery.Selection, rec *ProgramRecord, t *fieldTracker) {
	var courses []CurriculumCourse
	if h := findHeading(content, "h2, h3, h4", e.layout.CurriculumHeadings); h != nil {
		for s := h.Next(); s.Length() > 0; s = s.Next() {
			if s.Is("table") {
				courses = tableCourses(s)
				break
			}
			if s.Is("ul, ol") {
				s.Find("li").Each(func(_ int, li *goquery.Selection) {
					if c, ok := ParseCourseLine(SelectionText(li)); ok {
						courses = append(courses, c)
					}
				})
				break
			}
			if s.Is("h2, h3, h4") {
				break
			}
		}
	}

	if len(courses) == 0 {
		content.Find("table").Each(func(_ int, table *goquery.Selection) {
			if looksLikeCourseTable(table) {
				courses = append(courses, tableCourses(table)...)
			}
		})
	}

	if len(courses) == 0 {
		return
	}
	rec.Courses = courses
	for _, c := range courses {
		rec.Curriculum = append(rec.Curriculum, c.Label())
	}
	t.mark("curriculum")
}

// tableCourses reads code, title and optional credits from the first three
// cells of every data row. Cells are taken by position, so blank or repeated
// header labels do not matter.
func tableCourses(table *goquery.Selection) []CurriculumCourse {
	_, rows := TableRows(table)
	var out []CurriculumCourse
	for _, cells := range rows {
		if len(cells) < 2 {
			continue
		}
		c := CurriculumCourse{Code: cells[0], Title: cells[1]}
		if len(cells) > 2 {
			credits := cells[2]
			if m := creditNumber.FindString(credits); m != "" {
				credits = m
			}
			c.Credits = credits
		}
		out = append(out, c)
	}
	return out
}

func looksLikeCourseTable(table *goquery.Selection) bool {
	found := false
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() >= 2 && courseCode.MatchString(SelectionText(cells.First())) {
			found = true
			return false
		}
		return true
	})
	return found
}

// findHeading returns the first heading matching tags whose text contains
// one of keywords. Keywords are tried in order.
func findHeading(root *goquery.Selection, tags string, keywords []string) *goquery.Selection {
	headings := root.Find(tags)
	for _, k := range keywords {
		var hit *goquery.Selection
		headings.EachWithBreak(func(_ int, h *goquery.Selection) bool {
			if MatchesKeywords(SelectionText(h), []string{k}) {
				hit = h
				return false
			}
			return true
		})
		if hit != nil {
			return hit
		}
	}
	return nil
}

// sectionText walks the siblings after heading until a heading of the same
// or a higher level, joining the cleaned text of accepted elements with
// newlines.
func sectionText(heading *goquery.Selection, accept func(*goquery.Selection) bool) string {
	level := headingLevel(heading)
	var lines []string
	for s := heading.Next(); s.Length() > 0; s = s.Next() {
		if l := headingLevel(s); l > 0 && l <= level {
			break
		}
		if !accept(s) {
			continue
		}
		if text := SelectionText(s); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

func headingLevel(s *goquery.Selection) int {
	name := goquery.NodeName(s)
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}
