package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/baxromumarov/catalog-scraper/internal/urlutil"
)

// courseLine matches curriculum entries like "CSCI 110 - Intro (3 credits)".
var courseLine = regexp.MustCompile(`(?i)^([A-Z]{2,5}\s*\d{3,4}[A-Z]?)\s*-?\s*(.*?)(?:\s*\((\d+\.?\d*)\s*credits?\))?$`)

// ParseCourseLine reads one curriculum list entry.
func ParseCourseLine(text string) (CurriculumCourse, bool) {
	m := courseLine.FindStringSubmatch(CleanText(text))
	if m == nil {
		return CurriculumCourse{}, false
	}
	return CurriculumCourse{
		Code:    strings.TrimSpace(m[1]),
		Title:   strings.TrimSpace(m[2]),
		Credits: m[3],
	}, true
}

// ProgramLayout describes the tabbed program page and its linked outline.
type ProgramLayout struct {
	TitleSelector  string
	IntroSelector  string
	GlanceSelector string
	GlanceTitle    string
	GlanceValue    string
	Glance         []LabelRule

	OverviewTab    string
	OverviewBlock  string
	OutlineTab     string
	OutlineButton  string
	TuitionTab     string
	AdmissionTab   string
	OutlineCourses string
	OutlineTable   string
	OutlineLabels  []LabelRule
}

var programFields = []string{
	"title", "intro_text", "overview", "credential", "work_experience",
	"study_options", "open_to_international", "area_of_study", "length",
	"program_outline_url", "curriculum", "tuition_info",
	"admission_requirements", "total_credits", "program_code", "cip",
}

// ProgramExtractor reads tabbed program pages. When a page links to a
// program outline, the outline is fetched once to fill the curriculum and
// the outline's summary table.
type ProgramExtractor struct {
	layout  ProgramLayout
	fetcher Fetcher
	logger  *slog.Logger
}

func NewProgramExtractor(layout ProgramLayout, fetcher Fetcher, logger *slog.Logger) *ProgramExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProgramExtractor{
		layout:  layout,
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "program_extractor")),
	}
}

func (e *ProgramExtractor) Extract(ctx context.Context, markup []byte, link Link) (ProgramRecord, Report, error) {
	rec := ProgramRecord{URL: link.URL, Curriculum: []string{}}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return rec, Report{}, fmt.Errorf("parse program page: %w", err)
	}
	t := newFieldTracker(programFields...)
	l := e.layout

	t.set("title", &rec.Title, SelectionText(doc.Find(l.TitleSelector).First()))
	t.set("intro_text", &rec.IntroText, SelectionText(doc.Find(l.IntroSelector).First()))

	doc.Find(l.GlanceSelector).Each(func(_ int, s *goquery.Selection) {
		title := s.Find(l.GlanceTitle).First()
		if title.Length() == 0 {
			return
		}
		value := SelectionText(s.Find(l.GlanceValue).First())
		e.assign(&rec, t, Classify(SelectionText(title), l.Glance), value)
	})

	if tab := doc.Find(l.OverviewTab).First(); tab.Length() > 0 {
		t.set("overview", &rec.Overview, BlockText(tab.Find(l.OverviewBlock).First()))
	}

	if tab := doc.Find(l.OutlineTab).First(); tab.Length() > 0 {
		href, _ := tab.Find(l.OutlineButton).First().Attr("href")
		if outline := urlutil.Resolve(link.URL, href); outline != "" {
			t.set("program_outline_url", &rec.ProgramOutlineURL, outline)
			if err := e.readOutline(ctx, outline, &rec, t); err != nil {
				if ctx.Err() != nil {
					return rec, Report{}, ctx.Err()
				}
				e.logger.Warn("program outline unavailable",
					slog.String("url", outline),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	t.set("tuition_info", &rec.TuitionInfo, BlockText(doc.Find(l.TuitionTab).First()))
	t.set("admission_requirements", &rec.AdmissionRequirements, BlockText(doc.Find(l.AdmissionTab).First()))

	return rec, t.report(link.URL), nil
}

func (e *ProgramExtractor) readOutline(ctx context.Context, outlineURL string, rec *ProgramRecord, t *fieldTracker) error {
	if e.fetcher == nil {
		return errors.New("no fetcher configured")
	}
	body, err := e.fetcher.Fetch(ctx, outlineURL)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse outline: %w", err)
	}

	doc.Find(e.layout.OutlineCourses).Each(func(_ int, li *goquery.Selection) {
		if c, ok := ParseCourseLine(SelectionText(li)); ok {
			rec.Curriculum = append(rec.Curriculum, c.Label())
		}
	})
	if len(rec.Curriculum) > 0 {
		t.mark("curriculum")
	}

	cells := contentRoot(doc).Find(e.layout.OutlineTable).First().Find("table").First().Find("td")
	for i := 0; i+1 < cells.Length(); i += 2 {
		header := SelectionText(cells.Eq(i))
		value := SelectionText(cells.Eq(i + 1))
		e.assign(rec, t, Classify(header, e.layout.OutlineLabels), value)
	}
	return nil
}

func (e *ProgramExtractor) assign(rec *ProgramRecord, t *fieldTracker, field, value string) {
	var dst *string
	switch field {
	case "credential":
		dst = &rec.Credential
	case "work_experience":
		dst = &rec.WorkExperience
	case "study_options":
		dst = &rec.StudyOptions
	case "open_to_international":
		dst = &rec.OpenToInternational
	case "area_of_study":
		dst = &rec.AreaOfStudy
	case "length":
		dst = &rec.Length
	case "total_credits":
		dst = &rec.TotalCredits
	case "program_code":
		dst = &rec.ProgramCode
	case "cip":
		dst = &rec.CIP
	default:
		return
	}
	t.set(field, dst, value)
}

// contentRoot returns the main content container of a calendar page, or the
// whole document when none of the known containers is present.
func contentRoot(doc *goquery.Document) *goquery.Selection {
	for _, sel := range []string{".block_content", "#gateway_container", "div.main"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return doc.Selection
}
