package scraper

import (
	"regexp"
	"sort"
	"time"

	"github.com/baxromumarov/catalog-scraper/internal/urlutil"
)

type Kind string

const (
	KindCourse  Kind = "course"
	KindProgram Kind = "program"
)

// Source describes one catalog listing: where its pages are, how entity
// links are found on them, and how politely to walk it.
type Source struct {
	Name    string
	Kind    Kind
	BaseURL string
	// FirstPageURL, when set, is fetched before the numbered pages.
	FirstPageURL string
	// PageURL contains urlutil.PagePlaceholder.
	PageURL   string
	FirstPage int
	// MaxPages bounds the listing pages fetched, FirstPageURL included.
	MaxPages    int
	PageDelay   time.Duration
	EntityDelay time.Duration
	Links       LinkRule
	OutputFile  string
}

// ListingURL returns the URL of the i-th listing page (0-based) and false
// once the page ceiling or the end of the templates is reached.
func (s Source) ListingURL(i int) (string, bool) {
	if i < 0 || i >= s.MaxPages {
		return "", false
	}
	if s.FirstPageURL != "" {
		if i == 0 {
			return s.FirstPageURL, true
		}
		i--
	}
	if s.PageURL == "" {
		return "", false
	}
	return urlutil.PageURL(s.PageURL, s.FirstPage+i), true
}

// ReportFile is where per-entity extraction reports are written.
func (s Source) ReportFile() string {
	return s.Name + ".report.json"
}

const (
	calendarBase      = "https://calendar.camosun.ca"
	calendarCourses   = calendarBase + "/content.php?catoid=25&navoid=2223"
	calendarCoursePag = calendarBase + "/content.php?catoid=25&catoid=25&navoid=2223&filter%5Bitem_type%5D=3&filter%5Bonly_active%5D=1&filter%5B3%5D=1&filter%5Bcpage%5D={page}#acalog_template_course_filter"
	calendarPrograms  = calendarBase + "/content.php?catoid=25&navoid=2225"
	programFinderBase = "https://camosun.ca"
	programFinderPag  = programFinderBase + "/programs-courses/find-program?page=%2C{page}"
)

// CourseCatalog lists courses through direct preview links and reads
// prerequisites as a nested group.
func CourseCatalog() Source {
	return Source{
		Name:         "courses",
		Kind:         KindCourse,
		BaseURL:      calendarBase,
		FirstPageURL: calendarCourses,
		PageURL:      calendarCoursePag,
		FirstPage:    2,
		MaxPages:     13,
		PageDelay:    time.Second,
		EntityDelay:  2 * time.Second,
		Links: LinkRule{
			Selector:     `td.width a[href*="preview_course"]`,
			HrefContains: "preview_course",
		},
		OutputFile: "camosun_courses.json",
	}
}

// LegacyCourseCatalog lists courses through showCourse popups and reads
// prerequisites as flat text.
func LegacyCourseCatalog() Source {
	s := CourseCatalog()
	s.Name = "courses-legacy"
	s.Links = LinkRule{
		XPath: `//td[contains(@class,'width')]/a[contains(@onclick,'showCourse')]`,
		Event: &EventRule{
			Attr:     "onclick",
			Pattern:  regexp.MustCompile(`showCourse\('(\d+)',\s*'(\d+)'`),
			Template: "/preview_course_nopop.php?catoid=%s&coid=%s",
		},
	}
	s.OutputFile = "camosun_courses_legacy.json"
	return s
}

// ProgramFinder walks the college's program finder.
func ProgramFinder() Source {
	return Source{
		Name:        "programs",
		Kind:        KindProgram,
		BaseURL:     programFinderBase,
		PageURL:     programFinderPag,
		FirstPage:   0,
		MaxPages:    50,
		PageDelay:   time.Second,
		EntityDelay: 2 * time.Second,
		Links: LinkRule{
			Selector: "div.views-row",
			Anchor:   "a",
		},
		OutputFile: "camosun_programs.json",
	}
}

// CalendarPrograms lists every program on a single calendar page.
func CalendarPrograms() Source {
	return Source{
		Name:         "programs-calendar",
		Kind:         KindProgram,
		BaseURL:      calendarBase + "/",
		FirstPageURL: calendarPrograms,
		MaxPages:     1,
		EntityDelay:  time.Second,
		Links: LinkRule{
			Selector:     `a[href*="preview_program.php"]`,
			HrefContains: "preview_program.php",
		},
		OutputFile: "camosun_calendar_programs.json",
	}
}

// Sources returns every known source keyed by name.
func Sources() map[string]Source {
	out := make(map[string]Source)
	for _, s := range []Source{CourseCatalog(), LegacyCourseCatalog(), ProgramFinder(), CalendarPrograms()} {
		out[s.Name] = s
	}
	return out
}

func SourceNames() []string {
	names := make([]string, 0, 4)
	for name := range Sources() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var courseLabels = []LabelRule{
	{Keyword: "credit", Field: "credits"},
	{Keyword: "hour", Field: "hours"},
	{Keyword: "prerequisite", Field: "prerequisites"},
	{Keyword: "corequisite", Field: "corequisites"},
	{Keyword: "restriction", Field: "restrictions"},
	{Keyword: "note", Field: "notes"},
	{Keyword: "equivalen", Field: "equivalencies"},
}

func CourseCatalogLayout() CourseLayout {
	return CourseLayout{
		TitleSelector:    "#course_preview_title",
		TitleSeparator:   "-",
		ContentSelector:  "td.block_content",
		LabelSelector:    "strong",
		Labels:           courseLabels,
		RequisiteKeyword: "Prerequisites",
	}
}

func LegacyCourseLayout() CourseLayout {
	l := CourseCatalogLayout()
	l.RequisiteKeyword = ""
	return l
}

func ProgramFinderLayout() ProgramLayout {
	return ProgramLayout{
		TitleSelector:  "h1.page_title",
		IntroSelector:  "div.intro-text",
		GlanceSelector: "div.program_glance__info",
		GlanceTitle:    "p.info-title",
		GlanceValue:    "p:not(.info-title)",
		Glance: []LabelRule{
			{Keyword: "credential", Field: "credential"},
			{Keyword: "work experience", Field: "work_experience"},
			{Keyword: "study options", Field: "study_options"},
			{Keyword: "open to international", Field: "open_to_international"},
			{Keyword: "area of study", Field: "area_of_study"},
			{Keyword: "length", Field: "length"},
		},
		OverviewTab:    "#program_tab",
		OverviewBlock:  "div:not(.intro-text-about):not(.image-about)",
		OutlineTab:     "#more_tab",
		OutlineButton:  "a.button.cta_button",
		TuitionTab:     "#money_tab",
		AdmissionTab:   "#admission_tab",
		OutlineCourses: ".acalog-core ul li",
		OutlineTable:   ".program_description",
		OutlineLabels: []LabelRule{
			{Keyword: "credential", Field: "credential"},
			{Keyword: "total credits", Field: "total_credits"},
			{Keyword: "program code", Field: "program_code"},
			{Keyword: "cip", Field: "cip"},
		},
	}
}

func CalendarProgramsLayout() CalendarProgramLayout {
	return CalendarProgramLayout{
		TitleFallback:  "h1",
		MetadataTables: []string{"table.sc_plangrid", "table.datadisplaytable"},
		MetadataLabels: []LabelRule{
			{Keyword: "credential", Field: "credential"},
			{Keyword: "total credits", Field: "total_credits"},
			{Keyword: "length", Field: "length"},
			{Keyword: "location", Field: "location"},
			{Keyword: "start", Field: "start_date"},
		},
		OverviewHeadings:   []string{"Overview"},
		CurriculumHeadings: []string{"Curriculum", "Program Content", "Courses"},
		AdmissionHeadings:  []string{"Admission Requirements"},
		ContactHeadings:    []string{"Contact"},
	}
}
