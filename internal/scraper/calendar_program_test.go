package scraper

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const calendarProgramPage = `<html><body>
<h1>Fallback Title</h1>
<div class="block_content">
<h2>Program Overview</h2>
<p>Learn to build things.</p>
<div>More detail.</div>
<div><table><tr><td>layout</td></tr></table></div>
<h3>Sub heading</h3>
<p>Still overview.</p>
<h2>Details</h2>
<table class="sc_plangrid">
<tr><td>Credential</td><td>Certificate</td></tr>
<tr><td>Total Credits</td><td>30</td></tr>
<tr><td>Location</td><td>Lansdowne</td></tr>
<tr><td>Start Date</td><td>September</td></tr>
<tr><td>Delivery</td><td>In person</td></tr>
</table>
<h2>Curriculum</h2>
<table>
<tr><th>Code</th><th>Title</th><th>Credits</th></tr>
<tr><td>ENGL 151</td><td>Academic Writing</td><td>3 credits</td></tr>
<tr><td>MATH 100</td><td>Calculus</td><td>4</td></tr>
</table>
<h2>Admission Requirements</h2>
<ul><li>Grade 12</li></ul>
<p>Or equivalent.</p>
<h2>Contact</h2>
<address>3100 Foul Bay Rd</address>
</div>
</body></html>`

func TestCalendarProgramExtractor(t *testing.T) {
	e := NewCalendarProgramExtractor(CalendarProgramsLayout())
	link := Link{Label: "Computer Science Certificate", URL: "https://calendar.camosun.ca/preview_program.php?poid=1"}

	rec, report, err := e.Extract(context.Background(), []byte(calendarProgramPage), link)
	require.NoError(t, err)

	want := ProgramRecord{
		URL:                   link.URL,
		Title:                 "Computer Science Certificate",
		Overview:              "Learn to build things.\nMore detail.\nStill overview.",
		Credential:            "Certificate",
		TotalCredits:          "30",
		Location:              "Lansdowne",
		StartDate:             "September",
		Metadata:              map[string]string{"delivery": "In person"},
		Curriculum:            []string{"ENGL 151 - Academic Writing", "MATH 100 - Calculus"},
		Courses:               []CurriculumCourse{{Code: "ENGL 151", Title: "Academic Writing", Credits: "3"}, {Code: "MATH 100", Title: "Calculus", Credits: "4"}},
		AdmissionRequirements: "Grade 12\nOr equivalent.",
		Contact:               "3100 Foul Bay Rd",
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"length"}, report.Missing)
}

func TestCalendarProgramExtractorFallbacks(t *testing.T) {
	page := `<html><body><h1>Practical Nursing</h1>
	<div class="main">
		<table><tr><td>Code</td><td>Name</td></tr><tr><td>BIOL 104</td><td>Biology</td></tr></table>
		<table><tr><td>foo</td><td>bar</td></tr></table>
	</div></body></html>`

	e := NewCalendarProgramExtractor(CalendarProgramsLayout())
	rec, report, err := e.Extract(context.Background(), []byte(page), Link{URL: "u"})
	require.NoError(t, err)

	require.Equal(t, "Practical Nursing", rec.Title)
	require.Equal(t, []string{"BIOL 104 - Biology"}, rec.Curriculum)
	require.Equal(t, []CurriculumCourse{{Code: "BIOL 104", Title: "Biology"}}, rec.Courses)
	require.ElementsMatch(t, []string{
		"overview", "credential", "total_credits", "length", "location",
		"start_date", "admission_requirements", "contact",
	}, report.Missing)
}

func TestCalendarProgramExtractorCurriculumList(t *testing.T) {
	page := `<div class="block_content">
		<h3>Program Content</h3>
		<p>Take the following:</p>
		<ol><li>ELEX 130 - Circuits (4 credits)</li><li>Any elective</li></ol>
	</div>`

	e := NewCalendarProgramExtractor(CalendarProgramsLayout())
	rec, _, err := e.Extract(context.Background(), []byte(page), Link{Label: "Electronics", URL: "u"})
	require.NoError(t, err)
	require.Equal(t, []CurriculumCourse{{Code: "ELEX 130", Title: "Circuits", Credits: "4"}}, rec.Courses)
	require.Equal(t, []string{"ELEX 130 - Circuits"}, rec.Curriculum)
}

func TestCalendarProgramExtractorBlankTableHeader(t *testing.T) {
	page := `<div class="block_content">
		<h2>Curriculum</h2>
		<table>
		<tr><td></td><td></td><td></td></tr>
		<tr><td>ENGL 151</td><td>Academic Writing</td><td>3</td></tr>
		<tr><td>MATH 100</td><td>Calculus</td></tr>
		</table>
	</div>`

	e := NewCalendarProgramExtractor(CalendarProgramsLayout())
	rec, _, err := e.Extract(context.Background(), []byte(page), Link{Label: "Arts", URL: "u"})
	require.NoError(t, err)
	require.Equal(t, []CurriculumCourse{
		{Code: "ENGL 151", Title: "Academic Writing", Credits: "3"},
		{Code: "MATH 100", Title: "Calculus"},
	}, rec.Courses)
	require.Equal(t, []string{"ENGL 151 - Academic Writing", "MATH 100 - Calculus"}, rec.Curriculum)
}
