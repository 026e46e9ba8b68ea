package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceListingURL(t *testing.T) {
	courses := CourseCatalog()

	u, ok := courses.ListingURL(0)
	require.True(t, ok)
	require.Equal(t, "https://calendar.camosun.ca/content.php?catoid=25&navoid=2223", u)

	u, ok = courses.ListingURL(1)
	require.True(t, ok)
	require.Contains(t, u, "filter%5Bcpage%5D=2#")

	u, ok = courses.ListingURL(12)
	require.True(t, ok)
	require.Contains(t, u, "filter%5Bcpage%5D=13#")

	_, ok = courses.ListingURL(13)
	require.False(t, ok)

	programs := ProgramFinder()
	u, ok = programs.ListingURL(0)
	require.True(t, ok)
	require.Equal(t, "https://camosun.ca/programs-courses/find-program?page=%2C0", u)
	u, ok = programs.ListingURL(3)
	require.True(t, ok)
	require.Equal(t, "https://camosun.ca/programs-courses/find-program?page=%2C3", u)

	calendar := CalendarPrograms()
	_, ok = calendar.ListingURL(0)
	require.True(t, ok)
	_, ok = calendar.ListingURL(1)
	require.False(t, ok)

	_, ok = courses.ListingURL(-1)
	require.False(t, ok)
}

func TestSources(t *testing.T) {
	require.Equal(t, []string{"courses", "courses-legacy", "programs", "programs-calendar"}, SourceNames())

	all := Sources()
	require.Equal(t, KindCourse, all["courses-legacy"].Kind)
	require.Equal(t, KindProgram, all["programs-calendar"].Kind)
	require.NotEqual(t, all["courses"].OutputFile, all["courses-legacy"].OutputFile)
	require.Equal(t, "courses.report.json", all["courses"].ReportFile())
}
