package urlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	base := "https://calendar.camosun.ca"
	cases := []struct {
		href string
		want string
	}{
		{"/preview_course.php?coid=5", "https://calendar.camosun.ca/preview_course.php?coid=5"},
		{"preview_program.php?catoid=25&poid=3954", "https://calendar.camosun.ca/preview_program.php?catoid=25&poid=3954"},
		{"https://camosun.ca/programs-courses/x", "https://camosun.ca/programs-courses/x"},
		{"  ", ""},
		{"mailto:info@camosun.ca", ""},
		{"javascript:void(0)", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Resolve(base, tc.href), tc.href)
	}
}

func TestPageURL(t *testing.T) {
	tmpl := "https://camosun.ca/programs-courses/find-program?page=%2C{page}"
	require.Equal(t, "https://camosun.ca/programs-courses/find-program?page=%2C3", PageURL(tmpl, 3))
	require.Equal(t, "https://example.com/list", PageURL("https://example.com/list", 3))
}

func TestHost(t *testing.T) {
	require.Equal(t, "calendar.camosun.ca", Host("https://www.Calendar.camosun.ca/preview_course_nopop.php?catoid=25&coid=12345"))
	require.Equal(t, "", Host("::"))
}
