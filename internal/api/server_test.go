package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/catalog-scraper/internal/core"
	"github.com/baxromumarov/catalog-scraper/internal/observability"
	"github.com/baxromumarov/catalog-scraper/internal/scraper"
	"github.com/baxromumarov/catalog-scraper/internal/store"
)

type page struct {
	Items  []json.RawMessage `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Total  int               `json:"total"`
}

func seed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	courses := []scraper.CourseRecord{
		{Code: "CSCI 100", Title: "Introduction to Computing"},
		{Code: "CSCI 110", Title: "Web Development"},
		{Code: "MATH 115", Title: "Pre-Calculus"},
	}
	programs := []scraper.ProgramRecord{{Title: "Computer Science", Curriculum: []string{}}}
	require.NoError(t, store.SaveJSON(filepath.Join(dir, scraper.CourseCatalog().OutputFile), courses))
	require.NoError(t, store.SaveJSON(filepath.Join(dir, scraper.ProgramFinder().OutputFile), programs))

	report := core.RunReport{
		Stats:   observability.StatsSnapshot{Source: "courses", PagesFetched: 2, RecordsSaved: 3},
		Failed:  []scraper.Link{},
		Reports: []scraper.Report{},
	}
	require.NoError(t, store.SaveJSON(filepath.Join(dir, scraper.CourseCatalog().ReportFile()), report))
	return dir
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, NewServer(t.TempDir(), nil), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestListCoursesPaginates(t *testing.T) {
	s := NewServer(seed(t), nil)

	rec := get(t, s, "/courses?limit=2&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var p page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Equal(t, 3, p.Total)
	require.Equal(t, 2, p.Limit)
	require.Equal(t, 1, p.Offset)
	require.Len(t, p.Items, 2)

	rec = get(t, s, "/courses?offset=10")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.NotNil(t, p.Items)
	require.Empty(t, p.Items)
	require.Equal(t, defaultLimit, p.Limit)
}

func TestListCoursesQuery(t *testing.T) {
	rec := get(t, NewServer(seed(t), nil), "/courses?q=csci")
	var p page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Equal(t, 2, p.Total)
}

func TestGetCourse(t *testing.T) {
	s := NewServer(seed(t), nil)

	for _, code := range []string{"CSCI%20100", "csci-100", "CSCI100"} {
		rec := get(t, s, "/courses/"+code)
		require.Equal(t, http.StatusOK, rec.Code, code)
		var c scraper.CourseRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
		require.Equal(t, "CSCI 100", c.Code)
	}

	rec := get(t, s, "/courses/HIST-999")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnapshotMissing(t *testing.T) {
	s := NewServer(seed(t), nil)

	rec := get(t, s, "/courses?source=courses-legacy")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "run the scraper first")

	rec = get(t, s, "/programs?source=courses")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPrograms(t *testing.T) {
	rec := get(t, NewServer(seed(t), nil), "/programs")
	require.Equal(t, http.StatusOK, rec.Code)
	var p page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Equal(t, 1, p.Total)
	require.Contains(t, string(p.Items[0]), `"curriculum":[]`)
}

func TestStats(t *testing.T) {
	rec := get(t, NewServer(seed(t), nil), "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []observability.StatsSnapshot `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, "courses", body.Items[0].Source)
	require.EqualValues(t, 3, body.Items[0].RecordsSaved)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", 20, 0},
		{"limit=5&offset=3", 5, 3},
		{"limit=-1&offset=-4", 20, 0},
		{"limit=9999", maxLimit, 0},
		{"limit=abc", 20, 0},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/courses?"+tt.query, nil)
		limit, offset := parsePagination(r, defaultLimit)
		require.Equal(t, tt.limit, limit, tt.query)
		require.Equal(t, tt.offset, offset, tt.query)
	}
}

func TestNormalizeCode(t *testing.T) {
	require.Equal(t, "CSCI100", NormalizeCode("csci 100"))
	require.Equal(t, "CSCI100", NormalizeCode("CSCI-100"))
	require.Equal(t, "", NormalizeCode(" - "))
}
