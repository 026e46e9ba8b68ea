package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/catalog-scraper/internal/scraper"
	"github.com/baxromumarov/catalog-scraper/internal/store"
)

func TestExecuteWritesOutputAndReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	src := testSource(1)
	src.OutputFile = "test_items.json"
	opts := RunOptions{DataDir: dir, Backup: true}

	summary, err := Execute(context.Background(), src, tenEntities(), itemExtractor("/course/3"), nil, opts)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "test_items.json"), summary.OutputFile)
	require.Equal(t, filepath.Join(dir, "test.report.json"), summary.ReportFile)
	require.EqualValues(t, 9, summary.Stats.RecordsSaved)

	var items []item
	require.NoError(t, store.LoadJSON(summary.OutputFile, &items))
	require.Len(t, items, 9)

	var report RunReport
	require.NoError(t, store.LoadJSON(summary.ReportFile, &report))
	require.Len(t, report.Reports, 9)
	require.Equal(t, []scraper.Link{{Label: "course/3", URL: "http://catalog.test/course/3"}}, report.Failed)
	require.EqualValues(t, 1, report.Stats.EntitiesFailed)

	_, err = os.Stat(summary.OutputFile + ".bak")
	require.True(t, os.IsNotExist(err))

	// second run keeps the first output as a backup
	_, err = Execute(context.Background(), src, tenEntities(), itemExtractor("none"), nil, opts)
	require.NoError(t, err)

	var backup []item
	require.NoError(t, store.LoadJSON(summary.OutputFile+".bak", &backup))
	require.Len(t, backup, 9)
	require.NoError(t, store.LoadJSON(summary.OutputFile, &items))
	require.Len(t, items, 10)
}

func TestExecuteEmptyListing(t *testing.T) {
	dir := t.TempDir()
	src := testSource(1)
	src.OutputFile = "empty.json"

	summary, err := Execute(context.Background(), src, &stubFetcher{}, itemExtractor("none"), nil, RunOptions{DataDir: dir})
	require.NoError(t, err)

	raw, err := os.ReadFile(summary.OutputFile)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(raw))
}

func TestScrapeUnknownSource(t *testing.T) {
	_, err := Scrape(context.Background(), "nope", &stubFetcher{}, nil, RunOptions{DataDir: t.TempDir()})
	require.Error(t, err)

	_, _, err = Probe(context.Background(), "nope", "http://x", &stubFetcher{}, nil)
	require.Error(t, err)
}

func TestProbeCourse(t *testing.T) {
	page := `<h1 id="course_preview_title">CSCI 100 - Introduction to Computing</h1>`
	f := &stubFetcher{pages: map[string]string{"http://catalog.test/c": page}}

	rec, report, err := Probe(context.Background(), "courses", "http://catalog.test/c", f, nil)
	require.NoError(t, err)
	course, ok := rec.(scraper.CourseRecord)
	require.True(t, ok)
	require.Equal(t, "CSCI 100", course.Code)
	require.True(t, report.Has("title"))
	require.False(t, report.Has("description"))
}
