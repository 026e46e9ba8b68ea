package core

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/catalog-scraper/internal/observability"
	"github.com/baxromumarov/catalog-scraper/internal/scraper"
)

type item struct {
	URL  string
	Body string
}

func tenEntities() *stubFetcher {
	hrefs := make([]string, 10)
	pages := map[string]string{}
	for i := range hrefs {
		hrefs[i] = fmt.Sprintf("/course/%d", i)
		pages["http://catalog.test"+hrefs[i]] = fmt.Sprintf("<p>course %d</p>", i)
	}
	pages["http://catalog.test/list?page=1"] = listing(hrefs...)
	return &stubFetcher{pages: pages}
}

func itemExtractor(panicOn string) scraper.Extractor[item] {
	return scraper.ExtractorFunc[item](func(_ context.Context, markup []byte, link scraper.Link) (item, scraper.Report, error) {
		if strings.HasSuffix(link.URL, panicOn) {
			var m map[string]int
			m["boom"]++ // nil map write
		}
		return item{URL: link.URL, Body: string(markup)}, scraper.Report{URL: link.URL, Found: []string{"body"}, Missing: []string{}}, nil
	})
}

func TestPipelineSkipsPanickingEntity(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	stats := observability.NewStats("test")

	p := NewPipeline(testSource(1), tenEntities(), itemExtractor("/course/3"), logger, stats)
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Links, 10)
	require.Len(t, res.Records, 9)
	require.Len(t, res.Reports, 9)
	require.Equal(t, []scraper.Link{{Label: "course/3", URL: "http://catalog.test/course/3"}}, res.Failed)
	for _, rec := range res.Records {
		require.NotEqual(t, "http://catalog.test/course/3", rec.URL)
	}
	require.Equal(t, "http://catalog.test/course/0", res.Records[0].URL)
	require.Equal(t, "<p>course 9</p>", res.Records[8].Body)

	snap := stats.Snapshot()
	require.EqualValues(t, 9, snap.RecordsSaved)
	require.EqualValues(t, 1, snap.EntitiesFailed)
	require.EqualValues(t, 1, snap.ErrorsByType[observability.ErrorPanic])

	out := logs.String()
	require.Contains(t, out, `msg="entity skipped"`)
	require.Contains(t, out, "kind=panic")
	require.Contains(t, out, "goroutine")
}

func TestPipelineSkipsFailedFetchAndError(t *testing.T) {
	f := tenEntities()
	delete(f.pages, "http://catalog.test/course/5")

	ex := scraper.ExtractorFunc[item](func(_ context.Context, markup []byte, link scraper.Link) (item, scraper.Report, error) {
		if strings.HasSuffix(link.URL, "/course/7") {
			return item{}, scraper.Report{}, fmt.Errorf("parse detail page: unexpected layout")
		}
		return item{URL: link.URL}, scraper.Report{URL: link.URL, Missing: []string{"credits"}}, nil
	})
	stats := observability.NewStats("test")
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	res, err := NewPipeline(testSource(1), f, scraper.Extractor[item](ex), logger, stats).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 8)
	require.Len(t, res.Failed, 2)

	snap := stats.Snapshot()
	require.EqualValues(t, 2, snap.EntitiesFailed)
	require.EqualValues(t, 1, snap.FetchFailures)
	require.EqualValues(t, 1, snap.ErrorsByType[observability.ErrorParsing])
	require.EqualValues(t, 8, snap.FieldsMissing["credits"])

	// only recovered panics carry a stack
	out := logs.String()
	require.Equal(t, 2, strings.Count(out, `msg="entity skipped"`))
	require.NotContains(t, out, "stack=")
}

func TestPipelineCanceledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := 0
	ex := scraper.ExtractorFunc[item](func(_ context.Context, _ []byte, link scraper.Link) (item, scraper.Report, error) {
		seen++
		if seen == 4 {
			cancel()
		}
		return item{URL: link.URL}, scraper.Report{URL: link.URL}, nil
	})

	res, err := NewPipeline(testSource(1), tenEntities(), scraper.Extractor[item](ex), nil, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Records, 4)
}
