package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/baxromumarov/catalog-scraper/internal/observability"
	"github.com/baxromumarov/catalog-scraper/internal/scraper"
	"github.com/baxromumarov/catalog-scraper/internal/store"
)

type RunOptions struct {
	DataDir string
	Backup  bool
}

// RunReport is written next to the output file.
type RunReport struct {
	Stats   observability.StatsSnapshot `json:"stats"`
	Failed  []scraper.Link              `json:"failed"`
	Reports []scraper.Report            `json:"reports"`
}

type RunSummary struct {
	OutputFile string
	ReportFile string
	Stats      observability.StatsSnapshot
}

// Execute scrapes src and writes its records and extraction reports under
// opts.DataDir. When ctx is canceled mid-run the records gathered so far are
// still written and ctx's error is returned.
func Execute[T any](ctx context.Context, src scraper.Source, fetcher scraper.Fetcher, extractor scraper.Extractor[T], logger *slog.Logger, opts RunOptions) (RunSummary, error) {
	stats := observability.NewStats(src.Name)
	pipeline := NewPipeline(src, fetcher, extractor, logger, stats)
	logger = componentLogger(logger, "runner").With(slog.String("source", src.Name))

	logger.Info("scrape started")
	res, runErr := pipeline.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return RunSummary{}, runErr
	}
	if runErr != nil {
		logger.Warn("scrape interrupted, saving partial results", slog.Int("records", len(res.Records)))
	}

	summary := RunSummary{
		OutputFile: filepath.Join(opts.DataDir, src.OutputFile),
		ReportFile: filepath.Join(opts.DataDir, src.ReportFile()),
	}

	if opts.Backup {
		backup, err := store.Backup(summary.OutputFile)
		if err != nil {
			return summary, fmt.Errorf("backup %s: %w", summary.OutputFile, err)
		}
		if backup != "" {
			logger.Info("previous output backed up", slog.String("path", backup))
		}
	}
	if err := store.SaveJSON(summary.OutputFile, res.Records); err != nil {
		return summary, err
	}

	summary.Stats = stats.Snapshot()
	failed := res.Failed
	if failed == nil {
		failed = []scraper.Link{}
	}
	report := RunReport{Stats: summary.Stats, Failed: failed, Reports: res.Reports}
	if err := store.SaveJSON(summary.ReportFile, report); err != nil {
		return summary, err
	}

	logger.Info("scrape finished",
		slog.String("output", summary.OutputFile),
		slog.Uint64("pages", summary.Stats.PagesFetched),
		slog.Uint64("links", summary.Stats.LinksFound),
		slog.Uint64("records", summary.Stats.RecordsSaved),
		slog.Uint64("failed", summary.Stats.EntitiesFailed),
		slog.Any("most_missing", summary.Stats.MostMissing(3)),
	)
	return summary, runErr
}

// Scrape runs the named source end to end with its default layout.
func Scrape(ctx context.Context, name string, fetcher scraper.Fetcher, logger *slog.Logger, opts RunOptions) (RunSummary, error) {
	src, ok := scraper.Sources()[name]
	if !ok {
		return RunSummary{}, fmt.Errorf("unknown source %q", name)
	}
	switch src.Kind {
	case scraper.KindCourse:
		return Execute(ctx, src, fetcher, CourseExtractor(name), logger, opts)
	default:
		return Execute(ctx, src, fetcher, ProgramExtractor(name, fetcher, logger), logger, opts)
	}
}

// Probe runs the named source's detail extractor against a single page.
func Probe(ctx context.Context, name, pageURL string, fetcher scraper.Fetcher, logger *slog.Logger) (any, scraper.Report, error) {
	src, ok := scraper.Sources()[name]
	if !ok {
		return nil, scraper.Report{}, fmt.Errorf("unknown source %q", name)
	}
	body, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, scraper.Report{}, err
	}
	link := scraper.Link{URL: pageURL}
	if src.Kind == scraper.KindCourse {
		rec, report, err := CourseExtractor(name).Extract(ctx, body, link)
		return rec, report, err
	}
	rec, report, err := ProgramExtractor(name, fetcher, logger).Extract(ctx, body, link)
	return rec, report, err
}

func CourseExtractor(name string) scraper.Extractor[scraper.CourseRecord] {
	if name == scraper.LegacyCourseCatalog().Name {
		return scraper.NewCourseExtractor(scraper.LegacyCourseLayout())
	}
	return scraper.NewCourseExtractor(scraper.CourseCatalogLayout())
}

func ProgramExtractor(name string, fetcher scraper.Fetcher, logger *slog.Logger) scraper.Extractor[scraper.ProgramRecord] {
	if name == scraper.CalendarPrograms().Name {
		return scraper.NewCalendarProgramExtractor(scraper.CalendarProgramsLayout())
	}
	return scraper.NewProgramExtractor(scraper.ProgramFinderLayout(), fetcher, logger)
}
