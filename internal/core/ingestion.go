package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/baxromumarov/catalog-scraper/internal/httpx"
	"github.com/baxromumarov/catalog-scraper/internal/observability"
	"github.com/baxromumarov/catalog-scraper/internal/scraper"
)

type Result[T any] struct {
	Records []T
	Reports []scraper.Report
	Links   []scraper.Link
	Failed  []scraper.Link
}

// Pipeline scrapes one source: listing pages first, then every linked detail
// page in order. Failures of a single entity never stop the run.
type Pipeline[T any] struct {
	source    scraper.Source
	fetcher   scraper.Fetcher
	extractor scraper.Extractor[T]
	base      *slog.Logger
	logger    *slog.Logger
	stats     *observability.Stats
}

func NewPipeline[T any](src scraper.Source, fetcher scraper.Fetcher, extractor scraper.Extractor[T], logger *slog.Logger, stats *observability.Stats) *Pipeline[T] {
	if stats == nil {
		stats = observability.NewStats(src.Name)
	}
	return &Pipeline[T]{
		source:    src,
		fetcher:   fetcher,
		extractor: extractor,
		base:      logger,
		logger:    componentLogger(logger, "pipeline").With(slog.String("source", src.Name)),
		stats:     stats,
	}
}

func (p *Pipeline[T]) Stats() *observability.Stats {
	return p.stats
}

// Run returns the records scraped so far together with ctx's error when the
// run is interrupted.
func (p *Pipeline[T]) Run(ctx context.Context) (Result[T], error) {
	res := Result[T]{Records: []T{}, Reports: []scraper.Report{}}

	links, err := Paginate(ctx, p.source, p.fetcher, p.base, p.stats)
	res.Links = links
	if err != nil {
		return res, err
	}

	total := len(links)
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p.logger.Info("processing entity",
			slog.Int("index", i+1),
			slog.Int("total", total),
			slog.String("label", link.Label),
		)

		rec, report, err := p.process(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			p.fail(link, err)
			res.Failed = append(res.Failed, link)
		} else {
			res.Records = append(res.Records, rec)
			res.Reports = append(res.Reports, report)
			p.stats.IncRecords()
			p.stats.ObserveMissing(report.Missing)
			if len(report.Missing) > 0 {
				p.logger.Debug("fields defaulted",
					slog.String("url", link.URL),
					slog.Any("missing", report.Missing),
				)
			}
		}

		if i < total-1 {
			if err := httpx.Pause(ctx, p.source.EntityDelay); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// process fetches and extracts one entity. A panic inside the extractor is
// returned as an *observability.PanicError.
func (p *Pipeline[T]) process(ctx context.Context, link scraper.Link) (rec T, report scraper.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &observability.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	body, err := p.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		return rec, report, err
	}
	rec, report, err = p.extractor.Extract(ctx, body, link)
	if err != nil {
		return rec, report, fmt.Errorf("extract %s: %w", link.URL, err)
	}
	return rec, report, nil
}

func (p *Pipeline[T]) fail(link scraper.Link, err error) {
	p.stats.IncEntityFailure(err)
	attrs := []any{
		slog.String("label", link.Label),
		slog.String("url", link.URL),
		slog.String("kind", observability.ClassifyEntityError(err)),
		slog.String("error", err.Error()),
	}
	var pe *observability.PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, slog.String("stack", string(pe.Stack)))
	}
	p.logger.Error("entity skipped", attrs...)
}
