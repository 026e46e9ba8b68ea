package core

import (
	"context"
	"log/slog"

	"github.com/baxromumarov/catalog-scraper/internal/httpx"
	"github.com/baxromumarov/catalog-scraper/internal/observability"
	"github.com/baxromumarov/catalog-scraper/internal/scraper"
)

type pageState int

const (
	stateFetching pageState = iota
	stateDone
)

// Paginate walks the listing pages of src and returns every link found, in
// page order. A failed fetch or a page without links ends the walk, and so
// does src.MaxPages. The only error returned is ctx's.
func Paginate(ctx context.Context, src scraper.Source, fetcher scraper.Fetcher, logger *slog.Logger, stats *observability.Stats) ([]scraper.Link, error) {
	logger = componentLogger(logger, "paginator").With(slog.String("source", src.Name))
	if stats == nil {
		stats = observability.NewStats(src.Name)
	}

	links := []scraper.Link{}
	page := 0
	state := stateFetching
	for state == stateFetching {
		if err := ctx.Err(); err != nil {
			return links, err
		}
		pageURL, ok := src.ListingURL(page)
		if !ok {
			logger.Info("page ceiling reached", slog.Int("pages", page))
			state = stateDone
			continue
		}

		logger.Info("fetching listing page", slog.Int("page", page+1), slog.String("url", pageURL))
		body, err := fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return links, ctx.Err()
			}
			stats.IncFetchFailure(err)
			logger.Error("listing page fetch failed, stopping",
				slog.String("url", pageURL),
				slog.String("error", err.Error()),
			)
			state = stateDone
			continue
		}
		stats.IncPagesFetched()

		found := src.Links.Extract(body, src.BaseURL)
		if len(found) == 0 {
			logger.Info("no links on page, stopping", slog.String("url", pageURL))
			state = stateDone
			continue
		}
		links = append(links, found...)
		stats.AddLinks(len(found))
		page++

		if err := httpx.Pause(ctx, src.PageDelay); err != nil {
			return links, err
		}
	}

	logger.Info("pagination finished", slog.Int("links", len(links)), slog.Int("pages", page))
	return links, nil
}

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return logger.With(slog.String("component", component))
}
