// Package cli holds the process bootstrap shared by the cmd binaries.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/baxromumarov/catalog-scraper/internal/config"
	"github.com/baxromumarov/catalog-scraper/internal/core"
	"github.com/baxromumarov/catalog-scraper/internal/httpx"
	"github.com/baxromumarov/catalog-scraper/internal/logging"
	"github.com/baxromumarov/catalog-scraper/internal/scraper"
)

// Setup loads config, builds the logger and returns a context canceled on
// SIGINT or SIGTERM. Call the returned func before exiting.
func Setup() (config.Config, *slog.Logger, context.Context, func()) {
	cfg := config.Load()
	logger, closer := logging.New(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return cfg, logger, ctx, func() {
		stop()
		closer.Close()
	}
}

// Scrape runs one named source against the live site and returns the
// process exit code.
func Scrape(name string) int {
	cfg, logger, ctx, done := Setup()
	defer done()
	return ScrapeWith(ctx, cfg, logger, name, NewFetcher(cfg, logger))
}

// NewFetcher builds the live-site fetcher, honoring robots.txt when
// CATALOG_ROBOTS_TXT is set.
func NewFetcher(cfg config.Config, logger *slog.Logger) *httpx.CollyFetcher {
	var opts []httpx.Option
	if cfg.RobotsTxt {
		opts = append(opts, httpx.WithRobotsTxt())
	}
	return httpx.NewCollyFetcher(logger, httpx.BrowserUserAgent, opts...)
}

func ScrapeWith(ctx context.Context, cfg config.Config, logger *slog.Logger, name string, fetcher scraper.Fetcher) int {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := core.RunOptions{DataDir: cfg.DataDir, Backup: cfg.Backup}
	if _, err := core.Scrape(ctx, name, fetcher, logger, opts); err != nil {
		logger.Error("scrape failed", "source", name, "error", err)
		return 1
	}
	return 0
}
