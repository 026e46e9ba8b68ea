package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/baxromumarov/catalog-scraper/internal/cli"
	"github.com/baxromumarov/catalog-scraper/internal/core"
	"github.com/baxromumarov/catalog-scraper/internal/scraper"
)

func main() {
	source := flag.String("source", "courses", "source whose detail extractor is used: "+strings.Join(scraper.SourceNames(), ", "))
	pageURL := flag.String("url", "", "detail page URL")
	flag.Parse()

	if *pageURL == "" {
		fmt.Fprintln(os.Stderr, "probe: -url is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, logger, ctx, done := cli.Setup()
	defer done()

	fetcher := cli.NewFetcher(cfg, logger)
	record, report, err := core.Probe(ctx, *source, *pageURL, fetcher, logger)
	if err != nil {
		logger.Error("probe failed", "source", *source, "url", *pageURL, "error", err)
		done()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	enc.Encode(map[string]any{
		"record": record,
		"report": report,
	})
}
