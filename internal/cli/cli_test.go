package cli

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/catalog-scraper/internal/config"
	"github.com/baxromumarov/catalog-scraper/internal/httpx"
)

func TestScrapeWithUnknownSource(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	cfg := config.Config{DataDir: t.TempDir()}

	code := ScrapeWith(context.Background(), cfg, logger, "nope", httpx.NewCollyFetcher(logger, "test"))
	require.Equal(t, 1, code)
	require.Contains(t, logs.String(), "scrape failed")
}

func TestScrapeWithUnreachableListing(t *testing.T) {
	cfg := config.Config{DataDir: t.TempDir()}

	code := ScrapeWith(context.Background(), cfg, nil, "programs-calendar", failingFetcher{})
	require.Equal(t, 0, code)

	raw, err := os.ReadFile(filepath.Join(cfg.DataDir, "camosun_calendar_programs.json"))
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(raw))
}

type failingFetcher struct{}

func (failingFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	return nil, &httpx.FetchError{URL: rawURL, Status: http.StatusServiceUnavailable}
}
