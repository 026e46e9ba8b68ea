package scraper

import (
	"context"
)

// Link is one entity found on a listing page.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Extractor turns one detail page into a record. A field whose anchor
// element is missing keeps its default and shows up in Report.Missing; an
// error means the whole entity should be skipped.
type Extractor[T any] interface {
	Extract(ctx context.Context, markup []byte, link Link) (T, Report, error)
}

type ExtractorFunc[T any] func(ctx context.Context, markup []byte, link Link) (T, Report, error)

func (f ExtractorFunc[T]) Extract(ctx context.Context, markup []byte, link Link) (T, Report, error) {
	return f(ctx, markup, link)
}
