package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/baxromumarov/catalog-scraper/internal/urlutil"
)

// BrowserUserAgent is sent with every request. The calendar site serves the
// same markup to bots, but some of its CDN rules reject non-browser agents.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// CollyFetcher wraps Colly for single-attempt HTML fetching. All requests go
// through one base collector so the HTTP backend and cookie jar are shared.
type CollyFetcher struct {
	base         *colly.Collector
	logger       *slog.Logger
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
	hosts        map[string]*rate.Limiter
	userAgent    string
	robots       map[string]*robotstxt.RobotsData // nil unless WithRobotsTxt
}

// ErrDisallowed is wrapped in the FetchError returned for paths the host's
// robots.txt excludes.
var ErrDisallowed = errors.New("disallowed by robots.txt")

type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	if e.Status == 0 {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Option func(*CollyFetcher)

// WithHostRate overrides the default request floor applied to every host.
func WithHostRate(per time.Duration, burst int) Option {
	return func(f *CollyFetcher) {
		if per <= 0 || burst <= 0 {
			return
		}
		f.defaultRate = rate.Every(per)
		f.defaultBurst = burst
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *CollyFetcher) {
		if d > 0 {
			f.base.SetRequestTimeout(d)
		}
	}
}

// WithRobotsTxt makes Fetch consult each host's robots.txt, cached for the
// fetcher's lifetime.
func WithRobotsTxt() Option {
	return func(f *CollyFetcher) {
		f.robots = make(map[string]*robotstxt.RobotsData)
	}
}

func NewCollyFetcher(logger *slog.Logger, userAgent string, opts ...Option) *CollyFetcher {
	if userAgent == "" {
		userAgent = BrowserUserAgent
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	base := colly.NewCollector(colly.UserAgent(userAgent))
	base.IgnoreRobotsTxt = true
	base.AllowURLRevisit = true
	base.ParseHTTPErrorResponse = true
	base.SetRequestTimeout(30 * time.Second)

	f := &CollyFetcher{
		base:         base,
		logger:       logger.With(slog.String("component", "fetcher")),
		defaultRate:  rate.Every(time.Second),
		defaultBurst: 2,
		hosts:        make(map[string]*rate.Limiter),
		userAgent:    userAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues a GET and returns the raw body. Transport errors and non-2xx
// statuses come back as *FetchError.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if f.robots != nil && !f.allowed(ctx, target) {
		return nil, &FetchError{URL: target, Err: ErrDisallowed}
	}
	if err := f.limiterFor(urlutil.Host(target)).Wait(ctx); err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}

	started := time.Now()
	body, status, err := f.fetchOnce(ctx, target)
	if err != nil {
		return nil, &FetchError{URL: target, Status: status, Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &FetchError{URL: target, Status: status}
	}

	f.logger.Debug("page fetched",
		slog.String("url", target),
		slog.Int("status", status),
		slog.Int("bytes", len(body)),
		slog.Duration("took", time.Since(started)),
	)
	return body, nil
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, target string) ([]byte, int, error) {
	c := f.newCollector()

	var body []byte
	status := 0
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	collyCtx := colly.NewContext()
	collyCtx.Put("ctx", ctx)

	if err := c.Request(http.MethodGet, target, nil, collyCtx, nil); err != nil {
		return nil, status, err
	}
	if reqErr != nil {
		return nil, status, reqErr
	}
	if ctx.Err() != nil {
		return nil, status, ctx.Err()
	}
	if status == 0 {
		status = http.StatusOK
	}
	return body, status, nil
}

func (f *CollyFetcher) newCollector() *colly.Collector {
	c := f.base.Clone()
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.ParseHTTPErrorResponse = true

	c.OnRequest(func(r *colly.Request) {
		ctx := context.Background()
		if v := r.Ctx.GetAny("ctx"); v != nil {
			if reqCtx, ok := v.(context.Context); ok {
				ctx = reqCtx
			}
		}
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	return c
}

// allowed reports whether target may be fetched. An unreachable robots.txt
// allows everything; a 5xx disallows everything until the fetcher is rebuilt.
func (f *CollyFetcher) allowed(ctx context.Context, target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return true
	}
	host := urlutil.Host(target)

	f.mu.Lock()
	data, ok := f.robots[host]
	f.mu.Unlock()
	if !ok {
		robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
		if err := f.limiterFor(host).Wait(ctx); err != nil {
			return true
		}
		body, status, err := f.fetchOnce(ctx, robotsURL)
		if err != nil && status == 0 {
			f.logger.Warn("robots.txt unreachable", slog.String("url", robotsURL), slog.Any("error", err))
			return true
		}
		data, err = robotstxt.FromStatusAndBytes(status, body)
		if err != nil {
			f.logger.Warn("robots.txt unparsable", slog.String("url", robotsURL), slog.Any("error", err))
			return true
		}
		f.mu.Lock()
		f.robots[host] = data
		f.mu.Unlock()
	}

	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, f.userAgent)
}

func (f *CollyFetcher) limiterFor(host string) *rate.Limiter {
	if host == "" {
		host = "default"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.hosts[host]; ok {
		return l
	}
	l := rate.NewLimiter(f.defaultRate, f.defaultBurst)
	f.hosts[host] = l
	return l
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}
