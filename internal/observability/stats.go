package observability

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baxromumarov/catalog-scraper/internal/httpx"
)

type StatsSnapshot struct {
	Source          string            `json:"source,omitempty"`
	PagesFetched    uint64            `json:"pages_fetched"`
	LinksFound      uint64            `json:"links_found"`
	RecordsSaved    uint64            `json:"records_extracted"`
	EntitiesFailed  uint64            `json:"entities_failed"`
	FetchFailures   uint64            `json:"fetch_failures"`
	ErrorsByType    map[string]uint64 `json:"errors_by_type,omitempty"`
	FieldsMissing   map[string]uint64 `json:"fields_missing,omitempty"`
	DurationSeconds float64           `json:"duration_seconds"`
}

// Stats counts what happened during one scrape run. A zero Stats is not
// usable; create one with NewStats.
type Stats struct {
	source  string
	started time.Time

	pagesFetched   uint64
	linksFound     uint64
	recordsSaved   uint64
	entitiesFailed uint64
	fetchFailures  uint64

	mu            sync.Mutex
	errorsByType  map[string]uint64
	fieldsMissing map[string]uint64
}

func NewStats(source string) *Stats {
	return &Stats{
		source:        source,
		started:       time.Now(),
		errorsByType:  map[string]uint64{},
		fieldsMissing: map[string]uint64{},
	}
}

func (s *Stats) IncPagesFetched() {
	atomic.AddUint64(&s.pagesFetched, 1)
}

func (s *Stats) AddLinks(n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&s.linksFound, uint64(n))
}

func (s *Stats) IncRecords() {
	atomic.AddUint64(&s.recordsSaved, 1)
}

// IncFetchFailure records a failed GET, classified by ClassifyFetchError.
func (s *Stats) IncFetchFailure(err error) {
	atomic.AddUint64(&s.fetchFailures, 1)
	s.incError(ClassifyFetchError(err))
}

// IncEntityFailure records an entity skipped because of err. A failed
// detail-page fetch also counts as a fetch failure.
func (s *Stats) IncEntityFailure(err error) {
	atomic.AddUint64(&s.entitiesFailed, 1)
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		atomic.AddUint64(&s.fetchFailures, 1)
	}
	s.incError(ClassifyEntityError(err))
}

// ObserveMissing counts every field an extraction left at its default.
func (s *Stats) ObserveMissing(fields []string) {
	if len(fields) == 0 {
		return
	}
	s.mu.Lock()
	for _, f := range fields {
		s.fieldsMissing[f]++
	}
	s.mu.Unlock()
}

func (s *Stats) incError(errType string) {
	if errType == "" {
		errType = ErrorUnknown
	}
	s.mu.Lock()
	s.errorsByType[errType]++
	s.mu.Unlock()
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	errorsCopy := copyMap(s.errorsByType)
	missingCopy := copyMap(s.fieldsMissing)
	s.mu.Unlock()

	return StatsSnapshot{
		Source:          s.source,
		PagesFetched:    atomic.LoadUint64(&s.pagesFetched),
		LinksFound:      atomic.LoadUint64(&s.linksFound),
		RecordsSaved:    atomic.LoadUint64(&s.recordsSaved),
		EntitiesFailed:  atomic.LoadUint64(&s.entitiesFailed),
		FetchFailures:   atomic.LoadUint64(&s.fetchFailures),
		ErrorsByType:    errorsCopy,
		FieldsMissing:   missingCopy,
		DurationSeconds: time.Since(s.started).Seconds(),
	}
}

// MostMissing returns up to n field names ordered by how often they were
// defaulted, most frequent first.
func (s StatsSnapshot) MostMissing(n int) []string {
	fields := make([]string, 0, len(s.FieldsMissing))
	for f := range s.FieldsMissing {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		a, b := s.FieldsMissing[fields[i]], s.FieldsMissing[fields[j]]
		if a != b {
			return a > b
		}
		return fields[i] < fields[j]
	})
	if n >= 0 && len(fields) > n {
		fields = fields[:n]
	}
	return fields
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
