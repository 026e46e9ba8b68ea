package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baxromumarov/catalog-scraper/internal/core"
	"github.com/baxromumarov/catalog-scraper/internal/observability"
	"github.com/baxromumarov/catalog-scraper/internal/scraper"
	"github.com/baxromumarov/catalog-scraper/internal/store"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	src, ok := s.source(w, r, scraper.KindCourse, scraper.CourseCatalog().Name)
	if !ok {
		return
	}
	var courses []scraper.CourseRecord
	if !s.load(w, src.OutputFile, &courses) {
		return
	}

	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		filtered := courses[:0:0]
		for _, c := range courses {
			if strings.Contains(strings.ToLower(c.Code), q) || strings.Contains(strings.ToLower(c.Title), q) {
				filtered = append(filtered, c)
			}
		}
		courses = filtered
	}
	respondPage(w, r, courses)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	src, ok := s.source(w, r, scraper.KindCourse, scraper.CourseCatalog().Name)
	if !ok {
		return
	}
	var courses []scraper.CourseRecord
	if !s.load(w, src.OutputFile, &courses) {
		return
	}

	want := NormalizeCode(chi.URLParam(r, "code"))
	for _, c := range courses {
		if want != "" && NormalizeCode(c.Code) == want {
			respondJSON(w, http.StatusOK, c)
			return
		}
	}
	respondError(w, http.StatusNotFound, "course not found")
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	src, ok := s.source(w, r, scraper.KindProgram, scraper.ProgramFinder().Name)
	if !ok {
		return
	}
	var programs []scraper.ProgramRecord
	if !s.load(w, src.OutputFile, &programs) {
		return
	}
	respondPage(w, r, programs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	items := []observability.StatsSnapshot{}
	for _, name := range scraper.SourceNames() {
		src := scraper.Sources()[name]
		var report core.RunReport
		err := store.LoadJSON(filepath.Join(s.dataDir, src.ReportFile()), &report)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to read report: "+err.Error())
			return
		}
		if report.Stats.Source == "" {
			report.Stats.Source = name
		}
		items = append(items, report.Stats)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

// source resolves the ?source= parameter to a descriptor of the given kind.
func (s *Server) source(w http.ResponseWriter, r *http.Request, kind scraper.Kind, fallback string) (scraper.Source, bool) {
	name := r.URL.Query().Get("source")
	if name == "" {
		name = fallback
	}
	src, ok := scraper.Sources()[name]
	if !ok || src.Kind != kind {
		respondError(w, http.StatusBadRequest, "unknown "+string(kind)+" source: "+name)
		return scraper.Source{}, false
	}
	return src, true
}

func (s *Server) load(w http.ResponseWriter, file string, v any) bool {
	err := store.LoadJSON(filepath.Join(s.dataDir, file), v)
	if errors.Is(err, os.ErrNotExist) {
		respondError(w, http.StatusNotFound, "no snapshot "+file+"; run the scraper first")
		return false
	}
	if err != nil {
		s.logger.Error("snapshot unreadable", "file", file, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read snapshot: "+err.Error())
		return false
	}
	return true
}

func respondPage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	limit, offset := parsePagination(r, defaultLimit)
	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)
	page := items[start:end]
	if page == nil {
		page = []T{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  page,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	q := r.URL.Query()
	limit := defaultLimit
	offset := 0

	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NormalizeCode makes "csci-100", "CSCI 100" and "CSCI100" compare equal.
func NormalizeCode(code string) string {
	code = strings.ToUpper(code)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '_' {
			return -1
		}
		return r
	}, code)
}
