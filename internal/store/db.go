package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/baxromumarov/catalog-scraper/internal/scraper"
)

//go:embed schema.sql
var schema string

// Store keeps imported scrape snapshots in Postgres. Every import is a new
// run; nothing is merged across runs.
type Store struct {
	db *sql.DB
}

func NewStore(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RunMigrations(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func clampLimit(limit int, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

type Run struct {
	ID         int64     `json:"id"`
	Source     string    `json:"source"`
	File       string    `json:"file"`
	Records    int       `json:"records"`
	ImportedAt time.Time `json:"imported_at"`
}

func (s *Store) ImportCourses(ctx context.Context, source, file string, courses []scraper.CourseRecord) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer tx.Rollback()

	run, err := createRun(ctx, tx, source, file, len(courses))
	if err != nil {
		return Run{}, err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO courses (run_id, url, code, title, description, credits, hours, prerequisites, corequisites, restrictions, notes, equivalencies)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`)
	if err != nil {
		return Run{}, err
	}
	defer stmt.Close()

	for _, c := range courses {
		prereq, err := json.Marshal(c.Prerequisites)
		if err != nil {
			return Run{}, fmt.Errorf("encode prerequisites for %s: %w", c.URL, err)
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID, c.URL, c.Code, c.Title, c.Description, c.Credits, c.Hours,
			string(prereq), c.Corequisites, c.Restrictions, c.Notes, c.Equivalencies,
		); err != nil {
			return Run{}, fmt.Errorf("insert course %s: %w", c.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) ImportPrograms(ctx context.Context, source, file string, programs []scraper.ProgramRecord) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer tx.Rollback()

	run, err := createRun(ctx, tx, source, file, len(programs))
	if err != nil {
		return Run{}, err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO programs (run_id, url, title, credential, record)
VALUES ($1, $2, $3, $4, $5)
`)
	if err != nil {
		return Run{}, err
	}
	defer stmt.Close()

	for _, p := range programs {
		record, err := json.Marshal(p)
		if err != nil {
			return Run{}, fmt.Errorf("encode program %s: %w", p.URL, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, p.URL, p.Title, p.Credential, string(record)); err != nil {
			return Run{}, fmt.Errorf("insert program %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, err
	}
	return run, nil
}

func createRun(ctx context.Context, tx *sql.Tx, source, file string, records int) (Run, error) {
	run := Run{Source: source, File: file, Records: records}
	err := tx.QueryRowContext(ctx, `
INSERT INTO scrape_runs (source, file, records, imported_at)
VALUES ($1, $2, $3, NOW())
RETURNING id, imported_at
`, source, file, records).Scan(&run.ID, &run.ImportedAt)
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	limit = clampLimit(limit, 20, 200)
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, source, file, records, imported_at
FROM scrape_runs
ORDER BY imported_at DESC, id DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.File, &r.Records, &r.ImportedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
