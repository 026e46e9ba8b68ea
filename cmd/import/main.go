package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/baxromumarov/catalog-scraper/internal/cli"
	"github.com/baxromumarov/catalog-scraper/internal/config"
	"github.com/baxromumarov/catalog-scraper/internal/scraper"
	"github.com/baxromumarov/catalog-scraper/internal/store"
)

func main() {
	source := flag.String("source", "courses", "source whose snapshot is imported")
	file := flag.String("file", "", "snapshot path (default: the source's output file under the data dir)")
	list := flag.Int("list", 0, "print the N most recent imports instead of importing")
	flag.Parse()

	cfg, logger, ctx, done := cli.Setup()
	defer done()

	var err error
	if *list > 0 {
		err = listRuns(ctx, cfg, *list)
	} else {
		err = run(ctx, cfg, logger, *source, *file)
	}
	if err != nil {
		logger.Error("import failed", "source", *source, "error", err)
		done()
		os.Exit(1)
	}
}

func listRuns(ctx context.Context, cfg config.Config, n int) error {
	db, err := store.NewStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, n, 0)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%d\t%s\t%s\t%d\t%s\n", r.ID, r.ImportedAt.Format(time.RFC3339), r.Source, r.Records, r.File)
	}
	return nil
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, name, file string) error {
	src, ok := scraper.Sources()[name]
	if !ok {
		return fmt.Errorf("unknown source %q", name)
	}
	if file == "" {
		file = filepath.Join(cfg.DataDir, src.OutputFile)
	}

	db, err := store.NewStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	var imported store.Run
	switch src.Kind {
	case scraper.KindCourse:
		var courses []scraper.CourseRecord
		if err := store.LoadJSON(file, &courses); err != nil {
			return err
		}
		imported, err = db.ImportCourses(ctx, name, file, courses)
	default:
		var programs []scraper.ProgramRecord
		if err := store.LoadJSON(file, &programs); err != nil {
			return err
		}
		imported, err = db.ImportPrograms(ctx, name, file, programs)
	}
	if err != nil {
		return err
	}

	logger.Info("snapshot imported", "run_id", imported.ID, "source", imported.Source, "file", imported.File, "records", imported.Records)
	return nil
}
