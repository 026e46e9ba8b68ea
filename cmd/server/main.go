package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/baxromumarov/catalog-scraper/internal/api"
	"github.com/baxromumarov/catalog-scraper/internal/cli"
)

func main() {
	cfg, logger, ctx, done := cli.Setup()
	defer done()

	srv := api.NewServer(cfg.DataDir, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", "port", cfg.Port, "data_dir", cfg.DataDir)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		done()
		os.Exit(1)
	}
}
