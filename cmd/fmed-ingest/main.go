package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/fmed-ingest/internal/catalog"
	"github.com/JonMunkholm/fmed-ingest/internal/config"
	"github.com/JonMunkholm/fmed-ingest/internal/core"
	_ "github.com/JonMunkholm/fmed-ingest/internal/core/tables" // Register all variants
	"github.com/JonMunkholm/fmed-ingest/internal/fetch"
	"github.com/JonMunkholm/fmed-ingest/internal/logging"
	"github.com/JonMunkholm/fmed-ingest/internal/pipeline"
	"github.com/JonMunkholm/fmed-ingest/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, _ = logging.WithRunID(ctx)
	log := logging.FromContext(ctx)

	cat, err := catalog.Load(cfg.Datasets.CatalogFile)
	if err != nil {
		log.Error("failed to load catalog", "file", cfg.Datasets.CatalogFile, "error", err)
		return 1
	}

	log.Info("ingest starting",
		"datasets", cat.Len(),
		"variants", core.VariantCount(),
		"dir", cfg.Datasets.Dir,
		"db_host", cfg.Database.Host,
	)

	orch := &pipeline.Orchestrator{
		Catalog:     cat,
		Fetcher:     fetch.NewClient(cfg.Kaggle),
		Mapper:      core.NewMapper(),
		Loader:      store.NewLoader(store.NewPgConnector(cfg.Database), cfg.Database.EnsureSchema),
		DatasetsDir: cfg.Datasets.Dir,
	}

	summary, err := orch.Run(ctx)
	if errors.Is(err, pipeline.ErrAborted) {
		if fetch.IsCredentialError(err) {
			fmt.Fprintln(os.Stderr, fetch.Instructions(cfg.Kaggle))
		} else {
			log.Error("run aborted before processing datasets", "error", err)
		}
		return 1
	}

	if reportErr := summary.Report(os.Stdout); reportErr != nil {
		log.Warn("failed to write report", "error", reportErr)
	}

	if err != nil {
		log.Error("run interrupted", "error", err)
		return 1
	}
	return 0
}
