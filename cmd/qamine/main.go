// Command qamine mines question/answer pairs from exported group chats.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/qamine/internal/adapters/driven/config/env"
	"github.com/custodia-labs/qamine/internal/adapters/driven/config/file"
	"github.com/custodia-labs/qamine/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/qamine/internal/adapters/driving/cli"
	"github.com/custodia-labs/qamine/internal/core/services"
	"github.com/custodia-labs/qamine/internal/index"
	"github.com/custodia-labs/qamine/internal/logger"
	"github.com/custodia-labs/qamine/internal/normalisers"
	"github.com/custodia-labs/qamine/internal/pipeline"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap wires configuration, storage and the core services.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	if err := env.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	fileStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	settings := services.NewSettingsService(env.New(fileStore))

	cfg, err := settings.Pipeline()
	if err != nil {
		return nil, fmt.Errorf("pipeline settings: %w", err)
	}
	comps, err := pipeline.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	store, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	pairs := store.PairStore()

	idx := index.New()
	counters := services.NewCounters()
	indexService := services.NewIndexService(comps, pairs, pairs, idx)
	if err := indexService.Load(ctx); err != nil {
		logger.Warn("index not loaded, searches will fail until 'qamine reindex': %v", err)
	}

	registry := normalisers.NewRegistry()
	normalisers.RegisterDefaults(registry)

	sch := settings.Scheduler()
	jobs := services.NewScheduler(sch, store.JobStore(), indexService)

	s := &cli.Services{
		Ingest:      services.NewIngestService(comps, pairs, pairs, idx, counters),
		Search:      services.NewSearchService(comps, idx, pairs),
		Index:       indexService,
		Stats:       services.NewStatsService(pairs, idx, counters),
		Settings:    settings,
		Jobs:        jobs,
		Normalisers: registry,
		Close:       store.Close,
	}
	if sch.Enabled {
		s.Scheduler = jobs
	}

	logger.Debug("bootstrap: config %s, database %s", fileStore.Path(), store.Path())
	return s, nil
}
