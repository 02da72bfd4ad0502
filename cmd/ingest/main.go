package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avro07/spay/internal/config"
	"github.com/avro07/spay/internal/generator"
	"github.com/avro07/spay/internal/logging"
	"github.com/avro07/spay/internal/repository"
	"github.com/avro07/spay/internal/service"
)

func main() {
	var (
		seedPath = flag.String("seed", "./seed-data/seed.json", "Path to a seed file written by datagen")
		workers  = flag.Int("workers", 4, "Number of concurrent registration workers")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	if cfg.Ledger.Mirror == config.MirrorNone {
		logger.Error("ingest needs a ledger mirror; set LEDGER_MIRROR=graph or LEDGER_MIRROR=postgres")
		os.Exit(1)
	}

	seed, err := generator.ReadSeed(*seedPath)
	if err != nil {
		logger.Error("failed to read seed", "error", err, "path", *seedPath)
		os.Exit(1)
	}
	if len(seed.Accounts) == 0 {
		logger.Error("seed has no accounts", "path", *seedPath)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ledger, closeLedger, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open ledger mirror", "error", err)
		os.Exit(1)
	}
	defer closeLedger()

	mirror := service.NewMirror(ledger, logger, cfg.Ledger.Workers, cfg.Ledger.QueueSize).WithBackpressure()
	mirror.Start(ctx)

	svc := service.NewWalletService(service.Options{Logger: logger, Mirror: mirror})

	start := time.Now()
	logger.Info("ingesting seed", "accounts", len(seed.Accounts), "contacts", len(seed.Contacts), "history", len(seed.History), "workers", *workers)
	loadErr := svc.LoadSeed(ctx, seed, *workers)
	mirror.Close()
	if loadErr != nil {
		logger.Error("ingestion failed", "error", loadErr)
		os.Exit(1)
	}

	logger.Info("ingestion complete", "duration", time.Since(start).String(), "mode", cfg.Ledger.Mirror)
}
