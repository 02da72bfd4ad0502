package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avro07/spay/internal/config"
	"github.com/avro07/spay/internal/generator"
	"github.com/avro07/spay/internal/logging"
	"github.com/avro07/spay/internal/repository"
	"github.com/avro07/spay/internal/server"
	"github.com/avro07/spay/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ledger, closeLedger, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open ledger mirror", "error", err, "mode", cfg.Ledger.Mirror)
		os.Exit(1)
	}
	defer closeLedger()

	var mirror *service.Mirror
	var ledgerReader server.LedgerReader
	var pinger server.Pinger
	if ledger != nil {
		mirror = service.NewMirror(ledger, logger.With("component", "mirror"), cfg.Ledger.Workers, cfg.Ledger.QueueSize)
		mirror.Start(ctx)
		ledgerReader, pinger = ledger, ledger
	}

	svc := service.NewWalletService(service.Options{
		Logger:       logger,
		Mirror:       mirror,
		HoldDuration: cfg.Flow.HoldDuration,
		FlowTTL:      cfg.Flow.TTL,
	})

	seed, err := loadSeed(logger, cfg.SeedPath)
	if err != nil {
		logger.Error("failed to read seed", "error", err, "path", cfg.SeedPath)
		os.Exit(1)
	}
	if err := svc.LoadSeed(ctx, seed, cfg.Flow.SeedWorkers); err != nil {
		logger.Error("failed to load seed", "error", err)
		os.Exit(1)
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.MirrorHealthService{Mirror: pinger},
		API:              server.NewAPIHandlers(logger, svc, ledgerReader),
		Idempotency:      server.NewIdempotencyCache(logger, cfg.HTTP.IdempotencyTTL),
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepFlows(sweepCtx, logger, svc, cfg.Flow.TTL)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	mirror.Close()
}

func sweepFlows(ctx context.Context, logger *slog.Logger, svc *service.WalletService, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.SweepFlows(); n > 0 {
				logger.Info("expired flows evicted", "count", n)
			}
		}
	}
}

func loadSeed(logger *slog.Logger, path string) (service.Seed, error) {
	if path == "" {
		logger.Info("no SEED_PATH configured, loading demo accounts", "pin", service.DemoPIN)
		return service.DemoSeed(), nil
	}
	return generator.ReadSeed(path)
}
