package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avro07/spay/internal/config"
	"github.com/avro07/spay/internal/domain"
	"github.com/avro07/spay/internal/graph"
)

// Ledger is an external copy of the wallet ledger.
type Ledger interface {
	UpsertAccount(ctx context.Context, account domain.Account) error
	RecordTransaction(ctx context.Context, accountID string, tx domain.Transaction) error
	ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error)
	Ping(ctx context.Context) error
}

var (
	_ Ledger = (*GraphLedger)(nil)
	_ Ledger = (*PostgresLedger)(nil)
)

// Open connects the ledger selected by cfg.Ledger.Mirror. It returns a nil
// Ledger for MirrorNone. The returned close func is always safe to call.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Ledger, func(), error) {
	noop := func() {}

	switch cfg.Ledger.Mirror {
	case config.MirrorGraph:
		client, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open graph ledger: %w", err)
		}
		logger.Info("connected to graph ledger", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
		return NewGraphLedger(client), func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}, nil

	case config.MirrorPostgres:
		pool, err := ConnectPostgres(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres ledger: %w", err)
		}
		ledger := NewPostgresLedger(pool)
		if err := ledger.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		logger.Info("connected to postgres ledger")
		return ledger, pool.Close, nil

	default:
		return nil, noop, nil
	}
}
