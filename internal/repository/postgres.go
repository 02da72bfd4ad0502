package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/domain"
)

// PostgresLedger mirrors accounts and history into Postgres tables.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool against dsn and checks it with a ping.
func ConnectPostgres(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresLedger wraps an open pool.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// EnsureSchema creates the mirror tables when missing.
func (r *PostgresLedger) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// UpsertAccount inserts the account or refreshes its mutable columns.
func (r *PostgresLedger) UpsertAccount(ctx context.Context, account domain.Account) error {
	if account.ID == "" {
		return errAccountIDRequired
	}
	_, err := r.pool.Exec(ctx, upsertAccountSQL,
		account.ID, account.Name, account.Phone, string(account.Role),
		account.Balance.String(), account.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", account.ID, err)
	}
	return nil
}

// RecordTransaction stores a committed record. The account row is created
// first when the mirror saw the commit before the registration.
func (r *PostgresLedger) RecordTransaction(ctx context.Context, accountID string, tx domain.Transaction) error {
	if accountID == "" {
		return errAccountIDRequired
	}
	if tx.ID == "" {
		return errTransactionIDRequired
	}

	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbTx.Rollback(ctx)

	if _, err := dbTx.Exec(ctx, ensureAccountSQL, accountID); err != nil {
		return fmt.Errorf("ensure account %s: %w", accountID, err)
	}

	var fee *string
	if tx.Fee != nil {
		v := tx.Fee.String()
		fee = &v
	}
	_, err = dbTx.Exec(ctx, insertTransactionSQL,
		tx.ID, accountID, string(tx.Type), tx.Amount.String(), fee,
		tx.Counterparty, tx.Description, tx.Timestamp, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("record transaction %s: %w", tx.ID, err)
	}
	return dbTx.Commit(ctx)
}

// ListTransactions returns up to limit records for accountID, newest first.
func (r *PostgresLedger) ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, listTransactionsSQL, accountID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", accountID, err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Ping reports whether the database is reachable.
func (r *PostgresLedger) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var (
		tx          domain.Transaction
		txType      string
		amount      string
		fee         *string
		description string
	)
	if err := row.Scan(&tx.ID, &txType, &amount, &fee, &tx.Counterparty, &description, &tx.Timestamp, &tx.CreatedAt); err != nil {
		return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Type = domain.TransactionType(txType)
	tx.Description = description

	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return domain.Transaction{}, fmt.Errorf("decode amount of %s: %w", tx.ID, err)
	}
	if fee != nil {
		v, err := decimal.NewFromString(*fee)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("decode fee of %s: %w", tx.ID, err)
		}
		tx.Fee = &v
	}
	return tx, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ledger_accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user',
	balance NUMERIC(18,2) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ledger_transactions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES ledger_accounts(id),
	type TEXT NOT NULL,
	amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
	fee NUMERIC(18,2),
	counterparty TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	display_timestamp TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ledger_transactions_account_created
	ON ledger_transactions (account_id, created_at DESC);
`

const upsertAccountSQL = `
INSERT INTO ledger_accounts (id, name, phone, role, balance, created_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	phone = EXCLUDED.phone,
	role = EXCLUDED.role,
	balance = EXCLUDED.balance,
	updated_at = now()
`

const ensureAccountSQL = `
INSERT INTO ledger_accounts (id) VALUES ($1)
ON CONFLICT DO NOTHING
`

const insertTransactionSQL = `
INSERT INTO ledger_transactions
	(id, account_id, type, amount, fee, counterparty, description, display_timestamp, created_at)
VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9)
ON CONFLICT DO NOTHING
`

const listTransactionsSQL = `
SELECT id, type, amount::text, fee::text, counterparty, description, display_timestamp, created_at
FROM ledger_transactions
WHERE account_id = $1
ORDER BY created_at DESC
LIMIT $2
`
