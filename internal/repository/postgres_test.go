package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/domain"
)

// Runs only against a live database: SPAY_TEST_DATABASE_URL=postgres://...
func TestPostgresLedger_RoundTrip(t *testing.T) {
	dsn := os.Getenv("SPAY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SPAY_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := ConnectPostgres(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	repo := NewPostgresLedger(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}

	accountID := uuid.NewString()
	fee := decimal.RequireFromString("8.50")
	tx := domain.Transaction{
		ID:           uuid.NewString(),
		Type:         domain.TypeMFSTransfer,
		Amount:       decimal.NewFromInt(1000),
		Counterparty: "Mom",
		Fee:          &fee,
		Description:  "Nagad Transfer",
		Timestamp:    "01 May 2024, 02:30 PM",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := repo.RecordTransaction(ctx, accountID, tx); err != nil {
		t.Fatalf("record before account: %v", err)
	}
	if err := repo.RecordTransaction(ctx, accountID, tx); err != nil {
		t.Fatalf("replay must be a no-op, got %v", err)
	}
	if err := repo.UpsertAccount(ctx, domain.Account{
		ID: accountID, Name: "Rahim Ahmed", Phone: "01712345678",
		Role: domain.RoleUser, Balance: decimal.RequireFromString("24442"), CreatedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	txs, err := repo.ListTransactions(ctx, accountID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	got := txs[0]
	if got.ID != tx.ID || !got.Amount.Equal(tx.Amount) || got.Fee == nil || !got.Fee.Equal(fee) {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestConnectPostgres_BadURL(t *testing.T) {
	if _, err := ConnectPostgres(context.Background(), "://not a url", 1); err == nil {
		t.Fatal("expected parse error")
	}
}
