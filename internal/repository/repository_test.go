package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/config"
	"github.com/avro07/spay/internal/domain"
	"github.com/avro07/spay/internal/graph"
)

func TestGraphLedger_UpsertAccount(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := NewGraphLedger(mem)

	account := domain.Account{
		ID:        "acc-1",
		Name:      "Rahim Ahmed",
		Phone:     "01712345678",
		Role:      domain.RoleUser,
		Balance:   decimal.RequireFromString("25450.5"),
		CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := repo.UpsertAccount(context.Background(), account); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 write query, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Query, "MERGE (a:Account {accountId: $accountId})") {
		t.Fatalf("unexpected query: %s", calls[0].Query)
	}
	props, ok := calls[0].Params["props"].(map[string]any)
	if !ok {
		t.Fatalf("expected props map, got %T", calls[0].Params["props"])
	}
	if props["balance"] != "25450.50" || props["role"] != "user" || props["createdAt"] != "2024-05-01T08:00:00.000000000Z" {
		t.Fatalf("unexpected props %v", props)
	}

	if err := repo.UpsertAccount(context.Background(), domain.Account{}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestGraphLedger_RecordTransaction(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := NewGraphLedger(mem)

	fee := decimal.NewFromInt(20)
	tx := domain.Transaction{
		ID:           "tx-1",
		Type:         domain.TypeCashOut,
		Amount:       decimal.NewFromInt(2000),
		Counterparty: "Karim Store",
		Fee:          &fee,
		Description:  "Cash Out",
		Timestamp:    "01 May 2024, 02:30 PM",
		CreatedAt:    time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC),
	}
	if err := repo.RecordTransaction(context.Background(), "acc-1", tx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 write query, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Query, "-[:MADE]->(t)") || !strings.Contains(calls[0].Query, "MERGE (t)-[:WITH]->(c)") {
		t.Fatalf("unexpected edges in query: %s", calls[0].Query)
	}
	params := calls[0].Params
	if params["accountId"] != "acc-1" || params["transactionId"] != "tx-1" || params["counterparty"] != "Karim Store" {
		t.Fatalf("unexpected params %v", params)
	}
	props := params["props"].(map[string]any)
	if props["fee"] != "20.00" || props["amount"] != "2000.00" || props["type"] != "cash-out" {
		t.Fatalf("unexpected props %v", props)
	}

	noFee := tx
	noFee.ID = "tx-2"
	noFee.Fee = nil
	_ = repo.RecordTransaction(context.Background(), "acc-1", noFee)
	props = mem.WriteCalls()[1].Params["props"].(map[string]any)
	if _, ok := props["fee"]; ok {
		t.Fatal("zero-fee records must not carry a fee property")
	}

	if err := repo.RecordTransaction(context.Background(), "", tx); err == nil {
		t.Fatal("expected error for missing account id")
	}
	if err := repo.RecordTransaction(context.Background(), "acc-1", domain.Transaction{}); err == nil {
		t.Fatal("expected error for missing transaction id")
	}
}

func TestGraphLedger_ListTransactions(t *testing.T) {
	mem := graph.NewMemoryClient().On("RETURN t.transactionId", func(params map[string]any) (graph.Result, error) {
		if params["limit"] != maxListLimit {
			t.Errorf("expected clamped limit, got %v", params["limit"])
		}
		return graph.Result{Records: []graph.Record{
			{"id": "tx-2", "type": "send", "amount": "2000.00", "counterparty": "Nadia Islam", "timestamp": "01 May 2024, 02:30 PM", "createdAt": "2024-05-01T14:30:00Z"},
			{"id": "tx-1", "type": "cash-out", "amount": "500.00", "fee": "5.00", "createdAt": "2024-05-01T10:00:00Z"},
		}}, nil
	})
	repo := NewGraphLedger(mem)

	txs, err := repo.ListTransactions(context.Background(), "acc-1", 10_000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Fee != nil || txs[0].Counterparty != "Nadia Islam" || !txs[0].Amount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected first record %+v", txs[0])
	}
	if txs[1].Fee == nil || !txs[1].Fee.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected fee on second record, got %+v", txs[1])
	}
	if !txs[1].CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected createdAt %s", txs[1].CreatedAt)
	}
}

func TestGraphLedger_ListTransactionsBadAmount(t *testing.T) {
	mem := graph.NewMemoryClient().On("RETURN t.transactionId", func(map[string]any) (graph.Result, error) {
		return graph.Result{Records: []graph.Record{{"id": "tx-1", "amount": "lots"}}}, nil
	})
	if _, err := NewGraphLedger(mem).ListTransactions(context.Background(), "acc-1", 5); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGraphLedger_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	mem := graph.NewMemoryClient().WithError(boom).WithConnectivityError(boom)
	repo := NewGraphLedger(mem)

	if err := repo.UpsertAccount(context.Background(), domain.Account{ID: "a"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if err := repo.Ping(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom from ping, got %v", err)
	}
}

func TestFormatTime_SortsChronologically(t *testing.T) {
	base := time.Date(2024, 5, 1, 14, 30, 5, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(100 * time.Millisecond),
		base.Add(120 * time.Millisecond),
		base.Add(time.Second),
	}
	for i := 1; i < len(times); i++ {
		earlier, later := formatTime(times[i-1]), formatTime(times[i])
		if earlier >= later {
			t.Fatalf("%q must sort before %q", earlier, later)
		}
		if got := parseTime(later); !got.Equal(times[i]) {
			t.Fatalf("parseTime(%q) = %s", later, got)
		}
	}
	if got := parseTime("2024-05-01T10:00:00Z"); !got.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("short layout must still parse, got %s", got)
	}
	if formatTime(time.Time{}) != "" {
		t.Fatal("zero time must format empty")
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{0: defaultListLimit, -3: defaultListLimit, 20: 20, 500: maxListLimit}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestOpen_Modes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ledger, closeFn, err := Open(context.Background(), config.Config{Ledger: config.LedgerConfig{Mirror: config.MirrorNone}}, logger)
	if err != nil || ledger != nil {
		t.Fatalf("expected no ledger, got %v, %v", ledger, err)
	}
	closeFn()

	_, closeFn, err = Open(context.Background(), config.Config{Ledger: config.LedgerConfig{Mirror: config.MirrorGraph}}, logger)
	if !errors.Is(err, graph.ErrMissingURI) {
		t.Fatalf("expected ErrMissingURI, got %v", err)
	}
	closeFn()
}
