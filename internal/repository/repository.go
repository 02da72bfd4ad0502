package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/domain"
	"github.com/avro07/spay/internal/graph"
)

var (
	errAccountIDRequired     = errors.New("account id is required")
	errTransactionIDRequired = errors.New("transaction id is required")
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// GraphLedger mirrors wallet accounts and their history into a graph:
// (:Account)-[:MADE]->(:Transaction)-[:WITH]->(:Counterparty).
type GraphLedger struct {
	client graph.Client
}

// NewGraphLedger instantiates a GraphLedger backed by the supplied graph client.
func NewGraphLedger(client graph.Client) *GraphLedger {
	return &GraphLedger{client: client}
}

// UpsertAccount creates or refreshes the account node.
func (r *GraphLedger) UpsertAccount(ctx context.Context, account domain.Account) error {
	if account.ID == "" {
		return errAccountIDRequired
	}

	params := map[string]any{
		"accountId": account.ID,
		"props": map[string]any{
			"name":      account.Name,
			"phone":     account.Phone,
			"role":      string(account.Role),
			"balance":   account.Balance.StringFixed(2),
			"createdAt": formatTime(account.CreatedAt),
		},
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertAccountCypher, params); err != nil {
		return fmt.Errorf("upsert account %s: %w", account.ID, err)
	}
	return nil
}

// RecordTransaction attaches a committed record to its account. Replaying the
// same record is a no-op.
func (r *GraphLedger) RecordTransaction(ctx context.Context, accountID string, tx domain.Transaction) error {
	if accountID == "" {
		return errAccountIDRequired
	}
	if tx.ID == "" {
		return errTransactionIDRequired
	}

	params := map[string]any{
		"accountId":     accountID,
		"transactionId": tx.ID,
		"counterparty":  tx.Counterparty,
		"props":         transactionProperties(tx),
	}
	if _, err := r.client.ExecuteWrite(ctx, recordTransactionCypher, params); err != nil {
		return fmt.Errorf("record transaction %s: %w", tx.ID, err)
	}
	return nil
}

// ListTransactions returns up to limit records for accountID, newest first.
func (r *GraphLedger) ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	if accountID == "" {
		return nil, errAccountIDRequired
	}
	params := map[string]any{
		"accountId": accountID,
		"limit":     clampLimit(limit),
	}
	res, err := r.client.ExecuteRead(ctx, listTransactionsCypher, params)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", accountID, err)
	}

	out := make([]domain.Transaction, 0, len(res.Records))
	for _, record := range res.Records {
		tx, err := transactionFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", record.String("id"), err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// Ping reports whether the graph is reachable.
func (r *GraphLedger) Ping(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

func transactionProperties(tx domain.Transaction) map[string]any {
	props := map[string]any{
		"type":         string(tx.Type),
		"amount":       tx.Amount.StringFixed(2),
		"counterparty": tx.Counterparty,
		"description":  tx.Description,
		"timestamp":    tx.Timestamp,
		"createdAt":    formatTime(tx.CreatedAt),
	}
	if tx.Fee != nil {
		props["fee"] = tx.Fee.StringFixed(2)
	}
	return props
}

func transactionFromRecord(record graph.Record) (domain.Transaction, error) {
	amount, err := decimal.NewFromString(record.String("amount"))
	if err != nil {
		return domain.Transaction{}, err
	}
	tx := domain.Transaction{
		ID:           record.String("id"),
		Type:         domain.TransactionType(record.String("type")),
		Amount:       amount,
		Counterparty: record.String("counterparty"),
		Description:  record.String("description"),
		Timestamp:    record.String("timestamp"),
		CreatedAt:    parseTime(record.String("createdAt")),
	}
	if raw := record.String("fee"); raw != "" {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Transaction{}, err
		}
		tx.Fee = &fee
	}
	return tx, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// storedTimeLayout is fixed width, so string order is time order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

const upsertAccountCypher = `
MERGE (a:Account {accountId: $accountId})
SET a += $props
`

const recordTransactionCypher = `
MERGE (a:Account {accountId: $accountId})
MERGE (t:Transaction {transactionId: $transactionId})
ON CREATE SET t += $props
MERGE (a)-[:MADE]->(t)
FOREACH (_ IN CASE WHEN $counterparty <> "" THEN [1] ELSE [] END |
	MERGE (c:Counterparty {name: $counterparty})
	MERGE (t)-[:WITH]->(c)
)
`

const listTransactionsCypher = `
MATCH (:Account {accountId: $accountId})-[:MADE]->(t:Transaction)
RETURN t.transactionId AS id,
	t.type AS type,
	t.amount AS amount,
	t.fee AS fee,
	t.counterparty AS counterparty,
	t.description AS description,
	t.timestamp AS timestamp,
	t.createdAt AS createdAt
ORDER BY t.createdAt DESC
LIMIT $limit
`
