package service

import (
	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/domain"
)

// RegisterInput is the inbound payload for account creation.
type RegisterInput struct {
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	PIN            string          `json:"pin"`
	Role           string          `json:"role,omitempty"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// ContactInput adds an entry to the personal contacts directory.
type ContactInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// HistoryInput is a pre-existing history record loaded with seed data.
// It does not move the balance.
type HistoryInput struct {
	Phone        string                 `json:"phone"`
	Type         domain.TransactionType `json:"type"`
	Amount       decimal.Decimal        `json:"amount"`
	Counterparty string                 `json:"counterparty,omitempty"`
	Description  string                 `json:"description,omitempty"`
}

// DirectCommitInput commits a transaction without stepping through a flow.
// It passes through the same gates as the guided flow.
type DirectCommitInput struct {
	Category  domain.Category `json:"category"`
	Recipient string          `json:"recipient"`
	Amount    string          `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	Provider  string          `json:"provider,omitempty"`
	PIN       string          `json:"pin"`
}

// Seed is the bootstrap dataset for the in-memory store.
type Seed struct {
	Accounts []RegisterInput `json:"accounts"`
	Contacts []ContactInput  `json:"contacts"`
	History  []HistoryInput  `json:"history,omitempty"`
}
