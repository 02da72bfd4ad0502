package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the category tag stored on a committed record.
type TransactionType string

const (
	TypeSend         TransactionType = "send"
	TypeCashOut      TransactionType = "cash-out"
	TypeRecharge     TransactionType = "recharge"
	TypePayment      TransactionType = "payment"
	TypeAddMoney     TransactionType = "add-money"
	TypeBillPay      TransactionType = "bill-pay"
	TypeBankTransfer TransactionType = "bank-transfer"
	TypeMFSTransfer  TransactionType = "mfs-transfer"
	TypeReceived     TransactionType = "received"
)

// TimestampLayout is the display format used for Transaction.Timestamp.
const TimestampLayout = "02 Jan 2006, 03:04 PM"

// Transaction is an immutable history record. Fee is nil when no fee applied.
type Transaction struct {
	ID           string           `json:"id"`
	Type         TransactionType  `json:"type"`
	Amount       decimal.Decimal  `json:"amount"`
	Counterparty string           `json:"counterparty,omitempty"`
	Fee          *decimal.Decimal `json:"fee,omitempty"`
	Description  string           `json:"description,omitempty"`
	Timestamp    string           `json:"timestamp"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// FeeOrZero returns the fee, treating an absent fee as zero.
func (t Transaction) FeeOrZero() decimal.Decimal {
	if t.Fee == nil {
		return decimal.Zero
	}
	return *t.Fee
}
