package flow

import (
	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/domain"
)

// MinimumAmount is the smallest amount accepted at the amount step.
var MinimumAmount = decimal.NewFromInt(10)

// Presets are the quick-select amounts offered on the amount step.
var Presets = []int64{50, 100, 500, 1000}

// Rule is everything the controller needs to know about one category.
type Rule struct {
	Category domain.Category
	Type     domain.TransactionType
	Title    string
	// Label is appended to the provider name in MFS descriptions.
	Label           string
	FeeRate         decimal.Decimal
	StrictRecipient bool
	HasLanding      bool
	Credits         bool
	Startable       bool
}

var rules = map[domain.Category]Rule{
	domain.CategorySendMoney: {
		Category: domain.CategorySendMoney, Type: domain.TypeSend, Title: "Send Money",
		StrictRecipient: true, Startable: true,
	},
	domain.CategoryCashOut: {
		Category: domain.CategoryCashOut, Type: domain.TypeCashOut, Title: "Cash Out",
		FeeRate: decimal.RequireFromString("0.01"), StrictRecipient: true, Startable: true,
	},
	domain.CategoryMobileRecharge: {
		Category: domain.CategoryMobileRecharge, Type: domain.TypeRecharge, Title: "Mobile Recharge",
		StrictRecipient: true, Startable: true,
	},
	domain.CategoryPayment: {
		Category: domain.CategoryPayment, Type: domain.TypePayment, Title: "Payment",
		StrictRecipient: true, Startable: true,
	},
	domain.CategoryAddMoney: {
		Category: domain.CategoryAddMoney, Type: domain.TypeAddMoney, Title: "Add Money",
		Credits: true, Startable: true,
	},
	domain.CategoryPayBill: {
		Category: domain.CategoryPayBill, Type: domain.TypeBillPay, Title: "Pay Bill",
		HasLanding: true, Startable: true,
	},
	domain.CategoryBankTransfer: {
		Category: domain.CategoryBankTransfer, Type: domain.TypeBankTransfer, Title: "Bank Transfer",
		StrictRecipient: true, Startable: true,
	},
	domain.CategoryMFSTransfer: {
		Category: domain.CategoryMFSTransfer, Type: domain.TypeMFSTransfer, Title: "MFS Transfer", Label: "Transfer",
		FeeRate: decimal.RequireFromString("0.0085"), StrictRecipient: true, Startable: true,
	},
	domain.CategoryRequestMoney: {
		Category: domain.CategoryRequestMoney, Title: "Request Money",
	},
}

// RuleFor returns the rule for category.
func RuleFor(category domain.Category) (Rule, bool) {
	r, ok := rules[category]
	return r, ok
}

// Quote is the fee breakdown for an amount.
type Quote struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Total  decimal.Decimal `json:"total"`
	Credit bool            `json:"credit"`
}

// Quote computes fee and total for amount. Credit categories never carry a fee.
func (r Rule) Quote(amount decimal.Decimal) Quote {
	if r.Credits {
		return Quote{Amount: amount, Fee: decimal.Zero, Total: amount, Credit: true}
	}
	fee := amount.Mul(r.FeeRate)
	return Quote{Amount: amount, Fee: fee, Total: amount.Add(fee)}
}

// Fee is the category fee on amount; zero for unknown categories.
func Fee(category domain.Category, amount decimal.Decimal) decimal.Decimal {
	r, ok := rules[category]
	if !ok {
		return decimal.Zero
	}
	return r.Quote(amount).Fee
}
