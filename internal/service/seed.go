package service

import (
	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/domain"
)

// DemoPIN is the PIN of every account in DemoSeed.
const DemoPIN = "1234"

// DemoSeed is the built-in dataset used when no seed file is configured.
func DemoSeed() Seed {
	return Seed{
		Accounts: []RegisterInput{
			{Name: "Rahim Ahmed", Phone: "01712345678", PIN: DemoPIN, Role: string(domain.RoleUser), OpeningBalance: decimal.RequireFromString("25450.50")},
			{Name: "Nadia Islam", Phone: "01911111111", PIN: DemoPIN, Role: string(domain.RoleUser), OpeningBalance: decimal.NewFromInt(8200)},
			{Name: "Karim Store", Phone: "01812345678", PIN: DemoPIN, Role: string(domain.RoleAgent), OpeningBalance: decimal.NewFromInt(150000)},
			{Name: "Daily Bazar", Phone: "01612345678", PIN: DemoPIN, Role: string(domain.RoleMerchant), OpeningBalance: decimal.NewFromInt(42000)},
		},
		Contacts: []ContactInput{
			{Name: "Mom", Phone: "01555555555"},
			{Name: "Sadia Rahman", Phone: "01323456789"},
			{Name: "Tanvir Hasan", Phone: "01498765432"},
		},
		History: []HistoryInput{
			{Phone: "01712345678", Type: domain.TypeReceived, Amount: decimal.NewFromInt(5000), Counterparty: "Nadia Islam", Description: "Received Money"},
			{Phone: "01712345678", Type: domain.TypeRecharge, Amount: decimal.NewFromInt(100), Counterparty: "01712345678", Description: "Mobile Recharge"},
		},
	}
}
