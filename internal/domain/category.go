package domain

import "strings"

// Category is a transaction kind the user can pick on the home screen.
type Category string

const (
	CategorySendMoney      Category = "send-money"
	CategoryCashOut        Category = "cash-out"
	CategoryMobileRecharge Category = "mobile-recharge"
	CategoryPayment        Category = "payment"
	CategoryAddMoney       Category = "add-money"
	CategoryPayBill        Category = "pay-bill"
	CategoryBankTransfer   Category = "bank-transfer"
	CategoryMFSTransfer    Category = "mfs-transfer"
	CategoryRequestMoney   Category = "request-money"
)

// Provider is a mobile financial service brand selectable for MFS transfers.
type Provider string

const (
	ProviderBkash  Provider = "Bkash"
	ProviderNagad  Provider = "Nagad"
	ProviderRocket Provider = "Rocket"
	ProviderUpay   Provider = "Upay"
)

// Providers lists the selectable MFS providers in display order.
var Providers = []Provider{ProviderBkash, ProviderNagad, ProviderRocket, ProviderUpay}

// ParseProvider matches a provider name case-insensitively.
func ParseProvider(value string) (Provider, bool) {
	value = strings.TrimSpace(value)
	for _, p := range Providers {
		if strings.EqualFold(string(p), value) {
			return p, true
		}
	}
	return "", false
}
