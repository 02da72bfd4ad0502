package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role classifies an account in the wallet directory.
type Role string

const (
	RoleUser     Role = "user"
	RoleAgent    Role = "agent"
	RoleMerchant Role = "merchant"
)

// ParseRole maps a free-form role string onto a known Role. Empty input defaults to RoleUser.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case "", RoleUser:
		return RoleUser, true
	case RoleAgent:
		return RoleAgent, true
	case RoleMerchant:
		return RoleMerchant, true
	default:
		return "", false
	}
}

// Account is the wallet owned by one session.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Role      Role            `json:"role"`
	Balance   decimal.Decimal `json:"balance"`
	PINHash   []byte          `json:"-"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Contact is an entry in the personal contacts directory.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
