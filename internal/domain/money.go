package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrAmountRequired is returned when an amount string is blank.
var ErrAmountRequired = errors.New("amount is required")

// ParseAmount parses a user-entered amount. Blank and non-numeric input are errors.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, ErrAmountRequired
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return amount, nil
}

// FormatAmount renders an amount with two decimal places.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
