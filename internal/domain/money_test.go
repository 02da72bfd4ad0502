package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount(" 1000.50 ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !amount.Equal(decimal.RequireFromString("1000.5")) {
		t.Fatalf("expected 1000.5, got %s", amount)
	}

	if _, err := ParseAmount(""); !errors.Is(err, ErrAmountRequired) {
		t.Fatalf("expected ErrAmountRequired, got %v", err)
	}
	if _, err := ParseAmount("12abc"); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("8.5")); got != "8.50" {
		t.Fatalf("expected 8.50, got %s", got)
	}
}

func TestParseProvider(t *testing.T) {
	p, ok := ParseProvider("nagad")
	if !ok || p != ProviderNagad {
		t.Fatalf("expected Nagad, got %q (ok=%v)", p, ok)
	}
	if _, ok := ParseProvider("paypal"); ok {
		t.Fatal("expected unknown provider to be rejected")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(""); !ok || r != RoleUser {
		t.Fatalf("expected empty role to default to user, got %q", r)
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatal("expected unknown role to be rejected")
	}
}
