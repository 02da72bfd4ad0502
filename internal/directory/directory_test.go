package directory

import (
	"testing"

	"github.com/avro07/spay/internal/domain"
)

func seeded() *Directory {
	d := New()
	d.AddAccount(Entry{AccountID: "a1", Name: "Karim Store", Phone: "01812345678", Role: domain.RoleAgent})
	d.AddAccount(Entry{AccountID: "a2", Name: "Nadia Islam", Phone: "01911111111", Role: domain.RoleUser})
	d.AddContact(domain.Contact{Name: "Mom", Phone: "01555555555"})
	d.AddContact(domain.Contact{Name: "Shadow", Phone: "01911111111"})
	return d
}

func TestResolve_StrictLengthGate(t *testing.T) {
	d := seeded()
	if got := d.Resolve("0181234567"); got != "" {
		t.Fatalf("10-digit identifier must not resolve, got %q", got)
	}
	if got := d.Resolve("018123456789"); got != "" {
		t.Fatalf("12-digit identifier must not resolve, got %q", got)
	}
	if got := d.Resolve("01812345678"); got != "Karim Store" {
		t.Fatalf("expected Karim Store, got %q", got)
	}
}

func TestResolve_AccountsBeforeContacts(t *testing.T) {
	d := seeded()
	if got := d.Resolve("01911111111"); got != "Nadia Islam" {
		t.Fatalf("expected account name to win, got %q", got)
	}
	if got := d.Resolve("01555555555"); got != "Mom" {
		t.Fatalf("expected contact fallback, got %q", got)
	}
	if got := d.Resolve("01000000000"); got != "" {
		t.Fatalf("expected unknown identifier to resolve empty, got %q", got)
	}
}

func TestRole(t *testing.T) {
	d := seeded()
	role, ok := d.Role("01812345678")
	if !ok || role != domain.RoleAgent {
		t.Fatalf("expected agent, got %q (ok=%v)", role, ok)
	}
	if _, ok := d.Role("01555555555"); ok {
		t.Fatal("contacts carry no role")
	}
}

func TestContactsSorted(t *testing.T) {
	contacts := seeded().Contacts()
	if len(contacts) != 2 || contacts[0].Name != "Mom" {
		t.Fatalf("unexpected contacts %+v", contacts)
	}
}
