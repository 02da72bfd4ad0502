package directory

import (
	"sort"
	"strings"
	"sync"

	"github.com/avro07/spay/internal/domain"
)

// IdentifierLength is the exact length of a mobile wallet number.
const IdentifierLength = 11

// Entry is a known wallet account visible to other users.
type Entry struct {
	AccountID string      `json:"accountId"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone"`
	Role      domain.Role `json:"role"`
}

// Directory holds known accounts and the personal contacts list.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]Entry
	contacts map[string]domain.Contact
}

// New returns an empty Directory.
func New() *Directory {
	return &Directory{
		accounts: make(map[string]Entry),
		contacts: make(map[string]domain.Contact),
	}
}

// AddAccount registers or replaces the account listed under entry.Phone.
func (d *Directory) AddAccount(entry Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[entry.Phone] = entry
}

// AddContact registers or replaces a personal contact.
func (d *Directory) AddContact(contact domain.Contact) {
	contact.Name = strings.TrimSpace(contact.Name)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts[contact.Phone] = contact
}

// Lookup finds a known account by exact phone number.
func (d *Directory) Lookup(phone string) (Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.accounts[phone]
	return entry, ok
}

// Role reports the role of the account registered under phone.
func (d *Directory) Role(phone string) (domain.Role, bool) {
	entry, ok := d.Lookup(phone)
	if !ok {
		return "", false
	}
	return entry.Role, true
}

// Resolve returns the display name for a recipient identifier. Identifiers that
// are not exactly IdentifierLength long never resolve. Known accounts win
// over personal contacts.
func (d *Directory) Resolve(identifier string) string {
	if len(identifier) != IdentifierLength {
		return ""
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if entry, ok := d.accounts[identifier]; ok {
		return entry.Name
	}
	if contact, ok := d.contacts[identifier]; ok {
		return contact.Name
	}
	return ""
}

// Contacts returns the personal contacts sorted by name.
func (d *Directory) Contacts() []domain.Contact {
	d.mu.RLock()
	out := make([]domain.Contact, 0, len(d.contacts))
	for _, c := range d.contacts {
		out = append(out, c)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
