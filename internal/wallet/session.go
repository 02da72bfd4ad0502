package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/avro07/spay/internal/domain"
)

var (
	// ErrInsufficientFunds is matched by every *InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNonPositiveAmount rejects zero and negative ledger movements.
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// InsufficientFundsError reports how much a debit needed against what was available.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s, have %s",
		domain.FormatAmount(e.Required), domain.FormatAmount(e.Available))
}

// Is lets errors.Is(err, ErrInsufficientFunds) match.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Direction says whether a commit takes money out of the account or puts it in.
type Direction int

const (
	Debit Direction = iota
	Credit
)

// Session owns one account and its newest-first transaction history.
// All mutation goes through its methods.
type Session struct {
	mu      sync.RWMutex
	account domain.Account
	history []domain.Transaction
}

// NewSession wraps an account. history must already be newest-first.
func NewSession(account domain.Account, history []domain.Transaction) *Session {
	return &Session{
		account: account,
		history: append([]domain.Transaction(nil), history...),
	}
}

// Account returns a copy of the account.
func (s *Session) Account() domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// Balance returns the current balance.
func (s *Session) Balance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.Balance
}

// History returns up to limit records, newest first. limit <= 0 returns all.
func (s *Session) History(limit int) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Transaction, n)
	copy(out, s.history[:n])
	return out
}

// VerifyPIN compares pin against the stored bcrypt hash.
func (s *Session) VerifyPIN(pin string) bool {
	s.mu.RLock()
	hash := s.account.PINHash
	s.mu.RUnlock()
	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(pin)) == nil
}

// Debit subtracts amount from the balance.
func (s *Session) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debitLocked(amount)
}

// Credit adds amount to the balance.
func (s *Session) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account.Balance = s.account.Balance.Add(amount)
	return nil
}

// Append puts a record at the head of the history without touching the balance.
func (s *Session) Append(tx domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prependLocked(tx)
}

// Commit applies total in the given direction and prepends tx, in one critical section.
// Nothing changes when the debit is not covered by the balance.
func (s *Session) Commit(tx domain.Transaction, dir Direction, total decimal.Decimal) error {
	if !total.IsPositive() {
		return ErrNonPositiveAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch dir {
	case Credit:
		s.account.Balance = s.account.Balance.Add(total)
	default:
		if err := s.debitLocked(total); err != nil {
			return err
		}
	}
	s.prependLocked(tx)
	return nil
}

func (s *Session) debitLocked(amount decimal.Decimal) error {
	if amount.GreaterThan(s.account.Balance) {
		return &InsufficientFundsError{Required: amount, Available: s.account.Balance}
	}
	s.account.Balance = s.account.Balance.Sub(amount)
	return nil
}

func (s *Session) prependLocked(tx domain.Transaction) {
	s.history = append(s.history, domain.Transaction{})
	copy(s.history[1:], s.history)
	s.history[0] = tx
}

// HashPIN produces the bcrypt hash stored on an account.
func HashPIN(pin string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}
	return hash, nil
}
