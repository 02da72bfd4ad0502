package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avro07/spay/internal/directory"
	"github.com/avro07/spay/internal/domain"
	"github.com/avro07/spay/internal/flow"
	"github.com/avro07/spay/internal/wallet"
)

const defaultFlowTTL = 30 * time.Minute

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrFlowNotFound       = errors.New("flow not found")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrInvalidCredentials = errors.New("invalid phone or pin")
	ErrInvalidPhone       = errors.New("phone must be an 11-digit number starting with 01")
	ErrInvalidPIN         = errors.New("pin must be 4 digits")
	ErrNameRequired       = errors.New("name is required")
	ErrInvalidRole        = errors.New("unknown account role")
	ErrNegativeBalance    = errors.New("opening balance cannot be negative")
)

// Options configures a WalletService.
type Options struct {
	Logger       *slog.Logger
	Mirror       *Mirror
	HoldDuration time.Duration
	HoldOptions  []flow.HoldOption
	// FlowTTL bounds how long a flow stays reachable after it starts,
	// whatever its phase. Defaults to 30 minutes.
	FlowTTL time.Duration
}

// FlowHandle is a running guided flow owned by one account.
type FlowHandle struct {
	ID         string
	UserID     string
	StartedAt  time.Time
	Controller *flow.Controller
}

// WalletService owns the in-memory sessions, the recipient directory and the
// running flows, and forwards commits to the ledger mirror.
type WalletService struct {
	logger       *slog.Logger
	directory    *directory.Directory
	mirror       *Mirror
	holdDuration time.Duration
	holdOptions  []flow.HoldOption
	flowTTL      time.Duration
	nowFn        func() time.Time
	hashPIN      func(pin string) ([]byte, error)

	mu       sync.RWMutex
	sessions map[string]*wallet.Session
	byPhone  map[string]string
	flows    map[string]*FlowHandle
}

// NewWalletService constructs an empty WalletService.
func NewWalletService(opts Options) *WalletService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	flowTTL := opts.FlowTTL
	if flowTTL <= 0 {
		flowTTL = defaultFlowTTL
	}
	return &WalletService{
		logger:       logger,
		directory:    directory.New(),
		mirror:       opts.Mirror,
		holdDuration: opts.HoldDuration,
		holdOptions:  opts.HoldOptions,
		flowTTL:      flowTTL,
		nowFn:        time.Now,
		hashPIN:      wallet.HashPIN,
		sessions:     make(map[string]*wallet.Session),
		byPhone:      make(map[string]string),
		flows:        make(map[string]*FlowHandle),
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *WalletService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// WithPINHasher overrides PIN hashing, letting tests use a cheap bcrypt cost.
func (s *WalletService) WithPINHasher(fn func(pin string) ([]byte, error)) {
	if fn != nil {
		s.hashPIN = fn
	}
}

// Directory exposes the recipient directory.
func (s *WalletService) Directory() *directory.Directory { return s.directory }

// Register creates an account and lists it in the directory.
func (s *WalletService) Register(ctx context.Context, input RegisterInput) (domain.Account, error) {
	name := sanitizeString(input.Name)
	if name == "" {
		return domain.Account{}, ErrNameRequired
	}
	phone := normalizePhone(input.Phone)
	if !validPhone(phone) {
		return domain.Account{}, ErrInvalidPhone
	}
	if !validPIN(input.PIN) {
		return domain.Account{}, ErrInvalidPIN
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return domain.Account{}, ErrInvalidRole
	}
	if input.OpeningBalance.IsNegative() {
		return domain.Account{}, ErrNegativeBalance
	}

	hash, err := s.hashPIN(input.PIN)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Role:      role,
		Balance:   input.OpeningBalance,
		PINHash:   hash,
		CreatedAt: s.nowFn().UTC(),
	}

	s.mu.Lock()
	if _, exists := s.byPhone[phone]; exists {
		s.mu.Unlock()
		return domain.Account{}, fmt.Errorf("register %s: %w", phone, ErrPhoneTaken)
	}
	s.sessions[account.ID] = wallet.NewSession(account, nil)
	s.byPhone[phone] = account.ID
	s.mu.Unlock()

	s.directory.AddAccount(directory.Entry{
		AccountID: account.ID,
		Name:      account.Name,
		Phone:     account.Phone,
		Role:      account.Role,
	})
	s.mirror.EnqueueAccount(account)

	s.logger.Info("account registered", "accountId", account.ID, "role", account.Role)
	return account, nil
}

// Login checks phone and PIN.
func (s *WalletService) Login(ctx context.Context, phone, pin string) (domain.Account, error) {
	s.mu.RLock()
	id, ok := s.byPhone[normalizePhone(phone)]
	var session *wallet.Session
	if ok {
		session = s.sessions[id]
	}
	s.mu.RUnlock()

	if session == nil || !session.VerifyPIN(pin) {
		s.logger.Warn("login rejected", "phoneKnown", ok)
		return domain.Account{}, ErrInvalidCredentials
	}
	return session.Account(), nil
}

// Users lists every account sorted by name.
func (s *WalletService) Users(ctx context.Context) []domain.Account {
	s.mu.RLock()
	out := make([]domain.Account, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Account())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].Phone < out[j].Phone
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Account returns the account with id.
func (s *WalletService) Account(ctx context.Context, id string) (domain.Account, error) {
	session, err := s.session(id)
	if err != nil {
		return domain.Account{}, err
	}
	return session.Account(), nil
}

// AccountByPhone returns the account registered under phone.
func (s *WalletService) AccountByPhone(ctx context.Context, phone string) (domain.Account, error) {
	s.mu.RLock()
	id, ok := s.byPhone[normalizePhone(phone)]
	s.mu.RUnlock()
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}
	return s.Account(ctx, id)
}

// AddContact stores a personal contact used for recipient name resolution.
func (s *WalletService) AddContact(ctx context.Context, input ContactInput) error {
	name := sanitizeString(input.Name)
	if name == "" {
		return ErrNameRequired
	}
	phone := normalizePhone(input.Phone)
	if !validPhone(phone) {
		return ErrInvalidPhone
	}
	s.directory.AddContact(domain.Contact{Name: name, Phone: phone})
	return nil
}

// AddHistory appends a pre-existing record to an account without moving its balance.
func (s *WalletService) AddHistory(ctx context.Context, input HistoryInput) error {
	account, err := s.AccountByPhone(ctx, input.Phone)
	if err != nil {
		return fmt.Errorf("history for %s: %w", input.Phone, err)
	}
	if !input.Amount.IsPositive() {
		return fmt.Errorf("history for %s: %w", input.Phone, wallet.ErrNonPositiveAmount)
	}
	session, err := s.session(account.ID)
	if err != nil {
		return err
	}

	now := s.nowFn()
	tx := domain.Transaction{
		ID:           uuid.NewString(),
		Type:         input.Type,
		Amount:       input.Amount,
		Counterparty: input.Counterparty,
		Description:  input.Description,
		Timestamp:    now.Format(domain.TimestampLayout),
		CreatedAt:    now,
	}
	session.Append(tx)
	s.mirror.EnqueueTransaction(account.ID, tx)
	return nil
}

// History returns up to limit records for userID, newest first.
func (s *WalletService) History(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	session, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	return session.History(limit), nil
}

// StartFlow opens a guided flow for userID.
func (s *WalletService) StartFlow(ctx context.Context, userID string, category domain.Category) (*FlowHandle, error) {
	session, err := s.session(userID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctrl, err := s.newController(session, userID, category, s.logger.With("flowId", id, "accountId", userID))
	if err != nil {
		return nil, err
	}

	handle := &FlowHandle{
		ID:         id,
		UserID:     userID,
		StartedAt:  s.nowFn().UTC(),
		Controller: ctrl,
	}
	s.mu.Lock()
	expired := s.sweepFlowsLocked(handle.StartedAt)
	s.flows[id] = handle
	s.mu.Unlock()
	s.resetFlows(expired)

	s.logger.Debug("flow started", "flowId", id, "accountId", userID, "category", category)
	return handle, nil
}

// Flow returns a running flow. Flows past their TTL are evicted on lookup.
func (s *WalletService) Flow(id string) (*FlowHandle, error) {
	s.mu.Lock()
	handle, ok := s.flows[id]
	if ok && s.flowExpired(handle, s.nowFn().UTC()) {
		delete(s.flows, id)
		s.mu.Unlock()
		handle.Controller.Reset()
		return nil, ErrFlowNotFound
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrFlowNotFound
	}
	return handle, nil
}

// SweepFlows evicts every flow past its TTL and reports how many were removed.
func (s *WalletService) SweepFlows() int {
	s.mu.Lock()
	expired := s.sweepFlowsLocked(s.nowFn().UTC())
	s.mu.Unlock()
	s.resetFlows(expired)
	return len(expired)
}

func (s *WalletService) sweepFlowsLocked(now time.Time) []*FlowHandle {
	var expired []*FlowHandle
	for id, handle := range s.flows {
		if s.flowExpired(handle, now) {
			delete(s.flows, id)
			expired = append(expired, handle)
		}
	}
	return expired
}

func (s *WalletService) flowExpired(handle *FlowHandle, now time.Time) bool {
	return now.Sub(handle.StartedAt) > s.flowTTL
}

func (s *WalletService) resetFlows(handles []*FlowHandle) {
	for _, handle := range handles {
		handle.Controller.Reset()
		s.logger.Debug("flow expired", "flowId", handle.ID, "accountId", handle.UserID)
	}
}

// EndFlow returns the flow to the home context and forgets it.
func (s *WalletService) EndFlow(id string) error {
	s.mu.Lock()
	handle, ok := s.flows[id]
	delete(s.flows, id)
	s.mu.Unlock()
	if !ok {
		return ErrFlowNotFound
	}
	handle.Controller.Reset()
	return nil
}

// CommitDirect runs a whole transaction in one call through the same gates as a guided flow.
func (s *WalletService) CommitDirect(ctx context.Context, userID string, input DirectCommitInput) (domain.Transaction, error) {
	session, err := s.session(userID)
	if err != nil {
		return domain.Transaction{}, err
	}
	ctrl, err := s.newController(session, userID, input.Category, s.logger.With("accountId", userID, "direct", true))
	if err != nil {
		return domain.Transaction{}, err
	}

	steps := []func() error{
		func() error {
			if ctrl.Step() == flow.StepCategoryLanding {
				return ctrl.Continue()
			}
			return nil
		},
		func() error {
			if input.Provider == "" {
				return nil
			}
			return ctrl.SetProvider(input.Provider)
		},
		func() error { return ctrl.SetRecipient(input.Recipient) },
		ctrl.Next,
		func() error { return ctrl.SetAmount(input.Amount) },
		ctrl.Next,
		func() error { return ctrl.SetReference(input.Reference) },
		func() error { return ctrl.SetPIN(input.PIN) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return domain.Transaction{}, err
		}
	}
	return ctrl.Confirm()
}

// LoadSeed registers seed accounts concurrently, then contacts and history.
func (s *WalletService) LoadSeed(ctx context.Context, seed Seed, workers int) error {
	if err := NewBulkRegistrar(s, workers).RegisterAccounts(ctx, seed.Accounts); err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	for _, c := range seed.Contacts {
		if err := s.AddContact(ctx, c); err != nil {
			return fmt.Errorf("seed contact %s: %w", c.Phone, err)
		}
	}
	for _, h := range seed.History {
		if err := s.AddHistory(ctx, h); err != nil {
			return fmt.Errorf("seed history: %w", err)
		}
	}
	s.logger.Info("seed loaded", "accounts", len(seed.Accounts), "contacts", len(seed.Contacts), "history", len(seed.History))
	return nil
}

func (s *WalletService) newController(session *wallet.Session, userID string, category domain.Category, logger *slog.Logger) (*flow.Controller, error) {
	return flow.New(session, s.directory, category, flow.Options{
		Logger:       logger,
		Now:          s.nowFn,
		HoldDuration: s.holdDuration,
		HoldOptions:  s.holdOptions,
		OnCommit: func(tx domain.Transaction) {
			s.mirror.EnqueueTransaction(userID, tx)
			s.mirror.EnqueueAccount(session.Account())
		},
	})
}

func (s *WalletService) session(id string) (*wallet.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return session, nil
}
