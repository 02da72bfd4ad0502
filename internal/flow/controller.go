package flow

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/directory"
	"github.com/avro07/spay/internal/domain"
	"github.com/avro07/spay/internal/wallet"
)

// Step is the form cursor.
type Step int

const (
	StepCategoryLanding Step = 0
	StepRecipient       Step = 1
	StepAmount          Step = 2
	StepReview          Step = 3
)

// Phase is the lifecycle of a flow around the step cursor.
type Phase string

const (
	PhaseActive  Phase = "active"
	PhaseSuccess Phase = "success"
	PhaseExited  Phase = "exited"
)

// Ledger is the session state a flow commits against.
type Ledger interface {
	Balance() decimal.Decimal
	VerifyPIN(pin string) bool
	Commit(tx domain.Transaction, dir wallet.Direction, total decimal.Decimal) error
}

// Directory resolves recipients for display and business rules.
type Directory interface {
	Resolve(identifier string) string
	Role(phone string) (domain.Role, bool)
}

// Draft is the uncommitted form state.
type Draft struct {
	Recipient string          `json:"recipient"`
	Amount    string          `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	PIN       string          `json:"-"`
	Provider  domain.Provider `json:"provider,omitempty"`
}

// Options tune a Controller. Zero values pick defaults.
type Options struct {
	Logger       *slog.Logger
	Now          func() time.Time
	NewID        func() string
	HoldDuration time.Duration
	HoldOptions  []HoldOption
	// OnCommit runs after every successful commit, outside the controller lock.
	OnCommit func(domain.Transaction)
}

// Controller drives one guided transaction over a Ledger.
type Controller struct {
	ledger    Ledger
	directory Directory
	rule      Rule
	logger    *slog.Logger
	nowFn     func() time.Time
	newID     func() string
	onCommit  func(domain.Transaction)
	hold      *Hold

	mu           sync.Mutex
	step         Step
	phase        Phase
	draft        Draft
	resolvedName string
	receipt      *domain.Transaction
	holdErr      error
}

// New starts a flow for category. Pay-bill opens on its landing step, every
// other category on recipient entry.
func New(ledger Ledger, dir Directory, category domain.Category, opts Options) (*Controller, error) {
	rule, ok := RuleFor(category)
	if !ok || !rule.Startable {
		return nil, ErrUnsupportedCategory
	}

	c := &Controller{
		ledger:    ledger,
		directory: dir,
		rule:      rule,
		logger:    opts.Logger,
		nowFn:     opts.Now,
		newID:     opts.NewID,
		onCommit:  opts.OnCommit,
		phase:     PhaseActive,
		step:      StepRecipient,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.nowFn == nil {
		c.nowFn = time.Now
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.NewString() }
	}
	if rule.HasLanding {
		c.step = StepCategoryLanding
	}
	if rule.Category == domain.CategoryMFSTransfer {
		c.draft.Provider = domain.ProviderBkash
	}
	c.hold = NewHold(opts.HoldDuration, c.completeHold, opts.HoldOptions...)
	return c, nil
}

// Rule returns the category rule driving this flow.
func (c *Controller) Rule() Rule { return c.rule }

// Step returns the current cursor.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Phase returns the lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// SetRecipient stores the recipient identifier and re-resolves its display name.
// It is only accepted on the recipient step.
func (c *Controller) SetRecipient(identifier string) error {
	identifier = strings.TrimSpace(identifier)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrFlowClosed
	}
	if c.step != StepRecipient {
		return ErrWrongStep
	}
	c.draft.Recipient = identifier
	c.resolvedName = c.directory.Resolve(identifier)
	return nil
}

// SetAmount stores the raw amount text. It is validated when leaving the amount step.
func (c *Controller) SetAmount(amount string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrFlowClosed
	}
	c.draft.Amount = strings.TrimSpace(amount)
	return nil
}

// SelectPreset overwrites the amount with one of Presets.
func (c *Controller) SelectPreset(value int64) error {
	for _, p := range Presets {
		if p == value {
			return c.SetAmount(decimal.NewFromInt(value).String())
		}
	}
	return ErrInvalidPreset
}

// SetReference stores the optional free-text reference.
func (c *Controller) SetReference(reference string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrFlowClosed
	}
	c.draft.Reference = strings.TrimSpace(reference)
	return nil
}

// SetPIN stores the PIN entered on the review step.
func (c *Controller) SetPIN(pin string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrFlowClosed
	}
	c.draft.PIN = pin
	return nil
}

// SetProvider selects the MFS provider.
func (c *Controller) SetProvider(name string) error {
	if c.rule.Category != domain.CategoryMFSTransfer {
		return ErrProviderNotAllowed
	}
	provider, ok := domain.ParseProvider(name)
	if !ok {
		return ErrInvalidProvider
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrFlowClosed
	}
	c.draft.Provider = provider
	return nil
}

// Continue leaves the category landing step.
func (c *Controller) Continue() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrFlowClosed
	}
	if c.step != StepCategoryLanding {
		return ErrWrongStep
	}
	c.step = StepRecipient
	return nil
}

// Next advances one step once the current step's gate passes.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrFlowClosed
	}

	switch c.step {
	case StepRecipient:
		if err := c.checkRecipientLocked(); err != nil {
			return err
		}
		c.step = StepAmount
	case StepAmount:
		if _, err := c.parseAmountLocked(); err != nil {
			return err
		}
		c.step = StepReview
	default:
		return ErrWrongStep
	}
	return nil
}

// Back moves one step back. Leaving the first step exits the flow and
// discards the draft, except pay-bill which returns to its landing step.
// It reports whether the flow is still active.
func (c *Controller) Back() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return false, ErrFlowClosed
	}
	if c.hold.Active() {
		c.hold.Release()
	}

	switch c.step {
	case StepReview, StepAmount:
		c.step--
	case StepRecipient:
		if c.rule.HasLanding {
			c.step = StepCategoryLanding
			return true, nil
		}
		c.exitLocked()
		return false, nil
	default:
		c.exitLocked()
		return false, nil
	}
	return true, nil
}

// Reset returns to the home context, discarding the draft.
func (c *Controller) Reset() {
	c.hold.Release()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exitLocked()
}

// Quote returns the fee breakdown for the current amount.
func (c *Controller) Quote() (Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	amount, err := c.parseAmountLocked()
	if err != nil {
		return Quote{}, err
	}
	return c.rule.Quote(amount), nil
}

// View is a render snapshot of the flow.
type View struct {
	Category      domain.Category     `json:"category"`
	Title         string              `json:"title"`
	Step          Step                `json:"step"`
	Phase         Phase               `json:"phase"`
	Draft         Draft               `json:"draft"`
	PINEntered    bool                `json:"pinEntered"`
	RecipientName string              `json:"recipientName,omitempty"`
	Quote         *Quote              `json:"quote,omitempty"`
	Balance       decimal.Decimal     `json:"balance"`
	HoldProgress  float64             `json:"holdProgress"`
	Receipt       *domain.Transaction `json:"receipt,omitempty"`
}

// View returns the current snapshot. Quote is nil while the amount is not acceptable.
func (c *Controller) View() View {
	progress := c.hold.Progress()
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Category:      c.rule.Category,
		Title:         c.rule.Title,
		Step:          c.step,
		Phase:         c.phase,
		Draft:         c.draft,
		PINEntered:    c.draft.PIN != "",
		RecipientName: c.resolvedName,
		Balance:       c.ledger.Balance(),
		HoldProgress:  progress,
		Receipt:       c.receipt,
	}
	if amount, err := c.parseAmountLocked(); err == nil {
		q := c.rule.Quote(amount)
		v.Quote = &q
	}
	return v
}

// Confirm verifies the PIN and commits the draft. Only valid on the review step.
func (c *Controller) Confirm() (domain.Transaction, error) {
	c.mu.Lock()
	tx, err := c.confirmLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("transaction rejected",
			"category", c.rule.Category,
			"kind", KindOf(err),
			"error", err,
		)
		return domain.Transaction{}, err
	}

	c.logger.Info("transaction committed",
		"id", tx.ID,
		"category", c.rule.Category,
		"amount", domain.FormatAmount(tx.Amount),
		"fee", domain.FormatAmount(tx.FeeOrZero()),
	)
	if c.onCommit != nil {
		c.onCommit(tx)
	}
	return tx, nil
}

// HoldToConfirm presses the confirm control and blocks until it completes
// (and the commit runs) or ctx ends, which releases it without committing.
func (c *Controller) HoldToConfirm(ctx context.Context) (domain.Transaction, error) {
	c.mu.Lock()
	if c.phase != PhaseActive {
		c.mu.Unlock()
		return domain.Transaction{}, ErrFlowClosed
	}
	if c.step != StepReview {
		c.mu.Unlock()
		return domain.Transaction{}, ErrWrongStep
	}
	c.holdErr = nil
	c.mu.Unlock()

	if !c.hold.Await(ctx) {
		return domain.Transaction{}, ErrHoldReleased
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holdErr != nil {
		return domain.Transaction{}, c.holdErr
	}
	if c.receipt == nil {
		return domain.Transaction{}, ErrFlowClosed
	}
	return *c.receipt, nil
}

// ReleaseHold cancels an in-progress hold. It reports whether one was active.
func (c *Controller) ReleaseHold() bool {
	return c.hold.Release()
}

func (c *Controller) completeHold() {
	_, err := c.Confirm()
	c.mu.Lock()
	c.holdErr = err
	c.mu.Unlock()
}

func (c *Controller) confirmLocked() (domain.Transaction, error) {
	if c.phase != PhaseActive {
		return domain.Transaction{}, ErrFlowClosed
	}
	if c.step != StepReview {
		return domain.Transaction{}, ErrWrongStep
	}
	if err := c.checkRecipientLocked(); err != nil {
		return domain.Transaction{}, err
	}
	if !validPIN(c.draft.PIN) {
		return domain.Transaction{}, ErrPINFormat
	}
	if !c.ledger.VerifyPIN(c.draft.PIN) {
		c.draft.PIN = ""
		return domain.Transaction{}, ErrWrongPIN
	}

	// Recompute from the draft at commit time; displayed quotes may be stale.
	amount, err := c.parseAmountLocked()
	if err != nil {
		return domain.Transaction{}, err
	}
	quote := c.rule.Quote(amount)

	now := c.nowFn()
	tx := domain.Transaction{
		ID:           c.newID(),
		Type:         c.rule.Type,
		Amount:       amount,
		Counterparty: c.counterpartyLocked(),
		Description:  c.descriptionLocked(),
		Timestamp:    now.Format(domain.TimestampLayout),
		CreatedAt:    now,
	}
	if !quote.Fee.IsZero() {
		fee := quote.Fee
		tx.Fee = &fee
	}

	dir := wallet.Debit
	if quote.Credit {
		dir = wallet.Credit
	}
	if err := c.ledger.Commit(tx, dir, quote.Total); err != nil {
		return domain.Transaction{}, err
	}

	c.phase = PhaseSuccess
	c.receipt = &tx
	return tx, nil
}

func (c *Controller) checkRecipientLocked() error {
	recipient := c.draft.Recipient
	if c.rule.StrictRecipient {
		if len(recipient) != directory.IdentifierLength {
			return ErrInvalidRecipient
		}
	} else if recipient == "" {
		return ErrRecipientRequired
	}

	if c.rule.Category == domain.CategorySendMoney {
		if role, ok := c.directory.Role(recipient); ok && role == domain.RoleAgent {
			return ErrAgentRecipient
		}
	}
	return nil
}

func (c *Controller) parseAmountLocked() (decimal.Decimal, error) {
	amount, err := domain.ParseAmount(c.draft.Amount)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.LessThan(MinimumAmount) {
		return decimal.Zero, ErrAmountBelowMinimum
	}
	return amount, nil
}

func (c *Controller) counterpartyLocked() string {
	if c.resolvedName != "" {
		return c.resolvedName
	}
	return c.draft.Recipient
}

func (c *Controller) descriptionLocked() string {
	if c.rule.Category == domain.CategoryMFSTransfer {
		return string(c.draft.Provider) + " " + c.rule.Label
	}
	if c.draft.Reference != "" {
		return c.draft.Reference
	}
	return c.rule.Title
}

func (c *Controller) exitLocked() {
	c.phase = PhaseExited
	c.draft = Draft{}
	c.resolvedName = ""
}

func validPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
