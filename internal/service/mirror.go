package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/avro07/spay/internal/domain"
)

// LedgerMirror is an external ledger that receives copies of every account and commit.
type LedgerMirror interface {
	UpsertAccount(ctx context.Context, account domain.Account) error
	RecordTransaction(ctx context.Context, accountID string, tx domain.Transaction) error
}

type mirrorJob struct {
	account   *domain.Account
	accountID string
	tx        *domain.Transaction
}

// Mirror replicates accounts and transactions to a LedgerMirror from a pool
// of workers. It never blocks a commit: when the queue is full the job is
// dropped and logged. A nil *Mirror accepts and discards everything.
type Mirror struct {
	sink      LedgerMirror
	logger    *slog.Logger
	workers   int
	timeout   time.Duration
	jobs      chan mirrorJob
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	blocking  bool
	startOnce sync.Once
}

// NewMirror creates a Mirror with the given concurrency and queue size.
func NewMirror(sink LedgerMirror, logger *slog.Logger, workers, queueSize int) *Mirror {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Mirror{
		sink:    sink,
		logger:  logger,
		workers: workers,
		timeout: 5 * time.Second,
		jobs:    make(chan mirrorJob, queueSize),
	}
}

// WithBackpressure makes enqueueing wait for queue space instead of dropping.
func (m *Mirror) WithBackpressure() *Mirror {
	if m != nil {
		m.blocking = true
	}
	return m
}

// Start launches the workers. Jobs are processed until Close.
func (m *Mirror) Start(ctx context.Context) {
	if m == nil {
		return
	}
	m.startOnce.Do(func() {
		for i := 0; i < m.workers; i++ {
			m.wg.Add(1)
			go m.work(ctx)
		}
		m.logger.Info("ledger mirror started", "workers", m.workers)
	})
}

// EnqueueAccount schedules an account upsert. It reports whether the job was queued.
func (m *Mirror) EnqueueAccount(account domain.Account) bool {
	if m == nil {
		return false
	}
	return m.enqueue(mirrorJob{account: &account})
}

// EnqueueTransaction schedules a transaction copy for accountID.
func (m *Mirror) EnqueueTransaction(accountID string, tx domain.Transaction) bool {
	if m == nil {
		return false
	}
	return m.enqueue(mirrorJob{accountID: accountID, tx: &tx})
}

// Close stops accepting jobs and waits for queued ones to drain.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.jobs)
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Mirror) enqueue(job mirrorJob) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false
	}
	if m.blocking {
		m.jobs <- job
		return true
	}
	select {
	case m.jobs <- job:
		return true
	default:
		m.logger.Warn("ledger mirror queue full, dropping job", "accountId", job.accountID)
		return false
	}
}

func (m *Mirror) work(ctx context.Context) {
	defer m.wg.Done()
	for job := range m.jobs {
		m.process(ctx, job)
	}
}

func (m *Mirror) process(ctx context.Context, job mirrorJob) {
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	switch {
	case job.account != nil:
		if err := m.sink.UpsertAccount(jobCtx, *job.account); err != nil {
			m.logger.Error("mirror account failed", "error", err, "accountId", job.account.ID)
		}
	case job.tx != nil:
		if err := m.sink.RecordTransaction(jobCtx, job.accountID, *job.tx); err != nil {
			m.logger.Error("mirror transaction failed", "error", err, "accountId", job.accountID, "transactionId", job.tx.ID)
		}
	}
}
