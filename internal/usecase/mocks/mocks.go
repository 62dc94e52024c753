package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
)

// stage defers a write until tx commits. Writes outside a MockTransaction
// apply immediately.
func stage(tx usecase.Transaction, f func()) {
	if mtx, ok := tx.(*MockTransaction); ok {
		mtx.Stage(f)
		return
	}
	f()
}

// lockRow emulates SELECT ... FOR UPDATE: the row mutex is held until tx ends.
func lockRow(tx usecase.Transaction, mu *sync.Mutex) {
	mtx, ok := tx.(*MockTransaction)
	if !ok {
		return
	}
	mtx.lock(mu)
}

type rowLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (r *rowLocks) get(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = make(map[string]*sync.Mutex)
	}
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// MockLoanRepository is an in-memory LoanRepository with row locking.
type MockLoanRepository struct {
	mu    sync.RWMutex
	loans map[string]domain.Loan
	rows  rowLocks

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
}

func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		loans: make(map[string]domain.Loan),
	}
}

// Put stores loan directly, bypassing transactions.
func (m *MockLoanRepository) Put(loan *domain.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = *loan
}

func (m *MockLoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, loan)
	}
	stored := *loan
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.loans[stored.ID] = stored
	})
	return nil
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if loan, ok := m.loans[id]; ok {
		return &loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	if _, err := m.GetByID(ctx, id); err != nil {
		return nil, err
	}
	lockRow(tx, m.rows.get(id))
	return m.GetByID(ctx, id)
}

func (m *MockLoanRepository) Update(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, loan)
	}
	m.mu.RLock()
	current, ok := m.loans[loan.ID]
	m.mu.RUnlock()
	if !ok {
		return domain.ErrLoanNotFound
	}
	if current.Version != loan.Version {
		return domain.ErrConcurrentModification
	}

	loan.Version++
	stored := *loan
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.loans[stored.ID] = stored
	})
	return nil
}

func (m *MockLoanRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*domain.Loan, error) {
	return m.list(func(l domain.Loan) bool { return l.CustomerID == customerID }, limit, offset), nil
}

func (m *MockLoanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error) {
	return m.list(func(l domain.Loan) bool { return l.Status == status }, limit, offset), nil
}

func (m *MockLoanRepository) list(match func(domain.Loan) bool, limit, offset int) []*domain.Loan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var loans []*domain.Loan
	for _, l := range m.loans {
		if match(l) {
			loan := l
			loans = append(loans, &loan)
		}
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	if offset >= len(loans) {
		return nil
	}
	loans = loans[offset:]
	if limit < len(loans) {
		loans = loans[:limit]
	}
	return loans
}

// MockScheduleRepository is an in-memory ScheduleRepository.
type MockScheduleRepository struct {
	mu      sync.RWMutex
	entries map[string][]domain.ScheduleEntry

	CreateBatchFunc  func(ctx context.Context, tx usecase.Transaction, entries []domain.ScheduleEntry) error
	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, entry domain.ScheduleEntry) error
}

func NewMockScheduleRepository() *MockScheduleRepository {
	return &MockScheduleRepository{
		entries: make(map[string][]domain.ScheduleEntry),
	}
}

func (m *MockScheduleRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, entries []domain.ScheduleEntry) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, entries)
	}
	batch := append([]domain.ScheduleEntry(nil), entries...)
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, e := range batch {
			m.entries[e.LoanID] = append(m.entries[e.LoanID], e)
		}
	})
	return nil
}

func (m *MockScheduleRepository) ListByLoan(ctx context.Context, loanID string) ([]domain.ScheduleEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := append([]domain.ScheduleEntry(nil), m.entries[loanID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].SequenceNumber < entries[j].SequenceNumber })
	return entries, nil
}

func (m *MockScheduleRepository) ListByLoanTx(ctx context.Context, tx usecase.Transaction, loanID string) ([]domain.ScheduleEntry, error) {
	return m.ListByLoan(ctx, loanID)
}

func (m *MockScheduleRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, entry domain.ScheduleEntry) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, entry)
	}
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, e := range m.entries[entry.LoanID] {
			if e.ID == entry.ID {
				m.entries[entry.LoanID][i].Status = entry.Status
				m.entries[entry.LoanID][i].PaidAt = entry.PaidAt
			}
		}
	})
	return nil
}

// MockPaymentRepository is an in-memory PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments []domain.Payment

	CreateFunc                 func(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error
	ExistsByIdempotencyKeyFunc func(ctx context.Context, tx usecase.Transaction, loanID, key string) (bool, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, payment)
	}
	stored := *payment
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.payments = append(m.payments, stored)
	})
	return nil
}

func (m *MockPaymentRepository) ExistsByIdempotencyKey(ctx context.Context, tx usecase.Transaction, loanID, key string) (bool, error) {
	if m.ExistsByIdempotencyKeyFunc != nil {
		return m.ExistsByIdempotencyKeyFunc(ctx, tx, loanID, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.LoanID == loanID && p.IdempotencyKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockPaymentRepository) ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var payments []*domain.Payment
	for _, p := range m.payments {
		if p.LoanID == loanID {
			payment := p
			payments = append(payments, &payment)
		}
	}
	if offset >= len(payments) {
		return nil, nil
	}
	payments = payments[offset:]
	if limit < len(payments) {
		payments = payments[:limit]
	}
	return payments, nil
}

// MockLedger is an in-memory Ledger over deposit accounts.
type MockLedger struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	defaults map[string]string
	entries  []domain.Entry
	rows     rowLocks

	CreditFunc           func(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, memo string) (string, error)
	DebitFunc            func(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, memo string) (string, error)
	AvailableBalanceFunc func(ctx context.Context, tx usecase.Transaction, accountID string) (decimal.Decimal, error)
	DefaultAccountFunc   func(ctx context.Context, tx usecase.Transaction, customerID string) (string, error)
	AccountOwnerFunc     func(ctx context.Context, tx usecase.Transaction, accountID string) (string, error)
}

func NewMockLedger() *MockLedger {
	return &MockLedger{
		accounts: make(map[string]domain.Account),
		defaults: make(map[string]string),
	}
}

// AddAccount registers an account. The first savings account of a customer
// becomes its default.
func (m *MockLedger) AddAccount(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = *account
	if _, ok := m.defaults[account.CustomerID]; !ok && account.Type == domain.AccountTypeSavings {
		m.defaults[account.CustomerID] = account.ID
	}
}

// Balance returns the committed balance of an account.
func (m *MockLedger) Balance(accountID string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[accountID].Balance
}

// Entries returns the committed ledger movements.
func (m *MockLedger) Entries() []domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Entry(nil), m.entries...)
}

func (m *MockLedger) Credit(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, memo string) (string, error) {
	if m.CreditFunc != nil {
		return m.CreditFunc(ctx, tx, accountID, amount, memo)
	}
	return m.move(tx, accountID, amount, domain.EntryTypeLoanDisbursement, memo)
}

func (m *MockLedger) Debit(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, memo string) (string, error) {
	if m.DebitFunc != nil {
		return m.DebitFunc(ctx, tx, accountID, amount, memo)
	}
	return m.move(tx, accountID, amount.Neg(), domain.EntryTypeLoanPayment, memo)
}

func (m *MockLedger) move(tx usecase.Transaction, accountID string, amount decimal.Decimal, entryType domain.EntryType, memo string) (string, error) {
	lockRow(tx, m.rows.get(accountID))

	m.mu.RLock()
	account, ok := m.accounts[accountID]
	ref := fmt.Sprintf("entry-%d", len(m.entries)+1)
	m.mu.RUnlock()
	if !ok {
		return "", domain.ErrAccountNotFound
	}

	if amount.IsNegative() {
		if err := account.ValidateDebit(amount.Neg()); err != nil {
			return "", err
		}
	}

	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		acc := m.accounts[accountID]
		entry := domain.Entry{
			ID:                     ref,
			AccountID:              accountID,
			Type:                   entryType,
			Memo:                   memo,
			Amount:                 amount,
			AccountPreviousBalance: acc.Balance,
			AccountCurrentBalance:  acc.Balance.Add(amount),
			AccountVersion:         acc.Version + 1,
			CreatedAt:              time.Now().UTC(),
		}
		acc.Balance = entry.AccountCurrentBalance
		acc.Version++
		m.accounts[accountID] = acc
		m.entries = append(m.entries, entry)
	})

	return ref, nil
}

func (m *MockLedger) AvailableBalance(ctx context.Context, tx usecase.Transaction, accountID string) (decimal.Decimal, error) {
	if m.AvailableBalanceFunc != nil {
		return m.AvailableBalanceFunc(ctx, tx, accountID)
	}
	lockRow(tx, m.rows.get(accountID))

	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	if account.AllowNegativeBalance {
		return decimal.NewFromInt(1_000_000_000), nil
	}
	return account.Balance, nil
}

func (m *MockLedger) DefaultAccount(ctx context.Context, tx usecase.Transaction, customerID string) (string, error) {
	if m.DefaultAccountFunc != nil {
		return m.DefaultAccountFunc(ctx, tx, customerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.defaults[customerID]; ok {
		return id, nil
	}
	return "", domain.ErrNoDefaultAccount
}

func (m *MockLedger) AccountOwner(ctx context.Context, tx usecase.Transaction, accountID string) (string, error) {
	if m.AccountOwnerFunc != nil {
		return m.AccountOwnerFunc(ctx, tx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return "", domain.ErrAccountNotFound
	}
	return account.CustomerID, nil
}

// MockOutboxRepository is an in-memory OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// EventTypes returns the committed event types in order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType)
	}
	return types
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.events = append(m.events, event)
	})
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published && len(events) < limit {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if !e.Published || e.PublishedAt.After(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu           sync.Mutex
	transactions []*MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{}
	m.mu.Lock()
	m.transactions = append(m.transactions, tx)
	m.mu.Unlock()
	return tx, nil
}

// Last returns the most recently begun transaction.
func (m *MockTransactionManager) Last() *MockTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.transactions) == 0 {
		return nil
	}
	return m.transactions[len(m.transactions)-1]
}

// MockTransaction is a mock implementation of Transaction. Writes staged by
// the in-memory repositories apply on Commit and are dropped on Rollback.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	mu         sync.Mutex
	pending    []func()
	onFinish   []func()
	held       map[*sync.Mutex]bool
	done       bool
	Committed  bool
	RolledBack bool
}

// lock acquires row once per transaction and releases it when tx ends.
func (m *MockTransaction) lock(row *sync.Mutex) {
	m.mu.Lock()
	if m.held[row] {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	row.Lock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = make(map[*sync.Mutex]bool)
	}
	m.held[row] = true
	m.onFinish = append(m.onFinish, row.Unlock)
}

// Stage queues a write for Commit.
func (m *MockTransaction) Stage(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, f)
}

// OnFinish registers f to run once the transaction commits or rolls back.
func (m *MockTransaction) OnFinish(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinish = append(m.onFinish, f)
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.finish(true)
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done {
		return nil
	}
	if m.RollbackFunc != nil {
		if err := m.RollbackFunc(ctx); err != nil {
			return err
		}
	}
	m.finish(false)
	return nil
}

func (m *MockTransaction) finish(commit bool) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	pending, release := m.pending, m.onFinish
	m.pending, m.onFinish = nil, nil
	if commit {
		m.Committed = true
	} else {
		m.RolledBack = true
	}
	m.mu.Unlock()

	if commit {
		for _, f := range pending {
			f()
		}
	}
	for i := len(release) - 1; i >= 0; i-- {
		release[i]()
	}
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Value returns the stored value for key.
func (m *MockIdempotencyStore) Value(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}
