package mocks

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

func key(tenantID, id string) string { return tenantID + "/" + id }

// MockTransaction is a mock implementation of Transaction. Commit and
// Rollback release the manager's lock exactly once.
type MockTransaction struct {
	release sync.Once
	done    func()

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.release.Do(t.done)
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	t.release.Do(t.done)
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager. A
// mutex serializes transactions the way row locks serialize them in the
// database, so concurrent-use tests see one transaction at a time.
type MockTransactionManager struct {
	mu sync.Mutex

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	return &MockTransaction{done: m.mu.Unlock}, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	counter atomic.Int64

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	return "id-" + strconv.FormatInt(m.counter.Add(1), 10)
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc           func(ctx context.Context, account *domain.Account) error
	GetByIDFunc          func(ctx context.Context, tenantID, id string) (*domain.Account, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Account, error)
	GetDefaultFunc       func(ctx context.Context, tenantID string) (*domain.Account, error)
	CountByTenantFunc    func(ctx context.Context, tenantID string) (int64, error)
	ClearDefaultFunc     func(ctx context.Context, tx usecase.Transaction, tenantID string) error
	MarkDefaultFunc      func(ctx context.Context, tx usecase.Transaction, tenantID, id string, updatedAt time.Time) error
	UpdateBalanceFunc    func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	SetActiveFunc        func(ctx context.Context, tenantID, id string, active bool, updatedAt time.Time) error
	SoftDeleteFunc       func(ctx context.Context, tenantID, id string, deletedAt time.Time) error
	ListFunc             func(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[key(account.TenantID, account.ID)] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[key(tenantID, id)]; ok && acc.DeletedAt == nil {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, tenantID, id)
	}
	return m.GetByID(ctx, tenantID, id)
}

func (m *MockAccountRepository) GetDefault(ctx context.Context, tenantID string) (*domain.Account, error) {
	if m.GetDefaultFunc != nil {
		return m.GetDefaultFunc(ctx, tenantID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.TenantID == tenantID && acc.IsDefault && acc.DeletedAt == nil {
			return acc, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	if m.CountByTenantFunc != nil {
		return m.CountByTenantFunc(ctx, tenantID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, acc := range m.accounts {
		if acc.TenantID == tenantID && acc.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (m *MockAccountRepository) ClearDefault(ctx context.Context, tx usecase.Transaction, tenantID string) error {
	if m.ClearDefaultFunc != nil {
		return m.ClearDefaultFunc(ctx, tx, tenantID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.TenantID == tenantID {
			acc.IsDefault = false
		}
	}
	return nil
}

func (m *MockAccountRepository) MarkDefault(ctx context.Context, tx usecase.Transaction, tenantID, id string, updatedAt time.Time) error {
	if m.MarkDefaultFunc != nil {
		return m.MarkDefaultFunc(ctx, tx, tenantID, id, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[key(tenantID, id)]; ok {
		acc.IsDefault = true
		acc.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrAccountNotFound
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.ID == id {
			acc.CurrentBalance = balance
			acc.UpdatedAt = updatedAt
		}
	}
	return nil
}

func (m *MockAccountRepository) SetActive(ctx context.Context, tenantID, id string, active bool, updatedAt time.Time) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, tenantID, id, active, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[key(tenantID, id)]; ok {
		acc.Active = active
		acc.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrAccountNotFound
}

func (m *MockAccountRepository) SoftDelete(ctx context.Context, tenantID, id string, deletedAt time.Time) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, tenantID, id, deletedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[key(tenantID, id)]; ok {
		acc.DeletedAt = &deletedAt
		return nil
	}
	return domain.ErrAccountNotFound
}

func (m *MockAccountRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tenantID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if acc.TenantID == tenantID && acc.DeletedAt == nil {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return paginate(accounts, limit, offset), nil
}

// MockEntryRepository is a mock implementation of EntryRepository. The
// in-memory default behavior enforces (tenant, code) uniqueness and derives
// reconciled totals from the stored entries, mirroring what the SQL layer
// does.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry
	order   []string

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	GetByIDFunc             func(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdateFunc    func(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.LedgerEntry, error)
	UpdateFunc              func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	DeleteFunc              func(ctx context.Context, tx usecase.Transaction, tenantID, id string) error
	ListFunc                func(ctx context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error)
	LatestCodeForPeriodFunc func(ctx context.Context, tx usecase.Transaction, tenantID string, entryType domain.EntryType, period domain.Period) (string, error)
	CodeExistsFunc          func(ctx context.Context, tx usecase.Transaction, tenantID, code string) (bool, error)
	CountByAccountFunc      func(ctx context.Context, tenantID, accountID string) (int64, error)
	ReconciledTotalsFunc    func(ctx context.Context, tx usecase.Transaction, tenantID, accountID string) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[string]*domain.LedgerEntry),
	}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.TenantID == entry.TenantID && e.Code == entry.Code {
			return domain.ErrDuplicateCode
		}
	}
	k := key(entry.TenantID, entry.ID)
	m.entries[k] = entry
	m.order = append(m.order, k)
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[key(tenantID, id)]; ok {
		return e, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, tenantID, id)
	}
	return m.GetByID(ctx, tenantID, id)
}

func (m *MockEntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(entry.TenantID, entry.ID)
	if _, ok := m.entries[k]; !ok {
		return domain.ErrEntryNotFound
	}
	m.entries[k] = entry
	return nil
}

func (m *MockEntryRepository) Delete(ctx context.Context, tx usecase.Transaction, tenantID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, tenantID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(tenantID, id)
	if _, ok := m.entries[k]; !ok {
		return domain.ErrEntryNotFound
	}
	delete(m.entries, k)
	return nil
}

func (m *MockEntryRepository) List(ctx context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for _, k := range m.order {
		e, ok := m.entries[k]
		if !ok || e.TenantID != filter.TenantID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.AccountID != "" {
			referenced := false
			for _, id := range e.AccountIDs() {
				if id == filter.AccountID {
					referenced = true
				}
			}
			if !referenced {
				continue
			}
		}
		entries = append(entries, e)
	}
	return paginate(entries, filter.Limit, filter.Offset), nil
}

func (m *MockEntryRepository) LatestCodeForPeriod(ctx context.Context, tx usecase.Transaction, tenantID string, entryType domain.EntryType, period domain.Period) (string, error) {
	if m.LatestCodeForPeriodFunc != nil {
		return m.LatestCodeForPeriodFunc(ctx, tx, tenantID, entryType, period)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := domain.CodePrefix(entryType) + period.String()
	latest := ""
	for _, k := range m.order {
		e, ok := m.entries[k]
		if ok && e.TenantID == tenantID && e.Type == entryType && strings.HasPrefix(e.Code, prefix) {
			latest = e.Code
		}
	}
	return latest, nil
}

func (m *MockEntryRepository) CodeExists(ctx context.Context, tx usecase.Transaction, tenantID, code string) (bool, error) {
	if m.CodeExistsFunc != nil {
		return m.CodeExistsFunc(ctx, tx, tenantID, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockEntryRepository) CountByAccount(ctx context.Context, tenantID, accountID string) (int64, error) {
	if m.CountByAccountFunc != nil {
		return m.CountByAccountFunc(ctx, tenantID, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, e := range m.entries {
		if e.TenantID != tenantID {
			continue
		}
		for _, id := range e.AccountIDs() {
			if id == accountID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (m *MockEntryRepository) ReconciledTotals(ctx context.Context, tx usecase.Transaction, tenantID, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	if m.ReconciledTotalsFunc != nil {
		return m.ReconciledTotalsFunc(ctx, tx, tenantID, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	credits, debits := decimal.Zero, decimal.Zero
	for _, e := range m.entries {
		if e.TenantID != tenantID || e.Status != domain.EntryStatusReconciled {
			continue
		}
		if e.CreditsAccount(accountID) {
			credits = credits.Add(e.Amount)
		}
		if e.DebitsAccount(accountID) {
			debits = debits.Add(e.Amount)
		}
	}
	return credits, debits, nil
}

// MockReceivableRepository is a mock implementation of ReceivableRepository.
type MockReceivableRepository struct {
	mu          sync.RWMutex
	receivables map[string]*domain.Receivable
	order       []string

	CreateFunc                func(ctx context.Context, receivable *domain.Receivable) error
	CreateTxFunc              func(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error
	GetByIDFunc               func(ctx context.Context, tenantID, id string) (*domain.Receivable, error)
	GetByIDForUpdateFunc      func(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Receivable, error)
	UpdateFunc                func(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error
	ListFunc                  func(ctx context.Context, filter usecase.ReceivableFilter) ([]*domain.Receivable, error)
	ListChildrenFunc          func(ctx context.Context, tenantID, parentID string) ([]*domain.Receivable, error)
	ListAccrualCandidatesFunc func(ctx context.Context, asOf time.Time, limit, offset int) ([]*domain.Receivable, error)
}

func NewMockReceivableRepository() *MockReceivableRepository {
	return &MockReceivableRepository{
		receivables: make(map[string]*domain.Receivable),
	}
}

func (m *MockReceivableRepository) Create(ctx context.Context, receivable *domain.Receivable) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, receivable)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(receivable.TenantID, receivable.ID)
	m.receivables[k] = receivable
	m.order = append(m.order, k)
	return nil
}

func (m *MockReceivableRepository) CreateTx(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, receivable)
	}
	return m.Create(ctx, receivable)
}

func (m *MockReceivableRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Receivable, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tenantID, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.receivables[key(tenantID, id)]; ok {
		return r, nil
	}
	return nil, domain.ErrReceivableNotFound
}

func (m *MockReceivableRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Receivable, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, tenantID, id)
	}
	return m.GetByID(ctx, tenantID, id)
}

func (m *MockReceivableRepository) Update(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, receivable)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(receivable.TenantID, receivable.ID)
	if _, ok := m.receivables[k]; !ok {
		return domain.ErrReceivableNotFound
	}
	m.receivables[k] = receivable
	return nil
}

func (m *MockReceivableRepository) List(ctx context.Context, filter usecase.ReceivableFilter) ([]*domain.Receivable, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Receivable
	for _, k := range m.order {
		r, ok := m.receivables[k]
		if !ok || r.TenantID != filter.TenantID {
			continue
		}
		if filter.CustomerID != "" && r.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (m *MockReceivableRepository) ListChildren(ctx context.Context, tenantID, parentID string) ([]*domain.Receivable, error) {
	if m.ListChildrenFunc != nil {
		return m.ListChildrenFunc(ctx, tenantID, parentID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Receivable
	for _, k := range m.order {
		r, ok := m.receivables[k]
		if ok && r.TenantID == tenantID && r.ParentReceivableID != nil && *r.ParentReceivableID == parentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReceivableRepository) ListAccrualCandidates(ctx context.Context, asOf time.Time, limit, offset int) ([]*domain.Receivable, error) {
	if m.ListAccrualCandidatesFunc != nil {
		return m.ListAccrualCandidatesFunc(ctx, asOf, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Receivable
	for _, k := range m.order {
		r, ok := m.receivables[k]
		if !ok || !r.HasInterestConfig() {
			continue
		}
		if r.Status == domain.ReceivableStatusSettled || r.Status == domain.ReceivableStatusInstallmentParent {
			continue
		}
		if r.InterestConfig.StartDate.After(asOf) {
			continue
		}
		out = append(out, r)
	}
	return paginate(out, limit, offset), nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Events[:0]
	for _, e := range m.Events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.Events = kept
	return nil
}

// EventTypes returns the event types recorded so far, in order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.EventType
	}
	return types
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog

	CreateFunc func(ctx context.Context, log *domain.AuditLog) error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.AuditLog, len(m.Logs))
	copy(out, m.Logs)
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
