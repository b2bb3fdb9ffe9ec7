package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Account, error)
	GetDefault(ctx context.Context, tenantID string) (*domain.Account, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
	ClearDefault(ctx context.Context, tx Transaction, tenantID string) error
	MarkDefault(ctx context.Context, tx Transaction, tenantID, id string, updatedAt time.Time) error
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	SetActive(ctx context.Context, tenantID, id string, active bool, updatedAt time.Time) error
	SoftDelete(ctx context.Context, tenantID, id string, deletedAt time.Time) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error)
}

// EntryFilter narrows entry listings.
type EntryFilter struct {
	TenantID  string
	AccountID string
	Status    domain.EntryStatus
	Type      domain.EntryType
	Limit     int
	Offset    int
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	// Create inserts an entry; a code collision surfaces domain.ErrDuplicateCode.
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.LedgerEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	Delete(ctx context.Context, tx Transaction, tenantID, id string) error
	List(ctx context.Context, filter EntryFilter) ([]*domain.LedgerEntry, error)
	// LatestCodeForPeriod row-locks and returns the code of the most recently
	// created entry of the tenant/type/period, or "" when the period is empty.
	LatestCodeForPeriod(ctx context.Context, tx Transaction, tenantID string, entryType domain.EntryType, period domain.Period) (string, error)
	CodeExists(ctx context.Context, tx Transaction, tenantID, code string) (bool, error)
	CountByAccount(ctx context.Context, tenantID, accountID string) (int64, error)
	// ReconciledTotals sums the reconciled credits and debits referencing the
	// account. Cancelled and pending entries never contribute.
	ReconciledTotals(ctx context.Context, tx Transaction, tenantID, accountID string) (credits, debits decimal.Decimal, err error)
}

// ReceivableFilter narrows receivable listings.
type ReceivableFilter struct {
	TenantID   string
	CustomerID string
	Status     domain.ReceivableStatus
	Limit      int
	Offset     int
}

// ReceivableRepository defines data access for receivables.
type ReceivableRepository interface {
	Create(ctx context.Context, receivable *domain.Receivable) error
	CreateTx(ctx context.Context, tx Transaction, receivable *domain.Receivable) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Receivable, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, tenantID, id string) (*domain.Receivable, error)
	Update(ctx context.Context, tx Transaction, receivable *domain.Receivable) error
	List(ctx context.Context, filter ReceivableFilter) ([]*domain.Receivable, error)
	ListChildren(ctx context.Context, tenantID, parentID string) ([]*domain.Receivable, error)
	// ListAccrualCandidates returns non-terminal receivables carrying an
	// interest config whose start date is not after asOf. The fine-grained
	// per-frequency due check stays in the domain.
	ListAccrualCandidates(ctx context.Context, asOf time.Time, limit, offset int) ([]*domain.Receivable, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// TxRetrier re-runs a transaction attempt that failed with a transient
// storage error (deadlock, serialization failure).
type TxRetrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
