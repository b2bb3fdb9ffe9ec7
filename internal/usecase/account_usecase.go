package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	cache       Cache
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	cache Cache,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		cache:       cache,
		metrics:     metrics,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	TenantID       string
	Name           string
	OpeningBalance decimal.Decimal
	Actor          string
}

// CreateAccount creates a new account. The first account of a tenant is
// automatically marked as the tenant's default.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.TenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		TenantID:       input.TenantID,
		Name:           input.Name,
		OpeningBalance: input.OpeningBalance,
		CurrentBalance: input.OpeningBalance,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	existing, err := uc.accountRepo.CountByTenant(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	account.IsDefault = existing == 0

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if account.IsDefault {
		uc.invalidateDefault(ctx, input.TenantID)
	}

	uc.audit(ctx, input.TenantID, input.Actor, domain.AuditActionAccountCreate, account.ID, nil, account)

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, tenantID, id)
}

// GetDefaultAccount retrieves the tenant's default account, preferring the
// cache. Every default-changing operation invalidates the cached copy.
func (uc *AccountUseCase) GetDefaultAccount(ctx context.Context, tenantID string) (*domain.Account, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, defaultAccountKey(tenantID)); err == nil {
			var account domain.Account
			if err := json.Unmarshal(data, &account); err == nil {
				return &account, nil
			}
		}
	}

	account, err := uc.accountRepo.GetDefault(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(account); err == nil {
			_ = uc.cache.Set(ctx, defaultAccountKey(tenantID), data, defaultAccountCacheTTL)
		}
	}

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	TenantID string
	Limit    int
	Offset   int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.accountRepo.List(ctx, input.TenantID, limit, offset)
}

// SetDefaultAccount transactionally clears the default flag on every other
// account of the tenant and marks the target as default.
func (uc *AccountUseCase) SetDefaultAccount(ctx context.Context, tenantID, id, actor string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, tenantID, id)
	if err != nil {
		return err
	}

	if !account.CanBeDefault() {
		return domain.ErrAccountInactive
	}

	now := time.Now().UTC()

	if err := uc.accountRepo.ClearDefault(txCtx, tx, tenantID); err != nil {
		return err
	}

	if err := uc.accountRepo.MarkDefault(txCtx, tx, tenantID, id, now); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	uc.invalidateDefault(ctx, tenantID)
	uc.audit(ctx, tenantID, actor, domain.AuditActionAccountSetDefault, id, nil, nil)

	return nil
}

// RecomputeBalance fully re-derives the account's current balance from the
// opening balance and the reconciled entry set.
func (uc *AccountUseCase) RecomputeBalance(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := recomputeAccountBalance(txCtx, tx, uc.accountRepo, uc.entryRepo, tenantID, id, uc.metrics)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return account, nil
}

// DeactivateAccount marks the account inactive. Rejected while entries
// reference it.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, tenantID, id, actor string) error {
	if err := uc.ensureUnreferenced(ctx, tenantID, id); err != nil {
		return err
	}

	if err := uc.accountRepo.SetActive(ctx, tenantID, id, false, time.Now().UTC()); err != nil {
		return err
	}

	uc.invalidateDefault(ctx, tenantID)
	uc.audit(ctx, tenantID, actor, domain.AuditActionAccountDeactivate, id, nil, nil)

	return nil
}

// DeleteAccount soft-deletes the account. Rejected while entries reference
// it; rows are never hard-deleted.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, tenantID, id, actor string) error {
	if err := uc.ensureUnreferenced(ctx, tenantID, id); err != nil {
		return err
	}

	if err := uc.accountRepo.SoftDelete(ctx, tenantID, id, time.Now().UTC()); err != nil {
		return err
	}

	uc.invalidateDefault(ctx, tenantID)
	uc.audit(ctx, tenantID, actor, domain.AuditActionAccountDelete, id, nil, nil)

	return nil
}

func (uc *AccountUseCase) ensureUnreferenced(ctx context.Context, tenantID, id string) error {
	if _, err := uc.accountRepo.GetByID(ctx, tenantID, id); err != nil {
		return err
	}

	count, err := uc.entryRepo.CountByAccount(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrAccountHasEntries
	}

	return nil
}

func defaultAccountKey(tenantID string) string {
	return "default_account:" + tenantID
}

func (uc *AccountUseCase) invalidateDefault(ctx context.Context, tenantID string) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, defaultAccountKey(tenantID))
	}
}

func (uc *AccountUseCase) audit(ctx context.Context, tenantID, actor string, action domain.AuditAction, resourceID string, before, after any) {
	if uc.auditRepo == nil {
		return
	}

	_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     tenantID,
		ActorID:      actor,
		Action:       string(action),
		ResourceType: domain.AggregateTypeAccount,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}

// recomputeAccountBalance locks the account row, sums the reconciled
// credit/debit totals and writes the derived balance back. Shared by the
// account use case and the entry lifecycle side effects.
func recomputeAccountBalance(
	ctx context.Context,
	tx Transaction,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	tenantID, accountID string,
	m *metrics.Metrics,
) (*domain.Account, error) {
	account, err := accountRepo.GetByIDForUpdate(ctx, tx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	credits, debits, err := entryRepo.ReconciledTotals(ctx, tx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	balance := account.ComputeBalance(credits, debits)
	now := time.Now().UTC()

	if err := accountRepo.UpdateBalance(ctx, tx, accountID, balance, now); err != nil {
		return nil, err
	}

	account.CurrentBalance = balance
	account.UpdatedAt = now

	if m != nil {
		m.BalanceRecomputes.Inc()
	}

	return account, nil
}
