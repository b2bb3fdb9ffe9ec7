package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/infrastructure/metrics"
)

// EntryUseCase handles ledger entry lifecycle and code generation.
type EntryUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	retrier     TxRetrier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewEntryUseCase creates a new EntryUseCase. A nil retrier disables
// transient-failure retries.
func NewEntryUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier TxRetrier,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *EntryUseCase {
	return &EntryUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
		logger:      logger,
	}
}

// retry runs one transaction attempt through the configured retrier so a
// deadlock or serialization failure re-runs the whole attempt.
func (uc *EntryUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

// CreateEntryInput represents input for creating a ledger entry.
type CreateEntryInput struct {
	TenantID             string
	Type                 domain.EntryType
	Amount               decimal.Decimal
	OperationDate        time.Time
	SourceAccountID      string
	DestinationAccountID *string
	CategoryID           string
	CategoryName         string
	Metadata             map[string]any
	Reconciled           bool
	Actor                string
}

// CreateEntry validates the input, assigns a collision-free code and inserts
// the entry, recomputing the balance of every referenced account. Code
// assignment, insert and recomputation share one transaction; nothing is
// persisted on failure.
func (uc *EntryUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.LedgerEntry, error) {
	if input.TenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	now := time.Now().UTC()

	opDate := input.OperationDate
	if opDate.IsZero() {
		opDate = now
	}

	entry := &domain.LedgerEntry{
		ID:                   uc.idGen.Generate(),
		TenantID:             input.TenantID,
		Type:                 input.Type,
		Amount:               input.Amount,
		OperationDate:        opDate,
		Status:               domain.EntryStatusPending,
		SourceAccountID:      input.SourceAccountID,
		DestinationAccountID: input.DestinationAccountID,
		CategoryID:           input.CategoryID,
		CategoryName:         input.CategoryName,
		CreatedBy:            input.Actor,
		Metadata:             input.Metadata,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if input.Reconciled {
		entry.Status = domain.EntryStatusReconciled
		entry.ReconciliationDate = &opDate
	}

	// Fall back to the tenant's default account when none is given.
	if entry.SourceAccountID == "" {
		def, err := uc.accountRepo.GetDefault(ctx, input.TenantID)
		if err != nil {
			return nil, err
		}
		entry.SourceAccountID = def.ID
	} else if _, err := uc.accountRepo.GetByID(ctx, input.TenantID, entry.SourceAccountID); err != nil {
		return nil, err
	}

	if entry.IsTransfer() && entry.DestinationAccountID != nil && *entry.DestinationAccountID != "" {
		if _, err := uc.accountRepo.GetByID(ctx, input.TenantID, *entry.DestinationAccountID); err != nil {
			return nil, err
		}
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.insertWithCode(ctx, entry); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.WithLabelValues(string(entry.Type)).Inc()
	}

	return entry, nil
}

// insertWithCode runs the full code-generation procedure, retrying the whole
// transaction on residual unique violations with randomized backoff. The
// numbering trades strict sequences for availability under contention:
// gaps are acceptable, reuse is not.
func (uc *EntryUseCase) insertWithCode(ctx context.Context, entry *domain.LedgerEntry) error {
	attempt := 0

	operation := func() error {
		err := uc.retry(ctx, func() error {
			return uc.createAttempt(ctx, entry, attempt)
		})
		attempt++

		if err == nil {
			return nil
		}

		if errors.Is(err, domain.ErrDuplicateCode) {
			if uc.metrics != nil {
				uc.metrics.CodeRetries.Inc()
			}
			uc.logger.Warn().
				Str("tenant_id", entry.TenantID).
				Str("type", string(entry.Type)).
				Int("attempt", attempt).
				Msg("entry code collision, retrying")

			return err
		}

		return backoff.Permanent(err)
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(newCodeBackOff(), maxCodeAttempts-1), ctx))

	if errors.Is(err, domain.ErrDuplicateCode) {
		if uc.metrics != nil {
			uc.metrics.CodeExhaustions.Inc()
		}

		return domain.ErrCodeSpaceExhausted
	}

	return err
}

// createAttempt is one full attempt: lock the latest same-period entry,
// derive the next sequence, probe for collisions, insert, recompute.
func (uc *EntryUseCase) createAttempt(ctx context.Context, entry *domain.LedgerEntry, attempt int) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	period := domain.PeriodOf(entry.OperationDate)

	lastCode, err := uc.entryRepo.LatestCodeForPeriod(txCtx, tx, entry.TenantID, entry.Type, period)
	if err != nil {
		return err
	}

	seq := domain.NextSequence(domain.CodeSequence(lastCode))
	if attempt > 0 {
		// Racing transactions both derived the same next sequence; spread
		// them apart with a sub-second time component.
		seq = domain.SaltSequence(seq, time.Now())
	}

	entry.Code = ""
	for probe := 0; probe < maxCollisionProbes; probe++ {
		candidate := domain.FormatCode(entry.Type, period, seq)

		exists, err := uc.entryRepo.CodeExists(txCtx, tx, entry.TenantID, candidate)
		if err != nil {
			return err
		}
		if !exists {
			entry.Code = candidate
			break
		}

		seq = domain.NextSequence(seq)
	}

	if entry.Code == "" {
		return domain.ErrDuplicateCode
	}

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return err
	}

	if err := uc.emitEvent(txCtx, tx, entry, domain.EventTypeEntryCreated, nil); err != nil {
		return err
	}

	uc.auditTx(txCtx, tx, entry, domain.AuditActionEntryCreate, nil)

	if err := uc.recomputeAccounts(txCtx, tx, entry.TenantID, entry.AccountIDs()); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// UpdateEntryInput represents input for updating a ledger entry. Nil fields
// are left unchanged.
type UpdateEntryInput struct {
	TenantID             string
	ID                   string
	Amount               *decimal.Decimal
	OperationDate        *time.Time
	SourceAccountID      *string
	DestinationAccountID *string
	CategoryID           *string
	CategoryName         *string
	Metadata             map[string]any
	Actor                string
}

// UpdateEntry edits a non-cancelled entry and recomputes the balances of
// every account referenced before or after the change.
func (uc *EntryUseCase) UpdateEntry(ctx context.Context, input UpdateEntryInput) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry

	err := uc.retry(ctx, func() error {
		var err error
		entry, err = uc.updateAttempt(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *EntryUseCase) updateAttempt(ctx context.Context, input UpdateEntryInput) (*domain.LedgerEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}

	if !entry.CanEdit() {
		return nil, domain.ErrEntryCancelled
	}

	before := *entry
	affected := entry.AccountIDs()

	if input.Amount != nil {
		entry.Amount = *input.Amount
	}
	if input.OperationDate != nil {
		entry.OperationDate = *input.OperationDate
	}
	if input.SourceAccountID != nil {
		if _, err := uc.accountRepo.GetByID(txCtx, input.TenantID, *input.SourceAccountID); err != nil {
			return nil, err
		}
		entry.SourceAccountID = *input.SourceAccountID
	}
	if input.DestinationAccountID != nil {
		if *input.DestinationAccountID == "" {
			entry.DestinationAccountID = nil
		} else {
			if _, err := uc.accountRepo.GetByID(txCtx, input.TenantID, *input.DestinationAccountID); err != nil {
				return nil, err
			}
			entry.DestinationAccountID = input.DestinationAccountID
		}
	}
	if input.CategoryID != nil {
		entry.CategoryID = *input.CategoryID
	}
	if input.CategoryName != nil {
		entry.CategoryName = *input.CategoryName
	}
	if input.Metadata != nil {
		entry.Metadata = input.Metadata
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Update(txCtx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.emitEvent(txCtx, tx, entry, domain.EventTypeEntryUpdated, nil); err != nil {
		return nil, err
	}

	uc.auditTx(txCtx, tx, entry, domain.AuditActionEntryUpdate, &before)

	affected = unionAccountIDs(affected, entry.AccountIDs())
	if err := uc.recomputeAccounts(txCtx, tx, input.TenantID, affected); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// DeleteEntry removes a non-cancelled entry and recomputes the balances it
// contributed to.
func (uc *EntryUseCase) DeleteEntry(ctx context.Context, tenantID, id, actor string) error {
	return uc.retry(ctx, func() error {
		return uc.deleteAttempt(ctx, tenantID, id, actor)
	})
}

func (uc *EntryUseCase) deleteAttempt(ctx context.Context, tenantID, id, actor string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, tenantID, id)
	if err != nil {
		return err
	}

	if !entry.CanDelete() {
		return domain.ErrEntryCancelled
	}

	if err := uc.entryRepo.Delete(txCtx, tx, tenantID, id); err != nil {
		return err
	}

	if err := uc.emitEvent(txCtx, tx, entry, domain.EventTypeEntryDeleted, nil); err != nil {
		return err
	}

	uc.auditTxAs(txCtx, tx, entry, domain.AuditActionEntryDelete, actor, entry)

	if err := uc.recomputeAccounts(txCtx, tx, tenantID, entry.AccountIDs()); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// ReconcileEntry marks the entry as confirmed against actual funds.
func (uc *EntryUseCase) ReconcileEntry(ctx context.Context, tenantID, id string, date time.Time, actor string) (*domain.LedgerEntry, error) {
	return uc.transition(ctx, tenantID, id, actor, domain.AuditActionEntryReconcile, domain.EventTypeEntryReconciled,
		func(e *domain.LedgerEntry) error { return e.Reconcile(date) })
}

// UnreconcileEntry moves the entry back to pending, excluding it from
// balance computation.
func (uc *EntryUseCase) UnreconcileEntry(ctx context.Context, tenantID, id, actor string) (*domain.LedgerEntry, error) {
	return uc.transition(ctx, tenantID, id, actor, domain.AuditActionEntryUnreconcile, domain.EventTypeEntryUnreconciled,
		func(e *domain.LedgerEntry) error { return e.Unreconcile() })
}

// CancelEntry terminally cancels the entry with a reason.
func (uc *EntryUseCase) CancelEntry(ctx context.Context, tenantID, id, reason, actor string) (*domain.LedgerEntry, error) {
	entry, err := uc.transition(ctx, tenantID, id, actor, domain.AuditActionEntryCancel, domain.EventTypeEntryCancelled,
		func(e *domain.LedgerEntry) error { return e.Cancel(reason) })
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesCancelled.Inc()
	}

	return entry, nil
}

func (uc *EntryUseCase) transition(
	ctx context.Context,
	tenantID, id, actor string,
	action domain.AuditAction,
	eventType string,
	apply func(*domain.LedgerEntry) error,
) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry

	err := uc.retry(ctx, func() error {
		var err error
		entry, err = uc.transitionAttempt(ctx, tenantID, id, actor, action, eventType, apply)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *EntryUseCase) transitionAttempt(
	ctx context.Context,
	tenantID, id, actor string,
	action domain.AuditAction,
	eventType string,
	apply func(*domain.LedgerEntry) error,
) (*domain.LedgerEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}

	before := *entry

	if err := apply(entry); err != nil {
		return nil, err
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := uc.entryRepo.Update(txCtx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.emitEvent(txCtx, tx, entry, eventType, &before); err != nil {
		return nil, err
	}

	uc.auditTxAs(txCtx, tx, entry, action, actor, &before)

	if err := uc.recomputeAccounts(txCtx, tx, tenantID, entry.AccountIDs()); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// GetEntry retrieves an entry by ID.
func (uc *EntryUseCase) GetEntry(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, tenantID, id)
}

// ListEntries lists entries matching the filter.
func (uc *EntryUseCase) ListEntries(ctx context.Context, filter EntryFilter) ([]*domain.LedgerEntry, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.entryRepo.List(ctx, filter)
}

func (uc *EntryUseCase) recomputeAccounts(ctx context.Context, tx Transaction, tenantID string, accountIDs []string) error {
	for _, accountID := range accountIDs {
		if _, err := recomputeAccountBalance(ctx, tx, uc.accountRepo, uc.entryRepo, tenantID, accountID, uc.metrics); err != nil {
			return err
		}
	}

	return nil
}

func (uc *EntryUseCase) emitEvent(ctx context.Context, tx Transaction, entry *domain.LedgerEntry, eventType string, before *domain.LedgerEntry) error {
	if uc.outboxRepo == nil {
		return nil
	}

	payload := map[string]any{
		"entry_id":          entry.ID,
		"tenant_id":         entry.TenantID,
		"code":              entry.Code,
		"type":              string(entry.Type),
		"amount":            entry.Amount.String(),
		"status":            string(entry.Status),
		"source_account_id": entry.SourceAccountID,
	}
	if entry.DestinationAccountID != nil {
		payload["destination_account_id"] = *entry.DestinationAccountID
	}
	if eventType == domain.EventTypeEntryCancelled && entry.Metadata != nil {
		payload["reason"] = entry.Metadata[domain.MetadataCancelReason]
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      entry.TenantID,
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeEntry,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	})
}

func (uc *EntryUseCase) auditTx(ctx context.Context, tx Transaction, entry *domain.LedgerEntry, action domain.AuditAction, before *domain.LedgerEntry) {
	uc.auditTxAs(ctx, tx, entry, action, entry.CreatedBy, before)
}

func (uc *EntryUseCase) auditTxAs(ctx context.Context, tx Transaction, entry *domain.LedgerEntry, action domain.AuditAction, actor string, before *domain.LedgerEntry) {
	if uc.auditRepo == nil {
		return
	}

	var beforeState domain.JSON
	if before != nil {
		beforeState = domain.MarshalState(before)
	}

	_ = uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     entry.TenantID,
		ActorID:      actor,
		Action:       string(action),
		ResourceType: domain.AggregateTypeEntry,
		ResourceID:   entry.ID,
		BeforeState:  beforeState,
		AfterState:   domain.MarshalState(entry),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}

func unionAccountIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))

	var out []string
	for _, id := range append(a, b...) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	return out
}

// codeBackOff yields a uniformly random delay between codeBackoffMin and
// codeBackoffMax for every retry.
type codeBackOff struct{}

func newCodeBackOff() backoff.BackOff { return &codeBackOff{} }

func (b *codeBackOff) NextBackOff() time.Duration {
	return codeBackoffMin + time.Duration(rand.Int63n(int64(codeBackoffMax-codeBackoffMin)))
}

func (b *codeBackOff) Reset() {}
