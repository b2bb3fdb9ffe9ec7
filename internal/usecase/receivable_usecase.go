package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/infrastructure/metrics"
)

// ReceivableUseCase handles interest accrual, payments and installment
// splitting.
type ReceivableUseCase struct {
	txManager      TransactionManager
	receivableRepo ReceivableRepository
	outboxRepo     OutboxRepository
	auditRepo      AuditRepository
	idGen          IDGenerator
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewReceivableUseCase creates a new ReceivableUseCase.
func NewReceivableUseCase(
	txManager TransactionManager,
	receivableRepo ReceivableRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ReceivableUseCase {
	return &ReceivableUseCase{
		txManager:      txManager,
		receivableRepo: receivableRepo,
		outboxRepo:     outboxRepo,
		auditRepo:      auditRepo,
		idGen:          idGen,
		metrics:        metrics,
		logger:         logger,
	}
}

// CreateReceivableInput represents input for creating a receivable.
type CreateReceivableInput struct {
	TenantID       string
	CustomerID     string
	CustomerName   string
	Amount         decimal.Decimal
	DueDate        time.Time
	IssueDate      time.Time
	InterestConfig *domain.InterestConfig
	Actor          string
}

// CreateReceivable records a new customer obligation.
func (uc *ReceivableUseCase) CreateReceivable(ctx context.Context, input CreateReceivableInput) (*domain.Receivable, error) {
	if input.TenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	now := time.Now().UTC()

	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = now
	}

	receivable := &domain.Receivable{
		ID:             uc.idGen.Generate(),
		TenantID:       input.TenantID,
		CustomerID:     input.CustomerID,
		CustomerName:   input.CustomerName,
		OriginalAmount: input.Amount,
		PendingAmount:  input.Amount,
		DueDate:        input.DueDate,
		IssueDate:      issueDate,
		Status:         domain.ReceivableStatusPending,
		InterestConfig: input.InterestConfig,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := receivable.Validate(); err != nil {
		return nil, err
	}

	if err := uc.receivableRepo.Create(ctx, receivable); err != nil {
		return nil, err
	}

	uc.audit(ctx, receivable, domain.AuditActionReceivableCreate, input.Actor, nil)

	if uc.metrics != nil {
		uc.metrics.ReceivablesCreated.Inc()
	}

	return receivable, nil
}

// GetReceivable retrieves a receivable by ID.
func (uc *ReceivableUseCase) GetReceivable(ctx context.Context, tenantID, id string) (*domain.Receivable, error) {
	return uc.receivableRepo.GetByID(ctx, tenantID, id)
}

// ListReceivables lists receivables matching the filter.
func (uc *ReceivableUseCase) ListReceivables(ctx context.Context, filter ReceivableFilter) ([]*domain.Receivable, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.receivableRepo.List(ctx, filter)
}

// ListInstallments lists the children produced by a split.
func (uc *ReceivableUseCase) ListInstallments(ctx context.Context, tenantID, parentID string) ([]*domain.Receivable, error) {
	return uc.receivableRepo.ListChildren(ctx, tenantID, parentID)
}

// AccrueInterest applies one interest accrual to a receivable. The row lock
// closes the window where two concurrent sweeps could both pass the
// ShouldAccrueToday check and double-accrue within the same period.
func (uc *ReceivableUseCase) AccrueInterest(ctx context.Context, tenantID, id string, today time.Time, reason, actor string) (*domain.InterestAccrual, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	receivable, err := uc.receivableRepo.GetByIDForUpdate(txCtx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if !receivable.ShouldAccrueToday(today) {
		return nil, domain.ErrAccrualNotDue
	}

	accrual, err := receivable.ApplyInterest(today, reason)
	if err != nil {
		return nil, err
	}
	receivable.UpdatedAt = time.Now().UTC()

	if err := uc.receivableRepo.Update(txCtx, tx, receivable); err != nil {
		return nil, err
	}

	if err := uc.emitEvent(txCtx, tx, receivable, domain.EventTypeInterestAccrued, map[string]any{
		"amount":        accrual.Amount.String(),
		"pending_after": accrual.PendingAfter.String(),
		"accrual_count": receivable.AccrualCount,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.audit(ctx, receivable, domain.AuditActionReceivableAccrue, actor, nil)

	if uc.metrics != nil {
		uc.metrics.AccrualsApplied.Inc()
	}

	return &accrual, nil
}

// SweepResult summarizes one accrual sweep run.
type SweepResult struct {
	Scanned int
	Accrued int
	Skipped int
	Failed  int
}

// RunAccrualSweep walks every receivable due for accrual and accrues each
// one independently. A failure on one receivable is logged and counted,
// never aborting the rest of the sweep. An external scheduler is expected
// to invoke this daily.
func (uc *ReceivableUseCase) RunAccrualSweep(ctx context.Context, today time.Time) (SweepResult, error) {
	start := time.Now()

	var result SweepResult

	for offset := 0; ; offset += accrualSweepPageSize {
		candidates, err := uc.receivableRepo.ListAccrualCandidates(ctx, today, accrualSweepPageSize, offset)
		if err != nil {
			return result, err
		}
		if len(candidates) == 0 {
			break
		}

		for _, candidate := range candidates {
			result.Scanned++

			if !candidate.ShouldAccrueToday(today) {
				result.Skipped++
				continue
			}

			_, err := uc.AccrueInterest(ctx, candidate.TenantID, candidate.ID, today, "scheduled accrual", "scheduler")
			switch {
			case err == nil:
				result.Accrued++
			case errors.Is(err, domain.ErrAccrualNotDue):
				// A concurrent run got there first.
				result.Skipped++
			default:
				result.Failed++
				uc.logger.Error().Err(err).
					Str("tenant_id", candidate.TenantID).
					Str("receivable_id", candidate.ID).
					Msg("accrual failed")
			}
		}

		if len(candidates) < accrualSweepPageSize {
			break
		}
	}

	if uc.metrics != nil {
		uc.metrics.AccrualSweepDuration.Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().
		Int("scanned", result.Scanned).
		Int("accrued", result.Accrued).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("accrual sweep finished")

	return result, nil
}

// RegisterPaymentInput represents input for registering a payment.
type RegisterPaymentInput struct {
	TenantID string
	ID       string
	Amount   decimal.Decimal
	Method   string
	Date     time.Time
	Actor    string
}

// RegisterPayment applies a payment against the receivable's pending
// amount. Overpayment is clamped to the pending amount and logged.
func (uc *ReceivableUseCase) RegisterPayment(ctx context.Context, input RegisterPaymentInput) (*domain.Receivable, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	receivable, err := uc.receivableRepo.GetByIDForUpdate(txCtx, tx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}

	before := *receivable

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	applied, clamped, err := receivable.RegisterPayment(date, input.Amount, input.Method, input.Actor)
	if err != nil {
		return nil, err
	}

	if clamped {
		uc.logger.Warn().
			Str("tenant_id", input.TenantID).
			Str("receivable_id", input.ID).
			Str("requested", input.Amount.String()).
			Str("applied", applied.String()).
			Msg("payment clamped to pending amount")

		if uc.metrics != nil {
			uc.metrics.OverpaymentClamps.Inc()
		}
	}

	receivable.UpdatedAt = time.Now().UTC()

	if err := uc.receivableRepo.Update(txCtx, tx, receivable); err != nil {
		return nil, err
	}

	settled := receivable.Status == domain.ReceivableStatusSettled

	if err := uc.emitEvent(txCtx, tx, receivable, domain.EventTypePaymentRegistered, map[string]any{
		"amount":  applied.String(),
		"method":  input.Method,
		"settled": settled,
	}); err != nil {
		return nil, err
	}

	if settled {
		if err := uc.emitEvent(txCtx, tx, receivable, domain.EventTypeReceivableSettled, map[string]any{
			"settled_at": receivable.SettlementDate,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.audit(ctx, receivable, domain.AuditActionReceivablePayment, input.Actor, &before)

	if uc.metrics != nil {
		uc.metrics.PaymentsRegistered.Inc()
	}

	return receivable, nil
}

// SplitInstallmentsInput represents input for splitting a receivable.
type SplitInstallmentsInput struct {
	TenantID     string
	ID           string
	Count        int
	FirstDueDate time.Time
	IntervalDays int
	Actor        string
}

// SplitInstallments splits the receivable's pending amount into child
// installments and terminally marks the parent. Children and parent update
// share one transaction so a partial split is never persisted.
func (uc *ReceivableUseCase) SplitInstallments(ctx context.Context, input SplitInstallmentsInput) ([]*domain.Receivable, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	parent, err := uc.receivableRepo.GetByIDForUpdate(txCtx, tx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}

	before := *parent
	splitAmount := parent.PendingAmount

	shares, err := parent.SplitShares(input.Count)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	children := make([]*domain.Receivable, 0, len(shares))
	childIDs := make([]string, 0, len(shares))
	for i, share := range shares {
		// Each child owns its config copy; siblings never alias one struct.
		var childCfg *domain.InterestConfig
		if parent.InterestConfig != nil {
			cfg := *parent.InterestConfig
			childCfg = &cfg
		}

		child := &domain.Receivable{
			ID:                 uc.idGen.Generate(),
			TenantID:           parent.TenantID,
			CustomerID:         parent.CustomerID,
			CustomerName:       parent.CustomerName,
			OriginalAmount:     share,
			PendingAmount:      share,
			DueDate:            input.FirstDueDate.AddDate(0, 0, i*input.IntervalDays),
			IssueDate:          now,
			Status:             domain.ReceivableStatusPending,
			InterestConfig:     childCfg,
			ParentReceivableID: &parent.ID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		if err := uc.receivableRepo.CreateTx(txCtx, tx, child); err != nil {
			return nil, err
		}

		children = append(children, child)
		childIDs = append(childIDs, child.ID)
	}

	parent.FinalizeSplit()
	parent.UpdatedAt = now

	if err := uc.receivableRepo.Update(txCtx, tx, parent); err != nil {
		return nil, err
	}

	if err := uc.emitEvent(txCtx, tx, parent, domain.EventTypeReceivableSplit, map[string]any{
		"child_ids":    childIDs,
		"split_amount": splitAmount.String(),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.audit(ctx, parent, domain.AuditActionReceivableSplit, input.Actor, &before)

	if uc.metrics != nil {
		uc.metrics.SplitsPerformed.Inc()
	}

	return children, nil
}

func (uc *ReceivableUseCase) emitEvent(ctx context.Context, tx Transaction, receivable *domain.Receivable, eventType string, extra map[string]any) error {
	if uc.outboxRepo == nil {
		return nil
	}

	payload := map[string]any{
		"receivable_id": receivable.ID,
		"tenant_id":     receivable.TenantID,
		"status":        string(receivable.Status),
		"pending":       receivable.PendingAmount.String(),
	}
	for k, v := range extra {
		payload[k] = v
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		TenantID:      receivable.TenantID,
		AggregateID:   receivable.ID,
		AggregateType: domain.AggregateTypeReceivable,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	})
}

func (uc *ReceivableUseCase) audit(ctx context.Context, receivable *domain.Receivable, action domain.AuditAction, actor string, before *domain.Receivable) {
	if uc.auditRepo == nil {
		return
	}

	var beforeState domain.JSON
	if before != nil {
		beforeState = domain.MarshalState(before)
	}

	_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     receivable.TenantID,
		ActorID:      actor,
		Action:       string(action),
		ResourceType: domain.AggregateTypeReceivable,
		ResourceID:   receivable.ID,
		BeforeState:  beforeState,
		AfterState:   domain.MarshalState(receivable),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}
