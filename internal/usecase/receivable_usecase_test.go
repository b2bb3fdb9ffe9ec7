package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
	"github.com/printdesk/treasury/internal/usecase/mocks"
)

type receivableFixture struct {
	repo       *mocks.MockReceivableRepository
	outboxRepo *mocks.MockOutboxRepository
	auditRepo  *mocks.MockAuditRepository
	uc         *usecase.ReceivableUseCase
}

func newReceivableFixture() *receivableFixture {
	f := &receivableFixture{
		repo:       mocks.NewMockReceivableRepository(),
		outboxRepo: mocks.NewMockOutboxRepository(),
		auditRepo:  mocks.NewMockAuditRepository(),
	}
	f.uc = usecase.NewReceivableUseCase(
		mocks.NewMockTransactionManager(),
		f.repo,
		f.outboxRepo,
		f.auditRepo,
		mocks.NewMockIDGenerator(),
		nil,
		zerolog.Nop(),
	)
	return f
}

func (f *receivableFixture) create(t *testing.T, amount int64, cfg *domain.InterestConfig) *domain.Receivable {
	t.Helper()
	r, err := f.uc.CreateReceivable(context.Background(), usecase.CreateReceivableInput{
		TenantID:       "t1",
		CustomerID:     "cust-1",
		CustomerName:   "Acme Prints",
		Amount:         decimal.NewFromInt(amount),
		DueDate:        time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		InterestConfig: cfg,
	})
	if err != nil {
		t.Fatalf("create receivable: %v", err)
	}
	return r
}

func TestReceivableUseCase_RegisterPayment_Partial(t *testing.T) {
	f := newReceivableFixture()
	r := f.create(t, 100, nil)

	got, err := f.uc.RegisterPayment(context.Background(), usecase.RegisterPaymentInput{
		TenantID: "t1",
		ID:       r.ID,
		Amount:   decimal.NewFromInt(40),
		Method:   "pix",
		Actor:    "alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.ReceivableStatusPartial {
		t.Errorf("expected partial, got %s", got.Status)
	}
	if !got.PendingAmount.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected pending 60, got %s", got.PendingAmount)
	}
	if len(got.PaymentHistory) != 1 {
		t.Errorf("expected 1 payment record, got %d", len(got.PaymentHistory))
	}
}

func TestReceivableUseCase_RegisterPayment_ClampsOverpayment(t *testing.T) {
	f := newReceivableFixture()
	r := f.create(t, 100, nil)

	got, err := f.uc.RegisterPayment(context.Background(), usecase.RegisterPaymentInput{
		TenantID: "t1",
		ID:       r.ID,
		Amount:   decimal.NewFromInt(150),
		Method:   "cash",
		Actor:    "alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.ReceivableStatusSettled {
		t.Errorf("expected settled, got %s", got.Status)
	}
	if !got.PendingAmount.Equal(decimal.Zero) {
		t.Errorf("expected pending 0, got %s", got.PendingAmount)
	}
	if got.SettlementDate == nil {
		t.Error("expected settlement date")
	}
	if !got.PaymentHistory[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected recorded payment clamped to 100, got %s", got.PaymentHistory[0].Amount)
	}

	types := f.outboxRepo.EventTypes()
	want := []string{domain.EventTypePaymentRegistered, domain.EventTypeReceivableSettled}
	if len(types) != len(want) || types[0] != want[0] || types[1] != want[1] {
		t.Errorf("expected events %v, got %v", want, types)
	}
}

func TestReceivableUseCase_RegisterPayment_Rejections(t *testing.T) {
	f := newReceivableFixture()
	settled := f.create(t, 50, nil)
	if _, err := f.uc.RegisterPayment(context.Background(), usecase.RegisterPaymentInput{
		TenantID: "t1", ID: settled.ID, Amount: decimal.NewFromInt(50),
	}); err != nil {
		t.Fatalf("settle: %v", err)
	}

	open := f.create(t, 50, nil)

	tests := []struct {
		name    string
		id      string
		amount  decimal.Decimal
		wantErr error
	}{
		{"already settled", settled.ID, decimal.NewFromInt(10), domain.ErrReceivableSettled},
		{"zero amount", open.ID, decimal.Zero, domain.ErrInvalidAmount},
		{"negative amount", open.ID, decimal.NewFromInt(-5), domain.ErrInvalidAmount},
		{"unknown receivable", "missing", decimal.NewFromInt(10), domain.ErrReceivableNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.RegisterPayment(context.Background(), usecase.RegisterPaymentInput{
				TenantID: "t1", ID: tt.id, Amount: tt.amount,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReceivableUseCase_SplitInstallments(t *testing.T) {
	f := newReceivableFixture()
	cfg := &domain.InterestConfig{
		Type:      domain.InterestTypePercent,
		Value:     decimal.NewFromInt(2),
		Frequency: domain.FrequencyMonthly,
		StartDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	parent := f.create(t, 100, cfg)

	firstDue := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	children, err := f.uc.SplitInstallments(context.Background(), usecase.SplitInstallmentsInput{
		TenantID:     "t1",
		ID:           parent.ID,
		Count:        3,
		FirstDueDate: firstDue,
		IntervalDays: 30,
		Actor:        "alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}

	// 100 / 3 rounds to 33.33; the last share absorbs the remainder.
	wantShares := []string{"33.33", "33.33", "33.34"}
	sum := decimal.Zero
	for i, c := range children {
		if c.PendingAmount.StringFixed(2) != wantShares[i] {
			t.Errorf("child %d: expected %s, got %s", i, wantShares[i], c.PendingAmount)
		}
		if c.ParentReceivableID == nil || *c.ParentReceivableID != parent.ID {
			t.Errorf("child %d: expected parent link", i)
		}
		if c.InterestConfig == nil {
			t.Errorf("child %d: expected inherited interest config", i)
		}
		wantDue := firstDue.AddDate(0, 0, i*30)
		if !c.DueDate.Equal(wantDue) {
			t.Errorf("child %d: expected due %s, got %s", i, wantDue, c.DueDate)
		}
		sum = sum.Add(c.PendingAmount)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected shares to sum to 100, got %s", sum)
	}
	if children[0].InterestConfig == children[1].InterestConfig {
		t.Error("expected each child to own its interest config")
	}

	got, _ := f.uc.GetReceivable(context.Background(), "t1", parent.ID)
	if got.Status != domain.ReceivableStatusInstallmentParent {
		t.Errorf("expected installment_parent, got %s", got.Status)
	}
	if !got.PendingAmount.Equal(decimal.Zero) {
		t.Errorf("expected parent pending 0, got %s", got.PendingAmount)
	}

	listed, err := f.uc.ListInstallments(context.Background(), "t1", parent.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 3 {
		t.Errorf("expected 3 installments listed, got %d", len(listed))
	}
}

func TestReceivableUseCase_SplitInstallments_Rejections(t *testing.T) {
	f := newReceivableFixture()
	parent := f.create(t, 90, nil)

	if _, err := f.uc.SplitInstallments(context.Background(), usecase.SplitInstallmentsInput{
		TenantID: "t1", ID: parent.ID, Count: 1,
		FirstDueDate: time.Now(),
	}); !errors.Is(err, domain.ErrInvalidSplitCount) {
		t.Errorf("expected ErrInvalidSplitCount, got %v", err)
	}

	children, err := f.uc.SplitInstallments(context.Background(), usecase.SplitInstallmentsInput{
		TenantID: "t1", ID: parent.ID, Count: 3,
		FirstDueDate: time.Now(), IntervalDays: 30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The parent is terminal once split.
	if _, err := f.uc.RegisterPayment(context.Background(), usecase.RegisterPaymentInput{
		TenantID: "t1", ID: parent.ID, Amount: decimal.NewFromInt(10),
	}); !errors.Is(err, domain.ErrInstallmentParent) {
		t.Errorf("expected ErrInstallmentParent, got %v", err)
	}
	if _, err := f.uc.SplitInstallments(context.Background(), usecase.SplitInstallmentsInput{
		TenantID: "t1", ID: parent.ID, Count: 2,
		FirstDueDate: time.Now(),
	}); !errors.Is(err, domain.ErrInstallmentParent) {
		t.Errorf("expected ErrInstallmentParent, got %v", err)
	}

	// A child is never split again.
	if _, err := f.uc.SplitInstallments(context.Background(), usecase.SplitInstallmentsInput{
		TenantID: "t1", ID: children[0].ID, Count: 2,
		FirstDueDate: time.Now(),
	}); !errors.Is(err, domain.ErrAlreadyInstallment) {
		t.Errorf("expected ErrAlreadyInstallment, got %v", err)
	}
}

func TestReceivableUseCase_AccrueInterest(t *testing.T) {
	f := newReceivableFixture()
	cfg := &domain.InterestConfig{
		Type:      domain.InterestTypePercent,
		Value:     decimal.NewFromInt(5),
		Frequency: domain.FrequencyDaily,
		StartDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	r := f.create(t, 200, cfg)

	today := time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

	accrual, err := f.uc.AccrueInterest(context.Background(), "t1", r.ID, today, "late payment", "clerk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !accrual.Amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected accrued 10, got %s", accrual.Amount)
	}
	if !accrual.PendingAfter.Equal(decimal.NewFromInt(210)) {
		t.Errorf("expected pending 210, got %s", accrual.PendingAfter)
	}

	got, _ := f.uc.GetReceivable(context.Background(), "t1", r.ID)
	if got.AccrualCount != 1 || len(got.InterestHistory) != 1 {
		t.Errorf("expected 1 accrual on record, got count=%d history=%d", got.AccrualCount, len(got.InterestHistory))
	}

	// The caller's identity ends up in the audit trail, not a fixed one.
	logs := f.auditRepo.Logs
	if len(logs) < 2 {
		t.Fatalf("expected audit entries, got %d", len(logs))
	}
	if last := logs[len(logs)-1]; last.ActorID != "clerk" {
		t.Errorf("expected audit actor clerk, got %q", last.ActorID)
	}

	// Same day twice is never accrued.
	if _, err := f.uc.AccrueInterest(context.Background(), "t1", r.ID, today.Add(2*time.Hour), "retry", "clerk"); !errors.Is(err, domain.ErrAccrualNotDue) {
		t.Errorf("expected ErrAccrualNotDue, got %v", err)
	}

	// The next day compounds on the increased pending amount.
	next, err := f.uc.AccrueInterest(context.Background(), "t1", r.ID, today.AddDate(0, 0, 1), "late payment", "clerk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.Amount.Equal(decimal.NewFromFloat(10.5)) {
		t.Errorf("expected accrued 10.5, got %s", next.Amount)
	}
}

func TestReceivableUseCase_AccrueInterest_NotDue(t *testing.T) {
	f := newReceivableFixture()

	noCfg := f.create(t, 100, nil)
	if _, err := f.uc.AccrueInterest(context.Background(), "t1", noCfg.ID, time.Now(), "x", "clerk"); !errors.Is(err, domain.ErrAccrualNotDue) {
		t.Errorf("expected ErrAccrualNotDue without config, got %v", err)
	}

	future := f.create(t, 100, &domain.InterestConfig{
		Type:      domain.InterestTypeFixed,
		Value:     decimal.NewFromInt(5),
		Frequency: domain.FrequencyOnce,
		StartDate: time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if _, err := f.uc.AccrueInterest(context.Background(), "t1", future.ID, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), "x", "clerk"); !errors.Is(err, domain.ErrAccrualNotDue) {
		t.Errorf("expected ErrAccrualNotDue before start date, got %v", err)
	}
}

func TestReceivableUseCase_RunAccrualSweep(t *testing.T) {
	f := newReceivableFixture()

	today := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)
	cfg := func(start time.Time) *domain.InterestConfig {
		return &domain.InterestConfig{
			Type:      domain.InterestTypeFixed,
			Value:     decimal.NewFromInt(5),
			Frequency: domain.FrequencyDaily,
			StartDate: start,
		}
	}

	due := f.create(t, 100, cfg(today.AddDate(0, 0, -3)))
	f.create(t, 100, cfg(today.AddDate(0, 0, 1)))
	broken := f.create(t, 100, cfg(today.AddDate(0, 0, -3)))

	// One receivable fails its row lock; the sweep counts it and moves on.
	f.repo.GetByIDForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Receivable, error) {
		if id == broken.ID {
			return nil, errors.New("connection reset")
		}
		return f.repo.GetByID(ctx, tenantID, id)
	}

	result, err := f.uc.RunAccrualSweep(context.Background(), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Scanned != 2 {
		t.Errorf("expected 2 scanned, got %d", result.Scanned)
	}
	if result.Accrued != 1 {
		t.Errorf("expected 1 accrued, got %d", result.Accrued)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", result.Failed)
	}

	got, _ := f.uc.GetReceivable(context.Background(), "t1", due.ID)
	if !got.PendingAmount.Equal(decimal.NewFromInt(105)) {
		t.Errorf("expected pending 105 after sweep, got %s", got.PendingAmount)
	}
	unchanged, _ := f.uc.GetReceivable(context.Background(), "t1", broken.ID)
	if !unchanged.PendingAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected failed receivable untouched, got %s", unchanged.PendingAmount)
	}
}

func TestReceivableUseCase_CreateReceivable_Validation(t *testing.T) {
	f := newReceivableFixture()

	if _, err := f.uc.CreateReceivable(context.Background(), usecase.CreateReceivableInput{
		TenantID: "t1", Amount: decimal.Zero,
	}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	if _, err := f.uc.CreateReceivable(context.Background(), usecase.CreateReceivableInput{
		Amount: decimal.NewFromInt(10),
	}); !errors.Is(err, domain.ErrTenantRequired) {
		t.Errorf("expected ErrTenantRequired, got %v", err)
	}
}
