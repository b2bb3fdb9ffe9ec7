package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
	"github.com/printdesk/treasury/internal/usecase/mocks"
)

func newAccountUseCase(accRepo *mocks.MockAccountRepository, entryRepo *mocks.MockEntryRepository) *usecase.AccountUseCase {
	return usecase.NewAccountUseCase(
		mocks.NewMockTransactionManager(),
		accRepo,
		entryRepo,
		mocks.NewMockAuditRepository(),
		mocks.NewMockIDGenerator(),
		nil,
		nil,
	)
}

func TestAccountUseCase_CreateAccount_FirstBecomesDefault(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	uc := newAccountUseCase(accRepo, mocks.NewMockEntryRepository())

	first, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		TenantID:       "t1",
		Name:           "Main",
		OpeningBalance: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.IsDefault {
		t.Error("expected first account to be default")
	}
	if !first.CurrentBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected current balance 100, got %s", first.CurrentBalance)
	}

	second, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		TenantID: "t1",
		Name:     "Savings",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.IsDefault {
		t.Error("expected second account to not be default")
	}
}

func TestAccountUseCase_CreateAccount_Validation(t *testing.T) {
	uc := newAccountUseCase(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository())

	tests := []struct {
		name    string
		input   usecase.CreateAccountInput
		wantErr error
	}{
		{
			name:    "missing tenant",
			input:   usecase.CreateAccountInput{Name: "Main"},
			wantErr: domain.ErrTenantRequired,
		},
		{
			name:    "missing name",
			input:   usecase.CreateAccountInput{TenantID: "t1"},
			wantErr: domain.ErrInvalidAccountName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateAccount(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected a validation-class error, got %v", err)
			}
		})
	}
}

func TestAccountUseCase_SetDefaultAccount(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	uc := newAccountUseCase(accRepo, mocks.NewMockEntryRepository())

	ctx := context.Background()
	first, _ := uc.CreateAccount(ctx, usecase.CreateAccountInput{TenantID: "t1", Name: "Main"})
	second, _ := uc.CreateAccount(ctx, usecase.CreateAccountInput{TenantID: "t1", Name: "Savings"})

	if err := uc.SetDefaultAccount(ctx, "t1", second.ID, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def, err := uc.GetDefaultAccount(ctx, "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.ID != second.ID {
		t.Errorf("expected default %s, got %s", second.ID, def.ID)
	}

	got, _ := uc.GetAccount(ctx, "t1", first.ID)
	if got.IsDefault {
		t.Error("expected previous default to be cleared")
	}
}

func TestAccountUseCase_SetDefaultAccount_RejectsInactive(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	uc := newAccountUseCase(accRepo, mocks.NewMockEntryRepository())

	ctx := context.Background()
	uc.CreateAccount(ctx, usecase.CreateAccountInput{TenantID: "t1", Name: "Main"})
	second, _ := uc.CreateAccount(ctx, usecase.CreateAccountInput{TenantID: "t1", Name: "Dormant"})

	if err := uc.DeactivateAccount(ctx, "t1", second.ID, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := uc.SetDefaultAccount(ctx, "t1", second.ID, "alice")
	if !errors.Is(err, domain.ErrAccountInactive) {
		t.Errorf("expected ErrAccountInactive, got %v", err)
	}
}

func TestAccountUseCase_RecomputeBalance(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	uc := newAccountUseCase(accRepo, entryRepo)

	ctx := context.Background()
	acc, err := uc.CreateAccount(ctx, usecase.CreateAccountInput{
		TenantID:       "t1",
		Name:           "Main",
		OpeningBalance: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seed := []*domain.LedgerEntry{
		{ID: "e1", TenantID: "t1", Code: "E20240500001", Type: domain.EntryTypeInflow, Amount: decimal.NewFromInt(50), Status: domain.EntryStatusReconciled, SourceAccountID: acc.ID},
		{ID: "e2", TenantID: "t1", Code: "S20240500001", Type: domain.EntryTypeOutflow, Amount: decimal.NewFromInt(20), Status: domain.EntryStatusReconciled, SourceAccountID: acc.ID},
		{ID: "e3", TenantID: "t1", Code: "E20240500002", Type: domain.EntryTypeInflow, Amount: decimal.NewFromInt(1000), Status: domain.EntryStatusPending, SourceAccountID: acc.ID},
	}
	for _, e := range seed {
		if err := entryRepo.Create(ctx, nil, e); err != nil {
			t.Fatalf("seed entry %s: %v", e.ID, err)
		}
	}

	got, err := uc.RecomputeBalance(ctx, "t1", acc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 100 opening + 50 reconciled inflow - 20 reconciled outflow. The
	// pending inflow never counts.
	want := decimal.NewFromInt(130)
	if !got.CurrentBalance.Equal(want) {
		t.Errorf("expected balance %s, got %s", want, got.CurrentBalance)
	}
}

func TestAccountUseCase_DeleteAccount_RejectsReferenced(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	uc := newAccountUseCase(accRepo, entryRepo)

	ctx := context.Background()
	acc, _ := uc.CreateAccount(ctx, usecase.CreateAccountInput{TenantID: "t1", Name: "Main"})

	entryRepo.Create(ctx, nil, &domain.LedgerEntry{
		ID: "e1", TenantID: "t1", Code: "E20240500001",
		Type: domain.EntryTypeInflow, Amount: decimal.NewFromInt(10),
		Status: domain.EntryStatusPending, SourceAccountID: acc.ID,
	})

	err := uc.DeleteAccount(ctx, "t1", acc.ID, "alice")
	if !errors.Is(err, domain.ErrAccountHasEntries) {
		t.Errorf("expected ErrAccountHasEntries, got %v", err)
	}

	err = uc.DeactivateAccount(ctx, "t1", acc.ID, "alice")
	if !errors.Is(err, domain.ErrAccountHasEntries) {
		t.Errorf("expected ErrAccountHasEntries, got %v", err)
	}
}

func TestAccountUseCase_DeleteAccount_SoftDeletes(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	uc := newAccountUseCase(accRepo, mocks.NewMockEntryRepository())

	ctx := context.Background()
	acc, _ := uc.CreateAccount(ctx, usecase.CreateAccountInput{TenantID: "t1", Name: "Main"})

	if err := uc.DeleteAccount(ctx, "t1", acc.ID, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := uc.GetAccount(ctx, "t1", acc.ID)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound after delete, got %v", err)
	}
}

func TestAccountUseCase_GetDefaultAccount_Cache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accRepo := mocks.NewMockAccountRepository()
	cache := mocks.NewMockCache(ctrl)

	uc := usecase.NewAccountUseCase(
		mocks.NewMockTransactionManager(),
		accRepo,
		mocks.NewMockEntryRepository(),
		mocks.NewMockAuditRepository(),
		mocks.NewMockIDGenerator(),
		cache,
		nil,
	)

	ctx := context.Background()

	// The create invalidates, the first lookup misses and fills, the second
	// lookup is served from the cache without touching the repository.
	cache.EXPECT().Delete(gomock.Any(), "default_account:t1").Return(nil)
	acc, err := uc.CreateAccount(ctx, usecase.CreateAccountInput{TenantID: "t1", Name: "Main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var cached []byte
	cache.EXPECT().Get(gomock.Any(), "default_account:t1").Return(nil, errors.New("miss"))
	cache.EXPECT().Set(gomock.Any(), "default_account:t1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, value []byte, _ time.Duration) error {
			cached = value
			return nil
		})

	got, err := uc.GetDefaultAccount(ctx, "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != acc.ID {
		t.Errorf("expected account %s, got %s", acc.ID, got.ID)
	}

	cache.EXPECT().Get(gomock.Any(), "default_account:t1").Return(cached, nil)

	accRepo.GetDefaultFunc = func(ctx context.Context, tenantID string) (*domain.Account, error) {
		t.Fatal("repository hit on cached lookup")
		return nil, nil
	}

	got, err = uc.GetDefaultAccount(ctx, "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != acc.ID {
		t.Errorf("expected cached account %s, got %s", acc.ID, got.ID)
	}
}

func TestAccountUseCase_TenantIsolation(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	uc := newAccountUseCase(accRepo, mocks.NewMockEntryRepository())

	ctx := context.Background()
	acc, _ := uc.CreateAccount(ctx, usecase.CreateAccountInput{TenantID: "t1", Name: "Main"})

	if _, err := uc.GetAccount(ctx, "t2", acc.ID); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound across tenants, got %v", err)
	}

	other, err := uc.CreateAccount(ctx, usecase.CreateAccountInput{TenantID: "t2", Name: "Main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !other.IsDefault {
		t.Error("expected first account of each tenant to be its default")
	}
}
