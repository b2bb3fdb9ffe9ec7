package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/adapter/http/dto"
	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

type accountServiceStub struct {
	createFn     func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn        func(ctx context.Context, tenantID, id string) (*domain.Account, error)
	getDefaultFn func(ctx context.Context, tenantID string) (*domain.Account, error)
	listFn       func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	setDefaultFn func(ctx context.Context, tenantID, id, actor string) error
	recomputeFn  func(ctx context.Context, tenantID, id string) (*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	return s.getFn(ctx, tenantID, id)
}

func (s *accountServiceStub) GetDefaultAccount(ctx context.Context, tenantID string) (*domain.Account, error) {
	return s.getDefaultFn(ctx, tenantID)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return s.listFn(ctx, input)
}

func (s *accountServiceStub) SetDefaultAccount(ctx context.Context, tenantID, id, actor string) error {
	return s.setDefaultFn(ctx, tenantID, id, actor)
}

func (s *accountServiceStub) RecomputeBalance(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	return s.recomputeFn(ctx, tenantID, id)
}

func (s *accountServiceStub) DeactivateAccount(ctx context.Context, tenantID, id, actor string) error {
	return nil
}

func (s *accountServiceStub) DeleteAccount(ctx context.Context, tenantID, id, actor string) error {
	return nil
}

func TestAccountHandler_Create_Success(t *testing.T) {
	account := &domain.Account{
		ID:             "acc-1",
		TenantID:       "t1",
		Name:           "Main",
		OpeningBalance: decimal.NewFromInt(100),
		CurrentBalance: decimal.NewFromInt(100),
		IsDefault:      true,
		Active:         true,
	}

	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return account, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{
		Name:           "Main",
		OpeningBalance: decimal.NewFromInt(100),
	})

	req := newTenantRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := serveRoute(http.MethodPost, "/accounts", handler.Create, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.TenantID != "t1" || captured.Actor != "alice" {
		t.Fatalf("expected tenant and actor from headers, got %+v", captured)
	}
	if captured.Name != "Main" || !captured.OpeningBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "acc-1" || !resp.IsDefault {
		t.Fatalf("expected created account in response, got %+v", resp)
	}
}

func TestAccountHandler_Create_InvalidJSON(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			t.Fatal("CreateAccount should not be called for invalid payload")
			return nil, nil
		},
	})

	req := newTenantRequest(http.MethodPost, "/accounts", bytes.NewBufferString("{invalid json"))
	rec := serveRoute(http.MethodPost, "/accounts", handler.Create, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, tenantID, id string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := newTenantRequest(http.MethodGet, "/accounts/missing", nil)
	rec := serveRoute(http.MethodGet, "/accounts/{id}", handler.Get, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_SetDefault(t *testing.T) {
	var gotTenant, gotID, gotActor string
	handler := NewAccountHandler(&accountServiceStub{
		setDefaultFn: func(ctx context.Context, tenantID, id, actor string) error {
			gotTenant, gotID, gotActor = tenantID, id, actor
			return nil
		},
	})

	req := newTenantRequest(http.MethodPost, "/accounts/acc-2/default", nil)
	rec := serveRoute(http.MethodPost, "/accounts/{id}/default", handler.SetDefault, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotTenant != "t1" || gotID != "acc-2" || gotActor != "alice" {
		t.Fatalf("unexpected arguments: %s %s %s", gotTenant, gotID, gotActor)
	}
}

func TestAccountHandler_SetDefault_Inactive(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		setDefaultFn: func(ctx context.Context, tenantID, id, actor string) error {
			return domain.ErrAccountInactive
		},
	})

	req := newTenantRequest(http.MethodPost, "/accounts/acc-2/default", nil)
	rec := serveRoute(http.MethodPost, "/accounts/{id}/default", handler.SetDefault, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_List_PassesPagination(t *testing.T) {
	var captured usecase.ListAccountsInput
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
			captured = input
			return []*domain.Account{}, nil
		},
	})

	req := newTenantRequest(http.MethodGet, "/accounts?limit=5&offset=10", nil)
	rec := serveRoute(http.MethodGet, "/accounts", handler.List, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.TenantID != "t1" || captured.Limit != 5 || captured.Offset != 10 {
		t.Fatalf("unexpected list input: %+v", captured)
	}
}
