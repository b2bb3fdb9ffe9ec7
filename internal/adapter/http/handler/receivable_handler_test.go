package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/adapter/http/dto"
	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

type receivableServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateReceivableInput) (*domain.Receivable, error)
	getFn    func(ctx context.Context, tenantID, id string) (*domain.Receivable, error)
	listFn   func(ctx context.Context, filter usecase.ReceivableFilter) ([]*domain.Receivable, error)
	accrueFn func(ctx context.Context, tenantID, id string, today time.Time, reason, actor string) (*domain.InterestAccrual, error)
	payFn    func(ctx context.Context, input usecase.RegisterPaymentInput) (*domain.Receivable, error)
	splitFn  func(ctx context.Context, input usecase.SplitInstallmentsInput) ([]*domain.Receivable, error)
}

func (s *receivableServiceStub) CreateReceivable(ctx context.Context, input usecase.CreateReceivableInput) (*domain.Receivable, error) {
	return s.createFn(ctx, input)
}

func (s *receivableServiceStub) GetReceivable(ctx context.Context, tenantID, id string) (*domain.Receivable, error) {
	return s.getFn(ctx, tenantID, id)
}

func (s *receivableServiceStub) ListReceivables(ctx context.Context, filter usecase.ReceivableFilter) ([]*domain.Receivable, error) {
	return s.listFn(ctx, filter)
}

func (s *receivableServiceStub) ListInstallments(ctx context.Context, tenantID, parentID string) ([]*domain.Receivable, error) {
	return nil, nil
}

func (s *receivableServiceStub) AccrueInterest(ctx context.Context, tenantID, id string, today time.Time, reason, actor string) (*domain.InterestAccrual, error) {
	return s.accrueFn(ctx, tenantID, id, today, reason, actor)
}

func (s *receivableServiceStub) RegisterPayment(ctx context.Context, input usecase.RegisterPaymentInput) (*domain.Receivable, error) {
	return s.payFn(ctx, input)
}

func (s *receivableServiceStub) SplitInstallments(ctx context.Context, input usecase.SplitInstallmentsInput) ([]*domain.Receivable, error) {
	return s.splitFn(ctx, input)
}

func TestReceivableHandler_Create_Success(t *testing.T) {
	receivable := &domain.Receivable{
		ID:             "r1",
		TenantID:       "t1",
		CustomerID:     "cust-1",
		CustomerName:   "Acme Prints",
		OriginalAmount: decimal.NewFromInt(100),
		PendingAmount:  decimal.NewFromInt(100),
		Status:         domain.ReceivableStatusPending,
	}

	var captured usecase.CreateReceivableInput
	handler := NewReceivableHandler(&receivableServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateReceivableInput) (*domain.Receivable, error) {
			captured = input
			return receivable, nil
		},
	})

	body, _ := json.Marshal(dto.CreateReceivableRequest{
		CustomerID:   "cust-1",
		CustomerName: "Acme Prints",
		Amount:       decimal.NewFromInt(100),
		DueDate:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		InterestConfig: &dto.InterestConfigRequest{
			Type:      "percent",
			Value:     decimal.NewFromInt(5),
			Frequency: "daily",
			StartDate: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	})

	req := newTenantRequest(http.MethodPost, "/receivables", bytes.NewReader(body))
	rec := serveRoute(http.MethodPost, "/receivables", handler.Create, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.TenantID != "t1" || captured.CustomerID != "cust-1" {
		t.Fatalf("unexpected input: %+v", captured)
	}
	if captured.InterestConfig == nil || captured.InterestConfig.Type != domain.InterestTypePercent {
		t.Fatalf("expected interest config to convert, got %+v", captured.InterestConfig)
	}
}

func TestReceivableHandler_Pay_SettledConflict(t *testing.T) {
	handler := NewReceivableHandler(&receivableServiceStub{
		payFn: func(ctx context.Context, input usecase.RegisterPaymentInput) (*domain.Receivable, error) {
			return nil, domain.ErrReceivableSettled
		},
	})

	body, _ := json.Marshal(dto.RegisterPaymentRequest{Amount: decimal.NewFromInt(10)})
	req := newTenantRequest(http.MethodPost, "/receivables/r1/payments", bytes.NewReader(body))
	rec := serveRoute(http.MethodPost, "/receivables/{id}/payments", handler.Pay, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestReceivableHandler_Accrue_NotDue(t *testing.T) {
	handler := NewReceivableHandler(&receivableServiceStub{
		accrueFn: func(ctx context.Context, tenantID, id string, today time.Time, reason, actor string) (*domain.InterestAccrual, error) {
			return nil, domain.ErrAccrualNotDue
		},
	})

	req := newTenantRequest(http.MethodPost, "/receivables/r1/accrue", nil)
	rec := serveRoute(http.MethodPost, "/receivables/{id}/accrue", handler.Accrue, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReceivableHandler_Accrue_PassesActor(t *testing.T) {
	var gotActor string
	handler := NewReceivableHandler(&receivableServiceStub{
		accrueFn: func(ctx context.Context, tenantID, id string, today time.Time, reason, actor string) (*domain.InterestAccrual, error) {
			gotActor = actor
			return &domain.InterestAccrual{}, nil
		},
	})

	req := newTenantRequest(http.MethodPost, "/receivables/r1/accrue", nil)
	rec := serveRoute(http.MethodPost, "/receivables/{id}/accrue", handler.Accrue, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotActor != "alice" {
		t.Errorf("expected actor alice, got %q", gotActor)
	}
}

func TestReceivableHandler_Split_Success(t *testing.T) {
	var captured usecase.SplitInstallmentsInput
	handler := NewReceivableHandler(&receivableServiceStub{
		splitFn: func(ctx context.Context, input usecase.SplitInstallmentsInput) ([]*domain.Receivable, error) {
			captured = input
			return []*domain.Receivable{
				{ID: "c1", PendingAmount: decimal.NewFromInt(50)},
				{ID: "c2", PendingAmount: decimal.NewFromInt(50)},
			}, nil
		},
	})

	body, _ := json.Marshal(dto.SplitInstallmentsRequest{
		Count:        2,
		FirstDueDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		IntervalDays: 30,
	})

	req := newTenantRequest(http.MethodPost, "/receivables/r1/split", bytes.NewReader(body))
	rec := serveRoute(http.MethodPost, "/receivables/{id}/split", handler.Split, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ID != "r1" || captured.Count != 2 || captured.IntervalDays != 30 {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp []*dto.ReceivableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 installments, got %d", len(resp))
	}
}

func TestReceivableHandler_List_PassesFilter(t *testing.T) {
	var captured usecase.ReceivableFilter
	handler := NewReceivableHandler(&receivableServiceStub{
		listFn: func(ctx context.Context, filter usecase.ReceivableFilter) ([]*domain.Receivable, error) {
			captured = filter
			return nil, nil
		},
	})

	req := newTenantRequest(http.MethodGet, "/receivables?customer_id=cust-1&status=partial", nil)
	rec := serveRoute(http.MethodGet, "/receivables", handler.List, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.CustomerID != "cust-1" || captured.Status != domain.ReceivableStatusPartial {
		t.Fatalf("unexpected filter: %+v", captured)
	}
}
