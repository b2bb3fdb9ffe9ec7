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

type entryServiceStub struct {
	createFn      func(ctx context.Context, input usecase.CreateEntryInput) (*domain.LedgerEntry, error)
	getFn         func(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error)
	listFn        func(ctx context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error)
	updateFn      func(ctx context.Context, input usecase.UpdateEntryInput) (*domain.LedgerEntry, error)
	reconcileFn   func(ctx context.Context, tenantID, id string, date time.Time, actor string) (*domain.LedgerEntry, error)
	unreconcileFn func(ctx context.Context, tenantID, id, actor string) (*domain.LedgerEntry, error)
	cancelFn      func(ctx context.Context, tenantID, id, reason, actor string) (*domain.LedgerEntry, error)
}

func (s *entryServiceStub) CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.LedgerEntry, error) {
	return s.createFn(ctx, input)
}

func (s *entryServiceStub) GetEntry(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error) {
	return s.getFn(ctx, tenantID, id)
}

func (s *entryServiceStub) ListEntries(ctx context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error) {
	return s.listFn(ctx, filter)
}

func (s *entryServiceStub) UpdateEntry(ctx context.Context, input usecase.UpdateEntryInput) (*domain.LedgerEntry, error) {
	return s.updateFn(ctx, input)
}

func (s *entryServiceStub) DeleteEntry(ctx context.Context, tenantID, id, actor string) error {
	return nil
}

func (s *entryServiceStub) ReconcileEntry(ctx context.Context, tenantID, id string, date time.Time, actor string) (*domain.LedgerEntry, error) {
	return s.reconcileFn(ctx, tenantID, id, date, actor)
}

func (s *entryServiceStub) UnreconcileEntry(ctx context.Context, tenantID, id, actor string) (*domain.LedgerEntry, error) {
	return s.unreconcileFn(ctx, tenantID, id, actor)
}

func (s *entryServiceStub) CancelEntry(ctx context.Context, tenantID, id, reason, actor string) (*domain.LedgerEntry, error) {
	return s.cancelFn(ctx, tenantID, id, reason, actor)
}

func TestEntryHandler_Create_Success(t *testing.T) {
	entry := &domain.LedgerEntry{
		ID:              "e1",
		TenantID:        "t1",
		Code:            "E20240500001",
		Type:            domain.EntryTypeInflow,
		Amount:          decimal.NewFromInt(50),
		Status:          domain.EntryStatusPending,
		SourceAccountID: "acc-1",
	}

	var captured usecase.CreateEntryInput
	handler := NewEntryHandler(&entryServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateEntryInput) (*domain.LedgerEntry, error) {
			captured = input
			return entry, nil
		},
	})

	body, _ := json.Marshal(dto.CreateEntryRequest{
		Type:            "inflow",
		Amount:          decimal.NewFromInt(50),
		SourceAccountID: "acc-1",
	})

	req := newTenantRequest(http.MethodPost, "/entries", bytes.NewReader(body))
	rec := serveRoute(http.MethodPost, "/entries", handler.Create, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.TenantID != "t1" || captured.Type != domain.EntryTypeInflow {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "E20240500001" {
		t.Fatalf("expected assigned code in response, got %s", resp.Code)
	}
}

func TestEntryHandler_Create_MapsValidationErrors(t *testing.T) {
	handler := NewEntryHandler(&entryServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateEntryInput) (*domain.LedgerEntry, error) {
			return nil, domain.ErrTransferNeedsDest
		},
	})

	body, _ := json.Marshal(dto.CreateEntryRequest{Type: "transfer", Amount: decimal.NewFromInt(10)})
	req := newTenantRequest(http.MethodPost, "/entries", bytes.NewReader(body))
	rec := serveRoute(http.MethodPost, "/entries", handler.Create, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntryHandler_Create_CodeSpaceExhausted(t *testing.T) {
	handler := NewEntryHandler(&entryServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateEntryInput) (*domain.LedgerEntry, error) {
			return nil, domain.ErrCodeSpaceExhausted
		},
	})

	body, _ := json.Marshal(dto.CreateEntryRequest{Type: "inflow", Amount: decimal.NewFromInt(10)})
	req := newTenantRequest(http.MethodPost, "/entries", bytes.NewReader(body))
	rec := serveRoute(http.MethodPost, "/entries", handler.Create, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestEntryHandler_List_PassesFilter(t *testing.T) {
	var captured usecase.EntryFilter
	handler := NewEntryHandler(&entryServiceStub{
		listFn: func(ctx context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error) {
			captured = filter
			return nil, nil
		},
	})

	req := newTenantRequest(http.MethodGet, "/entries?account_id=acc-1&status=reconciled&type=outflow&limit=5", nil)
	rec := serveRoute(http.MethodGet, "/entries", handler.List, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.AccountID != "acc-1" || captured.Status != domain.EntryStatusReconciled ||
		captured.Type != domain.EntryTypeOutflow || captured.Limit != 5 {
		t.Fatalf("unexpected filter: %+v", captured)
	}
}

func TestEntryHandler_Reconcile_DefaultsDate(t *testing.T) {
	var gotDate time.Time
	handler := NewEntryHandler(&entryServiceStub{
		reconcileFn: func(ctx context.Context, tenantID, id string, date time.Time, actor string) (*domain.LedgerEntry, error) {
			gotDate = date
			return &domain.LedgerEntry{ID: id, Status: domain.EntryStatusReconciled}, nil
		},
	})

	req := newTenantRequest(http.MethodPost, "/entries/e1/reconcile", nil)
	rec := serveRoute(http.MethodPost, "/entries/{id}/reconcile", handler.Reconcile, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotDate.IsZero() {
		t.Error("expected reconciliation date to default to now")
	}
}

func TestEntryHandler_Cancel_Conflict(t *testing.T) {
	handler := NewEntryHandler(&entryServiceStub{
		cancelFn: func(ctx context.Context, tenantID, id, reason, actor string) (*domain.LedgerEntry, error) {
			return nil, domain.ErrEntryCancelled
		},
	})

	body, _ := json.Marshal(dto.CancelEntryRequest{Reason: "duplicate"})
	req := newTenantRequest(http.MethodPost, "/entries/e1/cancel", bytes.NewReader(body))
	rec := serveRoute(http.MethodPost, "/entries/{id}/cancel", handler.Cancel, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
