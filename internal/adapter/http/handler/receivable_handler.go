package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/treasury/internal/adapter/http/dto"
	"github.com/printdesk/treasury/internal/adapter/http/middleware"
	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

// ReceivableService defines the behavior needed by ReceivableHandler.
type ReceivableService interface {
	CreateReceivable(ctx context.Context, input usecase.CreateReceivableInput) (*domain.Receivable, error)
	GetReceivable(ctx context.Context, tenantID, id string) (*domain.Receivable, error)
	ListReceivables(ctx context.Context, filter usecase.ReceivableFilter) ([]*domain.Receivable, error)
	ListInstallments(ctx context.Context, tenantID, parentID string) ([]*domain.Receivable, error)
	AccrueInterest(ctx context.Context, tenantID, id string, today time.Time, reason, actor string) (*domain.InterestAccrual, error)
	RegisterPayment(ctx context.Context, input usecase.RegisterPaymentInput) (*domain.Receivable, error)
	SplitInstallments(ctx context.Context, input usecase.SplitInstallmentsInput) ([]*domain.Receivable, error)
}

// ReceivableHandler handles receivable HTTP requests.
type ReceivableHandler struct {
	receivableUC ReceivableService
}

// NewReceivableHandler creates a new ReceivableHandler.
func NewReceivableHandler(receivableUC ReceivableService) *ReceivableHandler {
	return &ReceivableHandler{receivableUC: receivableUC}
}

// Create records a new receivable.
func (h *ReceivableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReceivableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx := r.Context()
	input := req.ToUseCaseInput(middleware.TenantFromContext(ctx), middleware.ActorFromContext(ctx))

	receivable, err := h.receivableUC.CreateReceivable(ctx, input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create receivable", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReceivableFromDomain(receivable))
}

// Get retrieves a receivable by ID.
func (h *ReceivableHandler) Get(w http.ResponseWriter, r *http.Request) {
	receivable, err := h.receivableUC.GetReceivable(r.Context(), middleware.TenantFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get receivable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReceivableFromDomain(receivable))
}

// List lists receivables, optionally filtered by customer and status.
func (h *ReceivableHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	receivables, err := h.receivableUC.ListReceivables(r.Context(), usecase.ReceivableFilter{
		TenantID:   middleware.TenantFromContext(r.Context()),
		CustomerID: query.Get("customer_id"),
		Status:     domain.ReceivableStatus(query.Get("status")),
		Limit:      parseIntQuery(r, "limit", 20),
		Offset:     parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list receivables", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReceivablesFromDomain(receivables))
}

// ListInstallments lists the child installments of a split receivable.
func (h *ReceivableHandler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	children, err := h.receivableUC.ListInstallments(r.Context(), middleware.TenantFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list installments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReceivablesFromDomain(children))
}

// Accrue applies a manual interest accrual.
func (h *ReceivableHandler) Accrue(w http.ResponseWriter, r *http.Request) {
	var req dto.AccrueInterestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	ctx := r.Context()

	accrual, err := h.receivableUC.AccrueInterest(ctx, middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), date, req.Reason, middleware.ActorFromContext(ctx))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to accrue interest", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccrualFromDomain(accrual))
}

// Pay registers a payment against the receivable.
func (h *ReceivableHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx := r.Context()
	input := req.ToUseCaseInput(middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), middleware.ActorFromContext(ctx))

	receivable, err := h.receivableUC.RegisterPayment(ctx, input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to register payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReceivableFromDomain(receivable))
}

// Split splits the receivable's pending amount into installments.
func (h *ReceivableHandler) Split(w http.ResponseWriter, r *http.Request) {
	var req dto.SplitInstallmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx := r.Context()
	input := req.ToUseCaseInput(middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), middleware.ActorFromContext(ctx))

	children, err := h.receivableUC.SplitInstallments(ctx, input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to split receivable", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReceivablesFromDomain(children))
}
