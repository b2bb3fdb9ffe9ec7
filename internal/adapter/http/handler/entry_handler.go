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

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.LedgerEntry, error)
	GetEntry(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error)
	ListEntries(ctx context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error)
	UpdateEntry(ctx context.Context, input usecase.UpdateEntryInput) (*domain.LedgerEntry, error)
	DeleteEntry(ctx context.Context, tenantID, id, actor string) error
	ReconcileEntry(ctx context.Context, tenantID, id string, date time.Time, actor string) (*domain.LedgerEntry, error)
	UnreconcileEntry(ctx context.Context, tenantID, id, actor string) (*domain.LedgerEntry, error)
	CancelEntry(ctx context.Context, tenantID, id, reason, actor string) (*domain.LedgerEntry, error)
}

// EntryHandler handles ledger entry HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// Create records a new ledger entry.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx := r.Context()
	input := req.ToUseCaseInput(middleware.TenantFromContext(ctx), middleware.ActorFromContext(ctx))

	entry, err := h.entryUC.CreateEntry(ctx, input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create entry", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get retrieves an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entryUC.GetEntry(r.Context(), middleware.TenantFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// List lists entries, optionally filtered by account, status and type.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	entries, err := h.entryUC.ListEntries(r.Context(), usecase.EntryFilter{
		TenantID:  middleware.TenantFromContext(r.Context()),
		AccountID: query.Get("account_id"),
		Status:    domain.EntryStatus(query.Get("status")),
		Type:      domain.EntryType(query.Get("type")),
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Update edits a non-cancelled entry.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx := r.Context()
	input := req.ToUseCaseInput(middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), middleware.ActorFromContext(ctx))

	entry, err := h.entryUC.UpdateEntry(ctx, input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Delete removes an entry and recomputes the affected balances.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.entryUC.DeleteEntry(ctx, middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), middleware.ActorFromContext(ctx))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to delete entry", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reconcile confirms the entry against actual funds.
func (h *EntryHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileEntryRequest
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

	entry, err := h.entryUC.ReconcileEntry(ctx, middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), date, middleware.ActorFromContext(ctx))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Unreconcile moves the entry back to pending.
func (h *EntryHandler) Unreconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, err := h.entryUC.UnreconcileEntry(ctx, middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), middleware.ActorFromContext(ctx))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to unreconcile entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Cancel terminally cancels the entry.
func (h *EntryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req dto.CancelEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx := r.Context()

	entry, err := h.entryUC.CancelEntry(ctx, middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), req.Reason, middleware.ActorFromContext(ctx))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}
