package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/treasury/internal/adapter/http/dto"
	"github.com/printdesk/treasury/internal/adapter/http/middleware"
	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error)
	GetDefaultAccount(ctx context.Context, tenantID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	SetDefaultAccount(ctx context.Context, tenantID, id, actor string) error
	RecomputeBalance(ctx context.Context, tenantID, id string) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, tenantID, id, actor string) error
	DeleteAccount(ctx context.Context, tenantID, id, actor string) error
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx := r.Context()
	input := req.ToUseCaseInput(middleware.TenantFromContext(ctx), middleware.ActorFromContext(ctx))

	account, err := h.accountUC.CreateAccount(ctx, input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create account", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), middleware.TenantFromContext(r.Context()), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetDefault retrieves the tenant's default account.
func (h *AccountHandler) GetDefault(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.GetDefaultAccount(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get default account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		TenantID: middleware.TenantFromContext(r.Context()),
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// SetDefault marks the account as the tenant's default.
func (h *AccountHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	err := h.accountUC.SetDefaultAccount(ctx, middleware.TenantFromContext(ctx), id, middleware.ActorFromContext(ctx))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to set default account", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Recompute re-derives the account balance from its reconciled entries.
func (h *AccountHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.RecomputeBalance(r.Context(), middleware.TenantFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to recompute balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Deactivate marks the account inactive.
func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.accountUC.DeactivateAccount(ctx, middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), middleware.ActorFromContext(ctx))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to deactivate account", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete soft-deletes the account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.accountUC.DeleteAccount(ctx, middleware.TenantFromContext(ctx), chi.URLParam(r, "id"), middleware.ActorFromContext(ctx))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to delete account", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
