package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name           string          `json:"name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(tenantID, actor string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		TenantID:       tenantID,
		Name:           r.Name,
		OpeningBalance: r.OpeningBalance,
		Actor:          actor,
	}
}

// CreateEntryRequest represents a request to record a ledger entry.
type CreateEntryRequest struct {
	Type                 string          `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	OperationDate        *time.Time      `json:"operation_date,omitempty"`
	SourceAccountID      string          `json:"source_account_id,omitempty"`
	DestinationAccountID *string         `json:"destination_account_id,omitempty"`
	CategoryID           string          `json:"category_id,omitempty"`
	CategoryName         string          `json:"category_name,omitempty"`
	Metadata             map[string]any  `json:"metadata,omitempty"`
	Reconciled           bool            `json:"reconciled,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput(tenantID, actor string) usecase.CreateEntryInput {
	input := usecase.CreateEntryInput{
		TenantID:             tenantID,
		Type:                 domain.EntryType(r.Type),
		Amount:               r.Amount,
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		CategoryID:           r.CategoryID,
		CategoryName:         r.CategoryName,
		Metadata:             r.Metadata,
		Reconciled:           r.Reconciled,
		Actor:                actor,
	}
	if r.OperationDate != nil {
		input.OperationDate = *r.OperationDate
	}

	return input
}

// UpdateEntryRequest represents a partial update of a ledger entry. Absent
// fields are left unchanged.
type UpdateEntryRequest struct {
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	OperationDate        *time.Time       `json:"operation_date,omitempty"`
	SourceAccountID      *string          `json:"source_account_id,omitempty"`
	DestinationAccountID *string          `json:"destination_account_id,omitempty"`
	CategoryID           *string          `json:"category_id,omitempty"`
	CategoryName         *string          `json:"category_name,omitempty"`
	Metadata             map[string]any   `json:"metadata,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateEntryRequest) ToUseCaseInput(tenantID, id, actor string) usecase.UpdateEntryInput {
	return usecase.UpdateEntryInput{
		TenantID:             tenantID,
		ID:                   id,
		Amount:               r.Amount,
		OperationDate:        r.OperationDate,
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		CategoryID:           r.CategoryID,
		CategoryName:         r.CategoryName,
		Metadata:             r.Metadata,
		Actor:                actor,
	}
}

// ReconcileEntryRequest represents a request to reconcile an entry. The date
// defaults to now when absent.
type ReconcileEntryRequest struct {
	Date *time.Time `json:"date,omitempty"`
}

// CancelEntryRequest represents a request to cancel an entry.
type CancelEntryRequest struct {
	Reason string `json:"reason"`
}

// InterestConfigRequest represents the interest schedule of a receivable.
type InterestConfigRequest struct {
	Type      string          `json:"type"`
	Value     decimal.Decimal `json:"value"`
	Frequency string          `json:"frequency"`
	StartDate time.Time       `json:"start_date"`
}

// ToDomain converts to the domain config.
func (r *InterestConfigRequest) ToDomain() *domain.InterestConfig {
	if r == nil {
		return nil
	}

	return &domain.InterestConfig{
		Type:      domain.InterestType(r.Type),
		Value:     r.Value,
		Frequency: domain.InterestFrequency(r.Frequency),
		StartDate: r.StartDate,
	}
}

// CreateReceivableRequest represents a request to create a receivable.
type CreateReceivableRequest struct {
	CustomerID     string                 `json:"customer_id"`
	CustomerName   string                 `json:"customer_name"`
	Amount         decimal.Decimal        `json:"amount"`
	DueDate        time.Time              `json:"due_date"`
	IssueDate      *time.Time             `json:"issue_date,omitempty"`
	InterestConfig *InterestConfigRequest `json:"interest_config,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateReceivableRequest) ToUseCaseInput(tenantID, actor string) usecase.CreateReceivableInput {
	input := usecase.CreateReceivableInput{
		TenantID:       tenantID,
		CustomerID:     r.CustomerID,
		CustomerName:   r.CustomerName,
		Amount:         r.Amount,
		DueDate:        r.DueDate,
		InterestConfig: r.InterestConfig.ToDomain(),
		Actor:          actor,
	}
	if r.IssueDate != nil {
		input.IssueDate = *r.IssueDate
	}

	return input
}

// RegisterPaymentRequest represents a request to register a payment.
type RegisterPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method,omitempty"`
	Date   *time.Time      `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterPaymentRequest) ToUseCaseInput(tenantID, id, actor string) usecase.RegisterPaymentInput {
	input := usecase.RegisterPaymentInput{
		TenantID: tenantID,
		ID:       id,
		Amount:   r.Amount,
		Method:   r.Method,
		Actor:    actor,
	}
	if r.Date != nil {
		input.Date = *r.Date
	}

	return input
}

// AccrueInterestRequest represents a request to accrue interest manually.
type AccrueInterestRequest struct {
	Date   *time.Time `json:"date,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

// SplitInstallmentsRequest represents a request to split a receivable into
// installments.
type SplitInstallmentsRequest struct {
	Count        int       `json:"count"`
	FirstDueDate time.Time `json:"first_due_date"`
	IntervalDays int       `json:"interval_days"`
}

// ToUseCaseInput converts to use case input.
func (r *SplitInstallmentsRequest) ToUseCaseInput(tenantID, id, actor string) usecase.SplitInstallmentsInput {
	return usecase.SplitInstallmentsInput{
		TenantID:     tenantID,
		ID:           id,
		Count:        r.Count,
		FirstDueDate: r.FirstDueDate,
		IntervalDays: r.IntervalDays,
		Actor:        actor,
	}
}
