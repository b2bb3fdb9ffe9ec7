package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	IsDefault      bool            `json:"is_default"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		Name:           a.Name,
		OpeningBalance: a.OpeningBalance,
		CurrentBalance: a.CurrentBalance,
		IsDefault:      a.IsDefault,
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID                   string          `json:"id"`
	Code                 string          `json:"code"`
	Type                 string          `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	OperationDate        time.Time       `json:"operation_date"`
	ReconciliationDate   *time.Time      `json:"reconciliation_date,omitempty"`
	Status               string          `json:"status"`
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID *string         `json:"destination_account_id,omitempty"`
	CategoryID           string          `json:"category_id,omitempty"`
	CategoryName         string          `json:"category_name,omitempty"`
	CreatedBy            string          `json:"created_by,omitempty"`
	Metadata             map[string]any  `json:"metadata,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:                   e.ID,
		Code:                 e.Code,
		Type:                 string(e.Type),
		Amount:               e.Amount,
		OperationDate:        e.OperationDate,
		ReconciliationDate:   e.ReconciliationDate,
		Status:               string(e.Status),
		SourceAccountID:      e.SourceAccountID,
		DestinationAccountID: e.DestinationAccountID,
		CategoryID:           e.CategoryID,
		CategoryName:         e.CategoryName,
		CreatedBy:            e.CreatedBy,
		Metadata:             e.Metadata,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// InterestConfigResponse represents an interest schedule in API responses.
type InterestConfigResponse struct {
	Type      string          `json:"type"`
	Value     decimal.Decimal `json:"value"`
	Frequency string          `json:"frequency"`
	StartDate time.Time       `json:"start_date"`
}

func interestConfigFromDomain(c *domain.InterestConfig) *InterestConfigResponse {
	if c == nil {
		return nil
	}

	return &InterestConfigResponse{
		Type:      string(c.Type),
		Value:     c.Value,
		Frequency: string(c.Frequency),
		StartDate: c.StartDate,
	}
}

// InterestAccrualResponse represents one interest history record.
type InterestAccrualResponse struct {
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	PendingBefore decimal.Decimal `json:"pending_before"`
	PendingAfter  decimal.Decimal `json:"pending_after"`
	Reason        string          `json:"reason,omitempty"`
}

// AccrualFromDomain converts a domain accrual record to a response.
func AccrualFromDomain(a *domain.InterestAccrual) *InterestAccrualResponse {
	return &InterestAccrualResponse{
		Date:          a.Date,
		Amount:        a.Amount,
		PendingBefore: a.PendingBefore,
		PendingAfter:  a.PendingAfter,
		Reason:        a.Reason,
	}
}

// PaymentResponse represents one payment history record.
type PaymentResponse struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method,omitempty"`
	Actor  string          `json:"actor,omitempty"`
}

// ReceivableResponse represents a receivable in API responses.
type ReceivableResponse struct {
	ID                 string                    `json:"id"`
	CustomerID         string                    `json:"customer_id"`
	CustomerName       string                    `json:"customer_name"`
	OriginalAmount     decimal.Decimal           `json:"original_amount"`
	PendingAmount      decimal.Decimal           `json:"pending_amount"`
	DueDate            time.Time                 `json:"due_date"`
	IssueDate          time.Time                 `json:"issue_date"`
	SettlementDate     *time.Time                `json:"settlement_date,omitempty"`
	Status             string                    `json:"status"`
	InterestConfig     *InterestConfigResponse   `json:"interest_config,omitempty"`
	LastAccrualDate    *time.Time                `json:"last_accrual_date,omitempty"`
	AccrualCount       int                       `json:"accrual_count"`
	InterestHistory    []InterestAccrualResponse `json:"interest_history,omitempty"`
	PaymentHistory     []PaymentResponse         `json:"payment_history,omitempty"`
	ParentReceivableID *string                   `json:"parent_receivable_id,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// ReceivableFromDomain converts a domain receivable to a response.
func ReceivableFromDomain(r *domain.Receivable) *ReceivableResponse {
	resp := &ReceivableResponse{
		ID:                 r.ID,
		CustomerID:         r.CustomerID,
		CustomerName:       r.CustomerName,
		OriginalAmount:     r.OriginalAmount,
		PendingAmount:      r.PendingAmount,
		DueDate:            r.DueDate,
		IssueDate:          r.IssueDate,
		SettlementDate:     r.SettlementDate,
		Status:             string(r.Status),
		InterestConfig:     interestConfigFromDomain(r.InterestConfig),
		LastAccrualDate:    r.LastAccrualDate,
		AccrualCount:       r.AccrualCount,
		ParentReceivableID: r.ParentReceivableID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	for _, a := range r.InterestHistory {
		resp.InterestHistory = append(resp.InterestHistory, *AccrualFromDomain(&a))
	}
	for _, p := range r.PaymentHistory {
		resp.PaymentHistory = append(resp.PaymentHistory, PaymentResponse{
			Date:   p.Date,
			Amount: p.Amount,
			Method: p.Method,
			Actor:  p.Actor,
		})
	}

	return resp
}

// ReceivablesFromDomain converts domain receivables to responses.
func ReceivablesFromDomain(receivables []*domain.Receivable) []*ReceivableResponse {
	result := make([]*ReceivableResponse, len(receivables))
	for i, r := range receivables {
		result[i] = ReceivableFromDomain(r)
	}
	return result
}
