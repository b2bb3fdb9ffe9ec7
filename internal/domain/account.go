package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a balance for a funding source (bank account, cash drawer,
// wallet). CurrentBalance is derived: it is only ever written by the balance
// recomputation routine, never directly.
type Account struct {
	ID             string
	TenantID       string
	Name           string
	OpeningBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	IsDefault      bool
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Validate checks account invariants on create/update.
func (a *Account) Validate() error {
	return ValidateAccountName(a.Name)
}

// CanBeDefault reports whether the account may be marked as the tenant's
// default account. Only active, non-deleted accounts qualify.
func (a *Account) CanBeDefault() bool {
	return a.Active && a.DeletedAt == nil
}

// ComputeBalance derives the current balance from the opening balance and
// the reconciled credit/debit totals of the entries referencing the account.
func (a *Account) ComputeBalance(credits, debits decimal.Decimal) decimal.Decimal {
	return a.OpeningBalance.Add(credits).Sub(debits)
}
