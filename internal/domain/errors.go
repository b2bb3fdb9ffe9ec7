package domain

import (
	"errors"
	"fmt"
)

// Error classes. Concrete errors wrap one of these so callers can match on
// the class with errors.Is without enumerating every sentinel.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrStateTransition     = errors.New("illegal state transition")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrExhausted           = errors.New("resource exhausted")
)

// Account errors
var (
	ErrAccountNotFound   = fmt.Errorf("%w: account", ErrNotFound)
	ErrAccountInactive   = fmt.Errorf("%w: inactive account cannot be default", ErrValidation)
	ErrAccountHasEntries = fmt.Errorf("%w: account is referenced by ledger entries", ErrValidation)
)

// Ledger entry errors
var (
	ErrEntryNotFound         = fmt.Errorf("%w: ledger entry", ErrNotFound)
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrTransferSameAccount   = fmt.Errorf("%w: transfer requires two distinct accounts", ErrValidation)
	ErrTransferNeedsDest     = fmt.Errorf("%w: transfer requires a destination account", ErrValidation)
	ErrUnexpectedDestination = fmt.Errorf("%w: destination account only valid for transfers", ErrValidation)
	ErrEntryCancelled        = fmt.Errorf("%w: entry is cancelled", ErrStateTransition)
	ErrCancelReasonRequired  = fmt.Errorf("%w: cancellation requires a reason", ErrValidation)
	ErrDuplicateCode         = fmt.Errorf("%w: duplicate entry code", ErrConstraintViolation)
	ErrCodeSpaceExhausted    = fmt.Errorf("%w: entry code generation retries exhausted", ErrExhausted)
)

// Receivable errors
var (
	ErrReceivableNotFound  = fmt.Errorf("%w: receivable", ErrNotFound)
	ErrReceivableSettled   = fmt.Errorf("%w: receivable is settled", ErrStateTransition)
	ErrInstallmentParent   = fmt.Errorf("%w: receivable was split into installments", ErrStateTransition)
	ErrAlreadyInstallment  = fmt.Errorf("%w: cannot split an installment", ErrValidation)
	ErrNothingToSplit      = fmt.Errorf("%w: receivable has no pending amount to split", ErrValidation)
	ErrInvalidSplitCount   = fmt.Errorf("%w: installment count must be at least 2", ErrValidation)
	ErrAccrualNotDue       = fmt.Errorf("%w: interest accrual is not due", ErrValidation)
	ErrMissingInterestConf = fmt.Errorf("%w: receivable has no interest configuration", ErrValidation)
)
