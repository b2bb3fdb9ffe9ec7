package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryTypeInflow   EntryType = "inflow"
	EntryTypeOutflow  EntryType = "outflow"
	EntryTypeTransfer EntryType = "transfer"
	EntryTypeOpening  EntryType = "opening"
	EntryTypeClosing  EntryType = "closing"
)

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending    EntryStatus = "pending"
	EntryStatusReconciled EntryStatus = "reconciled"
	EntryStatusCancelled  EntryStatus = "cancelled"
)

// MetadataCancelReason is the metadata key holding the cancellation reason.
const MetadataCancelReason = "cancellation_reason"

// LedgerEntry is a single recorded cash movement. Once cancelled it is
// immutable; reconciliation status, not deletion, is how a mistaken entry is
// excluded from balance computation.
type LedgerEntry struct {
	ID                   string
	TenantID             string
	Code                 string
	Type                 EntryType
	Amount               decimal.Decimal
	OperationDate        time.Time
	ReconciliationDate   *time.Time
	Status               EntryStatus
	SourceAccountID      string
	DestinationAccountID *string
	CategoryID           string
	CategoryName         string
	CreatedBy            string
	Metadata             map[string]any
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate checks structural invariants of the entry.
func (e *LedgerEntry) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if e.Type == EntryTypeTransfer {
		if e.DestinationAccountID == nil || *e.DestinationAccountID == "" {
			return ErrTransferNeedsDest
		}
		if *e.DestinationAccountID == e.SourceAccountID {
			return ErrTransferSameAccount
		}
	} else if e.DestinationAccountID != nil && *e.DestinationAccountID != "" {
		return ErrUnexpectedDestination
	}

	return ValidateMetadata(e.Metadata)
}

// CanEdit reports whether the entry may still be modified.
func (e *LedgerEntry) CanEdit() bool {
	return e.Status != EntryStatusCancelled
}

// CanDelete reports whether the entry may be deleted.
func (e *LedgerEntry) CanDelete() bool {
	return e.Status != EntryStatusCancelled
}

// Reconcile marks the entry as confirmed against actual funds, making it
// eligible for balance computation.
func (e *LedgerEntry) Reconcile(date time.Time) error {
	if e.Status == EntryStatusCancelled {
		return ErrEntryCancelled
	}

	e.Status = EntryStatusReconciled
	e.ReconciliationDate = &date

	return nil
}

// Unreconcile moves the entry back to pending and clears the
// reconciliation date.
func (e *LedgerEntry) Unreconcile() error {
	if e.Status == EntryStatusCancelled {
		return ErrEntryCancelled
	}

	e.Status = EntryStatusPending
	e.ReconciliationDate = nil

	return nil
}

// Cancel terminally cancels the entry, recording the reason in metadata.
// Cancelled entries never count toward account balances.
func (e *LedgerEntry) Cancel(reason string) error {
	if e.Status == EntryStatusCancelled {
		return ErrEntryCancelled
	}
	if reason == "" {
		return ErrCancelReasonRequired
	}

	e.Status = EntryStatusCancelled
	e.ReconciliationDate = nil
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	e.Metadata[MetadataCancelReason] = reason

	return nil
}

// IsTransfer reports whether the entry moves funds between two accounts.
func (e *LedgerEntry) IsTransfer() bool {
	return e.Type == EntryTypeTransfer
}

// AccountIDs returns every account the entry references.
func (e *LedgerEntry) AccountIDs() []string {
	ids := []string{e.SourceAccountID}
	if e.DestinationAccountID != nil && *e.DestinationAccountID != "" {
		ids = append(ids, *e.DestinationAccountID)
	}

	return ids
}

// CreditsAccount reports whether a reconciled entry increases the balance of
// the given account. Opening entries count as credits, closing as debits.
func (e *LedgerEntry) CreditsAccount(accountID string) bool {
	switch e.Type {
	case EntryTypeInflow, EntryTypeOpening:
		return e.SourceAccountID == accountID
	case EntryTypeTransfer:
		return e.DestinationAccountID != nil && *e.DestinationAccountID == accountID
	default:
		return false
	}
}

// DebitsAccount reports whether a reconciled entry decreases the balance of
// the given account.
func (e *LedgerEntry) DebitsAccount(accountID string) bool {
	switch e.Type {
	case EntryTypeOutflow, EntryTypeClosing:
		return e.SourceAccountID == accountID
	case EntryTypeTransfer:
		return e.SourceAccountID == accountID
	default:
		return false
	}
}
