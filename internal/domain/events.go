package domain

import "time"

// Event types
const (
	EventTypeEntryCreated      = "entry.created"
	EventTypeEntryUpdated      = "entry.updated"
	EventTypeEntryDeleted      = "entry.deleted"
	EventTypeEntryReconciled   = "entry.reconciled"
	EventTypeEntryUnreconciled = "entry.unreconciled"
	EventTypeEntryCancelled    = "entry.cancelled"
	EventTypeAccountCreated    = "account.created"
	EventTypeInterestAccrued   = "receivable.interest_accrued"
	EventTypePaymentRegistered = "receivable.payment_registered"
	EventTypeReceivableSettled = "receivable.settled"
	EventTypeReceivableSplit   = "receivable.split"
)

// Aggregate types
const (
	AggregateTypeEntry      = "entry"
	AggregateTypeAccount    = "account"
	AggregateTypeReceivable = "receivable"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	TenantID      string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryCreatedEvent payload
type EntryCreatedEvent struct {
	EntryID         string  `json:"entry_id"`
	TenantID        string  `json:"tenant_id"`
	Code            string  `json:"code"`
	Type            string  `json:"type"`
	Amount          string  `json:"amount"`
	SourceAccountID string  `json:"source_account_id"`
	DestAccountID   *string `json:"destination_account_id,omitempty"`
}

// EntryCancelledEvent payload
type EntryCancelledEvent struct {
	EntryID  string `json:"entry_id"`
	TenantID string `json:"tenant_id"`
	Code     string `json:"code"`
	Reason   string `json:"reason"`
}

// InterestAccruedEvent payload
type InterestAccruedEvent struct {
	ReceivableID string `json:"receivable_id"`
	TenantID     string `json:"tenant_id"`
	Amount       string `json:"amount"`
	PendingAfter string `json:"pending_after"`
	AccrualCount int    `json:"accrual_count"`
}

// PaymentRegisteredEvent payload
type PaymentRegisteredEvent struct {
	ReceivableID string `json:"receivable_id"`
	TenantID     string `json:"tenant_id"`
	Amount       string `json:"amount"`
	Method       string `json:"method"`
	Settled      bool   `json:"settled"`
}

// ReceivableSplitEvent payload
type ReceivableSplitEvent struct {
	ParentID    string   `json:"parent_id"`
	TenantID    string   `json:"tenant_id"`
	ChildIDs    []string `json:"child_ids"`
	SplitAmount string   `json:"split_amount"`
}
