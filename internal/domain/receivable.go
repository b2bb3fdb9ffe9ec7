package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceivableStatus is the lifecycle state of a receivable.
type ReceivableStatus string

const (
	ReceivableStatusPending ReceivableStatus = "pending"
	ReceivableStatusPartial ReceivableStatus = "partial"
	ReceivableStatusSettled ReceivableStatus = "settled"
	// ReceivableStatusInstallmentParent marks a receivable whose pending
	// balance was split into child installments. Terminal.
	ReceivableStatusInstallmentParent ReceivableStatus = "installment_parent"
)

// InterestType selects how the accrued amount is computed.
type InterestType string

const (
	InterestTypePercent InterestType = "percent"
	InterestTypeFixed   InterestType = "fixed"
)

// InterestFrequency is the minimum interval between two accruals.
type InterestFrequency string

const (
	FrequencyOnce    InterestFrequency = "once"
	FrequencyDaily   InterestFrequency = "daily"
	FrequencyWeekly  InterestFrequency = "weekly"
	FrequencyMonthly InterestFrequency = "monthly"
)

// InterestConfig describes the interest schedule of a receivable. It is
// persisted as a structured value; history records keep a snapshot of the
// config in force at accrual time.
type InterestConfig struct {
	Type      InterestType      `json:"type"`
	Value     decimal.Decimal   `json:"value"`
	Frequency InterestFrequency `json:"frequency"`
	StartDate time.Time         `json:"start_date"`
}

// InterestAccrual is one immutable record in the interest history.
type InterestAccrual struct {
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	PendingBefore decimal.Decimal `json:"pending_before"`
	PendingAfter  decimal.Decimal `json:"pending_after"`
	Reason        string          `json:"reason"`
	Config        InterestConfig  `json:"config"`
}

// Payment is one immutable record in the payment history.
type Payment struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Actor  string          `json:"actor"`
}

// Receivable is an amount a customer owes. The pending amount decreases
// monotonically except for interest accrual; it is never deleted, only
// settled or superseded by installment children.
type Receivable struct {
	ID                 string
	TenantID           string
	CustomerID         string
	CustomerName       string
	OriginalAmount     decimal.Decimal
	PendingAmount      decimal.Decimal
	DueDate            time.Time
	IssueDate          time.Time
	SettlementDate     *time.Time
	Status             ReceivableStatus
	InterestConfig     *InterestConfig
	LastAccrualDate    *time.Time
	AccrualCount       int
	InterestHistory    []InterestAccrual
	PaymentHistory     []Payment
	ParentReceivableID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks receivable invariants on create.
func (r *Receivable) Validate() error {
	if r.OriginalAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// HasInterestConfig reports whether the receivable carries a complete
// interest schedule (type, value and start date all set).
func (r *Receivable) HasInterestConfig() bool {
	if r.InterestConfig == nil {
		return false
	}

	c := r.InterestConfig

	return c.Type != "" && !c.Value.IsZero() && !c.StartDate.IsZero()
}

// ShouldAccrueToday reports whether interest is due on the given day. The
// check compares calendar days, not wall-clock durations, so an accrual at
// 23:59 still blocks a second accrual at 00:01 only when both fall on the
// same day.
func (r *Receivable) ShouldAccrueToday(today time.Time) bool {
	if r.Status == ReceivableStatusSettled || r.Status == ReceivableStatusInstallmentParent {
		return false
	}
	if !r.HasInterestConfig() {
		return false
	}

	cfg := r.InterestConfig
	day := truncateToDay(today)

	if day.Before(truncateToDay(cfg.StartDate)) {
		return false
	}

	if cfg.Frequency == FrequencyOnce && r.AccrualCount > 0 {
		return false
	}

	if r.LastAccrualDate == nil {
		return true
	}

	last := truncateToDay(*r.LastAccrualDate)
	switch cfg.Frequency {
	case FrequencyOnce, FrequencyDaily:
		return !day.Before(last.AddDate(0, 0, 1))
	case FrequencyWeekly:
		return !day.Before(last.AddDate(0, 0, 7))
	case FrequencyMonthly:
		return !day.Before(last.AddDate(0, 1, 0))
	default:
		return false
	}
}

// InterestAmount computes the interest due under the current config,
// clamped to be non-negative.
func (r *Receivable) InterestAmount() decimal.Decimal {
	if !r.HasInterestConfig() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch r.InterestConfig.Type {
	case InterestTypePercent:
		amount = r.PendingAmount.Mul(r.InterestConfig.Value).Div(decimal.NewFromInt(100))
	case InterestTypeFixed:
		amount = r.InterestConfig.Value
	}

	if amount.IsNegative() {
		return decimal.Zero
	}

	return amount
}

// ApplyInterest increases the pending amount by the computed interest and
// appends an immutable snapshot to the interest history. The caller must
// have already confirmed ShouldAccrueToday.
func (r *Receivable) ApplyInterest(today time.Time, reason string) (InterestAccrual, error) {
	if !r.HasInterestConfig() {
		return InterestAccrual{}, ErrMissingInterestConf
	}

	amount := r.InterestAmount()
	day := truncateToDay(today)

	accrual := InterestAccrual{
		Date:          day,
		Amount:        amount,
		PendingBefore: r.PendingAmount,
		PendingAfter:  r.PendingAmount.Add(amount),
		Reason:        reason,
		Config:        *r.InterestConfig,
	}

	r.InterestHistory = append(r.InterestHistory, accrual)
	r.PendingAmount = accrual.PendingAfter
	r.AccrualCount++
	r.LastAccrualDate = &day

	return accrual, nil
}

// RegisterPayment applies a payment, clamping overpayment to the pending
// amount. It returns the amount actually applied and whether the input was
// clamped; the clamping is for the caller to log, never silently ignored.
func (r *Receivable) RegisterPayment(date time.Time, amount decimal.Decimal, method, actor string) (applied decimal.Decimal, clamped bool, err error) {
	if r.Status == ReceivableStatusInstallmentParent {
		return decimal.Zero, false, ErrInstallmentParent
	}
	if r.Status == ReceivableStatusSettled && r.PendingAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, ErrReceivableSettled
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, ErrInvalidAmount
	}

	applied = amount
	if applied.GreaterThan(r.PendingAmount) {
		applied = r.PendingAmount
		clamped = true
	}

	r.PaymentHistory = append(r.PaymentHistory, Payment{
		Date:   date,
		Amount: applied,
		Method: method,
		Actor:  actor,
	})

	r.PendingAmount = r.PendingAmount.Sub(applied)
	if r.PendingAmount.LessThanOrEqual(decimal.Zero) {
		r.Status = ReceivableStatusSettled
		r.SettlementDate = &date
	} else {
		r.Status = ReceivableStatusPartial
	}

	return applied, clamped, nil
}

// CanSplit checks whether the receivable may be split into installments.
func (r *Receivable) CanSplit() error {
	if r.ParentReceivableID != nil {
		return ErrAlreadyInstallment
	}
	if r.Status == ReceivableStatusInstallmentParent {
		return ErrInstallmentParent
	}
	if r.PendingAmount.LessThanOrEqual(decimal.Zero) {
		return ErrNothingToSplit
	}

	return nil
}

// SplitShares divides the pending amount into count shares rounded to two
// decimal places. The last share absorbs the rounding remainder so the
// shares always sum exactly to the pending amount.
func (r *Receivable) SplitShares(count int) ([]decimal.Decimal, error) {
	if count < 2 {
		return nil, ErrInvalidSplitCount
	}
	if err := r.CanSplit(); err != nil {
		return nil, err
	}

	share := r.PendingAmount.Div(decimal.NewFromInt(int64(count))).Round(2)

	shares := make([]decimal.Decimal, count)
	running := decimal.Zero
	for i := 0; i < count-1; i++ {
		shares[i] = share
		running = running.Add(share)
	}
	shares[count-1] = r.PendingAmount.Sub(running)

	return shares, nil
}

// FinalizeSplit marks the receivable as an installment parent with nothing
// pending. Terminal: no payment, accrual or further split applies.
func (r *Receivable) FinalizeSplit() {
	r.Status = ReceivableStatusInstallmentParent
	r.PendingAmount = decimal.Zero
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
