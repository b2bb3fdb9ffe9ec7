package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

const receivableColumns = `id, tenant_id, customer_id, customer_name, original_amount, pending_amount,
	due_date, issue_date, settlement_date, status, interest_config, last_accrual_date,
	accrual_count, interest_history, payment_history, parent_receivable_id, created_at, updated_at`

// ReceivableRepository implements usecase.ReceivableRepository. The interest
// config and both histories are stored as JSONB documents.
type ReceivableRepository struct {
	pool *pgxpool.Pool
}

// NewReceivableRepository creates a new ReceivableRepository.
func NewReceivableRepository(pool *pgxpool.Pool) *ReceivableRepository {
	return &ReceivableRepository{pool: pool}
}

// Create inserts a new receivable.
func (r *ReceivableRepository) Create(ctx context.Context, receivable *domain.Receivable) error {
	return r.insert(ctx, r.pool, receivable)
}

// CreateTx inserts a new receivable within a transaction.
func (r *ReceivableRepository) CreateTx(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error {
	return r.insert(ctx, tx.(*Tx).PgxTx(), receivable)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (tag pgconn.CommandTag, err error)
}

func (r *ReceivableRepository) insert(ctx context.Context, db execer, receivable *domain.Receivable) error {
	config, history, payments, err := marshalReceivableDocs(receivable)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO receivables (
			id, tenant_id, customer_id, customer_name, original_amount, pending_amount,
			due_date, issue_date, settlement_date, status, interest_config,
			last_accrual_date, accrual_count, interest_history, payment_history,
			parent_receivable_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = db.Exec(ctx, query,
		receivable.ID,
		receivable.TenantID,
		receivable.CustomerID,
		receivable.CustomerName,
		decimalToNumeric(receivable.OriginalAmount),
		decimalToNumeric(receivable.PendingAmount),
		timeToPgTimestamptz(receivable.DueDate),
		timeToPgTimestamptz(receivable.IssueDate),
		timePtrToPgTimestamptz(receivable.SettlementDate),
		receivable.Status,
		config,
		timePtrToPgTimestamptz(receivable.LastAccrualDate),
		receivable.AccrualCount,
		history,
		payments,
		receivable.ParentReceivableID,
		timeToPgTimestamptz(receivable.CreatedAt),
		timeToPgTimestamptz(receivable.UpdatedAt),
	)

	return err
}

// GetByID retrieves a receivable by ID.
func (r *ReceivableRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Receivable, error) {
	query := `
		SELECT ` + receivableColumns + `
		FROM receivables
		WHERE tenant_id = $1 AND id = $2
	`

	return r.scanReceivable(r.pool.QueryRow(ctx, query, tenantID, id))
}

// GetByIDForUpdate retrieves a receivable by ID with a FOR UPDATE lock.
func (r *ReceivableRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Receivable, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + receivableColumns + `
		FROM receivables
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`

	return r.scanReceivable(pgxTx.QueryRow(ctx, query, tenantID, id))
}

// Update persists the full receivable state.
func (r *ReceivableRepository) Update(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error {
	pgxTx := tx.(*Tx).PgxTx()

	config, history, payments, err := marshalReceivableDocs(receivable)
	if err != nil {
		return err
	}

	query := `
		UPDATE receivables SET
			pending_amount = $3, settlement_date = $4, status = $5,
			interest_config = $6, last_accrual_date = $7, accrual_count = $8,
			interest_history = $9, payment_history = $10, updated_at = $11
		WHERE tenant_id = $1 AND id = $2
	`

	tag, err := pgxTx.Exec(ctx, query,
		receivable.TenantID,
		receivable.ID,
		decimalToNumeric(receivable.PendingAmount),
		timePtrToPgTimestamptz(receivable.SettlementDate),
		receivable.Status,
		config,
		timePtrToPgTimestamptz(receivable.LastAccrualDate),
		receivable.AccrualCount,
		history,
		payments,
		timeToPgTimestamptz(receivable.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReceivableNotFound
	}

	return nil
}

// List lists receivables matching the filter, oldest due first.
func (r *ReceivableRepository) List(ctx context.Context, filter usecase.ReceivableFilter) ([]*domain.Receivable, error) {
	query := `
		SELECT ` + receivableColumns + `
		FROM receivables
		WHERE tenant_id = $1
	`
	args := []any{filter.TenantID}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(` AND customer_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	query += ` ORDER BY due_date, id`

	args = append(args, filter.Limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	return r.queryReceivables(ctx, query, args...)
}

// ListChildren lists the installments produced by splitting the parent.
func (r *ReceivableRepository) ListChildren(ctx context.Context, tenantID, parentID string) ([]*domain.Receivable, error) {
	query := `
		SELECT ` + receivableColumns + `
		FROM receivables
		WHERE tenant_id = $1 AND parent_receivable_id = $2
		ORDER BY due_date, id
	`

	return r.queryReceivables(ctx, query, tenantID, parentID)
}

// ListAccrualCandidates returns non-terminal receivables across all tenants
// whose interest schedule has started. The per-frequency due check stays in
// the domain; this only narrows the scan.
func (r *ReceivableRepository) ListAccrualCandidates(ctx context.Context, asOf time.Time, limit, offset int) ([]*domain.Receivable, error) {
	query := `
		SELECT ` + receivableColumns + `
		FROM receivables
		WHERE status IN ('pending', 'partial')
		  AND interest_config IS NOT NULL
		  AND (interest_config->>'start_date')::timestamptz <= $1
		ORDER BY tenant_id, id
		LIMIT $2 OFFSET $3
	`

	return r.queryReceivables(ctx, query, timeToPgTimestamptz(asOf), limit, offset)
}

func (r *ReceivableRepository) queryReceivables(ctx context.Context, query string, args ...any) ([]*domain.Receivable, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receivables []*domain.Receivable
	for rows.Next() {
		receivable, err := r.scanReceivable(rows)
		if err != nil {
			return nil, err
		}
		receivables = append(receivables, receivable)
	}

	return receivables, rows.Err()
}

func (r *ReceivableRepository) scanReceivable(row pgx.Row) (*domain.Receivable, error) {
	var (
		receivable        domain.Receivable
		original, pending pgtype.Numeric
		dueDate           pgtype.Timestamptz
		issueDate         pgtype.Timestamptz
		settlementDate    pgtype.Timestamptz
		config            []byte
		lastAccrualDate   pgtype.Timestamptz
		history           []byte
		payments          []byte
		createdAt         pgtype.Timestamptz
		updatedAt         pgtype.Timestamptz
	)

	err := row.Scan(
		&receivable.ID,
		&receivable.TenantID,
		&receivable.CustomerID,
		&receivable.CustomerName,
		&original,
		&pending,
		&dueDate,
		&issueDate,
		&settlementDate,
		&receivable.Status,
		&config,
		&lastAccrualDate,
		&receivable.AccrualCount,
		&history,
		&payments,
		&receivable.ParentReceivableID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReceivableNotFound
		}

		return nil, err
	}

	receivable.OriginalAmount = numericToDecimal(original)
	receivable.PendingAmount = numericToDecimal(pending)
	receivable.DueDate = dueDate.Time
	receivable.IssueDate = issueDate.Time
	receivable.SettlementDate = pgTimestamptzToTimePtr(settlementDate)
	receivable.LastAccrualDate = pgTimestamptzToTimePtr(lastAccrualDate)
	receivable.CreatedAt = createdAt.Time
	receivable.UpdatedAt = updatedAt.Time

	if config != nil {
		_ = json.Unmarshal(config, &receivable.InterestConfig)
	}
	if history != nil {
		_ = json.Unmarshal(history, &receivable.InterestHistory)
	}
	if payments != nil {
		_ = json.Unmarshal(payments, &receivable.PaymentHistory)
	}

	return &receivable, nil
}

func marshalReceivableDocs(r *domain.Receivable) (config, history, payments []byte, err error) {
	if r.InterestConfig != nil {
		config, err = json.Marshal(r.InterestConfig)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	history, err = json.Marshal(r.InterestHistory)
	if err != nil {
		return nil, nil, nil, err
	}

	payments, err = json.Marshal(r.PaymentHistory)
	if err != nil {
		return nil, nil, nil, err
	}

	return config, history, payments, nil
}
