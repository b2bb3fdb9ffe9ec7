package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

// pgErrUniqueViolation is the PostgreSQL code raised by the
// (tenant_id, code) unique index.
const pgErrUniqueViolation = "23505"

const entryColumns = `id, tenant_id, code, type, amount, operation_date, reconciliation_date,
	status, source_account_id, destination_account_id, category_id, category_name,
	created_by, metadata, created_at, updated_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts a new ledger entry within a transaction. A code collision
// surfaces as domain.ErrDuplicateCode.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ledger_entries (
			id, tenant_id, code, type, amount, operation_date, reconciliation_date,
			status, source_account_id, destination_account_id, category_id,
			category_name, created_by, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = pgxTx.Exec(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.Code,
		entry.Type,
		decimalToNumeric(entry.Amount),
		timeToPgTimestamptz(entry.OperationDate),
		timePtrToPgTimestamptz(entry.ReconciliationDate),
		entry.Status,
		entry.SourceAccountID,
		entry.DestinationAccountID,
		entry.CategoryID,
		entry.CategoryName,
		entry.CreatedBy,
		metadata,
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrDuplicateCode
		}

		return err
	}

	return nil
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE tenant_id = $1 AND id = $2
	`

	return r.scanEntry(r.pool.QueryRow(ctx, query, tenantID, id))
}

// GetByIDForUpdate retrieves an entry by ID with a FOR UPDATE lock.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.LedgerEntry, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`

	return r.scanEntry(pgxTx.QueryRow(ctx, query, tenantID, id))
}

// Update persists the full entry state.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE ledger_entries SET
			amount = $3, operation_date = $4, reconciliation_date = $5,
			status = $6, source_account_id = $7, destination_account_id = $8,
			category_id = $9, category_name = $10, metadata = $11, updated_at = $12
		WHERE tenant_id = $1 AND id = $2
	`

	tag, err := pgxTx.Exec(ctx, query,
		entry.TenantID,
		entry.ID,
		decimalToNumeric(entry.Amount),
		timeToPgTimestamptz(entry.OperationDate),
		timePtrToPgTimestamptz(entry.ReconciliationDate),
		entry.Status,
		entry.SourceAccountID,
		entry.DestinationAccountID,
		entry.CategoryID,
		entry.CategoryName,
		metadata,
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, tenantID, id string) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`DELETE FROM ledger_entries WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// List lists entries matching the filter, newest operation first.
func (r *EntryRepository) List(ctx context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE tenant_id = $1
	`
	args := []any{filter.TenantID}

	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		query += fmt.Sprintf(` AND (source_account_id = $%d OR destination_account_id = $%d)`, len(args), len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}

	query += ` ORDER BY operation_date DESC, code DESC`

	args = append(args, filter.Limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// LatestCodeForPeriod row-locks and returns the code of the most recently
// created entry of the tenant/type/period. The lock serializes concurrent
// generators deriving the next sequence from the same row.
func (r *EntryRepository) LatestCodeForPeriod(ctx context.Context, tx usecase.Transaction, tenantID string, entryType domain.EntryType, period domain.Period) (string, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT code
		FROM ledger_entries
		WHERE tenant_id = $1 AND type = $2 AND code LIKE $3
		ORDER BY created_at DESC, code DESC
		LIMIT 1
		FOR UPDATE
	`

	pattern := domain.CodePrefix(entryType) + period.String() + "%"

	var code string
	err := pgxTx.QueryRow(ctx, query, tenantID, entryType, pattern).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}

	return code, err
}

// CodeExists checks whether the tenant already uses the code.
func (r *EntryRepository) CodeExists(ctx context.Context, tx usecase.Transaction, tenantID, code string) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var exists bool
	err := pgxTx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE tenant_id = $1 AND code = $2)`,
		tenantID, code,
	).Scan(&exists)

	return exists, err
}

// CountByAccount counts the entries referencing the account as source or
// destination.
func (r *EntryRepository) CountByAccount(ctx context.Context, tenantID, accountID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ledger_entries
		 WHERE tenant_id = $1 AND (source_account_id = $2 OR destination_account_id = $2)`,
		tenantID, accountID,
	).Scan(&count)

	return count, err
}

// ReconciledTotals sums the reconciled credits and debits referencing the
// account. Inflow and opening entries credit their source account; outflow
// and closing entries debit it; a transfer debits its source and credits
// its destination.
func (r *EntryRepository) ReconciledTotals(ctx context.Context, tx usecase.Transaction, tenantID, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE
				(type IN ('inflow', 'opening') AND source_account_id = $2)
				OR (type = 'transfer' AND destination_account_id = $2)
			), 0),
			COALESCE(SUM(amount) FILTER (WHERE
				(type IN ('outflow', 'closing') AND source_account_id = $2)
				OR (type = 'transfer' AND source_account_id = $2)
			), 0)
		FROM ledger_entries
		WHERE tenant_id = $1
		  AND status = 'reconciled'
		  AND (source_account_id = $2 OR destination_account_id = $2)
	`

	var credits, debits pgtype.Numeric
	if err := pgxTx.QueryRow(ctx, query, tenantID, accountID).Scan(&credits, &debits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(credits), numericToDecimal(debits), nil
}

func (r *EntryRepository) scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry              domain.LedgerEntry
		amount             pgtype.Numeric
		operationDate      pgtype.Timestamptz
		reconciliationDate pgtype.Timestamptz
		metadata           []byte
		createdAt          pgtype.Timestamptz
		updatedAt          pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.TenantID,
		&entry.Code,
		&entry.Type,
		&amount,
		&operationDate,
		&reconciliationDate,
		&entry.Status,
		&entry.SourceAccountID,
		&entry.DestinationAccountID,
		&entry.CategoryID,
		&entry.CategoryName,
		&entry.CreatedBy,
		&metadata,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	entry.Amount = numericToDecimal(amount)
	entry.OperationDate = operationDate.Time
	entry.ReconciliationDate = pgTimestamptzToTimePtr(reconciliationDate)
	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time

	if metadata != nil {
		_ = json.Unmarshal(metadata, &entry.Metadata)
	}

	return &entry, nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}

	return json.Marshal(metadata)
}
