package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

const accountColumns = `id, tenant_id, name, opening_balance, current_balance, is_default, active, created_at, updated_at, deleted_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (
			id, tenant_id, name, opening_balance, current_balance,
			is_default, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.TenantID,
		account.Name,
		decimalToNumeric(account.OpeningBalance),
		decimalToNumeric(account.CurrentBalance),
		account.IsDefault,
		account.Active,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, tenantID, id))
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		FOR UPDATE
	`

	return r.scanAccount(pgxTx.QueryRow(ctx, query, tenantID, id))
}

// GetDefault retrieves the tenant's default account.
func (r *AccountRepository) GetDefault(ctx context.Context, tenantID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND is_default AND deleted_at IS NULL
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, tenantID))
}

// CountByTenant counts the tenant's live accounts.
func (r *AccountRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE tenant_id = $1 AND deleted_at IS NULL`,
		tenantID,
	).Scan(&count)

	return count, err
}

// ClearDefault clears the default flag on every account of the tenant.
func (r *AccountRepository) ClearDefault(ctx context.Context, tx usecase.Transaction, tenantID string) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`UPDATE accounts SET is_default = FALSE WHERE tenant_id = $1 AND is_default`,
		tenantID,
	)

	return err
}

// MarkDefault marks the account as the tenant's default.
func (r *AccountRepository) MarkDefault(ctx context.Context, tx usecase.Transaction, tenantID, id string, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE accounts SET is_default = TRUE, updated_at = $3 WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id, timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// UpdateBalance updates the derived balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`UPDATE accounts SET current_balance = $2, updated_at = $3 WHERE id = $1`,
		id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt),
	)

	return err
}

// SetActive flips the active flag of an account.
func (r *AccountRepository) SetActive(ctx context.Context, tenantID, id string, active bool, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET active = $3, updated_at = $4 WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id, active, timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// SoftDelete marks the account as deleted. Rows are never removed.
func (r *AccountRepository) SoftDelete(ctx context.Context, tenantID, id string, deletedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET deleted_at = $3, is_default = FALSE WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id, timeToPgTimestamptz(deletedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists the tenant's accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account          domain.Account
		opening, current pgtype.Numeric
		createdAt        pgtype.Timestamptz
		updatedAt        pgtype.Timestamptz
		deletedAt        pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.TenantID,
		&account.Name,
		&opening,
		&current,
		&account.IsDefault,
		&account.Active,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.OpeningBalance = numericToDecimal(opening)
	account.CurrentBalance = numericToDecimal(current)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	if deletedAt.Valid {
		t := deletedAt.Time
		account.DeletedAt = &t
	}

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func pgTimestamptzToTimePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}

	t := ts.Time

	return &t
}
