package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdesk/treasury/internal/domain"
	"github.com/printdesk/treasury/internal/usecase"
)

// AuditRepository implements audit log persistence.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Create inserts a new audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.insert(ctx, r.pool, log)
}

// CreateTx inserts a new audit log entry within a transaction, so the trail
// commits or rolls back with the action it records.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return r.insert(ctx, tx.(*Tx).PgxTx(), log)
}

func (r *AuditRepository) insert(ctx context.Context, db execer, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	var beforeState, afterState []byte
	var err error

	if log.BeforeState != nil {
		beforeState, err = json.Marshal(log.BeforeState)
		if err != nil {
			return err
		}
	}

	if log.AfterState != nil {
		afterState, err = json.Marshal(log.AfterState)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (
			id, tenant_id, actor_id, action, resource_type, resource_id,
			request_id, before_state, after_state, status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = db.Exec(ctx, query,
		log.ID,
		log.TenantID,
		log.ActorID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		beforeState,
		afterState,
		log.Status,
		log.ErrorMessage,
		timeToPgTimestamptz(log.CreatedAt),
	)

	return err
}

// List retrieves audit logs with filtering, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, tenant_id, actor_id, action, resource_type, resource_id,
		       request_id, before_state, after_state, status, error_message, created_at
		FROM audit_logs
		WHERE tenant_id = $1
	`
	args := []any{filter.TenantID}

	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		query += fmt.Sprintf(` AND actor_id = $%d`, len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(` AND action = $%d`, len(args))
	}
	if filter.ResourceType != "" {
		args = append(args, filter.ResourceType)
		query += fmt.Sprintf(` AND resource_type = $%d`, len(args))
	}
	if filter.ResourceID != "" {
		args = append(args, filter.ResourceID)
		query += fmt.Sprintf(` AND resource_id = $%d`, len(args))
	}
	if filter.StartDate != nil {
		args = append(args, timeToPgTimestamptz(*filter.StartDate))
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if filter.EndDate != nil {
		args = append(args, timeToPgTimestamptz(*filter.EndDate))
		query += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log         domain.AuditLog
			beforeState []byte
			afterState  []byte
			createdAt   pgtype.Timestamptz
		)

		err := rows.Scan(
			&log.ID,
			&log.TenantID,
			&log.ActorID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&log.RequestID,
			&beforeState,
			&afterState,
			&log.Status,
			&log.ErrorMessage,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		if beforeState != nil {
			_ = json.Unmarshal(beforeState, &log.BeforeState)
		}
		if afterState != nil {
			_ = json.Unmarshal(afterState, &log.AfterState)
		}
		log.CreatedAt = createdAt.Time

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
