package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/Conductor/internal/domain"
)

// GatewayRepo — репозиторий для работы с gateway_audit.
// Уникальный индекс по request_id обеспечивает идемпотентность шлюза.
type GatewayRepo struct {
	db DB
}

// NewGatewayRepo создаёт новый GatewayRepo.
func NewGatewayRepo(db DB) *GatewayRepo {
	return &GatewayRepo{db: db}
}

// Insert добавляет gateway запись.
// ErrAlreadyExists при конфликте по request_id.
func (r *GatewayRepo) Insert(ctx context.Context, rec *domain.GatewayAuditRecord) error {
	query := `
		INSERT INTO gateway_audit (id, project_id, correlation_id, request_id, action,
		                           from_state, to_state, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID,
		rec.ProjectID,
		rec.CorrelationID,
		rec.RequestID,
		rec.Action,
		rec.FromState,
		rec.ToState,
		rec.UserID,
		rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert gateway record: %w", err)
	}
	return nil
}

// GetByRequestID возвращает gateway запись по request_id.
func (r *GatewayRepo) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.GatewayAuditRecord, error) {
	query := gatewaySelect + ` WHERE request_id = $1`

	var rec domain.GatewayAuditRecord
	err := r.db.QueryRow(ctx, query, requestID).Scan(
		&rec.ID,
		&rec.ProjectID,
		&rec.CorrelationID,
		&rec.RequestID,
		&rec.Action,
		&rec.FromState,
		&rec.ToState,
		&rec.UserID,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan gateway record: %w", err)
	}
	return &rec, nil
}

// ListByProjectID возвращает gateway записи проекта, новые первыми.
func (r *GatewayRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.GatewayAuditRecord, error) {
	query := gatewaySelect + `
		WHERE project_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list gateway records: %w", err)
	}
	defer rows.Close()

	var records []domain.GatewayAuditRecord
	for rows.Next() {
		var rec domain.GatewayAuditRecord
		err := rows.Scan(
			&rec.ID,
			&rec.ProjectID,
			&rec.CorrelationID,
			&rec.RequestID,
			&rec.Action,
			&rec.FromState,
			&rec.ToState,
			&rec.UserID,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan gateway record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const gatewaySelect = `
		SELECT id, project_id, correlation_id, request_id, action,
		       from_state, to_state, user_id, created_at
		FROM gateway_audit
`
