package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/Conductor/internal/domain"
)

// AuditLogRepo — репозиторий для работы с audit_logs.
// Журнал append-only: записи никогда не изменяются и не удаляются.
type AuditLogRepo struct {
	db DB
}

// NewAuditLogRepo создаёт новый AuditLogRepo.
func NewAuditLogRepo(db DB) *AuditLogRepo {
	return &AuditLogRepo{db: db}
}

// Insert добавляет запись аудита.
func (r *AuditLogRepo) Insert(ctx context.Context, entry *domain.AuditLogEntry) error {
	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, project_id, correlation_id, event_type, agent_type,
		                        action, details, user_id, duration_ms, success,
		                        error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.Exec(ctx, query,
		entry.ID,
		entry.ProjectID,
		nullString(entry.CorrelationID),
		entry.EventType,
		entry.AgentType,
		entry.Action,
		detailsJSON,
		entry.UserID,
		entry.DurationMS,
		entry.Success,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// Recent возвращает последние записи аудита проекта, новые первыми.
func (r *AuditLogRepo) Recent(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.AuditLogEntry, error) {
	query := auditLogSelect + `
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent audit logs: %w", err)
	}
	defer rows.Close()
	return collectAuditLogs(rows)
}

// List возвращает страницу аудита проекта (новые первыми) и общее число
// записей под фильтром. Для проекта без записей — пустая страница.
func (r *AuditLogRepo) List(ctx context.Context, projectID uuid.UUID, offset, limit int, eventType *domain.EventType) ([]domain.AuditLogEntry, int, error) {
	countQuery := `
		SELECT count(*)
		FROM audit_logs
		WHERE project_id = $1
		  AND ($2::text IS NULL OR event_type = $2)
	`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, projectID, eventType).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := auditLogSelect + `
		WHERE project_id = $1
		  AND ($2::text IS NULL OR event_type = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, projectID, eventType, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries, err := collectAuditLogs(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

const auditLogSelect = `
		SELECT id, project_id, correlation_id, event_type, agent_type, action,
		       details, user_id, duration_ms, success, error_message, created_at
		FROM audit_logs
`

// collectAuditLogs сканирует rows в записи аудита.
func collectAuditLogs(rows pgx.Rows) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		var correlationID *string
		var detailsJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.ProjectID,
			&correlationID,
			&entry.EventType,
			&entry.AgentType,
			&entry.Action,
			&detailsJSON,
			&entry.UserID,
			&entry.DurationMS,
			&entry.Success,
			&entry.ErrorMessage,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}

		if correlationID != nil {
			entry.CorrelationID = *correlationID
		}
		if detailsJSON != nil {
			if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
