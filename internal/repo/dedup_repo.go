package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/Conductor/internal/domain"
)

// DedupRepo — репозиторий для работы с dedup_keys.
// Уникальный индекс (project_id, agent_type, input_hash) гарантирует
// одну активную запись на вход.
type DedupRepo struct {
	db DB
}

// NewDedupRepo создаёт новый DedupRepo.
func NewDedupRepo(db DB) *DedupRepo {
	return &DedupRepo{db: db}
}

// Create создаёт новую dedup запись. Просроченная строка с тем же
// ключом перезаписывается, живая даёт ErrAlreadyExists.
func (r *DedupRepo) Create(ctx context.Context, entry *domain.DedupEntry) error {
	resultJSON, err := marshalNullable(entry.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `
		INSERT INTO dedup_keys (id, project_id, agent_type, input_hash, task_ref,
		                        result, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (project_id, agent_type, input_hash) DO UPDATE
		SET id = EXCLUDED.id,
		    task_ref = EXCLUDED.task_ref,
		    result = EXCLUDED.result,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		WHERE dedup_keys.expires_at <= EXCLUDED.created_at
	`
	tag, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.ProjectID,
		entry.AgentType,
		entry.InputHash,
		entry.TaskRef,
		resultJSON,
		entry.CreatedAt,
		entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert dedup entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// GetActive возвращает непросроченную dedup запись.
// ErrNotFound, если записи нет или она просрочена.
func (r *DedupRepo) GetActive(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash string, now time.Time) (*domain.DedupEntry, error) {
	query := `
		SELECT id, project_id, agent_type, input_hash, task_ref, result, created_at, expires_at
		FROM dedup_keys
		WHERE project_id = $1 AND agent_type = $2 AND input_hash = $3 AND expires_at > $4
	`
	var entry domain.DedupEntry
	var resultJSON []byte

	err := r.db.QueryRow(ctx, query, projectID, agent, inputHash, now).Scan(
		&entry.ID,
		&entry.ProjectID,
		&entry.AgentType,
		&entry.InputHash,
		&entry.TaskRef,
		&resultJSON,
		&entry.CreatedAt,
		&entry.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dedup entry: %w", err)
	}

	if resultJSON != nil {
		if err := json.Unmarshal(resultJSON, &entry.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return &entry, nil
}

// SetResult записывает ссылку на задачу и результат выполнения.
func (r *DedupRepo) SetResult(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, inputHash string, taskRef string, result map[string]any) error {
	resultJSON, err := marshalNullable(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `
		UPDATE dedup_keys
		SET task_ref = COALESCE($4, task_ref),
		    result = COALESCE($5, result)
		WHERE project_id = $1 AND agent_type = $2 AND input_hash = $3
	`
	tag, err := r.db.Exec(ctx, query, projectID, agent, inputHash, nullString(taskRef), resultJSON)
	if err != nil {
		return fmt.Errorf("update dedup entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired удаляет просроченные dedup записи и возвращает их число.
func (r *DedupRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM dedup_keys WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired dedup entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// marshalNullable возвращает nil для nil map (NULL в БД вместо "null").
func marshalNullable(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}
