package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
)

// StateHistoryRepo — репозиторий для работы со state_history.
// История append-only.
type StateHistoryRepo struct {
	db DB
}

// NewStateHistoryRepo создаёт новый StateHistoryRepo.
func NewStateHistoryRepo(db DB) *StateHistoryRepo {
	return &StateHistoryRepo{db: db}
}

// Insert добавляет запись истории переходов.
func (r *StateHistoryRepo) Insert(ctx context.Context, entry *domain.StateHistoryEntry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO state_history (id, project_id, from_state, to_state, reason,
		                           triggered_by, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.Exec(ctx, query,
		entry.ID,
		entry.ProjectID,
		entry.FromState,
		entry.ToState,
		nullString(entry.Reason),
		entry.TriggeredBy,
		metadataJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert state history: %w", err)
	}
	return nil
}

// Recent возвращает последние переходы проекта, новые первыми.
func (r *StateHistoryRepo) Recent(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.StateHistoryEntry, error) {
	query := `
		SELECT id, project_id, from_state, to_state, reason, triggered_by, metadata, created_at
		FROM state_history
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent state history: %w", err)
	}
	defer rows.Close()

	var entries []domain.StateHistoryEntry
	for rows.Next() {
		var entry domain.StateHistoryEntry
		var reason *string
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.ProjectID,
			&entry.FromState,
			&entry.ToState,
			&reason,
			&entry.TriggeredBy,
			&metadataJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan state history: %w", err)
		}

		if reason != nil {
			entry.Reason = *reason
		}
		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
