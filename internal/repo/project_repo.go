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

// ProjectRepo — репозиторий для работы с projects.
type ProjectRepo struct {
	db DB
}

// NewProjectRepo создаёт новый ProjectRepo.
func NewProjectRepo(db DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create создаёт новый project.
func (r *ProjectRepo) Create(ctx context.Context, project *domain.Project) error {
	metadataJSON, err := json.Marshal(project.ExtraMetadata)
	if err != nil {
		return fmt.Errorf("marshal extra_metadata: %w", err)
	}

	query := `
		INSERT INTO projects (id, name, status, extra_metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Status,
		metadataJSON,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID возвращает project по ID.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `
		SELECT id, name, status, extra_metadata, created_at, updated_at
		FROM projects
		WHERE id = $1
	`
	return scanProject(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate возвращает project по ID, блокируя его строку до
// конца транзакции. Вызывать только на транзакционном DB.
func (r *ProjectRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `
		SELECT id, name, status, extra_metadata, created_at, updated_at
		FROM projects
		WHERE id = $1
		FOR UPDATE
	`
	return scanProject(r.db.QueryRow(ctx, query, id))
}

// List возвращает projects, новые первыми.
func (r *ProjectRepo) List(ctx context.Context, limit, offset int) ([]domain.Project, error) {
	query := `
		SELECT id, name, status, extra_metadata, created_at, updated_at
		FROM projects
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

// UpdateStatus изменяет статус проекта.
func (r *ProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ProjectState, updatedAt time.Time) error {
	query := `
		UPDATE projects
		SET status = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanProject сканирует одну строку в Project.
func scanProject(row pgx.Row) (*domain.Project, error) {
	var project domain.Project
	var metadataJSON []byte

	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Status,
		&metadataJSON,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &project.ExtraMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal extra_metadata: %w", err)
		}
	}
	return &project, nil
}
