package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
)

// RequirementRepo — репозиторий для работы с requirements.
type RequirementRepo struct {
	db DB
}

// NewRequirementRepo создаёт новый RequirementRepo.
func NewRequirementRepo(db DB) *RequirementRepo {
	return &RequirementRepo{db: db}
}

// Create создаёт новый requirement.
func (r *RequirementRepo) Create(ctx context.Context, req *domain.Requirement) error {
	query := `
		INSERT INTO requirements (id, project_id, title, description, is_coherent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		req.ID,
		req.ProjectID,
		req.Title,
		nullString(req.Description),
		req.IsCoherent,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert requirement: %w", err)
	}
	return nil
}

// ListByProjectID возвращает requirements проекта в порядке создания.
func (r *RequirementRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Requirement, error) {
	query := `
		SELECT id, project_id, title, description, is_coherent, created_at
		FROM requirements
		WHERE project_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	var reqs []domain.Requirement
	for rows.Next() {
		var req domain.Requirement
		var description *string
		if err := rows.Scan(&req.ID, &req.ProjectID, &req.Title, &description, &req.IsCoherent, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		if description != nil {
			req.Description = *description
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// HasAny проверяет наличие хотя бы одного requirement у проекта.
func (r *RequirementRepo) HasAny(ctx context.Context, projectID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM requirements WHERE project_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, projectID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check requirements: %w", err)
	}
	return exists, nil
}

// AllCoherent проверяет, что у проекта нет некогерентных requirements.
func (r *RequirementRepo) AllCoherent(ctx context.Context, projectID uuid.UUID) (bool, error) {
	query := `SELECT NOT EXISTS (SELECT 1 FROM requirements WHERE project_id = $1 AND NOT is_coherent)`
	var coherent bool
	if err := r.db.QueryRow(ctx, query, projectID).Scan(&coherent); err != nil {
		return false, fmt.Errorf("check requirement coherence: %w", err)
	}
	return coherent, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
