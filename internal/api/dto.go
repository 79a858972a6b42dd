package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
)

// Project DTOs

// CreateProjectRequest — запрос на создание проекта.
type CreateProjectRequest struct {
	Name          string         `json:"name"`
	ExtraMetadata map[string]any `json:"extra_metadata,omitempty"`
}

// ProjectResponse — ответ с проектом.
type ProjectResponse struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Status        domain.ProjectState `json:"status"`
	ExtraMetadata map[string]any      `json:"extra_metadata,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ProjectFromDomain конвертирует domain.Project в ProjectResponse.
func ProjectFromDomain(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:            p.ID,
		Name:          p.Name,
		Status:        p.Status,
		ExtraMetadata: p.ExtraMetadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Requirement DTOs

// CreateRequirementRequest — запрос на создание требования.
type CreateRequirementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// IsCoherent — согласовано ли требование с остальными.
	// По умолчанию true.
	IsCoherent *bool `json:"is_coherent,omitempty"`
}

// RequirementResponse — ответ с требованием.
type RequirementResponse struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsCoherent  bool      `json:"is_coherent"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequirementFromDomain конвертирует domain.Requirement в RequirementResponse.
func RequirementFromDomain(r domain.Requirement) RequirementResponse {
	return RequirementResponse{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		IsCoherent:  r.IsCoherent,
		CreatedAt:   r.CreatedAt,
	}
}

// Gateway DTOs

// GatewayTransitionRequest — запрос пользовательского решения на шлюзе.
type GatewayTransitionRequest struct {
	// RequestID — клиентский идентификатор запроса. Повторная отправка
	// с тем же RequestID вернёт результат первого применения.
	RequestID uuid.UUID `json:"request_id"`

	// Action — finalize | plan | request-code-validation.
	Action string `json:"action"`

	// CorrelationID необязателен: по умолчанию берётся id запроса
	// (X-Correlation-ID или сгенерированный middleware).
	CorrelationID uuid.UUID `json:"correlation_id,omitempty"`

	UserID *string `json:"user_id,omitempty"`
}

// Retry DTOs

// RetryRequest — запрос на повторный запуск агента.
type RetryRequest struct {
	// Metadata — входные данные запуска; участвуют в dedup-хэше.
	Metadata map[string]any `json:"metadata,omitempty"`
	// Force отключает проверку состояния и дедупликацию.
	Force bool `json:"force,omitempty"`
}
