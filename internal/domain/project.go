package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project — проект, проходящий через пайплайн.
//
// Поле Status изменяется исключительно через валидированные переходы
// (orchestrator.TransitionState / gateway). Читающие пути никогда не
// пишут в Status напрямую.
type Project struct {
	// ID — уникальный идентификатор проекта.
	ID uuid.UUID `json:"id"`

	// Name — имя проекта.
	Name string `json:"name"`

	// Status — текущая стадия пайплайна.
	Status ProjectState `json:"status"`

	// ExtraMetadata — произвольные метаданные проекта.
	ExtraMetadata map[string]any `json:"extra_metadata,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject создаёт проект в начальном состоянии DRAFT.
func NewProject(name string, now time.Time) *Project {
	return &Project{
		ID:        uuid.New(),
		Name:      name,
		Status:    StateDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Requirement — требование проекта.
//
// Полноценный CRUD требований (версионирование, DAG зависимостей) живёт
// за пределами оркестрационного ядра; ядру нужны только проверки
// существования и когерентности как предусловия gateway.
type Requirement struct {
	// ID — уникальный идентификатор требования.
	ID uuid.UUID `json:"id"`

	// ProjectID — ссылка на проект.
	ProjectID uuid.UUID `json:"project_id"`

	// Title — краткая формулировка.
	Title string `json:"title"`

	// Description — подробное описание.
	Description string `json:"description,omitempty"`

	// IsCoherent — прошло ли требование проверку когерентности.
	IsCoherent bool `json:"is_coherent"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}
