package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/orchestrator"
)

// Core — операции оркестрационного ядра, нужные API.
// Реализуется orchestrator.Service.
type Core interface {
	GatewayTransition(ctx context.Context, req orchestrator.GatewayRequest) (*orchestrator.GatewayResponse, error)
	GetGatewayHistory(ctx context.Context, projectID uuid.UUID) ([]domain.GatewayAuditRecord, error)
	Retry(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, force bool, metadata map[string]any) (*orchestrator.RetryResult, error)
	GetStatus(ctx context.Context, projectID uuid.UUID) (*orchestrator.ProjectStatus, error)
	GetAuditLogs(ctx context.Context, projectID uuid.UUID, page, pageSize int, eventType *domain.EventType) (*orchestrator.AuditLogPage, error)
}

// ProjectStore — доступ к проектам. Реализуется repo.ProjectRepo.
type ProjectStore interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, limit, offset int) ([]domain.Project, error)
}

// RequirementStore — доступ к требованиям. Реализуется repo.RequirementRepo.
type RequirementStore interface {
	Create(ctx context.Context, req *domain.Requirement) error
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Requirement, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	core     Core
	projects ProjectStore
	reqs     RequirementStore
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Core         Core
	Projects     ProjectStore
	Requirements RequirementStore
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		core:     cfg.Core,
		projects: cfg.Projects,
		reqs:     cfg.Requirements,
		logger:   cfg.Logger,
	}
}
