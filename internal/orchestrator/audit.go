package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/fsm"
	"github.com/shaiso/Conductor/internal/telemetry"
)

const (
	statusRecentEvents  = 10
	statusRecentHistory = 5
)

// ProjectStatus — сводка по проекту: текущее состояние, последние
// события аудита и последние переходы.
type ProjectStatus struct {
	Project       *domain.Project            `json:"project"`
	RecentEvents  []domain.AuditLogEntry     `json:"recent_events"`
	RecentHistory []domain.StateHistoryEntry `json:"recent_history"`
	NextStates    []domain.ProjectState      `json:"next_states"`
}

// AuditLogPage — страница журнала аудита.
type AuditLogPage struct {
	Items      []domain.AuditLogEntry `json:"items"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
}

// RecordAgentStart фиксирует в журнале начало работы агента.
func (s *Service) RecordAgentStart(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, correlationID string, details map[string]any) error {
	agentCopy := agent
	entry := &domain.AuditLogEntry{
		ID:            uuid.New(),
		ProjectID:     projectID,
		CorrelationID: correlationID,
		EventType:     domain.EventAgentStarted,
		AgentType:     &agentCopy,
		Action:        fmt.Sprintf("Agent %s started", agent),
		Details:       details,
		Success:       true,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.AppendAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("record agent start: %w", err)
	}
	return nil
}

// RecordAgentExecution фиксирует завершение работы агента: запись
// аудита и доменное событие пишутся атомарно, чтобы журнал и поток
// событий не разошлись при сбое между ними.
func (s *Service) RecordAgentExecution(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, correlationID string, durationMS float64, success bool, errMessage string, details map[string]any) error {
	now := s.now().UTC()
	agentCopy := agent

	agentName := strings.ToLower(agent.String())
	eventType := domain.EventAgentCompleted
	action := fmt.Sprintf("Agent %s completed", agent)
	eventName := "agent_" + agentName + "_completed"
	if !success {
		eventType = domain.EventAgentFailed
		action = fmt.Sprintf("Agent %s failed", agent)
		eventName = "agent_" + agentName + "_failed"
	}

	entry := &domain.AuditLogEntry{
		ID:            uuid.New(),
		ProjectID:     projectID,
		CorrelationID: correlationID,
		EventType:     eventType,
		AgentType:     &agentCopy,
		Action:        action,
		Details:       details,
		DurationMS:    &durationMS,
		Success:       success,
		CreatedAt:     now,
	}
	if errMessage != "" {
		entry.ErrorMessage = &errMessage
	}

	event := &domain.DomainEvent{
		ID:            uuid.New(),
		AggregateID:   projectID,
		AggregateType: "project",
		EventName:     eventName,
		EventVersion:  1,
		EventData: map[string]any{
			"agent":       agent.String(),
			"success":     success,
			"duration_ms": durationMS,
		},
		Metadata:  map[string]any{"correlation_id": correlationID},
		CreatedAt: now,
	}

	if err := s.store.AppendExecutionRecord(ctx, entry, event); err != nil {
		return fmt.Errorf("record agent execution: %w", err)
	}
	return nil
}

// RecordRetryAttempt фиксирует запрос на повторный запуск агента.
// Запись делается до диспетчеризации, поэтому ссылки на задачу у неё нет.
func (s *Service) RecordRetryAttempt(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, force, success bool, errMessage string) error {
	agentCopy := agent
	entry := &domain.AuditLogEntry{
		ID:            uuid.New(),
		ProjectID:     projectID,
		CorrelationID: telemetry.CorrelationID(ctx),
		EventType:     domain.EventRetryAttempted,
		AgentType:     &agentCopy,
		Action:        fmt.Sprintf("Retry requested for agent %s", agent),
		Details:       map[string]any{"force": force},
		Success:       success,
		CreatedAt:     s.now().UTC(),
	}
	if errMessage != "" {
		entry.ErrorMessage = &errMessage
	}
	if err := s.store.AppendAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("record retry attempt: %w", err)
	}
	return nil
}

// GetStatus возвращает сводку по проекту: текущее состояние, до
// десяти последних событий аудита и до пяти последних переходов,
// новые записи первыми.
func (s *Service) GetStatus(ctx context.Context, projectID uuid.UUID) (*ProjectStatus, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("load project: %w", err)
	}

	events, err := s.store.RecentAuditLogs(ctx, projectID, statusRecentEvents)
	if err != nil {
		return nil, fmt.Errorf("load recent audit logs: %w", err)
	}

	history, err := s.store.RecentStateHistory(ctx, projectID, statusRecentHistory)
	if err != nil {
		return nil, fmt.Errorf("load recent state history: %w", err)
	}

	return &ProjectStatus{
		Project:       project,
		RecentEvents:  events,
		RecentHistory: history,
		NextStates:    fsm.NextStates(project.Status),
	}, nil
}

// GetAuditLogs возвращает страницу журнала аудита проекта, новые
// записи первыми, с опциональным фильтром по типу события. Номера
// страниц начинаются с единицы; страница за пределами журнала, как и
// неизвестный проект, даёт пустую страницу с корректным total, а не
// ошибку.
func (s *Service) GetAuditLogs(ctx context.Context, projectID uuid.UUID, page, pageSize int, eventType *domain.EventType) (*AuditLogPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	offset := (page - 1) * pageSize
	items, total, err := s.store.ListAuditLogs(ctx, projectID, offset, pageSize, eventType)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	if items == nil {
		items = []domain.AuditLogEntry{}
	}

	return &AuditLogPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}
