package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/mq"
	"github.com/shaiso/Conductor/internal/orchestrator"
	"github.com/shaiso/Conductor/internal/telemetry"
)

// QueueRunner диспетчеризует запуски одного типа агента через RabbitMQ.
// Task reference — идентификатор сообщения agent.dispatch.
type QueueRunner struct {
	agent     domain.AgentType
	publisher *mq.Publisher
	logger    *slog.Logger
}

// NewQueueRunner создаёт QueueRunner для агента.
func NewQueueRunner(agent domain.AgentType, publisher *mq.Publisher, logger *slog.Logger) *QueueRunner {
	return &QueueRunner{
		agent:     agent,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit публикует запуск агента и возвращает task reference.
func (r *QueueRunner) Submit(ctx context.Context, projectID uuid.UUID, metadata map[string]any) (string, error) {
	taskID := uuid.New()
	payload := mq.AgentDispatchPayload{
		TaskID:        taskID,
		ProjectID:     projectID,
		Agent:         r.agent.String(),
		Metadata:      metadata,
		CorrelationID: telemetry.CorrelationID(ctx),
	}

	if err := r.publisher.PublishAgentDispatch(ctx, payload); err != nil {
		return "", fmt.Errorf("publish agent dispatch: %w", err)
	}

	r.logger.Info("agent dispatch published",
		"task_id", taskID,
		"project_id", projectID,
		"agent", r.agent,
	)
	return taskID.String(), nil
}

// Runners строит реестр диспетчеров для всех типов агентов.
func Runners(publisher *mq.Publisher, logger *slog.Logger) map[domain.AgentType]orchestrator.Runner {
	runners := make(map[domain.AgentType]orchestrator.Runner, len(domain.AgentTypes()))
	for _, agent := range domain.AgentTypes() {
		runners[agent] = NewQueueRunner(agent, publisher, logger)
	}
	return runners
}
