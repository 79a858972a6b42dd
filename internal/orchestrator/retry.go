package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/fsm"
	"github.com/shaiso/Conductor/internal/telemetry"
)

// Статусы результата запроса на повторный запуск агента.
const (
	RetryStatusQueued    = "queued"
	RetryStatusDuplicate = "duplicate"
	RetryStatusCached    = "cached"
)

// RetryResult — итог запроса на повторный запуск агента.
//
// Queued: задача поставлена в очередь, TaskRef указывает на неё.
// Duplicate: такой же вход уже выполняется, TaskRef указывает на
// существующую задачу. Cached: такой же вход уже завершился, Result
// содержит сохранённый результат.
type RetryResult struct {
	Status  string         `json:"status"`
	TaskRef string         `json:"task_ref,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
}

// Retry ставит агента на повторный запуск для проекта.
//
// Запуск разрешён только если текущее состояние проекта допускает
// этого агента. Повторный запрос с тем же входом не порождает вторую
// задачу: дедупликация возвращает ссылку на уже идущую задачу либо
// сохранённый результат завершённой. Флаг force отключает обе проверки:
// и допустимость состояния, и дедупликацию. Форсированный запуск всегда
// ставит новую задачу.
func (s *Service) Retry(ctx context.Context, projectID uuid.UUID, agent domain.AgentType, force bool, metadata map[string]any) (*RetryResult, error) {
	if !agent.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvableAgent, agent)
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("load project: %w", err)
	}

	if !force && !fsm.CanRetry(project.Status, agent) {
		return nil, &StateError{
			Err:             ErrRetryNotAllowed,
			CurrentState:    project.Status,
			RequestedAction: "retry " + agent.String(),
		}
	}

	var inputHash string
	if !force {
		entry, hash, inFlight, err := s.CheckAndGetDedup(ctx, projectID, agent, metadata)
		if err != nil {
			return nil, err
		}
		inputHash = hash
		if inFlight {
			// Another caller holds the dedup lock but has not persisted
			// its entry yet. Dispatching now would launch the same work
			// twice; report the duplicate without a task ref.
			telemetry.RetryDispatches.WithLabelValues(agent.String(), "duplicate").Inc()
			return &RetryResult{Status: RetryStatusDuplicate}, nil
		}
		if entry != nil {
			if entry.Result != nil {
				telemetry.RetryDispatches.WithLabelValues(agent.String(), "cached").Inc()
				return &RetryResult{Status: RetryStatusCached, Result: entry.Result}, nil
			}
			res := &RetryResult{Status: RetryStatusDuplicate}
			if entry.TaskRef != nil {
				res.TaskRef = *entry.TaskRef
			}
			telemetry.RetryDispatches.WithLabelValues(agent.String(), "duplicate").Inc()
			return res, nil
		}
	}

	runner, ok := s.runners[agent]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvableAgent, agent)
	}

	// The attempt goes on the record before the dispatch: a crash after
	// Submit must not leave a running task with no audit trace.
	if err := s.RecordRetryAttempt(ctx, projectID, agent, force, true, ""); err != nil {
		return nil, err
	}

	taskRef, err := runner.Submit(ctx, projectID, metadata)
	if err != nil {
		telemetry.RetryDispatches.WithLabelValues(agent.String(), "failed").Inc()
		if auditErr := s.RecordRetryAttempt(ctx, projectID, agent, force, false, err.Error()); auditErr != nil {
			s.logger.Error("record failed retry attempt", "project_id", projectID, "agent", agent, "error", auditErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	if inputHash != "" {
		if err := s.StoreDedupResult(ctx, projectID, agent, inputHash, taskRef, nil); err != nil {
			s.logger.Warn("attach task ref to dedup entry", "project_id", projectID, "agent", agent, "error", err)
		}
	}

	telemetry.RetryDispatches.WithLabelValues(agent.String(), "queued").Inc()

	s.logger.Info("agent retry queued",
		"project_id", projectID,
		"agent", agent,
		"task_ref", taskRef,
		"force", force,
	)
	return &RetryResult{Status: RetryStatusQueued, TaskRef: taskRef}, nil
}
